package furnace

import (
	"testing"

	"github.com/pkg/errors"
)

func TestCompatDefaults_ModernFlags(t *testing.T) {
	f := newCompatFlags()

	if f.LinearPitch != LinearPitchFull {
		t.Errorf("expected LinearPitchFull, got %d", f.LinearPitch)
	}
	if f.LoopModality != LoopDoNothing {
		t.Errorf("expected LoopDoNothing, got %d", f.LoopModality)
	}
	if !f.ProperNoiseLayout {
		t.Error("expected ProperNoiseLayout to default on")
	}
	if f.PitchSlideSpeedInLinear != 4 {
		t.Errorf("expected pitch slide speed 4, got %d", f.PitchSlideSpeedInLinear)
	}
	if f.CutDelayEffectPolicy != DelayLax {
		t.Errorf("expected DelayLax, got %d", f.CutDelayEffectPolicy)
	}
	if f.JumpTreatment != JumpAll {
		t.Errorf("expected JumpAll, got %d", f.JumpTreatment)
	}
	if f.LimitSlides || f.LegacyVolumeSlides || f.OldDPCM {
		t.Error("expected historic quirks to default off")
	}
}

func TestCompatDefaults_AncientVersion(t *testing.T) {
	f := newCompatFlags()
	f.applyVersionDefaults(24)

	if !f.LimitSlides {
		t.Error("expected LimitSlides on for files older than version 37")
	}
	if f.LinearPitch != LinearPitchPartial {
		t.Errorf("expected LinearPitchPartial, got %d", f.LinearPitch)
	}
	if f.LoopModality != LoopHardReset {
		t.Errorf("expected LoopHardReset, got %d", f.LoopModality)
	}
	if f.ProperNoiseLayout {
		t.Error("expected ProperNoiseLayout off for files older than version 43")
	}
	if !f.LegacyVolumeSlides || !f.CompatibleArpeggio {
		t.Error("expected version 45 slide and arpeggio quirks on")
	}
	if f.InstrumentChangeAllowedInPorta {
		t.Error("expected InstrumentChangeAllowedInPorta off for old files")
	}
	if f.NewVolumeScaling || f.VolumeMacroLingers || !f.BrokenOutVol {
		t.Error("expected version 99 volume behavior defaults")
	}
	if f.CutDelayEffectPolicy != DelayBroken {
		t.Errorf("expected DelayBroken, got %d", f.CutDelayEffectPolicy)
	}
	if f.JumpTreatment != JumpFirstOnly {
		t.Errorf("expected JumpFirstOnly, got %d", f.JumpTreatment)
	}
	if !f.OldDPCM || !f.OldAlwaysSetVolume || !f.OldSampleOffset {
		t.Error("expected late compat defaults on for ancient files")
	}
}

func TestCompatDefaults_VersionBoundaries(t *testing.T) {
	before := newCompatFlags()
	before.applyVersionDefaults(45)
	if !before.ArpeggioInhibitsPortamento {
		t.Error("expected ArpeggioInhibitsPortamento on at version 45")
	}

	at := newCompatFlags()
	at.applyVersionDefaults(46)
	if at.ArpeggioInhibitsPortamento {
		t.Error("expected ArpeggioInhibitsPortamento off at version 46")
	}

	old := newCompatFlags()
	old.applyVersionDefaults(199)
	if !old.OldSampleOffset {
		t.Error("expected OldSampleOffset on at version 199")
	}

	cur := newCompatFlags()
	cur.applyVersionDefaults(200)
	if cur.OldSampleOffset {
		t.Error("expected OldSampleOffset off at version 200")
	}
	if cur != newCompatFlags() {
		t.Error("expected no defaults applied at the current version")
	}
}

// A version 45 file stores the first ten phase 1 flags and leaves the
// remaining budget reserved.
func TestReadCompatFlags_Phase1PrefixAndSkip(t *testing.T) {
	data := []byte{
		0x01,                   // limitSlides
		0x01,                   // linearPitch: partial
		0x02,                   // loopModality: do nothing
		0x01,                   // properNoiseLayout
		0x00,                   // waveDutyIsVolume
		0x01,                   // resetMacroOnPorta
		0x00,                   // legacyVolumeSlides
		0x01,                   // compatibleArpeggio
		0x00,                   // noteOffResetsSlides
		0x01,                   // targetResetsSlides
		0xAA, 0xAA, 0xAA, 0xAA, // reserved
		0xAA, 0xAA, 0xAA, 0xAA,
		0xAA, 0xAA,
		0x5A, // next field after the flag area
	}

	r := newReader(data)
	f := newCompatFlags()
	if err := readCompatFlags(r, &f, 45, compatPhase1, compatPhase1Bytes); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if !f.LimitSlides {
		t.Error("expected LimitSlides set")
	}
	if f.LinearPitch != LinearPitchPartial {
		t.Errorf("expected LinearPitchPartial, got %d", f.LinearPitch)
	}
	if f.LoopModality != LoopDoNothing {
		t.Errorf("expected LoopDoNothing, got %d", f.LoopModality)
	}
	if !f.ProperNoiseLayout || f.WaveDutyIsVolume {
		t.Error("expected version 43 flags read from bytes 3 and 4")
	}
	if !f.ResetMacroOnPorta || f.LegacyVolumeSlides || !f.CompatibleArpeggio {
		t.Error("expected version 45 flags read from bytes 5 through 7")
	}
	if f.NoteOffResetsSlides || !f.TargetResetsSlides {
		t.Error("expected version 45 flags read from bytes 8 and 9")
	}
	if f.ArpeggioInhibitsPortamento {
		t.Error("expected version 47 flag untouched at version 45")
	}
	if got := r.u8(); got != 0x5A {
		t.Fatalf("expected reader at offset 20 after the flag area, got byte 0x%02X", got)
	}
}

func TestReadCompatFlags_RejectsBadEnum(t *testing.T) {
	data := make([]byte, compatPhase1Bytes)
	data[1] = 9 // linearPitch out of range

	r := newReader(data)
	f := newCompatFlags()
	err := readCompatFlags(r, &f, 200, compatPhase1, compatPhase1Bytes)
	if !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}
}

func TestCompatFlags_WriteReadRoundTrip(t *testing.T) {
	want := newCompatFlags()
	want.LimitSlides = true
	want.LinearPitch = LinearPitchNone
	want.LoopModality = LoopSoftReset
	want.LegacyVolumeSlides = true
	want.BrokenDACMode = true
	want.IgnoreJumpAtEnd = true
	want.PitchSlideSpeedInLinear = 9
	want.BrokenOutVol = true
	want.CutDelayEffectPolicy = DelayStrict
	want.JumpTreatment = JumpRowPriority
	want.OldArpStrategy = true
	want.BrokenFMOff = true
	want.OldDPCM = true
	want.CeilVolumeScaling = true

	w := &writer{}
	writeCompatFlags(w, &want, 200, compatPhase1, compatPhase1Bytes)
	writeCompatFlags(w, &want, 200, compatPhase2, compatPhase2Bytes)
	writeCompatFlags(w, &want, 200, compatPhase3, compatPhase3Bytes)

	wantLen := compatPhase1Bytes + compatPhase2Bytes + compatPhase3Bytes
	if w.len() != wantLen {
		t.Fatalf("expected %d flag bytes, got %d", wantLen, w.len())
	}

	// AutoPatchbay and OldSampleOffset live outside the phase blocks, so
	// start from the same baseline.
	r := newReader(w.buf)
	got := newCompatFlags()
	for _, phase := range []struct {
		specs  []compatFlagSpec
		budget int
	}{
		{compatPhase1, compatPhase1Bytes},
		{compatPhase2, compatPhase2Bytes},
		{compatPhase3, compatPhase3Bytes},
	} {
		if err := readCompatFlags(r, &got, 200, phase.specs, phase.budget); err != nil {
			t.Fatalf("read failed: %v", err)
		}
	}

	if got != want {
		t.Fatalf("flags changed across a write and read cycle:\nwant %+v\ngot  %+v", want, got)
	}
}
