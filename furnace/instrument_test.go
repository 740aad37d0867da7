package furnace

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

// Round trip every feature kind through the standalone file format.
func TestInstrument_FeaturalRoundTrip(t *testing.T) {
	fm := NewFeatureFM()
	fm.Alg = 5
	fm.FB = 3
	fm.FMS = 2
	fm.AMS = 1
	fm.FMS2 = 6
	fm.AMS2 = 2
	fm.Ops = 4
	fm.OPLLPreset = 9
	fm.OpList[0].KSR = true
	fm.OpList[1].SUS = true
	fm.OpList[2].Enable = false
	fm.OpList[3].WS = 5

	gb := NewFeatureGB()
	gb.EnvVol = 12
	gb.EnvDir = 1
	gb.EnvLen = 5
	gb.SoundLen = 64
	gb.SoftEnv = true
	gb.HwSeq = []GBHwSeq{
		{Command: GBCmdEnvelope, Data: [2]uint8{0x57, 0}},
		{Command: GBCmdWait, Data: [2]uint8{3, 0}},
	}

	c64 := NewFeatureC64()
	c64.PulseOn = true
	c64.Envelope = GenericADSR{A: 2, D: 8, S: 4, R: 1}
	c64.Duty = 1500
	c64.Cut = 0x2AB
	c64.Res = 9
	c64.LP = true
	c64.NoTest = true

	amiga := NewFeatureAmiga()
	amiga.InitSample = 3
	amiga.UseNoteMap = true
	amiga.SampleMap[0] = SampleMapEntry{Freq: 440, SampleIndex: 1}
	amiga.SampleMap[119] = SampleMapEntry{Freq: 880, SampleIndex: 2}

	sn := NewFeatureSNES()
	sn.UseEnv = false
	sn.Sus = SusWithExp
	sn.GainMode = GainDecLog
	sn.Gain = 31
	sn.D2 = 17

	fds := &FeatureFDS{ModSpeed: 9000, ModDepth: 3, InitTableWithFirstWave: true}
	fds.ModTable[0] = 1
	fds.ModTable[31] = 7

	ws := NewFeatureWaveSynth()
	ws.WaveIndices = [2]uint32{2, 5}
	ws.Effect = WaveFXChorus
	ws.Enabled = true
	ws.Speed = 12
	ws.Params = [4]uint8{1, 2, 3, 4}

	dpcm := &FeatureDPCMMap{UseMap: true}
	dpcm.SampleMap[0] = DPCMMapEntry{Pitch: 15, Delta: 128}
	dpcm.SampleMap[119] = DPCMMapEntry{Pitch: 1, Delta: 2}

	want := &Instrument{
		Meta: InsMeta{Version: defaultInsVersion, Type: InsFM4Op},
		Features: []Feature{
			&FeatureName{Name: "every feature"},
			fm,
			&FeatureMacro{Macros: []SingleMacro[MacroCode]{
				{Kind: MacroVol, Type: MacroTypeSequence, Speed: 1, Open: true,
					Data: []MacroItem{MacroLoop{}, MacroValue(15), MacroValue(14), MacroRelease{}, MacroValue(0)}},
				{Kind: MacroArp, Type: MacroTypeSequence, Speed: 2, Delay: 1,
					Data: []MacroItem{MacroValue(-12), MacroValue(0), MacroValue(12)}},
			}},
			&FeatureOpMacro{Op: 1, Macros: []SingleMacro[OpMacroCode]{
				{Kind: OpMacroTL, Speed: 1, Data: []MacroItem{MacroValue(42), MacroValue(40)}},
			}},
			c64,
			gb,
			amiga,
			&FeatureOPLDrums{FixedDrums: true, KickFreq: 1312, SnareHatFreq: 1360, TomTopFreq: 448},
			sn,
			&FeatureN163{Wave: -1, WavePos: 3, WaveLen: 32, WaveMode: 3},
			fds,
			ws,
			&FeatureSampleList{Entries: []PointerEntry{{Index: 0, Pointer: 100}, {Index: 2, Pointer: 200}}},
			&FeatureWaveList{Entries: []PointerEntry{{Index: 1, Pointer: 300}}},
			&FeatureMultiPCM{AR: 15, D1R: 14, DL: 13, D2R: 12, RR: 11, RC: 10, LFO: 3, VIB: 2, AM: 1},
			&FeatureSoundUnit{SwitchRoles: true},
			&FeatureES5506{FilterMode: ESFilterLPK2LPK1, K1: 0xABCD, K2: 0x1234, EnvCount: 500,
				LeftVolumeRamp: 1, RightVolumeRamp: 2, K1Ramp: 3, K2Ramp: 4, K1Slow: 5, K2Slow: 6},
			&FeatureX1010{BankSlot: 7},
			dpcm,
			&FeaturePowerNoise{Octave: 4},
			&FeatureSID2{Volume: 15, WaveMix: 2, NoiseMode: 1},
		},
	}

	got, err := DecodeInstrument(want.EncodeInstrument())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Meta != want.Meta {
		t.Fatalf("expected meta %+v, got %+v", want.Meta, got.Meta)
	}
	if len(got.Features) != len(want.Features) {
		t.Fatalf("expected %d features, got %d", len(want.Features), len(got.Features))
	}
	for i := range want.Features {
		if !reflect.DeepEqual(got.Features[i], want.Features[i]) {
			t.Errorf("feature %d (%s) changed across a write and read cycle:\nwant %+v\ngot  %+v",
				i, want.Features[i].Code(), want.Features[i], got.Features[i])
		}
	}
}

func TestInstrument_EmbedRoundTrip(t *testing.T) {
	want := NewInstrument()
	want.Features = []Feature{
		&FeatureName{Name: "embed"},
		&FeaturePowerNoise{Octave: 2},
	}

	w := &writer{}
	want.encodeEmbed(w)
	w.u8(0x77) // trailing data past the block

	if string(w.buf[:4]) != "INS2" {
		t.Fatalf("expected INS2 magic, got %q", w.buf[:4])
	}

	r := newReader(w.buf)
	got := NewInstrument()
	if err := got.decodeFeaturalEmbed(r); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(got.Features, want.Features) {
		t.Fatalf("expected features %+v, got %+v", want.Features, got.Features)
	}
	if b := r.u8(); b != 0x77 {
		t.Fatalf("expected block to consume exactly its size, next byte 0x%02X", b)
	}
}

func TestInstrument_NameLastWins(t *testing.T) {
	ins := NewInstrument()
	ins.Features = []Feature{
		&FeatureName{Name: "first"},
		&FeatureName{Name: "second"},
	}
	if got := ins.Name(); got != "second" {
		t.Fatalf("expected %q, got %q", "second", got)
	}
}

func TestDecodeInstrument_BadMagic(t *testing.T) {
	if _, err := DecodeInstrument([]byte("not an instrument at all")); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeInstrument_UnknownFeatureCode(t *testing.T) {
	w := &writer{}
	w.raw([]byte(insFileMagicNew))
	w.u16(defaultInsVersion)
	w.u16(uint16(InsFM4Op))
	w.raw([]byte("ZZ"))
	w.u16(0)

	_, err := DecodeInstrument(w.buf)
	if !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}
}

func TestDecodeInstrument_UnknownType(t *testing.T) {
	w := &writer{}
	w.raw([]byte(insFileMagicNew))
	w.u16(defaultInsVersion)
	w.u16(9999)

	_, err := DecodeInstrument(w.buf)
	if !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}
}

// buildLegacyInsBlock renders a version 16 unified-format block. Blocks this
// old stop after the first four macros.
func buildLegacyInsBlock(arpMacMode uint8, arpValues []uint32, arpLoop uint32) []byte {
	body := &writer{}
	body.u16(16) // format version
	body.u8(uint8(InsStandard))
	body.zeros(1)
	body.cstr("Lead")

	// fm
	body.u8(3) // alg
	body.u8(4) // fb
	body.u8(5) // fms
	body.u8(2) // ams
	body.u8(2) // ops
	body.u8(0) // opll preset
	body.u16(0)
	for op := 0; op < 4; op++ {
		if op == 0 {
			for _, v := range []uint8{
				1,  // am
				31, // ar
				8,  // dr
				5,  // mult
				3,  // rr
				15, // sl
				42, // tl
				0,  // dt2
				1,  // rs
				5,  // dt
				2,  // d2r
				0,  // ssg
				0,  // dam
				0,  // dvb
				0,  // egt
				1,  // ksl
				0,  // sus
				1,  // vib
				0,  // ws
				0,  // ksr
				0,  // enable, ignored before version 114
				7,  // kvs, ignored before version 115
			} {
				body.u8(v)
			}
		} else {
			body.zeros(22)
		}
		body.zeros(10)
	}

	// game boy
	body.u8(12) // env vol
	body.u8(1)  // env dir
	body.u8(3)  // env len
	body.u8(40) // sound len

	// c64
	body.u8(1) // tri
	body.u8(0) // saw
	body.u8(1) // pulse
	body.u8(0) // noise
	body.u16(1500)
	body.u8(1) // ring mod
	body.u8(0) // osc sync
	body.u8(1) // to filter
	body.u8(0) // init filter
	body.u8(0) // vol is cutoff
	body.u8(9) // res
	body.u8(1) // lp
	body.u8(0) // bp
	body.u8(1) // hp
	body.u8(0) // ch3 off
	body.u16(600)
	body.u8(0) // duty abs
	body.u8(0) // filter abs
	body.u8(2) // a
	body.u8(8) // d
	body.u8(4) // s
	body.u8(1) // r

	// sample settings, wave fields ignored before version 82
	body.u16(7)
	body.u8(1)
	body.u8(5)
	body.zeros(12)

	// macro headers: vol, arp, duty, wave
	body.u32(3)
	body.u32(uint32(len(arpValues)))
	body.u32(0)
	body.u32(0)
	body.u32(1) // vol loop
	body.u32(arpLoop)
	body.u32(legacyMacroNone)
	body.u32(legacyMacroNone)
	body.u8(arpMacMode)
	body.u8(31) // old vol height: marks a PC Engine instrument
	body.u8(0)  // old duty height
	body.zeros(1)

	for _, v := range []uint32{10, 20, 30} {
		body.u32(v)
	}
	for _, v := range arpValues {
		body.u32(v)
	}

	w := &writer{}
	w.raw([]byte(insEmbedMagic))
	w.u32(uint32(body.len()))
	w.raw(body.buf)
	return w.buf
}

func TestInstrument_LegacyBlock(t *testing.T) {
	data := buildLegacyInsBlock(0, []uint32{12, 13}, legacyMacroNone)

	ins := NewInstrument()
	if err := ins.decodeLegacyEmbed(newReader(data)); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if ins.Meta.Version != 16 {
		t.Errorf("expected version 16, got %d", ins.Meta.Version)
	}
	if ins.Meta.Type != InsPCE {
		t.Errorf("expected PC Engine type from the old volume height, got %s", ins.Meta.Type)
	}
	if got := ins.Name(); got != "Lead" {
		t.Errorf("expected name %q, got %q", "Lead", got)
	}
	if len(ins.Features) != 6 {
		t.Fatalf("expected 6 features, got %d", len(ins.Features))
	}

	fm, ok := ins.Features[1].(*FeatureFM)
	if !ok {
		t.Fatalf("expected FM feature, got %T", ins.Features[1])
	}
	if fm.Alg != 3 || fm.FB != 4 || fm.Ops != 2 {
		t.Errorf("expected alg 3 fb 4 ops 2, got %d %d %d", fm.Alg, fm.FB, fm.Ops)
	}
	op := fm.OpList[0]
	if op.TL != 42 || !op.AM || !op.VIB || op.DT != 5 || op.KSL != 1 {
		t.Errorf("unexpected operator 0: %+v", op)
	}
	if !op.Enable || op.KVS != 2 {
		t.Errorf("expected enable and kvs bytes ignored at version 16, got %v %d", op.Enable, op.KVS)
	}

	gb, ok := ins.Features[2].(*FeatureGB)
	if !ok {
		t.Fatalf("expected Game Boy feature, got %T", ins.Features[2])
	}
	if gb.EnvVol != 12 || gb.EnvDir != 1 || gb.EnvLen != 3 || gb.SoundLen != 40 {
		t.Errorf("unexpected Game Boy settings: %+v", gb)
	}

	c64, ok := ins.Features[3].(*FeatureC64)
	if !ok {
		t.Fatalf("expected C64 feature, got %T", ins.Features[3])
	}
	if !c64.TriOn || c64.SawOn || !c64.PulseOn {
		t.Errorf("unexpected C64 waveforms: %+v", c64)
	}
	if c64.Duty != 1500 || c64.Cut != 600 || c64.Res != 9 {
		t.Errorf("expected duty 1500 cut 600 res 9, got %d %d %d", c64.Duty, c64.Cut, c64.Res)
	}
	if c64.Envelope != (GenericADSR{A: 2, D: 8, S: 4, R: 1}) {
		t.Errorf("unexpected C64 envelope: %+v", c64.Envelope)
	}

	amiga, ok := ins.Features[4].(*FeatureAmiga)
	if !ok {
		t.Fatalf("expected sample feature, got %T", ins.Features[4])
	}
	if amiga.InitSample != 7 {
		t.Errorf("expected init sample 7, got %d", amiga.InitSample)
	}
	if amiga.UseWave || amiga.WaveLen != 31 {
		t.Errorf("expected wave fields ignored at version 16, got %v %d", amiga.UseWave, amiga.WaveLen)
	}

	mac, ok := ins.Features[5].(*FeatureMacro)
	if !ok {
		t.Fatalf("expected macro feature, got %T", ins.Features[5])
	}
	if len(mac.Macros) != 4 {
		t.Fatalf("expected 4 macros, got %d", len(mac.Macros))
	}
	wantVol := []MacroItem{MacroValue(10), MacroLoop{}, MacroValue(20), MacroValue(30)}
	if !reflect.DeepEqual(mac.Macros[0].Data, wantVol) {
		t.Errorf("expected volume macro %v, got %v", wantVol, mac.Macros[0].Data)
	}
	if mac.Macros[0].Speed != 1 {
		t.Errorf("expected default macro speed 1, got %d", mac.Macros[0].Speed)
	}
	// relative arps in old blocks center on -12
	if got := mac.Macros[1].Values(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("expected arp values [0 1], got %v", got)
	}
	// duty macro data is stale in old PC Engine blocks
	if len(mac.Macros[2].Data) != 0 {
		t.Errorf("expected empty duty macro, got %v", mac.Macros[2].Data)
	}
}

func TestInstrument_LegacyFixedArp(t *testing.T) {
	data := buildLegacyInsBlock(1, []uint32{5, 6}, legacyMacroNone)

	ins := NewInstrument()
	if err := ins.decodeLegacyEmbed(newReader(data)); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	mac := ins.Features[5].(*FeatureMacro)
	want := []MacroItem{MacroValue(5 | 1<<30), MacroValue(6 | 1<<30)}
	if !reflect.DeepEqual(mac.Macros[1].Data, want) {
		t.Fatalf("expected fixed arp values %v, got %v", want, mac.Macros[1].Data)
	}
}

func TestInstrument_LegacyBadMagic(t *testing.T) {
	ins := NewInstrument()
	err := ins.decodeLegacyEmbed(newReader([]byte("XXXX\x00\x00\x00\x00")))
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestDecodeInstrument_LegacyFile(t *testing.T) {
	block := buildLegacyInsBlock(0, []uint32{12}, legacyMacroNone)

	w := &writer{}
	w.raw([]byte(insFileMagic))
	w.u16(16) // format version
	w.u16(0)  // reserved
	w.u32(32) // instrument pointer
	w.u16(0)  // wavetables
	w.u16(0)  // samples
	w.u32(0)  // reserved
	w.raw(block)

	ins, err := DecodeInstrument(w.buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := ins.Name(); got != "Lead" {
		t.Errorf("expected name %q, got %q", "Lead", got)
	}
	if len(ins.Wavetables) != 0 || len(ins.Samples) != 0 {
		t.Errorf("expected no embedded assets, got %d waves %d samples",
			len(ins.Wavetables), len(ins.Samples))
	}
}
