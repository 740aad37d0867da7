package furnace

import (
	"github.com/pkg/errors"
)

// CompatFlags is the module compatibility flag set, a.k.a. "the motherload".
// Defaults correspond to what the tracker uses for a brand new module.
type CompatFlags struct {
	LimitSlides                    bool
	LinearPitch                    LinearPitch
	LoopModality                   LoopModality
	ProperNoiseLayout              bool
	WaveDutyIsVolume               bool
	ResetMacroOnPorta              bool
	LegacyVolumeSlides             bool
	CompatibleArpeggio             bool
	NoteOffResetsSlides            bool
	TargetResetsSlides             bool
	ArpeggioInhibitsPortamento     bool
	WackAlgorithmMacro             bool
	BrokenShortcutSlides           bool
	IgnoreDuplicatesSlides         bool
	StopPortamentoOnNoteOff        bool
	ContinuousVibrato              bool
	BrokenDACMode                  bool
	OneTickCut                     bool
	InstrumentChangeAllowedInPorta bool
	ResetNoteBaseOnArpeggioStop    bool

	BrokenSpeedSelection        bool
	NoSlidesOnFirstTick         bool
	NextRowResetArpPos          bool
	IgnoreJumpAtEnd             bool
	BuggyPortamentoAfterSlide   bool
	GBInsAffectsEnv             bool
	SharedExtchState            bool
	IgnoreOutsideDACModeChange  bool
	E1E2TakesPriority           bool
	NewSegaPCM                  bool
	WeirdFNumPitchSlides        bool
	SNDutyResetsPhase           bool
	LinearPitchMacro            bool
	PitchSlideSpeedInLinear     uint8
	OldOctaveBoundary           bool
	DisableOPN2DACVolumeControl bool
	NewVolumeScaling            bool
	VolumeMacroLingers          bool
	BrokenOutVol                bool
	E1E2StopOnSameNote          bool
	BrokenPortaAfterArp         bool
	SNNoLowPeriods              bool
	CutDelayEffectPolicy        DelayBehavior
	JumpTreatment               JumpTreatment
	AutoSysName                 bool
	DisableSampleMacro          bool
	BrokenOutVol2               bool
	OldArpStrategy              bool

	// Not a compat flag, but stored next to them on disk.
	AutoPatchbay bool

	BrokenPortaDuringLegato bool
	BrokenFMOff             bool
	PreNoteNoEffect         bool
	OldDPCM                 bool
	ResetArpPhaseOnNewNote  bool
	CeilVolumeScaling       bool
	OldAlwaysSetVolume      bool
	OldSampleOffset         bool
}

func newCompatFlags() CompatFlags {
	return CompatFlags{
		LinearPitch:                    LinearPitchFull,
		LoopModality:                   LoopDoNothing,
		ProperNoiseLayout:              true,
		NoteOffResetsSlides:            true,
		TargetResetsSlides:             true,
		InstrumentChangeAllowedInPorta: true,
		ResetNoteBaseOnArpeggioStop:    true,

		GBInsAffectsEnv:         true,
		SharedExtchState:        true,
		NewSegaPCM:              true,
		LinearPitchMacro:        true,
		PitchSlideSpeedInLinear: 4,
		NewVolumeScaling:        true,
		VolumeMacroLingers:      true,
		CutDelayEffectPolicy:    DelayLax,
		JumpTreatment:           JumpAll,
		AutoSysName:             true,

		AutoPatchbay: true,
	}
}

// compatDefault is one version-gated default. A module saved before the
// given version predates the flag, so loading it applies the behavior the
// tracker assumed at the time.
type compatDefault struct {
	before uint16
	apply  func(*CompatFlags)
}

// Thresholds here are not always the same as the on-disk presence
// thresholds in the phase tables below; a few flags changed their default
// one or two versions before they were first written to the file.
var compatDefaults = []compatDefault{
	{37, func(f *CompatFlags) {
		f.LimitSlides = true
		f.LinearPitch = LinearPitchPartial
		f.LoopModality = LoopHardReset
	}},
	{43, func(f *CompatFlags) {
		f.ProperNoiseLayout = false
		f.WaveDutyIsVolume = false
	}},
	{45, func(f *CompatFlags) {
		f.ResetMacroOnPorta = true
		f.LegacyVolumeSlides = true
		f.CompatibleArpeggio = true
		f.NoteOffResetsSlides = true
		f.TargetResetsSlides = true
	}},
	{46, func(f *CompatFlags) {
		f.ArpeggioInhibitsPortamento = true
		f.WackAlgorithmMacro = true
	}},
	{49, func(f *CompatFlags) { f.BrokenShortcutSlides = true }},
	{50, func(f *CompatFlags) { f.IgnoreDuplicatesSlides = false }},
	{62, func(f *CompatFlags) { f.StopPortamentoOnNoteOff = true }},
	{64, func(f *CompatFlags) { f.BrokenDACMode = false }},
	{65, func(f *CompatFlags) { f.OneTickCut = false }},
	{66, func(f *CompatFlags) { f.InstrumentChangeAllowedInPorta = false }},
	{69, func(f *CompatFlags) { f.ResetNoteBaseOnArpeggioStop = false }},
	{71, func(f *CompatFlags) {
		f.NoSlidesOnFirstTick = false
		f.NextRowResetArpPos = false
		f.IgnoreJumpAtEnd = true
	}},
	{72, func(f *CompatFlags) {
		f.BuggyPortamentoAfterSlide = true
		f.GBInsAffectsEnv = false
	}},
	{78, func(f *CompatFlags) { f.SharedExtchState = false }},
	{83, func(f *CompatFlags) {
		f.IgnoreOutsideDACModeChange = true
		f.E1E2TakesPriority = false
	}},
	{84, func(f *CompatFlags) { f.NewSegaPCM = false }},
	{85, func(f *CompatFlags) { f.WeirdFNumPitchSlides = true }},
	{86, func(f *CompatFlags) { f.SNDutyResetsPhase = true }},
	{90, func(f *CompatFlags) { f.LinearPitchMacro = false }},
	{97, func(f *CompatFlags) {
		f.OldOctaveBoundary = true
		f.DisableOPN2DACVolumeControl = true
	}},
	{99, func(f *CompatFlags) {
		f.NewVolumeScaling = false
		f.VolumeMacroLingers = false
		f.BrokenOutVol = true
	}},
	{100, func(f *CompatFlags) { f.E1E2StopOnSameNote = false }},
	{101, func(f *CompatFlags) { f.BrokenPortaAfterArp = true }},
	{108, func(f *CompatFlags) { f.SNNoLowPeriods = true }},
	{110, func(f *CompatFlags) { f.CutDelayEffectPolicy = DelayBroken }},
	{113, func(f *CompatFlags) { f.JumpTreatment = JumpFirstOnly }},
	{115, func(f *CompatFlags) { f.AutoSysName = true }},
	{117, func(f *CompatFlags) { f.DisableSampleMacro = true }},
	{121, func(f *CompatFlags) { f.BrokenOutVol2 = false }},
	{130, func(f *CompatFlags) { f.OldArpStrategy = true }},
	{138, func(f *CompatFlags) { f.BrokenPortaDuringLegato = true }},
	{155, func(f *CompatFlags) { f.BrokenFMOff = true }},
	{168, func(f *CompatFlags) { f.PreNoteNoEffect = true }},
	{183, func(f *CompatFlags) { f.OldDPCM = true }},
	{184, func(f *CompatFlags) { f.ResetArpPhaseOnNewNote = false }},
	{188, func(f *CompatFlags) { f.CeilVolumeScaling = false }},
	{191, func(f *CompatFlags) { f.OldAlwaysSetVolume = true }},
	{200, func(f *CompatFlags) { f.OldSampleOffset = true }},
}

// applyVersionDefaults overlays the version-gated defaults for a module of
// the given format version.
func (f *CompatFlags) applyVersionDefaults(version uint16) {
	for _, d := range compatDefaults {
		if version < d.before {
			d.apply(f)
		}
	}
}

// compatFlagSpec describes one on-disk compat flag byte: the format version
// that introduced it and how it converts to and from the struct field.
type compatFlagSpec struct {
	name  string
	since uint16
	set   func(*CompatFlags, byte) error
	get   func(*CompatFlags) byte
}

func boolFlag(name string, since uint16, field func(*CompatFlags) *bool) compatFlagSpec {
	return compatFlagSpec{
		name:  name,
		since: since,
		set: func(f *CompatFlags, v byte) error {
			*field(f) = v != 0
			return nil
		},
		get: func(f *CompatFlags) byte {
			if *field(f) {
				return 1
			}
			return 0
		},
	}
}

// The three flag blocks appear at fixed spots in the song info block, each
// with a fixed byte budget; bytes past the known flags are reserved.
const (
	compatPhase1Bytes = 20
	compatPhase2Bytes = 28
	compatPhase3Bytes = 8
)

// Phase tables are in on-disk order. Entries are sorted by the version that
// introduced them, so that a reader for version V consumes exactly the
// prefix with since <= V.
var compatPhase1 = []compatFlagSpec{
	boolFlag("limitSlides", 37, func(f *CompatFlags) *bool { return &f.LimitSlides }),
	{
		name:  "linearPitch",
		since: 37,
		set: func(f *CompatFlags, v byte) error {
			p := LinearPitch(v)
			if !p.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "linear pitch %d", v)
			}
			f.LinearPitch = p
			return nil
		},
		get: func(f *CompatFlags) byte { return byte(f.LinearPitch) },
	},
	{
		name:  "loopModality",
		since: 37,
		set: func(f *CompatFlags, v byte) error {
			m := LoopModality(v)
			if !m.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "loop modality %d", v)
			}
			f.LoopModality = m
			return nil
		},
		get: func(f *CompatFlags) byte { return byte(f.LoopModality) },
	},
	boolFlag("properNoiseLayout", 43, func(f *CompatFlags) *bool { return &f.ProperNoiseLayout }),
	boolFlag("waveDutyIsVolume", 43, func(f *CompatFlags) *bool { return &f.WaveDutyIsVolume }),
	boolFlag("resetMacroOnPorta", 45, func(f *CompatFlags) *bool { return &f.ResetMacroOnPorta }),
	boolFlag("legacyVolumeSlides", 45, func(f *CompatFlags) *bool { return &f.LegacyVolumeSlides }),
	boolFlag("compatibleArpeggio", 45, func(f *CompatFlags) *bool { return &f.CompatibleArpeggio }),
	boolFlag("noteOffResetsSlides", 45, func(f *CompatFlags) *bool { return &f.NoteOffResetsSlides }),
	boolFlag("targetResetsSlides", 45, func(f *CompatFlags) *bool { return &f.TargetResetsSlides }),
	boolFlag("arpeggioInhibitsPortamento", 47, func(f *CompatFlags) *bool { return &f.ArpeggioInhibitsPortamento }),
	boolFlag("wackAlgorithmMacro", 47, func(f *CompatFlags) *bool { return &f.WackAlgorithmMacro }),
	boolFlag("brokenShortcutSlides", 49, func(f *CompatFlags) *bool { return &f.BrokenShortcutSlides }),
	boolFlag("ignoreDuplicatesSlides", 50, func(f *CompatFlags) *bool { return &f.IgnoreDuplicatesSlides }),
	boolFlag("stopPortamentoOnNoteOff", 62, func(f *CompatFlags) *bool { return &f.StopPortamentoOnNoteOff }),
	boolFlag("continuousVibrato", 62, func(f *CompatFlags) *bool { return &f.ContinuousVibrato }),
	boolFlag("brokenDACMode", 64, func(f *CompatFlags) *bool { return &f.BrokenDACMode }),
	boolFlag("oneTickCut", 65, func(f *CompatFlags) *bool { return &f.OneTickCut }),
	boolFlag("instrumentChangeAllowedInPorta", 66, func(f *CompatFlags) *bool { return &f.InstrumentChangeAllowedInPorta }),
	boolFlag("resetNoteBaseOnArpeggioStop", 69, func(f *CompatFlags) *bool { return &f.ResetNoteBaseOnArpeggioStop }),
}

var compatPhase2 = []compatFlagSpec{
	boolFlag("brokenSpeedSelection", 70, func(f *CompatFlags) *bool { return &f.BrokenSpeedSelection }),
	boolFlag("noSlidesOnFirstTick", 71, func(f *CompatFlags) *bool { return &f.NoSlidesOnFirstTick }),
	boolFlag("nextRowResetArpPos", 71, func(f *CompatFlags) *bool { return &f.NextRowResetArpPos }),
	boolFlag("ignoreJumpAtEnd", 71, func(f *CompatFlags) *bool { return &f.IgnoreJumpAtEnd }),
	boolFlag("buggyPortamentoAfterSlide", 72, func(f *CompatFlags) *bool { return &f.BuggyPortamentoAfterSlide }),
	boolFlag("gbInsAffectsEnv", 72, func(f *CompatFlags) *bool { return &f.GBInsAffectsEnv }),
	boolFlag("sharedExtchState", 78, func(f *CompatFlags) *bool { return &f.SharedExtchState }),
	boolFlag("ignoreOutsideDACModeChange", 83, func(f *CompatFlags) *bool { return &f.IgnoreOutsideDACModeChange }),
	boolFlag("e1e2TakesPriority", 83, func(f *CompatFlags) *bool { return &f.E1E2TakesPriority }),
	boolFlag("newSegaPCM", 84, func(f *CompatFlags) *bool { return &f.NewSegaPCM }),
	boolFlag("weirdFNumPitchSlides", 85, func(f *CompatFlags) *bool { return &f.WeirdFNumPitchSlides }),
	boolFlag("snDutyResetsPhase", 86, func(f *CompatFlags) *bool { return &f.SNDutyResetsPhase }),
	boolFlag("linearPitchMacro", 90, func(f *CompatFlags) *bool { return &f.LinearPitchMacro }),
	{
		name:  "pitchSlideSpeedInLinear",
		since: 94,
		set: func(f *CompatFlags, v byte) error {
			f.PitchSlideSpeedInLinear = v
			return nil
		},
		get: func(f *CompatFlags) byte { return f.PitchSlideSpeedInLinear },
	},
	boolFlag("oldOctaveBoundary", 97, func(f *CompatFlags) *bool { return &f.OldOctaveBoundary }),
	boolFlag("disableOPN2DACVolumeControl", 98, func(f *CompatFlags) *bool { return &f.DisableOPN2DACVolumeControl }),
	boolFlag("newVolumeScaling", 99, func(f *CompatFlags) *bool { return &f.NewVolumeScaling }),
	boolFlag("volumeMacroLingers", 99, func(f *CompatFlags) *bool { return &f.VolumeMacroLingers }),
	boolFlag("brokenOutVol", 99, func(f *CompatFlags) *bool { return &f.BrokenOutVol }),
	boolFlag("e1e2StopOnSameNote", 100, func(f *CompatFlags) *bool { return &f.E1E2StopOnSameNote }),
	boolFlag("brokenPortaAfterArp", 101, func(f *CompatFlags) *bool { return &f.BrokenPortaAfterArp }),
	boolFlag("snNoLowPeriods", 108, func(f *CompatFlags) *bool { return &f.SNNoLowPeriods }),
	{
		name:  "cutDelayEffectPolicy",
		since: 110,
		set: func(f *CompatFlags, v byte) error {
			b := DelayBehavior(v)
			if !b.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "cut/delay policy %d", v)
			}
			f.CutDelayEffectPolicy = b
			return nil
		},
		get: func(f *CompatFlags) byte { return byte(f.CutDelayEffectPolicy) },
	},
	{
		name:  "jumpTreatment",
		since: 113,
		set: func(f *CompatFlags, v byte) error {
			t := JumpTreatment(v)
			if !t.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "jump treatment %d", v)
			}
			f.JumpTreatment = t
			return nil
		},
		get: func(f *CompatFlags) byte { return byte(f.JumpTreatment) },
	},
	boolFlag("autoSysName", 115, func(f *CompatFlags) *bool { return &f.AutoSysName }),
	boolFlag("disableSampleMacro", 117, func(f *CompatFlags) *bool { return &f.DisableSampleMacro }),
	boolFlag("brokenOutVol2", 121, func(f *CompatFlags) *bool { return &f.BrokenOutVol2 }),
	boolFlag("oldArpStrategy", 130, func(f *CompatFlags) *bool { return &f.OldArpStrategy }),
}

var compatPhase3 = []compatFlagSpec{
	boolFlag("brokenPortaDuringLegato", 138, func(f *CompatFlags) *bool { return &f.BrokenPortaDuringLegato }),
	boolFlag("brokenFMOff", 155, func(f *CompatFlags) *bool { return &f.BrokenFMOff }),
	boolFlag("preNoteNoEffect", 168, func(f *CompatFlags) *bool { return &f.PreNoteNoEffect }),
	boolFlag("oldDPCM", 183, func(f *CompatFlags) *bool { return &f.OldDPCM }),
	boolFlag("resetArpPhaseOnNewNote", 184, func(f *CompatFlags) *bool { return &f.ResetArpPhaseOnNewNote }),
	boolFlag("ceilVolumeScaling", 188, func(f *CompatFlags) *bool { return &f.CeilVolumeScaling }),
	boolFlag("oldAlwaysSetVolume", 191, func(f *CompatFlags) *bool { return &f.OldAlwaysSetVolume }),
}

// readCompatFlags consumes one phase block. Flags the version predates are
// not present on disk; whatever is left of the budget is reserved space.
func readCompatFlags(r *reader, f *CompatFlags, version uint16, specs []compatFlagSpec, budget int) error {
	read := 0
	for _, s := range specs {
		if version < s.since {
			continue
		}
		off := r.offset()
		v := r.u8()
		if r.err != nil {
			return r.err
		}
		if err := s.set(f, v); err != nil {
			return errors.Wrapf(err, "compat flag %s at 0x%X", s.name, off)
		}
		read++
	}
	r.skip(budget - read)
	return r.Err()
}

// writeCompatFlags emits one phase block for the given format version,
// padding the remaining budget with zeroes.
func writeCompatFlags(w *writer, f *CompatFlags, version uint16, specs []compatFlagSpec, budget int) {
	written := 0
	for _, s := range specs {
		if version < s.since {
			continue
		}
		w.u8(s.get(f))
		written++
	}
	w.zeros(budget - written)
}
