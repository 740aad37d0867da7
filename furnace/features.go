package furnace

// Feature is one block of instrument data. The set of kinds is closed:
// decode and encode both dispatch over the concrete types below, so adding
// a kind means touching those switches too.
type Feature interface {
	// Code returns the two-character block code.
	Code() string
	isFeature()
}

// FeatureName is the instrument name block.
type FeatureName struct {
	Name string
}

// FMOperator is one FM operator inside a FeatureFM.
type FMOperator struct {
	AM     bool
	AR     uint8
	DR     uint8
	Mult   uint8
	RR     uint8
	SL     uint8
	TL     uint8
	DT2    uint8
	RS     uint8
	DT     uint8
	D2R    uint8
	SSGEnv uint8
	DAM    uint8
	DVB    uint8
	EGT    bool
	KSL    uint8
	SUS    bool
	VIB    bool
	WS     uint8
	KSR    bool
	Enable bool
	KVS    uint8
}

// FeatureFM holds FM synthesis parameters for up to four operators.
type FeatureFM struct {
	Alg        uint8
	FB         uint8
	FMS        uint8
	AMS        uint8
	FMS2       uint8
	AMS2       uint8
	Ops        uint8
	OPLLPreset uint8
	OpList     [4]FMOperator
}

// NewFeatureFM returns FM settings preloaded with the stock patch.
func NewFeatureFM() *FeatureFM {
	return &FeatureFM{
		FB:  4,
		Ops: 2,
		OpList: [4]FMOperator{
			{TL: 42, AR: 31, DR: 8, SL: 15, RR: 3, Mult: 5, DT: 5, Enable: true, KVS: 2},
			{TL: 48, AR: 31, DR: 4, SL: 11, RR: 1, Mult: 1, DT: 5, Enable: true, KVS: 2},
			{TL: 18, AR: 31, DR: 10, SL: 15, RR: 4, Mult: 1, Enable: true, KVS: 2},
			{TL: 2, AR: 31, DR: 9, SL: 15, RR: 9, Mult: 1, Enable: true, KVS: 2},
		},
	}
}

// FeatureMacro is the plain macro set.
type FeatureMacro struct {
	Macros []SingleMacro[MacroCode]
}

// FeatureOpMacro is a per-operator macro set. Op is the operator index,
// 0 through 3.
type FeatureOpMacro struct {
	Op     int
	Macros []SingleMacro[OpMacroCode]
}

// GenericADSR is a four-stage envelope shared by a few chips.
type GenericADSR struct {
	A uint8
	D uint8
	S uint8
	R uint8
}

// FeatureC64 holds SID parameters.
type FeatureC64 struct {
	TriOn       bool
	SawOn       bool
	PulseOn     bool
	NoiseOn     bool
	Envelope    GenericADSR
	Duty        uint16
	RingMod     bool
	OscSync     bool
	ToFilter    bool
	VolIsCutoff bool
	InitFilter  bool
	DutyIsAbs   bool
	FilterIsAbs bool
	NoTest      bool
	Res         uint8
	Cut         uint16
	HP          bool
	LP          bool
	BP          bool
	Ch3Off      bool
}

func NewFeatureC64() *FeatureC64 {
	return &FeatureC64{
		SawOn:    true,
		Envelope: GenericADSR{D: 8},
		Duty:     2048,
	}
}

// GBHwSeq is one Game Boy hardware sequence step.
type GBHwSeq struct {
	Command GBHwCommand
	Data    [2]uint8
}

// FeatureGB holds Game Boy envelope and hardware sequence data.
type FeatureGB struct {
	EnvVol     uint8
	EnvDir     uint8
	EnvLen     uint8
	SoundLen   uint8
	SoftEnv    bool
	AlwaysInit bool
	HwSeq      []GBHwSeq
}

func NewFeatureGB() *FeatureGB {
	return &FeatureGB{EnvVol: 15, EnvLen: 2}
}

// SampleMapEntry maps one note to a sample and playback frequency.
type SampleMapEntry struct {
	Freq        int
	SampleIndex uint16
}

// FeatureAmiga is the sample settings block, note map included.
type FeatureAmiga struct {
	InitSample uint16
	UseNoteMap bool
	UseSample  bool
	UseWave    bool
	WaveLen    uint8
	SampleMap  [120]SampleMapEntry
}

func NewFeatureAmiga() *FeatureAmiga {
	return &FeatureAmiga{WaveLen: 31}
}

// FeatureOPLDrums holds OPL drum mode settings.
type FeatureOPLDrums struct {
	FixedDrums   bool
	KickFreq     uint16
	SnareHatFreq uint16
	TomTopFreq   uint16
}

func NewFeatureOPLDrums() *FeatureOPLDrums {
	return &FeatureOPLDrums{KickFreq: 1312, SnareHatFreq: 1360, TomTopFreq: 448}
}

// FeatureSNES holds S-DSP envelope and gain settings.
type FeatureSNES struct {
	UseEnv   bool
	Sus      SNESSusMode
	GainMode GainMode
	Gain     uint8
	D2       uint8
	Envelope GenericADSR
}

func NewFeatureSNES() *FeatureSNES {
	return &FeatureSNES{
		UseEnv:   true,
		Gain:     127,
		Envelope: GenericADSR{A: 15, D: 7, S: 7},
	}
}

// FeatureN163 holds Namco 163 wavetable settings.
type FeatureN163 struct {
	Wave     int32
	WavePos  uint8
	WaveLen  uint8
	WaveMode uint8
}

func NewFeatureN163() *FeatureN163 {
	return &FeatureN163{Wave: -1, WaveLen: 32, WaveMode: 3}
}

// FeatureFDS holds FDS (and Virtual Boy) modulation settings.
type FeatureFDS struct {
	ModSpeed               uint32
	ModDepth               uint32
	InitTableWithFirstWave bool
	ModTable               [32]uint8
}

// FeatureWaveSynth holds wavetable synthesizer settings.
type FeatureWaveSynth struct {
	WaveIndices  [2]uint32
	RateDivider  uint8
	Effect       WaveFX
	Enabled      bool
	GlobalEffect bool
	Speed        uint8
	Params       [4]uint8
}

func NewFeatureWaveSynth() *FeatureWaveSynth {
	return &FeatureWaveSynth{RateDivider: 1}
}

// PointerEntry is one asset reference in a sample or wavetable list.
type PointerEntry struct {
	Index   uint8
	Pointer uint32
}

// FeatureSampleList lists the samples an instrument file ships with.
type FeatureSampleList struct {
	Entries []PointerEntry
}

// FeatureWaveList lists the wavetables an instrument file ships with.
type FeatureWaveList struct {
	Entries []PointerEntry
}

// FeatureMultiPCM holds MultiPCM envelope and LFO settings.
type FeatureMultiPCM struct {
	AR  uint8
	D1R uint8
	DL  uint8
	D2R uint8
	RR  uint8
	RC  uint8
	LFO uint8
	VIB uint8
	AM  uint8
}

func NewFeatureMultiPCM() *FeatureMultiPCM {
	return &FeatureMultiPCM{AR: 15, D1R: 15, RR: 15, RC: 15}
}

// FeatureSoundUnit holds Sound Unit settings.
type FeatureSoundUnit struct {
	SwitchRoles bool
}

// FeatureES5506 holds ES5506 filter and envelope settings.
type FeatureES5506 struct {
	FilterMode      ESFilterMode
	K1              uint16
	K2              uint16
	EnvCount        uint16
	LeftVolumeRamp  uint8
	RightVolumeRamp uint8
	K1Ramp          uint8
	K2Ramp          uint8
	K1Slow          uint8
	K2Slow          uint8
}

func NewFeatureES5506() *FeatureES5506 {
	return &FeatureES5506{FilterMode: ESFilterLPK2LPK1, K1: 0xFFFF, K2: 0xFFFF}
}

// FeatureX1010 holds the X1-010 bank slot.
type FeatureX1010 struct {
	BankSlot uint32
}

// DPCMMapEntry maps one note to a DPCM pitch and delta counter value.
type DPCMMapEntry struct {
	Pitch uint8
	Delta uint8
}

// FeatureDPCMMap is the NES DPCM note map.
type FeatureDPCMMap struct {
	UseMap    bool
	SampleMap [120]DPCMMapEntry
}

// FeaturePowerNoise holds the PowerNoise octave offset.
type FeaturePowerNoise struct {
	Octave uint8
}

// FeatureSID2 holds SID2 mixing settings.
type FeatureSID2 struct {
	Volume    uint8
	WaveMix   uint8
	NoiseMode uint8
}

func (*FeatureName) Code() string       { return "NA" }
func (*FeatureFM) Code() string         { return "FM" }
func (*FeatureMacro) Code() string      { return "MA" }
func (*FeatureC64) Code() string        { return "64" }
func (*FeatureGB) Code() string         { return "GB" }
func (*FeatureAmiga) Code() string      { return "SM" }
func (*FeatureOPLDrums) Code() string   { return "LD" }
func (*FeatureSNES) Code() string       { return "SN" }
func (*FeatureN163) Code() string       { return "N1" }
func (*FeatureFDS) Code() string        { return "FD" }
func (*FeatureWaveSynth) Code() string  { return "WS" }
func (*FeatureSampleList) Code() string { return "SL" }
func (*FeatureWaveList) Code() string   { return "WL" }
func (*FeatureMultiPCM) Code() string   { return "MP" }
func (*FeatureSoundUnit) Code() string  { return "SU" }
func (*FeatureES5506) Code() string     { return "ES" }
func (*FeatureX1010) Code() string      { return "X1" }
func (*FeatureDPCMMap) Code() string    { return "NE" }
func (*FeaturePowerNoise) Code() string { return "PN" }
func (*FeatureSID2) Code() string       { return "S2" }

func (f *FeatureOpMacro) Code() string {
	return [4]string{"O1", "O2", "O3", "O4"}[f.Op&3]
}

func (*FeatureName) isFeature()       {}
func (*FeatureFM) isFeature()         {}
func (*FeatureMacro) isFeature()      {}
func (*FeatureOpMacro) isFeature()    {}
func (*FeatureC64) isFeature()        {}
func (*FeatureGB) isFeature()         {}
func (*FeatureAmiga) isFeature()      {}
func (*FeatureOPLDrums) isFeature()   {}
func (*FeatureSNES) isFeature()       {}
func (*FeatureN163) isFeature()       {}
func (*FeatureFDS) isFeature()        {}
func (*FeatureWaveSynth) isFeature()  {}
func (*FeatureSampleList) isFeature() {}
func (*FeatureWaveList) isFeature()   {}
func (*FeatureMultiPCM) isFeature()   {}
func (*FeatureSoundUnit) isFeature()  {}
func (*FeatureES5506) isFeature()     {}
func (*FeatureX1010) isFeature()      {}
func (*FeatureDPCMMap) isFeature()    {}
func (*FeaturePowerNoise) isFeature() {}
func (*FeatureSID2) isFeature()       {}
