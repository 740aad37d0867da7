package furnace

import "fmt"

// Note is a single tracker note. Values 1..12 are pitches (C# through C),
// 0 is a blank cell and 100..102 are the note cut/release specials.
type Note uint8

const (
	NoteNone Note = 0
	NoteCs   Note = 1
	NoteD    Note = 2
	NoteDs   Note = 3
	NoteE    Note = 4
	NoteF    Note = 5
	NoteFs   Note = 6
	NoteG    Note = 7
	NoteGs   Note = 8
	NoteA    Note = 9
	NoteAs   Note = 10
	NoteB    Note = 11
	NoteC    Note = 12

	NoteOff    Note = 100
	NoteOffRel Note = 101
	NoteRel    Note = 102
)

var noteNames = map[Note]string{
	NoteNone:   "---",
	NoteCs:     "C#",
	NoteD:      "D-",
	NoteDs:     "D#",
	NoteE:      "E-",
	NoteF:      "F-",
	NoteFs:     "F#",
	NoteG:      "G-",
	NoteGs:     "G#",
	NoteA:      "A-",
	NoteAs:     "A#",
	NoteB:      "B-",
	NoteC:      "C-",
	NoteOff:    "OFF",
	NoteOffRel: "===",
	NoteRel:    "///",
}

func (n Note) isValid() bool {
	_, ok := noteNames[n]
	return ok
}

func (n Note) String() string {
	if s, ok := noteNames[n]; ok {
		return s
	}
	return fmt.Sprintf("Note(%d)", uint8(n))
}

// ChipType identifies a sound chip in the chip database.
type ChipType uint8

const (
	ChipYMU759     ChipType = 0x01
	ChipGenesis    ChipType = 0x02 // YM2612 + SN76489
	ChipSMS        ChipType = 0x03 // SN76489
	ChipGB         ChipType = 0x04 // LR35902
	ChipPCE        ChipType = 0x05 // HuC6280
	ChipNES        ChipType = 0x06 // RP2A03
	ChipC64R8580   ChipType = 0x07 // SID r8580
	ChipSegaArcade ChipType = 0x08 // YM2151 + SegaPCM
	ChipNeoGeoCD   ChipType = 0x09

	ChipGenesisEx  ChipType = 0x42 // YM2612 + SN76489
	ChipSMSJP      ChipType = 0x43 // SN76489 + YM2413
	ChipNESVRC7    ChipType = 0x46 // RP2A03 + YM2413
	ChipC64R6581   ChipType = 0x47 // SID r6581
	ChipNeoGeoCDEx ChipType = 0x49

	ChipAY38910  ChipType = 0x80
	ChipAmiga    ChipType = 0x81 // Paula
	ChipYM2151   ChipType = 0x82
	ChipYM2612   ChipType = 0x83
	ChipTIA      ChipType = 0x84
	ChipVIC20    ChipType = 0x85
	ChipPET      ChipType = 0x86
	ChipSNES     ChipType = 0x87 // SPC700
	ChipVRC6     ChipType = 0x88
	ChipOPLL     ChipType = 0x89 // YM2413
	ChipFDS      ChipType = 0x8A
	ChipMMC5     ChipType = 0x8B
	ChipN163     ChipType = 0x8C
	ChipOPN      ChipType = 0x8D // YM2203
	ChipPC98     ChipType = 0x8E // YM2608
	ChipOPL      ChipType = 0x8F // YM3526

	ChipOPL2        ChipType = 0x90 // YM3812
	ChipOPL3        ChipType = 0x91 // YMF262
	ChipMultiPCM    ChipType = 0x92
	ChipPCSpeaker   ChipType = 0x93 // Intel 8253
	ChipPOKEY       ChipType = 0x94
	ChipRF5C68      ChipType = 0x95
	ChipWonderSwan  ChipType = 0x96
	ChipSAA1099     ChipType = 0x97
	ChipOPZ         ChipType = 0x98
	ChipPokemonMini ChipType = 0x99
	ChipAY8930      ChipType = 0x9A
	ChipSegaPCM     ChipType = 0x9B
	ChipVirtualBoy  ChipType = 0x9C
	ChipVRC7        ChipType = 0x9D
	ChipYM2610B     ChipType = 0x9E
	ChipZXBeeper    ChipType = 0x9F

	ChipYM2612Ex        ChipType = 0xA0
	ChipSCC             ChipType = 0xA1
	ChipOPLDrums        ChipType = 0xA2
	ChipOPL2Drums       ChipType = 0xA3
	ChipOPL3Drums       ChipType = 0xA4
	ChipNeoGeo          ChipType = 0xA5
	ChipNeoGeoEx        ChipType = 0xA6
	ChipOPLLDrums       ChipType = 0xA7
	ChipLynx            ChipType = 0xA8
	ChipSegaPCMDMF      ChipType = 0xA9
	ChipMSM6295         ChipType = 0xAA
	ChipMSM6258         ChipType = 0xAB
	ChipCommanderX16    ChipType = 0xAC // VERA
	ChipBubbleSystemWSG ChipType = 0xAD
	ChipOPL4            ChipType = 0xAE
	ChipOPL4Drums       ChipType = 0xAF

	ChipSeta         ChipType = 0xB0 // Allumer X1-010
	ChipES5506       ChipType = 0xB1
	ChipY8950        ChipType = 0xB2
	ChipY8950Drums   ChipType = 0xB3
	ChipSCCPlus      ChipType = 0xB4
	ChipTSU          ChipType = 0xB5
	ChipYM2203Ex     ChipType = 0xB6
	ChipYM2608Ex     ChipType = 0xB7
	ChipYMZ280B      ChipType = 0xB8
	ChipNamco        ChipType = 0xB9 // Namco WSG
	ChipNamco15xx    ChipType = 0xBA
	ChipNamcoCUS30   ChipType = 0xBB
	ChipMSM5232      ChipType = 0xBC
	ChipYM2612PlusEx ChipType = 0xBD
	ChipYM2612Plus   ChipType = 0xBE
	ChipT6W28        ChipType = 0xBF

	ChipPCMDAC           ChipType = 0xC0
	ChipYM2612CSM        ChipType = 0xC1
	ChipNeoGeoCSM        ChipType = 0xC2 // YM2610 CSM
	ChipYM2203CSM        ChipType = 0xC3
	ChipYM2608CSM        ChipType = 0xC4
	ChipYM2610BCSM       ChipType = 0xC5
	ChipK007232          ChipType = 0xC6
	ChipGA20             ChipType = 0xC7
	ChipSM8521           ChipType = 0xC8
	ChipM114S            ChipType = 0xC9
	ChipZXBeeperQuadTone ChipType = 0xCA
	ChipPV1000           ChipType = 0xCB // NEC D65010G031
	ChipK053260          ChipType = 0xCC
	ChipTED              ChipType = 0xCD
	ChipNamcoC140        ChipType = 0xCE
	ChipNamcoC219        ChipType = 0xCF

	ChipNamcoC352  ChipType = 0xD0
	ChipESFM       ChipType = 0xD1
	ChipES5503     ChipType = 0xD2
	ChipPowerNoise ChipType = 0xD4
	ChipDave       ChipType = 0xD5
	ChipNDS        ChipType = 0xD6
	ChipGBA        ChipType = 0xD7
	ChipGBAMinMod  ChipType = 0xD8
	ChipBifurcator ChipType = 0xD9
	ChipYM2610BEx  ChipType = 0xDE

	ChipQSound ChipType = 0xE0

	ChipSID2      ChipType = 0xF0
	Chip5E01      ChipType = 0xF1
	ChipPong      ChipType = 0xFC
	ChipDummy     ChipType = 0xFD
	ChipReserved1 ChipType = 0xFE
	ChipReserved2 ChipType = 0xFF
)

// chipSpec carries the display name and channel count for a chip id.
type chipSpec struct {
	name     string
	channels int
}

var chipSpecs = map[ChipType]chipSpec{
	ChipYMU759:     {"YMU759", 17},
	ChipGenesis:    {"Genesis", 10},
	ChipSMS:        {"SMS", 4},
	ChipGB:         {"Game Boy", 4},
	ChipPCE:        {"PC Engine", 6},
	ChipNES:        {"NES", 5},
	ChipC64R8580:   {"C64 (8580)", 4},
	ChipSegaArcade: {"Sega Arcade", 13},
	ChipNeoGeoCD:   {"Neo Geo CD", 13},

	ChipGenesisEx:  {"Genesis (extended)", 13},
	ChipSMSJP:      {"SMS (JP)", 13},
	ChipNESVRC7:    {"NES + VRC7", 11},
	ChipC64R6581:   {"C64 (6581)", 3},
	ChipNeoGeoCDEx: {"Neo Geo CD (extended)", 16},

	ChipAY38910:     {"AY-3-8910", 3},
	ChipAmiga:       {"Amiga", 4},
	ChipYM2151:      {"YM2151", 8},
	ChipYM2612:      {"YM2612", 6},
	ChipTIA:         {"TIA", 2},
	ChipVIC20:       {"VIC-20", 4},
	ChipPET:         {"PET", 1},
	ChipSNES:        {"SNES", 8},
	ChipVRC6:        {"VRC6", 3},
	ChipOPLL:        {"OPLL", 9},
	ChipFDS:         {"FDS", 1},
	ChipMMC5:        {"MMC5", 3},
	ChipN163:        {"Namco 163", 8},
	ChipOPN:         {"YM2203", 6},
	ChipPC98:        {"YM2608", 16},
	ChipOPL:         {"OPL", 9},

	ChipOPL2:        {"OPL2", 9},
	ChipOPL3:        {"OPL3", 18},
	ChipMultiPCM:    {"MultiPCM", 24},
	ChipPCSpeaker:   {"PC Speaker", 1},
	ChipPOKEY:       {"POKEY", 4},
	ChipRF5C68:      {"RF5C68", 8},
	ChipWonderSwan:  {"WonderSwan", 4},
	ChipSAA1099:     {"SAA1099", 6},
	ChipOPZ:         {"OPZ", 8},
	ChipPokemonMini: {"Pokemon Mini", 1},
	ChipAY8930:      {"AY8930", 3},
	ChipSegaPCM:     {"SegaPCM", 16},
	ChipVirtualBoy:  {"Virtual Boy", 6},
	ChipVRC7:        {"VRC7", 6},
	ChipYM2610B:     {"YM2610B", 16},
	ChipZXBeeper:    {"ZX Beeper", 6},

	ChipYM2612Ex:        {"YM2612 (extended)", 9},
	ChipSCC:             {"SCC", 5},
	ChipOPLDrums:        {"OPL drums", 11},
	ChipOPL2Drums:       {"OPL2 drums", 11},
	ChipOPL3Drums:       {"OPL3 drums", 20},
	ChipNeoGeo:          {"Neo Geo", 14},
	ChipNeoGeoEx:        {"Neo Geo (extended)", 17},
	ChipOPLLDrums:       {"OPLL drums", 11},
	ChipLynx:            {"Lynx", 4},
	ChipSegaPCMDMF:      {"SegaPCM (DMF)", 5},
	ChipMSM6295:         {"MSM6295", 4},
	ChipMSM6258:         {"MSM6258", 1},
	ChipCommanderX16:    {"Commander X16", 17},
	ChipBubbleSystemWSG: {"Bubble System WSG", 2},
	ChipOPL4:            {"OPL4", 42},
	ChipOPL4Drums:       {"OPL4 drums", 44},

	ChipSeta:         {"X1-010", 16},
	ChipES5506:       {"ES5506", 32},
	ChipY8950:        {"Y8950", 10},
	ChipY8950Drums:   {"Y8950 drums", 12},
	ChipSCCPlus:      {"SCC+", 5},
	ChipTSU:          {"TSU", 8},
	ChipYM2203Ex:     {"YM2203 (extended)", 9},
	ChipYM2608Ex:     {"YM2608 (extended)", 19},
	ChipYMZ280B:      {"YMZ280B", 8},
	ChipNamco:        {"Namco WSG", 3},
	ChipNamco15xx:    {"Namco 15xx", 8},
	ChipNamcoCUS30:   {"Namco CUS30", 8},
	ChipMSM5232:      {"MSM5232", 8},
	ChipYM2612PlusEx: {"YM2612+DAC (extended)", 11},
	ChipYM2612Plus:   {"YM2612+DAC", 7},
	ChipT6W28:        {"T6W28", 4},

	ChipPCMDAC:           {"PCM DAC", 1},
	ChipYM2612CSM:        {"YM2612 CSM", 10},
	ChipNeoGeoCSM:        {"Neo Geo CSM", 18},
	ChipYM2203CSM:        {"YM2203 CSM", 10},
	ChipYM2608CSM:        {"YM2608 CSM", 20},
	ChipYM2610BCSM:       {"YM2610B CSM", 20},
	ChipK007232:          {"K007232", 2},
	ChipGA20:             {"GA20", 4},
	ChipSM8521:           {"SM8521", 3},
	ChipM114S:            {"M114S", 16},
	ChipZXBeeperQuadTone: {"ZX Beeper (QuadTone)", 5},
	ChipPV1000:           {"PV-1000", 3},
	ChipK053260:          {"K053260", 4},
	ChipTED:              {"TED", 2},
	ChipNamcoC140:        {"Namco C140", 24},
	ChipNamcoC219:        {"Namco C219", 16},

	ChipNamcoC352:  {"Namco C352", 32},
	ChipESFM:       {"ESFM", 18},
	ChipES5503:     {"ES5503", 32},
	ChipPowerNoise: {"PowerNoise", 4},
	ChipDave:       {"Dave", 6},
	ChipNDS:        {"NDS", 16},
	ChipGBA:        {"GBA", 2},
	ChipGBAMinMod:  {"GBA MinMod", 16},
	ChipBifurcator: {"Bifurcator", 4},
	ChipYM2610BEx:  {"YM2610B (extended)", 19},

	ChipQSound: {"QSound", 19},

	ChipSID2:      {"SID2", 3},
	Chip5E01:      {"5E01", 5},
	ChipPong:      {"Pong", 1},
	ChipDummy:     {"Dummy", 1},
	ChipReserved1: {"Reserved", 1},
	ChipReserved2: {"Reserved", 1},
}

func (c ChipType) isValid() bool {
	_, ok := chipSpecs[c]
	return ok
}

// Channels returns the number of tracker channels the chip provides.
func (c ChipType) Channels() int {
	return chipSpecs[c].channels
}

func (c ChipType) String() string {
	if s, ok := chipSpecs[c]; ok {
		return s.name
	}
	return fmt.Sprintf("ChipType(0x%02X)", uint8(c))
}

// InstrumentType selects which chip an instrument is meant for.
type InstrumentType uint8

const (
	InsStandard    InstrumentType = 0
	InsFM4Op       InstrumentType = 1
	InsGB          InstrumentType = 2
	InsC64         InstrumentType = 3
	InsAmiga       InstrumentType = 4
	InsPCE         InstrumentType = 5
	InsSSG         InstrumentType = 6
	InsAY8930      InstrumentType = 7
	InsTIA         InstrumentType = 8
	InsSAA1099     InstrumentType = 9
	InsVIC         InstrumentType = 10
	InsPET         InstrumentType = 11
	InsVRC6        InstrumentType = 12
	InsFMOPLL      InstrumentType = 13
	InsFMOPL       InstrumentType = 14
	InsFDS         InstrumentType = 15
	InsVirtualBoy  InstrumentType = 16
	InsN163        InstrumentType = 17
	InsKonamiSCC   InstrumentType = 18
	InsFMOPZ       InstrumentType = 19
	InsPOKEY       InstrumentType = 20
	InsPCBeeper    InstrumentType = 21
	InsWonderSwan  InstrumentType = 22
	InsLynx        InstrumentType = 23
	InsVERA        InstrumentType = 24
	InsX1010       InstrumentType = 25
	InsVRC6Saw     InstrumentType = 26
	InsES5506      InstrumentType = 27
	InsMultiPCM    InstrumentType = 28
	InsSNES        InstrumentType = 29
	InsTSU         InstrumentType = 30
	InsNamcoWSG    InstrumentType = 31
	InsOPLDrums    InstrumentType = 32
	InsFMOPM       InstrumentType = 33
	InsNES         InstrumentType = 34
	InsMSM6258     InstrumentType = 35
	InsMSM6295     InstrumentType = 36
	InsADPCMA      InstrumentType = 37
	InsADPCMB      InstrumentType = 38
	InsSegaPCM     InstrumentType = 39
	InsQSound      InstrumentType = 40
	InsYMZ280B     InstrumentType = 41
	InsRF5C68      InstrumentType = 42
	InsMSM5232     InstrumentType = 43
	InsT6W28       InstrumentType = 44
	InsK007232     InstrumentType = 45
	InsGA20        InstrumentType = 46
	InsPokemonMini InstrumentType = 47
	InsSM8521      InstrumentType = 48
	InsPV1000      InstrumentType = 49
)

var instrumentTypeNames = [...]string{
	"Standard", "FM (4-op)", "Game Boy", "C64", "Amiga/Sample", "PC Engine",
	"SSG", "AY8930", "TIA", "SAA1099", "VIC", "PET", "VRC6", "FM (OPLL)",
	"FM (OPL)", "FDS", "Virtual Boy", "Namco 163", "Konami SCC", "FM (OPZ)",
	"POKEY", "PC Beeper", "WonderSwan", "Lynx", "VERA", "X1-010", "VRC6 (saw)",
	"ES5506", "MultiPCM", "SNES", "TSU", "Namco WSG", "OPL drums", "FM (OPM)",
	"NES", "MSM6258", "MSM6295", "ADPCM-A", "ADPCM-B", "SegaPCM", "QSound",
	"YMZ280B", "RF5C68", "MSM5232", "T6W28", "K007232", "GA20", "Pokemon Mini",
	"SM8521", "PV-1000",
}

func (t InstrumentType) isValid() bool {
	return int(t) < len(instrumentTypeNames)
}

func (t InstrumentType) String() string {
	if t.isValid() {
		return instrumentTypeNames[t]
	}
	return fmt.Sprintf("InstrumentType(%d)", uint8(t))
}

// MacroCode marks what aspect of an instrument a macro changes. Several
// codes are reused for chip-specific parameters; the tracker decides by
// instrument type.
type MacroCode uint8

const (
	MacroVol        MacroCode = 0
	MacroArp        MacroCode = 1
	MacroDuty       MacroCode = 2
	MacroWave       MacroCode = 3
	MacroPitch      MacroCode = 4
	MacroEx1        MacroCode = 5
	MacroEx2        MacroCode = 6
	MacroEx3        MacroCode = 7
	MacroAlg        MacroCode = 8
	MacroFB         MacroCode = 9
	MacroFMS        MacroCode = 10
	MacroAMS        MacroCode = 11
	MacroPanL       MacroCode = 12
	MacroPanR       MacroCode = 13
	MacroPhaseReset MacroCode = 14
	MacroEx4        MacroCode = 15
	MacroEx5        MacroCode = 16
	MacroEx6        MacroCode = 17
	MacroEx7        MacroCode = 18
	MacroEx8        MacroCode = 19

	// Marks the end of macro data in a feature block.
	MacroStop MacroCode = 255
)

func (m MacroCode) isValid() bool {
	return m <= MacroEx8 || m == MacroStop
}

// OpMacroCode marks which FM operator parameter a macro changes.
type OpMacroCode uint8

const (
	OpMacroAM    OpMacroCode = 0
	OpMacroAR    OpMacroCode = 1
	OpMacroDR    OpMacroCode = 2
	OpMacroMult  OpMacroCode = 3
	OpMacroRR    OpMacroCode = 4
	OpMacroSL    OpMacroCode = 5
	OpMacroTL    OpMacroCode = 6
	OpMacroDT2   OpMacroCode = 7
	OpMacroRS    OpMacroCode = 8
	OpMacroDT    OpMacroCode = 9
	OpMacroD2R   OpMacroCode = 10
	OpMacroSSGEG OpMacroCode = 11
	OpMacroDAM   OpMacroCode = 12
	OpMacroDVB   OpMacroCode = 13
	OpMacroEGT   OpMacroCode = 14
	OpMacroKSL   OpMacroCode = 15
	OpMacroSUS   OpMacroCode = 16
	OpMacroVIB   OpMacroCode = 17
	OpMacroWS    OpMacroCode = 18
	OpMacroKSR   OpMacroCode = 19
)

func (m OpMacroCode) isValid() bool {
	return m <= OpMacroKSR
}

// MacroType is the macro interpretation mode (sequence, ADSR or LFO).
type MacroType uint8

const (
	MacroTypeSequence MacroType = 0
	MacroTypeADSR     MacroType = 1
	MacroTypeLFO      MacroType = 2
)

func (t MacroType) isValid() bool {
	return t <= MacroTypeLFO
}

// macroWordSizes maps the 2-bit word size selector in a macro header to the
// on-disk element width.
var macroWordSizes = [4]struct {
	bytes  int
	signed bool
}{
	{1, false}, // unsigned char
	{1, true},  // signed char
	{2, true},  // short
	{4, true},  // int
}

// GBHwCommand is a Game Boy hardware sequence command.
type GBHwCommand uint8

const (
	GBCmdEnvelope GBHwCommand = 0
	GBCmdSweep    GBHwCommand = 1
	GBCmdWait     GBHwCommand = 2
	GBCmdWaitRel  GBHwCommand = 3
	GBCmdLoop     GBHwCommand = 4
	GBCmdLoopRel  GBHwCommand = 5
)

func (c GBHwCommand) isValid() bool {
	return c <= GBCmdLoopRel
}

// WaveFX is a wavetable synthesizer effect. Values below 128 operate on a
// single waveform, 128 and up blend two.
type WaveFX uint8

const (
	WaveFXNone     WaveFX = 0
	WaveFXInvert   WaveFX = 1
	WaveFXAdd      WaveFX = 2
	WaveFXSubtract WaveFX = 3
	WaveFXAverage  WaveFX = 4
	WaveFXPhase    WaveFX = 5
	WaveFXChorus   WaveFX = 6

	WaveFXNoneDual        WaveFX = 128
	WaveFXWipe            WaveFX = 129
	WaveFXFade            WaveFX = 130
	WaveFXPingPong        WaveFX = 131
	WaveFXOverlay         WaveFX = 132
	WaveFXNegativeOverlay WaveFX = 133
	WaveFXSlide           WaveFX = 134
	WaveFXMix             WaveFX = 135
	WaveFXPhaseMod        WaveFX = 136
)

func (f WaveFX) isValid() bool {
	return f <= WaveFXChorus || (f >= WaveFXNoneDual && f <= WaveFXPhaseMod)
}

// ESFilterMode is the ES5506 filter pole configuration.
type ESFilterMode uint8

const (
	ESFilterHPK2HPK2 ESFilterMode = 0
	ESFilterHPK2LPK1 ESFilterMode = 1
	ESFilterLPK2LPK2 ESFilterMode = 2
	ESFilterLPK2LPK1 ESFilterMode = 3
)

func (m ESFilterMode) isValid() bool {
	return m <= ESFilterLPK2LPK1
}

// GainMode is the SNES envelope gain mode. Values 1..3 do not exist in
// hardware and decode as direct gain.
type GainMode uint8

const (
	GainDirect    GainMode = 0
	GainDecLinear GainMode = 4
	GainDecLog    GainMode = 5
	GainIncLinear GainMode = 6
	GainIncInvLog GainMode = 7
)

func (g GainMode) isValid() bool {
	return g == GainDirect || (g >= GainDecLinear && g <= GainIncInvLog)
}

// SNESSusMode is the SNES envelope sustain mode.
type SNESSusMode uint8

const (
	SusDirect  SNESSusMode = 0
	SusWithDec SNESSusMode = 1
	SusWithExp SNESSusMode = 2
	SusWithRel SNESSusMode = 3
)

func (m SNESSusMode) isValid() bool {
	return m <= SusWithRel
}

// SampleType is the storage depth/encoding of sample data.
type SampleType uint8

const (
	SampleZXDrum      SampleType = 0
	SampleNESDPCM     SampleType = 1
	SampleQSoundADPCM SampleType = 4
	SampleADPCMA      SampleType = 5
	SampleADPCMB      SampleType = 6
	SampleX68KADPCM   SampleType = 7
	SamplePCM8        SampleType = 8
	SampleSNESBRR     SampleType = 9
	SampleVOX         SampleType = 10
	SamplePCM16       SampleType = 16
)

// LinearPitch selects how pitch changes are scaled.
type LinearPitch uint8

const (
	LinearPitchNone    LinearPitch = 0 // non-linear
	LinearPitchPartial LinearPitch = 1 // only pitch change is linear
	LinearPitchFull    LinearPitch = 2
)

func (p LinearPitch) isValid() bool {
	return p <= LinearPitchFull
}

// LoopModality selects what happens to channels when the song loops.
type LoopModality uint8

const (
	LoopHardReset LoopModality = 0
	LoopSoftReset LoopModality = 1
	LoopDoNothing LoopModality = 2
)

func (m LoopModality) isValid() bool {
	return m <= LoopDoNothing
}

// DelayBehavior selects how out-of-range EDxx/ECxx delays behave.
type DelayBehavior uint8

const (
	DelayStrict DelayBehavior = 0
	DelayBroken DelayBehavior = 1
	DelayLax    DelayBehavior = 2
)

func (b DelayBehavior) isValid() bool {
	return b <= DelayLax
}

// JumpTreatment selects how simultaneous 0B/0D jump effects resolve.
type JumpTreatment uint8

const (
	JumpAll         JumpTreatment = 0
	JumpFirstOnly   JumpTreatment = 1
	JumpRowPriority JumpTreatment = 2
)

func (t JumpTreatment) isValid() bool {
	return t <= JumpRowPriority
}

// InputPortSet is a patchbay device with input connectors.
type InputPortSet uint16

const (
	InputPortSystem InputPortSet = 0
	InputPortNull   InputPortSet = 0xFFF
)

func (s InputPortSet) String() string {
	switch s {
	case InputPortSystem:
		return "system"
	case InputPortNull:
		return "null"
	}
	return fmt.Sprintf("InputPortSet(0x%X)", uint16(s))
}

func (s InputPortSet) isValid() bool {
	return s == InputPortSystem || s == InputPortNull
}

// OutputPortSet is a patchbay device with output connectors.
// Values 0..31 are chips 1..32.
type OutputPortSet uint16

const (
	OutputPortPreview   OutputPortSet = 0xFFD
	OutputPortMetronome OutputPortSet = 0xFFE
	OutputPortNull      OutputPortSet = 0xFFF
)

func (s OutputPortSet) String() string {
	if s <= 31 {
		return fmt.Sprintf("chip %d", uint16(s)+1)
	}
	switch s {
	case OutputPortPreview:
		return "preview"
	case OutputPortMetronome:
		return "metronome"
	case OutputPortNull:
		return "null"
	}
	return fmt.Sprintf("OutputPortSet(0x%X)", uint16(s))
}

func (s OutputPortSet) isValid() bool {
	return s <= 31 || s >= OutputPortPreview
}
