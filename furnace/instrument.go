package furnace

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

const (
	insFileMagic     = "-Furnace instr.-"
	insFileMagicNew  = "FINS"
	insEmbedMagic    = "INST"
	insEmbedMagicNew = "INS2"

	insFeatureEnd = "EN"
)

const defaultInsVersion = 143

// InsMeta is the instrument metadata shared by both storage formats.
type InsMeta struct {
	Version uint16
	Type    InstrumentType
}

// Instrument is a Furnace instrument: a bag of features. The unified format
// used up to version 126 is decoded into the same feature set the newer
// format stores directly.
type Instrument struct {
	Meta     InsMeta
	Features []Feature

	// Loaded only for old-format instrument files, which embed their own
	// wavetables and samples.
	Wavetables []*Wavetable
	Samples    []*Sample

	// Non-fatal oddities found while decoding.
	Warnings []Warning
}

func NewInstrument() *Instrument {
	return &Instrument{
		Meta: InsMeta{Version: defaultInsVersion, Type: InsFM4Op},
	}
}

// Name fetches the instrument name. The last name feature wins.
func (ins *Instrument) Name() string {
	name := ""
	for _, f := range ins.Features {
		if n, ok := f.(*FeatureName); ok {
			name = n.Name
		}
	}
	return name
}

func (ins *Instrument) String() string {
	return fmt.Sprintf("instrument %q (%s)", ins.Name(), ins.Meta.Type)
}

func (ins *Instrument) warnf(off int, format string, args ...any) {
	ins.Warnings = append(ins.Warnings, Warning{Offset: off, Message: fmt.Sprintf(format, args...)})
}

// LoadInstrument reads an instrument file in either format, telling them
// apart by file magic.
func LoadInstrument(path string) (*Instrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeInstrument(data)
}

// DecodeInstrument decodes an instrument file image.
func DecodeInstrument(data []byte) (*Instrument, error) {
	ins := NewInstrument()
	r := newReader(data)

	switch {
	case len(data) >= len(insFileMagic) && string(data[:len(insFileMagic)]) == insFileMagic:
		return ins, ins.decodeLegacyFile(r)
	case len(data) >= len(insFileMagicNew) && string(data[:len(insFileMagicNew)]) == insFileMagicNew:
		r.skip(len(insFileMagicNew))
		return ins, ins.decodeFeatural(r)
	default:
		return nil, errors.Wrap(ErrBadMagic, "not an instrument file")
	}
}

func (ins *Instrument) decodeLegacyFile(r *reader) error {
	r.skip(len(insFileMagic))
	r.u16() // format version, the embed block has its own
	r.u16() // reserved
	insPtr := r.u32()
	numWaves := r.u16()
	numSamples := r.u16()
	r.u32() // reserved
	wavePtrs := make([]uint32, numWaves)
	for i := range wavePtrs {
		wavePtrs[i] = r.u32()
	}
	samplePtrs := make([]uint32, numSamples)
	for i := range samplePtrs {
		samplePtrs[i] = r.u32()
	}
	if err := r.Err(); err != nil {
		return err
	}

	if err := ins.decodeLegacyEmbed(r.from(int(insPtr))); err != nil {
		return err
	}

	for _, ptr := range wavePtrs {
		wt := new(Wavetable)
		if err := wt.decodeEmbed(r.from(int(ptr))); err != nil {
			return err
		}
		ins.Wavetables = append(ins.Wavetables, wt)
	}
	for _, ptr := range samplePtrs {
		smp := new(Sample)
		if err := smp.decodeEmbed(r.from(int(ptr))); err != nil {
			// samples older than the current block layout are left out
			if errors.Is(err, ErrBadMagic) {
				ins.warnf(int(ptr), "skipping sample in unsupported format")
				continue
			}
			return err
		}
		ins.Samples = append(ins.Samples, smp)
	}
	return nil
}

// decodeFeatural decodes the feature-block instrument body: version, type,
// then features until the end marker.
func (ins *Instrument) decodeFeatural(r *reader) error {
	ins.Meta.Version = r.u16()
	typ := r.u16()
	if err := r.Err(); err != nil {
		return err
	}
	if int(typ) >= len(instrumentTypeNames) {
		return errors.Wrapf(ErrUnknownEnum, "instrument type %d", typ)
	}
	ins.Meta.Type = InstrumentType(typ)

	ins.Features = ins.Features[:0]
	for {
		if r.remaining() == 0 {
			return nil
		}
		at := r.offset()
		code := string(r.bytes(2))
		if r.err != nil {
			return r.err
		}
		if code == insFeatureEnd {
			return nil
		}
		size := r.u16()
		body := r.sub(int(size))
		if err := r.Err(); err != nil {
			return err
		}
		f, err := ins.decodeFeature(code, body)
		if err != nil {
			return errors.Wrapf(err, "feature %s at 0x%X", code, at)
		}
		ins.Features = append(ins.Features, f)
	}
}

// decodeFeaturalEmbed decodes a feature-block instrument embedded in a
// module: magic, block size, then the same body a standalone file carries.
func (ins *Instrument) decodeFeaturalEmbed(r *reader) error {
	if string(r.bytes(4)) != insEmbedMagicNew {
		return errors.Wrapf(ErrBadMagic, "instrument block at 0x%X", r.base)
	}
	size := r.u32()
	b := r.sub(int(size))
	if err := r.Err(); err != nil {
		return err
	}
	return ins.decodeFeatural(b)
}

// decodeFeature is the single dispatch point for feature blocks. A code this
// build does not know is fatal: the block length is trusted but its meaning
// is not.
func (ins *Instrument) decodeFeature(code string, r *reader) (Feature, error) {
	switch code {
	case "NA":
		return &FeatureName{Name: r.cstr()}, r.Err()
	case "FM":
		return decodeFMFeature(r)
	case "MA":
		macros, err := decodeMacroSet[MacroCode](r)
		if err != nil {
			return nil, err
		}
		return &FeatureMacro{Macros: macros}, nil
	case "O1", "O2", "O3", "O4":
		macros, err := decodeMacroSet[OpMacroCode](r)
		if err != nil {
			return nil, err
		}
		return &FeatureOpMacro{Op: int(code[1] - '1'), Macros: macros}, nil
	case "64":
		return decodeC64Feature(r)
	case "GB":
		return decodeGBFeature(r)
	case "SM":
		return decodeAmigaFeature(r)
	case "LD":
		return &FeatureOPLDrums{
			FixedDrums:   r.u8()&1 != 0,
			KickFreq:     r.u16(),
			SnareHatFreq: r.u16(),
			TomTopFreq:   r.u16(),
		}, r.Err()
	case "SN":
		return decodeSNESFeature(r, ins.Meta.Version)
	case "N1":
		return &FeatureN163{
			Wave:     r.s32(),
			WavePos:  r.u8(),
			WaveLen:  r.u8(),
			WaveMode: r.u8(),
		}, r.Err()
	case "FD":
		f := &FeatureFDS{
			ModSpeed:               r.u32(),
			ModDepth:               r.u32(),
			InitTableWithFirstWave: r.u8() != 0,
		}
		for i := range f.ModTable {
			f.ModTable[i] = r.u8()
		}
		return f, r.Err()
	case "WS":
		return decodeWaveSynthFeature(r)
	case "SL":
		entries, err := decodePointerList(r)
		if err != nil {
			return nil, err
		}
		return &FeatureSampleList{Entries: entries}, nil
	case "WL":
		entries, err := decodePointerList(r)
		if err != nil {
			return nil, err
		}
		return &FeatureWaveList{Entries: entries}, nil
	case "MP":
		return &FeatureMultiPCM{
			AR:  r.u8(),
			D1R: r.u8(),
			DL:  r.u8(),
			D2R: r.u8(),
			RR:  r.u8(),
			RC:  r.u8(),
			LFO: r.u8(),
			VIB: r.u8(),
			AM:  r.u8(),
		}, r.Err()
	case "SU":
		return &FeatureSoundUnit{SwitchRoles: r.u8() != 0}, r.Err()
	case "ES":
		return decodeES5506Feature(r)
	case "X1":
		return &FeatureX1010{BankSlot: r.u32()}, r.Err()
	case "NE":
		f := &FeatureDPCMMap{UseMap: r.u8()&1 != 0}
		if f.UseMap {
			for i := range f.SampleMap {
				f.SampleMap[i].Pitch = r.u8()
				f.SampleMap[i].Delta = r.u8()
			}
		}
		return f, r.Err()
	case "PN":
		return &FeaturePowerNoise{Octave: r.u8()}, r.Err()
	case "S2":
		b := r.u8()
		return &FeatureSID2{
			Volume:    b & 15,
			WaveMix:   b >> 4 & 3,
			NoiseMode: b >> 6 & 3,
		}, r.Err()
	default:
		return nil, errors.Wrapf(ErrUnknownEnum, "feature code %q", code)
	}
}

func decodeFMFeature(r *reader) (Feature, error) {
	fm := NewFeatureFM()

	b := r.u8()
	serialOps := int(b & 15)
	fm.OpList[0].Enable = b&16 != 0
	fm.OpList[1].Enable = b&32 != 0
	fm.OpList[2].Enable = b&64 != 0
	fm.OpList[3].Enable = b&128 != 0

	b = r.u8()
	fm.Alg = b >> 4 & 7
	fm.FB = b & 7

	b = r.u8()
	fm.FMS2 = b >> 5 & 7
	fm.AMS = b >> 3 & 3
	fm.FMS = b & 7

	b = r.u8()
	fm.AMS2 = b >> 6 & 3
	if b&32 != 0 {
		fm.Ops = 4
	} else {
		fm.Ops = 2
	}
	fm.OPLLPreset = b & 31

	if serialOps > len(fm.OpList) {
		return nil, errors.Wrapf(ErrInvalidField, "operator count %d", serialOps)
	}
	for i := 0; i < serialOps; i++ {
		op := &fm.OpList[i]

		b = r.u8()
		op.KSR = b&128 != 0
		op.DT = b >> 4 & 7
		op.Mult = b & 15

		b = r.u8()
		op.SUS = b&128 != 0
		op.TL = b & 127

		b = r.u8()
		op.RS = b >> 6 & 3
		op.VIB = b&32 != 0
		op.AR = b & 31

		b = r.u8()
		op.AM = b&128 != 0
		op.KSL = b >> 5 & 3
		op.DR = b & 31

		b = r.u8()
		op.EGT = b&128 != 0
		op.KVS = b >> 5 & 3
		op.D2R = b & 31

		b = r.u8()
		op.SL = b >> 4 & 15
		op.RR = b & 15

		b = r.u8()
		op.DVB = b >> 4 & 15
		op.SSGEnv = b & 15

		b = r.u8()
		op.DAM = b >> 5 & 7
		op.DT2 = b >> 3 & 3
		op.WS = b & 7
	}
	return fm, r.Err()
}

func decodeC64Feature(r *reader) (Feature, error) {
	c64 := NewFeatureC64()

	b := r.u8()
	c64.DutyIsAbs = b>>7&1 != 0
	c64.InitFilter = b>>6&1 != 0
	c64.VolIsCutoff = b>>5&1 != 0
	c64.ToFilter = b>>4&1 != 0
	c64.NoiseOn = b>>3&1 != 0
	c64.PulseOn = b>>2&1 != 0
	c64.SawOn = b>>1&1 != 0
	c64.TriOn = b&1 != 0

	b = r.u8()
	c64.OscSync = b>>7&1 != 0
	c64.RingMod = b>>6&1 != 0
	c64.NoTest = b>>5&1 != 0
	c64.FilterIsAbs = b>>4&1 != 0
	c64.Ch3Off = b>>3&1 != 0
	c64.BP = b>>2&1 != 0
	c64.HP = b>>1&1 != 0
	c64.LP = b&1 != 0

	b = r.u8()
	c64.Envelope.A = b >> 4 & 15
	c64.Envelope.D = b & 15

	b = r.u8()
	c64.Envelope.S = b >> 4 & 15
	c64.Envelope.R = b & 15

	c64.Duty = r.u16()

	cr := r.u16()
	c64.Cut = cr & 0x3FF
	c64.Res = uint8(cr >> 12 & 15)

	return c64, r.Err()
}

func decodeGBFeature(r *reader) (Feature, error) {
	gb := NewFeatureGB()

	b := r.u8()
	gb.EnvVol = b & 15
	gb.EnvDir = b >> 4 & 1
	gb.EnvLen = b >> 5 & 7

	gb.SoundLen = r.u8()

	b = r.u8()
	gb.SoftEnv = b&1 != 0
	gb.AlwaysInit = b>>1&1 != 0

	seqLen := int(r.u8())
	for i := 0; i < seqLen; i++ {
		at := r.offset()
		cmd := GBHwCommand(r.u8())
		if r.err == nil && !cmd.isValid() {
			return nil, errors.Wrapf(ErrUnknownEnum, "hardware sequence command %d at 0x%X", cmd, at)
		}
		gb.HwSeq = append(gb.HwSeq, GBHwSeq{
			Command: cmd,
			Data:    [2]uint8{r.u8(), r.u8()},
		})
	}
	return gb, r.Err()
}

func decodeAmigaFeature(r *reader) (Feature, error) {
	sm := NewFeatureAmiga()
	sm.InitSample = r.u16()

	b := r.u8()
	sm.UseWave = b>>2&1 != 0
	sm.UseSample = b>>1&1 != 0
	sm.UseNoteMap = b&1 != 0

	sm.WaveLen = r.u8()

	if sm.UseNoteMap {
		for i := range sm.SampleMap {
			sm.SampleMap[i].Freq = int(r.u16())
			sm.SampleMap[i].SampleIndex = r.u16()
		}
	}
	return sm, r.Err()
}

func decodeSNESFeature(r *reader, version uint16) (Feature, error) {
	sn := NewFeatureSNES()

	b := r.u8()
	sn.Envelope.D = b >> 4 & 15
	sn.Envelope.A = b & 15

	b = r.u8()
	sn.Envelope.S = b >> 4 & 15
	sn.Envelope.R = b & 15

	b = r.u8()
	sn.UseEnv = b>>4&1 != 0
	sn.Sus = SNESSusMode(b >> 3 & 1)

	// a whole byte below 4 means no gain mode at all
	gainMode := GainMode(b & 7)
	if b < 4 {
		gainMode = GainDirect
	}
	if !gainMode.isValid() {
		return nil, errors.Wrapf(ErrUnknownEnum, "gain mode %d", b&7)
	}
	sn.GainMode = gainMode

	sn.Gain = r.u8()

	if version >= 131 {
		d2s := r.u8()
		sn.Sus = SNESSusMode(d2s >> 5 & 3)
		sn.D2 = d2s & 31
	}
	return sn, r.Err()
}

func decodeWaveSynthFeature(r *reader) (Feature, error) {
	ws := NewFeatureWaveSynth()
	ws.WaveIndices[0] = r.u32()
	ws.WaveIndices[1] = r.u32()
	ws.RateDivider = r.u8()

	at := r.offset()
	fx := WaveFX(r.u8())
	if r.err == nil && !fx.isValid() {
		return nil, errors.Wrapf(ErrUnknownEnum, "wave synth effect %d at 0x%X", fx, at)
	}
	ws.Effect = fx

	ws.Enabled = r.u8()&1 != 0
	ws.GlobalEffect = r.u8()&1 != 0
	ws.Speed = r.u8()
	for i := range ws.Params {
		ws.Params[i] = r.u8()
	}
	return ws, r.Err()
}

func decodeES5506Feature(r *reader) (Feature, error) {
	at := r.offset()
	mode := ESFilterMode(r.u8())
	if r.err == nil && !mode.isValid() {
		return nil, errors.Wrapf(ErrUnknownEnum, "filter mode %d at 0x%X", mode, at)
	}
	return &FeatureES5506{
		FilterMode:      mode,
		K1:              r.u16(),
		K2:              r.u16(),
		EnvCount:        r.u16(),
		LeftVolumeRamp:  r.u8(),
		RightVolumeRamp: r.u8(),
		K1Ramp:          r.u8(),
		K2Ramp:          r.u8(),
		K1Slow:          r.u8(),
		K2Slow:          r.u8(),
	}, r.Err()
}

// decodePointerList reads an index list followed by one pointer per unique
// index, in first-seen order.
func decodePointerList(r *reader) ([]PointerEntry, error) {
	count := int(r.u8())
	entries := make([]PointerEntry, 0, count)
	seen := make(map[uint8]bool, count)
	for i := 0; i < count; i++ {
		idx := r.u8()
		if seen[idx] {
			continue
		}
		seen[idx] = true
		entries = append(entries, PointerEntry{Index: idx})
	}
	for i := range entries {
		entries[i].Pointer = r.u32()
	}
	return entries, r.Err()
}
