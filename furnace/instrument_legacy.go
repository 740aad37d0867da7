package furnace

import (
	"github.com/pkg/errors"
)

// The unified format stores macro loop and release points as 4-byte
// indices; this value means the point is absent.
const legacyMacroNone = 0xFFFFFFFF

// Macro order within the per-operator blocks of the unified format.
var legacyOpMacroKinds = [12]OpMacroCode{
	OpMacroAM, OpMacroAR, OpMacroDR, OpMacroMult, OpMacroRR, OpMacroSL,
	OpMacroTL, OpMacroDT2, OpMacroRS, OpMacroDT, OpMacroD2R, OpMacroSSGEG,
}

var legacyOpExtMacroKinds = [8]OpMacroCode{
	OpMacroDAM, OpMacroDVB, OpMacroEGT, OpMacroKSL,
	OpMacroSUS, OpMacroVIB, OpMacroWS, OpMacroKSR,
}

var legacyLateMacroKinds = [8]MacroCode{
	MacroPanL, MacroPanR, MacroPhaseReset,
	MacroEx4, MacroEx5, MacroEx6, MacroEx7, MacroEx8,
}

func readLegacyValues(r *reader, n uint32) []MacroItem {
	var out []MacroItem
	for i := uint32(0); i < n; i++ {
		v := r.u32()
		if r.err != nil {
			return out
		}
		out = append(out, MacroValue(int(v)))
	}
	return out
}

func readLegacyByteValues(r *reader, n uint32) []MacroItem {
	var out []MacroItem
	for i := uint32(0); i < n; i++ {
		v := r.u8()
		if r.err != nil {
			return out
		}
		out = append(out, MacroValue(int(v)))
	}
	return out
}

func applyLegacyLoop(data []MacroItem, loop uint32) []MacroItem {
	if loop == legacyMacroNone {
		return data
	}
	return insertMacroItem(data, int(loop), MacroLoop{})
}

func applyLegacyRelease(data []MacroItem, release uint32) []MacroItem {
	if release == legacyMacroNone {
		return data
	}
	return insertMacroItem(data, int(release), MacroRelease{})
}

// addLegacyValue applies f to every plain value of the macro, leaving the
// markers alone.
func addLegacyValue(data []MacroItem, f func(int) int) {
	for i, it := range data {
		if v, ok := it.(MacroValue); ok {
			data[i] = MacroValue(f(int(v)))
		}
	}
}

// decodeLegacyEmbed decodes a unified-format instrument block, reassembling
// it into the same feature set the newer format stores directly. The layout
// grew strictly by version, so this reads sections in historical order and
// stops at the ones the block's version predates.
func (ins *Instrument) decodeLegacyEmbed(r *reader) error {
	if string(r.bytes(4)) != insEmbedMagic {
		return errors.Wrapf(ErrBadMagic, "instrument block at 0x%X", r.base)
	}
	size := r.u32()
	var b *reader
	if size > 0 {
		b = r.sub(int(size))
	} else {
		b = r.tail()
	}

	ins.Meta.Version = b.u16()
	typ := b.u8()
	if b.err == nil && !InstrumentType(typ).isValid() {
		return errors.Wrapf(ErrUnknownEnum, "instrument type %d", typ)
	}
	ins.Meta.Type = InstrumentType(typ)
	b.skip(1)

	v := ins.Meta.Version
	ins.Features = ins.Features[:0]

	ins.Features = append(ins.Features, &FeatureName{Name: b.cstr()})

	// fm
	fm := NewFeatureFM()
	fm.Alg = b.u8()
	fm.FB = b.u8()
	fm.FMS = b.u8()
	fm.AMS = b.u8()
	fm.Ops = b.u8()
	fm.OPLLPreset = b.u8()
	b.u16()
	for i := range fm.OpList {
		op := &fm.OpList[i]
		op.AM = b.u8() != 0
		op.AR = b.u8()
		op.DR = b.u8()
		op.Mult = b.u8()
		op.RR = b.u8()
		op.SL = b.u8()
		op.TL = b.u8()
		op.DT2 = b.u8()
		op.RS = b.u8()
		op.DT = b.u8()
		op.D2R = b.u8()
		op.SSGEnv = b.u8()
		op.DAM = b.u8()
		op.DVB = b.u8()
		op.EGT = b.u8() != 0
		op.KSL = b.u8()
		op.SUS = b.u8() != 0
		op.VIB = b.u8() != 0
		op.WS = b.u8()
		op.KSR = b.u8() != 0
		en := b.u8()
		if v >= 114 {
			op.Enable = en != 0
		}
		kvs := b.u8()
		if v >= 115 {
			op.KVS = kvs
		}
		b.skip(10)
	}
	ins.Features = append(ins.Features, fm)

	// game boy
	gb := NewFeatureGB()
	gb.EnvVol = b.u8()
	gb.EnvDir = b.u8()
	gb.EnvLen = b.u8()
	gb.SoundLen = b.u8()
	ins.Features = append(ins.Features, gb)

	// c64
	c64 := NewFeatureC64()
	c64.TriOn = b.u8() != 0
	c64.SawOn = b.u8() != 0
	c64.PulseOn = b.u8() != 0
	c64.NoiseOn = b.u8() != 0
	c64.Duty = b.u16()
	c64.RingMod = b.u8() != 0
	c64.OscSync = b.u8() != 0
	c64.ToFilter = b.u8() != 0
	c64.InitFilter = b.u8() != 0
	c64.VolIsCutoff = b.u8() != 0
	c64.Res = b.u8()
	c64.LP = b.u8() != 0
	c64.BP = b.u8() != 0
	c64.HP = b.u8() != 0
	c64.Ch3Off = b.u8() != 0
	c64.Cut = b.u16()
	c64.DutyIsAbs = b.u8() != 0
	c64.FilterIsAbs = b.u8() != 0
	c64.Envelope.A = b.u8()
	c64.Envelope.D = b.u8()
	c64.Envelope.S = b.u8()
	c64.Envelope.R = b.u8()
	ins.Features = append(ins.Features, c64)

	// amiga
	amiga := NewFeatureAmiga()
	amiga.InitSample = b.u16()
	useWave := b.u8()
	waveLen := b.u8()
	if v >= 82 {
		amiga.UseWave = useWave != 0
		amiga.WaveLen = waveLen
	}
	b.skip(12)
	ins.Features = append(ins.Features, amiga)

	// standard macros
	vol := newMacro(MacroVol)
	arp := newMacro(MacroArp)
	duty := newMacro(MacroDuty)
	wave := newMacro(MacroWave)
	pitch := newMacro(MacroPitch)
	x1 := newMacro(MacroEx1)
	x2 := newMacro(MacroEx2)
	x3 := newMacro(MacroEx3)
	alg := newMacro(MacroAlg)
	fb := newMacro(MacroFB)
	fms := newMacro(MacroFMS)
	ams := newMacro(MacroAMS)
	panL := newMacro(MacroPanL)
	panR := newMacro(MacroPanR)
	phaseReset := newMacro(MacroPhaseReset)
	x4 := newMacro(MacroEx4)
	x5 := newMacro(MacroEx5)
	x6 := newMacro(MacroEx6)
	x7 := newMacro(MacroEx7)
	x8 := newMacro(MacroEx8)

	mac := &FeatureMacro{}
	macOrder := []*SingleMacro[MacroCode]{&vol, &arp, &duty, &wave}

	var stdLens, stdLoops [8]uint32
	for i := 0; i < 4; i++ {
		stdLens[i] = b.u32()
	}
	if v >= 17 {
		macOrder = append(macOrder, &pitch, &x1, &x2, &x3)
		for i := 4; i < 8; i++ {
			stdLens[i] = b.u32()
		}
	}
	for i := 0; i < 4; i++ {
		stdLoops[i] = b.u32()
	}
	if v >= 17 {
		for i := 4; i < 8; i++ {
			stdLoops[i] = b.u32()
		}
	}

	arpMacMode := b.u8()
	oldVolHeight := b.u8()
	oldDutyHeight := b.u8()
	b.skip(1)
	if err := b.Err(); err != nil {
		return err
	}

	for i, m := range []*SingleMacro[MacroCode]{&vol, &arp, &duty, &wave} {
		m.Data = applyLegacyLoop(readLegacyValues(b, stdLens[i]), stdLoops[i])
	}

	if v < 31 && arpMacMode == 0 {
		addLegacyValue(arp.Data, func(n int) int { return n - 12 })
	}
	if v < 87 {
		if c64.VolIsCutoff && !c64.FilterIsAbs {
			addLegacyValue(vol.Data, func(n int) int { return n - 18 })
		}
		if c64.DutyIsAbs {
			addLegacyValue(duty.Data, func(n int) int { return n - 12 })
		}
	}
	if v < 112 && arpMacMode == 1 {
		// fixed arps moved from a macro mode to bit 30 of each value
		addLegacyValue(arp.Data, func(n int) int { return n | 1<<30 })
		if len(arp.Data) > 0 {
			switch stdLoops[1] {
			case legacyMacroNone:
			case stdLens[1] + 1:
				arp.Data[len(arp.Data)-1] = MacroValue(0)
				arp.Data = append(arp.Data, MacroLoop{})
			case stdLens[1]:
				arp.Data = append(arp.Data, MacroValue(0))
			}
		} else {
			arp.Data = append(arp.Data, MacroValue(0))
		}
	}

	if v >= 17 {
		for i, m := range []*SingleMacro[MacroCode]{&pitch, &x1, &x2, &x3} {
			m.Data = applyLegacyLoop(readLegacyValues(b, stdLens[4+i]), stdLoops[4+i])
		}
	} else if ins.Meta.Type == InsStandard {
		// the type byte alone cannot tell these apart in very old blocks
		if oldVolHeight == 31 {
			ins.Meta.Type = InsPCE
		} else if oldDutyHeight == 31 {
			ins.Meta.Type = InsSSG
		}
	}
	ins.Features = append(ins.Features, mac)

	// fm macros
	var opMacros [4][20]SingleMacro[OpMacroCode]
	if v >= 29 {
		macOrder = append(macOrder, &alg, &fb, &fms, &ams)

		var fmLens, fmLoops [4]uint32
		for i := range fmLens {
			fmLens[i] = b.u32()
		}
		for i := range fmLoops {
			fmLoops[i] = b.u32()
		}
		for _, m := range []*SingleMacro[MacroCode]{
			&vol, &arp, &duty, &wave, &pitch, &x1, &x2, &x3,
			&alg, &fb, &fms, &ams,
		} {
			m.Open = b.u8() != 0
		}
		if err := b.Err(); err != nil {
			return err
		}
		for i, m := range []*SingleMacro[MacroCode]{&alg, &fb, &fms, &ams} {
			m.Data = applyLegacyLoop(readLegacyValues(b, fmLens[i]), fmLoops[i])
		}

		// op macros: headers for all four operators come first, then the
		// macro data in the same order
		var opLens, opLoops [4][12]uint32
		var opOpens [4][12]uint8
		for op := 0; op < 4; op++ {
			for i := 0; i < 12; i++ {
				opLens[op][i] = b.u32()
			}
			for i := 0; i < 12; i++ {
				opLoops[op][i] = b.u32()
			}
			for i := 0; i < 12; i++ {
				opOpens[op][i] = b.u8()
			}
		}
		if err := b.Err(); err != nil {
			return err
		}
		for op := 0; op < 4; op++ {
			for i, kind := range legacyOpMacroKinds {
				m := newMacro(kind)
				m.Open = opOpens[op][i] != 0
				m.Data = applyLegacyLoop(readLegacyValues(b, opLens[op][i]), opLoops[op][i])
				opMacros[op][i] = m
			}
		}
	}

	// release points
	if v >= 44 {
		for _, m := range []*SingleMacro[MacroCode]{
			&vol, &arp, &duty, &wave, &pitch, &x1, &x2, &x3,
			&alg, &fb, &fms, &ams,
		} {
			m.Data = applyLegacyRelease(m.Data, b.u32())
		}
		for op := 0; op < 4; op++ {
			for i := 0; i < 12; i++ {
				opMacros[op][i].Data = applyLegacyRelease(opMacros[op][i].Data, b.u32())
			}
		}
	}

	// extended op macros
	if v >= 61 {
		for op := 0; op < 4; op++ {
			var lens, loops, rels [8]uint32
			var opens [8]uint8
			for i := range lens {
				lens[i] = b.u32()
			}
			for i := range loops {
				loops[i] = b.u32()
			}
			for i := range rels {
				rels[i] = b.u32()
			}
			for i := range opens {
				opens[i] = b.u8()
			}
			if err := b.Err(); err != nil {
				return err
			}
			for i, kind := range legacyOpExtMacroKinds {
				m := newMacro(kind)
				m.Open = opens[i] != 0
				m.Data = applyLegacyRelease(applyLegacyLoop(readLegacyByteValues(b, lens[i]), loops[i]), rels[i])
				opMacros[op][12+i] = m
			}
		}
	}

	// opl drums
	if v >= 63 {
		drums := &FeatureOPLDrums{FixedDrums: b.u8() != 0}
		b.skip(1)
		drums.KickFreq = b.u16()
		drums.SnareHatFreq = b.u16()
		drums.TomTopFreq = b.u16()
		ins.Features = append(ins.Features, drums)
	}

	// stale macro data in old blocks
	if v < 63 && ins.Meta.Type == InsPCE {
		duty.Data = nil
	}
	if v < 70 && ins.Meta.Type == InsFMOPLL {
		wave.Data = nil
	}

	// sample map
	if v >= 67 {
		noteMap := NewFeatureAmiga()
		noteMap.UseNoteMap = b.u8() != 0
		if noteMap.UseNoteMap {
			for i := range noteMap.SampleMap {
				noteMap.SampleMap[i].Freq = int(b.u32())
			}
			for i := range noteMap.SampleMap {
				noteMap.SampleMap[i].SampleIndex = b.u16()
			}
		}
		ins.Features = append(ins.Features, noteMap)
	}

	// n163
	if v >= 73 {
		n163 := &FeatureN163{
			Wave:     b.s32(),
			WavePos:  b.u8(),
			WaveLen:  b.u8(),
			WaveMode: b.u8(),
		}
		b.skip(1)
		ins.Features = append(ins.Features, n163)
	}

	// panning, phase reset and the later extra macros
	if v >= 76 {
		lateMacs := []*SingleMacro[MacroCode]{&panL, &panR, &phaseReset, &x4, &x5, &x6, &x7, &x8}
		var lens, loops, rels [8]uint32
		for i := range lens {
			lens[i] = b.u32()
		}
		for i := range loops {
			loops[i] = b.u32()
		}
		for i := range rels {
			rels[i] = b.u32()
		}
		for _, m := range lateMacs {
			m.Open = b.u8() != 0
		}
		if err := b.Err(); err != nil {
			return err
		}
		for i, m := range lateMacs {
			m.Data = applyLegacyRelease(applyLegacyLoop(readLegacyValues(b, lens[i]), loops[i]), rels[i])
		}
		macOrder = append(macOrder, lateMacs...)
	}

	// fds
	if v >= 76 {
		fds := &FeatureFDS{
			ModSpeed:               b.u32(),
			ModDepth:               b.u32(),
			InitTableWithFirstWave: b.u8() != 0,
		}
		b.skip(3)
		for i := range fds.ModTable {
			fds.ModTable[i] = b.u8()
		}
		ins.Features = append(ins.Features, fds)
	}

	// opz
	if v >= 77 {
		fm.FMS2 = b.u8()
		fm.AMS2 = b.u8()
	}

	// wave synth
	if v >= 79 {
		ws := NewFeatureWaveSynth()
		ws.WaveIndices[0] = b.u32()
		ws.WaveIndices[1] = b.u32()
		ws.RateDivider = b.u8()
		at := b.offset()
		fx := WaveFX(b.u8())
		if b.err == nil && !fx.isValid() {
			return errors.Wrapf(ErrUnknownEnum, "wave synth effect %d at 0x%X", fx, at)
		}
		ws.Effect = fx
		ws.Enabled = b.u8() != 0
		ws.GlobalEffect = b.u8() != 0
		ws.Speed = b.u8()
		for i := range ws.Params {
			ws.Params[i] = b.u8()
		}
		ins.Features = append(ins.Features, ws)
	}

	// macro modes; arp kept its mode in the header read far above
	if v >= 84 {
		for _, m := range []*SingleMacro[MacroCode]{
			&vol, &duty, &wave, &pitch, &x1, &x2, &x3,
			&alg, &fb, &fms, &ams,
			&panL, &panR, &phaseReset, &x4, &x5, &x6, &x7, &x8,
		} {
			m.Mode = b.u8()
		}
	}

	// c64 test bit
	if v >= 89 {
		c64.NoTest = b.u8() != 0
	}

	// multipcm
	if v >= 93 {
		mp := &FeatureMultiPCM{
			AR:  b.u8(),
			D1R: b.u8(),
			DL:  b.u8(),
			D2R: b.u8(),
			RR:  b.u8(),
			RC:  b.u8(),
			LFO: b.u8(),
			VIB: b.u8(),
			AM:  b.u8(),
		}
		b.skip(23)
		ins.Features = append(ins.Features, mp)
	}

	// sound unit
	if v >= 104 {
		amiga.UseSample = b.u8() != 0
		ins.Features = append(ins.Features, &FeatureSoundUnit{SwitchRoles: b.u8() != 0})
	}

	// gb hardware sequence
	if v >= 105 {
		seqLen := int(b.u8())
		gb.HwSeq = nil
		for i := 0; i < seqLen; i++ {
			at := b.offset()
			cmd := GBHwCommand(b.u8())
			if b.err == nil && !cmd.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "hardware sequence command %d at 0x%X", cmd, at)
			}
			gb.HwSeq = append(gb.HwSeq, GBHwSeq{
				Command: cmd,
				Data:    [2]uint8{b.u8(), b.u8()},
			})
		}
	}
	if v >= 106 {
		gb.SoftEnv = b.u8() != 0
		gb.AlwaysInit = b.u8() != 0
	}

	// es5506
	if v >= 107 {
		at := b.offset()
		mode := ESFilterMode(b.u8())
		if b.err == nil && !mode.isValid() {
			return errors.Wrapf(ErrUnknownEnum, "filter mode %d at 0x%X", mode, at)
		}
		es := &FeatureES5506{
			FilterMode:      mode,
			K1:              b.u16(),
			K2:              b.u16(),
			EnvCount:        b.u16(),
			LeftVolumeRamp:  b.u8(),
			RightVolumeRamp: b.u8(),
			K1Ramp:          b.u8(),
			K2Ramp:          b.u8(),
			K1Slow:          b.u8(),
			K2Slow:          b.u8(),
		}
		ins.Features = append(ins.Features, es)
	}

	// snes
	if v >= 109 {
		sn := NewFeatureSNES()
		sn.UseEnv = b.u8() != 0
		if v >= 118 {
			at := b.offset()
			gm := GainMode(b.u8())
			if b.err == nil && !gm.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "gain mode %d at 0x%X", gm, at)
			}
			sn.GainMode = gm
			sn.Gain = b.u8()
		} else {
			b.skip(2)
		}
		sn.Envelope.A = b.u8()
		sn.Envelope.D = b.u8()
		s := b.u8()
		sn.Envelope.S = s & 7
		sn.Envelope.R = b.u8()
		sn.Sus = SNESSusMode(s >> 3 & 1)
		ins.Features = append(ins.Features, sn)
	}

	// macro speeds and delays
	if v >= 111 {
		all := []*SingleMacro[MacroCode]{
			&vol, &arp, &duty, &wave, &pitch, &x1, &x2, &x3,
			&alg, &fb, &fms, &ams,
			&panL, &panR, &phaseReset, &x4, &x5, &x6, &x7, &x8,
		}
		for _, m := range all {
			m.Speed = b.u8()
		}
		for _, m := range all {
			m.Delay = b.u8()
		}
		for op := 0; op < 4; op++ {
			for i := range opMacros[op] {
				opMacros[op][i].Speed = b.u8()
			}
			for i := range opMacros[op] {
				opMacros[op][i].Delay = b.u8()
			}
		}
	}

	mac.Macros = make([]SingleMacro[MacroCode], len(macOrder))
	for i, m := range macOrder {
		mac.Macros[i] = *m
	}

	if v >= 29 {
		count := 12
		if v >= 61 {
			count = 20
		}
		for op := 0; op < 4; op++ {
			ins.Features = append(ins.Features, &FeatureOpMacro{
				Op:     op,
				Macros: append([]SingleMacro[OpMacroCode]{}, opMacros[op][:count]...),
			})
		}
	}

	return b.Err()
}
