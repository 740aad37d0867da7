package furnace

// EncodeInstrument renders the instrument as a standalone instrument file in
// the feature-block format, whatever format it was loaded from.
func (ins *Instrument) EncodeInstrument() []byte {
	w := &writer{}
	w.raw([]byte(insFileMagicNew))
	ins.encodeFeatural(w)
	return w.buf
}

// encodeEmbed writes the instrument as an INS2 block for a module image.
func (ins *Instrument) encodeEmbed(w *writer) {
	sizeAt := w.beginBlock(insEmbedMagicNew)
	ins.encodeFeatural(w)
	w.endBlock(sizeAt)
}

func (ins *Instrument) encodeFeatural(w *writer) {
	w.u16(ins.Meta.Version)
	w.u16(uint16(ins.Meta.Type))
	for _, f := range ins.Features {
		ins.encodeFeature(w, f)
	}
	w.raw([]byte(insFeatureEnd))
}

// encodeFeature writes one feature block: code, body length, body.
func (ins *Instrument) encodeFeature(w *writer, f Feature) {
	body := &writer{}
	switch f := f.(type) {
	case *FeatureName:
		body.cstr(f.Name)
	case *FeatureFM:
		encodeFMFeature(body, f)
	case *FeatureMacro:
		encodeMacroSet(body, f.Macros)
	case *FeatureOpMacro:
		encodeMacroSet(body, f.Macros)
	case *FeatureC64:
		encodeC64Feature(body, f)
	case *FeatureGB:
		encodeGBFeature(body, f)
	case *FeatureAmiga:
		encodeAmigaFeature(body, f)
	case *FeatureOPLDrums:
		body.boolByte(f.FixedDrums)
		body.u16(f.KickFreq)
		body.u16(f.SnareHatFreq)
		body.u16(f.TomTopFreq)
	case *FeatureSNES:
		encodeSNESFeature(body, f, ins.Meta.Version)
	case *FeatureN163:
		body.s32(f.Wave)
		body.u8(f.WavePos)
		body.u8(f.WaveLen)
		body.u8(f.WaveMode)
	case *FeatureFDS:
		body.u32(f.ModSpeed)
		body.u32(f.ModDepth)
		body.boolByte(f.InitTableWithFirstWave)
		for _, v := range f.ModTable {
			body.u8(v)
		}
	case *FeatureWaveSynth:
		body.u32(f.WaveIndices[0])
		body.u32(f.WaveIndices[1])
		body.u8(f.RateDivider)
		body.u8(uint8(f.Effect))
		body.boolByte(f.Enabled)
		body.boolByte(f.GlobalEffect)
		body.u8(f.Speed)
		for _, v := range f.Params {
			body.u8(v)
		}
	case *FeatureSampleList:
		encodePointerList(body, f.Entries)
	case *FeatureWaveList:
		encodePointerList(body, f.Entries)
	case *FeatureMultiPCM:
		body.u8(f.AR)
		body.u8(f.D1R)
		body.u8(f.DL)
		body.u8(f.D2R)
		body.u8(f.RR)
		body.u8(f.RC)
		body.u8(f.LFO)
		body.u8(f.VIB)
		body.u8(f.AM)
	case *FeatureSoundUnit:
		body.boolByte(f.SwitchRoles)
	case *FeatureES5506:
		body.u8(uint8(f.FilterMode))
		body.u16(f.K1)
		body.u16(f.K2)
		body.u16(f.EnvCount)
		body.u8(f.LeftVolumeRamp)
		body.u8(f.RightVolumeRamp)
		body.u8(f.K1Ramp)
		body.u8(f.K2Ramp)
		body.u8(f.K1Slow)
		body.u8(f.K2Slow)
	case *FeatureX1010:
		body.u32(f.BankSlot)
	case *FeatureDPCMMap:
		body.boolByte(f.UseMap)
		if f.UseMap {
			for _, e := range f.SampleMap {
				body.u8(e.Pitch)
				body.u8(e.Delta)
			}
		}
	case *FeaturePowerNoise:
		body.u8(f.Octave)
	case *FeatureSID2:
		body.u8(f.NoiseMode&3<<6 | f.WaveMix&3<<4 | f.Volume&15)
	}
	w.raw([]byte(f.Code()))
	w.u16(uint16(body.len()))
	w.raw(body.buf)
}

func encodeFMFeature(w *writer, fm *FeatureFM) {
	var b uint8 = 4
	if fm.OpList[0].Enable {
		b |= 16
	}
	if fm.OpList[1].Enable {
		b |= 32
	}
	if fm.OpList[2].Enable {
		b |= 64
	}
	if fm.OpList[3].Enable {
		b |= 128
	}
	w.u8(b)

	w.u8(fm.Alg&7<<4 | fm.FB&7)
	w.u8(fm.FMS2&7<<5 | fm.AMS&3<<3 | fm.FMS&7)

	b = fm.AMS2&3<<6 | fm.OPLLPreset&31
	if fm.Ops == 4 {
		b |= 32
	}
	w.u8(b)

	for i := range fm.OpList {
		op := &fm.OpList[i]

		b = op.DT&7<<4 | op.Mult&15
		if op.KSR {
			b |= 128
		}
		w.u8(b)

		b = op.TL & 127
		if op.SUS {
			b |= 128
		}
		w.u8(b)

		b = op.RS&3<<6 | op.AR&31
		if op.VIB {
			b |= 32
		}
		w.u8(b)

		b = op.KSL&3<<5 | op.DR&31
		if op.AM {
			b |= 128
		}
		w.u8(b)

		b = op.KVS&3<<5 | op.D2R&31
		if op.EGT {
			b |= 128
		}
		w.u8(b)

		w.u8(op.SL&15<<4 | op.RR&15)
		w.u8(op.DVB&15<<4 | op.SSGEnv&15)
		w.u8(op.DAM&7<<5 | op.DT2&3<<3 | op.WS&7)
	}
}

func c64FlagByte(bits ...bool) uint8 {
	var b uint8
	for i, set := range bits {
		if set {
			b |= 1 << (len(bits) - 1 - i)
		}
	}
	return b
}

func encodeC64Feature(w *writer, c64 *FeatureC64) {
	w.u8(c64FlagByte(c64.DutyIsAbs, c64.InitFilter, c64.VolIsCutoff, c64.ToFilter,
		c64.NoiseOn, c64.PulseOn, c64.SawOn, c64.TriOn))
	w.u8(c64FlagByte(c64.OscSync, c64.RingMod, c64.NoTest, c64.FilterIsAbs,
		c64.Ch3Off, c64.BP, c64.HP, c64.LP))
	w.u8(c64.Envelope.A&15<<4 | c64.Envelope.D&15)
	w.u8(c64.Envelope.S&15<<4 | c64.Envelope.R&15)
	w.u16(c64.Duty)
	w.u16(uint16(c64.Res&15)<<12 | c64.Cut&0x3FF)
}

func encodeGBFeature(w *writer, gb *FeatureGB) {
	w.u8(gb.EnvLen&7<<5 | gb.EnvDir&1<<4 | gb.EnvVol&15)
	w.u8(gb.SoundLen)

	var b uint8
	if gb.SoftEnv {
		b |= 1
	}
	if gb.AlwaysInit {
		b |= 2
	}
	w.u8(b)

	w.u8(uint8(len(gb.HwSeq)))
	for _, seq := range gb.HwSeq {
		w.u8(uint8(seq.Command))
		w.u8(seq.Data[0])
		w.u8(seq.Data[1])
	}
}

func encodeAmigaFeature(w *writer, sm *FeatureAmiga) {
	w.u16(sm.InitSample)

	var b uint8
	if sm.UseWave {
		b |= 4
	}
	if sm.UseSample {
		b |= 2
	}
	if sm.UseNoteMap {
		b |= 1
	}
	w.u8(b)

	w.u8(sm.WaveLen)
	if sm.UseNoteMap {
		for _, e := range sm.SampleMap {
			w.u16(uint16(e.Freq))
			w.u16(e.SampleIndex)
		}
	}
}

func encodeSNESFeature(w *writer, sn *FeatureSNES, version uint16) {
	w.u8(sn.Envelope.D&15<<4 | sn.Envelope.A&15)
	w.u8(sn.Envelope.S&15<<4 | sn.Envelope.R&15)

	b := uint8(sn.GainMode) & 7
	if sn.UseEnv {
		b |= 16
	}
	b |= uint8(sn.Sus) & 1 << 3
	w.u8(b)

	w.u8(sn.Gain)
	if version >= 131 {
		w.u8(uint8(sn.Sus)&3<<5 | sn.D2&31)
	}
}

func encodePointerList(w *writer, entries []PointerEntry) {
	w.u8(uint8(len(entries)))
	for _, e := range entries {
		w.u8(e.Index)
	}
	for _, e := range entries {
		w.u32(e.Pointer)
	}
}
