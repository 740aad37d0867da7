package furnace

import (
	"bytes"
	"compress/zlib"
	"math"

	"github.com/pkg/errors"
)

// EncodeModule renders the module in the block layout of its stamped format
// version. Pointer tables are reserved up front and patched as each block
// lands, so the image is built in one pass.
//
// Two corners of the format only exist in their newer form: instruments are
// always written as feature blocks, which first appear in version 127, and
// extra subsongs need version 95. Encoding a module stamped older than that
// with such content fails.
func (m *Module) EncodeModule() ([]byte, error) {
	if err := m.validateForEncode(); err != nil {
		return nil, err
	}

	w := &writer{}
	w.raw([]byte(moduleFileMagic))
	w.u16(m.Meta.Version)
	w.zeros(2)
	infoPtrAt := w.reserveU32()
	w.zeros(8)

	e := &moduleEncoder{w: w, mod: m, version: m.Meta.Version}
	w.patchU32(infoPtrAt, uint32(w.len()))
	e.encodeInfo()
	e.encodeChipFlagBlocks()
	e.encodeInstruments()
	e.encodeWavetables()
	e.encodeSamples()
	e.encodeSubsongs()
	e.encodePatterns()

	return w.buf, nil
}

// EncodeModuleCompressed renders the module and deflates the whole image,
// the way the tracker saves by default.
func (m *Module) EncodeModuleCompressed() ([]byte, error) {
	raw, err := m.EncodeModule()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Module) validateForEncode() error {
	if len(m.SubSongs) == 0 {
		return errors.Wrap(ErrInvalidField, "module has no subsongs")
	}
	if len(m.SubSongs)-1 > 0xFF {
		return errors.Wrapf(ErrInvalidField, "%d subsongs", len(m.SubSongs))
	}
	if len(m.Chips.Chips) > maxChips {
		return errors.Wrapf(ErrInvalidField, "%d chips, the format stops at %d", len(m.Chips.Chips), maxChips)
	}
	if len(m.Instruments) > 0xFFFF || len(m.Wavetables) > 0xFFFF || len(m.Samples) > 0xFFFF {
		return errors.Wrap(ErrInvalidField, "too many instruments, wavetables or samples")
	}
	if m.Meta.Version < 127 && len(m.Instruments) > 0 {
		return errors.Errorf("instruments cannot be written below format version 127")
	}
	if m.Meta.Version < 95 && len(m.SubSongs) > 1 {
		return errors.Errorf("extra subsongs cannot be written below format version 95")
	}
	for si, ss := range m.SubSongs {
		if len(ss.SpeedPattern) > 16 {
			return errors.Wrapf(ErrInvalidField, "subsong %d speed pattern length %d", si, len(ss.SpeedPattern))
		}
		for gi, g := range ss.Grooves {
			if len(g) > 16 {
				return errors.Wrapf(ErrInvalidField, "subsong %d groove %d length %d", si, gi, len(g))
			}
		}
	}
	return nil
}

// moduleEncoder tracks the reserved pointer slots while the blocks are
// written out.
type moduleEncoder struct {
	w       *writer
	mod     *Module
	version uint16

	chipFlagPtrAt []int
	insPtrAt      []int
	wavePtrAt     []int
	samplePtrAt   []int
	patternPtrAt  []int
	subsongPtrAt  []int
}

func (e *moduleEncoder) encodeInfo() {
	w, mod := e.w, e.mod
	ss0 := mod.SubSongs[0]

	sizeAt := w.beginBlock(moduleInfoMagic)

	w.u8(ss0.Timing.Timebase - 1)
	w.u8(ss0.Timing.Speed[0])
	w.u8(ss0.Timing.Speed[1])
	w.u8(ss0.Timing.ArpSpeed)
	w.f32(ss0.Timing.ClockSpeed)
	w.u16(ss0.PatternLength)
	lenOrders := ordersLen(ss0)
	w.u16(uint16(lenOrders))
	w.u8(ss0.Timing.Highlight[0])
	w.u8(ss0.Timing.Highlight[1])

	w.u16(uint16(len(mod.Instruments)))
	w.u16(uint16(len(mod.Wavetables)))
	w.u16(uint16(len(mod.Samples)))
	w.u32(uint32(len(mod.Patterns)))

	for i := 0; i < maxChips; i++ {
		if i < len(mod.Chips.Chips) {
			w.u8(uint8(mod.Chips.Chips[i].Type))
		} else {
			w.u8(0)
		}
	}
	for i := 0; i < maxChips; i++ {
		if i < len(mod.Chips.Chips) {
			w.s8(scaleLevel(mod.Chips.Chips[i].Volume, 64))
		} else {
			w.s8(0)
		}
	}
	for i := 0; i < maxChips; i++ {
		if i < len(mod.Chips.Chips) {
			w.s8(scaleLevel(mod.Chips.Chips[i].Panning, 128))
		} else {
			w.s8(0)
		}
	}

	if e.version >= 119 {
		e.chipFlagPtrAt = reservePtrTable(w, maxChips)
	} else {
		for i := 0; i < maxChips; i++ {
			if i < len(mod.Chips.Chips) {
				chip := mod.Chips.Chips[i]
				w.u32(encodeOldChipFlags(chip.Type, chip.Flags))
			} else {
				w.u32(0)
			}
		}
	}

	w.cstr(mod.Meta.Name)
	w.cstr(mod.Meta.Author)
	w.f32(mod.Meta.Tuning)

	writeCompatFlags(w, &mod.CompatFlags, e.version, compatPhase1, compatPhase1Bytes)

	e.insPtrAt = reservePtrTable(w, len(mod.Instruments))
	e.wavePtrAt = reservePtrTable(w, len(mod.Wavetables))
	e.samplePtrAt = reservePtrTable(w, len(mod.Samples))
	e.patternPtrAt = reservePtrTable(w, len(mod.Patterns))

	numChannels := mod.NumChannels()
	for ch := 0; ch < numChannels; ch++ {
		var row []uint8
		if ch < len(ss0.Order) {
			row = ss0.Order[ch]
		}
		writePadded(w, row, lenOrders)
	}
	writePadded(w, ss0.EffectColumns, numChannels)

	for i := 0; i < numChannels; i++ {
		w.boolByte(displayAt(ss0, i).Shown)
	}
	for i := 0; i < numChannels; i++ {
		w.boolByte(displayAt(ss0, i).Collapsed)
	}
	for i := 0; i < numChannels; i++ {
		w.cstr(displayAt(ss0, i).Name)
	}
	for i := 0; i < numChannels; i++ {
		w.cstr(displayAt(ss0, i).Abbreviation)
	}

	w.cstr(mod.Meta.Comment)

	if e.version >= 59 {
		w.f32(mod.Chips.MasterVolume)
	}

	if e.version >= 70 {
		writeCompatFlags(w, &mod.CompatFlags, e.version, compatPhase2, compatPhase2Bytes)
		if e.version >= 96 {
			w.u16(ss0.Timing.VirtualTempo[0])
			w.u16(ss0.Timing.VirtualTempo[1])
		} else {
			w.zeros(4)
		}
	}

	if e.version >= 95 {
		w.cstr(ss0.Name)
		w.cstr(ss0.Comment)
		w.u8(uint8(len(mod.SubSongs) - 1))
		w.zeros(3)
		e.subsongPtrAt = reservePtrTable(w, len(mod.SubSongs)-1)
	}

	if e.version >= 103 {
		w.cstr(mod.Meta.SysName)
		w.cstr(mod.Meta.Album)
		w.cstr(mod.Meta.NameJP)
		w.cstr(mod.Meta.AuthorJP)
		w.cstr(mod.Meta.SysNameJP)
		w.cstr(mod.Meta.AlbumJP)
	}

	if e.version >= 135 {
		for _, chip := range mod.Chips.Chips {
			w.f32(chip.Volume)
			w.f32(chip.Panning)
			w.f32(chip.Surround)
		}
		w.u32(uint32(len(mod.PatchBay)))
		for _, conn := range mod.PatchBay {
			w.u16(uint16(conn.Dest.Set)<<4 | uint16(conn.Dest.Port)&0xF)
			w.u16(uint16(conn.Source.Set)<<4 | uint16(conn.Source.Port)&0xF)
		}
	}

	if e.version >= 136 {
		w.boolByte(mod.CompatFlags.AutoPatchbay)
	}

	if e.version >= 138 {
		writeCompatFlags(w, &mod.CompatFlags, e.version, compatPhase3, compatPhase3Bytes)
	}

	if e.version >= 139 {
		w.u8(uint8(len(ss0.SpeedPattern)))
		w.raw(ss0.SpeedPattern)
		w.zeros(16 - len(ss0.SpeedPattern))
		w.u8(uint8(len(ss0.Grooves)))
		for _, g := range ss0.Grooves {
			w.u8(uint8(len(g)))
			w.raw(g)
			w.zeros(16 - len(g))
		}
	}

	w.endBlock(sizeAt)
}

func (e *moduleEncoder) encodeChipFlagBlocks() {
	if e.version < 119 {
		return
	}
	for i, chip := range e.mod.Chips.Chips {
		if len(chip.Flags) == 0 {
			continue
		}
		e.w.patchU32(e.chipFlagPtrAt[i], uint32(e.w.len()))
		sizeAt := e.w.beginBlock(chipFlagMagic)
		e.w.cstr(encodeChipFlagText(chip.Flags))
		e.w.endBlock(sizeAt)
	}
}

func (e *moduleEncoder) encodeInstruments() {
	for i, ins := range e.mod.Instruments {
		e.w.patchU32(e.insPtrAt[i], uint32(e.w.len()))
		ins.encodeEmbed(e.w)
	}
}

func (e *moduleEncoder) encodeWavetables() {
	for i, wt := range e.mod.Wavetables {
		e.w.patchU32(e.wavePtrAt[i], uint32(e.w.len()))
		wt.encodeEmbed(e.w)
	}
}

func (e *moduleEncoder) encodeSamples() {
	for i, smp := range e.mod.Samples {
		e.w.patchU32(e.samplePtrAt[i], uint32(e.w.len()))
		smp.encodeEmbed(e.w)
	}
}

func (e *moduleEncoder) encodeSubsongs() {
	if e.version < 95 {
		return
	}
	for i, ss := range e.mod.SubSongs[1:] {
		e.w.patchU32(e.subsongPtrAt[i], uint32(e.w.len()))
		e.encodeSubsongBlock(ss)
	}
}

func (e *moduleEncoder) encodeSubsongBlock(ss *SubSong) {
	w := e.w
	sizeAt := w.beginBlock(subsongMagic)

	w.u8(ss.Timing.Timebase)
	w.u8(ss.Timing.Speed[0])
	w.u8(ss.Timing.Speed[1])
	w.u8(ss.Timing.ArpSpeed)
	w.f32(ss.Timing.ClockSpeed)
	w.u16(ss.PatternLength)
	lenOrders := ordersLen(ss)
	w.u16(uint16(lenOrders))
	w.u8(ss.Timing.Highlight[0])
	w.u8(ss.Timing.Highlight[1])
	w.u16(ss.Timing.VirtualTempo[0])
	w.u16(ss.Timing.VirtualTempo[1])
	w.cstr(ss.Name)
	w.cstr(ss.Comment)

	numChannels := e.mod.NumChannels()
	for ch := 0; ch < numChannels; ch++ {
		var row []uint8
		if ch < len(ss.Order) {
			row = ss.Order[ch]
		}
		writePadded(w, row, lenOrders)
	}
	writePadded(w, ss.EffectColumns, numChannels)

	for i := 0; i < numChannels; i++ {
		w.boolByte(displayAt(ss, i).Shown)
	}
	for i := 0; i < numChannels; i++ {
		w.boolByte(displayAt(ss, i).Collapsed)
	}
	for i := 0; i < numChannels; i++ {
		w.cstr(displayAt(ss, i).Name)
	}
	for i := 0; i < numChannels; i++ {
		w.cstr(displayAt(ss, i).Abbreviation)
	}

	if e.version >= 139 {
		w.u8(uint8(len(ss.SpeedPattern)))
		w.raw(ss.SpeedPattern)
	}

	w.endBlock(sizeAt)
}

func (e *moduleEncoder) encodePatterns() {
	for i, p := range e.mod.Patterns {
		e.w.patchU32(e.patternPtrAt[i], uint32(e.w.len()))
		p.encodeEmbed(e.w, e.version)
	}
}

func ordersLen(ss *SubSong) int {
	if len(ss.Order) == 0 {
		return 0
	}
	return len(ss.Order[0])
}

func writePadded(w *writer, b []uint8, n int) {
	for i := 0; i < n; i++ {
		if i < len(b) {
			w.u8(b[i])
		} else {
			w.u8(0)
		}
	}
}

func displayAt(ss *SubSong, i int) ChannelDisplayInfo {
	if i < len(ss.ChannelDisplay) {
		return ss.ChannelDisplay[i]
	}
	return ChannelDisplayInfo{}
}

func reservePtrTable(w *writer, n int) []int {
	at := make([]int, n)
	for i := range at {
		at[i] = w.reserveU32()
	}
	return at
}

// scaleLevel converts a float mixer level back to its signed byte form.
func scaleLevel(v float32, scale float32) int8 {
	n := int(math.Round(float64(v * scale)))
	if n > 127 {
		n = 127
	}
	if n < -128 {
		n = -128
	}
	return int8(n)
}
