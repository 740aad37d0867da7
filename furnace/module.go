// Package furnace reads and writes Furnace tracker files: whole modules,
// standalone instruments and standalone wavetables. Decoding targets every
// format version the tracker ever shipped; encoding always emits the layout
// of the version stamped on the value being written.
package furnace

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
)

const (
	moduleFileMagic = "-Furnace module-"
	moduleInfoMagic = "INFO"
	chipFlagMagic   = "FLAG"
	subsongMagic    = "SONG"

	// maxChips is fixed by the file layout. The chip, volume, panning and
	// flag tables in the song info block are always this many entries.
	maxChips = 32

	// defaultModuleVersion is the format version stamped on new modules.
	defaultModuleVersion = 200
)

// Module is one Furnace song: global metadata, the chip lineup, one or more
// subsongs and the instruments, wavetables, samples and patterns they share.
type Module struct {
	Meta        ModuleMeta
	Chips       ChipList
	CompatFlags CompatFlags
	SubSongs    []*SubSong
	PatchBay    []PatchBay
	Instruments []*Instrument
	Wavetables  []*Wavetable
	Samples     []*Sample
	Patterns    []*Pattern
}

// NewModule returns an empty module with a single subsong and
// current-version defaults.
func NewModule() *Module {
	return &Module{
		Meta: ModuleMeta{
			Version: defaultModuleVersion,
			Tuning:  440,
		},
		Chips:       ChipList{MasterVolume: 2},
		CompatFlags: newCompatFlags(),
		SubSongs:    []*SubSong{newSubSong()},
	}
}

func (m *Module) String() string {
	return fmt.Sprintf("<Furnace ver. %d module %q by %s>", m.Meta.Version, m.Meta.Name, m.Meta.Author)
}

// NumChannels is the channel count summed across every chip in the module.
func (m *Module) NumChannels() int {
	n := 0
	for _, chip := range m.Chips.Chips {
		n += chip.Type.Channels()
	}
	return n
}

// Pattern finds the pattern with the given channel, index and subsong, or
// nil if the module holds none.
func (m *Module) Pattern(channel, index, subsong int) *Pattern {
	for _, p := range m.Patterns {
		if int(p.Channel) == channel && int(p.Index) == index && int(p.Subsong) == subsong {
			return p
		}
	}
	return nil
}

// LoadModule reads and decodes a module file.
func LoadModule(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeModule(data)
}

// DecodeModule decodes a module image, discarding any warnings. Use a
// Decoder directly to keep them.
func DecodeModule(data []byte) (*Module, error) {
	res, err := NewDecoder(data, nil).Decode()
	if err != nil {
		return nil, err
	}
	return res.Module, nil
}

// Decoder reads one module image. Create it with NewDecoder and call Decode
// once; a Decoder cannot be reused.
type Decoder struct {
	data     []byte
	logger   *log.Logger
	mod      *Module
	warnings []Warning
	used     bool

	r *reader

	infoPtr      uint32
	chipFlagPtrs []uint32
	insPtrs      []uint32
	wavePtrs     []uint32
	samplePtrs   []uint32
	patternPtrs  []uint32
	subsongPtrs  []uint32
}

// DecodeResult carries the decoded module along with any warnings raised
// while reading it.
type DecodeResult struct {
	Module   *Module
	Warnings []Warning
}

// NewDecoder creates a decoder for a module image. The image may be
// zlib-compressed; Decode inflates it as needed. A nil logger falls back to
// log.Default().
func NewDecoder(data []byte, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{
		data:   data,
		logger: logger,
		mod:    NewModule(),
	}
}

// Decode parses the module image.
func (d *Decoder) Decode() (*DecodeResult, error) {
	if d.used {
		return nil, fmt.Errorf("decoder already used")
	}
	d.used = true

	data, err := inflate(d.data)
	if err != nil {
		return nil, err
	}
	d.r = newReader(data)

	if err := d.decodeHeader(); err != nil {
		return nil, err
	}
	if err := d.decodeInfo(); err != nil {
		return nil, err
	}
	if err := d.decodeChipFlags(); err != nil {
		return nil, err
	}
	if err := d.decodeInstruments(); err != nil {
		return nil, err
	}
	if err := d.decodeWavetables(); err != nil {
		return nil, err
	}
	if err := d.decodeSamples(); err != nil {
		return nil, err
	}
	if err := d.decodeSubsongs(); err != nil {
		return nil, err
	}
	if err := d.decodePatterns(); err != nil {
		return nil, err
	}

	if len(d.warnings) > 0 {
		d.logger.Println("Warnings produced while decoding module:")
		for _, w := range d.warnings {
			d.logger.Printf("%v\n", w)
		}
	}
	return &DecodeResult{Module: d.mod, Warnings: d.warnings}, nil
}

// inflate undoes whole-file zlib compression when present. An uncompressed
// image starts with the module magic, so anything else is handed to zlib.
func inflate(data []byte) ([]byte, error) {
	if len(data) >= len(moduleFileMagic) && string(data[:len(moduleFileMagic)]) == moduleFileMagic {
		return data, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrBadMagic, "neither a module nor a zlib stream")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "inflating module")
	}
	return out, nil
}

func (d *Decoder) decodeHeader() error {
	r := d.r
	if string(r.bytes(len(moduleFileMagic))) != moduleFileMagic {
		return errors.Wrap(ErrBadMagic, "module header")
	}
	version := r.u16()
	r.skip(2)
	d.infoPtr = r.u32()
	r.skip(8)
	if err := r.Err(); err != nil {
		return err
	}
	d.logger.Printf("Furnace version %d detected", version)
	d.mod.Meta.Version = version
	d.mod.CompatFlags.applyVersionDefaults(version)
	return nil
}

func (d *Decoder) decodeInfo() error {
	mod := d.mod
	version := mod.Meta.Version

	r := d.r.from(int(d.infoPtr))
	if string(r.bytes(4)) != moduleInfoMagic {
		return errors.Wrap(ErrBadMagic, "song info block")
	}
	size := r.u32()
	var b *reader
	if version < 100 {
		// the size field predates consistent use, so older files get an
		// unbounded read
		b = r.tail()
	} else {
		b = r.sub(int(size))
	}
	if err := r.Err(); err != nil {
		return err
	}

	ss0 := mod.SubSongs[0]
	ss0.Timing.Timebase = b.u8() + 1
	ss0.Timing.Speed = [2]uint8{b.u8(), b.u8()}
	ss0.Timing.ArpSpeed = b.u8()
	ss0.Timing.ClockSpeed = b.f32()
	ss0.PatternLength = b.u16()
	lenOrders := int(b.u16())
	ss0.Timing.Highlight = [2]uint8{b.u8(), b.u8()}

	numIns := int(b.u16())
	numWaves := int(b.u16())
	numSamples := int(b.u16())
	numPatterns := int(b.u32())

	ids := b.bytes(maxChips)
	if err := b.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		if id == 0 {
			break
		}
		if !ChipType(id).isValid() {
			return errors.Wrapf(ErrUnknownEnum, "chip type 0x%02X", id)
		}
		mod.Chips.Chips = append(mod.Chips.Chips, newChipInfo(ChipType(id)))
	}

	// volume and panning tables are always full width, extra slots are
	// thrown away
	for i := 0; i < maxChips; i++ {
		vol := float32(b.s8()) / 64
		if i < len(mod.Chips.Chips) {
			mod.Chips.Chips[i].Volume = vol
		}
	}
	for i := 0; i < maxChips; i++ {
		pan := float32(b.s8()) / 128
		if i < len(mod.Chips.Chips) {
			mod.Chips.Chips[i].Panning = pan
		}
	}

	if version >= 119 {
		d.chipFlagPtrs = readPtrTable(b, maxChips)
	} else {
		for i := 0; i < maxChips; i++ {
			flag := b.u32()
			if b.err == nil && i < len(mod.Chips.Chips) {
				chip := mod.Chips.Chips[i]
				for k, v := range convertOldChipFlags(chip.Type, flag) {
					chip.Flags[k] = v
				}
			}
		}
	}

	mod.Meta.Name = b.cstr()
	mod.Meta.Author = b.cstr()
	mod.Meta.Tuning = b.f32()

	if err := readCompatFlags(b, &mod.CompatFlags, version, compatPhase1, compatPhase1Bytes); err != nil {
		return err
	}

	d.insPtrs = readPtrTable(b, numIns)
	d.wavePtrs = readPtrTable(b, numWaves)
	d.samplePtrs = readPtrTable(b, numSamples)
	d.patternPtrs = readPtrTable(b, numPatterns)

	numChannels := mod.NumChannels()

	ss0.Order = make([][]uint8, numChannels)
	for ch := 0; ch < numChannels; ch++ {
		ss0.Order[ch] = append([]uint8(nil), b.bytes(lenOrders)...)
	}
	ss0.EffectColumns = append([]uint8(nil), b.bytes(numChannels)...)

	ss0.ChannelDisplay = make([]ChannelDisplayInfo, numChannels)
	for i := range ss0.ChannelDisplay {
		ss0.ChannelDisplay[i].Shown = b.u8() != 0
	}
	for i := range ss0.ChannelDisplay {
		ss0.ChannelDisplay[i].Collapsed = b.u8() != 0
	}
	for i := range ss0.ChannelDisplay {
		ss0.ChannelDisplay[i].Name = b.cstr()
	}
	for i := range ss0.ChannelDisplay {
		ss0.ChannelDisplay[i].Abbreviation = b.cstr()
	}

	mod.Meta.Comment = b.cstr()

	if version >= 59 {
		mod.Chips.MasterVolume = b.f32()
	}

	if version >= 70 {
		if err := readCompatFlags(b, &mod.CompatFlags, version, compatPhase2, compatPhase2Bytes); err != nil {
			return err
		}
		if version >= 96 {
			ss0.Timing.VirtualTempo = [2]uint16{b.u16(), b.u16()}
		} else {
			b.skip(4)
		}
	}

	if version >= 95 {
		ss0.Name = b.cstr()
		ss0.Comment = b.cstr()
		numExtra := int(b.u8())
		b.skip(3)
		d.subsongPtrs = readPtrTable(b, numExtra)
	}

	if version >= 103 {
		mod.Meta.SysName = b.cstr()
		mod.Meta.Album = b.cstr()
		mod.Meta.NameJP = b.cstr()
		mod.Meta.AuthorJP = b.cstr()
		mod.Meta.SysNameJP = b.cstr()
		mod.Meta.AlbumJP = b.cstr()
	}

	if version >= 135 {
		// these take precedence over the byte-sized tables above
		for _, chip := range mod.Chips.Chips {
			chip.Volume = b.f32()
			chip.Panning = b.f32()
			chip.Surround = b.f32()
		}
		numConns := int(b.u32())
		for i := 0; i < numConns; i++ {
			dw := b.u16()
			sw := b.u16()
			if b.err != nil {
				break
			}
			conn := PatchBay{
				Dest:   InputPatch{Set: InputPortSet(dw >> 4), Port: int(dw & 0xF)},
				Source: OutputPatch{Set: OutputPortSet(sw >> 4), Port: int(sw & 0xF)},
			}
			if !conn.Dest.Set.isValid() || !conn.Source.Set.isValid() {
				return errors.Wrapf(ErrUnknownEnum, "port set in patchbay connection %d", i)
			}
			mod.PatchBay = append(mod.PatchBay, conn)
		}
	}

	if version >= 136 {
		mod.CompatFlags.AutoPatchbay = b.u8() != 0
	}

	if version >= 138 {
		if err := readCompatFlags(b, &mod.CompatFlags, version, compatPhase3, compatPhase3Bytes); err != nil {
			return err
		}
	}

	if version >= 139 {
		n := int(b.u8())
		if b.err == nil && n > 16 {
			return errors.Wrapf(ErrInvalidField, "speed pattern length %d", n)
		}
		ss0.SpeedPattern = append([]uint8(nil), b.bytes(n)...)
		b.skip(16 - n)

		numGrooves := int(b.u8())
		for i := 0; i < numGrooves; i++ {
			gl := int(b.u8())
			if b.err != nil {
				break
			}
			if gl > 16 {
				return errors.Wrapf(ErrInvalidField, "groove %d length %d", i, gl)
			}
			ss0.Grooves = append(ss0.Grooves, append([]uint8(nil), b.bytes(gl)...))
			b.skip(16 - gl)
		}
	}

	return b.Err()
}

// readPtrTable reads up to n block pointers, stopping early if the buffer
// runs out so a corrupt count cannot balloon the slice.
func readPtrTable(r *reader, n int) []uint32 {
	var ptrs []uint32
	for i := 0; i < n; i++ {
		v := r.u32()
		if r.err != nil {
			break
		}
		ptrs = append(ptrs, v)
	}
	return ptrs
}

func (d *Decoder) decodeChipFlags() error {
	if d.mod.Meta.Version < 119 {
		return nil
	}
	for i, chip := range d.mod.Chips.Chips {
		if i >= len(d.chipFlagPtrs) || d.chipFlagPtrs[i] == 0 {
			continue
		}
		r := d.r.from(int(d.chipFlagPtrs[i]))
		if string(r.bytes(4)) != chipFlagMagic {
			return errors.Wrapf(ErrBadMagic, "flag block for chip %d", i)
		}
		b := r.sub(int(r.u32()))
		if err := r.Err(); err != nil {
			return err
		}
		text := b.cstr()
		if err := b.Err(); err != nil {
			return err
		}
		for k, v := range parseChipFlagText(text) {
			chip.Flags[k] = v
		}
	}
	return nil
}

func (d *Decoder) decodeInstruments() error {
	for _, ptr := range d.insPtrs {
		if ptr == 0 {
			break
		}
		ins := NewInstrument()
		var err error
		if d.mod.Meta.Version < 127 {
			err = ins.decodeLegacyEmbed(d.r.from(int(ptr)))
		} else {
			err = ins.decodeFeaturalEmbed(d.r.from(int(ptr)))
		}
		if err != nil {
			return errors.Wrapf(err, "instrument %d", len(d.mod.Instruments))
		}
		d.mod.Instruments = append(d.mod.Instruments, ins)
		d.warnings = append(d.warnings, ins.Warnings...)
	}
	return nil
}

func (d *Decoder) decodeWavetables() error {
	for _, ptr := range d.wavePtrs {
		if ptr == 0 {
			break
		}
		wt := new(Wavetable)
		if err := wt.decodeEmbed(d.r.from(int(ptr))); err != nil {
			return errors.Wrapf(err, "wavetable %d", len(d.mod.Wavetables))
		}
		d.mod.Wavetables = append(d.mod.Wavetables, wt)
	}
	return nil
}

func (d *Decoder) decodeSamples() error {
	for _, ptr := range d.samplePtrs {
		if ptr == 0 {
			break
		}
		smp := new(Sample)
		if err := smp.decodeEmbed(d.r.from(int(ptr))); err != nil {
			return errors.Wrapf(err, "sample %d", len(d.mod.Samples))
		}
		d.mod.Samples = append(d.mod.Samples, smp)
	}
	return nil
}

func (d *Decoder) decodeSubsongs() error {
	for _, ptr := range d.subsongPtrs {
		if ptr == 0 {
			break
		}
		ss, err := d.decodeSubsongBlock(d.r.from(int(ptr)))
		if err != nil {
			return errors.Wrapf(err, "subsong %d", len(d.mod.SubSongs))
		}
		d.mod.SubSongs = append(d.mod.SubSongs, ss)
	}
	return nil
}

func (d *Decoder) decodeSubsongBlock(r *reader) (*SubSong, error) {
	if string(r.bytes(4)) != subsongMagic {
		return nil, errors.Wrapf(ErrBadMagic, "subsong block at 0x%X", r.base)
	}
	b := r.sub(int(r.u32()))
	if err := r.Err(); err != nil {
		return nil, err
	}

	// unlike the first subsong in the info block, the timebase here is
	// stored as is
	ss := new(SubSong)
	ss.Timing.Timebase = b.u8()
	ss.Timing.Speed = [2]uint8{b.u8(), b.u8()}
	ss.Timing.ArpSpeed = b.u8()
	ss.Timing.ClockSpeed = b.f32()
	ss.PatternLength = b.u16()
	lenOrders := int(b.u16())
	ss.Timing.Highlight = [2]uint8{b.u8(), b.u8()}
	ss.Timing.VirtualTempo = [2]uint16{b.u16(), b.u16()}
	ss.Name = b.cstr()
	ss.Comment = b.cstr()

	numChannels := d.mod.NumChannels()
	ss.Order = make([][]uint8, numChannels)
	for ch := 0; ch < numChannels; ch++ {
		ss.Order[ch] = append([]uint8(nil), b.bytes(lenOrders)...)
	}
	ss.EffectColumns = append([]uint8(nil), b.bytes(numChannels)...)

	ss.ChannelDisplay = make([]ChannelDisplayInfo, numChannels)
	for i := range ss.ChannelDisplay {
		ss.ChannelDisplay[i].Shown = b.u8() != 0
	}
	for i := range ss.ChannelDisplay {
		ss.ChannelDisplay[i].Collapsed = b.u8() != 0
	}
	for i := range ss.ChannelDisplay {
		ss.ChannelDisplay[i].Name = b.cstr()
	}
	for i := range ss.ChannelDisplay {
		ss.ChannelDisplay[i].Abbreviation = b.cstr()
	}

	if d.mod.Meta.Version >= 139 {
		n := int(b.u8())
		if b.err == nil && n > 16 {
			return nil, errors.Wrapf(ErrInvalidField, "speed pattern length %d", n)
		}
		ss.SpeedPattern = append([]uint8(nil), b.bytes(n)...)
	}
	return ss, b.Err()
}

func (d *Decoder) decodePatterns() error {
	for _, ptr := range d.patternPtrs {
		if ptr == 0 {
			break
		}
		p := new(Pattern)
		if err := p.decodeEmbed(d.r.from(int(ptr)), d.mod.Meta.Version, d.mod.SubSongs); err != nil {
			return errors.Wrapf(err, "pattern %d", len(d.mod.Patterns))
		}
		d.mod.Patterns = append(d.mod.Patterns, p)
		d.warnings = append(d.warnings, p.Warnings...)
	}
	return nil
}
