package furnace

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	patternMagicOld = "PATR"
	patternMagicNew = "PATN"

	// First version that stores patterns in the packed row form.
	packedPatternVersion = 157
)

// Pattern is the pattern data of one channel. The (channel, index, subsong)
// triple identifies it; row count always equals the owning subsong's pattern
// length.
type Pattern struct {
	Channel uint16
	Index   uint16
	Subsong uint16
	Name    string
	Rows    []Row

	// Non-fatal oddities found while decoding.
	Warnings []Warning
}

func (p *Pattern) String() string {
	return fmt.Sprintf("pattern %d on channel %d (subsong %d)", p.Index, p.Channel, p.Subsong)
}

func (p *Pattern) warnf(off int, format string, args ...any) {
	p.Warnings = append(p.Warnings, Warning{Offset: off, Message: fmt.Sprintf(format, args...)})
}

// emptyRow builds a row with no note and every other cell unset.
func emptyRow(effectColumns int) Row {
	fx := make([]Effect, effectColumns)
	for i := range fx {
		fx[i] = Effect{Code: noValue, Value: noValue}
	}
	return Row{Instrument: noValue, Volume: noValue, Effects: fx}
}

func rowEmpty(row Row) bool {
	if row.Note != NoteNone || row.Instrument != noValue || row.Volume != noValue {
		return false
	}
	for _, fx := range row.Effects {
		if fx.Code != noValue || fx.Value != noValue {
			return false
		}
	}
	return true
}

// decodeEmbed decodes one pattern block in the form the module version
// dictates. The subsong list supplies the row count and the channel's effect
// column count.
func (p *Pattern) decodeEmbed(r *reader, version uint16, subsongs []*SubSong) error {
	if version < packedPatternVersion {
		return p.decodeFixedRows(r, version, subsongs)
	}
	return p.decodePackedRows(r, subsongs)
}

// lookupShape resolves the pattern's subsong and channel into a row count and
// effect column count.
func (p *Pattern) lookupShape(subsongs []*SubSong) (rows, fxCols int, err error) {
	if int(p.Subsong) >= len(subsongs) {
		return 0, 0, errors.Wrapf(ErrInvalidField, "pattern subsong %d out of range", p.Subsong)
	}
	ss := subsongs[p.Subsong]
	if int(p.Channel) >= len(ss.EffectColumns) {
		return 0, 0, errors.Wrapf(ErrInvalidField, "pattern channel %d out of range", p.Channel)
	}
	return int(ss.PatternLength), int(ss.EffectColumns[p.Channel]), nil
}

func (p *Pattern) decodeFixedRows(r *reader, version uint16, subsongs []*SubSong) error {
	if string(r.bytes(4)) != patternMagicOld {
		return errors.Wrapf(ErrBadMagic, "pattern block at 0x%X", r.base)
	}
	size := r.u32()
	var b *reader
	if size > 0 {
		b = r.sub(int(size))
	} else {
		b = r.tail()
	}

	p.Channel = b.u16()
	p.Index = b.u16()
	p.Subsong = b.u16()
	b.u16() // reserved
	if err := b.Err(); err != nil {
		return err
	}

	rows, fxCols, err := p.lookupShape(subsongs)
	if err != nil {
		return err
	}

	p.Rows = make([]Row, 0, rows)
	for i := 0; i < rows; i++ {
		at := b.offset()
		nv := b.u16()
		if b.err != nil {
			return b.err
		}
		if nv > 0xFF || !Note(nv).isValid() {
			return errors.Wrapf(ErrUnknownEnum, "note %d at 0x%X", nv, at)
		}
		row := Row{
			Note:       Note(nv),
			Octave:     int(b.u16()),
			Instrument: b.u16(),
			Volume:     b.u16(),
		}
		// C notes were stored with their octave one too low
		if row.Note == NoteC {
			row.Octave++
		}
		row.Effects = make([]Effect, fxCols)
		for c := range row.Effects {
			row.Effects[c] = Effect{Code: b.u16(), Value: b.u16()}
		}
		p.Rows = append(p.Rows, row)
	}

	if version >= 51 {
		p.Name = b.cstr()
	}
	return b.Err()
}

func (p *Pattern) decodePackedRows(r *reader, subsongs []*SubSong) error {
	if string(r.bytes(4)) != patternMagicNew {
		return errors.Wrapf(ErrBadMagic, "pattern block at 0x%X", r.base)
	}
	size := r.u32()
	var b *reader
	if size > 0 {
		b = r.sub(int(size))
	} else {
		b = r.tail()
	}

	p.Subsong = uint16(b.u8())
	p.Channel = uint16(b.u8())
	p.Index = b.u16()
	p.Name = b.cstr()
	if err := b.Err(); err != nil {
		return err
	}

	rows, fxCols, err := p.lookupShape(subsongs)
	if err != nil {
		return err
	}

	p.Rows = make([]Row, 0, rows)
	rowIdx := 0
	for rowIdx < rows {
		at := b.offset()
		flags := b.u8()
		if b.err != nil {
			return b.err
		}
		if flags == 0xFF {
			break
		}
		if flags&0x80 != 0 {
			skip := int(flags&0x7F) + 2
			if skip > rows-rowIdx {
				p.warnf(at, "skip run of %d rows crosses the pattern end", skip)
				skip = rows - rowIdx
			}
			for i := 0; i < skip; i++ {
				p.Rows = append(p.Rows, emptyRow(fxCols))
			}
			rowIdx += skip
			continue
		}

		var fxPresent, fxValPresent [8]bool
		notePresent := flags&0x01 != 0
		insPresent := flags&0x02 != 0
		volPresent := flags&0x04 != 0
		fxPresent[0] = flags&0x08 != 0
		fxValPresent[0] = flags&0x10 != 0

		if flags&0x20 != 0 {
			at := b.offset()
			f := b.u8()
			// bits 0 and 1 repeat the first flag byte; keep the first set
			if b.err == nil && (f&0x01 != 0) != fxPresent[0] {
				p.warnf(at, "effect presence bits disagree")
			}
			if b.err == nil && (f&0x02 != 0) != fxValPresent[0] {
				p.warnf(at, "effect value presence bits disagree")
			}
			fxPresent[1] = f&0x04 != 0
			fxValPresent[1] = f&0x08 != 0
			fxPresent[2] = f&0x10 != 0
			fxValPresent[2] = f&0x20 != 0
			fxPresent[3] = f&0x40 != 0
			fxValPresent[3] = f&0x80 != 0
		}
		if flags&0x40 != 0 {
			f := b.u8()
			fxPresent[4] = f&0x01 != 0
			fxValPresent[4] = f&0x02 != 0
			fxPresent[5] = f&0x04 != 0
			fxValPresent[5] = f&0x08 != 0
			fxPresent[6] = f&0x10 != 0
			fxValPresent[6] = f&0x20 != 0
			fxPresent[7] = f&0x40 != 0
			fxValPresent[7] = f&0x80 != 0
		}

		row := emptyRow(fxCols)
		if notePresent {
			raw := b.u8()
			switch raw {
			case 180:
				row.Note = NoteOff
			case 181:
				row.Note = NoteOffRel
			case 182:
				row.Note = NoteRel
			default:
				n := raw % 12
				if n == 0 {
					n = 12
				}
				row.Note = Note(n)
				row.Octave = -5 + int(raw)/12
			}
		}
		if insPresent {
			row.Instrument = uint16(b.u8())
		}
		if volPresent {
			row.Volume = uint16(b.u8())
		}
		for c := 0; c < fxCols && c < 8; c++ {
			if fxPresent[c] {
				row.Effects[c].Code = uint16(b.u8())
			}
			if fxValPresent[c] {
				row.Effects[c].Value = uint16(b.u8())
			}
		}
		p.Rows = append(p.Rows, row)
		rowIdx++
	}

	for ; rowIdx < rows; rowIdx++ {
		p.Rows = append(p.Rows, emptyRow(fxCols))
	}
	return b.Err()
}

// encodeEmbed writes the pattern block in the form the module version
// dictates.
func (p *Pattern) encodeEmbed(w *writer, version uint16) {
	if version < packedPatternVersion {
		p.encodeFixedRows(w, version)
	} else {
		p.encodePackedRows(w)
	}
}

func (p *Pattern) encodeFixedRows(w *writer, version uint16) {
	sizeAt := w.beginBlock(patternMagicOld)
	w.u16(p.Channel)
	w.u16(p.Index)
	w.u16(p.Subsong)
	w.u16(0)
	for _, row := range p.Rows {
		octave := row.Octave
		if row.Note == NoteC {
			octave--
		}
		w.u16(uint16(row.Note))
		w.u16(uint16(octave))
		w.u16(row.Instrument)
		w.u16(row.Volume)
		for _, fx := range row.Effects {
			w.u16(fx.Code)
			w.u16(fx.Value)
		}
	}
	if version >= 51 {
		w.cstr(p.Name)
	}
	w.endBlock(sizeAt)
}

func (p *Pattern) encodePackedRows(w *writer) {
	sizeAt := w.beginBlock(patternMagicNew)
	w.u8(uint8(p.Subsong))
	w.u8(uint8(p.Channel))
	w.u16(p.Index)
	w.cstr(p.Name)

	// rows past the last one with content are covered by the terminator
	live := len(p.Rows)
	for live > 0 && rowEmpty(p.Rows[live-1]) {
		live--
	}

	emptyRun := 0
	flushRun := func() {
		for emptyRun >= 2 {
			n := emptyRun
			if n > 129 {
				n = 129
			}
			w.u8(0x80 | uint8(n-2))
			emptyRun -= n
		}
		if emptyRun == 1 {
			w.u8(0)
			emptyRun = 0
		}
	}

	for _, row := range p.Rows[:live] {
		if rowEmpty(row) {
			emptyRun++
			continue
		}
		flushRun()
		p.encodePackedRow(w, row)
	}
	w.u8(0xFF)
	w.endBlock(sizeAt)
}

func (p *Pattern) encodePackedRow(w *writer, row Row) {
	var fxPresent, fxValPresent [8]bool
	for c, fx := range row.Effects {
		if c >= 8 {
			break
		}
		fxPresent[c] = fx.Code != noValue
		fxValPresent[c] = fx.Value != noValue
	}

	var flags uint8
	if row.Note != NoteNone {
		flags |= 0x01
	}
	if row.Instrument != noValue {
		flags |= 0x02
	}
	if row.Volume != noValue {
		flags |= 0x04
	}
	if fxPresent[0] {
		flags |= 0x08
	}
	if fxValPresent[0] {
		flags |= 0x10
	}

	var f2, f3 uint8
	if fxPresent[0] {
		f2 |= 0x01
	}
	if fxValPresent[0] {
		f2 |= 0x02
	}
	for c := 1; c < 4; c++ {
		if fxPresent[c] {
			f2 |= 1 << (c * 2)
		}
		if fxValPresent[c] {
			f2 |= 1 << (c*2 + 1)
		}
	}
	for c := 4; c < 8; c++ {
		if fxPresent[c] {
			f3 |= 1 << ((c - 4) * 2)
		}
		if fxValPresent[c] {
			f3 |= 1 << ((c-4)*2 + 1)
		}
	}
	if f2&^0x03 != 0 {
		flags |= 0x20
	}
	if f3 != 0 {
		flags |= 0x40
	}

	w.u8(flags)
	if flags&0x20 != 0 {
		w.u8(f2)
	}
	if flags&0x40 != 0 {
		w.u8(f3)
	}

	if row.Note != NoteNone {
		w.u8(packNoteByte(row.Note, row.Octave))
	}
	if row.Instrument != noValue {
		w.u8(uint8(row.Instrument))
	}
	if row.Volume != noValue {
		w.u8(uint8(row.Volume))
	}
	for c, fx := range row.Effects {
		if c >= 8 {
			break
		}
		if fxPresent[c] {
			w.u8(uint8(fx.Code))
		}
		if fxValPresent[c] {
			w.u8(uint8(fx.Value))
		}
	}
}

// packNoteByte is the inverse of the packed note form: octaves count from -5
// and a C belongs to the octave above its eleven neighbours.
func packNoteByte(n Note, octave int) uint8 {
	switch n {
	case NoteOff:
		return 180
	case NoteOffRel:
		return 181
	case NoteRel:
		return 182
	}
	return uint8((octave+5)*12 + int(n)%12)
}
