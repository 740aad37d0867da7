package furnace

import (
	"github.com/pkg/errors"
)

// MacroItem is one step in a macro sequence: either a plain MacroValue or
// one of the two position markers. Loop and release points live inside the
// sequence itself instead of as out-of-band indices.
type MacroItem interface {
	isMacroItem()
}

// MacroValue is a plain numeric macro step.
type MacroValue int

// MacroLoop marks the position the macro jumps back to.
type MacroLoop struct{}

// MacroRelease marks the position the macro resumes from on note release.
type MacroRelease struct{}

func (MacroValue) isMacroItem()   {}
func (MacroLoop) isMacroItem()    {}
func (MacroRelease) isMacroItem() {}

func (MacroLoop) String() string    { return "loop" }
func (MacroRelease) String() string { return "release" }

// insertMacroItem inserts it at position at, appending if at is past the
// end. Marker positions in the file may point one past the data.
func insertMacroItem(items []MacroItem, at int, it MacroItem) []MacroItem {
	if at > len(items) {
		at = len(items)
	}
	items = append(items, nil)
	copy(items[at+1:], items[at:])
	items[at] = it
	return items
}

// macroTarget is either of the two macro code namespaces. Plain macro sets
// use MacroCode, per-operator sets (O1-O4) use OpMacroCode; the containing
// feature decides which one applies.
type macroTarget interface {
	MacroCode | OpMacroCode
	isValid() bool
}

// SingleMacro is one macro sequence within a macro set feature.
type SingleMacro[C macroTarget] struct {
	Kind  C
	Mode  uint8
	Type  MacroType
	Delay uint8
	Speed uint8
	Open  bool
	Data  []MacroItem
}

func newMacro[C macroTarget](kind C) SingleMacro[C] {
	return SingleMacro[C]{Kind: kind, Speed: 1}
}

// Values returns just the numeric steps of the macro, markers skipped.
func (m SingleMacro[C]) Values() []int {
	vals := make([]int, 0, len(m.Data))
	for _, it := range m.Data {
		if v, ok := it.(MacroValue); ok {
			vals = append(vals, int(v))
		}
	}
	return vals
}

// macroSetEnd terminates a macro set in both code namespaces.
const macroSetEnd = 0xFF

// macroHeaderSize is the per-macro header length written since the macro
// set format got a header size field.
const macroHeaderSize = 8

func readMacroWord(r *reader, sizeSel byte) int {
	switch sizeSel & 3 {
	case 0:
		return int(r.u8())
	case 1:
		return int(r.s8())
	case 2:
		return int(r.s16())
	default:
		return int(r.s32())
	}
}

// decodeMacroSet reads macros until the terminator byte. Loop and release
// indices from the header turn into markers inside the data.
func decodeMacroSet[C macroTarget](r *reader) ([]SingleMacro[C], error) {
	var macros []SingleMacro[C]
	r.u16() // header size
	for {
		at := r.offset()
		code := r.u8()
		if r.err != nil {
			return nil, r.err
		}
		if code == macroSetEnd {
			return macros, nil
		}
		kind := C(code)
		if !kind.isValid() {
			return nil, errors.Wrapf(ErrUnknownEnum, "macro code %d at 0x%X", code, at)
		}

		m := SingleMacro[C]{Kind: kind}
		length := r.u8()
		loop := r.u8()
		release := r.u8()
		m.Mode = r.u8()
		flags := r.u8()
		sizeSel := flags >> 6 & 3
		typ := MacroType(flags >> 1 & 3)
		if !typ.isValid() {
			return nil, errors.Wrapf(ErrUnknownEnum, "macro type %d at 0x%X", flags>>1&3, at)
		}
		m.Type = typ
		m.Open = flags&1 != 0
		m.Delay = r.u8()
		m.Speed = r.u8()
		if r.err != nil {
			return nil, r.err
		}

		data := make([]MacroItem, 0, length)
		for i := 0; i < int(length); i++ {
			data = append(data, MacroValue(readMacroWord(r, sizeSel)))
		}
		if r.err != nil {
			return nil, r.err
		}
		if loop != macroSetEnd {
			data = insertMacroItem(data, int(loop), MacroLoop{})
		}
		if release != macroSetEnd {
			data = insertMacroItem(data, int(release), MacroRelease{})
		}
		m.Data = data

		macros = append(macros, m)
	}
}

// splitMacroData is the inverse of the marker insertion on decode: it
// recovers the numeric values and the on-disk loop and release indices.
func splitMacroData(data []MacroItem) (values []int, loop, release int) {
	release = macroSetEnd
	for i, it := range data {
		if _, ok := it.(MacroRelease); ok {
			release = i
			break
		}
	}

	loop = macroSetEnd
	values = make([]int, 0, len(data))
	idx := 0
	for _, it := range data {
		switch v := it.(type) {
		case MacroValue:
			values = append(values, int(v))
			idx++
		case MacroLoop:
			loop = idx
			idx++
		case MacroRelease:
			// position already taken from the full sequence
		}
	}
	return values, loop, release
}

// pickMacroWordSize returns the smallest word size selector that can hold
// every value.
func pickMacroWordSize(values []int) byte {
	sel := byte(0)
	for _, v := range values {
		switch {
		case v >= 0 && v <= 0xFF:
		case v >= -0x80 && v <= 0x7F:
			if sel < 1 {
				sel = 1
			}
		case v >= -0x8000 && v <= 0x7FFF:
			if sel < 2 {
				sel = 2
			}
		default:
			return 3
		}
	}
	return sel
}

func writeMacroWord(w *writer, sizeSel byte, v int) {
	switch sizeSel & 3 {
	case 0:
		w.u8(uint8(v))
	case 1:
		w.s8(int8(v))
	case 2:
		w.u16(uint16(v))
	default:
		w.u32(uint32(v))
	}
}

// encodeMacroSet writes a macro set feature body, terminator included.
func encodeMacroSet[C macroTarget](w *writer, macros []SingleMacro[C]) {
	w.u16(macroHeaderSize)
	for _, m := range macros {
		values, loop, release := splitMacroData(m.Data)
		sizeSel := pickMacroWordSize(values)

		flags := sizeSel << 6
		flags |= byte(m.Type) << 1 & 6
		if m.Open {
			flags |= 1
		}

		w.u8(byte(m.Kind))
		w.u8(uint8(len(values)))
		w.u8(uint8(loop))
		w.u8(uint8(release))
		w.u8(m.Mode)
		w.u8(flags)
		w.u8(m.Delay)
		w.u8(m.Speed)
		for _, v := range values {
			writeMacroWord(w, sizeSel, v)
		}
	}
	w.u8(macroSetEnd)
}
