package furnace

import (
	"encoding/binary"
	"math"
)

// writer builds a little-endian byte stream in memory. Blocks that carry a
// size field reserve it first and patch it once the payload length is known.
type writer struct {
	buf []byte
}

func (w *writer) len() int { return len(w.buf) }

func (w *writer) raw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) zeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) s8(v int8) {
	w.u8(uint8(v))
}

func (w *writer) u16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *writer) s32(v int32) {
	w.u32(uint32(v))
}

func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

// cstr writes a zero-terminated UTF-8 string.
func (w *writer) cstr(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// boolByte writes 1 for true and 0 for false.
func (w *writer) boolByte(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// reserveU32 writes a placeholder and returns its offset for patchU32.
func (w *writer) reserveU32() int {
	at := len(w.buf)
	w.u32(0)
	return at
}

func (w *writer) patchU32(at int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[at:at+4], v)
}

// beginBlock writes a block signature followed by a reserved size field and
// returns the offset of that field.
func (w *writer) beginBlock(magic string) int {
	w.raw([]byte(magic))
	return w.reserveU32()
}

// endBlock patches the size field reserved by beginBlock with the number of
// bytes written since.
func (w *writer) endBlock(sizeAt int) {
	w.patchU32(sizeAt, uint32(len(w.buf)-(sizeAt+4)))
}
