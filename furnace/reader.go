package furnace

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// reader decodes little-endian values out of an in-memory buffer.
// A read past the end records ErrTruncated and yields zero values, so a run
// of sequential field reads only needs one error check at the end, the same
// way bufio.Scanner defers its Err check.
type reader struct {
	data []byte
	base int // absolute file offset of data[0]
	pos  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// Err returns the first error encountered while reading.
func (r *reader) Err() error { return r.err }

// offset returns the absolute file offset of the next read.
func (r *reader) offset() int { return r.base + r.pos }

// remaining returns how many unread bytes are left.
func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) fail(n int) {
	if r.err == nil {
		r.err = errors.Wrapf(ErrTruncated, "need %d byte(s) at 0x%X", n, r.offset())
	}
}

// bytes consumes the next n bytes and returns them as a view into the
// underlying buffer. Returns nil once the reader is in an error state.
func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail(n)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) skip(n int) {
	r.bytes(n)
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) s8() int8 {
	return int8(r.u8())
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) s16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) s32() int32 {
	return int32(r.u32())
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

// cstr consumes a zero-terminated UTF-8 string, without the terminator.
func (r *reader) cstr() string {
	if r.err != nil {
		return ""
	}
	start := r.pos
	for r.pos < len(r.data) {
		if r.data[r.pos] == 0 {
			s := string(r.data[start:r.pos])
			r.pos++
			return s
		}
		r.pos++
	}
	r.fail(1)
	return ""
}

// sub consumes the next n bytes and returns a bounded reader over them.
// Block payloads that declare their size are decoded through this, so an
// overlong field cannot run into the next block.
func (r *reader) sub(n int) *reader {
	off := r.offset()
	b := r.bytes(n)
	return &reader{data: b, base: off, err: r.err}
}

// tail returns an unbounded reader over everything left. Old format
// revisions wrote a zero block size, which means "read straight from the
// stream"; this is the equivalent.
func (r *reader) tail() *reader {
	return &reader{data: r.data[r.pos:], base: r.offset(), err: r.err}
}

// from seeks: it returns an unbounded reader over the same buffer starting
// at the given offset. Block pointers in the file are followed this way.
func (r *reader) from(off int) *reader {
	if off < 0 || off > len(r.data) {
		bad := &reader{data: nil, base: r.base + len(r.data)}
		bad.err = errors.Wrapf(ErrTruncated, "pointer 0x%X outside file", off)
		return bad
	}
	return &reader{data: r.data[off:], base: r.base + off}
}
