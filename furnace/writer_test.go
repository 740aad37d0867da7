package furnace

import (
	"bytes"
	"testing"
)

func TestWriter_FieldEncoding(t *testing.T) {
	w := &writer{}
	w.u8(0x2A)
	w.s8(-2)
	w.u16(0x1234)
	w.u32(0x12345678)
	w.f32(1.0)
	w.cstr("hi")
	w.boolByte(true)
	w.boolByte(false)
	want := []byte{
		0x2A,
		0xFE,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0x00, 0x00, 0x80, 0x3F,
		'h', 'i', 0x00,
		0x01,
		0x00,
	}
	if !bytes.Equal(w.buf, want) {
		t.Fatalf("encoded % X, want % X", w.buf, want)
	}
}

func TestWriter_BlockSizePatch(t *testing.T) {
	w := &writer{}
	sizeAt := w.beginBlock("TEST")
	w.u32(0xDDCCBBAA)
	w.endBlock(sizeAt)
	want := []byte{
		'T', 'E', 'S', 'T',
		0x04, 0x00, 0x00, 0x00, // payload size
		0xAA, 0xBB, 0xCC, 0xDD,
	}
	if !bytes.Equal(w.buf, want) {
		t.Fatalf("encoded % X, want % X", w.buf, want)
	}
}

func TestWriter_ReserveAndPatch(t *testing.T) {
	w := &writer{}
	at := w.reserveU32()
	w.u8(9)
	w.patchU32(at, uint32(w.len()))
	want := []byte{0x05, 0x00, 0x00, 0x00, 0x09}
	if !bytes.Equal(w.buf, want) {
		t.Fatalf("encoded % X, want % X", w.buf, want)
	}
}
