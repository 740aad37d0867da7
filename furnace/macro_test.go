package furnace

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

// Each macro's values pick the narrowest word size that fits.
func TestMacroSet_WordSizes(t *testing.T) {
	want := []SingleMacro[MacroCode]{
		{Kind: MacroVol, Speed: 1, Data: []MacroItem{MacroValue(0), MacroValue(255)}},
		{Kind: MacroArp, Speed: 1, Data: []MacroItem{MacroValue(-128), MacroValue(127)}},
		{Kind: MacroDuty, Speed: 1, Data: []MacroItem{MacroValue(-300), MacroValue(0x7FFF)}},
		{Kind: MacroPitch, Speed: 1, Data: []MacroItem{MacroValue(70000), MacroValue(-70000)}},
	}

	w := &writer{}
	encodeMacroSet(w, want)

	got, err := decodeMacroSet[MacroCode](newReader(w.buf))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("macros changed across a write and read cycle:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestMacroSet_LoopAndReleaseMarkers(t *testing.T) {
	want := []SingleMacro[MacroCode]{
		{Kind: MacroVol, Speed: 1, Data: []MacroItem{
			MacroValue(15), MacroLoop{}, MacroValue(12), MacroRelease{}, MacroValue(0),
		}},
	}

	w := &writer{}
	encodeMacroSet(w, want)

	got, err := decodeMacroSet[MacroCode](newReader(w.buf))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(got[0].Data, want[0].Data) {
		t.Fatalf("expected %v, got %v", want[0].Data, got[0].Data)
	}
	if vals := got[0].Values(); !reflect.DeepEqual(vals, []int{15, 12, 0}) {
		t.Fatalf("expected values [15 12 0], got %v", vals)
	}
}

func TestMacroSet_TerminatorStopsDecode(t *testing.T) {
	w := &writer{}
	w.u16(macroHeaderSize)
	w.u8(macroSetEnd)
	w.u8(0x99) // data past the set

	r := newReader(w.buf)
	got, err := decodeMacroSet[MacroCode](r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no macros, got %d", len(got))
	}
	if b := r.u8(); b != 0x99 {
		t.Fatalf("expected decode to stop at the terminator, next byte 0x%02X", b)
	}
}

func TestMacroSet_RejectsUnknownCode(t *testing.T) {
	w := &writer{}
	w.u16(macroHeaderSize)
	w.u8(200) // not a macro code

	_, err := decodeMacroSet[MacroCode](newReader(w.buf))
	if !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}
}

func TestInsertMacroItem_PastEndAppends(t *testing.T) {
	items := []MacroItem{MacroValue(1), MacroValue(2)}
	got := insertMacroItem(items, 5, MacroLoop{})
	want := []MacroItem{MacroValue(1), MacroValue(2), MacroLoop{}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
