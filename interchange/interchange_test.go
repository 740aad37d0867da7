package interchange

import (
	"reflect"
	"testing"

	"github.com/QEStudios/FurnaceKit/furnace"
)

const unset = 0xFFFF

func TestNoteFromFurnace_CoversTheRange(t *testing.T) {
	cases := []struct {
		in   furnace.Note
		want Note
	}{
		{furnace.NoteNone, Blank},
		{furnace.NoteC, C},
		{furnace.NoteCs, Cs},
		{furnace.NoteFs, Fs},
		{furnace.NoteB, B},
		{furnace.NoteOff, Off},
		{furnace.NoteOffRel, OffRel},
		{furnace.NoteRel, Rel},
	}
	for _, tc := range cases {
		got, err := NoteFromFurnace(tc.in)
		if err != nil {
			t.Errorf("%v: unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%v: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	if _, err := NoteFromFurnace(furnace.Note(50)); err == nil {
		t.Error("expected an error for a note outside the tracker range")
	}
}

func TestNote_ToFurnaceInverts(t *testing.T) {
	for n := C; n <= Rel; n++ {
		back, err := NoteFromFurnace(n.ToFurnace())
		if err != nil {
			t.Errorf("%v: unexpected error: %v", n, err)
			continue
		}
		if back != n {
			t.Errorf("%v: came back as %v", n, back)
		}
	}
	if Echo.ToFurnace() != furnace.NoteNone {
		t.Errorf("expected Echo to map onto a blank cell, got %v", Echo.ToFurnace())
	}
}

func TestNote_Names(t *testing.T) {
	cases := map[Note]string{
		Blank:  "---",
		Cs:     "C#",
		A:      "A-",
		Off:    "OFF",
		OffRel: "===",
		Rel:    "///",
	}
	for n, want := range cases {
		if got := n.String(); got != want {
			t.Errorf("%v: expected %q, got %q", uint8(n), want, got)
		}
	}
}

func TestMIDINumber(t *testing.T) {
	cases := []struct {
		note   Note
		octave int
		want   int
	}{
		{C, 4, 60},
		{A, 4, 69},
		{Cs, 4, 61},
		{B, 3, 59},
		{C, -1, 0},
	}
	for _, tc := range cases {
		got, err := MIDINumber(tc.note, tc.octave)
		if err != nil {
			t.Errorf("%v octave %d: unexpected error: %v", tc.note, tc.octave, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%v octave %d: expected %d, got %d", tc.note, tc.octave, tc.want, got)
		}
	}
	if _, err := MIDINumber(Off, 4); err == nil {
		t.Error("expected an error for an unpitched note")
	}
}

func TestFrequency(t *testing.T) {
	got, err := Frequency(A, 4, 440)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 440 {
		t.Errorf("expected A-4 at exactly the tuning frequency, got %v", got)
	}
	got, err = Frequency(A, 5, 432)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 864 {
		t.Errorf("expected an octave to double the frequency, got %v", got)
	}
}

func emptyFurnaceRow() furnace.Row {
	return furnace.Row{
		Instrument: unset,
		Volume:     unset,
		Effects:    []furnace.Effect{{Code: unset, Value: unset}},
	}
}

func TestFlattenPattern(t *testing.T) {
	p := &furnace.Pattern{}
	for i := 0; i < 8; i++ {
		p.Rows = append(p.Rows, emptyFurnaceRow())
	}
	p.Rows[0].Note = furnace.NoteC
	p.Rows[0].Octave = 4
	p.Rows[0].Instrument = 2
	p.Rows[0].Volume = 0x40
	// rows 1..2 blank: C-4 rings for three rows total
	p.Rows[3].Note = furnace.NoteE
	p.Rows[3].Octave = 4
	p.Rows[3].Effects[0] = furnace.Effect{Code: 0x0A, Value: 3}
	p.Rows[4].Note = furnace.NoteOff

	seq, err := FlattenPattern(p)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}

	want := []SequenceEntry{
		{Note: C, Length: 3, Volume: 0x40, Octave: 4, Instrument: 2},
		{Note: E, Length: 1, Volume: 0x40, Octave: 4, Instrument: -1,
			Effects: []furnace.Effect{{Code: 0x0A, Value: 3}}},
		{Note: Off, Length: 4, Volume: 0x40, Octave: 0, Instrument: -1},
	}
	if !reflect.DeepEqual(seq, want) {
		t.Fatalf("unexpected sequence:\nwant %+v\ngot  %+v", want, seq)
	}
}

func TestFlattenPattern_LeadingBlanks(t *testing.T) {
	p := &furnace.Pattern{Rows: []furnace.Row{emptyFurnaceRow(), emptyFurnaceRow()}}
	p.Rows[1].Note = furnace.NoteA
	p.Rows[1].Octave = 3

	seq, err := FlattenPattern(p)
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	// a blank first row cannot extend anything, so it stands alone
	if len(seq) != 2 || seq[0].Note != Blank || seq[0].Length != 1 {
		t.Fatalf("unexpected leading entry: %+v", seq)
	}
	if seq[1].Note != A || seq[1].Octave != 3 || seq[1].Volume != -1 {
		t.Fatalf("unexpected second entry: %+v", seq[1])
	}
}

func TestFlattenPattern_BadNote(t *testing.T) {
	p := &furnace.Pattern{Rows: []furnace.Row{{Note: furnace.Note(77), Instrument: unset, Volume: unset}}}
	if _, err := FlattenPattern(p); err == nil {
		t.Fatal("expected an error for a note outside the tracker range")
	}
}
