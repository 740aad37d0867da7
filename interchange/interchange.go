// Package interchange flattens tracker patterns into a note-length sequence
// form. Row-per-tick pattern data is awkward to feed into sound engines and
// other sequenced formats; a list of notes with durations maps onto them far
// more directly.
package interchange

import (
	"math"

	"github.com/pkg/errors"

	"github.com/QEStudios/FurnaceKit/furnace"
)

// Note is the engine-neutral note value. Blank marks a cell with no new
// note; flattening folds it into whatever note came before.
type Note uint8

const (
	Blank Note = iota
	C
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
	Off
	OffRel
	Rel
	Echo
)

var noteNames = map[Note]string{
	Blank:  "---",
	C:      "C-",
	Cs:     "C#",
	D:      "D-",
	Ds:     "D#",
	E:      "E-",
	F:      "F-",
	Fs:     "F#",
	G:      "G-",
	Gs:     "G#",
	A:      "A-",
	As:     "A#",
	B:      "B-",
	Off:    "OFF",
	OffRel: "===",
	Rel:    "///",
	Echo:   "ECH",
}

func (n Note) String() string {
	if s, ok := noteNames[n]; ok {
		return s
	}
	return "?"
}

// NoteFromFurnace maps a tracker note onto its neutral value. Values outside
// the tracker's note range are an error.
func NoteFromFurnace(n furnace.Note) (Note, error) {
	switch n {
	case furnace.NoteNone:
		return Blank, nil
	case furnace.NoteC:
		return C, nil
	case furnace.NoteCs:
		return Cs, nil
	case furnace.NoteD:
		return D, nil
	case furnace.NoteDs:
		return Ds, nil
	case furnace.NoteE:
		return E, nil
	case furnace.NoteF:
		return F, nil
	case furnace.NoteFs:
		return Fs, nil
	case furnace.NoteG:
		return G, nil
	case furnace.NoteGs:
		return Gs, nil
	case furnace.NoteA:
		return A, nil
	case furnace.NoteAs:
		return As, nil
	case furnace.NoteB:
		return B, nil
	case furnace.NoteOff:
		return Off, nil
	case furnace.NoteOffRel:
		return OffRel, nil
	case furnace.NoteRel:
		return Rel, nil
	}
	return Blank, errors.Errorf("invalid note value %v", n)
}

// ToFurnace maps the neutral value back onto a tracker note. Values with no
// tracker equivalent come back as an empty cell.
func (n Note) ToFurnace() furnace.Note {
	switch n {
	case C:
		return furnace.NoteC
	case Cs:
		return furnace.NoteCs
	case D:
		return furnace.NoteD
	case Ds:
		return furnace.NoteDs
	case E:
		return furnace.NoteE
	case F:
		return furnace.NoteF
	case Fs:
		return furnace.NoteFs
	case G:
		return furnace.NoteG
	case Gs:
		return furnace.NoteGs
	case A:
		return furnace.NoteA
	case As:
		return furnace.NoteAs
	case B:
		return furnace.NoteB
	case Off:
		return furnace.NoteOff
	case OffRel:
		return furnace.NoteOffRel
	case Rel:
		return furnace.NoteRel
	}
	return furnace.NoteNone
}

// MIDINumber returns the MIDI note number for a pitch, with C-4 mapping to
// middle C (60). Blank cells and the off/release markers have no pitch.
func MIDINumber(n Note, octave int) (int, error) {
	if n < C || n > B {
		return 0, errors.Errorf("note %v has no pitch", n)
	}
	return (octave+1)*12 + int(n-C), nil
}

// Frequency returns the pitch in Hz given the module's A-4 tuning.
func Frequency(n Note, octave int, tuning float64) (float64, error) {
	m, err := MIDINumber(n, octave)
	if err != nil {
		return 0, err
	}
	return tuning * math.Pow(2, float64(m-69)/12), nil
}

// SequenceEntry is one note held for a number of rows. Volume, octave and
// instrument keep their tracker values, with -1 standing in for unset cells.
type SequenceEntry struct {
	Note       Note
	Length     int
	Volume     int
	Octave     int
	Instrument int
	Effects    []furnace.Effect
}

// FlattenPattern converts a pattern's rows into a sequence. A blank cell
// extends the entry before it; volume carries over from the last row that
// set one.
func FlattenPattern(p *furnace.Pattern) ([]SequenceEntry, error) {
	var seq []SequenceEntry
	lastVolume := -1
	for _, row := range p.Rows {
		note, err := NoteFromFurnace(row.Note)
		if err != nil {
			return nil, err
		}

		effects := row.Effects
		if len(effects) == 1 && effects[0].Code == 0xFFFF && effects[0].Value == 0xFFFF {
			effects = nil
		}

		volume := int(row.Volume)
		if row.Volume == 0xFFFF {
			volume = lastVolume
		} else {
			lastVolume = volume
		}

		instrument := int(row.Instrument)
		if row.Instrument == 0xFFFF {
			instrument = -1
		}

		if note == Blank && len(seq) > 0 {
			seq[len(seq)-1].Length++
			continue
		}
		seq = append(seq, SequenceEntry{
			Note:       note,
			Length:     1,
			Volume:     volume,
			Octave:     row.Octave,
			Instrument: instrument,
			Effects:    effects,
		})
	}
	return seq, nil
}
