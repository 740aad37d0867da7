package furnace

import (
	"fmt"
	"strings"
)

// noValue marks an empty instrument, volume or effect cell in a row.
const noValue = 0xFFFF

// ModuleMeta is module-wide metadata.
type ModuleMeta struct {
	Name     string
	NameJP   string
	Author   string
	AuthorJP string
	Album    string
	AlbumJP  string
	// Display name of the system, kept in sync by the tracker while the
	// auto system name compat flag is on.
	SysName   string
	SysNameJP string
	Comment   string
	Version   uint16
	Tuning    float32 // frequency of A-4
}

// TimingInfo is the timing setup of one subsong.
type TimingInfo struct {
	ArpSpeed     uint8
	ClockSpeed   float32 // tick rate in Hz
	Highlight    [2]uint8
	Speed        [2]uint8
	Timebase     uint8
	VirtualTempo [2]uint16
}

// ChipInfo is one configured chip in the module.
type ChipInfo struct {
	Type ChipType
	// Chip-specific settings. Values are bool, int, float64 or string.
	Flags    map[string]any
	Volume   float32
	Panning  float32
	Surround float32 // front/rear balance
}

func newChipInfo(t ChipType) *ChipInfo {
	return &ChipInfo{
		Type:   t,
		Flags:  make(map[string]any),
		Volume: 1,
	}
}

// ChipList is the set of chips used by the module plus the global mixer
// setting.
type ChipList struct {
	Chips        []*ChipInfo
	MasterVolume float32
}

// ChannelDisplayInfo controls how one channel appears in the pattern and
// order views.
type ChannelDisplayInfo struct {
	Name         string
	Abbreviation string
	Collapsed    bool
	Shown        bool
}

// InputPatch addresses an input connector on a patchbay device.
type InputPatch struct {
	Set  InputPortSet
	Port int
}

// OutputPatch addresses an output connector on a patchbay device.
type OutputPatch struct {
	Set  OutputPortSet
	Port int
}

// PatchBay is a single patchbay connection.
type PatchBay struct {
	Source OutputPatch
	Dest   InputPatch
}

// SubSong is one song inside the module. Each subsong has its own timing,
// order table and channel layout state; instruments, wavetables and samples
// are shared.
type SubSong struct {
	Name          string
	Comment       string
	Timing        TimingInfo
	PatternLength uint16

	// Order is the pattern order table, indexed by channel.
	Order [][]uint8

	// EffectColumns is the number of effect columns per channel.
	EffectColumns []uint8

	ChannelDisplay []ChannelDisplayInfo

	// SpeedPattern is a cycle of 1..16 speed values.
	SpeedPattern []uint8

	Grooves [][]uint8
}

func newSubSong() *SubSong {
	return &SubSong{
		Timing: TimingInfo{
			ArpSpeed:     1,
			ClockSpeed:   60,
			Highlight:    [2]uint8{4, 16},
			Timebase:     1,
			VirtualTempo: [2]uint16{150, 150},
		},
		PatternLength: 64,
		SpeedPattern:  []uint8{6},
	}
}

// Effect is one effect column cell. Code and Value are noValue when the
// half-cell is empty.
type Effect struct {
	Code  uint16
	Value uint16
}

// Row is one pattern row. Instrument and Volume are noValue when their cell
// is empty. Octave is only meaningful for pitch notes.
type Row struct {
	Note       Note
	Octave     int
	Instrument uint16
	Volume     uint16
	Effects    []Effect
}

func (r Row) String() string {
	var sb strings.Builder
	if r.Note >= NoteCs && r.Note <= NoteC {
		fmt.Fprintf(&sb, "%s%d", r.Note, r.Octave)
	} else {
		sb.WriteString(r.Note.String())
	}
	sb.WriteString(" " + hexCell(r.Instrument, "--"))
	sb.WriteString(" " + hexCell(r.Volume, "--"))
	for _, fx := range r.Effects {
		sb.WriteString(" " + hexCell(fx.Code, "--") + hexCell(fx.Value, "--"))
	}
	return sb.String()
}

// hexCell formats a cell value as two hex digits, or the given placeholder
// when the cell is empty.
func hexCell(v uint16, empty string) string {
	if v == noValue {
		return empty
	}
	return fmt.Sprintf("%02x", v)
}
