package furnace

import (
	"reflect"
	"testing"
)

func TestParseChipFlagText_Typing(t *testing.T) {
	text := "clockSel=3\nladderEffect=true\nnoExtMacro=false\ntuning=440.5\ncustomClock=off\nnoiseWithoutValue"

	got := parseChipFlagText(text)
	want := map[string]any{
		"clockSel":     3,
		"ladderEffect": true,
		"noExtMacro":   false,
		"tuning":       440.5,
		"customClock":  "off",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEncodeChipFlagText_SortedAndTyped(t *testing.T) {
	flags := map[string]any{
		"rate":      2.0,
		"clockSel":  7,
		"stereo":    true,
		"chipModel": "YM3438",
	}

	got := encodeChipFlagText(flags)
	want := "chipModel=YM3438\nclockSel=7\nrate=2.0\nstereo=true"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	back := parseChipFlagText(got)
	if !reflect.DeepEqual(back, flags) {
		t.Fatalf("flags changed across an encode and parse cycle: %v", back)
	}
}

func TestConvertOldChipFlags_Genesis(t *testing.T) {
	flags := convertOldChipFlags(ChipGenesis, 0x80000003)

	if got := flags["clockSel"]; got != 3 {
		t.Errorf("expected clockSel 3, got %v", got)
	}
	if got := flags["ladderEffect"]; got != true {
		t.Errorf("expected ladderEffect true, got %v", got)
	}
}

func TestConvertOldChipFlags_UnknownLayout(t *testing.T) {
	if flags := convertOldChipFlags(ChipPOKEY, 0xFFFF); len(flags) != 0 {
		t.Fatalf("expected no flags for a chip without a layout, got %v", flags)
	}
	if word := encodeOldChipFlags(ChipPOKEY, map[string]any{"clockSel": 1}); word != 0 {
		t.Fatalf("expected flag word 0, got 0x%X", word)
	}
}

// Repacking the converted form must reproduce the original flag word.
func TestOldChipFlags_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		chip ChipType
		word uint32
	}{
		{"Genesis", ChipGenesis, 0x80000003},
		{"SMS", ChipSMS, 0x1F7},
		{"GameBoy", ChipGB, 0xB},
		{"PCEngine", ChipPCE, 0xD},
		{"NES", ChipNES, 0x2},
		{"C64", ChipC64R6581, 0xE},
		{"Arcade", ChipSegaArcade, 0xBF},
		{"AY38910", ChipAY38910, 0x34D7},
		{"Amiga", ChipAmiga, 0x5B07},
		{"TIA", ChipTIA, 0x7},
		{"SNES", ChipSNES, 0x347F},
		{"OPLL", ChipOPLL, 0x9F},
		{"N163", ChipN163, 0xDF},
		{"OPN", ChipOPN, 0x7F},
		{"RF5C68", ChipRF5C68, 0x2F},
		{"AY8930", ChipAY8930, 0x55CF},
		{"MSM6295", ChipMSM6295, 0xFF},
		{"Seta", ChipSeta, 0x1F},
		{"ES5506", ChipES5506, 0x1F},
		{"TSU", ChipTSU, 0xC35B2A3D},
		{"PCMDAC", ChipPCMDAC, 0x1F7CFF},
		{"QSound", ChipQSound, 0xFF1FFF},
	}

	for _, tc := range cases {
		flags := convertOldChipFlags(tc.chip, tc.word)
		if got := encodeOldChipFlags(tc.chip, flags); got != tc.word {
			t.Errorf("%s: expected 0x%X, got 0x%X (flags %v)", tc.name, tc.word, got, flags)
		}
	}
}
