package furnace

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Chip flag values are typed by shape: true/false, bare digits, digits with
// a decimal point, anything else stays a string.
var (
	chipFlagIntRe   = regexp.MustCompile(`^\d+$`)
	chipFlagFloatRe = regexp.MustCompile(`^\d+\.\d+$`)
)

// parseChipFlagText decodes the body of a FLAG block, one key=value entry
// per whitespace-separated field. Fields without a '=' are dropped.
func parseChipFlagText(text string) map[string]any {
	flags := make(map[string]any)
	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch {
		case value == "true":
			flags[key] = true
		case value == "false":
			flags[key] = false
		case chipFlagIntRe.MatchString(value):
			n, err := strconv.Atoi(value)
			if err != nil {
				flags[key] = value
				continue
			}
			flags[key] = n
		case chipFlagFloatRe.MatchString(value):
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				flags[key] = value
				continue
			}
			flags[key] = n
		default:
			flags[key] = value
		}
	}
	return flags
}

// encodeChipFlagText is the inverse of parseChipFlagText. Keys are emitted
// in sorted order so output is deterministic.
func encodeChipFlagText(flags map[string]any) string {
	keys := make([]string, 0, len(flags))
	for k := range flags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(formatChipFlagValue(flags[k]))
	}
	return sb.String()
}

func formatChipFlagValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		// keep the decimal point so the value reads back as a float
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case string:
		return x
	default:
		return ""
	}
}

func flagBit(flag uint32, n uint) bool {
	return (flag>>n)&1 != 0
}

func flagIntValue(flags map[string]any, key string) uint32 {
	if v, ok := flags[key].(int); ok {
		return uint32(v)
	}
	return 0
}

func flagBoolValue(flags map[string]any, key string) uint32 {
	if v, ok := flags[key].(bool); ok && v {
		return 1
	}
	return 0
}

// convertOldChipFlags unpacks a pre-v119 32-bit chip flag word into the
// key/value form used from v119 on. Bit layouts differ per chip; chips
// without a known layout convert to an empty set.
func convertOldChipFlags(chip ChipType, flag uint32) map[string]any {
	n := make(map[string]any)

	switch chip {
	case ChipGenesis, ChipGenesisEx,
		ChipYM2612, ChipYM2612Ex, ChipYM2612Plus, ChipYM2612PlusEx:
		n["clockSel"] = int(flag & 0x7FFFFFFF)
		n["ladderEffect"] = flagBit(flag, 31)
	case ChipSMS:
		cs := int(flag & 0xFF03)
		if cs > 0x100 {
			cs -= 252
		}
		n["clockSel"] = cs
		ct := int(flag&0xCC) / 4
		if ct >= 32 {
			ct -= 24
		} else if ct >= 16 {
			ct -= 12
		}
		n["chipType"] = ct
		n["noPhaseReset"] = int(flag >> 4)
	case ChipGB:
		n["chipType"] = int(flag & 3)
		n["noAntiClick"] = flagBit(flag, 3)
	case ChipPCE:
		n["clockSel"] = int(flag & 1)
		n["chipType"] = int((flag >> 2) & 1)
		n["noAntiClick"] = flagBit(flag, 3)
	case ChipNES, ChipVRC6, ChipFDS, ChipMMC5:
		n["clockSel"] = int(flag & 3)
	case ChipC64R8580, ChipC64R6581:
		n["clockSel"] = int(flag & 15)
	case ChipSegaArcade, ChipYM2151, ChipYMZ280B,
		ChipNeoGeoCD, ChipNeoGeo, ChipNeoGeoEx, ChipNeoGeoCDEx,
		ChipYM2610B, ChipYM2610BEx,
		ChipOPL, ChipOPLDrums, ChipOPL2, ChipOPL2Drums,
		ChipOPL3, ChipOPL3Drums, ChipOPL4, ChipOPL4Drums,
		ChipY8950, ChipY8950Drums:
		n["clockSel"] = int(flag & 0xFF)
	case ChipAY38910:
		n["clockSel"] = int(flag & 15)
		n["chipType"] = int((flag >> 4) & 3)
		n["stereo"] = flagBit(flag, 6)
		n["halfClock"] = flagBit(flag, 7)
		n["stereoSep"] = int((flag >> 8) & 0xFF)
	case ChipAmiga:
		n["clockSel"] = int(flag & 1)
		n["chipType"] = int((flag >> 1) & 1)
		n["bypassLimits"] = flagBit(flag, 2)
		n["stereoSep"] = int((flag >> 8) & 0x7F)
	case ChipTIA:
		n["clockSel"] = int(flag & 1)
		n["mixingType"] = int((flag >> 1) & 3)
	case ChipVIC20, ChipZXBeeper:
		n["clockSel"] = int(flag & 1)
	case ChipSNES:
		n["volScaleL"] = int(flag & 0x7F)
		n["volScaleR"] = int((flag >> 8) & 0x7F)
	case ChipOPLL, ChipOPLLDrums:
		n["clockSel"] = int(flag & 15)
		n["patchSet"] = int(flag >> 4)
	case ChipN163:
		n["clockSel"] = int(flag & 15)
		n["channels"] = int((flag >> 4) & 7)
		n["multiplex"] = flagBit(flag, 7)
	case ChipOPN, ChipYM2203Ex:
		n["clockSel"] = int(flag & 0x1F)
		n["prescale"] = int((flag >> 5) & 3)
	case ChipPCSpeaker:
		n["speakerType"] = int(flag & 3)
	case ChipRF5C68:
		n["clockSel"] = int(flag & 15)
		n["chipType"] = int(flag >> 4)
	case ChipSAA1099, ChipOPZ:
		n["clockSel"] = int(flag & 3)
	case ChipAY8930:
		n["clockSel"] = int(flag & 15)
		n["stereo"] = flagBit(flag, 6)
		n["halfClock"] = flagBit(flag, 7)
		n["stereoSep"] = int((flag >> 8) & 0xFF)
	case ChipVRC7, ChipSCC, ChipSCCPlus, ChipMSM6258:
		n["clockSel"] = int(flag & 3)
	case ChipMSM6295:
		n["clockSel"] = int(flag & 0x7F)
		n["rateSel"] = flagBit(flag, 7)
	case ChipSeta:
		n["clockSel"] = int(flag & 15)
		n["stereo"] = flagBit(flag, 4)
	case ChipES5506:
		n["channels"] = int(flag & 0x1F)
	case ChipTSU:
		n["clockSel"] = int(flag & 1)
		n["echo"] = flagBit(flag, 2)
		n["swapEcho"] = flagBit(flag, 3)
		n["sampleMemSize"] = int((flag >> 4) & 1)
		n["pdm"] = flagBit(flag, 5)
		n["echoDelay"] = int((flag >> 8) & 0x3F)
		n["echoFeedback"] = int((flag >> 16) & 0xF)
		n["echoResolution"] = int((flag >> 20) & 0xF)
		n["echoVol"] = int((flag >> 24) & 0xFF)
	case ChipPCMDAC:
		n["rate"] = int(flag&0xFFFF) + 1
		n["outDepth"] = int((flag >> 16) & 0xF)
		n["stereo"] = flagBit(flag, 20)
	case ChipQSound:
		n["echoDelay"] = int(flag & 0x1FFF)
		n["echoFeedback"] = int((flag >> 16) & 0xFF)
	}
	return n
}

// encodeOldChipFlags packs the key/value flag form back into a pre-v119
// flag word. It inverts convertOldChipFlags: flags decoded from a word
// repack to that word, and keys a chip's layout has no place for are left
// out.
func encodeOldChipFlags(chip ChipType, flags map[string]any) uint32 {
	gi := func(key string) uint32 { return flagIntValue(flags, key) }
	gb := func(key string) uint32 { return flagBoolValue(flags, key) }

	switch chip {
	case ChipGenesis, ChipGenesisEx,
		ChipYM2612, ChipYM2612Ex, ChipYM2612Plus, ChipYM2612PlusEx:
		return gi("clockSel")&0x7FFFFFFF | gb("ladderEffect")<<31
	case ChipSMS:
		// clockSel and chipType carry transformed copies of bits the
		// noPhaseReset field already holds whole, so only the low nibble
		// comes from them
		return gi("noPhaseReset")<<4 | gi("chipType")&3<<2 | gi("clockSel")&3
	case ChipGB:
		return gi("chipType")&3 | gb("noAntiClick")<<3
	case ChipPCE:
		return gi("clockSel")&1 | gi("chipType")&1<<2 | gb("noAntiClick")<<3
	case ChipNES, ChipVRC6, ChipFDS, ChipMMC5:
		return gi("clockSel") & 3
	case ChipC64R8580, ChipC64R6581:
		return gi("clockSel") & 15
	case ChipSegaArcade, ChipYM2151, ChipYMZ280B,
		ChipNeoGeoCD, ChipNeoGeo, ChipNeoGeoEx, ChipNeoGeoCDEx,
		ChipYM2610B, ChipYM2610BEx,
		ChipOPL, ChipOPLDrums, ChipOPL2, ChipOPL2Drums,
		ChipOPL3, ChipOPL3Drums, ChipOPL4, ChipOPL4Drums,
		ChipY8950, ChipY8950Drums:
		return gi("clockSel") & 0xFF
	case ChipAY38910:
		return gi("clockSel")&15 | gi("chipType")&3<<4 |
			gb("stereo")<<6 | gb("halfClock")<<7 | gi("stereoSep")&0xFF<<8
	case ChipAmiga:
		return gi("clockSel")&1 | gi("chipType")&1<<1 |
			gb("bypassLimits")<<2 | gi("stereoSep")&0x7F<<8
	case ChipTIA:
		return gi("clockSel")&1 | gi("mixingType")&3<<1
	case ChipVIC20, ChipZXBeeper:
		return gi("clockSel") & 1
	case ChipSNES:
		return gi("volScaleL")&0x7F | gi("volScaleR")&0x7F<<8
	case ChipOPLL, ChipOPLLDrums:
		return gi("clockSel")&15 | gi("patchSet")<<4
	case ChipN163:
		return gi("clockSel")&15 | gi("channels")&7<<4 | gb("multiplex")<<7
	case ChipOPN, ChipYM2203Ex:
		return gi("clockSel")&0x1F | gi("prescale")&3<<5
	case ChipPCSpeaker:
		return gi("speakerType") & 3
	case ChipRF5C68:
		return gi("clockSel")&15 | gi("chipType")<<4
	case ChipSAA1099, ChipOPZ:
		return gi("clockSel") & 3
	case ChipAY8930:
		return gi("clockSel")&15 | gb("stereo")<<6 |
			gb("halfClock")<<7 | gi("stereoSep")&0xFF<<8
	case ChipVRC7, ChipSCC, ChipSCCPlus, ChipMSM6258:
		return gi("clockSel") & 3
	case ChipMSM6295:
		return gi("clockSel")&0x7F | gb("rateSel")<<7
	case ChipSeta:
		return gi("clockSel")&15 | gb("stereo")<<4
	case ChipES5506:
		return gi("channels") & 0x1F
	case ChipTSU:
		return gi("clockSel")&1 | gb("echo")<<2 | gb("swapEcho")<<3 |
			gi("sampleMemSize")&1<<4 | gb("pdm")<<5 |
			gi("echoDelay")&0x3F<<8 | gi("echoFeedback")&0xF<<16 |
			gi("echoResolution")&0xF<<20 | gi("echoVol")&0xFF<<24
	case ChipPCMDAC:
		return (gi("rate")-1)&0xFFFF | gi("outDepth")&0xF<<16 | gb("stereo")<<20
	case ChipQSound:
		return gi("echoDelay")&0x1FFF | gi("echoFeedback")&0xFF<<16
	}
	return 0
}
