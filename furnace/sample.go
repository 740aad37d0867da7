package furnace

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/pkg/errors"
)

const sampleMagic = "SMP2"

// Sample is one sample: raw encoded data plus playback settings. The codec
// does not interpret Data beyond its length; Depth says how to.
type Sample struct {
	Name       string
	CompatRate uint32
	C4Rate     uint32
	Depth      SampleType
	LoopDir    uint8
	Flags      uint8
	Flags2     uint8
	LoopStart  int32
	LoopEnd    int32

	// Per-chip ROM presence bits, carried through as-is.
	Presence [16]byte

	Data []byte
}

func (s *Sample) String() string {
	return fmt.Sprintf("sample %q (%d byte(s))", s.Name, len(s.Data))
}

func (s *Sample) decodeEmbed(r *reader) error {
	if string(r.bytes(4)) != sampleMagic {
		return errors.Wrapf(ErrBadMagic, "sample block at 0x%X", r.base)
	}
	size := r.u32()
	var b *reader
	if size > 0 {
		b = r.sub(int(size))
	} else {
		b = r.tail()
	}

	s.Name = b.cstr()
	length := b.u32()
	s.CompatRate = b.u32()
	s.C4Rate = b.u32()
	s.Depth = SampleType(b.u8())
	s.LoopDir = b.u8()
	s.Flags = b.u8()
	s.Flags2 = b.u8()
	s.LoopStart = b.s32()
	s.LoopEnd = b.s32()
	copy(s.Presence[:], b.bytes(16))
	if err := b.Err(); err != nil {
		return err
	}

	s.Data = append([]byte(nil), b.bytes(int(length))...)
	return b.Err()
}

func (s *Sample) encodeEmbed(w *writer) {
	sizeAt := w.beginBlock(sampleMagic)
	w.cstr(s.Name)
	w.u32(uint32(len(s.Data)))
	w.u32(s.CompatRate)
	w.u32(s.C4Rate)
	w.u8(uint8(s.Depth))
	w.u8(s.LoopDir)
	w.u8(s.Flags)
	w.u8(s.Flags2)
	w.s32(s.LoopStart)
	w.s32(s.LoopEnd)
	w.raw(s.Presence[:])
	w.raw(s.Data)
	w.endBlock(sizeAt)
}

// PCMBuffer converts the sample data to a mono PCM buffer, or nil if the
// sample is stored in a compressed encoding this package cannot expand.
func (s *Sample) PCMBuffer() *audio.IntBuffer {
	rate := int(s.C4Rate)
	if rate == 0 {
		rate = int(s.CompatRate)
	}
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: rate},
	}

	switch s.Depth {
	case SamplePCM16:
		buf.SourceBitDepth = 16
		buf.Data = make([]int, len(s.Data)/2)
		for i := range buf.Data {
			buf.Data[i] = int(int16(uint16(s.Data[2*i]) | uint16(s.Data[2*i+1])<<8))
		}
	case SamplePCM8:
		buf.SourceBitDepth = 8
		buf.Data = make([]int, len(s.Data))
		for i, v := range s.Data {
			buf.Data[i] = int(int8(v))
		}
	default:
		return nil
	}
	return buf
}
