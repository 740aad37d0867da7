package furnace

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

const (
	waveFileMagic  = "-Furnace waveta-"
	waveEmbedMagic = "WAVE"
)

// Wavetable is one wavetable: a name plus Width() amplitude steps that may
// reach up to Height-1.
type Wavetable struct {
	Name   string
	Height uint32
	Data   []uint32
}

// Width is the number of amplitude steps.
func (wt *Wavetable) Width() int { return len(wt.Data) }

func (wt *Wavetable) String() string {
	return fmt.Sprintf("wavetable %q (%dx%d)", wt.Name, wt.Width(), wt.Height)
}

// LoadWavetable reads a standalone wavetable file.
func LoadWavetable(path string) (*Wavetable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeWavetable(data)
}

// DecodeWavetable decodes a standalone wavetable file image.
func DecodeWavetable(data []byte) (*Wavetable, error) {
	r := newReader(data)
	if len(data) < len(waveFileMagic) || string(data[:len(waveFileMagic)]) != waveFileMagic {
		return nil, errors.Wrap(ErrBadMagic, "not a wavetable file")
	}
	r.skip(len(waveFileMagic))
	r.u16() // format version, unused
	r.u16() // reserved
	wt := new(Wavetable)
	return wt, wt.decodeEmbed(r.tail())
}

func (wt *Wavetable) decodeEmbed(r *reader) error {
	if string(r.bytes(4)) != waveEmbedMagic {
		return errors.Wrapf(ErrBadMagic, "wavetable block at 0x%X", r.base)
	}
	size := r.u32()
	var b *reader
	if size > 0 {
		b = r.sub(int(size))
	} else {
		b = r.tail()
	}

	wt.Name = b.cstr()
	width := b.u32()
	b.u32() // reserved
	wt.Height = b.u32() + 1 // stored one lower than actual
	if err := b.Err(); err != nil {
		return err
	}

	wt.Data = nil
	for i := uint32(0); i < width; i++ {
		v := b.u32()
		if b.err != nil {
			return b.err
		}
		wt.Data = append(wt.Data, v)
	}
	return nil
}

// EncodeWavetable renders the wavetable as a standalone file.
func (wt *Wavetable) EncodeWavetable(version uint16) []byte {
	w := &writer{}
	w.raw([]byte(waveFileMagic))
	w.u16(version)
	w.u16(0)
	wt.encodeEmbed(w)
	return w.buf
}

func (wt *Wavetable) encodeEmbed(w *writer) {
	sizeAt := w.beginBlock(waveEmbedMagic)
	w.cstr(wt.Name)
	w.u32(uint32(len(wt.Data)))
	w.u32(0)
	w.u32(wt.Height - 1)
	for _, v := range wt.Data {
		w.u32(v)
	}
	w.endBlock(sizeAt)
}
