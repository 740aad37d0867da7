package furnace

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the binary decoders. Wrap sites attach the byte offset
// where decoding stopped, so callers can still match these with errors.Is.
var (
	ErrBadMagic     = errors.New("bad magic value")
	ErrTruncated    = errors.New("unexpected end of data")
	ErrUnknownEnum  = errors.New("unknown enum value")
	ErrInvalidField = errors.New("invalid field value")
)

// Small struct for non-fatal warnings
type Warning struct {
	Offset  int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("offset 0x%X: %s", w.Offset, w.Message)
}
