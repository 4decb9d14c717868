package codec

import (
	"errors"
	"fmt"
)

// maxNestingDepth bounds how deep arrays and maps may nest inside one frame.
// Exceeding it makes the frame invalid instead of exhausting the stack.
const maxNestingDepth = 128

// ErrShortBuffer signals that the buffer ends before one complete value could
// be read. It is a control signal, not a failure: the caller must keep every
// buffered byte and retry once more bytes have arrived. Zero bytes are
// consumed whenever it is returned.
var ErrShortBuffer = errors.New("codec: need more data")

// FrameError reports a malformed frame: a value that violates the wire
// grammar or a complete value that is not a well-formed message envelope.
// Size is the exact number of bytes the caller must skip to resynchronize on
// the next frame boundary.
type FrameError struct {
	Size   int
	Reason string
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("codec: invalid frame (%s), skipping %d bytes", e.Reason, e.Size)
}

// IsShortBuffer reports whether err is the need-more-data signal.
func IsShortBuffer(err error) bool {
	return errors.Is(err, ErrShortBuffer)
}

// IsFrameError reports whether err is a recoverable invalid-frame error.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// MessagePack format bytes used by both directions of the codec.
const (
	mpFixIntMax   = 0x7f
	mpFixMap      = 0x80
	mpFixArray    = 0x90
	mpFixStr      = 0xa0
	mpNil         = 0xc0
	mpNeverUsed   = 0xc1
	mpFalse       = 0xc2
	mpTrue        = 0xc3
	mpBin8        = 0xc4
	mpBin16       = 0xc5
	mpBin32       = 0xc6
	mpExt8        = 0xc7
	mpExt16       = 0xc8
	mpExt32       = 0xc9
	mpFloat32     = 0xca
	mpFloat64     = 0xcb
	mpUint8       = 0xcc
	mpUint16      = 0xcd
	mpUint32      = 0xce
	mpUint64      = 0xcf
	mpInt8        = 0xd0
	mpInt16       = 0xd1
	mpInt32       = 0xd2
	mpInt64       = 0xd3
	mpFixExt1     = 0xd4
	mpFixExt2     = 0xd5
	mpFixExt4     = 0xd6
	mpFixExt8     = 0xd7
	mpFixExt16    = 0xd8
	mpStr8        = 0xd9
	mpStr16       = 0xda
	mpStr32       = 0xdb
	mpArray16     = 0xdc
	mpArray32     = 0xdd
	mpMap16       = 0xde
	mpMap32       = 0xdf
	mpNegFixIntMin = 0xe0
)
