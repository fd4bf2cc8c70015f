package format

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTruncatedHeader is returned when a file is shorter than the fixed
// 8 byte header.
var ErrTruncatedHeader = errors.New("format: truncated file header")

// SegmentHeaderError is returned when the 12 byte header of a segment could
// not be read in full.
type SegmentHeaderError struct {
	Index int
	Got   int
}

func (e *SegmentHeaderError) Error() string {
	return fmt.Sprintf("format: segment %d: truncated header (expected %d bytes, got %d)",
		e.Index, segmentHeaderSize, e.Got)
}

// BitmapError is returned when a segment payload is shorter than its declared
// size.
type BitmapError struct {
	Index    int
	Expected uint64
	Actual   uint64
}

func (e *BitmapError) Error() string {
	return fmt.Sprintf("format: segment %d: truncated bitmap (expected %d bytes, got %d)",
		e.Index, e.Expected, e.Actual)
}

// UndersizedBitmapError is returned when a segment declares fewer bitmap bytes
// than needed to describe its address window.
type UndersizedBitmapError struct {
	Index int
	Bits  uint64
	Size  uint32
}

func (e *UndersizedBitmapError) Error() string {
	return fmt.Sprintf("format: segment %d: bitmap of %d bytes cannot hold %d bits",
		e.Index, e.Size, e.Bits)
}
