package format

import (
	"io"

	"github.com/gernest/covmap/bitmaps"
	"github.com/pkg/errors"
)

// File is a fully decoded coverage bitmap file.
type File struct {
	Number     int32
	RangeCount int32
	// Ranges are ordered by segment, then by address within a segment.
	Ranges []bitmaps.Range
	// Count is the total number of set bits.
	Count uint64
}

// Decode reads a coverage bitmap file from r and converts every segment to
// address ranges.
func Decode(r io.Reader) (*File, error) {
	rd := NewReader(r)
	defer rd.Release()

	hdr, err := rd.Header()
	if err != nil {
		return nil, err
	}
	f := &File{
		Number:     hdr.Number,
		RangeCount: hdr.RangeCount,
	}
	for {
		s, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		f.Ranges = bitmaps.Ranges(f.Ranges, s.Start, s.End, s.Bitmap)
	}
	f.Count = bitmaps.Count(f.Ranges)
	return f, nil
}
