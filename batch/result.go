package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gernest/covmap/bitmaps"
	"github.com/gernest/covmap/internal/pools"
	"github.com/gernest/roaring"
)

// Result is the outcome of decoding a single input file.
type Result struct {
	Name       string
	Kind       Kind
	Number     int32
	RangeCount int32
	Count      uint64
	Ranges     []bitmaps.Range

	// Size is the input file size in bytes and Digest its highwayhash.
	Size   int64
	Digest uint64

	// Coverage holds covered addresses. Only populated when the processor
	// is configured to keep coverage.
	Coverage *roaring.Bitmap
}

// ListingName returns the name of the decoded listing for input file name.
func ListingName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "_decoded.txt"
}

// WriteListing writes human readable ranges of r to w.
func WriteListing(w io.Writer, r *Result) error {
	b := pools.Buffers.Get()
	defer pools.Buffers.Put(b)

	fmt.Fprintf(b, "# file: %s, kind=%s, file_number=%d, ranges=%d\n",
		r.Name, r.Kind, r.Number, r.RangeCount)
	b.WriteString("# each line is [start, end) in hex\n\n")
	for i := range r.Ranges {
		fmt.Fprintf(b, "[0x%08X, 0x%08X]\n", r.Ranges[i].Start, r.Ranges[i].End)
	}
	_, err := w.Write(b.Bytes())
	return err
}
