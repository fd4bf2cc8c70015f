package format

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/gernest/covmap/bitmaps"
	"github.com/stretchr/testify/require"
)

// TestDecode builds files from a small line oriented description:
//
//	header <number> <range_count>
//	segment <start> <end> <hex bitmap>
//	segment-size <start> <end> <declared size> <hex bitmap>
//	raw <hex>
//
// A hex bitmap of "-" is empty.
func TestDecode(t *testing.T) {
	datadriven.RunTest(t, "testdata/decode", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "decode":
			data, err := build(td.Input)
			if err != nil {
				td.Fatalf(t, "invalid input %v", err)
				return ""
			}
			f, err := Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			var o bytes.Buffer
			fmt.Fprintf(&o, "number=%d ranges=%d count=%d\n", f.Number, f.RangeCount, f.Count)
			for _, r := range f.Ranges {
				fmt.Fprintln(&o, r)
			}
			return o.String()
		default:
			td.Fatalf(t, "unknown command %v", td.Cmd)
			return ""
		}
	})
}

func build(input string) ([]byte, error) {
	var b []byte
	for line := range strings.SplitSeq(input, "\n") {
		f := strings.Fields(line)
		if len(f) == 0 {
			continue
		}
		n := make([]uint64, 0, 4)
		var payload []byte
		for i, v := range f[1:] {
			if f[0] != "raw" && (f[0] == "header" || i < len(f)-2) {
				x, err := strconv.ParseInt(v, 0, 64)
				if err != nil {
					return nil, err
				}
				n = append(n, uint64(x))
				continue
			}
			if v == "-" {
				payload = nil
				continue
			}
			p, err := hex.DecodeString(v)
			if err != nil {
				return nil, err
			}
			payload = p
		}
		switch f[0] {
		case "header":
			b = binary.LittleEndian.AppendUint32(b, uint32(n[0]))
			b = binary.LittleEndian.AppendUint32(b, uint32(n[1]))
		case "segment":
			b = binary.LittleEndian.AppendUint32(b, uint32(n[0]))
			b = binary.LittleEndian.AppendUint32(b, uint32(n[1]))
			b = binary.LittleEndian.AppendUint32(b, uint32(len(payload)))
			b = append(b, payload...)
		case "segment-size":
			b = binary.LittleEndian.AppendUint32(b, uint32(n[0]))
			b = binary.LittleEndian.AppendUint32(b, uint32(n[1]))
			b = binary.LittleEndian.AppendUint32(b, uint32(n[2]))
			b = append(b, payload...)
		case "raw":
			b = append(b, payload...)
		default:
			return nil, fmt.Errorf("unknown directive %q", f[0])
		}
	}
	return b, nil
}

func TestDecodeErrorTypes(t *testing.T) {
	t.Run("truncated header", func(t *testing.T) {
		_, err := Decode(bytes.NewReader([]byte{1, 0, 0}))
		require.ErrorIs(t, err, ErrTruncatedHeader)
		_, err = Decode(bytes.NewReader(nil))
		require.ErrorIs(t, err, ErrTruncatedHeader)
	})
	t.Run("truncated segment header", func(t *testing.T) {
		var b bytes.Buffer
		require.NoError(t, Encode(&b, 1, []Segment{{Start: 0, End: 8, Bitmap: []byte{0xFF}}}))
		data := b.Bytes()
		// claim a second segment that is not there
		binary.LittleEndian.PutUint32(data[4:], 2)
		data = append(data, 1, 2, 3, 4, 5)
		_, err := Decode(bytes.NewReader(data))
		var e *SegmentHeaderError
		require.ErrorAs(t, err, &e)
		require.Equal(t, 1, e.Index)
		require.Equal(t, 5, e.Got)
	})
	t.Run("truncated bitmap", func(t *testing.T) {
		var b bytes.Buffer
		require.NoError(t, Encode(&b, 1, []Segment{{Start: 0, End: 64, Bitmap: make([]byte, 8)}}))
		data := b.Bytes()[:b.Len()-3]
		_, err := Decode(bytes.NewReader(data))
		var e *BitmapError
		require.ErrorAs(t, err, &e)
		require.Equal(t, BitmapError{Index: 0, Expected: 8, Actual: 5}, *e)
	})
	t.Run("undersized bitmap", func(t *testing.T) {
		var b bytes.Buffer
		require.NoError(t, Encode(&b, 1, []Segment{{Start: 0, End: 17, Bitmap: []byte{0xFF, 0xFF}}}))
		_, err := Decode(&b)
		var e *UndersizedBitmapError
		require.ErrorAs(t, err, &e)
		require.Equal(t, UndersizedBitmapError{Index: 0, Bits: 17, Size: 2}, *e)
	})
}

func TestDecodeRoundTrip(t *testing.T) {
	segs := []Segment{
		{Start: 0x400000, End: 0x400010, Bitmap: []byte{0x0F, 0xF0}},
		{Start: 0x400010, End: 0x400020, Bitmap: []byte{0xFF, 0xFF}},
		{Start: 0x500000, End: 0x500000, Bitmap: []byte{0xFF}},
		{Start: 0x600000, End: 0x600005, Bitmap: []byte{0b11111101}},
	}
	var b bytes.Buffer
	require.NoError(t, Encode(&b, -3, segs))
	f, err := Decode(&b)
	require.NoError(t, err)
	require.Equal(t, int32(-3), f.Number)
	require.Equal(t, int32(4), f.RangeCount)
	want := []bitmaps.Range{
		{Start: 0x400000, End: 0x400004},
		{Start: 0x40000C, End: 0x400010},
		{Start: 0x400010, End: 0x400020},
		{Start: 0x600000, End: 0x600001},
		{Start: 0x600002, End: 0x600005},
	}
	require.Equal(t, want, f.Ranges)
	require.Equal(t, uint64(4+4+16+1+3), f.Count)
}

func TestReaderStopsAtDeclaredSegments(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, Encode(&b, 9, []Segment{{Start: 0, End: 8, Bitmap: []byte{0x01}}}))
	b.WriteString("trailing data is never read")
	r := NewReader(&b)
	defer r.Release()
	h, err := r.Header()
	require.NoError(t, err)
	require.Equal(t, Header{Number: 9, RangeCount: 1}, h)
	s, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 0, s.Index)
	require.Equal(t, []byte{0x01}, s.Bitmap)
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}
