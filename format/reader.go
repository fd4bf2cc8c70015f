package format

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/gernest/covmap/bitmaps"
	"github.com/gernest/covmap/internal/pools"
	"github.com/pkg/errors"
)

const (
	fileHeaderSize    = 8
	segmentHeaderSize = 12
)

// Header is the fixed file header.
type Header struct {
	Number     int32
	RangeCount int32
}

// Segment is a single bitmap window. Bitmap is only valid until the next call
// to Reader.Next.
type Segment struct {
	Index  int
	Start  uint32
	End    uint32
	Size   uint32
	Bitmap []byte
}

// Bits returns the width of the address window.
func (s *Segment) Bits() uint64 {
	if s.End <= s.Start {
		return 0
	}
	return uint64(s.End - s.Start)
}

// Reader reads segments sequentially from an underlying stream. Bytes after the
// last declared segment are ignored.
type Reader struct {
	r       *bufio.Reader
	hdr     Header
	hdrRead bool
	next    int
	buf     *bytes.Buffer
	scratch [segmentHeaderSize]byte
}

// NewReader returns a Reader for r. Call Release when done to return scratch
// memory.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:   bufio.NewReader(r),
		buf: pools.Buffers.Get(),
	}
}

// Release returns pooled buffers. r must not be used afterwards.
func (r *Reader) Release() {
	if r.buf != nil {
		pools.Buffers.Put(r.buf)
		r.buf = nil
	}
}

// Header reads and returns the file header. It is safe to call more than once.
func (r *Reader) Header() (Header, error) {
	if r.hdrRead {
		return r.hdr, nil
	}
	b := r.scratch[:fileHeaderSize]
	_, err := io.ReadFull(r.r, b)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, ErrTruncatedHeader
		}
		return Header{}, errors.Wrap(err, "reading file header")
	}
	r.hdr = Header{
		Number:     int32(binary.LittleEndian.Uint32(b[0:])),
		RangeCount: int32(binary.LittleEndian.Uint32(b[4:])),
	}
	r.hdrRead = true
	return r.hdr, nil
}

// Next reads the next segment. Returns io.EOF after RangeCount segments have
// been read; a negative RangeCount yields no segments.
func (r *Reader) Next() (*Segment, error) {
	hdr, err := r.Header()
	if err != nil {
		return nil, err
	}
	if r.next >= int(hdr.RangeCount) {
		return nil, io.EOF
	}
	idx := r.next
	b := r.scratch[:segmentHeaderSize]
	n, err := io.ReadFull(r.r, b)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &SegmentHeaderError{Index: idx, Got: n}
		}
		return nil, errors.Wrapf(err, "reading segment %d header", idx)
	}
	s := &Segment{
		Index: idx,
		Start: binary.LittleEndian.Uint32(b[0:]),
		End:   binary.LittleEndian.Uint32(b[4:]),
		Size:  binary.LittleEndian.Uint32(b[8:]),
	}

	// Payload is copied in chunks so a corrupt size on a short file fails
	// with BitmapError instead of a huge allocation.
	r.buf.Reset()
	got, err := io.CopyN(r.buf, r.r, int64(s.Size))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &BitmapError{Index: idx, Expected: uint64(s.Size), Actual: uint64(got)}
		}
		return nil, errors.Wrapf(err, "reading segment %d bitmap", idx)
	}
	if need := bitmaps.BytesFor(s.Start, s.End); need > uint64(s.Size) {
		return nil, &UndersizedBitmapError{Index: idx, Bits: s.Bits(), Size: s.Size}
	}
	s.Bitmap = r.buf.Bytes()
	r.next++
	return s, nil
}
