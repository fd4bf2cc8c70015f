package format

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Encode writes a coverage bitmap file with the given number and segments. The
// header range count is len(segments). Segment Size is taken from
// len(Bitmap); Index is ignored.
func Encode(w io.Writer, number int32, segments []Segment) error {
	b := make([]byte, 0, fileHeaderSize)
	b = binary.LittleEndian.AppendUint32(b, uint32(number))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(segments)))
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "writing file header")
	}
	for i := range segments {
		s := &segments[i]
		b = b[:0]
		b = binary.LittleEndian.AppendUint32(b, s.Start)
		b = binary.LittleEndian.AppendUint32(b, s.End)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(s.Bitmap)))
		if _, err := w.Write(b); err != nil {
			return errors.Wrapf(err, "writing segment %d header", i)
		}
		if _, err := w.Write(s.Bitmap); err != nil {
			return errors.Wrapf(err, "writing segment %d bitmap", i)
		}
	}
	return nil
}
