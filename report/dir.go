// Package report writes batch artifacts to disk and renders summaries for the
// terminal.
package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gernest/covmap/batch"
	"github.com/pkg/errors"
)

// Dir is a batch.Sink writing artifacts into a directory.
type Dir struct {
	path     string
	compress bool
}

var _ batch.Sink = (*Dir)(nil)

// NewDir creates path if needed and returns a sink writing into it. When
// compress is true every artifact is minlz compressed and gets the
// CompressedExt suffix.
func NewDir(path string, compress bool) (*Dir, error) {
	err := os.MkdirAll(path, 0755)
	if err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", path)
	}
	return &Dir{path: path, compress: compress}, nil
}

// Path returns the output directory.
func (d *Dir) Path() string {
	return d.path
}

// Name returns the on disk name of artifact name.
func (d *Dir) Name(name string) string {
	if d.compress {
		return name + CompressedExt
	}
	return name
}

// Create implements batch.Sink.
func (d *Dir) Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(filepath.Join(d.path, d.Name(name)))
	if err != nil {
		return nil, err
	}
	if !d.compress {
		return f, nil
	}
	return &compressedFile{Writer: compression.getWriter(f), f: f}, nil
}

// Open returns a reader for artifact name, decompressing it when the sink
// writes compressed artifacts.
func (d *Dir) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.path, d.Name(name)))
	if err != nil {
		return nil, err
	}
	if !d.compress {
		return f, nil
	}
	return &decompressedFile{Reader: compression.getReader(f), f: f}, nil
}
