package report

import (
	"io"
	"sync"

	"github.com/minio/minlz"
)

// CompressedExt is appended to artifact names written with compression.
const CompressedExt = ".mz"

type compressPool struct {
	read  sync.Pool
	write sync.Pool
}

func (p *compressPool) getReader(r io.Reader) *minlz.Reader {
	v := p.read.Get()
	if v != nil {
		rd := v.(*minlz.Reader)
		rd.Reset(r)
		return rd
	}
	return minlz.NewReader(r)
}

func (p *compressPool) putReader(r *minlz.Reader) {
	r.Reset(nil)
	p.read.Put(r)
}

func (p *compressPool) getWriter(w io.Writer) *minlz.Writer {
	v := p.write.Get()
	if v != nil {
		wr := v.(*minlz.Writer)
		wr.Reset(w)
		return wr
	}
	return minlz.NewWriter(w)
}

func (p *compressPool) putWriter(w *minlz.Writer) {
	w.Reset(nil)
	p.write.Put(w)
}

var compression compressPool

// compressedFile flushes the minlz stream before closing the file.
type compressedFile struct {
	*minlz.Writer
	f io.Closer
}

func (c *compressedFile) Close() error {
	err := c.Writer.Close()
	compression.putWriter(c.Writer)
	if cerr := c.f.Close(); err == nil {
		err = cerr
	}
	return err
}

type decompressedFile struct {
	*minlz.Reader
	f io.Closer
}

func (d *decompressedFile) Close() error {
	compression.putReader(d.Reader)
	return d.f.Close()
}
