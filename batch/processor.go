// Package batch decodes many coverage bitmap files in parallel and reduces
// them into a per category summary.
package batch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/docker/go-units"
	"github.com/gernest/covmap/bitmaps"
	"github.com/gernest/covmap/format"
	"github.com/gernest/covmap/internal/checksum"
	"github.com/gernest/covmap/internal/work"
	"github.com/gernest/roaring"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/promslog"
)

// Options configures a Processor. The zero value is usable.
type Options struct {
	// Workers bounds the number of files decoded at once. Defaults to
	// runtime.GOMAXPROCS(0).
	Workers int
	// Patterns are printed in summary section headers.
	Patterns Patterns
	// Coverage keeps a roaring bitmap of covered addresses in every result.
	// Enabled automatically when Recorder is set.
	Coverage bool
	// Recorder, when set, receives every successful batch.
	Recorder Recorder
	Logger   *slog.Logger
	// Registerer receives batch metrics. A private registry is used when nil.
	Registerer prometheus.Registerer
}

// Processor decodes batches of bitmap files.
type Processor struct {
	sink Sink
	o    Options
	lo   *slog.Logger
	m    *metrics
}

// New returns a Processor writing artifacts to sink.
func New(sink Sink, o Options) *Processor {
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Patterns == (Patterns{}) {
		o.Patterns = DefaultPatterns
	}
	if o.Recorder != nil {
		o.Coverage = true
	}
	lo := o.Logger
	if lo == nil {
		lo = promslog.NewNopLogger()
	}
	reg := o.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Processor{
		sink: sink,
		o:    o,
		lo:   lo.With("component", "batch"),
		m:    newMetrics(reg),
	}
}

// Workers returns the effective worker count.
func (p *Processor) Workers() int {
	return p.o.Workers
}

// Run decodes every file in paths, writes a listing per file and the summary
// artifact, and returns the summary.
//
// Any failing file aborts the batch: files not yet started are skipped, running
// ones finish, and the returned *TaskError names the first failure. No summary
// is written or recorded for a failed batch.
func (p *Processor) Run(paths []string) (*Summary, error) {
	if err := uniqueNames(paths); err != nil {
		return nil, err
	}
	start := time.Now()
	p.lo.Info("starting batch", "files", len(paths), "workers", p.o.Workers)

	var c collector
	c.init()

	var w work.Work[string]
	w.Init(slices.Values(paths))
	err := w.Do(p.o.Workers, func(path string) error {
		r, err := p.process(path)
		if err != nil {
			p.m.failures.Inc()
			return &TaskError{Name: filepath.Base(path), Path: path, Err: err}
		}
		c.add(r)
		return nil
	})
	if err != nil {
		p.lo.Error("batch failed", "err", err)
		return nil, err
	}

	s := c.reduce()
	s.ID = ulid.Make().String()

	if err := p.writeSummary(s); err != nil {
		return nil, err
	}
	if p.o.Recorder != nil {
		if err := p.o.Recorder.Record(s); err != nil {
			return nil, errors.Wrap(err, "recording batch")
		}
	}
	p.lo.Info("batch complete",
		"id", s.ID,
		"exec_files", s.Files(Exec).Len(),
		"exec_total", s.Total(Exec),
		"timeout_files", s.Files(Timeout).Len(),
		"timeout_total", s.Total(Timeout),
		"elapsed", time.Since(start),
	)
	return s, nil
}

func (p *Processor) writeSummary(s *Summary) error {
	w, err := p.sink.Create(SummaryName)
	if err != nil {
		return errors.Wrap(err, "creating summary")
	}
	err = WriteSummary(w, s, p.o.Patterns)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "writing summary")
}

func (p *Processor) process(path string) (*Result, error) {
	start := time.Now()
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	h := checksum.New()
	file, err := format.Decode(io.TeeReader(f, h))
	if err != nil {
		return nil, err
	}
	// Trailing bytes are not part of the format but still part of the input.
	if _, err := io.Copy(h, f); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	size := st.Size()

	r := &Result{
		Name:       name,
		Kind:       Classify(name),
		Number:     file.Number,
		RangeCount: file.RangeCount,
		Count:      file.Count,
		Ranges:     file.Ranges,
		Size:       size,
		Digest:     h.Sum64(),
	}
	if p.o.Coverage {
		r.Coverage = roaring.NewBitmap()
		bitmaps.Coverage(r.Coverage, r.Ranges)
		r.Coverage.Optimize()
	}

	if err := p.writeListing(r); err != nil {
		return nil, err
	}

	p.m.files.WithLabelValues(r.Kind.String()).Inc()
	p.m.instructions.WithLabelValues(r.Kind.String()).Add(float64(r.Count))
	p.m.duration.Observe(time.Since(start).Seconds())
	p.lo.Debug("decoded file",
		"file", name,
		"kind", r.Kind.String(),
		"size", units.BytesSize(float64(size)),
		"ranges", len(r.Ranges),
		"instructions", r.Count,
	)
	return r, nil
}

func (p *Processor) writeListing(r *Result) error {
	name := ListingName(r.Name)
	w, err := p.sink.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	err = WriteListing(w, r)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "writing %s", name)
}

func uniqueNames(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		if other, ok := seen[name]; ok {
			return errors.Wrapf(ErrDuplicateName, "%s and %s", other, path)
		}
		seen[name] = path
	}
	return nil
}
