package batch

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/benbjohnson/immutable"
	"github.com/gernest/covmap/internal/pools"
	"github.com/google/btree"
)

// SummaryName is the name of the batch summary artifact.
const SummaryName = "summary.txt"

// Files maps file name to number of set bits, ordered by file name.
type Files = immutable.SortedMap[string, uint64]

// Patterns are the file name patterns shown in summary section headers.
type Patterns struct {
	Exec    string
	Timeout string
}

// DefaultPatterns matches the names produced by the fuzzing harness.
var DefaultPatterns = Patterns{
	Exec:    "res*_complete.bin",
	Timeout: "res*_timeout.bin",
}

func (p Patterns) of(k Kind) string {
	if k == Timeout {
		return p.Timeout
	}
	return p.Exec
}

// Summary aggregates results of a whole batch.
type Summary struct {
	// ID uniquely identifies the batch.
	ID string
	// Results ordered by name.
	Results []*Result

	files  [kinds]*Files
	totals [kinds]uint64
}

// Files returns per file counts for kind k. Never nil.
func (s *Summary) Files(k Kind) *Files {
	return s.files[k]
}

// Total returns sum of all counts of kind k.
func (s *Summary) Total(k Kind) uint64 {
	return s.totals[k]
}

// Reduce builds a summary from results. Order of results does not matter.
func Reduce(results []*Result) *Summary {
	var c collector
	c.init()
	for _, r := range results {
		c.add(r)
	}
	return c.reduce()
}

// WriteSummary writes the text summary artifact for s into w.
func WriteSummary(w io.Writer, s *Summary, p Patterns) error {
	b := pools.Buffers.Get()
	defer pools.Buffers.Put(b)

	for _, k := range []Kind{Exec, Timeout} {
		if k == Timeout {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "# %s hidden instructions per file (%s)\n", k, p.of(k))
		it := s.Files(k).Iterator()
		for !it.Done() {
			name, n, _ := it.Next()
			fmt.Fprintf(b, "%s: %d\n", name, n)
		}
		fmt.Fprintf(b, "Total %s hidden instructions: %d\n", k, s.Total(k))
	}
	_, err := w.Write(b.Bytes())
	return err
}

// collector accepts results from concurrent tasks and keeps them ordered by
// name.
type collector struct {
	mu   sync.Mutex
	tree *btree.BTreeG[*Result]
}

func (c *collector) init() {
	c.tree = btree.NewG(8, func(a, b *Result) bool {
		return a.Name < b.Name
	})
}

func (c *collector) add(r *Result) {
	c.mu.Lock()
	c.tree.ReplaceOrInsert(r)
	c.mu.Unlock()
}

func (c *collector) reduce() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Summary{
		Results: make([]*Result, 0, c.tree.Len()),
	}
	var b [kinds]*immutable.SortedMapBuilder[string, uint64]
	for k := range b {
		b[k] = immutable.NewSortedMapBuilder[string, uint64](byName{})
	}
	c.tree.Ascend(func(r *Result) bool {
		s.Results = append(s.Results, r)
		b[r.Kind].Set(r.Name, r.Count)
		s.totals[r.Kind] += r.Count
		return true
	})
	for k := range b {
		s.files[k] = b[k].Map()
	}
	return s
}

type byName struct{}

func (byName) Compare(a, b string) int {
	return strings.Compare(a, b)
}
