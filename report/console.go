package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gernest/covmap/batch"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Console renders per file counts and category totals of s as a table.
func Console(w io.Writer, s *batch.Summary) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Kind", "File", "Hidden instructions"})
	for _, k := range []batch.Kind{batch.Exec, batch.Timeout} {
		it := s.Files(k).Iterator()
		for !it.Done() {
			name, n, _ := it.Next()
			tbl.AppendRow(table.Row{k.String(), name, count(n)})
		}
		tbl.AppendRow(table.Row{k.String(), fmt.Sprintf("Total (%d files)", s.Files(k).Len()), count(s.Total(k))})
		tbl.AppendSeparator()
	}
	tbl.Render()
}

func count(n uint64) string {
	return humanize.Comma(int64(n))
}
