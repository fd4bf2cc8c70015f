package main

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
	"github.com/gernest/covmap/bitmaps"
	"github.com/gernest/covmap/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [file...]",
		Short: "Show batches and files recorded in a results database",
		Long: `show lists recorded batches. With file names it prints the stored record of
each file in the selected batch, and its covered ranges with --ranges.`,
		RunE: runShow,
	}
	f := cmd.Flags()
	f.String("db", "", "results database written by decode --db")
	f.String("batch", "", "batch id (default latest)")
	f.Bool("ranges", false, "print covered address ranges")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("db")
	id, _ := cmd.Flags().GetString("batch")
	withRanges, _ := cmd.Flags().GetBool("ranges")

	db, err := store.Open(path, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 && id == "" {
		all, err := db.Batches()
		if err != nil {
			return err
		}
		tbl := table.NewWriter()
		tbl.SetOutputMirror(out)
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Batch", "EXEC files", "EXEC total", "TIMEOUT files", "TIMEOUT total"})
		for _, b := range all {
			tbl.AppendRow(table.Row{
				b.ID,
				b.ExecFiles, humanize.Comma(int64(b.Exec)),
				b.TimeoutFiles, humanize.Comma(int64(b.Timeout)),
			})
		}
		tbl.Render()
		return nil
	}

	if id == "" {
		id, err = db.Latest()
		if err != nil {
			return errors.Wrap(err, "no batch recorded")
		}
	}
	if len(args) == 0 {
		records, err := db.Files(id)
		if err != nil {
			return err
		}
		tbl := table.NewWriter()
		tbl.SetOutputMirror(out)
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"File", "Kind", "Number", "Segments", "Hidden instructions", "Size", "Digest"})
		for _, r := range records {
			tbl.AppendRow(table.Row{
				r.Name, r.Kind.String(), r.Number, r.RangeCount,
				humanize.Comma(int64(r.Count)), units.BytesSize(float64(r.Size)),
				fmt.Sprintf("%016x", r.Digest),
			})
		}
		tbl.Render()
		return nil
	}

	for _, name := range args {
		r, err := db.Get(id, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# file: %s, kind=%s, file_number=%d, ranges=%d, instructions=%d, size=%s, digest=%016x\n",
			r.Name, r.Kind, r.Number, r.RangeCount, r.Count, units.BytesSize(float64(r.Size)), r.Digest)
		if !withRanges {
			continue
		}
		for _, rg := range bitmaps.FromRoaring(nil, r.Coverage) {
			fmt.Fprintln(out, rg)
		}
	}
	return nil
}
