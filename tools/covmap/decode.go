package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/felixge/fgprof"
	"github.com/gernest/covmap/batch"
	"github.com/gernest/covmap/internal/config"
	"github.com/gernest/covmap/report"
	"github.com/gernest/covmap/store"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newDecodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [dir]",
		Short: "Decode every bitmap file in a directory and write a summary",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDecode,
	}
	f := cmd.Flags()
	f.String("input", config.DefaultInput, "directory holding bitmap files")
	f.String("output", config.DefaultOutput, "directory receiving decoded listings and summary")
	f.String("pattern", config.DefaultPattern, "glob selecting input files")
	f.String("exec-pattern", config.DefaultExecPattern, "pattern shown for EXEC files in the summary")
	f.String("timeout-pattern", config.DefaultTimeoutPattern, "pattern shown for TIMEOUT files in the summary")
	f.Int("workers", 0, "number of files decoded in parallel (0 uses all CPUs)")
	f.Bool("compress", false, "minlz compress listings and summary")
	f.String("db", "", "record the batch in this results database")
	f.String("metrics-file", "", "write batch metrics in prometheus text format to this file")
	f.String("pprof-addr", "", "serve fgprof profiles on this address while decoding")
	return cmd
}

func runDecode(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		if err := cmd.Flags().Set("input", args[0]); err != nil {
			return err
		}
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lo, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.PprofAddr != "" {
		stop := serveProfiles(cfg.PprofAddr, lo)
		defer stop()
	}

	paths, err := batch.Discover(cfg.Input, cfg.Pattern)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		lo.Warn("no bitmap files found", "dir", cfg.Input, "pattern", cfg.Pattern)
		return nil
	}

	sink, err := report.NewDir(cfg.Output, cfg.Compress)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	o := batch.Options{
		Workers: cfg.Workers,
		Patterns: batch.Patterns{
			Exec:    cfg.ExecPattern,
			Timeout: cfg.TimeoutPattern,
		},
		Logger:     lo,
		Registerer: reg,
	}
	if cfg.DB != "" {
		db, err := store.Open(cfg.DB, lo)
		if err != nil {
			return err
		}
		defer db.Close()
		o.Recorder = db
	}

	p := batch.New(sink, o)
	fmt.Fprintf(cmd.OutOrStdout(), "Using %d workers for decoding %d files...\n", p.Workers(), len(paths))
	s, runErr := p.Run(paths)
	if cfg.MetricsFile != "" {
		err := prometheus.WriteToTextfile(cfg.MetricsFile, reg)
		if err != nil {
			lo.Error("writing metrics", "path", cfg.MetricsFile, "err", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	report.Console(out, s)
	fmt.Fprintf(out, "\nSummary written to %s\n", filepath.Join(sink.Path(), sink.Name(batch.SummaryName)))
	return nil
}

// serveProfiles exposes fgprof wall clock profiles until the returned function
// is called.
func serveProfiles(addr string, lo *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/debug/fgprof", fgprof.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		lo.Info("serving profiles", "addr", addr, "path", "/debug/fgprof")
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lo.Error("profile server", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}
