// Command covmap decodes execution coverage bitmaps produced by fuzzing runs.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gernest/covmap/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/common/promslog"
	"github.com/spf13/cobra"
)

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "covmap",
		Short: "Decode execution coverage bitmaps into instruction address ranges",
		Long: `covmap decodes coverage bitmap files into human readable address ranges
and summarizes hidden instruction counts of completed and timed out runs.

Commands:
  decode    Decode a directory of bitmap files
  show      Inspect batches recorded in a results database`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default .covmap.yaml in . or $HOME)")
	root.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", config.DefaultLogFormat, "log format: logfmt or json")

	root.AddCommand(newDecodeCommand())
	root.AddCommand(newShowCommand())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags())
}

func newLogger(c config.Log, w io.Writer) (*slog.Logger, error) {
	lvl := promslog.NewLevel()
	if err := lvl.Set(c.Level); err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	f := promslog.NewFormat()
	if err := f.Set(c.Format); err != nil {
		return nil, errors.Wrap(err, "log format")
	}
	return promslog.New(&promslog.Config{Level: lvl, Format: f, Writer: w}), nil
}
