// Package config loads covmap settings from defaults, an optional config file,
// COVMAP_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/common/promslog"
)

// Config is the top-level configuration. Field tags use mapstructure for viper
// unmarshalling.
type Config struct {
	Input          string `mapstructure:"input"`
	Output         string `mapstructure:"output"`
	Pattern        string `mapstructure:"pattern"`
	ExecPattern    string `mapstructure:"exec_pattern"`
	TimeoutPattern string `mapstructure:"timeout_pattern"`
	Workers        int    `mapstructure:"workers"`
	Compress       bool   `mapstructure:"compress"`
	DB             string `mapstructure:"db"`
	MetricsFile    string `mapstructure:"metrics_file"`
	PprofAddr      string `mapstructure:"pprof_addr"`
	Log            Log    `mapstructure:"log"`
}

// Log configures the process logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults.
const (
	DefaultInput          = "bitmap_results"
	DefaultOutput         = "decoded_ranges"
	DefaultPattern        = "res*_*.bin"
	DefaultExecPattern    = "res*_complete.bin"
	DefaultTimeoutPattern = "res*_timeout.bin"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "logfmt"
)

// Validate checks c for values the batch cannot run with.
func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("input directory is required")
	}
	if c.Output == "" {
		return errors.New("output directory is required")
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for _, p := range []struct{ name, value string }{
		{"pattern", c.Pattern},
		{"exec_pattern", c.ExecPattern},
		{"timeout_pattern", c.TimeoutPattern},
	} {
		if p.value == "" {
			return errors.Errorf("%s must not be empty", p.name)
		}
		if _, err := filepath.Match(p.value, ""); err != nil {
			return errors.Wrapf(err, "invalid %s %q", p.name, p.value)
		}
	}
	if err := promslog.NewLevel().Set(c.Log.Level); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	if err := promslog.NewFormat().Set(c.Log.Format); err != nil {
		return errors.Wrap(err, "invalid log format")
	}
	return nil
}
