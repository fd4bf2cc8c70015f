package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = ".covmap"
	configType = "yaml"
	envPrefix  = "COVMAP"
)

// Flags maps configuration keys to the command line flags overriding them.
var Flags = map[string]string{
	"input":           "input",
	"output":          "output",
	"pattern":         "pattern",
	"exec_pattern":    "exec-pattern",
	"timeout_pattern": "timeout-pattern",
	"workers":         "workers",
	"compress":        "compress",
	"db":              "db",
	"metrics_file":    "metrics-file",
	"pprof_addr":      "pprof-addr",
	"log.level":       "log-level",
	"log.format":      "log-format",
}

// Load reads configuration. When configPath is empty .covmap.yaml is searched
// in the working directory and $HOME; a missing file is not an error. Flags
// present in fs that were set on the command line take precedence.
func Load(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	if fs != nil {
		for key, name := range Flags {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag %s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("input", DefaultInput)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("pattern", DefaultPattern)
	v.SetDefault("exec_pattern", DefaultExecPattern)
	v.SetDefault("timeout_pattern", DefaultTimeoutPattern)
	v.SetDefault("workers", 0)
	v.SetDefault("compress", false)
	v.SetDefault("db", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("pprof_addr", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}
