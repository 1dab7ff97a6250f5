// Package config resolves the runner configuration from command-line
// flags, EVALBENCH_* environment variables and an optional YAML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/weiihann/evalbench/harness"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "evalbench"

// Flag names. Environment variables use the upper-cased name with dashes
// replaced by underscores, e.g. EVALBENCH_OUT_DIR.
const (
	FlagConfig      = "config"
	FlagIterations  = "iterations"
	FlagWarmup      = "warmup"
	FlagInvocations = "invocations"
	FlagSizes       = "sizes"
	FlagOutDir      = "out-dir"
	FlagStabilize   = "stabilize"
	FlagTextfile    = "textfile"
	FlagLogLevel    = "log-level"
)

// Config is the resolved runner configuration.
type Config struct {
	Iterations  int    `mapstructure:"iterations" yaml:"iterations"`
	Warmup      int    `mapstructure:"warmup" yaml:"warmup"`
	Invocations int    `mapstructure:"invocations" yaml:"invocations"`
	Sizes       []int  `mapstructure:"sizes" yaml:"sizes"`
	OutDir      string `mapstructure:"out-dir" yaml:"out-dir"`
	Stabilize   bool   `mapstructure:"stabilize" yaml:"stabilize"`
	Textfile    string `mapstructure:"textfile" yaml:"textfile,omitempty"`
	LogLevel    string `mapstructure:"log-level" yaml:"log-level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	h := harness.DefaultConfig()

	return Config{
		Iterations:  h.Iterations,
		Warmup:      h.WarmupIterations,
		Invocations: h.Invocations,
		Sizes:       h.Sizes,
		OutDir:      "results",
		Stabilize:   true,
		LogLevel:    "info",
	}
}

// RegisterFlags declares the configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String(FlagConfig, "",
		"Path to a YAML configuration file")
	fs.Int(FlagIterations, d.Iterations,
		"Measured iterations per method and size")
	fs.Int(FlagWarmup, d.Warmup,
		"Unmeasured warmup iterations per method and size")
	fs.Int(FlagInvocations, d.Invocations,
		"Method invocations per measured iteration")
	fs.IntSlice(FlagSizes, d.Sizes,
		"Parameter sizes (element counts)")
	fs.String(FlagOutDir, d.OutDir,
		"Directory for CSV exports")
	fs.Bool(FlagStabilize, d.Stabilize,
		"Disable CPU boost, real-time scanning and standby during runs")
	fs.String(FlagTextfile, d.Textfile,
		"Write a Prometheus textfile with the run summary")
	fs.String(FlagLogLevel, d.LogLevel,
		"Log level: debug, info, warn, error")
}

// Load resolves the configuration. Explicitly set flags win over
// environment variables, which win over the file at path, which wins over
// the defaults. flags may be nil and path may be empty.
func Load(flags *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(FlagIterations, d.Iterations)
	v.SetDefault(FlagWarmup, d.Warmup)
	v.SetDefault(FlagInvocations, d.Invocations)
	v.SetDefault(FlagSizes, d.Sizes)
	v.SetDefault(FlagOutDir, d.OutDir)
	v.SetDefault(FlagStabilize, d.Stabilize)
	v.SetDefault(FlagTextfile, d.Textfile)
	v.SetDefault(FlagLogLevel, d.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Harness().Validate(); err != nil {
		return err
	}

	if c.OutDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Harness returns the runner settings.
func (c Config) Harness() harness.Config {
	return harness.Config{
		Iterations:       c.Iterations,
		WarmupIterations: c.Warmup,
		Invocations:      c.Invocations,
		Sizes:            c.Sizes,
	}
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	return level, nil
}

// Write dumps the configuration as YAML. The output is accepted by Load.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return enc.Close()
}

// Path returns the configuration file named by the --config flag, or by
// EVALBENCH_CONFIG when the flag is unset.
func Path(flags *pflag.FlagSet) string {
	if flags != nil {
		if path, err := flags.GetString(FlagConfig); err == nil && path != "" {
			return path
		}
	}

	return os.Getenv(strings.ToUpper(EnvPrefix) + "_CONFIG")
}
