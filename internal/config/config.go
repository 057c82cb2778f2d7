// Package config loads engine settings from an optional YAML file and
// LAZYFLOW_* environment variables.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/avi3tal/lazyflow/internal/fsutil"
	"github.com/avi3tal/lazyflow/internal/logging"
	"github.com/avi3tal/lazyflow/internal/tracing"
)

// EnvPrefix is prepended to every environment override, e.g. LAZYFLOW_CACHE_DIR
const EnvPrefix = "LAZYFLOW"

// DefaultCacheDir is where results persist when no directory is configured
const DefaultCacheDir = ".lazyflow/cache"

// Config holds engine settings
type Config struct {
	// CacheDir roots the disk cache tier. Empty keeps results in memory only.
	CacheDir string `mapstructure:"cache_dir"`

	// DefaultTTL applies to nodes registered without an explicit ttl.
	// Zero means such nodes are never cached.
	DefaultTTL time.Duration `mapstructure:"default_ttl"`

	Log     LogConfig      `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults returns the built-in settings
func Defaults() Config {
	return Config{
		CacheDir:   DefaultCacheDir,
		DefaultTTL: 0,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Load reads settings from path (optional, YAML) and the environment, on top
// of Defaults. The result is validated.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("default_ttl", defaults.DefaultTTL)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings for errors. Empty values fall back to defaults
// where one exists.
func Validate(cfg Config) error {
	if cfg.DefaultTTL < 0 {
		return fmt.Errorf("default_ttl must not be negative, got %s", cfg.DefaultTTL)
	}
	if cfg.Log.Level != "" && !slices.Contains(logging.Levels, cfg.Log.Level) {
		return fmt.Errorf("log.level must be one of %s, got %q", strings.Join(logging.Levels, ", "), cfg.Log.Level)
	}
	if cfg.Log.Format != "" && !slices.Contains(logging.Formats, cfg.Log.Format) {
		return fmt.Errorf("log.format must be one of %s, got %q", strings.Join(logging.Formats, ", "), cfg.Log.Format)
	}
	if cfg.Tracing.SampleRate < 0.0 || cfg.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.Tracing.SampleRate)
	}
	if !tracing.ValidExporter(cfg.Tracing.Exporter) {
		return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", cfg.Tracing.Exporter)
	}
	return nil
}

// document is the on-disk shape of Config; durations are written as strings
type document struct {
	CacheDir   string         `yaml:"cache_dir"`
	DefaultTTL string         `yaml:"default_ttl"`
	Log        LogConfig      `yaml:"log"`
	Tracing    tracing.Config `yaml:"tracing"`
}

const header = `# lazyflow configuration
# Every key can be overridden with LAZYFLOW_<KEY>, e.g. LAZYFLOW_LOG_LEVEL=debug
`

// WriteDefault writes the default settings as YAML to path, creating parent
// directories as needed.
func WriteDefault(path string) error {
	d := Defaults()
	data, err := yaml.Marshal(document{
		CacheDir:   d.CacheDir,
		DefaultTTL: d.DefaultTTL.String(),
		Log:        d.Log,
		Tracing:    d.Tracing,
	})
	if err != nil {
		return errors.Wrap(err, "encoding default config")
	}

	if err := fsutil.WriteFileAtomic(path, append([]byte(header), data...), 0o600); err != nil {
		return errors.Wrapf(err, "writing config file %s", path)
	}
	return nil
}
