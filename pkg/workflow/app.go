package workflow

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/avi3tal/lazyflow/internal/config"
	"github.com/avi3tal/lazyflow/internal/logging"
	"github.com/avi3tal/lazyflow/internal/tracing"
)

// Config is the settings document read by Open
type Config = config.Config

// App is an engine assembled from configuration together with the tracing
// provider it owns.
type App struct {
	*Engine
	Config Config

	provider *tracing.Provider
}

// AppOption adjusts an App before its engine is created
type AppOption func(*appOptions)

type appOptions struct {
	logOutput  io.Writer
	engineOpts []Option
}

// WithLogOutput redirects engine logs, which default to stderr
func WithLogOutput(w io.Writer) AppOption {
	return func(o *appOptions) {
		o.logOutput = w
	}
}

// WithEngineOptions passes extra options to the engine. They are applied
// after the configured ones.
func WithEngineOptions(opts ...Option) AppOption {
	return func(o *appOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// Open loads configuration from path (empty for defaults plus environment)
// and builds an engine with the configured cache directory, logger and
// tracer.
func Open(path string, opts ...AppOption) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg, opts...)
}

// FromConfig builds an App from already loaded settings
func FromConfig(cfg Config, opts ...AppOption) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	o := appOptions{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, errors.Wrap(err, "creating tracing provider")
	}

	engineOpts := []Option{
		WithCacheDir(cfg.CacheDir),
		WithLogger(logging.New(cfg.Log.Level, cfg.Log.Format, o.logOutput)),
		WithTracer(provider.Tracer()),
	}
	engineOpts = append(engineOpts, o.engineOpts...)

	return &App{
		Engine:   New(engineOpts...),
		Config:   cfg,
		provider: provider,
	}, nil
}

// Builder returns a builder that applies the configured default TTL
func (a *App) Builder() *Builder {
	return NewBuilder(a.Engine, a.Config.DefaultTTL)
}

// Close closes the engine and flushes pending spans
func (a *App) Close() error {
	engineErr := a.Engine.Close()
	if err := a.provider.Shutdown(context.Background()); err != nil {
		return errors.Wrap(err, "shutting down tracing")
	}
	return engineErr
}

// WriteDefaultConfig writes the default settings as YAML to path
func WriteDefaultConfig(path string) error {
	return config.WriteDefault(path)
}
