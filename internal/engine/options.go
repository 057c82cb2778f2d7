package engine

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/avi3tal/lazyflow/internal/cache"
)

const defaultName = "lazyflow"

// Option configures an Engine
type Option func(*Engine)

// WithCache injects a computation cache. The engine does not close an
// injected cache.
func WithCache(c *cache.ComputationCache) Option {
	return func(e *Engine) {
		e.cache = c
		e.ownsCache = false
	}
}

// WithCacheDir creates an owned cache persisting under dir
func WithCacheDir(dir string) Option {
	return func(e *Engine) {
		e.cacheDir = dir
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for evaluation spans
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithClock overrides the time source for TTL checks, cache timestamps and metrics
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithName sets the engine name used as the id prefix
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// EvaluateOption configures a single Evaluate call
type EvaluateOption func(*evaluateConfig)

type evaluateConfig struct {
	force bool
}

// WithForce recomputes the requested node even if a valid result exists.
// Dependencies still follow the normal cache rules.
func WithForce() EvaluateOption {
	return func(c *evaluateConfig) {
		c.force = true
	}
}
