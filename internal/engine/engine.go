// Package engine evaluates registered nodes lazily, dependencies first,
// reusing cached results while they are valid.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/avi3tal/lazyflow/internal/cache"
	"github.com/avi3tal/lazyflow/internal/graph"
	"github.com/avi3tal/lazyflow/internal/logging"
	"github.com/avi3tal/lazyflow/internal/tracing"
	"github.com/avi3tal/lazyflow/pkg/types"
)

// Engine owns a dependency graph and a computation cache.
//
// Public methods are serialised by a single mutex. Compute functions run
// while it is held and must not call back into the same engine.
type Engine struct {
	id   string
	name string

	mu        sync.Mutex
	graph     *graph.DependencyGraph
	cache     *cache.ComputationCache
	ownsCache bool
	cacheDir  string
	metrics   map[string]types.EvaluationMetrics
	closed    bool

	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// New creates an engine. Without WithCache or WithCacheDir the engine uses
// an owned memory-only cache.
func New(opts ...Option) *Engine {
	e := &Engine{
		name:      defaultName,
		graph:     graph.NewDependencyGraph(),
		ownsCache: true,
		metrics:   make(map[string]types.EvaluationMetrics),
		logger:    logging.Discard(),
		tracer:    tracing.NoopTracer(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}

	e.id = fmt.Sprintf("%s-%s", e.name, uuid.New().String())
	e.logger = e.logger.With("engine", e.id)

	if e.cache == nil {
		e.cache = cache.New(
			cache.WithDir(e.cacheDir),
			cache.WithLogger(e.logger),
			cache.WithClock(e.now),
		)
		e.ownsCache = true
	}
	return e
}

// ID returns the unique engine id
func (e *Engine) ID() string {
	return e.id
}

// Cache returns the engine's computation cache
func (e *Engine) Cache() *cache.ComputationCache {
	return e.cache
}

// Graph returns the underlying dependency graph. It must not be mutated
// while the engine is in use.
func (e *Engine) Graph() *graph.DependencyGraph {
	return e.graph
}

// Register creates a node and adds it to the graph. Dependencies may name
// nodes registered later; they are checked on evaluation.
func (e *Engine) Register(id string, fn types.ComputeFunc, opts ...graph.NodeOption) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	opts = append([]graph.NodeOption{graph.WithClock(e.now)}, opts...)
	n, err := graph.NewNode(id, fn, opts...)
	if err != nil {
		return err
	}
	if err := e.graph.AddNode(n); err != nil {
		return err
	}

	e.logger.Debug("node registered", "node", id, "dependencies", n.Dependencies(), "ttl", n.CacheTTL())
	return nil
}

// InvalidateCache drops every cached result of id and resets it to pending.
// Other nodes are not touched.
func (e *Engine) InvalidateCache(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	n, ok := e.graph.Node(id)
	if !ok {
		return &graph.NodeNotFoundError{Node: id}
	}

	// disk failures are already logged by the cache; memory is always cleared
	_ = e.cache.Invalidate(ctx, id)
	n.Reset()

	e.logger.Info("cache invalidated", "node", id)
	return nil
}

// Close releases the owned cache. Disk entries are kept.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.ownsCache {
		return e.cache.Close()
	}
	return nil
}
