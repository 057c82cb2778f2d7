// Package workflow is the public entry point to lazyflow: register
// memoizable nodes, evaluate them lazily and inspect what ran.
package workflow

import (
	"github.com/avi3tal/lazyflow/internal/cache"
	"github.com/avi3tal/lazyflow/internal/engine"
	"github.com/avi3tal/lazyflow/internal/graph"
	"github.com/avi3tal/lazyflow/pkg/types"
)

type (
	Engine          = engine.Engine
	Option          = engine.Option
	EvaluateOption  = engine.EvaluateOption
	EvaluationError = engine.EvaluationError
	Export          = engine.Export

	Node       = graph.Node
	NodeOption = graph.NodeOption
	Graph      = graph.DependencyGraph

	Cache      = cache.ComputationCache
	CacheStats = cache.Stats

	Inputs            = types.Inputs
	ComputeFunc       = types.ComputeFunc
	FingerprintFunc   = types.FingerprintFunc
	NodeState         = types.NodeState
	EvaluationMetrics = types.EvaluationMetrics
	Summary           = types.Summary

	DuplicateNodeError     = graph.DuplicateNodeError
	UnknownDependencyError = graph.UnknownDependencyError
	CycleError             = graph.CycleError
	NotEvaluatedError      = graph.NotEvaluatedError
	NodeNotFoundError      = graph.NodeNotFoundError
)

const (
	StatePending    = types.StatePending
	StateEvaluating = types.StateEvaluating
	StateCompleted  = types.StateCompleted
	StateFailed     = types.StateFailed
	StateCached     = types.StateCached
)

var (
	ErrDuplicateNode     = graph.ErrDuplicateNode
	ErrUnknownDependency = graph.ErrUnknownDependency
	ErrCyclicDependency  = graph.ErrCyclicDependency
	ErrNotEvaluated      = graph.ErrNotEvaluated
	ErrNodeNotFound      = graph.ErrNodeNotFound
	ErrInvalidNode       = graph.ErrInvalidNode
	ErrEngineClosed      = engine.ErrEngineClosed
)

// New creates an engine
func New(opts ...Option) *Engine {
	return engine.New(opts...)
}

// NewCache creates a computation cache, memory-only unless dir is set, that
// can be shared between engines with WithCache.
func NewCache(dir string) *Cache {
	return cache.New(cache.WithDir(dir))
}

// Engine options.
var (
	WithCache    = engine.WithCache
	WithCacheDir = engine.WithCacheDir
	WithLogger   = engine.WithLogger
	WithTracer   = engine.WithTracer
	WithClock    = engine.WithClock
	WithName     = engine.WithName
	WithForce    = engine.WithForce
)

// Node options.
var (
	DependsOn   = graph.WithDependencies
	CacheTTL    = graph.WithCacheTTL
	Metadata    = graph.WithMetadata
	Fingerprint = graph.WithFingerprint
)
