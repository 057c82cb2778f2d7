package engine

import (
	"time"

	"github.com/avi3tal/lazyflow/internal/graph"
	"github.com/avi3tal/lazyflow/pkg/types"
)

func (e *Engine) record(n *graph.Node, start time.Time, cacheHit bool, err error) {
	now := e.now()
	m := types.EvaluationMetrics{
		NodeID:            n.ID(),
		State:             n.State(),
		EvaluationTime:    now.Sub(start),
		CacheHit:          cacheHit,
		DependenciesCount: len(n.Dependencies()),
		EvaluatedAt:       now,
	}
	if err != nil {
		m.ErrorMessage = err.Error()
	}
	e.metrics[n.ID()] = m
}

// Metrics returns the latest metrics of every node evaluated so far
func (e *Engine) Metrics() map[string]types.EvaluationMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]types.EvaluationMetrics, len(e.metrics))
	for id, m := range e.metrics {
		out[id] = m
	}
	return out
}

// NodeMetrics returns the latest metrics of id
func (e *Engine) NodeMetrics(id string) (types.EvaluationMetrics, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.metrics[id]
	return m, ok
}

// Summary aggregates the latest metrics. The hit rate is zero when nothing
// has been evaluated.
func (e *Engine) Summary() types.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.summary()
}

func (e *Engine) summary() types.Summary {
	s := types.Summary{
		TotalNodes:     e.graph.Len(),
		EvaluatedNodes: len(e.metrics),
	}
	for _, m := range e.metrics {
		if m.CacheHit {
			s.CacheHits++
		}
	}
	if s.EvaluatedNodes > 0 {
		s.CacheHitRate = float64(s.CacheHits) / float64(s.EvaluatedNodes)
	}
	return s
}
