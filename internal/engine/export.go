package engine

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/avi3tal/lazyflow/internal/fsutil"
	"github.com/avi3tal/lazyflow/internal/graph"
	"github.com/avi3tal/lazyflow/pkg/types"
)

// Export is the debugging snapshot written by ExportGraph
type Export struct {
	Engine     string                             `json:"engine"`
	ExportedAt time.Time                          `json:"exported_at"`
	Nodes      []graph.NodeInfo                   `json:"nodes"`
	Edges      map[string][]string                `json:"edges"`
	Metrics    map[string]types.EvaluationMetrics `json:"metrics"`
	Summary    types.Summary                      `json:"summary"`
}

// Snapshot returns the current graph, metrics and summary
func (e *Engine) Snapshot() *Export {
	e.mu.Lock()
	defer e.mu.Unlock()

	info := e.graph.Info()
	metrics := make(map[string]types.EvaluationMetrics, len(e.metrics))
	for id, m := range e.metrics {
		metrics[id] = m
	}

	return &Export{
		Engine:     e.id,
		ExportedAt: e.now().UTC(),
		Nodes:      info.Nodes,
		Edges:      info.Edges,
		Metrics:    metrics,
		Summary:    e.summary(),
	}
}

// ExportGraph writes the snapshot as indented JSON to path
func (e *Engine) ExportGraph(path string) error {
	data, err := json.MarshalIndent(e.Snapshot(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding graph export")
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing graph export %s", path)
	}

	e.logger.Info("graph exported", "path", path)
	return nil
}
