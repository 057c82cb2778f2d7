package types

import "time"

// EvaluationMetrics describes a single evaluation attempt of one node.
// Values are immutable once produced; the engine keeps the latest per node.
type EvaluationMetrics struct {
	NodeID            string        `json:"node_id"`
	State             NodeState     `json:"state"`
	EvaluationTime    time.Duration `json:"evaluation_time"`
	CacheHit          bool          `json:"cache_hit"`
	DependenciesCount int           `json:"dependencies_count"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	EvaluatedAt       time.Time     `json:"evaluated_at"`
}

// Summary aggregates the latest metrics of all nodes known to an engine.
type Summary struct {
	TotalNodes     int     `json:"total_nodes"`
	EvaluatedNodes int     `json:"evaluated_nodes"`
	CacheHits      int     `json:"cache_hits"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
}
