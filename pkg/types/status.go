package types

// NodeState represents the lifecycle state of a node.
type NodeState string

const (
	StatePending    NodeState = "pending"
	StateEvaluating NodeState = "evaluating"
	StateCompleted  NodeState = "completed"
	StateFailed     NodeState = "failed"
	StateCached     NodeState = "cached" // Completed, result reused from cache
)

// IsTerminal reports whether the state ends an evaluation attempt.
func (s NodeState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCached:
		return true
	default:
		return false
	}
}

// IsSuccessful reports whether the state carries a usable result.
func (s NodeState) IsSuccessful() bool {
	return s == StateCompleted || s == StateCached
}

func (s NodeState) String() string {
	return string(s)
}
