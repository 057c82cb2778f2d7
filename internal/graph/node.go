package graph

import (
	"sync"
	"time"

	"github.com/avi3tal/lazyflow/pkg/types"
)

// Node is a memoizable unit of computation with declared dependencies.
//
// A node is created at registration and is only mutated by the engine that
// owns it. Its state moves Pending -> Evaluating -> Completed|Failed; a
// completed node may be reported as Cached when a later evaluation reuses a
// still valid result. Reset is the only way out of Failed. The engine also
// resets a node whose dependency fails, so a stale result is never reported
// alongside that error.
type Node struct {
	id           string
	compute      types.ComputeFunc
	dependencies []string
	cacheTTL     time.Duration
	metadata     map[string]any
	fingerprint  types.FingerprintFunc
	now          func() time.Time

	mu         sync.RWMutex
	state      types.NodeState
	result     any
	computedAt time.Time
	err        error
}

// NodeOption configures a Node
type NodeOption func(*Node)

// WithDependencies sets the ordered list of node ids this node depends on
func WithDependencies(ids ...string) NodeOption {
	return func(n *Node) {
		n.dependencies = append(n.dependencies, ids...)
	}
}

// WithCacheTTL sets how long a result stays valid. Zero disables caching.
func WithCacheTTL(ttl time.Duration) NodeOption {
	return func(n *Node) {
		n.cacheTTL = ttl
	}
}

// WithMetadata attaches opaque diagnostic metadata
func WithMetadata(metadata map[string]any) NodeOption {
	return func(n *Node) {
		for k, v := range metadata {
			n.metadata[k] = v
		}
	}
}

// WithFingerprint sets a caller-defined input version mixed into the cache key
func WithFingerprint(fn types.FingerprintFunc) NodeOption {
	return func(n *Node) {
		n.fingerprint = fn
	}
}

// WithClock overrides the time source used for TTL checks
func WithClock(now func() time.Time) NodeOption {
	return func(n *Node) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNode creates a pending node
func NewNode(id string, fn types.ComputeFunc, opts ...NodeOption) (*Node, error) {
	n := &Node{
		id:       id,
		compute:  fn,
		metadata: make(map[string]any),
		now:      time.Now,
		state:    types.StatePending,
	}
	for _, o := range opts {
		o(n)
	}

	if id == "" {
		return nil, invalidNodef("id is required")
	}
	if fn == nil {
		return nil, invalidNodef("node '%s' has no compute function", id)
	}
	if n.cacheTTL < 0 {
		return nil, invalidNodef("node '%s' has negative cache ttl %s", id, n.cacheTTL)
	}

	seen := make(map[string]struct{}, len(n.dependencies))
	for _, dep := range n.dependencies {
		if dep == "" {
			return nil, invalidNodef("node '%s' has an empty dependency id", id)
		}
		if _, dup := seen[dep]; dup {
			return nil, invalidNodef("node '%s' lists dependency '%s' twice", id, dep)
		}
		seen[dep] = struct{}{}
	}

	return n, nil
}

// ID returns the node's ID
func (n *Node) ID() string {
	return n.id
}

// Compute returns the node's computation
func (n *Node) Compute() types.ComputeFunc {
	return n.compute
}

// Dependencies returns a copy of the declared dependency ids, in declaration order
func (n *Node) Dependencies() []string {
	out := make([]string, len(n.dependencies))
	copy(out, n.dependencies)
	return out
}

// CacheTTL returns the result validity window. Zero means never cache.
func (n *Node) CacheTTL() time.Duration {
	return n.cacheTTL
}

// Cacheable reports whether results of this node may be reused across evaluations
func (n *Node) Cacheable() bool {
	return n.cacheTTL > 0
}

// Metadata returns a copy of the node's metadata
func (n *Node) Metadata() map[string]any {
	out := make(map[string]any, len(n.metadata))
	for k, v := range n.metadata {
		out[k] = v
	}
	return out
}

// Fingerprint returns the caller-defined fingerprint hook, if any
func (n *Node) Fingerprint() types.FingerprintFunc {
	return n.fingerprint
}

// State returns the current lifecycle state
func (n *Node) State() types.NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// ComputedAt returns when the current result was produced
func (n *Node) ComputedAt() (time.Time, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.computedAt, !n.computedAt.IsZero()
}

// Err returns the failure recorded by the last evaluation, if any
func (n *Node) Err() error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.err
}

// Result returns the node's result or a NotEvaluatedError
func (n *Node) Result() (any, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.state.IsSuccessful() {
		return nil, &NotEvaluatedError{Node: n.id, State: n.state}
	}
	return n.result, nil
}

// IsCacheValid reports whether the current result can be reused without recomputing.
// A result is valid while its age is strictly below the cache TTL.
func (n *Node) IsCacheValid() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.state.IsSuccessful() || n.cacheTTL <= 0 || n.computedAt.IsZero() {
		return false
	}
	return n.now().Sub(n.computedAt) < n.cacheTTL
}

// MarkEvaluating moves a pending node into evaluation
func (n *Node) MarkEvaluating() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != types.StatePending {
		return &TransitionError{Node: n.id, From: n.state, To: types.StateEvaluating}
	}
	n.state = types.StateEvaluating
	return nil
}

// SetResult stores a freshly computed result and stamps the computation time
func (n *Node) SetResult(value any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != types.StatePending && n.state != types.StateEvaluating {
		return &TransitionError{Node: n.id, From: n.state, To: types.StateCompleted}
	}
	n.state = types.StateCompleted
	n.result = value
	n.computedAt = n.now()
	n.err = nil
	return nil
}

// MarkCached records that a result is being served from cache.
//
// For a completed node the existing result and timestamp are kept. For a
// pending node, value and storedAt come from the computation cache.
func (n *Node) MarkCached(value any, storedAt time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case types.StateCompleted, types.StateCached:
		n.state = types.StateCached
	case types.StatePending:
		n.state = types.StateCached
		n.result = value
		n.computedAt = storedAt
		n.err = nil
	default:
		return &TransitionError{Node: n.id, From: n.state, To: types.StateCached}
	}
	return nil
}

// Fail records a computation error. The node stays failed until Reset.
func (n *Node) Fail(err error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state != types.StateEvaluating {
		return &TransitionError{Node: n.id, From: n.state, To: types.StateFailed}
	}
	n.state = types.StateFailed
	n.result = nil
	n.err = err
	return nil
}

// Reset discards any result or failure and returns the node to pending
func (n *Node) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.state = types.StatePending
	n.result = nil
	n.computedAt = time.Time{}
	n.err = nil
}
