package workflow

import (
	"fmt"
	"time"

	"github.com/avi3tal/lazyflow/internal/graph"
)

// Builder is a fluent DSL over Engine.Register. Declarations are only
// checked by Build, so chains need no intermediate checks.
type Builder struct {
	engine     *Engine
	defaultTTL time.Duration
	nodes      []*FlowNode
}

// NewBuilder creates a builder registering into e. Nodes without an explicit
// TTL get defaultTTL.
func NewBuilder(e *Engine, defaultTTL time.Duration) *Builder {
	return &Builder{engine: e, defaultTTL: defaultTTL}
}

// FlowNode references a node declared on a Builder
type FlowNode struct {
	b           *Builder
	id          string
	compute     ComputeFunc
	deps        []string
	ttl         *time.Duration
	metadata    map[string]any
	fingerprint FingerprintFunc
}

// Node declares a node
func (b *Builder) Node(id string, fn ComputeFunc) *FlowNode {
	n := &FlowNode{b: b, id: id, compute: fn}
	b.nodes = append(b.nodes, n)
	return n
}

// ID returns the node id
func (fn *FlowNode) ID() string {
	return fn.id
}

// DependsOn appends dependencies
func (fn *FlowNode) DependsOn(ids ...string) *FlowNode {
	fn.deps = append(fn.deps, ids...)
	return fn
}

// TTL sets the cache ttl, overriding the builder default
func (fn *FlowNode) TTL(ttl time.Duration) *FlowNode {
	fn.ttl = &ttl
	return fn
}

// NoCache marks the node uncacheable
func (fn *FlowNode) NoCache() *FlowNode {
	return fn.TTL(0)
}

// Meta attaches diagnostic metadata
func (fn *FlowNode) Meta(key string, value any) *FlowNode {
	if fn.metadata == nil {
		fn.metadata = make(map[string]any)
	}
	fn.metadata[key] = value
	return fn
}

// Version sets a caller fingerprint mixed into the cache key
func (fn *FlowNode) Version(f FingerprintFunc) *FlowNode {
	fn.fingerprint = f
	return fn
}

// Then declares a node depending on this one and returns it
func (fn *FlowNode) Then(id string, compute ComputeFunc) *FlowNode {
	return fn.b.Node(id, compute).DependsOn(fn.id)
}

// Build registers every declared node in declaration order and returns the
// engine. All declarations are checked first: on error nothing is registered
// and the builder can be corrected and built again.
func (b *Builder) Build() (*Engine, error) {
	g := b.engine.Graph()
	opts := make([][]NodeOption, len(b.nodes))
	seen := make(map[string]bool, len(b.nodes))

	for i, n := range b.nodes {
		opts[i] = b.nodeOptions(n)
		if _, err := graph.NewNode(n.id, n.compute, opts[i]...); err != nil {
			return nil, fmt.Errorf("register %q: %w", n.id, err)
		}
		if seen[n.id] || g.HasNode(n.id) {
			return nil, fmt.Errorf("register %q: %w", n.id, &graph.DuplicateNodeError{Node: n.id})
		}
		seen[n.id] = true
	}

	for i, n := range b.nodes {
		if err := b.engine.Register(n.id, n.compute, opts[i]...); err != nil {
			return nil, fmt.Errorf("register %q: %w", n.id, err)
		}
	}
	b.nodes = nil
	return b.engine, nil
}

// Remove drops a declared node. Nodes depending on it keep the dependency.
func (b *Builder) Remove(id string) *Builder {
	kept := b.nodes[:0]
	for _, n := range b.nodes {
		if n.id != id {
			kept = append(kept, n)
		}
	}
	b.nodes = kept
	return b
}

func (b *Builder) nodeOptions(n *FlowNode) []NodeOption {
	ttl := b.defaultTTL
	if n.ttl != nil {
		ttl = *n.ttl
	}

	opts := []NodeOption{DependsOn(n.deps...), CacheTTL(ttl)}
	if n.metadata != nil {
		opts = append(opts, Metadata(n.metadata))
	}
	if n.fingerprint != nil {
		opts = append(opts, Fingerprint(n.fingerprint))
	}
	return opts
}
