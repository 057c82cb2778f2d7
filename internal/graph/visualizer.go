package graph

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avi3tal/lazyflow/pkg/types"
)

// Info is a serializable snapshot of the graph structure
type Info struct {
	Nodes []NodeInfo          `json:"nodes"`
	Edges map[string][]string `json:"edges"` // node id -> dependency ids
}

// NodeInfo describes one node for export and debugging
type NodeInfo struct {
	ID              string          `json:"id"`
	State           types.NodeState `json:"state"`
	Dependencies    []string        `json:"dependencies"`
	CacheTTLSeconds float64         `json:"cache_ttl"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	ComputedAt      *time.Time      `json:"computed_at,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Info returns a snapshot of all nodes in registration order
func (g *DependencyGraph) Info() *Info {
	info := &Info{
		Nodes: make([]NodeInfo, 0, len(g.order)),
		Edges: make(map[string][]string, len(g.order)),
	}

	for _, n := range g.Nodes() {
		ni := NodeInfo{
			ID:              n.ID(),
			State:           n.State(),
			Dependencies:    n.Dependencies(),
			CacheTTLSeconds: n.CacheTTL().Seconds(),
		}
		if md := n.Metadata(); len(md) > 0 {
			ni.Metadata = md
		}
		if at, ok := n.ComputedAt(); ok {
			at := at.UTC()
			ni.ComputedAt = &at
		}
		if err := n.Err(); err != nil {
			ni.Error = err.Error()
		}
		info.Nodes = append(info.Nodes, ni)
		info.Edges[n.ID()] = n.Dependencies()
	}

	return info
}

// Print writes a human-readable rendering of the graph to w
func (g *DependencyGraph) Print(w io.Writer) {
	info := g.Info()

	fmt.Fprintln(w, "Dependency Graph:")

	fmt.Fprintln(w, "\nNodes:")
	for _, node := range info.Nodes {
		ttl := "no cache"
		if node.CacheTTLSeconds > 0 {
			ttl = fmt.Sprintf("ttl %gs", node.CacheTTLSeconds)
		}
		fmt.Fprintf(w, "  - %s [%s] (%s)\n", node.ID, node.State, ttl)
	}

	fmt.Fprintln(w, "\nEdges:")
	for _, node := range info.Nodes {
		if len(node.Dependencies) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s --> %s\n", strings.Join(node.Dependencies, ", "), node.ID)
	}
}
