package graph

// DependencyGraph holds nodes keyed by id. Edges are not stored separately:
// they are derived from each node's dependency list, and the reverse view
// (dependents) is computed on demand.
//
// Registration order is retained and used as the tie-break wherever an
// ordering is produced.
type DependencyGraph struct {
	nodes map[string]*Node
	order []string
	index map[string]int
}

// NewDependencyGraph creates an empty graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*Node),
		index: make(map[string]int),
	}
}

// AddNode registers a node. Dependencies may reference ids that are not yet
// registered; they are checked when the node is evaluated.
func (g *DependencyGraph) AddNode(n *Node) error {
	if n == nil {
		return invalidNodef("nil node")
	}
	if _, exists := g.nodes[n.ID()]; exists {
		return &DuplicateNodeError{Node: n.ID()}
	}

	g.index[n.ID()] = len(g.order)
	g.order = append(g.order, n.ID())
	g.nodes[n.ID()] = n
	return nil
}

// Node returns the node registered under id
func (g *DependencyGraph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is registered
func (g *DependencyGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of registered nodes
func (g *DependencyGraph) Len() int {
	return len(g.order)
}

// IDs returns node ids in registration order
func (g *DependencyGraph) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Nodes returns nodes in registration order
func (g *DependencyGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Dependencies returns the direct dependencies of id
func (g *DependencyGraph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, nodeNotFound(id)
	}
	return n.Dependencies(), nil
}

// Dependents returns the ids of nodes that directly depend on id, in registration order
func (g *DependencyGraph) Dependents(id string) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, nodeNotFound(id)
	}

	var out []string
	for _, candidate := range g.order {
		for _, dep := range g.nodes[candidate].dependencies {
			if dep == id {
				out = append(out, candidate)
				break
			}
		}
	}
	return out, nil
}

func nodeNotFound(id string) error {
	return &NodeNotFoundError{Node: id}
}
