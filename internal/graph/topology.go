package graph

import (
	"container/heap"
)

const (
	white = iota // unvisited
	gray         // on the current DFS path
	black        // fully explored
)

// HasCycles reports whether any dependency cycle exists among registered nodes.
// When one does, the returned path is closed: its first and last ids are equal.
func (g *DependencyGraph) HasCycles() (bool, []string) {
	path := g.findCycle(g.order)
	return path != nil, path
}

// FindCycleFrom returns a cycle reachable from id through dependency edges, or nil.
func (g *DependencyGraph) FindCycleFrom(id string) []string {
	if !g.HasNode(id) {
		return nil
	}
	return g.findCycle([]string{id})
}

// findCycle runs a three-colour DFS over dependency edges from the given
// roots. Unknown dependency ids are skipped.
func (g *DependencyGraph) findCycle(roots []string) []string {
	color := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)

		for _, dep := range g.nodes[id].dependencies {
			if !g.HasNode(dep) {
				continue
			}
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				start := len(stack) - 1
				for stack[start] != dep {
					start--
				}
				cycle = append(cycle, stack[start:]...)
				cycle = append(cycle, dep)
				return true
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, root := range roots {
		if color[root] != white {
			continue
		}
		if visit(root) {
			return cycle
		}
	}
	return nil
}

// Validate checks the subgraph of id and all its ancestors: every dependency
// must be registered and no cycle may be reachable. Cycles take precedence
// over unknown dependencies.
func (g *DependencyGraph) Validate(id string) error {
	if !g.HasNode(id) {
		return nodeNotFound(id)
	}
	if path := g.FindCycleFrom(id); path != nil {
		return &CycleError{Path: path}
	}

	var missing error
	visited := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 && missing == nil {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.nodes[cur].dependencies {
			if !g.HasNode(dep) {
				missing = &UnknownDependencyError{Node: cur, Dependency: dep}
				break
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return missing
}

// TopologicalSort orders all nodes so that every dependency precedes its
// dependents. Among nodes that are ready at the same time, the one registered
// first comes first.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	n := len(g.order)
	indeg := make([]int, n)
	outgoing := make([][]int, n)

	for i, id := range g.order {
		for _, dep := range g.nodes[id].dependencies {
			j, ok := g.index[dep]
			if !ok {
				return nil, &UnknownDependencyError{Node: id, Dependency: dep}
			}
			outgoing[j] = append(outgoing[j], i)
			indeg[i]++
		}
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]string, 0, n)
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		out = append(out, g.order[u])
		for _, v := range outgoing[u] {
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(ready, v)
			}
		}
	}

	if len(out) != n {
		return nil, &CycleError{Path: g.findCycle(g.order)}
	}
	return out, nil
}

// TransitiveDependencies returns every ancestor of id reachable through
// dependency edges, excluding id itself, in registration order.
func (g *DependencyGraph) TransitiveDependencies(id string) ([]string, error) {
	if !g.HasNode(id) {
		return nil, nodeNotFound(id)
	}

	seen := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range g.nodes[cur].dependencies {
			if !g.HasNode(dep) {
				return nil, &UnknownDependencyError{Node: cur, Dependency: dep}
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			stack = append(stack, dep)
		}
	}
	delete(seen, id)

	out := make([]string, 0, len(seen))
	for _, candidate := range g.order {
		if seen[candidate] {
			out = append(out, candidate)
		}
	}
	return out, nil
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
