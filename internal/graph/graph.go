package graph

import "sort"

// Graph is an adjacency store over task names. Edges are directed from a
// task to each of its (parallel) dependencies: AddEdge(from, to) records
// "from depends on to".
//
// Graph is not safe for concurrent mutation; the scheduler builds one
// per run and only reads from it afterwards.
type Graph struct {
	nodes map[string]struct{}
	// deps[n] is the set of nodes n depends on (outgoing edges).
	deps map[string]map[string]struct{}
	// rdeps[n] is the set of nodes that depend on n (incoming edges).
	rdeps map[string]map[string]struct{}
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		deps:  make(map[string]map[string]struct{}),
		rdeps: make(map[string]map[string]struct{}),
	}
}

// AddNode idempotently inserts a node.
func (g *Graph) AddNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = struct{}{}
	g.deps[name] = make(map[string]struct{})
	g.rdeps[name] = make(map[string]struct{})
}

// AddEdge records that from depends on to. Both endpoints are added as
// nodes transparently if not already present. Idempotent.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.deps[from][to] = struct{}{}
	g.rdeps[to][from] = struct{}{}
}

// HasNode reports whether name was added to the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Nodes returns a sorted snapshot of node names.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Deps returns a sorted snapshot of the nodes that name depends on.
func (g *Graph) Deps(name string) []string {
	out := make([]string, 0, len(g.deps[name]))
	for d := range g.deps[name] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// EntryNodes returns nodes with no outgoing edges (no dependencies),
// sorted lexicographically.
func (g *Graph) EntryNodes() []string {
	out := make([]string, 0)
	for n := range g.nodes {
		if len(g.deps[n]) == 0 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Level is a set of task names with no edges among them.
type Level map[string]struct{}

// Plan is an ordered sequence of levels such that every edge (A -> B)
// implies B's level index is strictly less than A's.
type Plan struct {
	Levels []Level
}

// Names returns the sorted node names in level i.
func (p *Plan) Names(i int) []string {
	out := make([]string, 0, len(p.Levels[i]))
	for n := range p.Levels[i] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ExecutionLevels computes the leveled plan via Kahn's algorithm: level 0 is
// every node whose full dependency set is already satisfied (entry nodes),
// and level k peels off every remaining node whose dependencies are all in
// earlier levels. Returns a CycleError if any nodes remain unresolved after
// a full sweep.
func (g *Graph) ExecutionLevels() (*Plan, error) {
	remaining := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		remaining[n] = len(g.deps[n])
	}

	plan := &Plan{}
	resolved := make(map[string]struct{}, len(g.nodes))

	for len(resolved) < len(g.nodes) {
		level := make(Level)
		for n, degree := range remaining {
			if degree == 0 {
				level[n] = struct{}{}
			}
		}
		if len(level) == 0 {
			break
		}
		for n := range level {
			delete(remaining, n)
			resolved[n] = struct{}{}
		}
		for n := range level {
			for dependent := range g.rdeps[n] {
				if _, done := resolved[dependent]; done {
					continue
				}
				remaining[dependent]--
			}
		}
		plan.Levels = append(plan.Levels, level)
	}

	if len(resolved) < len(g.nodes) {
		var stuck []string
		for n := range remaining {
			stuck = append(stuck, n)
		}
		sort.Strings(stuck)
		return nil, &CycleError{Nodes: stuck}
	}

	return plan, nil
}

// CycleDetection returns the sorted set of node names left over by Kahn's
// algorithm: repeatedly remove nodes with zero remaining in-degree (no
// remaining dependents); whatever remains after the sweep is reported.
// Nodes that merely depend on a cycle are peeled away; nodes that a cycle
// member depends on, directly or transitively, are reported with it.
func (g *Graph) CycleDetection() []string {
	remaining := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		remaining[n] = len(g.rdeps[n])
	}

	queue := make([]string, 0)
	for n, d := range remaining {
		if d == 0 {
			queue = append(queue, n)
		}
	}
	sort.Strings(queue)

	removed := make(map[string]struct{}, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, ok := removed[n]; ok {
			continue
		}
		removed[n] = struct{}{}
		var freed []string
		for dep := range g.deps[n] {
			if _, ok := removed[dep]; ok {
				continue
			}
			remaining[dep]--
			if remaining[dep] == 0 {
				freed = append(freed, dep)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	var cyclic []string
	for n := range g.nodes {
		if _, ok := removed[n]; !ok {
			cyclic = append(cyclic, n)
		}
	}
	sort.Strings(cyclic)
	return cyclic
}

// WouldCreateCycle reports whether adding the edge (from -> to) would make
// the graph cyclic. It never mutates the receiver.
func (g *Graph) WouldCreateCycle(from, to string) bool {
	clone := g.Clone()
	clone.AddEdge(from, to)
	return len(clone.CycleDetection()) > 0
}

// Clone returns a deep copy safe to mutate independently.
func (g *Graph) Clone() *Graph {
	out := New()
	for n := range g.nodes {
		out.AddNode(n)
	}
	for from, tos := range g.deps {
		for to := range tos {
			out.AddEdge(from, to)
		}
	}
	return out
}

// Sub returns the induced subgraph over needed, with edges restricted to
// pairs that are both in needed. Dependencies pointing outside needed are
// silently dropped; callers are expected to have already validated that
// every dependency of a needed node is itself needed.
func (g *Graph) Sub(needed map[string]struct{}) *Graph {
	out := New()
	for n := range needed {
		out.AddNode(n)
	}
	for n := range needed {
		for d := range g.deps[n] {
			if _, ok := needed[d]; ok {
				out.AddEdge(n, d)
			}
		}
	}
	return out
}
