package depgraph

import (
	"errors"
	"slices"
	"sort"
)

// ErrCycle is returned by [Graph.TopologicalOrder] when no valid order
// exists because the graph contains at least one cycle.
var ErrCycle = errors.New("graph contains a cycle")

// TopologicalOrder returns all node names in installation order: for every
// edge (from requires to), to appears before from. Ties are broken by name
// so the result is deterministic for a given graph.
//
// Returns ErrCycle when the graph cannot be linearized.
func (g *Graph) TopologicalOrder() ([]string, error) {
	// Kahn's algorithm driven by unmet-dependency counts. Parallel edges
	// are counted consistently on both sides, so they cancel out.
	pending := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		pending[name] = len(g.outgoing[name])
	}

	var ready []string
	for name, n := range pending {
		if n == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, e := range g.incoming[name] {
			pending[e.From]--
			if pending[e.From] == 0 {
				i, _ := slices.BinarySearch(ready, e.From)
				ready = slices.Insert(ready, i, e.From)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

// DetectCycles enumerates cycles in the graph. Each cycle is a list of node
// names in dependency order: [a b c] means a requires b, b requires c, and
// c requires a. A self-loop is reported as a single-element cycle.
//
// Detection uses depth-first search with the usual white/gray/black
// coloring; each back edge yields one cycle, so overlapping cycles within
// a strongly connected region may not all be listed.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var path []string
	var cycles [][]string

	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		path = append(path, name)
		for _, e := range g.outgoing[name] {
			switch color[e.To] {
			case white:
				dfs(e.To)
			case gray:
				// Back edge: the cycle is the path segment from the
				// gray node to here.
				start := slices.Index(path, e.To)
				cycles = append(cycles, slices.Clone(path[start:]))
			}
		}
		path = path[:len(path)-1]
		color[name] = black
	}

	for _, name := range g.Names() {
		if color[name] == white {
			dfs(name)
		}
	}
	return cycles
}

// BreakCycles removes, for every detected cycle, the first edge in cycle
// order whose Optional flag is set. Cycles made entirely of required edges
// are left unbroken. Returns the number of edges removed.
func (g *Graph) BreakCycles() int {
	removed := 0
	for _, cycle := range g.DetectCycles() {
		for i, from := range cycle {
			to := cycle[(i+1)%len(cycle)]
			if g.removeOptionalEdge(from, to) {
				removed++
				break
			}
		}
	}
	return removed
}

// InstallOrder computes the installation order for the graph.
//
// It first attempts a topological order; if that fails it breaks cycles via
// [Graph.BreakCycles] and retries. When cycles survive even that, it falls
// back to node names sorted ascending by out-degree (fewest outgoing edges
// first, ties by name) and reports degraded=true: the fallback is a
// best-effort order, not a topologically valid one.
func (g *Graph) InstallOrder() (order []string, degraded bool) {
	if order, err := g.TopologicalOrder(); err == nil {
		return order, false
	}

	g.BreakCycles()

	if order, err := g.TopologicalOrder(); err == nil {
		return order, false
	}

	names := g.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return g.OutDegree(names[i]) < g.OutDegree(names[j])
	})
	return names, true
}
