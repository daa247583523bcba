package depgraph

import (
	"maps"
	"slices"
)

// Node is a package identity: a name, unique within the graph, and the
// version it resolved to. Version may be empty until metadata for the
// package has been seen.
type Node struct {
	Name    string
	Version string
}

// Edge is a dependency relationship: From requires To. Constraint holds the
// raw version requirement text ("" when unconstrained) and Optional marks
// dependencies that may be dropped, e.g. to break a cycle.
type Edge struct {
	From       string
	To         string
	Constraint string
	Optional   bool
}

// Graph is a directed dependency graph keyed by package name. It keeps both
// an outgoing and an incoming adjacency index; the incoming index is what
// conflict detection walks to find co-requirers of the same package.
//
// A Graph is built fresh for each resolution and discarded afterwards.
// It is not safe for concurrent use.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]Edge
	incoming map[string][]Edge
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]Edge),
		incoming: make(map[string][]Edge),
	}
}

// AddNode upserts the node for name and returns it.
//
// The upsert is idempotent: adding a name again with a version fills in a
// previously empty version but never overwrites a known one. The first
// known version wins.
func (g *Graph) AddNode(name, version string) *Node {
	if n, ok := g.nodes[name]; ok {
		if n.Version == "" && version != "" {
			n.Version = version
		}
		return n
	}
	n := &Node{Name: name, Version: version}
	g.nodes[name] = n
	return n
}

// AddEdge records that from requires to, upserting both endpoints first.
//
// Parallel edges between the same pair are kept as-is; they are semantically
// redundant but harmless, and the ordering algorithms account for them.
func (g *Graph) AddEdge(from, to, constraint string, optional bool) {
	g.AddNode(from, "")
	g.AddNode(to, "")
	e := Edge{From: from, To: to, Constraint: constraint, Optional: optional}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], e)
	g.incoming[to] = append(g.incoming[to], e)
}

// RemoveEdge removes the first edge from→to if one exists and reports
// whether an edge was removed.
func (g *Graph) RemoveEdge(from, to string) bool {
	return g.removeEdge(from, to, false)
}

// removeOptionalEdge removes the first optional edge from→to.
func (g *Graph) removeOptionalEdge(from, to string) bool {
	return g.removeEdge(from, to, true)
}

func (g *Graph) removeEdge(from, to string, optionalOnly bool) bool {
	match := func(e Edge) bool {
		return e.From == from && e.To == to && (!optionalOnly || e.Optional)
	}

	idx := slices.IndexFunc(g.edges, match)
	if idx < 0 {
		return false
	}
	g.edges = slices.Delete(g.edges, idx, idx+1)

	if i := slices.IndexFunc(g.outgoing[from], match); i >= 0 {
		g.outgoing[from] = slices.Delete(g.outgoing[from], i, i+1)
	}
	if i := slices.IndexFunc(g.incoming[to], match); i >= 0 {
		g.incoming[to] = slices.Delete(g.incoming[to], i, i+1)
	}
	return true
}

// Node returns the node with the given name and true, or nil and false.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes. The order is not guaranteed.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// Names returns all node names in sorted order.
func (g *Graph) Names() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Outgoing returns the edges leaving name: the dependencies name requires.
// The returned slice is a read-only view.
func (g *Graph) Outgoing(name string) []Edge { return g.outgoing[name] }

// Incoming returns the edges entering name: one per package that requires
// name. The returned slice is a read-only view.
func (g *Graph) Incoming(name string) []Edge { return g.incoming[name] }

// OutDegree returns the number of outgoing edges from name.
func (g *Graph) OutDegree(name string) int { return len(g.outgoing[name]) }

// InDegree returns the number of incoming edges to name.
func (g *Graph) InDegree(name string) int { return len(g.incoming[name]) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }
