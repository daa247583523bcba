// Package depgraph provides the directed dependency graph at the heart of
// resolution: package-identity nodes keyed by name, constraint-carrying
// edges, cycle detection and breaking, and installation ordering.
//
// # Building a graph
//
// Nodes and edges are upserted rather than inserted; re-adding a package
// fills in missing information but never overwrites what is already known:
//
//	g := depgraph.New()
//	g.AddNode("requests", "2.31.0")
//	g.AddEdge("requests", "urllib3", ">=1.21.1", false)
//	g.AddEdge("requests", "certifi", "", false)
//
// # Ordering
//
// [Graph.InstallOrder] is the high-level entry point: it tries a
// deterministic topological order, breaks cycles along optional edges when
// needed, and degrades to an out-degree-ascending best-effort order for
// graphs whose cycles cannot be broken. Ordering never fails outright; the
// degraded flag tells the caller which kind of order it got.
package depgraph
