package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/kpmtools/kpm/pkg/depgraph"
)

type graphDoc struct {
	Nodes []graphNode `json:"nodes"`
	Edges []graphEdge `json:"edges"`
}

type graphNode struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type graphEdge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Constraint string `json:"constraint,omitempty"`
	Optional   bool   `json:"optional,omitempty"`
}

// WriteGraphJSON encodes a dependency graph as plain nodes-and-edges JSON
// and writes it to w. Nodes are sorted by name; edges keep insertion order.
func WriteGraphJSON(g *depgraph.Graph, w io.Writer) error {
	out := graphDoc{
		Nodes: make([]graphNode, 0, g.NodeCount()),
		Edges: make([]graphEdge, 0, g.EdgeCount()),
	}

	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, graphNode{Name: n.Name, Version: n.Version})
	}
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i].Name < out.Nodes[j].Name })

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, graphEdge{
			From:       e.From,
			To:         e.To,
			Constraint: e.Constraint,
			Optional:   e.Optional,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}
