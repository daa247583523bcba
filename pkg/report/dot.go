package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/kpmtools/kpm/pkg/depgraph"
)

// DOTOptions configures DOT rendering of a dependency graph.
type DOTOptions struct {
	// Detailed includes resolved versions in node labels and constraint
	// text on edge labels. When false, only package names are shown.
	Detailed bool
}

// ToDOT converts a dependency graph to Graphviz DOT format.
// The resulting DOT string can be rendered with [RenderSVG].
//
// Optional dependency edges are drawn dashed to distinguish them from
// required ones.
func ToDOT(g *depgraph.Graph, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph deps {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range g.Names() {
		n, _ := g.Node(name)
		label := n.Name
		if opts.Detailed && n.Version != "" {
			label = fmt.Sprintf("%s\n%s", n.Name, n.Version)
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.Name, label)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := ""
		if opts.Detailed && e.Constraint != "" {
			attrs = fmt.Sprintf(" [label=%q]", e.Constraint)
		}
		if e.Optional {
			if attrs == "" {
				attrs = " [style=dashed]"
			} else {
				attrs = fmt.Sprintf(" [label=%q, style=dashed]", e.Constraint)
			}
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
