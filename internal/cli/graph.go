package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kpmtools/kpm/pkg/report"
)

// graphCommand creates the graph command for exporting the dependency
// graph in machine-readable or visual formats.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		flags    resolveFlags
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <package>...",
		Short: "Export the dependency graph as JSON, DOT, or SVG",
		Long: `Export the dependency graph as JSON, DOT, or SVG.

The JSON format is a plain nodes-and-edges document. DOT is Graphviz
source, with optional dependencies drawn dashed; SVG is the same graph
rendered through Graphviz. Use --detailed to include resolved versions and
constraint labels.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.newResolution(cmd, &flags)
			if err != nil {
				return err
			}
			defer res.Close()

			g, missing := res.resolver.BuildGraph(cmd.Context(), args, flags.includeInstalled)
			if len(missing) > 0 {
				printWarning("%d packages not found; graph is partial", len(missing))
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			switch strings.ToLower(format) {
			case "json":
				err = report.WriteGraphJSON(g, out)
			case "dot":
				_, err = fmt.Fprint(out, report.ToDOT(g, report.DOTOptions{Detailed: detailed}))
			case "svg":
				var svg []byte
				svg, err = report.RenderSVG(report.ToDOT(g, report.DOTOptions{Detailed: detailed}))
				if err == nil {
					_, err = out.Write(svg)
				}
			default:
				return fmt.Errorf("unknown format %q: want json, dot, or svg", format)
			}
			if err != nil {
				return err
			}

			if output != "" {
				printSuccess("Graph exported")
				printFile(output)
				printStats(g.NodeCount(), g.EdgeCount())
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include versions and constraint labels")

	return cmd
}
