package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kpmtools/kpm/pkg/resolver"
)

// treeCommand creates the tree command for printing the recursive
// dependency tree of each requested package.
func (c *CLI) treeCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "tree <package>...",
		Short: "Print the recursive dependency tree",
		Long: `Print the recursive dependency tree.

Each requested package becomes a root. Shared dependencies appear in full
under every parent; a package that reappears on its own dependency path is
marked (circular) and the branch stops there. Packages missing from every
source are marked (not found).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.newResolution(cmd, &flags)
			if err != nil {
				return err
			}
			defer res.Close()

			rep := res.resolver.GenerateReport(cmd.Context(), args, flags.includeInstalled)
			for _, name := range args {
				fmt.Print(renderTree(rep.DependencyTree[name]))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// renderTree formats a dependency tree with box-drawing connectors.
func renderTree(root *resolver.TreeNode) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(treeLabel(root))
	b.WriteByte('\n')
	renderChildren(&b, root, "")
	return b.String()
}

func renderChildren(b *strings.Builder, node *resolver.TreeNode, prefix string) {
	for i, child := range node.Dependencies {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(node.Dependencies)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix + connector + treeLabel(child) + "\n")
		renderChildren(b, child, childPrefix)
	}
}

// treeLabel formats one node: name, resolved version, the requirement it
// was reached through, and its markers.
func treeLabel(n *resolver.TreeNode) string {
	label := n.Name
	if n.Version != "" {
		label += "@" + n.Version
	}
	if n.RequiredVersion != "" {
		label += " (requires " + n.RequiredVersion + ")"
	}
	if n.Optional {
		label += " (optional)"
	}
	if n.Circular {
		label += " (circular)"
	}
	if n.NotFound {
		label += " (not found)"
	}
	return label
}
