package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// orderCommand creates the order command: installation order only, one
// package per line, suitable for piping into install scripts.
func (c *CLI) orderCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "order <package>...",
		Short: "Print the installation order for the requested packages",
		Long: `Print the installation order for the requested packages.

Dependencies come before dependents. When circular dependencies make a
valid order impossible even after dropping optional edges, a best-effort
order is printed and a warning is logged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.newResolution(cmd, &flags)
			if err != nil {
				return err
			}
			defer res.Close()

			order, missing := res.resolver.Resolve(cmd.Context(), args, flags.includeInstalled)
			for _, name := range order {
				fmt.Println(name)
			}
			if len(missing) > 0 {
				printWarning("%d packages not found in any source", len(missing))
				for _, name := range missing {
					printDetail("%s", name)
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
