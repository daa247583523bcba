package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kpmtools/kpm/pkg/resolver"
)

var errConflictsFound = errors.New("version conflicts found")

// conflictsCommand creates the conflicts command: graph-wide version
// conflict detection without the rest of the report.
func (c *CLI) conflictsCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "conflicts <package>...",
		Short: "Report packages with incompatible version requirements",
		Long: `Report packages with incompatible version requirements.

Detection is conservative: only provably disjoint bounds and disagreeing
exact pins are reported. Constraints that cannot be interpreted are assumed
compatible. The command exits non-zero when conflicts are found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.newResolution(cmd, &flags)
			if err != nil {
				return err
			}
			defer res.Close()

			g, _ := res.resolver.BuildGraph(cmd.Context(), args, flags.includeInstalled)
			conflicts := resolver.CheckVersionConflicts(g)
			if len(conflicts) == 0 {
				printSuccess("No version conflicts")
				return nil
			}

			for _, pc := range conflicts {
				printError("Version conflict on %s", pc.Package)
				for _, conflict := range pc.Conflicts {
					printDetail("%s requires %s", conflict.RequiringPackage, conflict.RequiredVersion)
				}
			}
			return errConflictsFound
		},
	}

	flags.register(cmd)
	return cmd
}
