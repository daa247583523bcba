package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kpmtools/kpm/pkg/report"
	"github.com/kpmtools/kpm/pkg/resolver"
	"github.com/kpmtools/kpm/pkg/source/manifest"
)

// resolveCommand creates the resolve command, the main entry point: it
// builds the full dependency graph and emits the resolution report.
func (c *CLI) resolveCommand() *cobra.Command {
	var (
		flags        resolveFlags
		manifestPath string
		output       string
		jsonOnly     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [package]...",
		Short: "Resolve packages and emit the full resolution report",
		Long: `Resolve packages and emit the full resolution report.

The resolve command expands the requested packages into a dependency graph,
computes the installation order, detects version conflicts, and reports
packages missing from every metadata source. Resolution is best-effort:
missing packages and unbreakable cycles are reported, not fatal.

Packages come from the command line, from a project manifest via
--manifest, or both. The report is printed as a human-readable summary by
default; use --json for the machine-readable report on stdout, or --output
to write it to a file.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath != "" {
				m, err := manifest.Load(manifestPath)
				if err != nil {
					return err
				}
				args = append(m.Requested(), args...)
			}
			if len(args) == 0 {
				return fmt.Errorf("nothing to resolve: pass package names or --manifest")
			}

			res, err := c.newResolution(cmd, &flags)
			if err != nil {
				return err
			}
			defer res.Close()

			prog := newProgress(c.Logger)
			rep := res.resolver.GenerateReport(cmd.Context(), args, flags.includeInstalled)
			prog.done(fmt.Sprintf("Resolved %d packages", rep.TotalDependencies))

			if output != "" {
				if err := report.ExportJSON(rep, output); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				printSuccess("Report written")
				printFile(output)
				return nil
			}
			if jsonOnly {
				return report.WriteJSON(rep, os.Stdout)
			}

			printReportSummary(rep)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "resolve the dependencies declared in a project manifest")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the JSON report to a file")
	cmd.Flags().BoolVar(&jsonOnly, "json", false, "print the JSON report to stdout")

	return cmd
}

// printReportSummary renders the human-readable form of a report.
func printReportSummary(rep *resolver.Report) {
	printInfo("Requested: %s", strings.Join(rep.Packages, ", "))
	printKeyValue("packages", fmt.Sprintf("%d", rep.TotalDependencies))

	if rep.DegradedOrder {
		printWarning("No valid installation order exists; showing best-effort order")
	}
	printInfo("Installation order:")
	for i, name := range rep.InstallationOrder {
		printDetail("%2d. %s", i+1, name)
	}

	if len(rep.MissingPackages) > 0 {
		printWarning("Missing packages: %s", strings.Join(rep.MissingPackages, ", "))
	}
	for _, pc := range rep.VersionConflicts {
		printError("Version conflict on %s", pc.Package)
		for _, conflict := range pc.Conflicts {
			printDetail("%s requires %s", conflict.RequiringPackage, conflict.RequiredVersion)
		}
	}
	if len(rep.MissingPackages) == 0 && len(rep.VersionConflicts) == 0 {
		printSuccess("No missing packages or version conflicts")
	}
}
