package cli

import (
	"github.com/spf13/cobra"

	"github.com/kpmtools/kpm/internal/api"
)

// serveCommand creates the serve command for running the HTTP resolution API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags resolveFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP resolution API",
		Long: `Run the HTTP resolution API.

Exposes POST /api/v1/resolve, which accepts a JSON body with the requested
package names and returns the full resolution report. Resolution reports
are cached per request shape; use --no-cache to disable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.newResolution(cmd, &flags)
			if err != nil {
				return err
			}
			defer res.Close()

			reportCache, err := newCache(cmd, flags.noCache, flags.redisAddr)
			if err != nil {
				return err
			}
			defer reportCache.Close()

			srv := api.New(api.Options{
				Resolver: res.resolver,
				Cache:    reportCache,
				Logger:   c.Logger,
			})

			printInfo("Listening on %s", addr)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8420", "listen address")

	return cmd
}
