package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpmtools/kpm/pkg/cache"
	"github.com/kpmtools/kpm/pkg/resolver"
	"github.com/kpmtools/kpm/pkg/source"
	"github.com/kpmtools/kpm/pkg/source/installed"
	"github.com/kpmtools/kpm/pkg/source/mongodb"
	"github.com/kpmtools/kpm/pkg/source/registry"
	"github.com/kpmtools/kpm/pkg/source/remote"
)

// resolveFlags are the flags shared by every command that runs a resolution.
type resolveFlags struct {
	registries       []string
	remotes          []string
	mongoURI         string
	mongoDatabase    string
	mongoCollection  string
	installedDB      string
	includeInstalled bool
	maxDepth         int
	noCache          bool
	refresh          bool
	redisAddr        string
}

// register adds the shared resolution flags to cmd.
func (f *resolveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.registries, "registry", "r", nil, "registry directory (repeatable; first hit wins)")
	cmd.Flags().StringArrayVar(&f.remotes, "remote", nil, "remote registry base URL (repeatable)")
	cmd.Flags().StringVar(&f.mongoURI, "mongo", "", "MongoDB connection URI for registry metadata")
	cmd.Flags().StringVar(&f.mongoDatabase, "mongo-db", "kpm", "MongoDB database name")
	cmd.Flags().StringVar(&f.mongoCollection, "mongo-collection", "packages", "MongoDB collection name")
	cmd.Flags().StringVar(&f.installedDB, "installed-db", "", "path to the installed-packages database")
	cmd.Flags().BoolVar(&f.includeInstalled, "include-installed", false, "fall back to installed packages for missing metadata")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", resolver.DefaultMaxDepth, "maximum transitive dependency depth")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable metadata caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached metadata and re-fetch")
	cmd.Flags().StringVar(&f.redisAddr, "redis", "", "Redis address for the metadata cache (host:port)")
}

// resolution bundles the resolver with the resources it borrowed, so
// commands can release them when done.
type resolution struct {
	resolver *resolver.Resolver
	closers  []func() error
}

func (r *resolution) Close() {
	for _, fn := range r.closers {
		_ = fn()
	}
}

// newResolution builds a resolver from the shared flags: every registry
// directory and the optional MongoDB collection are combined into one live
// source with first-hit-wins semantics, wrapped in the metadata cache.
func (c *CLI) newResolution(cmd *cobra.Command, f *resolveFlags) (*resolution, error) {
	if len(f.registries) == 0 && len(f.remotes) == 0 && f.mongoURI == "" {
		return nil, fmt.Errorf("no metadata source: pass --registry, --remote, or --mongo")
	}

	res := &resolution{}

	var live source.Multi
	for _, dir := range f.registries {
		live = append(live, registry.NewDir(dir))
	}
	for _, base := range f.remotes {
		live = append(live, remote.NewRegistry(base, nil))
	}
	if f.mongoURI != "" {
		coll, err := mongodb.Connect(cmd.Context(), f.mongoURI, f.mongoDatabase, f.mongoCollection)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		res.closers = append(res.closers, func() error { return coll.Close(cmd.Context()) })
		live = append(live, coll)
	}

	metaCache, err := newCache(cmd, f.noCache, f.redisAddr)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}
	res.closers = append(res.closers, metaCache.Close)

	var installedSrc source.Source
	if f.installedDB != "" {
		installedSrc = installed.NewDB(f.installedDB)
	}

	res.resolver = resolver.New(resolver.Options{
		Live:      source.NewCached(live, metaCache, cache.NewDefaultKeyer(), "registry", f.refresh),
		Installed: installedSrc,
		MaxDepth:  f.maxDepth,
		Logger:    loggerFromContext(cmd.Context()),
	})
	return res, nil
}
