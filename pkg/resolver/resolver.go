// Package resolver orchestrates dependency resolution: it expands requested
// package names into a full dependency graph using a metadata provider,
// computes the installation order, runs conflict detection, and assembles
// the resolution report.
//
// Resolution is deliberately best-effort. Missing packages, cycles, depth
// overruns and version conflicts are all recorded and reported, never
// raised: the policy decision of whether to proceed belongs to the caller,
// not to this package.
package resolver

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kpmtools/kpm/pkg/depgraph"
	"github.com/kpmtools/kpm/pkg/observability"
	"github.com/kpmtools/kpm/pkg/source"
)

// DefaultMaxDepth bounds transitive expansion. Real dependency chains
// rarely pass a dozen levels; anything deeper is almost certainly a
// runaway graph.
const DefaultMaxDepth = 20

// Options configures a [Resolver].
type Options struct {
	// Live is the repository metadata provider, always consulted first.
	Live source.Source

	// Installed is the installed-package fallback, consulted only when a
	// resolution asks for it. May be nil.
	Installed source.Source

	// MaxDepth bounds transitive expansion; 0 means DefaultMaxDepth.
	MaxDepth int

	// Logger receives warnings about skipped branches, cycles and
	// conflicts. Nil discards them.
	Logger *log.Logger
}

// Resolver builds dependency graphs and reports. A Resolver holds no
// per-resolution state; each call owns a fresh graph.
type Resolver struct {
	live      source.Source
	installed source.Source
	maxDepth  int
	logger    *log.Logger
}

// New creates a resolver from opts. Options.Live must be set.
func New(opts Options) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Resolver{
		live:      opts.Live,
		installed: opts.Installed,
		maxDepth:  opts.MaxDepth,
		logger:    opts.Logger,
	}
}

// WithMaxDepth returns a resolver sharing this one's sources but bounded to
// the given transitive depth. A depth of zero or less keeps the current
// bound. Resolvers hold no per-resolution state, so the copy is cheap and
// both may be used concurrently.
func (r *Resolver) WithMaxDepth(depth int) *Resolver {
	if depth <= 0 {
		return r
	}
	bounded := *r
	bounded.maxDepth = depth
	return &bounded
}

// Resolve expands the requested packages and returns the installation order
// together with the names that could not be found in any source. It never
// fails outright; an unbreakable cycle degrades the order (see
// [depgraph.Graph.InstallOrder]) and missing packages become skipped
// branches.
func (r *Resolver) Resolve(ctx context.Context, requested []string, includeInstalled bool) (order []string, missing []string) {
	g, missing := r.BuildGraph(ctx, requested, includeInstalled)
	order, degraded := g.InstallOrder()
	if degraded {
		r.logger.Warn("no valid installation order; using best-effort order", "packages", len(order))
	}
	return order, missing
}

// BuildGraph expands the requested packages into a dependency graph and
// returns it along with the sorted names missing from every source.
//
// Expansion is an iterative worklist with one visited set for the whole
// call: a package reached through several paths gets all its incoming
// edges recorded, but its own subtree is expanded exactly once.
func (r *Resolver) BuildGraph(ctx context.Context, requested []string, includeInstalled bool) (*depgraph.Graph, []string) {
	g := depgraph.New()
	visited := make(map[string]bool)
	notFound := make(map[string]bool)

	type frame struct {
		name  string
		depth int
	}

	// Stack seeded in reverse so expansion starts with the first request.
	stack := make([]frame, 0, len(requested))
	for i := len(requested) - 1; i >= 0; i-- {
		if requested[i] != "" {
			stack = append(stack, frame{name: requested[i]})
		}
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[f.name] || notFound[f.name] {
			continue
		}
		if f.depth > r.maxDepth {
			r.logger.Warn("max dependency depth exceeded; truncating branch",
				"package", f.name, "depth", f.depth, "max_depth", r.maxDepth)
			continue
		}

		info, err := r.lookup(ctx, f.name, includeInstalled)
		if err != nil {
			if errors.Is(err, source.ErrNotFound) {
				r.logger.Warn("package not found in any source", "package", f.name)
				notFound[f.name] = true
				continue
			}
			// Provider failure: skip the branch like a missing package
			// rather than aborting the whole resolution.
			r.logger.Error("metadata lookup failed; skipping branch", "package", f.name, "err", err)
			notFound[f.name] = true
			continue
		}
		visited[f.name] = true

		g.AddNode(f.name, info.Version)

		// Children pushed in reverse to preserve declaration order.
		for i := len(info.Dependencies) - 1; i >= 0; i-- {
			dep := info.Dependencies[i]
			if dep.Name == "" {
				continue
			}

			// The edge is recorded regardless of whether the target was
			// already expanded; conflict detection needs every incoming
			// constraint even on diamond paths.
			g.AddEdge(f.name, dep.Name, effectiveConstraint(dep), dep.Optional)

			if !visited[dep.Name] && !notFound[dep.Name] {
				stack = append(stack, frame{name: dep.Name, depth: f.depth + 1})
			}
		}
	}

	missing := make([]string, 0, len(notFound))
	for name := range notFound {
		missing = append(missing, name)
	}
	sort.Strings(missing)

	return g, missing
}

// lookup consults the live source first and falls back to the installed
// database only when asked to.
func (r *Resolver) lookup(ctx context.Context, name string, includeInstalled bool) (*source.PackageInfo, error) {
	start := time.Now()
	info, err := r.doLookup(ctx, name, includeInstalled)
	observability.Resolver().OnLookup(ctx, name, err == nil, time.Since(start))
	return info, err
}

func (r *Resolver) doLookup(ctx context.Context, name string, includeInstalled bool) (*source.PackageInfo, error) {
	info, err := r.live.Lookup(ctx, name)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, source.ErrNotFound) {
		return nil, err
	}

	if includeInstalled && r.installed != nil {
		return r.installed.Lookup(ctx, name)
	}
	return nil, err
}

// effectiveConstraint derives the constraint recorded on an edge: an
// explicit requirement wins, a bare minimum version becomes ">=version",
// and otherwise the dependency is unconstrained.
func effectiveConstraint(dep source.Dependency) string {
	if dep.VersionReq != "" {
		return dep.VersionReq
	}
	if dep.Version != "" {
		return ">=" + dep.Version
	}
	return ""
}

// GenerateReport runs a full resolution and assembles the report: graph,
// installation order, missing packages, version conflicts, and the
// recursive dependency tree for each requested root.
func (r *Resolver) GenerateReport(ctx context.Context, requested []string, includeInstalled bool) *Report {
	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, requested)

	g, missing := r.BuildGraph(ctx, requested, includeInstalled)

	order, degraded := g.InstallOrder()
	if degraded {
		r.logger.Warn("no valid installation order; report carries best-effort order")
	}

	conflicts := CheckVersionConflicts(g)
	for _, pc := range conflicts {
		r.logger.Warn("version conflict detected", "package", pc.Package, "requirers", len(pc.Conflicts))
	}

	notFound := make(map[string]bool, len(missing))
	for _, name := range missing {
		notFound[name] = true
	}

	tree := make(map[string]*TreeNode, len(requested))
	for _, name := range requested {
		tree[name] = buildTree(g, notFound, name, map[string]bool{})
	}

	observability.Resolver().OnResolveComplete(ctx, requested, g.NodeCount(), len(missing), len(conflicts), time.Since(start))

	return &Report{
		Packages:          requested,
		InstallationOrder: order,
		MissingPackages:   missing,
		VersionConflicts:  conflicts,
		DependencyTree:    tree,
		TotalDependencies: len(order),
		DegradedOrder:     degraded,
	}
}
