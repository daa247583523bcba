package resolver

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/kpmtools/kpm/pkg/source"
)

// memSource serves fixed metadata and counts lookups per package.
type memSource struct {
	packages map[string]*source.PackageInfo
	lookups  map[string]int
}

func newMemSource(packages map[string]*source.PackageInfo) *memSource {
	return &memSource{packages: packages, lookups: map[string]int{}}
}

func (m *memSource) Lookup(ctx context.Context, name string) (*source.PackageInfo, error) {
	m.lookups[name]++
	info, ok := m.packages[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, source.ErrNotFound)
	}
	return info, nil
}

func pkg(name, version string, deps ...source.Dependency) *source.PackageInfo {
	return &source.PackageInfo{Name: name, Version: version, Dependencies: deps}
}

func dep(name, req string) source.Dependency {
	return source.Dependency{Name: name, VersionReq: req}
}

func TestResolveChain(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"app":  pkg("app", "1.0.0", dep("lib", ">=2.0.0")),
		"lib":  pkg("lib", "2.1.0", dep("core", "")),
		"core": pkg("core", "0.9.0"),
	})
	r := New(Options{Live: live})

	order, missing := r.Resolve(context.Background(), []string{"app"}, false)

	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
	want := []string{"core", "lib", "app"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestResolveMissingTransitive(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"a": pkg("a", "1.0.0", dep("b", "")),
	})
	r := New(Options{Live: live})

	order, missing := r.Resolve(context.Background(), []string{"a"}, false)

	if !slices.Equal(missing, []string{"b"}) {
		t.Errorf("missing = %v, want [b]", missing)
	}
	if !slices.Contains(order, "a") {
		t.Errorf("order = %v, want it to contain a despite the missing dep", order)
	}
}

func TestResolveMissingRequested(t *testing.T) {
	r := New(Options{Live: newMemSource(nil)})

	order, missing := r.Resolve(context.Background(), []string{"ghost"}, false)

	if !slices.Equal(missing, []string{"ghost"}) {
		t.Errorf("missing = %v, want [ghost]", missing)
	}
	if len(order) != 0 {
		t.Errorf("order = %v, want empty", order)
	}
}

func TestResolveDiamondExpandsOnce(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"top":   pkg("top", "1.0.0", dep("left", ""), dep("right", "")),
		"left":  pkg("left", "1.0.0", dep("base", ">=1.0.0")),
		"right": pkg("right", "1.0.0", dep("base", "<=2.0.0")),
		"base":  pkg("base", "1.5.0"),
	})
	r := New(Options{Live: live})

	g, missing := r.BuildGraph(context.Background(), []string{"top"}, false)

	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
	if live.lookups["base"] != 1 {
		t.Errorf("base looked up %d times, want 1 (subtree expanded once)", live.lookups["base"])
	}
	// Both incoming edges must still be recorded for conflict detection.
	if got := g.InDegree("base"); got != 2 {
		t.Errorf("InDegree(base) = %d, want 2", got)
	}
}

func TestWithMaxDepth(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"a": pkg("a", "1.0.0", dep("b", "")),
		"b": pkg("b", "1.0.0", dep("c", "")),
		"c": pkg("c", "1.0.0"),
	})
	r := New(Options{Live: live})

	g, _ := r.WithMaxDepth(1).BuildGraph(context.Background(), []string{"a"}, false)
	if live.lookups["c"] != 0 {
		t.Errorf("c looked up %d times at depth bound 1, want 0", live.lookups["c"])
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3 (the truncated node keeps its inbound edge)", g.NodeCount())
	}

	// Zero and negative keep the receiver's bound unchanged.
	if r.WithMaxDepth(0) != r || r.WithMaxDepth(-3) != r {
		t.Error("non-positive depth should return the resolver unchanged")
	}

	g, _ = r.BuildGraph(context.Background(), []string{"a"}, false)
	if live.lookups["c"] != 1 {
		t.Errorf("c looked up %d times unbounded, want 1 (bounded copy must not alter the original)", live.lookups["c"])
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
}

func TestResolveDepthGuard(t *testing.T) {
	// p0 -> p1 -> p2 -> p3, resolved with MaxDepth 2.
	packages := map[string]*source.PackageInfo{}
	for i := range 4 {
		name := fmt.Sprintf("p%d", i)
		info := pkg(name, "1.0.0")
		if i < 3 {
			info.Dependencies = []source.Dependency{dep(fmt.Sprintf("p%d", i+1), "")}
		}
		packages[name] = info
	}
	live := newMemSource(packages)
	r := New(Options{Live: live, MaxDepth: 2})

	g, missing := r.BuildGraph(context.Background(), []string{"p0"}, false)

	if len(missing) != 0 {
		t.Errorf("missing = %v, want none (depth overrun is not a missing package)", missing)
	}
	if live.lookups["p3"] != 0 {
		t.Errorf("p3 looked up %d times, want 0 (branch truncated at max depth)", live.lookups["p3"])
	}
	// The truncated node still exists via its incoming edge.
	if _, ok := g.Node("p3"); !ok {
		t.Error("p3 missing from graph, want upserted by edge")
	}
}

func TestResolveInstalledFallback(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"app": pkg("app", "1.0.0", dep("legacy", "")),
	})
	installed := newMemSource(map[string]*source.PackageInfo{
		"legacy": pkg("legacy", "0.4.0"),
	})
	r := New(Options{Live: live, Installed: installed})

	// Without the flag, the installed database is never consulted.
	_, missing := r.Resolve(context.Background(), []string{"app"}, false)
	if !slices.Equal(missing, []string{"legacy"}) {
		t.Errorf("missing = %v, want [legacy] when installed lookup is off", missing)
	}
	if installed.lookups["legacy"] != 0 {
		t.Errorf("installed consulted %d times, want 0", installed.lookups["legacy"])
	}

	order, missing := r.Resolve(context.Background(), []string{"app"}, true)
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none with installed fallback", missing)
	}
	if !slices.Equal(order, []string{"legacy", "app"}) {
		t.Errorf("order = %v, want [legacy app]", order)
	}
}

func TestResolveLivePreferredOverInstalled(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"a": pkg("a", "2.0.0"),
	})
	installed := newMemSource(map[string]*source.PackageInfo{
		"a": pkg("a", "1.0.0"),
	})
	r := New(Options{Live: live, Installed: installed})

	g, _ := r.BuildGraph(context.Background(), []string{"a"}, true)

	n, ok := g.Node("a")
	if !ok || n.Version != "2.0.0" {
		t.Errorf("a resolved to %+v, want live version 2.0.0", n)
	}
}

func TestGenerateReportBasic(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"app": pkg("app", "1.0.0",
			dep("lib", ">=2.0.0"),
			source.Dependency{Name: "extras", VersionReq: "^1.0.0", Optional: true}),
		"lib":    pkg("lib", "2.1.0"),
		"extras": pkg("extras", "1.2.0"),
	})
	r := New(Options{Live: live})

	rep := r.GenerateReport(context.Background(), []string{"app"}, false)

	if !slices.Equal(rep.Packages, []string{"app"}) {
		t.Errorf("Packages = %v, want [app]", rep.Packages)
	}
	if rep.TotalDependencies != 3 || len(rep.InstallationOrder) != 3 {
		t.Errorf("TotalDependencies = %d, order = %v, want 3 nodes", rep.TotalDependencies, rep.InstallationOrder)
	}
	if rep.DegradedOrder {
		t.Error("DegradedOrder = true, want false")
	}
	if len(rep.MissingPackages) != 0 || len(rep.VersionConflicts) != 0 {
		t.Errorf("missing=%v conflicts=%v, want none", rep.MissingPackages, rep.VersionConflicts)
	}

	tree := rep.DependencyTree["app"]
	if tree == nil || tree.Version != "1.0.0" {
		t.Fatalf("tree root = %+v, want app@1.0.0", tree)
	}
	if len(tree.Dependencies) != 2 {
		t.Fatalf("root children = %d, want 2", len(tree.Dependencies))
	}
	if c := tree.Dependencies[0]; c.Name != "lib" || c.RequiredVersion != ">=2.0.0" {
		t.Errorf("child[0] = %+v, want lib required >=2.0.0", c)
	}
	if c := tree.Dependencies[1]; c.Name != "extras" || !c.Optional {
		t.Errorf("child[1] = %+v, want optional extras", c)
	}
}

func TestGenerateReportDegradedCycle(t *testing.T) {
	// a→b→c→a all required, plus b→d optional outside the cycle: nothing
	// can be broken, so the report falls back to out-degree order.
	live := newMemSource(map[string]*source.PackageInfo{
		"a": pkg("a", "1.0.0", dep("b", "")),
		"b": pkg("b", "1.0.0", dep("c", ""),
			source.Dependency{Name: "d", Optional: true}),
		"c": pkg("c", "1.0.0", dep("a", "")),
		"d": pkg("d", "1.0.0"),
	})
	r := New(Options{Live: live})

	rep := r.GenerateReport(context.Background(), []string{"a"}, false)

	if !rep.DegradedOrder {
		t.Fatal("DegradedOrder = false, want true for an unbreakable cycle")
	}
	want := []string{"d", "a", "c", "b"}
	if !slices.Equal(rep.InstallationOrder, want) {
		t.Errorf("InstallationOrder = %v, want out-degree ascending %v", rep.InstallationOrder, want)
	}

	// The tree marks the back-reference, not the whole cycle.
	node := rep.DependencyTree["a"]
	for _, step := range []string{"b", "c", "a"} {
		if len(node.Dependencies) == 0 {
			t.Fatalf("tree cut short before %s", step)
		}
		node = node.Dependencies[0]
		if node.Name != step {
			t.Fatalf("tree step = %q, want %q", node.Name, step)
		}
	}
	if !node.Circular {
		t.Error("innermost a not marked circular")
	}
}

func TestGenerateReportConflictsAndMissing(t *testing.T) {
	live := newMemSource(map[string]*source.PackageInfo{
		"a": pkg("a", "1.0.0", dep("x", ">=2.0.0"), dep("gone", "")),
		"b": pkg("b", "1.0.0", dep("x", "<=1.0.0")),
		"x": pkg("x", "1.5.0"),
	})
	r := New(Options{Live: live})

	rep := r.GenerateReport(context.Background(), []string{"a", "b"}, false)

	if !slices.Equal(rep.MissingPackages, []string{"gone"}) {
		t.Errorf("MissingPackages = %v, want [gone]", rep.MissingPackages)
	}
	if len(rep.VersionConflicts) != 1 || rep.VersionConflicts[0].Package != "x" {
		t.Fatalf("VersionConflicts = %+v, want one for x", rep.VersionConflicts)
	}

	// The missing package is marked in the tree.
	var goneNode *TreeNode
	for _, c := range rep.DependencyTree["a"].Dependencies {
		if c.Name == "gone" {
			goneNode = c
		}
	}
	if goneNode == nil || !goneNode.NotFound {
		t.Errorf("gone tree node = %+v, want not_found", goneNode)
	}
}

func TestGenerateReportMissingRoot(t *testing.T) {
	r := New(Options{Live: newMemSource(nil)})

	rep := r.GenerateReport(context.Background(), []string{"ghost"}, false)

	node := rep.DependencyTree["ghost"]
	if node == nil || !node.NotFound {
		t.Errorf("tree[ghost] = %+v, want not_found", node)
	}
}

func TestEffectiveConstraint(t *testing.T) {
	tests := []struct {
		dep  source.Dependency
		want string
	}{
		{source.Dependency{Name: "a", VersionReq: "^1.0.0"}, "^1.0.0"},
		{source.Dependency{Name: "a", VersionReq: "^1.0.0", Version: "2.0.0"}, "^1.0.0"},
		{source.Dependency{Name: "a", Version: "2.0.0"}, ">=2.0.0"},
		{source.Dependency{Name: "a"}, ""},
	}
	for _, tt := range tests {
		if got := effectiveConstraint(tt.dep); got != tt.want {
			t.Errorf("effectiveConstraint(%+v) = %q, want %q", tt.dep, got, tt.want)
		}
	}
}
