package resolver

import (
	"github.com/kpmtools/kpm/pkg/depgraph"
)

// Report is the full result of a resolution, shaped for JSON serialization
// toward whatever sink the caller uses (file, terminal, HTTP response).
type Report struct {
	// Packages are the originally requested names.
	Packages []string `json:"packages"`

	// InstallationOrder lists every graph node exactly once, dependencies
	// before dependents — unless DegradedOrder is set.
	InstallationOrder []string `json:"installation_order"`

	// MissingPackages are names not found in any source, requested or
	// transitive, sorted.
	MissingPackages []string `json:"missing_packages"`

	// VersionConflicts groups detected pairwise conflicts by package.
	VersionConflicts []PackageConflicts `json:"version_conflicts"`

	// DependencyTree maps each requested name to its recursive tree.
	DependencyTree map[string]*TreeNode `json:"dependency_tree"`

	// TotalDependencies is the number of nodes in the installation order.
	TotalDependencies int `json:"total_dependencies"`

	// DegradedOrder marks an installation order produced by the
	// out-degree fallback after unbreakable cycles: best-effort, not
	// topologically valid.
	DegradedOrder bool `json:"degraded_order,omitempty"`
}

// PackageConflicts collects every conflicting requirement on one package.
type PackageConflicts struct {
	Package   string     `json:"package"`
	Conflicts []Conflict `json:"conflicts"`
}

// Conflict is one side of a pairwise requirement conflict.
type Conflict struct {
	RequiringPackage string `json:"requiring_package"`
	RequiredVersion  string `json:"required_version"`
	Description      string `json:"description"`
}

// TreeNode is one node of the recursive dependency tree. Circular marks a
// package that reappears on its own dependency path; NotFound marks a
// package with no metadata anywhere. Both cut the tree at that point.
type TreeNode struct {
	Name            string      `json:"name"`
	Version         string      `json:"version,omitempty"`
	RequiredVersion string      `json:"required_version,omitempty"`
	Optional        bool        `json:"optional,omitempty"`
	Circular        bool        `json:"circular,omitempty"`
	NotFound        bool        `json:"not_found,omitempty"`
	Dependencies    []*TreeNode `json:"dependencies,omitempty"`
}

// buildTree walks the outgoing edges of name depth-first. The path set is
// local to the current branch: a diamond dependency appears in full under
// each parent, only a genuine back-reference is marked circular.
func buildTree(g *depgraph.Graph, notFound map[string]bool, name string, path map[string]bool) *TreeNode {
	if path[name] {
		return &TreeNode{Name: name, Circular: true}
	}

	node, ok := g.Node(name)
	if !ok || notFound[name] {
		return &TreeNode{Name: name, NotFound: true}
	}

	path[name] = true
	defer delete(path, name)

	tree := &TreeNode{Name: name, Version: node.Version}
	for _, e := range g.Outgoing(name) {
		child := buildTree(g, notFound, e.To, path)
		child.RequiredVersion = e.Constraint
		child.Optional = e.Optional
		tree.Dependencies = append(tree.Dependencies, child)
	}
	return tree
}
