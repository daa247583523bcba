// Package registry implements the "live" metadata provider: a directory of
// per-package TOML index files, one file per package name.
//
// An index file carries the package's current version and its declared
// dependencies, which may be bare requirement strings or structured tables:
//
//	name = "requests"
//	version = "2.31.0"
//	dependencies = [
//	    "urllib3>=1.21.1",
//	    { name = "pysocks", version_req = ">=1.5.6", optional = true },
//	]
//
// A file may instead list historical releases; the highest semantic version
// among them is served as current:
//
//	name = "flask"
//
//	[[releases]]
//	version = "2.3.0"
//	dependencies = ["werkzeug>=2.3.0", "jinja2>=3.1.2"]
//
//	[[releases]]
//	version = "3.0.0"
//	dependencies = ["werkzeug>=3.0.0", "jinja2>=3.1.2"]
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	kpmerrors "github.com/kpmtools/kpm/pkg/errors"
	"github.com/kpmtools/kpm/pkg/source"
)

// Dir serves package metadata from one registry directory. Lookup reads
// <dir>/<name>.toml on every call; layer [source.Cached] on top to memoize.
type Dir struct {
	path string
}

// NewDir creates a registry source for the given directory. The directory
// is not required to exist yet; a missing directory simply means every
// lookup is a not-found.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the registry directory, used as the cache namespace.
func (d *Dir) Path() string { return d.path }

// Lookup implements [source.Source].
func (d *Dir) Lookup(ctx context.Context, name string) (*source.PackageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Lookups build a file path from the name, so traversal attempts must
	// be rejected before touching the filesystem.
	if err := kpmerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(d.path, name+".toml"))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", name, source.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read index for %s: %w", name, err)
	}

	var file packageFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode index for %s: %w", name, err)
	}
	if file.Name == "" {
		file.Name = name
	}

	return file.current()
}

// packageFile is the on-disk shape of one index file.
type packageFile struct {
	Name         string         `toml:"name"`
	Version      string         `toml:"version"`
	Dependencies []depSpec      `toml:"dependencies"`
	Releases     []releaseEntry `toml:"releases"`
}

type releaseEntry struct {
	Version      string    `toml:"version"`
	Dependencies []depSpec `toml:"dependencies"`
}

// current picks the version the registry serves: the top-level version when
// present, otherwise the highest semantic version among the releases.
func (f *packageFile) current() (*source.PackageInfo, error) {
	if f.Version != "" {
		return &source.PackageInfo{
			Name:         f.Name,
			Version:      f.Version,
			Dependencies: toDependencies(f.Dependencies),
		}, nil
	}

	if len(f.Releases) == 0 {
		return nil, fmt.Errorf("index for %s has neither version nor releases", f.Name)
	}

	best := 0
	var bestVer *semver.Version
	for i, rel := range f.Releases {
		v, err := semver.NewVersion(rel.Version)
		if err != nil {
			continue // unparsable release versions never win
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best, bestVer = i, v
		}
	}

	rel := f.Releases[best]
	return &source.PackageInfo{
		Name:         f.Name,
		Version:      rel.Version,
		Dependencies: toDependencies(rel.Dependencies),
	}, nil
}

func toDependencies(specs []depSpec) []source.Dependency {
	if len(specs) == 0 {
		return nil
	}
	deps := make([]source.Dependency, len(specs))
	for i, s := range specs {
		deps[i] = s.Dependency
	}
	return deps
}

// depSpec accepts either a bare requirement string or a structured table in
// a TOML dependency array and normalizes both to a [source.Dependency].
type depSpec struct {
	source.Dependency
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *depSpec) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		d.Dependency = source.ParseSpec(val)
		return nil
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			d.Name = name
		}
		if req, ok := val["version_req"].(string); ok {
			d.VersionReq = req
		}
		if ver, ok := val["version"].(string); ok {
			d.Version = ver
		}
		if opt, ok := val["optional"].(bool); ok {
			d.Optional = opt
		}
		if d.Name == "" {
			return fmt.Errorf("dependency table missing name: %v", val)
		}
		return nil
	default:
		return fmt.Errorf("dependency must be a string or a table, got %T", v)
	}
}

// Ensure Dir implements source.Source.
var _ source.Source = (*Dir)(nil)
