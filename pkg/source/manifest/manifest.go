// Package manifest reads project manifest files, the declaration of what a
// project wants installed. A manifest seeds a resolution with package names
// instead of listing them on the command line.
//
// The manifest is TOML:
//
//	[package]
//	name = "my-service"
//	version = "0.3.0"
//
//	dependencies = [
//	    "requests>=2.28.0",
//	    { name = "redis", version_req = "^4.0.0", optional = true },
//	]
package manifest

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	kpmerrors "github.com/kpmtools/kpm/pkg/errors"
	"github.com/kpmtools/kpm/pkg/source"
)

// Manifest is a parsed project manifest.
type Manifest struct {
	// Name and Version identify the project itself.
	Name    string
	Version string

	// Dependencies are the declared direct dependencies.
	Dependencies []source.Dependency
}

type manifestFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Dependencies []depSpec `toml:"dependencies"`
}

// depSpec accepts a dependency either as a bare requirement string or as a
// structured table.
type depSpec struct {
	dep source.Dependency
}

func (d *depSpec) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		d.dep = source.ParseSpec(val)
		return nil
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			d.dep.Name = name
		}
		if req, ok := val["version_req"].(string); ok {
			d.dep.VersionReq = req
		}
		if ver, ok := val["version"].(string); ok {
			d.dep.Version = ver
		}
		if opt, ok := val["optional"].(bool); ok {
			d.dep.Optional = opt
		}
		return nil
	default:
		return fmt.Errorf("dependency must be a string or a table, got %T", v)
	}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses manifest TOML.
func Parse(data []byte) (*Manifest, error) {
	var file manifestFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, kpmerrors.Wrap(kpmerrors.ErrCodeInvalidManifest, err, "decode manifest")
	}

	m := &Manifest{
		Name:    file.Package.Name,
		Version: file.Package.Version,
	}
	for _, spec := range file.Dependencies {
		if spec.dep.Name == "" {
			continue
		}
		if err := kpmerrors.ValidatePackageName(spec.dep.Name); err != nil {
			return nil, err
		}
		m.Dependencies = append(m.Dependencies, spec.dep)
	}
	return m, nil
}

// Requested returns the names of the declared dependencies, the shape the
// resolver takes as input.
func (m *Manifest) Requested() []string {
	names := make([]string, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		names = append(names, dep.Name)
	}
	return names
}
