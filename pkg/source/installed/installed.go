// Package installed implements the fallback metadata provider: a TOML
// database of packages already present on the machine, as written by the
// installer. The resolver consults it only when a package is absent from
// every live registry.
//
// Database shape:
//
//	[packages.urllib3]
//	version = "1.26.18"
//
//	[packages.requests]
//	version = "2.31.0"
//	dependencies = ["urllib3>=1.21.1"]
package installed

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/kpmtools/kpm/pkg/source"
)

// DB serves metadata from an installed-packages database file. The file is
// read once on first lookup; installer writes during a resolution are the
// caller's concurrency problem, not this package's.
type DB struct {
	path string

	once     sync.Once
	loadErr  error
	packages map[string]*source.PackageInfo
}

// NewDB creates an installed-package source for the given database file.
// A missing file behaves like an empty database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Path returns the database file path, used as the cache namespace.
func (db *DB) Path() string { return db.path }

// Lookup implements [source.Source].
func (db *DB) Lookup(ctx context.Context, name string) (*source.PackageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.once.Do(db.load)
	if db.loadErr != nil {
		return nil, db.loadErr
	}

	info, ok := db.packages[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, source.ErrNotFound)
	}
	return info, nil
}

type dbFile struct {
	Packages map[string]dbEntry `toml:"packages"`
}

type dbEntry struct {
	Version      string   `toml:"version"`
	Dependencies []string `toml:"dependencies"`
}

func (db *DB) load() {
	db.packages = make(map[string]*source.PackageInfo)

	data, err := os.ReadFile(db.path)
	if os.IsNotExist(err) {
		return // empty database
	}
	if err != nil {
		db.loadErr = fmt.Errorf("read installed db: %w", err)
		return
	}

	var file dbFile
	if err := toml.Unmarshal(data, &file); err != nil {
		db.loadErr = fmt.Errorf("decode installed db: %w", err)
		return
	}

	for name, entry := range file.Packages {
		info := &source.PackageInfo{Name: name, Version: entry.Version}
		for _, spec := range entry.Dependencies {
			info.Dependencies = append(info.Dependencies, source.ParseSpec(spec))
		}
		db.packages[name] = info
	}
}

// Ensure DB implements source.Source.
var _ source.Source = (*DB)(nil)
