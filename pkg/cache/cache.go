// Package cache provides the memoization layer used to avoid re-reading
// package metadata on every resolution. Backends exist for local files,
// redis, and a no-op null cache; all of them store opaque bytes under keys
// produced by a [Keyer].
//
// The cache sits outside the resolution core: a resolution owns a fresh
// graph every time, and only provider lookups are memoized. Invalidation
// is the caller's business (typically a --refresh flag or a TTL).
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Default TTLs per entry class. Metadata changes when registries publish;
// reports are cheap to recompute and only cached by the API layer.
const (
	TTLMetadata = 24 * time.Hour
	TTLReport   = 1 * time.Hour
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
type Cache interface {
	// Get returns the value for key, whether it was found, and any
	// backend error. An expired or corrupt entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the entry classes kpm caches.
type Keyer interface {
	// MetadataKey keys one package's metadata within a provider namespace
	// (e.g. a registry directory path or database name).
	MetadataKey(namespace, pkg string) string

	// ReportKey keys a full resolution report by its request parameters.
	ReportKey(packages []string, opts ReportKeyOpts) string
}

// ReportKeyOpts are the request parameters that change a report's content
// and therefore participate in its cache key.
type ReportKeyOpts struct {
	IncludeInstalled bool
	MaxDepth         int
}

// DefaultKeyer hashes key components with SHA-256 under a short prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// MetadataKey generates a key for package metadata caching.
func (k *DefaultKeyer) MetadataKey(namespace, pkg string) string {
	return hashKey("meta", namespace, pkg)
}

// ReportKey generates a key for resolution report caching.
func (k *DefaultKeyer) ReportKey(packages []string, opts ReportKeyOpts) string {
	return hashKey("report", packages, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
