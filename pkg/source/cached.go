package source

import (
	"context"
	"encoding/json"

	"github.com/kpmtools/kpm/pkg/cache"
	"github.com/kpmtools/kpm/pkg/observability"
)

// Cached memoizes lookups from an inner source through a [cache.Cache].
// Hits skip the inner provider entirely; misses and not-found results are
// forwarded (not-found is never cached, so a package published later shows
// up as soon as the registry has it).
type Cached struct {
	inner     Source
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	refresh   bool
}

// NewCached wraps inner with memoization. The namespace distinguishes
// providers that can serve the same package names (e.g. two registry
// directories). A nil cache disables memoization; a nil keyer uses the
// default. With refresh set, reads bypass the cache but results are still
// stored.
func NewCached(inner Source, c cache.Cache, keyer cache.Keyer, namespace string, refresh bool) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, namespace: namespace, refresh: refresh}
}

// Lookup implements [Source].
func (s *Cached) Lookup(ctx context.Context, name string) (*PackageInfo, error) {
	key := s.keyer.MetadataKey(s.namespace, name)

	if !s.refresh {
		if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
			var info PackageInfo
			if err := json.Unmarshal(data, &info); err == nil {
				observability.Cache().OnCacheHit(ctx, "metadata")
				return &info, nil
			}
			// Corrupt entry: fall through and re-fetch.
		}
	}
	observability.Cache().OnCacheMiss(ctx, "metadata")

	info, err := s.inner.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(info); err == nil {
		_ = s.cache.Set(ctx, key, data, cache.TTLMetadata)
		observability.Cache().OnCacheSet(ctx, "metadata", len(data))
	}
	return info, nil
}

// Ensure Cached implements Source.
var _ Source = (*Cached)(nil)
