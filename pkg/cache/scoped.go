package cache

// ScopedKeyer wraps a Keyer with a prefix so that different provider
// configurations get separate cache namespaces. The API server uses this to
// keep resolutions against different registry sets from sharing entries.
//
// Example:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "registry:"+cache.Hash(cfg)+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// MetadataKey generates a prefixed key for package metadata caching.
func (k *ScopedKeyer) MetadataKey(namespace, pkg string) string {
	return k.prefix + k.inner.MetadataKey(namespace, pkg)
}

// ReportKey generates a prefixed key for resolution report caching.
func (k *ScopedKeyer) ReportKey(packages []string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(packages, opts)
}
