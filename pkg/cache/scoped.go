package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The document service uses it to keep cache entries of different
// documents apart even when two documents render identical pages.
//
// Example usage:
//
//	// Document-specific keys in the shared service cache
//	docKeyer := NewScopedKeyer(NewDefaultKeyer(), "doc:9f31:")
//
//	// Global keys for single-document CLI runs
//	globalKeyer := NewDefaultKeyer()
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
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayoutKey generates a prefixed key for a solved page layout.
func (k *ScopedKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(fingerprint, opts)
}

// ArtifactKey generates a prefixed key for rendered page bytes.
func (k *ScopedKeyer) ArtifactKey(fingerprint string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(fingerprint, opts)
}

// DepsKey generates a prefixed key for a rendered dependency diagram.
func (k *ScopedKeyer) DepsKey(fingerprint string, opts DepsKeyOpts) string {
	return k.prefix + k.inner.DepsKey(fingerprint, opts)
}
