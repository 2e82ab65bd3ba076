package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one cache backend.
//
// Example usage:
//
//	// Per-environment namespaces on a shared Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// ParseKey generates a prefixed key for parsed diagrams.
func (k *ScopedKeyer) ParseKey(language, sourceHash string, bitsPerRow int) string {
	return k.prefix + k.inner.ParseKey(language, sourceHash, bitsPerRow)
}

// ArtifactKey generates a prefixed key for rendered diagrams.
func (k *ScopedKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sourceHash, opts)
}

// ShapeKey generates a prefixed key for rendered shapes.
func (k *ScopedKeyer) ShapeKey(nodeHash string, opts ShapeKeyOpts) string {
	return k.prefix + k.inner.ShapeKey(nodeHash, opts)
}
