package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis database without reading each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "scryer:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
// A nil inner keyer selects [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(diagramHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(diagramHash, opts)
}

// RouteKey generates a prefixed route key.
func (k *ScopedKeyer) RouteKey(diagramHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(diagramHash, opts)
}
