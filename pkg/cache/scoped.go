package cache

import "strings"

// ScopedKeyer puts keys under a namespace, so several tools can share one
// Redis instance:
//
//	keyer := NewScopedKeyer(nil, "linkcanvas") // linkcanvas:layout:<engine>:<hash>
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil). A trailing colon
// on scope is optional.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: strings.TrimSuffix(scope, ":") + ":"}
}

// Key implements Keyer.
func (k *ScopedKeyer) Key(lk LayoutKey) string {
	return k.prefix + k.inner.Key(lk)
}
