// Package key provides namespaced identifiers for items and researches.
package key

import (
	"fmt"
	"strings"
)

// NamespacedKey identifies a registered item or research as
// "<namespace>:<key>", e.g. "arcanum:magma_core". Both segments are
// lowercase [a-z0-9_-]+.
type NamespacedKey struct {
	namespace string
	key       string
}

// New creates a NamespacedKey from its two segments.
// Returns an error if either segment is empty or contains invalid characters.
func New(namespace, k string) (NamespacedKey, error) {
	if err := validateSegment(namespace); err != nil {
		return NamespacedKey{}, fmt.Errorf("namespace %q: %w", namespace, err)
	}
	if err := validateSegment(k); err != nil {
		return NamespacedKey{}, fmt.Errorf("key %q: %w", k, err)
	}
	return NamespacedKey{namespace: namespace, key: k}, nil
}

// MustNew is like New but panics on invalid input.
// Intended for compile-time constant catalogs.
func MustNew(namespace, k string) NamespacedKey {
	nk, err := New(namespace, k)
	if err != nil {
		panic(err)
	}
	return nk
}

// Parse parses a "<namespace>:<key>" string.
func Parse(s string) (NamespacedKey, error) {
	namespace, k, found := strings.Cut(s, ":")
	if !found {
		return NamespacedKey{}, fmt.Errorf("key %q: missing ':' separator", s)
	}
	return New(namespace, k)
}

// Namespace returns the namespace segment.
func (nk NamespacedKey) Namespace() string {
	return nk.namespace
}

// Key returns the key segment.
func (nk NamespacedKey) Key() string {
	return nk.key
}

// String returns the "<namespace>:<key>" form.
func (nk NamespacedKey) String() string {
	return nk.namespace + ":" + nk.key
}

// IsValid reports whether the key has both segments set.
func (nk NamespacedKey) IsValid() bool {
	return nk.namespace != "" && nk.key != ""
}

// ConfigPath returns the dotted path used to look this key up in a
// config document: "<namespace>.<key>".
func (nk NamespacedKey) ConfigPath() string {
	return nk.namespace + "." + nk.key
}

func validateSegment(s string) error {
	if s == "" {
		return fmt.Errorf("empty segment")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return fmt.Errorf("invalid character %q", r)
		}
	}
	return nil
}
