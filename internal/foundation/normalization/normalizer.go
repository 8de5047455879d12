// Package normalization maps free-form user input onto enum values.
package normalization

import (
	"slices"
	"strings"

	"github.com/mpalmer/static-builder/internal/foundation/errors"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	values map[string]T
	keys   []string // sorted, for error messages
}

// NewNormalizer creates a normalizer from spelling -> value pairs. Several
// spellings may map to the same value.
func NewNormalizer[T comparable](values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values))}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	slices.Sort(n.keys)
	return n
}

// Lookup returns the value for raw, ignoring case and surrounding space.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[clean(raw)]
	return v, ok
}

// Normalize returns the value for raw, or def when raw is not recognized.
func (n *Normalizer[T]) Normalize(raw string, def T) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return def
}

// NormalizeWithError returns a validation error naming field and the accepted
// spellings when raw is not recognized.
func (n *Normalizer[T]) NormalizeWithError(field, raw string) (T, error) {
	if v, ok := n.Lookup(raw); ok {
		return v, nil
	}
	var zero T
	return zero, errors.ValidationError("invalid "+field).
		WithContext("value", raw).
		WithContext("allowed", strings.Join(n.keys, "|")).
		Build()
}

// ValidKeys returns all accepted spellings, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	return slices.Clone(n.keys)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
