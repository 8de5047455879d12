package routes

import (
	"iter"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// Table maps URL paths to entries, remembering registration order.
type Table struct {
	patterns []string
	entries  map[string]Entry
	origins  map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]Entry),
		origins: make(map[string]string),
	}
}

// Add registers path. Registering a path twice is a collision error naming
// both origins; the first registration is kept.
func (t *Table) Add(path string, e Entry, origin string) error {
	if _, exists := t.entries[path]; exists {
		return derrors.CollisionError("path collision").
			WithContext("url_path", path).
			WithContext("source", origin).
			WithContext("existing", t.origins[path]).
			Build()
	}
	t.patterns = append(t.patterns, path)
	t.entries[path] = e
	t.origins[path] = origin
	return nil
}

// MustAdd is Add for generated code, where collisions were ruled out at
// compile time. It panics on error.
func (t *Table) MustAdd(path string, e Entry) {
	if err := t.Add(path, e, ""); err != nil {
		panic(err)
	}
}

// Lookup returns the entry for path.
func (t *Table) Lookup(path string) (Entry, bool) {
	e, ok := t.entries[path]
	return e, ok
}

// Origin returns the source path recorded for path, if any.
func (t *Table) Origin(path string) string { return t.origins[path] }

// Len returns the number of registered paths.
func (t *Table) Len() int { return len(t.patterns) }

// Patterns returns the registered paths in registration order.
func (t *Table) Patterns() []string {
	return append([]string(nil), t.patterns...)
}

// All iterates over the table in registration order.
func (t *Table) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, p := range t.patterns {
			if !yield(p, t.entries[p]) {
				return
			}
		}
	}
}
