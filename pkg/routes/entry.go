// Package routes holds the URL dispatch table of a compiled site and the
// http.Handler that serves it.
package routes

import "fmt"

// Kind tells how an entry's content is produced.
type Kind int

const (
	// KindFrozen entries carry content rendered at compile time.
	KindFrozen Kind = iota
	// KindLive entries re-render their source on every request.
	KindLive
)

func (k Kind) String() string {
	switch k {
	case KindFrozen:
		return "frozen"
	case KindLive:
		return "live"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entry is what one URL resolves to.
type Entry struct {
	kind      Kind
	body      []byte
	source    string
	mediaType string
}

// Frozen returns an entry serving body. Aliases of the same resource may
// share body; it must not be modified afterwards.
func Frozen(body []byte, mediaType string) Entry {
	return Entry{kind: KindFrozen, body: body, mediaType: mediaType}
}

// Live returns an entry that renders source on every request.
func Live(source, mediaType string) Entry {
	return Entry{kind: KindLive, source: source, mediaType: mediaType}
}

// Kind reports which variant e is.
func (e Entry) Kind() Kind { return e.kind }

// Body returns the baked content of a frozen entry, nil for live entries.
func (e Entry) Body() []byte { return e.body }

// Source returns the file a live entry renders from, "" for frozen entries.
func (e Entry) Source() string { return e.source }

// MediaType returns the Content-Type served for e.
func (e Entry) MediaType() string { return e.mediaType }

// IsLive reports whether e is rendered per request.
func (e Entry) IsLive() bool { return e.kind == KindLive }
