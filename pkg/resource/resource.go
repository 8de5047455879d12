// Package resource models one discovered source file and the URL paths it answers to.
package resource

import (
	"path"
	"strings"
)

// MarkupExt is the extension of lightweight markup sources.
const MarkupExt = ".dj"

const indexFile = "index.html"

// Resource is a source file and its root-relative logical path.
type Resource struct {
	// Source is the absolute filesystem path of the file.
	Source string
	// Path is the slash-separated URL path relative to the site root, before
	// extension rewriting (for example "/blog/post.dj").
	Path string
}

// New returns a Resource for source at logical path p.
func New(source, p string) Resource {
	return Resource{Source: source, Path: p}
}

// Ext returns the extension of the source file without the leading dot.
func (r Resource) Ext() string {
	return strings.TrimPrefix(path.Ext(r.Path), ".")
}

// IsMarkup reports whether the resource is a markup document.
func (r Resource) IsMarkup() bool {
	return path.Ext(r.Path) == MarkupExt
}

// OutputPath is the logical path after markup sources have been rewritten to .html.
func (r Resource) OutputPath() string {
	return OutputPath(r.Path)
}

// Paths returns every URL the resource must be served under.
func (r Resource) Paths() []string {
	return Aliases(r.Path)
}

// OutputPath rewrites a markup source path to its rendered .html path.
func OutputPath(p string) string {
	if path.Ext(p) == MarkupExt {
		return strings.TrimSuffix(p, MarkupExt) + ".html"
	}
	return p
}

// Aliases derives the alias set of a logical path.
//
//	/index.html       -> /index.html, /
//	/docs/index.html  -> /docs/index.html, /docs, /docs/
//	/a/b.dj           -> /a/b.html
func Aliases(p string) []string {
	out := OutputPath(p)
	if path.Base(out) != indexFile {
		return []string{out}
	}
	parent := path.Dir(out)
	if parent == "/" {
		return []string{out, "/"}
	}
	return []string{out, parent, parent + "/"}
}
