// Package render produces the final bytes of a source file.
//
// Dispatch is by extension: .html sources are evaluated as templates, .dj
// markup documents are converted and wrapped in template blocks, and
// everything else is passed through unchanged.
package render

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/pkg/frontmatter"
	"github.com/mpalmer/static-builder/pkg/markup"
	"github.com/mpalmer/static-builder/pkg/resource"
	"github.com/mpalmer/static-builder/pkg/templates"
)

// Block names a markup document is wrapped in.
const (
	BlockHeadTitle = "headtitle"
	BlockPageTitle = "pagetitle"
	BlockContent   = "content"
)

// Renderer renders sources from disk.
type Renderer struct {
	engine *templates.Engine
	markup markup.Converter
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithConverter replaces the default goldmark converter.
func WithConverter(c markup.Converter) Option {
	return func(r *Renderer) { r.markup = c }
}

// New returns a Renderer whose templates may extend layouts in layoutsDir.
func New(layoutsDir string, opts ...Option) *Renderer {
	r := &Renderer{
		engine: templates.New(layoutsDir),
		markup: markup.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine returns the template engine used for .html and markup sources.
func (r *Renderer) Engine() *templates.Engine { return r.engine }

// Render reads source and returns its rendered bytes.
func (r *Renderer) Render(source string) ([]byte, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, derrors.FileSystemError("failed to read source").
			WithCause(err).WithContext("source", source).Build()
	}
	out, err := r.RenderBytes(source, data)
	if err != nil {
		return nil, withSource(err, source)
	}
	return out, nil
}

// RenderBytes renders data as if it had been read from source.
func (r *Renderer) RenderBytes(source string, data []byte) ([]byte, error) {
	switch filepath.Ext(source) {
	case ".html":
		return r.engine.Render(source, string(data))
	case resource.MarkupExt:
		doc, err := frontmatter.Parse(data)
		if err != nil {
			return nil, err
		}
		html, err := r.markup.Convert(doc.Body)
		if err != nil {
			return nil, err
		}
		return r.engine.Render(source, WrapDocument(doc, html))
	default:
		return data, nil
	}
}

// WrapDocument assembles the template source for a converted markup document:
// an optional extends directive, the title blocks when a title is set, and
// the content block holding html.
func WrapDocument(doc frontmatter.Document, html []byte) string {
	var b strings.Builder
	if doc.HasLayout() {
		b.WriteString("{{" + templates.ExtendsFunc + " " + strconv.Quote(*doc.Layout+".html") + "}}\n")
	}
	if doc.HasTitle() {
		title := templates.Escape(*doc.Title)
		writeBlock(&b, BlockHeadTitle, title)
		writeBlock(&b, BlockPageTitle, title)
		b.WriteString("\n")
	}
	writeBlock(&b, BlockContent, "\n"+templates.Escape(string(html)))
	b.WriteString("\n")
	return b.String()
}

func writeBlock(b *strings.Builder, name, body string) {
	b.WriteString(`{{block "` + name + `" .}}`)
	b.WriteString(body)
	b.WriteString("{{end}}")
}

func withSource(err error, source string) error {
	if ce, ok := derrors.AsClassified(err); ok {
		if _, has := ce.Context().Get("source"); !has {
			return ce.WithContext("source", source)
		}
	}
	return err
}
