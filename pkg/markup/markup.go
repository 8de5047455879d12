// Package markup converts the body of a markup document to HTML.
package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// Converter turns a markup body into an HTML fragment.
type Converter interface {
	Convert(body []byte) ([]byte, error)
}

// Goldmark is the default Converter. Raw HTML in the source is passed through.
type Goldmark struct {
	md goldmark.Markdown
}

// New returns a Goldmark converter with GFM extensions and heading IDs.
func New() *Goldmark {
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)}
}

// Convert renders body to HTML.
func (g *Goldmark) Convert(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return nil, derrors.MarkupError("markup conversion failed").WithCause(err).Build()
	}
	return buf.Bytes(), nil
}
