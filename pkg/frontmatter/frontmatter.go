// Package frontmatter extracts the YAML metadata block at the top of a markup document.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Metadata is the recognised front matter schema. Unknown keys are ignored.
type Metadata struct {
	Title  *string `yaml:"title"`
	Layout *string `yaml:"layout"`
}

// Document is a parsed markup source.
type Document struct {
	Metadata
	Body []byte
}

// HasTitle reports whether a title was given.
func (d Document) HasTitle() bool { return d.Title != nil }

// HasLayout reports whether a layout was given.
func (d Document) HasLayout() bool { return d.Layout != nil }

// Parse splits content into metadata and body. A document without an
// opening delimiter has no metadata and its whole content is the body.
func Parse(content []byte) (Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Document{}, derrors.FrontMatterError("malformed front matter").WithCause(err).Build()
	}
	doc := Document{Body: body}
	if !had || len(bytes.TrimSpace(fm)) == 0 {
		return doc, nil
	}
	if err := yaml.Unmarshal(fm, &doc.Metadata); err != nil {
		return Document{}, derrors.FrontMatterError("malformed front matter").WithCause(err).Build()
	}
	return doc, nil
}

// Split separates YAML front matter (`---` delimited) from the body.
//
// If the document does not start with a delimiter line, had is false and
// body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line has no trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
