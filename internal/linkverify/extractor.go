// Package linkverify checks that internal links in rendered HTML resolve to
// registered routes.
package linkverify

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/mpalmer/static-builder/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // The URL or path
	Text      string // Link text/title
	Tag       string // HTML tag (a, img, script, link)
	Attribute string // Attribute containing the link (href, src)
	Line      int    // Element ordinal, an approximation of the line
}

// linkAttrs maps the elements checked to the attribute holding their target.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
}

// ExtractLinks extracts all links from an HTML reader.
func ExtractLinks(r io.Reader) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").WithSeverity(errors.SeverityError).Build()
	}

	var links []*Link
	var lineNum int

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			lineNum++
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					links = append(links, &Link{
						URL:       v,
						Text:      linkText(n),
						Tag:       n.Data,
						Attribute: attr,
						Line:      lineNum,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return links, nil
}

func linkText(n *html.Node) string {
	switch n.Data {
	case "a":
		return extractText(n)
	case "img":
		return getAttr(n, "alt")
	case "link":
		return getAttr(n, "rel")
	default:
		return ""
	}
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

// extractText extracts text content from an HTML node and its children.
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(extractText(c))
	}
	return strings.TrimSpace(text.String())
}
