package linkverify

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/pkg/mediatype"
	"github.com/mpalmer/static-builder/pkg/routes"
)

// BrokenLink is an internal link whose target is not in the route table.
type BrokenLink struct {
	// Page is the URL of the page containing the link.
	Page   string
	Source string
	Link   *Link
	// Target is the resolved URL path that was looked up.
	Target string
}

// Resolve returns the URL path link points to when rendered at page. ok is
// false for links that are not checked: external URLs, fragment-only links
// and non-navigational schemes.
func Resolve(page, link string) (target string, ok bool) {
	if link == "" || strings.HasPrefix(link, "#") {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return "", false
	}
	if u.Path == "" {
		// Query-only links point back at the page.
		return page, true
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		dir := page
		if !strings.HasSuffix(dir, "/") {
			dir = path.Dir(dir)
		}
		p = path.Join(dir, p)
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(u.Path, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned, true
}

// Verify checks every frozen HTML page in table. Each source is checked once,
// from the first URL it was registered under.
func Verify(table *routes.Table) ([]BrokenLink, error) {
	var broken []BrokenLink
	checked := map[string]bool{}

	for page, e := range table.All() {
		if e.IsLive() || !mediatype.IsHTML(e.MediaType()) {
			continue
		}
		origin := table.Origin(page)
		if origin == "" {
			origin = page
		}
		if checked[origin] {
			continue
		}
		checked[origin] = true

		links, err := ExtractLinks(bytes.NewReader(e.Body()))
		if err != nil {
			if ce, ok := errors.AsClassified(err); ok {
				return nil, ce.WithContext("url_path", page)
			}
			return nil, err
		}
		for _, l := range links {
			target, ok := Resolve(page, l.URL)
			if !ok {
				continue
			}
			if _, found := table.Lookup(target); found {
				continue
			}
			broken = append(broken, BrokenLink{Page: page, Source: table.Origin(page), Link: l, Target: target})
		}
	}
	return broken, nil
}

// Error summarises broken links as a validation error, or returns nil.
func Error(broken []BrokenLink) error {
	if len(broken) == 0 {
		return nil
	}
	first := broken[0]
	return errors.ValidationError("broken internal links").
		WithContext("count", len(broken)).
		WithContext("url_path", first.Page).
		WithContext("target", first.Target).
		Build()
}
