// Package mediatype maps source file extensions to the media type they are served with.
package mediatype

import (
	"path/filepath"
	"sort"
	"strings"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

const (
	HTML        = "text/html; charset=utf-8"
	CSS         = "text/css"
	PlainText   = "text/plain"
	OctetStream = "application/octet-stream"
)

// Lookup is case-sensitive. "js" is served as application/json for
// compatibility with existing consumers of the generated routes.
var byExtension = map[string]string{
	"html": HTML,
	"dj":   HTML,
	"css":  CSS,
	"cer":  "application/pkix-cert",
	"der":  OctetStream,
	"gpg":  "application/pgp-keys",
	"ico":  "image/vnd.microsoft.icon",
	"js":   "application/json",
	"pem":  PlainText,
	"txt":  PlainText,
	"pkbf": OctetStream,
	"png":  "image/png",
	"":     OctetStream,
}

// ForExtension returns the media type for ext (no leading dot). Files without
// an extension are octet streams; any other unknown extension fails.
func ForExtension(ext string) (string, error) {
	if mt, ok := byExtension[ext]; ok {
		return mt, nil
	}
	return "", derrors.MediaTypeError("unclassifiable extension "+ext).
		WithContext("extension", ext).
		Build()
}

// Classify returns the media type of the file at source.
func Classify(source string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(source), ".")
	mt, err := ForExtension(ext)
	if err != nil {
		if ce, ok := derrors.AsClassified(err); ok {
			return "", ce.WithContext("source", source)
		}
		return "", err
	}
	return mt, nil
}

// Extensions lists every supported extension in sorted order.
func Extensions() []string {
	out := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// IsHTML reports whether mt is the rendered HTML media type.
func IsHTML(mt string) bool { return mt == HTML }
