// Package scan discovers the source files of a site.
package scan

import (
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/internal/logfields"
	"github.com/mpalmer/static-builder/internal/rebuild"
	"github.com/mpalmer/static-builder/pkg/resource"
)

// Options tunes a scan.
type Options struct {
	// NotifyFiles reports every file to the notifier, not only directories.
	// Frozen builds need this since file contents are baked in.
	NotifyFiles bool
	// NormalizeUnicode rewrites logical paths to NFC.
	NormalizeUnicode bool
}

// Scan walks root in lexical order and returns every regular file that is
// not hidden and not below a hidden directory. The root itself is never
// treated as hidden.
func Scan(root string, notifier rebuild.Notifier, opts Options) ([]resource.Resource, error) {
	if notifier == nil {
		notifier = rebuild.Nop{}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, derrors.FileSystemError("failed to resolve source root").
			WithCause(err).WithContext("path", root).Build()
	}
	// WalkDir does not descend into a symlinked root.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, derrors.FileSystemError("failed to resolve source root").
			WithCause(err).WithContext("path", root).Build()
	}
	root = resolved

	var out []resource.Resource
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			notifier.RebuildIfChanged(p)
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("Skipping non-regular file", logfields.Source(p))
			return nil
		}
		if opts.NotifyFiles {
			notifier.RebuildIfChanged(p)
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		out = append(out, resource.New(p, LogicalPath(rel, opts.NormalizeUnicode)))
		return nil
	})
	if err != nil {
		return nil, derrors.FileSystemError("failed to scan source directory").
			WithCause(err).WithContext("path", root).Build()
	}
	return out, nil
}

// LogicalPath turns an OS-relative path into a root-relative URL path.
func LogicalPath(rel string, nfc bool) string {
	p := path.Join("/", filepath.ToSlash(rel))
	if nfc {
		p = norm.NFC.String(p)
	}
	return p
}

// IsHidden reports whether an entry name is excluded from scans.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
