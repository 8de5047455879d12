// Package codegen writes a route table as Go source.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"strconv"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/pkg/routes"
)

// Header marks generated files.
const Header = "// Code generated by static-builder. DO NOT EDIT."

const (
	routesImport = "github.com/mpalmer/static-builder/pkg/routes"
	renderImport = "github.com/mpalmer/static-builder/pkg/render"
)

// Options controls the generated file.
type Options struct {
	// Package is the package clause of the generated file.
	Package string
	// LayoutsDir is baked into the live renderer. Only used when the table
	// has live entries.
	LayoutsDir string
}

// Generate writes gofmt-formatted source defining StaticContent to w.
func Generate(w io.Writer, table *routes.Table, opts Options) error {
	src, err := Source(table, opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(src); err != nil {
		return derrors.FileSystemError("failed to write generated code").WithCause(err).Build()
	}
	return nil
}

// Source returns the formatted generated file.
func Source(table *routes.Table, opts Options) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = "main"
	}

	live := false
	bodies := map[string]string{}
	var order []string
	for _, e := range table.All() {
		if e.IsLive() {
			live = true
			continue
		}
		key := string(e.Body())
		if _, ok := bodies[key]; !ok {
			bodies[key] = "staticBody" + strconv.Itoa(len(order))
			order = append(order, key)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(Header + "\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", opts.Package)
	buf.WriteString("import (\n")
	if live {
		fmt.Fprintf(&buf, "\t%q\n", renderImport)
	}
	fmt.Fprintf(&buf, "\t%q\n", routesImport)
	buf.WriteString(")\n\n")

	if len(order) > 0 {
		buf.WriteString("var (\n")
		for _, key := range order {
			fmt.Fprintf(&buf, "\t%s = []byte(%s)\n", bodies[key], strconv.Quote(key))
		}
		buf.WriteString(")\n\n")
	}

	buf.WriteString("// StaticContent returns the handler serving the compiled site.\n")
	buf.WriteString("func StaticContent() *routes.Handler {\n")
	buf.WriteString("\tt := routes.NewTable()\n")
	for p, e := range table.All() {
		if e.IsLive() {
			fmt.Fprintf(&buf, "\tt.MustAdd(%q, routes.Live(%q, %q))\n", p, e.Source(), e.MediaType())
		} else {
			fmt.Fprintf(&buf, "\tt.MustAdd(%q, routes.Frozen(%s, %q))\n", p, bodies[string(e.Body())], e.MediaType())
		}
	}
	if live {
		fmt.Fprintf(&buf, "\treturn routes.MustNewHandler(t, routes.WithRenderer(render.New(%q)))\n", opts.LayoutsDir)
	} else {
		buf.WriteString("\treturn routes.MustNewHandler(t)\n")
	}
	buf.WriteString("}\n")

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "generated code does not parse").
			Fatal().WithContext("package", opts.Package).Build()
	}
	return formatted, nil
}

// WriteFile generates the file at path. The file is left untouched when its
// content would not change, so timestamp-based build tools see no update.
func WriteFile(path string, table *routes.Table, opts Options) (bool, error) {
	src, err := Source(table, opts)
	if err != nil {
		return false, err
	}
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, src) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, derrors.FileSystemError("failed to create output directory").
			WithCause(err).WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return false, derrors.FileSystemError("failed to write generated code").
			WithCause(err).WithContext("path", path).Build()
	}
	return true, nil
}
