// Package templates evaluates HTML sources with html/template and a small
// layout inheritance convention.
//
// Layouts are the *.html files below the layouts directory, named by their
// slash-separated relative path. A source whose first action is
//
//	{{extends "base.html"}}
//
// overrides the layout's {{block}} definitions with its own and the layout is
// executed in its place. Layouts may themselves extend other layouts.
package templates

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template/parse"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// ExtendsFunc is the name of the inheritance directive.
const ExtendsFunc = "extends"

var funcs = template.FuncMap{
	// Evaluated only when the extending template is executed directly, which
	// never happens once the directive is resolved.
	ExtendsFunc: func(string) string { return "" },
}

// Engine renders template sources against the layouts found in LayoutsDir.
// Layouts are read from disk on every call so edits are picked up without
// restarting.
type Engine struct {
	LayoutsDir string
}

// New returns an Engine for the given layouts directory.
func New(layoutsDir string) *Engine {
	return &Engine{LayoutsDir: layoutsDir}
}

// Layouts returns the absolute paths of all layout files, sorted.
func (e *Engine) Layouts() ([]string, error) {
	files, err := e.layoutFiles()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(files))
	for _, name := range sortedKeys(files) {
		out = append(out, files[name])
	}
	return out, nil
}

// Render evaluates src, identified by name in error messages, with an empty context.
func (e *Engine) Render(name, src string) ([]byte, error) {
	files, err := e.layoutFiles()
	if err != nil {
		return nil, err
	}
	sources := make(map[string]string, len(files))
	for lname, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, derrors.FileSystemError("failed to read layout").
				WithCause(err).WithContext("layout", lname).Build()
		}
		sources[lname] = string(data)
	}

	chain, err := resolveChain(name, src, sources)
	if err != nil {
		return nil, err
	}

	set := template.New("").Funcs(funcs)
	inChain := make(map[string]bool, len(chain))
	for _, n := range chain {
		inChain[n] = true
	}
	// Unrelated layouts first so the inheritance chain's block definitions win.
	for _, lname := range sortedKeys(sources) {
		if inChain[lname] {
			continue
		}
		if _, err := set.New(lname).Parse(sources[lname]); err != nil {
			return nil, templateError("failed to parse layout", lname, err)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		n := chain[i]
		text := src
		if i > 0 {
			text = sources[n]
		}
		if _, err := set.New(n).Parse(text); err != nil {
			return nil, templateError("failed to parse template", n, err)
		}
	}

	root := chain[len(chain)-1]
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, root, nil); err != nil {
		return nil, templateError("template evaluation failed", name, err).WithContext("layout", root)
	}
	return buf.Bytes(), nil
}

// resolveChain returns name followed by every layout it transitively extends.
func resolveChain(name, src string, layouts map[string]string) ([]string, error) {
	chain := []string{name}
	seen := map[string]bool{name: true}
	text := src
	for {
		parent, err := Extends(chain[len(chain)-1], text)
		if err != nil {
			return nil, err
		}
		if parent == "" {
			return chain, nil
		}
		layout, ok := layouts[parent]
		if !ok {
			return nil, derrors.TemplateError("layout not found").
				WithContext("template", chain[len(chain)-1]).
				WithContext("layout", parent).
				Build()
		}
		if seen[parent] {
			return nil, derrors.TemplateError("layout inheritance cycle").
				WithContext("template", name).
				WithContext("layout", parent).
				Build()
		}
		seen[parent] = true
		chain = append(chain, parent)
		text = layout
	}
}

// Extends returns the layout named by a leading {{extends "..."}} action, or
// "" when src does not extend a layout. Leading whitespace is allowed.
func Extends(name, src string) (string, error) {
	t, err := template.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return "", templateError("failed to parse template", name, err)
	}
	if t.Tree == nil || t.Tree.Root == nil {
		return "", nil
	}
	for _, node := range t.Tree.Root.Nodes {
		switch n := node.(type) {
		case *parse.TextNode:
			if len(bytes.TrimSpace(n.Text)) == 0 {
				continue
			}
			return "", nil
		case *parse.ActionNode:
			return extendsTarget(n), nil
		default:
			return "", nil
		}
	}
	return "", nil
}

func extendsTarget(n *parse.ActionNode) string {
	if n.Pipe == nil || len(n.Pipe.Cmds) != 1 {
		return ""
	}
	args := n.Pipe.Cmds[0].Args
	if len(args) != 2 {
		return ""
	}
	ident, ok := args[0].(*parse.IdentifierNode)
	if !ok || ident.Ident != ExtendsFunc {
		return ""
	}
	s, ok := args[1].(*parse.StringNode)
	if !ok {
		return ""
	}
	return s.Text
}

var literalReplacer = strings.NewReplacer("{{", `{{"{{"}}`, "}}", `{{"}}"}}`)

// Escape makes s safe to embed as literal template text.
func Escape(s string) string {
	return literalReplacer.Replace(s)
}

func (e *Engine) layoutFiles() (map[string]string, error) {
	files := map[string]string{}
	if e.LayoutsDir == "" {
		return files, nil
	}
	err := filepath.WalkDir(e.LayoutsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != e.LayoutsDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(e.LayoutsDir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = path
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, derrors.FileSystemError("failed to read layouts directory").
			WithCause(err).WithContext("path", e.LayoutsDir).Build()
	}
	return files, nil
}

func templateError(msg, name string, err error) *derrors.ClassifiedError {
	return derrors.WrapError(err, derrors.CategoryTemplate, msg).
		Fatal().WithContext("template", name).Build()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
