package rebuild

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// Collector records each noticed path once, in notice order.
type Collector struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	paths []string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

func (c *Collector) RebuildIfChanged(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[path]; ok {
		return
	}
	c.seen[path] = struct{}{}
	c.paths = append(c.paths, path)
}

// Paths returns a copy of the collected paths.
func (c *Collector) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

// WriteDepfile writes a make-compatible dependency rule for target. Each
// dependency also gets an empty rule so deleting a source does not break make.
func (c *Collector) WriteDepfile(w io.Writer, target string) error {
	bw := bufio.NewWriter(w)
	paths := c.Paths()

	_, _ = bw.WriteString(escapeMake(target) + ":")
	for _, p := range paths {
		_, _ = bw.WriteString(" \\\n  " + escapeMake(p))
	}
	_, _ = bw.WriteString("\n")
	for _, p := range paths {
		_, _ = bw.WriteString("\n" + escapeMake(p) + ":\n")
	}
	return bw.Flush()
}

// WriteDepfileTo writes the depfile to path, creating parent directories.
func (c *Collector) WriteDepfileTo(path, target string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return derrors.FileSystemError("failed to create depfile directory").
			WithCause(err).WithContext("path", path).Build()
	}
	f, err := os.Create(path)
	if err != nil {
		return derrors.FileSystemError("failed to create depfile").
			WithCause(err).WithContext("path", path).Build()
	}
	if err := c.WriteDepfile(f, target); err != nil {
		_ = f.Close()
		return derrors.FileSystemError("failed to write depfile").
			WithCause(err).WithContext("path", path).Build()
	}
	if err := f.Close(); err != nil {
		return derrors.FileSystemError("failed to write depfile").
			WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

var makeEscaper = strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")

func escapeMake(s string) string {
	return makeEscaper.Replace(s)
}
