// Package testutil provides fixtures for tests that build whole sites.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpalmer/static-builder/internal/config"
)

// Site is a throwaway project directory with source and layout trees.
type Site struct {
	t    testing.TB
	Root string
}

// NewSite creates an empty project under t.TempDir().
func NewSite(t testing.TB) *Site {
	t.Helper()
	return &Site{t: t, Root: t.TempDir()}
}

// Path returns the absolute path of a slash-separated project-relative path.
func (s *Site) Path(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// Write creates rel with content, making parent directories as needed.
func (s *Site) Write(rel, content string) *Site {
	s.t.Helper()
	p := s.Path(rel)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(s.t, os.WriteFile(p, []byte(content), 0o644))
	return s
}

// Remove deletes rel.
func (s *Site) Remove(rel string) *Site {
	s.t.Helper()
	require.NoError(s.t, os.RemoveAll(s.Path(rel)))
	return s
}

// Config returns a default configuration rooted at the project in mode.
// Serve.Addr binds an ephemeral loopback port.
func (s *Site) Config(mode config.Mode) *config.Config {
	cfg := config.Default().WithBaseDir(s.Root)
	cfg.Mode = mode
	cfg.Serve.Addr = "127.0.0.1:0"
	return cfg
}

// ReadFile returns the content of rel, failing the test if it is unreadable.
func (s *Site) ReadFile(rel string) string {
	s.t.Helper()
	b, err := os.ReadFile(s.Path(rel))
	require.NoError(s.t, err)
	return string(b)
}

// AssertFileExists validates that rel exists.
func (s *Site) AssertFileExists(rel string) *Site {
	s.t.Helper()
	_, err := os.Stat(s.Path(rel))
	assert.NoError(s.t, err, "expected %s to exist", rel)
	return s
}

// AssertFileNotExists validates that rel does not exist.
func (s *Site) AssertFileNotExists(rel string) *Site {
	s.t.Helper()
	_, err := os.Stat(s.Path(rel))
	assert.True(s.t, os.IsNotExist(err), "expected %s to not exist", rel)
	return s
}

// AssertFileContains validates that rel contains want.
func (s *Site) AssertFileContains(rel, want string) *Site {
	s.t.Helper()
	assert.Contains(s.t, s.ReadFile(rel), want)
	return s
}
