package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/internal/rebuild"
	"github.com/mpalmer/static-builder/pkg/resource"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o644))
	}
	return root
}

func logicalPaths(rs []resource.Resource) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Path)
	}
	return out
}

func TestScanOrderAndHiddenFiltering(t *testing.T) {
	root := writeTree(t,
		"index.html",
		"b/post.dj",
		"a/style.css",
		".git/config",
		"a/.hidden.html",
		".well-known/security.txt",
		"docs/.drafts/wip.dj",
		"docs/index.dj",
	)

	rs, err := Scan(root, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/style.css", "/b/post.dj", "/docs/index.dj", "/index.html"}, logicalPaths(rs))
	assert.Equal(t, filepath.Join(root, "b", "post.dj"), rs[1].Source)
}

func TestScanOnlyHiddenFilesIsEmpty(t *testing.T) {
	root := writeTree(t, ".a", ".b/c.html", ".d/.e")
	rs, err := Scan(root, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestScanHiddenRootIsScanned(t *testing.T) {
	root := filepath.Join(writeTree(t, ".site/index.html"), ".site")
	rs, err := Scan(root, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/index.html"}, logicalPaths(rs))
}

func TestScanNotices(t *testing.T) {
	root := writeTree(t, "index.html", "a/b.css", ".x/y.html")

	dirsOnly := rebuild.NewCollector()
	_, err := Scan(root, dirsOnly, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{root, filepath.Join(root, "a")}, dirsOnly.Paths())

	all := rebuild.NewCollector()
	_, err = Scan(root, all, Options{NotifyFiles: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b.css"),
		filepath.Join(root, "index.html"),
	}, all.Paths())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), nil, Options{})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryFileSystem))
}

func TestScanFollowsSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges")
	}
	real := writeTree(t, "index.html", "css/site.css")
	link := filepath.Join(t.TempDir(), "site")
	require.NoError(t, os.Symlink(real, link))

	n := rebuild.NewCollector()
	rs, err := Scan(link, n, Options{NotifyFiles: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"/css/site.css", "/index.html"}, logicalPaths(rs))

	resolved, err := filepath.EvalSymlinks(real)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolved, "index.html"), rs[1].Source)
	assert.Contains(t, n.Paths(), resolved)
}

func TestScanDanglingSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges")
	}
	link := filepath.Join(t.TempDir(), "site")
	require.NoError(t, os.Symlink(filepath.Join(t.TempDir(), "gone"), link))

	_, err := Scan(link, nil, Options{})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryFileSystem))
}

func TestScanUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := writeTree(t, "locked/a.html")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := Scan(root, nil, Options{})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryFileSystem))
}

func TestLogicalPath(t *testing.T) {
	assert.Equal(t, "/a/b.html", LogicalPath(filepath.Join("a", "b.html"), false))
	assert.Equal(t, "/caf\u00e9.html", LogicalPath("cafe\u0301.html", true))
	assert.Equal(t, "/cafe\u0301.html", LogicalPath("cafe\u0301.html", false))
}
