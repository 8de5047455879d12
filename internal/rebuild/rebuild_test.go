package rebuild

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDeduplicatesInOrder(t *testing.T) {
	c := NewCollector()
	for _, p := range []string{"/site", "/site/a.html", "/site", "/site/b.css", "/site/a.html"} {
		c.RebuildIfChanged(p)
	}
	assert.Equal(t, []string{"/site", "/site/a.html", "/site/b.css"}, c.Paths())
}

func TestWriteDepfile(t *testing.T) {
	c := NewCollector()
	c.RebuildIfChanged("/site")
	c.RebuildIfChanged("/site/my page.html")
	c.RebuildIfChanged("/site/#tag$.txt")

	var buf bytes.Buffer
	require.NoError(t, c.WriteDepfile(&buf, "out/static content.go"))

	want := "out/static\\ content.go: \\\n" +
		"  /site \\\n" +
		"  /site/my\\ page.html \\\n" +
		"  /site/\\#tag$$.txt\n" +
		"\n/site:\n" +
		"\n/site/my\\ page.html:\n" +
		"\n/site/\\#tag$$.txt:\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteDepfileTo(t *testing.T) {
	c := NewCollector()
	c.RebuildIfChanged("/site")
	path := filepath.Join(t.TempDir(), "nested", "routes.d")

	require.NoError(t, c.WriteDepfileTo(path, "routes.go"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "routes.go: \\\n  /site\n\n/site:\n", string(data))
}

func TestMultiAndFunc(t *testing.T) {
	var got []string
	c := NewCollector()
	n := Multi(c, Func(func(p string) { got = append(got, p) }), Nop{}, nil)
	n.RebuildIfChanged("/x")

	assert.Equal(t, []string{"/x"}, got)
	assert.Equal(t, []string{"/x"}, c.Paths())
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, p := range []string{"/s/.git", "/s/a.html~", "/s/.a.swp", "/s/a.swp", "/s/#a#"} {
		assert.True(t, shouldIgnoreEvent(p), p)
	}
	assert.False(t, shouldIgnoreEvent("/s/index.html"))
}

func TestWatcherSignalsOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	w, err := NewWatcher(20 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	w.RebuildIfChanged(dir)
	w.RebuildIfChanged(file)
	assert.Equal(t, 1, w.Watched())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(file, []byte("b"), 0o644))

	select {
	case <-w.Rebuilds():
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild signal after modifying a watched file")
	}
}

func TestWatcherLogsThroughInjectedLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w, err := NewWatcher(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	w.WithLogger(logger)

	missing := filepath.Join(t.TempDir(), "gone")
	w.RebuildIfChanged(missing)
	assert.Equal(t, 0, w.Watched())

	w.handle(fsnotify.Event{Name: "/site/index.html", Op: fsnotify.Write})

	out := logs.String()
	assert.Contains(t, out, "Watch add failed")
	assert.Contains(t, out, "path="+missing)
	assert.Contains(t, out, "error=")
	assert.Contains(t, out, "path=/site/index.html")
	assert.Contains(t, out, "op=WRITE")
}
