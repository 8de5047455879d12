package routes

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

const html = "text/html; charset=utf-8"

type fileRenderer struct{}

func (fileRenderer) Render(source string) ([]byte, error) { return os.ReadFile(source) }

type failingRenderer struct{}

func (failingRenderer) Render(source string) ([]byte, error) {
	return nil, derrors.TemplateError("template evaluation failed").WithContext("source", source).Build()
}

func frozenTable(t *testing.T) *Table {
	t.Helper()
	body := []byte("<h1>home</h1>")
	tbl := NewTable()
	require.NoError(t, tbl.Add("/index.html", Frozen(body, html), "/site/index.html"))
	require.NoError(t, tbl.Add("/", Frozen(body, html), "/site/index.html"))
	require.NoError(t, tbl.Add("/site.css", Frozen([]byte("p{}"), "text/css"), "/site/site.css"))
	return tbl
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "frozen", KindFrozen.String())
	assert.Equal(t, "live", KindLive.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestEntryAccessors(t *testing.T) {
	f := Frozen([]byte("x"), "text/plain")
	assert.Equal(t, KindFrozen, f.Kind())
	assert.False(t, f.IsLive())
	assert.Equal(t, []byte("x"), f.Body())
	assert.Empty(t, f.Source())
	assert.Equal(t, "text/plain", f.MediaType())

	l := Live("/site/index.html", html)
	assert.Equal(t, KindLive, l.Kind())
	assert.True(t, l.IsLive())
	assert.Nil(t, l.Body())
	assert.Equal(t, "/site/index.html", l.Source())
	assert.Equal(t, html, l.MediaType())
}

func TestTableCollision(t *testing.T) {
	tbl := frozenTable(t)

	err := tbl.Add("/", Frozen([]byte("other"), html), "/site/index.dj")
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryCollision))
	assert.Contains(t, err.Error(), "/site/index.dj")
	assert.Contains(t, err.Error(), "/site/index.html")

	e, ok := tbl.Lookup("/")
	require.True(t, ok)
	assert.Equal(t, "<h1>home</h1>", string(e.Body()))
	assert.Equal(t, 3, tbl.Len())
}

func TestTableOrderAndOrigins(t *testing.T) {
	tbl := frozenTable(t)
	assert.Equal(t, []string{"/index.html", "/", "/site.css"}, tbl.Patterns())
	assert.Equal(t, "/site/site.css", tbl.Origin("/site.css"))

	var seen []string
	for p := range tbl.All() {
		seen = append(seen, p)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"/index.html", "/"}, seen)
}

func TestMustAddPanicsOnCollision(t *testing.T) {
	tbl := NewTable()
	tbl.MustAdd("/a", Frozen(nil, html))
	assert.Panics(t, func() { tbl.MustAdd("/a", Frozen(nil, html)) })
}

func TestHandlerServesFrozen(t *testing.T) {
	h := MustNewHandler(frozenTable(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, html, rec.Header().Get("Content-Type"))
	assert.Equal(t, "<h1>home</h1>", rec.Body.String())
}

func TestHandlerHead(t *testing.T) {
	h := MustNewHandler(frozenTable(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/site.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.String())
}

func TestHandlerRejectsOtherMethods(t *testing.T) {
	h := MustNewHandler(frozenTable(t))
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(m, "/index.html", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
		assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"), m)
	}
}

func TestHandlerPanicsOnUnregisteredPath(t *testing.T) {
	h := MustNewHandler(frozenTable(t))

	defer func() {
		v := recover()
		require.NotNil(t, v, "unregistered path must not be served")
		err, ok := v.(error)
		require.True(t, ok)
		var upe *UnregisteredPathError
		require.True(t, errors.As(err, &upe))
		assert.Equal(t, "/missing.html", upe.Path)
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing.html", nil))
}

func TestFrozenIgnoresSourceChanges(t *testing.T) {
	src := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o644))

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	tbl := NewTable()
	require.NoError(t, tbl.Add("/", Frozen(data, html), src))
	h := MustNewHandler(tbl)

	require.NoError(t, os.WriteFile(src, []byte("v2"), 0o644))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "v1", rec.Body.String())
}

func TestLiveReflectsSourceChanges(t *testing.T) {
	src := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o644))

	tbl := NewTable()
	require.NoError(t, tbl.Add("/", Live(src, html), src))
	h := MustNewHandler(tbl, WithRenderer(fileRenderer{}))

	get := func() string {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec.Body.String()
	}
	assert.Equal(t, "v1", get())
	require.NoError(t, os.WriteFile(src, []byte("v2"), 0o644))
	assert.Equal(t, "v2", get())
}

func TestLiveRenderFailure(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add("/", Live("/site/index.html", html), "/site/index.html"))
	h := MustNewHandler(tbl, WithRenderer(failingRenderer{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "template evaluation failed")

	var got error
	h = MustNewHandler(tbl, WithRenderer(failingRenderer{}), WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, derrors.HasCategory(got, derrors.CategoryTemplate))
}

func TestNewHandlerRequiresRendererForLive(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add("/", Live("/site/index.html", html), ""))

	_, err := NewHandler(tbl)
	require.Error(t, err)
	assert.Panics(t, func() { MustNewHandler(tbl) })
}

func TestReady(t *testing.T) {
	assert.NoError(t, MustNewHandler(frozenTable(t)).Ready())
	assert.Error(t, MustNewHandler(NewTable()).Ready())
}

func TestRegisterWithChi(t *testing.T) {
	h := MustNewHandler(frozenTable(t))
	r := chi.NewRouter()
	require.NoError(t, h.Register(r))

	for _, p := range h.Patterns() {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterRejectsRouterMetacharacters(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add("/{weird}.html", Frozen(nil, html), ""))
	err := MustNewHandler(tbl).Register(chi.NewRouter())
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
}
