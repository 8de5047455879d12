package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// Renderer renders a live entry's source.
type Renderer interface {
	Render(source string) ([]byte, error)
}

// ErrorHandler writes the response for a failed live render.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// UnregisteredPathError is the panic value raised when a request for a path
// outside the table reaches the handler. The router is expected to only send
// registered paths.
type UnregisteredPathError struct {
	Path string
}

func (e *UnregisteredPathError) Error() string {
	return "unregistered path reached dispatcher: " + e.Path
}

// Handler serves a Table.
type Handler struct {
	table    *Table
	renderer Renderer
	onError  ErrorHandler
}

// Option configures a Handler.
type Option func(*Handler)

// WithRenderer sets the renderer used for live entries.
func WithRenderer(r Renderer) Option {
	return func(h *Handler) { h.renderer = r }
}

// WithErrorHandler replaces the default JSON error response for live render failures.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(h *Handler) { h.onError = fn }
}

// NewHandler returns a Handler for table. Tables with live entries need a renderer.
func NewHandler(table *Table, opts ...Option) (*Handler, error) {
	h := &Handler{table: table}
	for _, opt := range opts {
		opt(h)
	}
	if h.onError == nil {
		h.onError = derrors.NewHTTPErrorAdapter(nil).WriteErrorResponse
	}
	if err := h.checkLive(); err != nil {
		return nil, err
	}
	return h, nil
}

// MustNewHandler is NewHandler that panics on error.
func MustNewHandler(table *Table, opts ...Option) *Handler {
	h, err := NewHandler(table, opts...)
	if err != nil {
		panic(err)
	}
	return h
}

func (h *Handler) checkLive() error {
	if h.table == nil {
		return derrors.InternalError("route table is nil").Build()
	}
	if h.renderer != nil {
		return nil
	}
	for p, e := range h.table.All() {
		if e.IsLive() {
			return derrors.InternalError("live entry without renderer").
				WithContext("url_path", p).Build()
		}
	}
	return nil
}

// Table returns the served table.
func (h *Handler) Table() *Table { return h.table }

// Ready reports whether the handler can serve requests.
func (h *Handler) Ready() error {
	if err := h.checkLive(); err != nil {
		return err
	}
	if h.table.Len() == 0 {
		return derrors.RuntimeError("route table is empty").Build()
	}
	return nil
}

// Patterns returns the URL paths the host router must send to this handler.
func (h *Handler) Patterns() []string { return h.table.Patterns() }

// Register mounts the handler on every pattern. Method filtering is left to
// ServeHTTP so that other methods get 405 rather than chi's default.
func (h *Handler) Register(r chi.Router) error {
	for _, p := range h.table.Patterns() {
		if strings.ContainsAny(p, "{*") {
			return derrors.ValidationError("path cannot be expressed as a router pattern").
				WithContext("url_path", p).Build()
		}
	}
	for _, p := range h.table.Patterns() {
		r.Handle(p, h)
	}
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	e, ok := h.table.Lookup(r.URL.Path)
	if !ok {
		panic(&UnregisteredPathError{Path: r.URL.Path})
	}

	body := e.Body()
	if e.IsLive() {
		var err error
		if body, err = h.renderer.Render(e.Source()); err != nil {
			h.onError(w, r, err)
			return
		}
	}

	w.Header().Set("Content-Type", e.MediaType())
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}
