// Package server runs the development server: it builds the site, serves the
// route table directly and optionally rebuilds when sources change.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/mpalmer/static-builder/internal/build"
	"github.com/mpalmer/static-builder/internal/config"
	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/internal/logfields"
	"github.com/mpalmer/static-builder/internal/metrics"
	"github.com/mpalmer/static-builder/internal/rebuild"
	smw "github.com/mpalmer/static-builder/internal/server/middleware"
	"github.com/mpalmer/static-builder/pkg/routes"
)

// MetricsPath is where Prometheus metrics are exposed unless a site route claims it.
const MetricsPath = "/metrics"

// Options configures a Server.
type Options struct {
	// Watch rebuilds the route table when sources change.
	Watch bool
	// Metrics exposes MetricsPath.
	Metrics bool
	// Debounce overrides the watcher's settle delay.
	Debounce time.Duration
	// Registry receives the server's metrics. A private registry is used when nil.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Server serves the current build of a site.
type Server struct {
	cfg          *config.Config
	opts         Options
	logger       *slog.Logger
	registry     *prom.Registry
	recorder     metrics.Recorder
	builder      *build.Service
	errorAdapter *derrors.HTTPErrorAdapter

	current atomic.Pointer[state]
	// rebuildMu serialises rebuilds.
	rebuildMu sync.Mutex
	watcher   *rebuild.Watcher

	httpServer *http.Server
	listener   net.Listener
}

type state struct {
	result  *build.Result
	handler http.Handler
}

// New constructs a Server. cfg.Mode must already be resolved.
func New(cfg *config.Config, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		logger:       logger,
		recorder:     metrics.NoopRecorder{},
		errorAdapter: derrors.NewHTTPErrorAdapter(logger),
	}
	if opts.Metrics {
		s.registry = opts.Registry
		if s.registry == nil {
			s.registry = prom.NewRegistry()
		}
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}
	s.builder = build.NewService().WithRecorder(s.recorder)
	return s
}

// Rebuild runs a build and, on success, swaps it in. On failure the previous
// table keeps being served.
func (s *Server) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	var notifier rebuild.Notifier = rebuild.Nop{}
	if s.watcher != nil {
		notifier = s.watcher
	}
	res, err := s.builder.Run(ctx, s.cfg, notifier)
	if err != nil {
		return err
	}
	h, err := s.router(res)
	if err != nil {
		return err
	}
	s.current.Store(&state{result: res, handler: h})
	return nil
}

func (s *Server) router(res *build.Result) (http.Handler, error) {
	rh, err := res.Handler(routes.WithErrorHandler(s.errorAdapter.WriteErrorResponse))
	if err != nil {
		return nil, err
	}
	r := chi.NewRouter()
	r.Use(smw.Chain(s.logger, s.errorAdapter, s.recorder))
	if err := rh.Register(r); err != nil {
		return nil, err
	}
	if s.registry != nil {
		if slices.Contains(rh.Patterns(), MetricsPath) {
			s.logger.Warn("Site route shadows metrics endpoint", logfields.URLPath(MetricsPath))
		} else {
			r.Handle(MetricsPath, metrics.HTTPHandler(s.registry))
		}
	}
	return r, nil
}

// Result returns the build currently being served, or nil before the first build.
func (s *Server) Result() *build.Result {
	if st := s.current.Load(); st != nil {
		return st.result
	}
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := s.current.Load()
	if st == nil {
		s.errorAdapter.WriteErrorResponse(w, r, derrors.RuntimeError("site not built yet").Build())
		return
	}
	st.handler.ServeHTTP(w, r)
}

// Start builds the site, binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.opts.Watch {
		w, err := rebuild.NewWatcher(s.opts.Debounce)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryRuntime, "failed to start file watcher").Build()
		}
		s.watcher = w.WithLogger(s.logger)
	}
	if err := s.Rebuild(ctx); err != nil {
		s.closeWatcher()
		return err
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Serve.Addr)
	if err != nil {
		s.closeWatcher()
		return derrors.WrapError(err, derrors.CategoryRuntime, "failed to bind listen address").
			WithContext("addr", s.cfg.Serve.Addr).Build()
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()
	if s.watcher != nil {
		go func() { _ = s.watcher.Run(ctx) }()
		go s.watchLoop(ctx)
	}

	res := s.Result()
	s.logger.Info("Serving site",
		logfields.Addr(ln.Addr().String()),
		logfields.Mode(res.Mode.String()),
		logfields.Count(res.Table.Len()),
		slog.Bool("watch", s.opts.Watch))
	return nil
}

// Addr returns the bound listen address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run starts the server and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop gracefully shuts down the HTTP server and the watcher.
func (s *Server) Stop(ctx context.Context) error {
	s.closeWatcher()
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) closeWatcher() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

func (s *Server) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-s.watcher.Rebuilds():
			if !ok {
				return
			}
			s.logger.Info("Change detected; rebuilding site")
			if err := s.Rebuild(ctx); err != nil {
				s.logger.Warn("Rebuild failed; serving previous build", logfields.Error(err))
				continue
			}
			s.logger.Info("Rebuild complete", logfields.Count(s.Result().Table.Len()))
		}
	}
}
