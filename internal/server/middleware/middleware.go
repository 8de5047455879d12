// Package middleware provides HTTP middleware for logging and panic recovery.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
	"github.com/mpalmer/static-builder/internal/logfields"
	"github.com/mpalmer/static-builder/internal/metrics"
	"github.com/mpalmer/static-builder/pkg/routes"
)

// Chain returns a middleware wrapper that applies logging and panic recovery around a handler.
func Chain(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if adapter == nil {
		adapter = derrors.NewHTTPErrorAdapter(logger)
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return func(next http.Handler) http.Handler {
		return loggingMiddleware(logger, recorder, panicRecoveryMiddleware(logger, adapter, next))
	}
}

// loggingMiddleware logs method, path, status, duration, user agent, and remote addr.
func loggingMiddleware(logger *slog.Logger, recorder metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			duration := time.Since(start)
			recorder.ObserveRequest(r.Method, wrapped.statusCode, duration)
			logger.Info("HTTP request",
				logfields.Method(r.Method),
				logfields.URLPath(r.URL.Path),
				logfields.Status(wrapped.statusCode),
				slog.Duration("duration", duration),
				logfields.UserAgent(r.UserAgent()),
				logfields.RemoteAddr(r.RemoteAddr))
		}()
		next.ServeHTTP(wrapped, r)
	})
}

// panicRecoveryMiddleware recovers from panics and writes a structured error
// response. A request for a path missing from the route table aborts the
// connection instead.
func panicRecoveryMiddleware(logger *slog.Logger, adapter *derrors.HTTPErrorAdapter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok {
				if errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				var upe *routes.UnregisteredPathError
				if errors.As(err, &upe) {
					logger.Error("Unregistered path reached route handler",
						logfields.URLPath(upe.Path),
						logfields.Method(r.Method))
					panic(http.ErrAbortHandler)
				}
			}

			logger.Error("HTTP handler panic",
				slog.Any("error", rec),
				logfields.URLPath(r.URL.Path),
				logfields.Method(r.Method),
				logfields.RemoteAddr(r.RemoteAddr))

			panicErr := derrors.InternalError("internal server error").
				WithSeverity(derrors.SeverityError).
				WithContext("path", r.URL.Path).
				WithContext("method", r.Method).
				Build()
			adapter.WriteErrorResponse(w, r, panicErr)
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status codes for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }
