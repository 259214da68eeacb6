package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/uneedwind/webhook-gateway/internal/envelope"
	"github.com/uneedwind/webhook-gateway/internal/logging"
	"github.com/uneedwind/webhook-gateway/internal/metrics"
)

const requestTimeout = 60 * time.Second

var (
	errRouteNotFound    = errors.New("route not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

// RouterOptions wires the shared collaborators into the router.
type RouterOptions struct {
	Logger  *slog.Logger
	Metrics *metrics.HTTPMetrics
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
}

// NewRouter returns a chi router pre-configured with default middleware and
// JSON envelopes for unknown routes, wrong methods and panics.
func NewRouter(opts RouterOptions, register func(r chi.Router)) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(opts.Metrics.Middleware)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		envelope.Write(w, http.StatusNotFound, envelope.Error(errRouteNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		envelope.Write(w, http.StatusMethodNotAllowed, envelope.Error(errMethodNotAllowed))
	})

	if opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, opts.Metrics.Handler())
	}

	if register != nil {
		register(r)
	}

	return r
}

// RequestLogger emits one line per completed request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logging.WithRequestID(r.Context(), logger, middleware.GetReqID(r.Context())).Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

// Recoverer converts a panic into an error envelope with status 500.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				logging.WithRequestID(r.Context(), logger, middleware.GetReqID(r.Context())).Error("panic recovered",
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				envelope.Write(w, http.StatusInternalServerError, envelope.Error(errors.New("internal server error")))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
