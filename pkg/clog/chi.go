package clog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type chiConfig struct {
	skip func(r *http.Request) bool
}

type ChiOption func(*chiConfig)

// WithChiSkip suppresses the access log line for requests matching skip.
func WithChiSkip(skip func(r *http.Request) bool) ChiOption {
	return func(cfg *chiConfig) {
		cfg.skip = skip
	}
}

// SlogChiMiddleware installs a log attribute bag on the request context and
// writes one access log line per request once the handler returns.
func SlogChiMiddleware(opts ...ChiOption) func(http.Handler) http.Handler {
	var cfg chiConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := ContextWithSlog(r.Context())
			AddAttributes(ctx, map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
				"proto":  r.Proto,
			})

			next.ServeHTTP(ww, r.WithContext(ctx))

			if cfg.skip != nil && cfg.skip(r) {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			AddAttributes(ctx, map[string]any{
				"status":        status,
				"bytes_written": ww.BytesWritten(),
				"duration":      time.Since(start),
			})
			logAt(ctx, HTTPStatusToLevel(status), http.StatusText(status))
		})
	}
}
