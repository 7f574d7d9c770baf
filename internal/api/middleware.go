package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request with the chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// cacheResponses serves GET requests from c and stores successful responses
// under prefix plus the request URI. Cache failures fall through to the
// handler.
func cacheResponses(c ResponseCache, prefix string, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := prefix + r.URL.RequestURI()
			body, ok, err := c.Get(r.Context(), key)
			if err != nil {
				slog.Warn("response cache read failed", "key", key, "error", err)
			}
			if ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(body)
				return
			}

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			ww.Header().Set("X-Cache", "MISS")

			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK {
				return
			}
			if err := c.Set(r.Context(), key, buf.Bytes(), ttl); err != nil {
				slog.Warn("response cache write failed", "key", key, "error", err)
			}
		})
	}
}
