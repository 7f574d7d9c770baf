// Package api serves the imported content over a read-only REST API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/p-n-ai/pai-content/internal/curriculum"
)

// DefaultVersion is reported by the root banner when Config.Version is empty.
const DefaultVersion = "1.0.0"

// ResponseCache stores rendered GET responses. *cache.Cache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config wires the API router. Cache is optional.
type Config struct {
	Reader      curriculum.Reader
	Cache       ResponseCache
	CacheTTL    time.Duration
	CachePrefix string   // default "api:"
	CORSOrigins []string // browser origins allowed to read the API; none disables CORS
	Version     string
}

// NewRouter builds the chi router for the read API. Callers may mount
// further routes (health checks) on the returned mux.
func NewRouter(cfg Config) *chi.Mux {
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "api:"
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	h := &handlers{reader: cfg.Reader, version: cfg.Version}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Cache", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
	})

	r.Get("/", h.root)

	r.Route("/api", func(r chi.Router) {
		if cfg.Cache != nil {
			r.Use(cacheResponses(cfg.Cache, cfg.CachePrefix, cfg.CacheTTL))
		}

		r.Get("/subjects", h.listSubjects)
		r.Get("/subjects/{code}", h.getSubject)
		r.Get("/subjects/{code}/topics", h.listTopics)

		r.Get("/topics/{topicID}/concepts", h.listConcepts)

		r.Get("/concepts/{id}/lesson", h.getLesson)
		r.Get("/concepts/{id}/questions", h.listQuestions)

		r.Get("/past-questions/{board}/{subject}", h.listPastQuestions)

		r.Get("/imports", h.listImports)
	})

	return r
}
