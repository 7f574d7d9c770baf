package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/pai-content/internal/api"
	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/importer"
	"github.com/p-n-ai/pai-content/internal/platform/cache"
	"github.com/p-n-ai/pai-content/internal/platform/config"
	"github.com/p-n-ai/pai-content/internal/platform/database"
	"github.com/p-n-ai/pai-content/internal/platform/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = api.DefaultVersion

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(ctx, poolConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	store, err := curriculum.NewPostgresStore(db.Pool)
	if err != nil {
		return err
	}

	checks := []readinessCheck{{name: "database", check: db.HealthCheck}}
	apiCfg := api.Config{
		Reader:      store,
		Version:     version,
		CacheTTL:    cfg.Cache.TTL(),
		CORSOrigins: cfg.Server.CORSOrigins,
	}
	orchCfg := importer.OrchestratorConfig{
		Scanner:  importer.NewScanner(cfg.Import.ContentRoot),
		Importer: importer.New(store),
		History:  store,
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("cache unavailable, serving without response cache", "error", err)
		} else {
			defer c.Close()
			apiCfg.Cache = c
			orchCfg.Cache = c
			checks = append(checks, readinessCheck{name: "cache", check: c.HealthCheck})
		}
	}

	if cfg.Import.OnStartup {
		sum, err := importer.NewOrchestrator(orchCfg).ImportAll(ctx)
		switch {
		case err != nil:
			slog.Error("startup import failed", "error", err)
		case sum.FailureCount > 0:
			slog.Warn("some files failed to import", "failed", sum.FailureCount, "total", sum.TotalFiles)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMux(api.NewRouter(apiCfg), checks...),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

func poolConfig(cfg *config.Config) database.PoolConfig {
	return database.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}
}

type readinessCheck struct {
	name  string
	check func(context.Context) error
}

// newMux adds health check endpoints to the API router.
func newMux(router *chi.Mux, checks ...readinessCheck) *chi.Mux {
	router.Get("/healthz", handleHealthz)
	router.Get("/readyz", handleReadyz(checks))
	return router
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(checks []readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failed []string
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				slog.Warn("readiness check failed", "dependency", c.name, "error", err)
				failed = append(failed, c.name)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"status": "not ready", "failed": failed})
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
