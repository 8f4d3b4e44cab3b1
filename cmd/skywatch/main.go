package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"skywatch/internal/aggregator"
	"skywatch/internal/config"
	"skywatch/internal/httpapi"
	"skywatch/internal/models"
	"skywatch/internal/moonphase"
	"skywatch/internal/observability"
	"skywatch/internal/providers"
	"skywatch/internal/realtime"
	"skywatch/internal/store"
	"skywatch/internal/tle"
)

const serviceName = "skywatch"

// Persisted snapshots older than this are pruned after each insert.
const historyRetention = 90 * 24 * time.Hour

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	shutdownObs, promHandler, tracer := observability.SetupObservability(serviceName)
	defer shutdownObs()

	tleFetcher := tle.NewFetcher(cfg.Endpoints.TLESource)
	tleCache := tle.NewCache(cfg.TLECacheDir, 5)

	provs := []providers.Provider{
		providers.NewAPODProvider(cfg.NASAAPIKey, cfg.Endpoints.APOD, cfg.Services.APOD),
		providers.NewISSProvider(cfg.Endpoints.ISSPasses, cfg.Services.ISSPasses, tleFetcher, tleCache),
		providers.NewNeoWsProvider(cfg.NASAAPIKey, cfg.Endpoints.NeoWs, cfg.Services.NeoWs),
		providers.NewEPICProvider(cfg.NASAAPIKey, cfg.Endpoints.EPIC, cfg.Services.EPIC),
	}

	moon := moonphase.NewEstimator(cfg.Endpoints.MoonPhase)
	if !cfg.Services.MoonPhase {
		moon = moonphase.NewLocalEstimator()
	}
	agg := aggregator.New(provs, moon, logger)
	manager := aggregator.NewManager(agg, cfg.Location, cfg.CacheTTL(), cfg.ForecastDays, logger)

	hub := realtime.NewHub()
	manager.Subscribe(hub.BroadcastForecast)

	var repo *store.Repo
	if cfg.DBPath != "" {
		db, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		repo, err = store.New(db)
		if err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		manager.Subscribe(func(f *models.AstronomyForecastData) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.InsertForecast(ctx, f); err != nil {
				slog.Warn("failed to persist forecast", "error", err)
				return
			}
			if _, err := repo.PruneOlderThan(ctx, time.Now().Add(-historyRetention)); err != nil {
				slog.Warn("failed to prune forecast history", "error", err)
			}
		})
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		mirror := store.NewMirror(rdb, cfg.CacheTTL())
		manager.Subscribe(func(f *models.AstronomyForecastData) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mirror.Set(ctx, f); err != nil {
				slog.Warn("failed to mirror forecast to redis", "error", err)
			}
		})
	}

	srv := httpapi.NewServer(manager, repo, hub)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(observability.MetricsAndTracingMiddleware(tracer, serviceName))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promHandler)

	r.Route("/api", func(r chi.Router) {
		srv.RegisterRoutes(r)
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	go manager.Run(runCtx, cfg.RefreshInterval())

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("skywatch started", "port", cfg.Port, "location", cfg.Location.Name)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	stopRun()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down")
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
