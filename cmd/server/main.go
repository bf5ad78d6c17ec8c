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
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/config"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/dedup"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/handler"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/insight"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/intel"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/market/sources"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/middleware"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/notify"
	"github.com/jcarlostinti-lgtm/aluminum-intel/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database archive, optional. Without it the service still aggregates
	// and serves; only run history is lost.
	var db *store.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, run archive disabled")
	} else {
		var err error
		db, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database connected and migrated")
	}

	// Redis dedup, optional. Without it every refresh may re-send alerts.
	var dd *dedup.Deduplicator
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, alert dedup disabled")
	} else {
		var err error
		dd, err = dedup.New(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, alert dedup disabled", "error", err)
			dd = nil
		} else {
			defer dd.Close()
			logger.Info("redis connected for alert dedup")
		}
	}

	notifier := notify.NewSender(cfg.WebhookURL, logger)
	if !notifier.Enabled() {
		logger.Warn("WEBHOOK_URL not set, alerts disabled")
	}

	agg := market.NewAggregator(logger,
		sources.NewWestmetall(logger),
		sources.NewMetalsDev(cfg.MetalsDevAPIKey, logger),
		sources.NewYahoo(cfg.YahooSymbol, logger),
		sources.NewPTAX(logger),
	)

	// Interface values must stay nil when the collaborator is missing; a
	// typed nil pointer would read as present.
	var archive intel.Archiver
	if db != nil {
		archive = db
	}
	var deduper intel.Deduper
	if dd != nil {
		deduper = dd
	}

	engine := intel.NewEngine(agg, archive, deduper, notifier, logger, intel.Options{
		Interval: cfg.RefreshInterval,
		Thresholds: insight.Thresholds{
			PercentileLow:   cfg.PercentileLow,
			PercentileHigh:  cfg.PercentileHigh,
			StockHighTonnes: cfg.StockHighTonnes,
			StockLowTonnes:  cfg.StockLowTonnes,
		},
	})

	go engine.Run(ctx)

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(engine))

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", handler.Snapshot(engine))
		r.Post("/refresh", handler.Refresh(engine))
		r.Get("/analytics", handler.Analytics(engine))
		r.Get("/insights", handler.Insights(engine))
		r.Get("/cost", handler.Cost(engine))
		r.Get("/report", handler.Report(engine))
		r.Get("/status", handler.Status(engine))
		r.Get("/runs", handler.Runs(db))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
