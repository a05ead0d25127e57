package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/soonerbadges/internal/api"
	"github.com/vytor/soonerbadges/internal/app"
	"github.com/vytor/soonerbadges/internal/badges"
	"github.com/vytor/soonerbadges/internal/config"
	"github.com/vytor/soonerbadges/internal/logger"
	"github.com/vytor/soonerbadges/internal/metrics"
	"github.com/vytor/soonerbadges/internal/services"
)

func main() {
	cfg := config.Load()

	log, logCloser := app.NewLogger(cfg, true)
	logger.SetDefault(log)
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("Sooner Badges Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("storage=%s", cfg.Storage)
	log.Debug("catalog_path=%s", cfg.CatalogPath)
	log.Debug("log_level=%s", cfg.LogLevel)

	ctx := logger.NewContext(context.Background(), log)

	repo, closer, err := app.OpenRepository(ctx, cfg)
	if err != nil {
		log.Error("failed to open storage: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing storage")
		closer.Close()
	}()

	catalog, err := app.LoadCatalog(cfg)
	if err != nil {
		log.Error("failed to load catalog: %v", err)
		os.Exit(1)
	}
	log.Info("catalog loaded: %d badges, %d points available", len(catalog), badges.TotalPoints(catalog))

	rec := metrics.New()
	engine := badges.NewEngine(repo, catalog, badges.WithRecorder(rec))

	srv := &api.Server{
		BadgeService: services.NewBadgeService(engine, repo),
		Metrics:      rec.Handler(),
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("Sooner Badges Server Stopped")
	log.Info("===========================================")
}
