package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"staylane/internal/infra/config"
	ginserver "staylane/internal/infra/http/gin"
	"staylane/internal/infra/obs"
)

type builder func(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		stop()
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	err = run(ctx, cfg, logger, buildApplication)
	stop()
	if err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// run returns only after every client opened by build has been closed.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, build builder) error {
	app, err := build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("application wiring failed: %w", err)
	}
	defer app.close(context.Background())

	if cfg.Storage == config.StorageMemory {
		if err := loadFixtures(ctx, app.uow, cfg, cfg.FixturesPath, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", cfg.FixturesPath)
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: app.ready}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.worker.Run(gctx)
	})
	if app.consumer != nil {
		g.Go(func() error {
			return app.consumer.Run(gctx, app.consumerTopics)
		})
	}
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
