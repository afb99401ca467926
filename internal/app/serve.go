package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bunchhieng/coursetree/internal/config"
	"github.com/bunchhieng/coursetree/internal/httpserver"
	"github.com/bunchhieng/coursetree/internal/httpserver/deps"
	"github.com/bunchhieng/coursetree/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Serve exposes the configured document store over HTTP until interrupted.
func Serve(cfg *config.Config, log logger.Logger, version string) error {
	if cfg.Store.Type == config.StoreHTTP {
		return errors.New("serve needs a sqlite or redis store, not http")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := NewStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	server := httpserver.New(cfg.Server.Listen, deps.Deps{
		Logger:         log,
		Store:          store,
		StartTime:      time.Now(),
		Version:        version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	log.Info("starting coursetree server",
		logger.String("listen", cfg.Server.Listen),
		logger.String("store", cfg.Store.Type),
		logger.String("version", version),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
