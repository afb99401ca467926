// Package app wires configuration to the stores, registry and services the
// commands run against.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bunchhieng/coursetree/internal/config"
	"github.com/bunchhieng/coursetree/internal/kv"
	"github.com/bunchhieng/coursetree/internal/logger"
	"github.com/bunchhieng/coursetree/internal/registry"
	"github.com/bunchhieng/coursetree/internal/storage"
	"github.com/bunchhieng/coursetree/internal/tree"
)

// App holds the long-lived dependencies of one CLI invocation.
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Store     storage.Storage
	KV        kv.Store
	Registry  *registry.Registry
	Publisher *tree.Publisher
}

// NewStorage opens the document store selected by cfg.
func NewStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Store.Type {
	case config.StoreSQLite:
		return storage.NewSQLiteStorage(cfg.Store.SQLitePath)
	case config.StoreRedis:
		return storage.NewRedisStorage(ctx, storage.RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
	case config.StoreHTTP:
		return storage.NewHTTPStorage(cfg.Store.ServerURL, &http.Client{Timeout: 10 * time.Second})
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// New opens the store and the local registry. Close releases both.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	db, err := kv.OpenBadger(cfg.RegistryDir())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open local registry: %w", err)
	}

	return Assemble(cfg, log, store, db), nil
}

// Assemble builds an App from already opened stores.
func Assemble(cfg *config.Config, log logger.Logger, store storage.Storage, db kv.Store) *App {
	reg := registry.New(db, nil, log)
	return &App{
		Config:    cfg,
		Logger:    log,
		Store:     store,
		KV:        db,
		Registry:  reg,
		Publisher: tree.NewPublisher(store, reg, log),
	}
}

// Synchronizer returns a synchronizer for one tree, using the configured
// debounce window.
func (a *App) Synchronizer(onStatus func(tree.SaveStatus)) *tree.Synchronizer {
	return tree.NewSynchronizer(a.Store, tree.Options{
		Debounce: a.Config.Debounce.Duration,
		Registry: a.Registry,
		Logger:   a.Logger,
		OnStatus: onStatus,
	})
}

// Close releases the store and the registry.
func (a *App) Close() error {
	var firstErr error
	if err := a.KV.Close(); err != nil {
		firstErr = err
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
