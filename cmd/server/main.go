// Package main is the entry point for the catalog API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/domain"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
	v1 "catalogstore/internal/infrastructure/http/v1"
	"catalogstore/internal/infrastructure/http/v1/handlers"
	"catalogstore/internal/infrastructure/storage/memory"
	"catalogstore/internal/infrastructure/storage/postgres"
	"catalogstore/pkg/config"
	"catalogstore/pkg/logger"
)

const poolStatsInterval = time.Minute

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	plans := fetchplan.NewRegistry()
	if err := warehouse.RegisterPlans(plans); err != nil {
		log.Fatalw("failed to register warehouse plans", "error", err)
	}
	if err := stock.RegisterPlans(plans); err != nil {
		log.Fatalw("failed to register stock plans", "error", err)
	}

	uow, store, cleanup, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "storage", cfg.App.Storage, "error", err)
	}
	defer cleanup()

	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		WarehouseService: warehouse.NewService(uow, plans),
		StockService:     stock.NewService(uow, plans),
		Store:            store,
		Backend:          cfg.App.Storage,
		Debug:            cfg.App.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr, "storage", cfg.App.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return
	}
	log.Info("server stopped")
}

// openStorage connects the configured backend. The memory backend starts empty
// and lives as long as the process.
func openStorage(ctx context.Context, cfg *config.Config) (domain.UnitOfWork, handlers.Pinger, func(), error) {
	if cfg.App.Storage == config.StorageMemory {
		store := memory.NewCatalogStore()
		return memory.NewUnitOfWork(store), store, func() {}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.StatementTimeout = cfg.DB.StatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info(ctx, "database connection established", "max_conns", poolCfg.MaxConns)

	go reportPoolStats(ctx, pool)

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.DB.StatementTimeout
	uow := postgres.NewUnitOfWork(postgres.NewTxManager(pool, txOpts))
	return uow, pool, pool.Close, nil
}

func reportPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}
