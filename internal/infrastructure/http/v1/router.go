// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"catalogstore/internal/infrastructure/http/v1/handlers"
	"catalogstore/internal/infrastructure/http/v1/middleware"
	"catalogstore/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	WarehouseService handlers.WarehouseService
	StockService     handlers.StockService

	// Store is pinged by the readiness probe.
	Store handlers.Pinger

	// Backend names the store in health responses.
	Backend string

	// Debug switches gin to debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order matters: ErrorHandler must wrap Recovery to render recovered panics.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.Backend)
	router.GET("/health", healthHandler.Ready)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		handlers.NewWarehouseHandler(base, cfg.WarehouseService).
			RegisterRoutes(v1.Group("/warehouses"))
		handlers.NewStockHandler(base, cfg.StockService).
			RegisterRoutes(v1.Group("/stocks"))
	}

	return router
}
