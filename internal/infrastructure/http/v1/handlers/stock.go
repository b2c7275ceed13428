package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"catalogstore/internal/core/id"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/infrastructure/http/v1/dto"
)

// StockService is the stock use-case surface the handler needs.
type StockService interface {
	Get(ctx context.Context, stockID id.ID) (*stock.ProductSkuStock, error)
	Create(ctx context.Context, st *stock.ProductSkuStock) (*stock.ProductSkuStock, error)
	Update(ctx context.Context, stockID id.ID, mutate func(*stock.ProductSkuStock) error) (*stock.ProductSkuStock, error)
	Delete(ctx context.Context, stockID id.ID) error
}

// StockHandler serves /stocks.
type StockHandler struct {
	*BaseHandler
	service StockService
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, service StockService) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Get handles GET /stocks/:id.
func (h *StockHandler) Get(c *gin.Context) {
	stockID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	st, err := h.service.Get(c.Request.Context(), stockID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStock(st))
}

// Create handles POST /stocks.
func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	saved, err := h.service.Create(c.Request.Context(), st)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, saved.ID)
}

// Update handles PUT /stocks/:id.
func (h *StockHandler) Update(c *gin.Context) {
	stockID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st, err := h.service.Update(c.Request.Context(), stockID, req.ApplyTo)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStock(st))
}

// Delete handles DELETE /stocks/:id.
func (h *StockHandler) Delete(c *gin.Context) {
	stockID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), stockID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes mounts the stock routes on rg.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
