package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/id"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
	"catalogstore/internal/infrastructure/http/v1/dto"
)

// WarehouseService is the warehouse use-case surface the handler needs.
type WarehouseService interface {
	Get(ctx context.Context, warehouseID id.ID, sel ...fetchplan.Selector) (*warehouse.Warehouse, error)
	GetByCode(ctx context.Context, code string, sel ...fetchplan.Selector) (*warehouse.Warehouse, error)
	List(ctx context.Context, filter warehouse.ListFilter, sel ...fetchplan.Selector) ([]*warehouse.Warehouse, error)
	Create(ctx context.Context, w *warehouse.Warehouse) (*warehouse.Warehouse, error)
	Update(ctx context.Context, warehouseID id.ID, mutate func(*warehouse.Warehouse) error) (*warehouse.Warehouse, error)
	Delete(ctx context.Context, warehouseID id.ID) error
	LinkMarketArea(ctx context.Context, link *warehouse.WarehouseMarketArea) error
	UnlinkMarketArea(ctx context.Context, warehouseID id.ID, marketAreaID int64) error
	LinkDeliveryMethod(ctx context.Context, warehouseID id.ID, deliveryMethodID int64) error
	UnlinkDeliveryMethod(ctx context.Context, warehouseID id.ID, deliveryMethodID int64) error
	Stocks(ctx context.Context, warehouseID id.ID) ([]*stock.ProductSkuStock, error)
}

// WarehouseHandler serves /warehouses.
type WarehouseHandler struct {
	*BaseHandler
	service WarehouseService
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(base *BaseHandler, service WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{BaseHandler: base, service: service}
}

// List handles GET /warehouses.
func (h *WarehouseHandler) List(c *gin.Context) {
	marketAreaID, ok := h.ParseInt64Query(c, "marketAreaId")
	if !ok {
		return
	}
	deliveryMethodID, ok := h.ParseInt64Query(c, "deliveryMethodId")
	if !ok {
		return
	}

	filter := warehouse.ListFilter{MarketAreaID: marketAreaID, DeliveryMethodID: deliveryMethodID}
	list, err := h.service.List(c.Request.Context(), filter, h.Selectors(c)...)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromWarehouses(list)))
}

// Get handles GET /warehouses/:id.
func (h *WarehouseHandler) Get(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	wh, err := h.service.Get(c.Request.Context(), warehouseID, h.Selectors(c)...)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// GetByCode handles GET /warehouses/by-code/:code.
func (h *WarehouseHandler) GetByCode(c *gin.Context) {
	wh, err := h.service.GetByCode(c.Request.Context(), c.Param("code"), h.Selectors(c)...)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// Create handles POST /warehouses.
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wh, err := h.service.Create(c.Request.Context(), req.ToEntity())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wh.ID)
}

// Update handles PUT /warehouses/:id.
func (h *WarehouseHandler) Update(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.WarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wh, err := h.service.Update(c.Request.Context(), warehouseID, func(w *warehouse.Warehouse) error {
		req.ApplyTo(w)
		return nil
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// Delete handles DELETE /warehouses/:id.
func (h *WarehouseHandler) Delete(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), warehouseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// LinkMarketArea handles PUT /warehouses/:id/market-areas/:marketAreaId.
// The body is optional.
func (h *WarehouseHandler) LinkMarketArea(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	marketAreaID, ok := h.ParseInt64Param(c, "marketAreaId")
	if !ok {
		return
	}
	var req dto.MarketAreaLinkRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	link := &warehouse.WarehouseMarketArea{
		WarehouseID:  warehouseID,
		MarketAreaID: marketAreaID,
		Ordering:     req.Ordering,
		IsDefault:    req.IsDefault,
	}
	if err := h.service.LinkMarketArea(c.Request.Context(), link); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// UnlinkMarketArea handles DELETE /warehouses/:id/market-areas/:marketAreaId.
func (h *WarehouseHandler) UnlinkMarketArea(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	marketAreaID, ok := h.ParseInt64Param(c, "marketAreaId")
	if !ok {
		return
	}
	if err := h.service.UnlinkMarketArea(c.Request.Context(), warehouseID, marketAreaID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// LinkDeliveryMethod handles PUT /warehouses/:id/delivery-methods/:deliveryMethodId.
func (h *WarehouseHandler) LinkDeliveryMethod(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	deliveryMethodID, ok := h.ParseInt64Param(c, "deliveryMethodId")
	if !ok {
		return
	}
	if err := h.service.LinkDeliveryMethod(c.Request.Context(), warehouseID, deliveryMethodID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// UnlinkDeliveryMethod handles DELETE /warehouses/:id/delivery-methods/:deliveryMethodId.
func (h *WarehouseHandler) UnlinkDeliveryMethod(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	deliveryMethodID, ok := h.ParseInt64Param(c, "deliveryMethodId")
	if !ok {
		return
	}
	if err := h.service.UnlinkDeliveryMethod(c.Request.Context(), warehouseID, deliveryMethodID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Stocks handles GET /warehouses/:id/stocks.
func (h *WarehouseHandler) Stocks(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	rows, err := h.service.Stocks(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromStocks(rows)))
}

// RegisterRoutes mounts the warehouse routes on rg.
func (h *WarehouseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/by-code/:code", h.GetByCode)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/stocks", h.Stocks)
	rg.PUT("/:id/market-areas/:marketAreaId", h.LinkMarketArea)
	rg.DELETE("/:id/market-areas/:marketAreaId", h.UnlinkMarketArea)
	rg.PUT("/:id/delivery-methods/:deliveryMethodId", h.LinkDeliveryMethod)
	rg.DELETE("/:id/delivery-methods/:deliveryMethodId", h.UnlinkDeliveryMethod)
}
