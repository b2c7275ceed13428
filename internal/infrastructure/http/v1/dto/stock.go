package dto

import (
	"time"

	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/types"
	"catalogstore/internal/domain/catalogs/stock"
)

// Quantities travel as decimal strings so no precision is lost in JSON numbers.

// CreateStockRequest is the request body for creating a stock row.
type CreateStockRequest struct {
	ProductSkuID int64  `json:"productSkuId" binding:"required"`
	WarehouseID  string `json:"warehouseId" binding:"required"`
	StockRegular string `json:"stockRegular"`
	StockOnOrder string `json:"stockOnOrder"`
	StockAlert   string `json:"stockAlert"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateStockRequest) ToEntity() (*stock.ProductSkuStock, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouse id").
			WithDetail("field", "warehouseId")
	}

	st := stock.NewProductSkuStock(r.ProductSkuID, warehouseID)
	if err := setQuantities(st, r.StockRegular, r.StockOnOrder, r.StockAlert); err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateStockRequest is the request body for updating quantities.
// References of an existing row are immutable.
type UpdateStockRequest struct {
	StockRegular string `json:"stockRegular"`
	StockOnOrder string `json:"stockOnOrder"`
	StockAlert   string `json:"stockAlert"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateStockRequest) ApplyTo(st *stock.ProductSkuStock) error {
	return setQuantities(st, r.StockRegular, r.StockOnOrder, r.StockAlert)
}

func setQuantities(st *stock.ProductSkuStock, regular, onOrder, alert string) error {
	fields := []struct {
		name string
		raw  string
		dst  *types.Quantity
	}{
		{"stockRegular", regular, &st.StockRegular},
		{"stockOnOrder", onOrder, &st.StockOnOrder},
		{"stockAlert", alert, &st.StockAlert},
	}
	for _, f := range fields {
		q, err := types.ParseQuantity(f.raw)
		if err != nil {
			return apperror.NewValidation("invalid quantity").
				WithDetail("field", f.name).
				WithCause(err)
		}
		*f.dst = q
	}
	return nil
}

// StockResponse is the response body for a stock row.
type StockResponse struct {
	ID                 string    `json:"id"`
	ProductSkuID       int64     `json:"productSkuId"`
	WarehouseID        string    `json:"warehouseId"`
	StockRegular       string    `json:"stockRegular"`
	StockOnOrder       string    `json:"stockOnOrder"`
	StockAlert         string    `json:"stockAlert"`
	NeedsReplenishment bool      `json:"needsReplenishment"`
	DateCreate         time.Time `json:"dateCreate"`
	DateUpdate         time.Time `json:"dateUpdate"`
}

// FromStock creates response DTO from domain entity.
func FromStock(st *stock.ProductSkuStock) StockResponse {
	return StockResponse{
		ID:                 st.ID.String(),
		ProductSkuID:       st.ProductSkuID,
		WarehouseID:        st.WarehouseID.String(),
		StockRegular:       st.StockRegular.StringFixed(types.QuantityPlaces),
		StockOnOrder:       st.StockOnOrder.StringFixed(types.QuantityPlaces),
		StockAlert:         st.StockAlert.StringFixed(types.QuantityPlaces),
		NeedsReplenishment: st.NeedsReplenishment(),
		DateCreate:         st.DateCreate,
		DateUpdate:         st.DateUpdate,
	}
}

// FromStocks maps a list of stock rows.
func FromStocks(rows []*stock.ProductSkuStock) []StockResponse {
	return mapSlice(rows, FromStock)
}
