// Package stock provides ProductSkuStock: the on-hand, on-order and alert
// quantities of one product SKU in one warehouse.
package stock

import (
	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/id"
	"catalogstore/internal/core/types"
)

// TableName is the table ProductSkuStock rows live in.
const TableName = "product_sku_stocks"

// ProductSkuStock is the stock level of a product SKU in a warehouse.
type ProductSkuStock struct {
	entity.BaseEntity

	// ProductSkuID references the SKU catalog, owned by another service.
	ProductSkuID int64 `db:"product_sku_id" json:"productSkuId"`

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`

	StockRegular types.Quantity `db:"stock_regular" json:"stockRegular"`
	StockOnOrder types.Quantity `db:"stock_on_order" json:"stockOnOrder"`

	// StockAlert is the level at or below which the SKU needs replenishment.
	StockAlert types.Quantity `db:"stock_alert" json:"stockAlert"`
}

// Columns are the persisted columns in declaration order.
var Columns = entity.ExtractDBColumns[ProductSkuStock]()

// NewProductSkuStock creates a transient stock row with zero quantities.
func NewProductSkuStock(productSkuID int64, warehouseID id.ID) *ProductSkuStock {
	return &ProductSkuStock{
		ProductSkuID: productSkuID,
		WarehouseID:  warehouseID,
		StockRegular: types.ZeroQuantity(),
		StockOnOrder: types.ZeroQuantity(),
		StockAlert:   types.ZeroQuantity(),
	}
}

// TableName implements entity.Record.
func (s *ProductSkuStock) TableName() string { return TableName }

// OwnerID returns the warehouse the row belongs to.
func (s *ProductSkuStock) OwnerID() id.ID { return s.WarehouseID }

// Available returns the quantity that can be sold right now.
func (s *ProductSkuStock) Available() types.Quantity {
	return s.StockRegular
}

// NeedsReplenishment reports whether regular stock fell to the alert level.
func (s *ProductSkuStock) NeedsReplenishment() bool {
	return s.StockRegular.LessThanOrEqual(s.StockAlert)
}

// Validate checks references and quantities.
func (s *ProductSkuStock) Validate() error {
	if s.ProductSkuID <= 0 {
		return apperror.NewValidation("product SKU is required").
			WithDetail("field", "productSkuId")
	}
	if id.IsNil(s.WarehouseID) {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouseId")
	}

	quantities := map[string]types.Quantity{
		"stockRegular": s.StockRegular,
		"stockOnOrder": s.StockOnOrder,
		"stockAlert":   s.StockAlert,
	}
	for field, q := range quantities {
		if q.IsNegative() {
			return apperror.NewValidation("quantity must not be negative").
				WithDetail("field", field).
				WithDetail("value", q.String())
		}
	}
	return nil
}

// Normalize rounds all quantities to the stored precision.
func (s *ProductSkuStock) Normalize() {
	s.StockRegular = types.NormalizeQuantity(s.StockRegular)
	s.StockOnOrder = types.NormalizeQuantity(s.StockOnOrder)
	s.StockAlert = types.NormalizeQuantity(s.StockAlert)
}
