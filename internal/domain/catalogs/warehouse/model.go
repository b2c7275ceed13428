// Package warehouse provides the Warehouse catalog: physical locations that
// hold stock and serve market areas through delivery methods.
package warehouse

import (
	"strings"

	"catalogstore/internal/core/apperror"
	"catalogstore/internal/core/entity"
	"catalogstore/internal/core/id"
	"catalogstore/internal/domain/catalogs/stock"
)

const (
	TableName            = "warehouses"
	MarketAreasTable     = "warehouse_market_areas"
	DeliveryMethodsTable = "warehouse_delivery_methods"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.BaseEntity
	entity.FetchPlanned

	// Code is the unique business key. Generated on save when blank.
	Code string `db:"code" json:"code"`

	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`

	Address1    *string `db:"address1" json:"address1,omitempty"`
	Address2    *string `db:"address2" json:"address2,omitempty"`
	PostalCode  *string `db:"postal_code" json:"postalCode,omitempty"`
	City        *string `db:"city" json:"city,omitempty"`
	StateCode   *string `db:"state_code" json:"stateCode,omitempty"`
	CountryCode *string `db:"country_code" json:"countryCode,omitempty"`

	Latitude  *float64 `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64 `db:"longitude" json:"longitude,omitempty"`

	// Relations below are populated only when the fetch plan includes them.
	// nil means "not loaded", an empty slice means "loaded, none".
	MarketAreas     []*WarehouseMarketArea     `db:"-" json:"-"`
	DeliveryMethods []*WarehouseDeliveryMethod `db:"-" json:"-"`
	Stocks          []*stock.ProductSkuStock   `db:"-" json:"-"`
}

// Columns are the persisted warehouse columns in declaration order.
var Columns = entity.ExtractDBColumns[Warehouse]()

// NewWarehouse creates a transient warehouse. code may be blank.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{Code: code, Name: name}
}

// TableName implements entity.Record.
func (w *Warehouse) TableName() string { return TableName }

// Validate checks field constraints. A blank code is valid: it is generated on save.
func (w *Warehouse) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if len(w.Code) > 64 {
		return apperror.NewValidation("code is too long").
			WithDetail("field", "code").
			WithDetail("max", 64)
	}
	if w.Latitude != nil && (*w.Latitude < -90 || *w.Latitude > 90) {
		return apperror.NewValidation("latitude out of range").
			WithDetail("field", "latitude")
	}
	if w.Longitude != nil && (*w.Longitude < -180 || *w.Longitude > 180) {
		return apperror.NewValidation("longitude out of range").
			WithDetail("field", "longitude")
	}
	if w.CountryCode != nil && len(*w.CountryCode) != 2 {
		return apperror.NewValidation("country code must be ISO 3166-1 alpha-2").
			WithDetail("field", "countryCode")
	}
	return nil
}

// DefaultMarketArea returns the market area link flagged as default, if loaded.
func (w *Warehouse) DefaultMarketArea() (*WarehouseMarketArea, bool) {
	for _, ma := range w.MarketAreas {
		if ma.IsDefault {
			return ma, true
		}
	}
	return nil, false
}

// WarehouseMarketArea links a warehouse to a market area it serves.
type WarehouseMarketArea struct {
	WarehouseID  id.ID `db:"warehouse_id" json:"warehouseId"`
	MarketAreaID int64 `db:"market_area_id" json:"marketAreaId"`
	Ordering     int   `db:"ordering" json:"ordering"`
	IsDefault    bool  `db:"is_default" json:"isDefault"`
}

var marketAreaColumns = entity.ExtractDBColumns[WarehouseMarketArea]()

// TableName implements entity.Record.
func (a *WarehouseMarketArea) TableName() string { return MarketAreasTable }

// Key implements entity.Record.
func (a *WarehouseMarketArea) Key() map[string]any {
	return map[string]any{"warehouse_id": a.WarehouseID, "market_area_id": a.MarketAreaID}
}

// OwnerID implements entity.Owned.
func (a *WarehouseMarketArea) OwnerID() id.ID { return a.WarehouseID }

// WarehouseDeliveryMethod links a warehouse to a delivery method it ships with.
type WarehouseDeliveryMethod struct {
	WarehouseID      id.ID `db:"warehouse_id" json:"warehouseId"`
	DeliveryMethodID int64 `db:"delivery_method_id" json:"deliveryMethodId"`
}

var deliveryMethodColumns = entity.ExtractDBColumns[WarehouseDeliveryMethod]()

// TableName implements entity.Record.
func (d *WarehouseDeliveryMethod) TableName() string { return DeliveryMethodsTable }

// Key implements entity.Record.
func (d *WarehouseDeliveryMethod) Key() map[string]any {
	return map[string]any{"warehouse_id": d.WarehouseID, "delivery_method_id": d.DeliveryMethodID}
}

// OwnerID implements entity.Owned.
func (d *WarehouseDeliveryMethod) OwnerID() id.ID { return d.WarehouseID }
