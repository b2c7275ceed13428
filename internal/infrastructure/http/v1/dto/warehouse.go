package dto

import (
	"time"

	"catalogstore/internal/domain/catalogs/warehouse"
)

// --- Request DTOs ---

// WarehouseRequest is the request body for creating or replacing a warehouse.
type WarehouseRequest struct {
	Code        string   `json:"code"`
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	Address1    *string  `json:"address1"`
	Address2    *string  `json:"address2"`
	PostalCode  *string  `json:"postalCode"`
	City        *string  `json:"city"`
	StateCode   *string  `json:"stateCode"`
	CountryCode *string  `json:"countryCode"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ToEntity converts DTO to a transient domain entity.
func (r *WarehouseRequest) ToEntity() *warehouse.Warehouse {
	wh := warehouse.NewWarehouse(r.Code, r.Name)
	r.ApplyTo(wh)
	return wh
}

// ApplyTo copies the request fields onto wh. A blank code keeps the stored one.
func (r *WarehouseRequest) ApplyTo(wh *warehouse.Warehouse) {
	if r.Code != "" {
		wh.Code = r.Code
	}
	wh.Name = r.Name
	wh.Description = r.Description
	wh.Address1 = r.Address1
	wh.Address2 = r.Address2
	wh.PostalCode = r.PostalCode
	wh.City = r.City
	wh.StateCode = r.StateCode
	wh.CountryCode = r.CountryCode
	wh.Latitude = r.Latitude
	wh.Longitude = r.Longitude
}

// MarketAreaLinkRequest is the optional body of PUT .../market-areas/:marketAreaId.
type MarketAreaLinkRequest struct {
	Ordering  int  `json:"ordering"`
	IsDefault bool `json:"isDefault"`
}

// --- Response DTOs ---

// MarketAreaResponse is one market area link.
type MarketAreaResponse struct {
	MarketAreaID int64 `json:"marketAreaId"`
	Ordering     int   `json:"ordering"`
	IsDefault    bool  `json:"isDefault"`
}

// WarehouseResponse is the response body for a warehouse.
// Relation fields are present only when the warehouse was loaded with them.
type WarehouseResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Address1    *string  `json:"address1,omitempty"`
	Address2    *string  `json:"address2,omitempty"`
	PostalCode  *string  `json:"postalCode,omitempty"`
	City        *string  `json:"city,omitempty"`
	StateCode   *string  `json:"stateCode,omitempty"`
	CountryCode *string  `json:"countryCode,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	FetchPlan string `json:"fetchPlan,omitempty"`

	MarketAreas       *[]MarketAreaResponse `json:"marketAreas,omitempty"`
	DeliveryMethodIDs *[]int64              `json:"deliveryMethodIds,omitempty"`
	Stocks            *[]StockResponse      `json:"stocks,omitempty"`

	DateCreate time.Time `json:"dateCreate"`
	DateUpdate time.Time `json:"dateUpdate"`
}

// FromWarehouse creates response DTO from domain entity.
func FromWarehouse(wh *warehouse.Warehouse) WarehouseResponse {
	resp := WarehouseResponse{
		ID:          wh.ID.String(),
		Code:        wh.Code,
		Name:        wh.Name,
		Description: wh.Description,
		Address1:    wh.Address1,
		Address2:    wh.Address2,
		PostalCode:  wh.PostalCode,
		City:        wh.City,
		StateCode:   wh.StateCode,
		CountryCode: wh.CountryCode,
		Latitude:    wh.Latitude,
		Longitude:   wh.Longitude,
		DateCreate:  wh.DateCreate,
		DateUpdate:  wh.DateUpdate,
	}

	plan := wh.FetchPlan()
	resp.FetchPlan = plan.Name()

	if plan.Has(warehouse.PathMarketAreas) {
		areas := make([]MarketAreaResponse, 0, len(wh.MarketAreas))
		for _, ma := range wh.MarketAreas {
			areas = append(areas, MarketAreaResponse{
				MarketAreaID: ma.MarketAreaID,
				Ordering:     ma.Ordering,
				IsDefault:    ma.IsDefault,
			})
		}
		resp.MarketAreas = &areas
	}
	if plan.Has(warehouse.PathDeliveryMethods) {
		ids := make([]int64, 0, len(wh.DeliveryMethods))
		for _, dm := range wh.DeliveryMethods {
			ids = append(ids, dm.DeliveryMethodID)
		}
		resp.DeliveryMethodIDs = &ids
	}
	if plan.Has(warehouse.PathStocks) {
		stocks := FromStocks(wh.Stocks)
		if stocks == nil {
			stocks = []StockResponse{}
		}
		resp.Stocks = &stocks
	}
	return resp
}

// FromWarehouses maps a list of warehouses.
func FromWarehouses(list []*warehouse.Warehouse) []WarehouseResponse {
	return mapSlice(list, FromWarehouse)
}
