package warehouse

import (
	"catalogstore/internal/core/fetchplan"
	"catalogstore/internal/core/query"
	"catalogstore/internal/domain/catalogs/stock"
)

// EntityName is the fetch-plan registry key for warehouses.
const EntityName = "warehouse"

// Eager paths.
const (
	PathMarketAreas     fetchplan.Path = "market_areas"
	PathDeliveryMethods fetchplan.Path = "delivery_methods"
	PathStocks          fetchplan.Path = "stocks"
)

// Plan selectors accepted by warehouse reads.
const (
	SelectBasic   fetchplan.Selector = "basic"
	SelectDefault fetchplan.Selector = "default"
	SelectFull    fetchplan.Selector = "full"
)

// Relations of the warehouse root, usable both for eager loading and for filtering.
var (
	MarketAreas = query.Relation{
		Path:        PathMarketAreas,
		Table:       MarketAreasTable,
		Alias:       "wma",
		OwnerColumn: "warehouse_id",
	}
	DeliveryMethods = query.Relation{
		Path:        PathDeliveryMethods,
		Table:       DeliveryMethodsTable,
		Alias:       "wdm",
		OwnerColumn: "warehouse_id",
	}
	Stocks = query.Relation{
		Path:        PathStocks,
		Table:       stock.TableName,
		Alias:       "pss",
		OwnerColumn: "warehouse_id",
	}
)

// RegisterPlans registers the warehouse plans. SelectDefault becomes the default.
func RegisterPlans(reg *fetchplan.Registry) error {
	reg.Register(EntityName, SelectBasic, fetchplan.New(string(SelectBasic)))
	reg.Register(EntityName, SelectDefault, fetchplan.New(string(SelectDefault),
		PathMarketAreas, PathDeliveryMethods))
	reg.Register(EntityName, SelectFull, fetchplan.New(string(SelectFull),
		PathMarketAreas, PathDeliveryMethods, PathStocks))
	return reg.SetDefault(EntityName, SelectDefault)
}
