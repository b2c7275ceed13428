package memory

import (
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
)

// CatalogSchema returns the constraints of the catalog schema, mirroring
// the PostgreSQL migration.
func CatalogSchema() []Option {
	return []Option{
		WithUnique(Unique{
			Name:    "warehouses_code_key",
			Table:   warehouse.TableName,
			Columns: []string{"code"},
		}),
		WithUnique(Unique{
			Name:    "product_sku_stocks_sku_warehouse_key",
			Table:   stock.TableName,
			Columns: []string{"product_sku_id", "warehouse_id"},
		}),
		WithForeignKey(ForeignKey{
			Name:      "warehouse_market_areas_warehouse_id_fkey",
			Table:     warehouse.MarketAreasTable,
			Column:    "warehouse_id",
			RefTable:  warehouse.TableName,
			RefColumn: "id",
		}),
		WithForeignKey(ForeignKey{
			Name:      "warehouse_delivery_methods_warehouse_id_fkey",
			Table:     warehouse.DeliveryMethodsTable,
			Column:    "warehouse_id",
			RefTable:  warehouse.TableName,
			RefColumn: "id",
		}),
		WithForeignKey(ForeignKey{
			Name:      "product_sku_stocks_warehouse_id_fkey",
			Table:     stock.TableName,
			Column:    "warehouse_id",
			RefTable:  warehouse.TableName,
			RefColumn: "id",
		}),
	}
}

// NewCatalogStore creates a store with the catalog constraints.
func NewCatalogStore() *Store {
	return NewStore(CatalogSchema()...)
}
