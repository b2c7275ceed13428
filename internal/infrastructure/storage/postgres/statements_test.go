package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogstore/internal/core/id"
	"catalogstore/internal/domain/catalogs/stock"
	"catalogstore/internal/domain/catalogs/warehouse"
)

func TestInsertStatement(t *testing.T) {
	st := stock.NewProductSkuStock(7, id.New())
	st.ID = id.New()

	sql, args, err := insertStatement(st)
	require.NoError(t, err)

	wantSQL := "INSERT INTO product_sku_stocks " +
		"(date_create,date_update,id,product_sku_id,stock_alert,stock_on_order,stock_regular,warehouse_id) " +
		"VALUES ($1,$2,$3,$4,$5,$6,$7,$8)"
	assert.Equal(t, wantSQL, sql)
	require.Len(t, args, 8)
	assert.Equal(t, st.ID, args[2])
	assert.Equal(t, int64(7), args[3])
}

func TestUpdateStatement_SkipsKeyAndCreationColumns(t *testing.T) {
	w := warehouse.NewWarehouse("AAA", "Main")
	w.ID = id.New()
	w.DateUpdate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sql, args, ok, err := updateStatement(w)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Contains(t, sql, "UPDATE warehouses SET ")
	assert.NotContains(t, sql, "SET id =")
	assert.NotContains(t, sql, ", id =")
	assert.Contains(t, sql, "WHERE id = $")
	assert.NotContains(t, sql, "date_create")
	// every column but date_create, with id bound once in WHERE
	assert.Len(t, args, len(warehouse.Columns)-1)
}

func TestUpdateStatement_KeyOnlyRecord(t *testing.T) {
	link := &warehouse.WarehouseDeliveryMethod{WarehouseID: id.New(), DeliveryMethodID: 3}

	_, _, ok, err := updateStatement(link)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteStatement_CompositeKey(t *testing.T) {
	link := &warehouse.WarehouseMarketArea{WarehouseID: id.New(), MarketAreaID: 5}

	sql, args, err := deleteStatement(link.TableName(), link.Key())
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM warehouse_market_areas WHERE market_area_id = $1 AND warehouse_id = $2", sql)
	require.Len(t, args, 2)
	assert.Equal(t, int64(5), args[0])
}

func TestSelectByKeyStatement(t *testing.T) {
	link := &warehouse.WarehouseMarketArea{WarehouseID: id.New(), MarketAreaID: 5}

	sql, _, err := selectByKeyStatement(link)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT is_default, market_area_id, ordering, warehouse_id FROM warehouse_market_areas "+
			"WHERE market_area_id = $1 AND warehouse_id = $2 LIMIT 1",
		sql)
}
