package dbmap

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
)

type status string

type mockProduct struct {
	entity.Catalog
	SKU      string          `db:"sku"`
	Stock    int64           `db:"stock_quantity"`
	Price    decimal.Decimal `db:"unit_price"`
	Warehose *id.ID          `db:"warehouse_id"`
	State    status          `db:"status"`
	Ignored  string          `db:"-"`
	Untagged string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockProduct]()

	for _, expected := range []string{"id", "version", "created_at", "updated_at", "name", "sku", "stock_quantity", "unit_price", "warehouse_id", "status"} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, 10)
}

func TestExtractDBColumns_PointerType(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[mockProduct](), ExtractDBColumns[*mockProduct]())
}

func TestStructToMap(t *testing.T) {
	p := &mockProduct{
		Catalog: entity.NewCatalog("Widget"),
		SKU:     "W-1",
		Stock:   5,
		Price:   decimal.RequireFromString("2.50"),
		State:   "active",
	}
	m := StructToMap(p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "Widget", m["name"])
	assert.Equal(t, int64(5), m["stock_quantity"])
	assert.Nil(t, m["warehouse_id"].(*id.ID))
	assert.NotContains(t, m, "Untagged")

	var nilProduct *mockProduct
	assert.Nil(t, StructToMap(nilProduct))
}

func TestNormalizeAndCompare(t *testing.T) {
	u := id.New()
	assert.Equal(t, u.String(), Normalize(u))
	assert.Equal(t, u.String(), Normalize(&u))
	var nilRef *id.ID
	assert.Nil(t, Normalize(nilRef))
	assert.Equal(t, "draft", Normalize(status("draft")))

	c, ok := Compare(int64(5), decimal.NewFromInt(7))
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	now := time.Now()
	c, ok = Compare(now.Add(time.Second), now)
	assert.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Compare("a", int64(1))
	assert.False(t, ok)

	assert.True(t, Equal(u, u.String()))
	assert.True(t, Equal(status("x"), "x"))
	assert.True(t, Equal(nilRef, nil))
	assert.False(t, Equal(&u, nil))
}
