package catalogs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/types"
)

func TestAccount_Validate(t *testing.T) {
	ctx := context.Background()
	a := &Account{Catalog: entity.NewCatalog("Cash"), Code: "1000", Type: "bogus"}
	assert.True(t, apperror.IsCode(a.Validate(ctx), apperror.CodeValidation))

	a.Type = AccountAsset
	assert.NoError(t, a.Validate(ctx))
}

func TestParty_ValidateEmail(t *testing.T) {
	ctx := context.Background()
	c := &Customer{Party: Party{Catalog: entity.NewCatalog("Acme"), Email: "nope"}}
	assert.Error(t, c.Validate(ctx))

	c.Email = "ops@acme.test"
	assert.NoError(t, c.Validate(ctx))
}

func TestProduct_Validate(t *testing.T) {
	ctx := context.Background()
	p := &Product{Catalog: entity.NewCatalog("Widget"), UnitPrice: types.MustMoney("1")}
	assert.Error(t, p.Validate(ctx))

	p.SKU = "W-1"
	assert.NoError(t, p.Validate(ctx))

	p.UnitPrice = types.MustMoney("-1")
	assert.Error(t, p.Validate(ctx))
}

func TestProduct_InventoryValueAndLowStock(t *testing.T) {
	p := &Product{StockQuantity: 4, UnitPrice: types.MustMoney("2.50"), ReorderLevel: 5}
	assert.True(t, p.InventoryValue().Equal(types.MustMoney("10")))
	assert.True(t, p.LowStock())

	p.StockQuantity = 6
	assert.False(t, p.LowStock())
}
