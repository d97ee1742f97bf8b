package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"erpledger/internal/config"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/types"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/workflow"
	"erpledger/pkg/logger"
)

func TestNew_MemoryBackend(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	require.True(t, cfg.UseMemoryStore())

	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(context.Background(), cfg, logger.FromCore(core))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Empty(t, a.Checks)
	assert.Nil(t, a.Pool)
	assert.Equal(t, 1, logs.FilterMessage("DATABASE_URL not set, using in-memory store").Len())

	ctx := context.Background()
	customer := &catalogs.Customer{Party: catalogs.Party{Catalog: entity.NewCatalog("Acme")}}
	require.NoError(t, a.MasterData.Customers.Create(ctx, customer))
	product := &catalogs.Product{
		Catalog:       entity.NewCatalog("Widget"),
		SKU:           "W-1",
		StockQuantity: 10,
		UnitPrice:     types.MustMoney("2.50"),
	}
	require.NoError(t, a.MasterData.Products.Create(ctx, product))

	_, err = a.Maintainer.CreateStockMovement(ctx, consistency.StockMovementInput{
		ProductID: product.ID,
		Type:      documents.MovementOutbound,
		Quantity:  4,
	})
	require.NoError(t, err)

	stored, err := a.Stores.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stored.StockQuantity)

	inv, err := a.Invoices.Create(ctx, workflow.InvoiceInput{CustomerID: customer.ID, Amount: types.MustMoney("15")})
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", inv.Number)

	kpi, err := a.Reports.GetKPI(ctx)
	require.NoError(t, err)
	assert.True(t, kpi.InventoryValue.Equal(types.MustMoney("15")))
}
