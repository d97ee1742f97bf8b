package masterdata

import (
	"context"
	"sort"

	"erpledger/internal/core/lock"
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/guard"
	"erpledger/pkg/logger"
)

// ProductService manages products. SKUs are unique; a direct stock edit
// may not go below zero while pending sales orders reference the product.
type ProductService struct {
	*domain.CatalogService[*catalogs.Product]
	stores domain.Stores
	locker lock.Locker
}

// NewProductService creates the product service.
func NewProductService(cfg Config) *ProductService {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*catalogs.Product]{
		Store:      cfg.Stores.Products,
		TxManager:  cfg.TxManager,
		Audit:      cfg.Audit,
		EntityName: catalogs.EntityProduct,
	})

	locker := cfg.Locker
	if locker == nil {
		locker = lock.NewKeyedMutex()
	}
	svc := &ProductService{
		CatalogService: base,
		stores:         cfg.Stores,
		locker:         locker,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

func (s *ProductService) prepareForCreate(ctx context.Context, p *catalogs.Product) error {
	return guard.UniqueSKU(ctx, s.stores.Products, p.SKU, p.ID)
}

func (s *ProductService) prepareForUpdate(ctx context.Context, p *catalogs.Product) error {
	if err := guard.UniqueSKU(ctx, s.stores.Products, p.SKU, p.ID); err != nil {
		return err
	}
	return guard.StockFloor(ctx, s.stores, p.ID, p.StockQuantity)
}

// Update writes the product under its stock key so it cannot interleave
// with a movement. A price change is logged as a revaluation.
func (s *ProductService) Update(ctx context.Context, p *catalogs.Product) error {
	ctx, release, err := lock.Acquire(ctx, s.locker, lock.Key(catalogs.EntityProduct, p.ID))
	if err != nil {
		return err
	}
	defer release()

	old, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if err := s.CatalogService.Update(ctx, p); err != nil {
		return err
	}

	if !old.UnitPrice.Equal(p.UnitPrice) {
		logger.Info(ctx, "product revalued",
			"name", p.Name,
			"sku", p.SKU,
			"old_price", old.UnitPrice.String(),
			"new_price", p.UnitPrice.String(),
			"stock", p.StockQuantity,
			"total_value", p.InventoryValue().String(),
		)
	}
	return nil
}

// LowStock returns products at or below their reorder level, lowest stock first.
func (s *ProductService) LowStock(ctx context.Context) ([]*catalogs.Product, error) {
	all, err := domain.All(ctx, s.stores.Products)
	if err != nil {
		return nil, err
	}
	low := make([]*catalogs.Product, 0)
	for _, p := range all {
		if p.LowStock() {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].StockQuantity < low[j].StockQuantity })
	return low, nil
}
