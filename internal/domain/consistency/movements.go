package consistency

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/derive"
	"erpledger/internal/domain/documents"
	"erpledger/pkg/logger"
)

// StockMovementInput creates a stock movement. A zero MovementDate means now.
type StockMovementInput struct {
	ProductID    id.ID
	WarehouseID  *id.ID
	Type         documents.MovementType
	Quantity     int64
	Reference    string
	MovementDate time.Time
}

// MovementDeletion is the outcome of deleting a stock movement. Warning is
// set when the movement was removed but its effect could not be reverted.
type MovementDeletion struct {
	Movement      *documents.StockMovement `json:"movement"`
	StockQuantity int64                    `json:"stockQuantity"`
	Warning       *apperror.AppError       `json:"warning,omitempty"`
}

// CreateStockMovement records a movement and applies it to the product stock.
func (m *Maintainer) CreateStockMovement(ctx context.Context, in StockMovementInput) (*documents.StockMovement, error) {
	mv := &documents.StockMovement{
		BaseEntity:   entity.NewBaseEntity(),
		ProductID:    in.ProductID,
		WarehouseID:  in.WarehouseID,
		Type:         in.Type,
		Quantity:     in.Quantity,
		Reference:    in.Reference,
		MovementDate: in.MovementDate,
	}
	if mv.MovementDate.IsZero() {
		mv.MovementDate = m.now()
	}
	if err := mv.Validate(ctx); err != nil {
		return nil, err
	}

	err := m.run(ctx, []string{lock.Key(catalogs.EntityProduct, mv.ProductID)}, func(ctx context.Context) error {
		product, err := m.stores.Products.GetForUpdate(ctx, mv.ProductID)
		if err != nil {
			return notFound(err, catalogs.EntityProduct, mv.ProductID)
		}
		if mv.WarehouseID != nil {
			ok, err := m.stores.Warehouses.Exists(ctx, domain.ListFilter{IDs: []id.ID{*mv.WarehouseID}})
			if err != nil {
				return fmt.Errorf("check warehouse: %w", err)
			}
			if !ok {
				return apperror.NewNotFound(catalogs.EntityWarehouse, mv.WarehouseID.String())
			}
		}

		mv.PreviousStock = product.StockQuantity
		next, err := derive.ApplyStockMovement(product.StockQuantity, mv.Type, mv.Quantity)
		if err != nil {
			return err
		}

		if err := m.stores.StockMovements.Create(ctx, mv); err != nil {
			return fmt.Errorf("create stock movement: %w", err)
		}
		if err := m.record(ctx, audit.ActionCreate, documents.EntityStockMovement, mv.ID, audit.Snapshot(mv)); err != nil {
			return err
		}

		if err := m.setStock(ctx, product, next); err != nil {
			return staleAggregate(ctx, documents.EntityStockMovement, mv.ID, catalogs.EntityProduct, product.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// DeleteStockMovement removes a movement and reverts its effect on the
// product stock. Adjustments are removed without touching the stock; the
// result then carries an Unsupported warning.
func (m *Maintainer) DeleteStockMovement(ctx context.Context, movementID id.ID) (*MovementDeletion, error) {
	current, err := m.stores.StockMovements.GetByID(ctx, movementID)
	if err != nil {
		return nil, notFound(err, documents.EntityStockMovement, movementID)
	}

	var res *MovementDeletion
	err = m.run(ctx, []string{lock.Key(catalogs.EntityProduct, current.ProductID)}, func(ctx context.Context) error {
		mv, err := m.stores.StockMovements.GetForUpdate(ctx, movementID)
		if err != nil {
			return notFound(err, documents.EntityStockMovement, movementID)
		}
		product, err := m.stores.Products.GetForUpdate(ctx, mv.ProductID)
		if err != nil {
			return notFound(err, catalogs.EntityProduct, mv.ProductID)
		}

		next, revertErr := derive.ReverseStockMovement(product.StockQuantity, mv.Type, mv.Quantity)
		var warning *apperror.AppError
		if revertErr != nil {
			if !apperror.IsCode(revertErr, apperror.CodeUnsupported) {
				return revertErr
			}
			warning, _ = apperror.AsAppError(revertErr)
			warning.
				WithDetail("movement_id", mv.ID.String()).
				WithDetail("previous_stock", mv.PreviousStock).
				WithDetail("current_stock", product.StockQuantity)
			logger.Warn(ctx, "adjustment movement deleted without reverting stock",
				"movement_id", mv.ID.String(),
				"product_id", product.ID.String(),
				"previous_stock", mv.PreviousStock,
				"adjusted_to", mv.Quantity,
				"current_stock", product.StockQuantity,
			)
		}

		if err := m.stores.StockMovements.Delete(ctx, movementID); err != nil {
			return notFound(err, documents.EntityStockMovement, movementID)
		}
		if err := m.record(ctx, audit.ActionDelete, documents.EntityStockMovement, movementID, audit.Snapshot(mv)); err != nil {
			return err
		}

		if next != product.StockQuantity {
			if err := m.setStock(ctx, product, next); err != nil {
				return staleAggregate(ctx, documents.EntityStockMovement, movementID, catalogs.EntityProduct, product.ID, err)
			}
		}

		res = &MovementDeletion{Movement: mv, StockQuantity: next, Warning: warning}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (m *Maintainer) setStock(ctx context.Context, product *catalogs.Product, next int64) (err error) {
	ctx, span := startSpan(ctx, "consistency.apply_stock", catalogs.EntityProduct, product.ID)
	defer func() { endSpan(span, err) }()

	previous := product.StockQuantity
	product.StockQuantity = next
	if err := m.stores.Products.Update(ctx, product); err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return m.record(ctx, audit.ActionRecompute, catalogs.EntityProduct, product.ID,
		audit.Change("stock_quantity", previous, next))
}
