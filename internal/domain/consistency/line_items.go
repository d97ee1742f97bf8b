package consistency

import (
	"context"
	"fmt"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/derive"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
)

// lineKind describes one line item / order pair.
type lineKind[I documents.LineItem, O documents.Order] struct {
	itemEntity  string
	orderEntity string
	parentField string
	items       domain.Store[I]
	orders      domain.Store[O]
}

func newSalesLines(s domain.Stores) lineKind[*documents.SalesOrderItem, *documents.SalesOrder] {
	return lineKind[*documents.SalesOrderItem, *documents.SalesOrder]{
		itemEntity:  documents.EntitySalesOrderItem,
		orderEntity: documents.EntitySalesOrder,
		parentField: "sales_order_id",
		items:       s.SalesOrderItems,
		orders:      s.SalesOrders,
	}
}

func newPurchaseLines(s domain.Stores) lineKind[*documents.PurchaseOrderItem, *documents.PurchaseOrder] {
	return lineKind[*documents.PurchaseOrderItem, *documents.PurchaseOrder]{
		itemEntity:  documents.EntityPurchaseOrderItem,
		orderEntity: documents.EntityPurchaseOrder,
		parentField: "purchase_order_id",
		items:       s.PurchaseOrderItems,
		orders:      s.PurchaseOrders,
	}
}

// SalesOrderItemInput creates a sales line. A nil UnitPrice takes the
// product's list price.
type SalesOrderItemInput struct {
	SalesOrderID id.ID
	ProductID    id.ID
	Quantity     int64
	UnitPrice    *types.Money
}

// PurchaseOrderItemInput creates a purchase line.
type PurchaseOrderItemInput struct {
	PurchaseOrderID id.ID
	ProductID       id.ID
	Quantity        int64
	UnitCost        types.Money
}

// CreateSalesOrderItem adds a line to a sales order and recomputes its total.
// The quantity may not exceed the product's stock. A missing or zero price
// takes the product price; any other price must lie within the price
// tolerance of it.
func (m *Maintainer) CreateSalesOrderItem(ctx context.Context, in SalesOrderItemInput) (*documents.SalesOrderItem, error) {
	item := &documents.SalesOrderItem{
		BaseEntity:   entity.NewBaseEntity(),
		SalesOrderID: in.SalesOrderID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
	}

	err := createLine(ctx, m, m.salesLines, item, func(_ context.Context, product *catalogs.Product) (types.Money, error) {
		if in.Quantity > product.StockQuantity {
			e := apperror.NewInsufficientStock(product.ID.String(), in.Quantity, product.StockQuantity)
			e.Message = fmt.Sprintf("Insufficient stock for product %s. Available: %d, Requested: %d",
				product.Name, product.StockQuantity, in.Quantity)
			return types.Zero(), e
		}
		if in.UnitPrice == nil || in.UnitPrice.IsZero() {
			return product.UnitPrice, nil
		}
		if !types.WithinTolerance(*in.UnitPrice, product.UnitPrice, m.priceTolerance) {
			return types.Zero(), apperror.NewValidation(
				fmt.Sprintf("Unit price %s is too different from product price %s", in.UnitPrice.String(), product.UnitPrice.String())).
				WithDetail("field", "unitPrice")
		}
		return *in.UnitPrice, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreatePurchaseOrderItem adds a line to a purchase order and recomputes its total.
func (m *Maintainer) CreatePurchaseOrderItem(ctx context.Context, in PurchaseOrderItemInput) (*documents.PurchaseOrderItem, error) {
	item := &documents.PurchaseOrderItem{
		BaseEntity:      entity.NewBaseEntity(),
		PurchaseOrderID: in.PurchaseOrderID,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
	}

	err := createLine(ctx, m, m.purchaseLines, item, func(context.Context, *catalogs.Product) (types.Money, error) {
		return in.UnitCost, nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateSalesOrderItem merges the patch into the line and recomputes the order.
func (m *Maintainer) UpdateSalesOrderItem(ctx context.Context, itemID id.ID, patch derive.LinePatch) (*documents.SalesOrderItem, error) {
	return updateLine(ctx, m, m.salesLines, itemID, patch)
}

// UpdatePurchaseOrderItem merges the patch into the line and recomputes the order.
func (m *Maintainer) UpdatePurchaseOrderItem(ctx context.Context, itemID id.ID, patch derive.LinePatch) (*documents.PurchaseOrderItem, error) {
	return updateLine(ctx, m, m.purchaseLines, itemID, patch)
}

// DeleteSalesOrderItem removes the line and recomputes the order.
func (m *Maintainer) DeleteSalesOrderItem(ctx context.Context, itemID id.ID) error {
	return deleteLine(ctx, m, m.salesLines, itemID)
}

// DeletePurchaseOrderItem removes the line and recomputes the order.
func (m *Maintainer) DeletePurchaseOrderItem(ctx context.Context, itemID id.ID) error {
	return deleteLine(ctx, m, m.purchaseLines, itemID)
}

// RecomputeSalesOrder rebuilds the order total from its lines.
func (m *Maintainer) RecomputeSalesOrder(ctx context.Context, orderID id.ID) (bool, error) {
	return lockedRecomputeOrder(ctx, m, m.salesLines, orderID)
}

// RecomputePurchaseOrder rebuilds the order total from its lines.
func (m *Maintainer) RecomputePurchaseOrder(ctx context.Context, orderID id.ID) (bool, error) {
	return lockedRecomputeOrder(ctx, m, m.purchaseLines, orderID)
}

func createLine[I documents.LineItem, O documents.Order](
	ctx context.Context,
	m *Maintainer,
	k lineKind[I, O],
	item I,
	unitFor func(ctx context.Context, product *catalogs.Product) (types.Money, error),
) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	orderID := item.ParentID()

	return m.run(ctx, []string{lock.Key(k.orderEntity, orderID)}, func(ctx context.Context) error {
		if _, err := k.orders.GetForUpdate(ctx, orderID); err != nil {
			return notFound(err, k.orderEntity, orderID)
		}
		product, err := m.stores.Products.GetByID(ctx, item.GetProductID())
		if err != nil {
			return notFound(err, catalogs.EntityProduct, item.GetProductID())
		}

		unit, err := unitFor(ctx, product)
		if err != nil {
			return err
		}
		qty := item.GetQuantity()
		item.SetValues(qty, unit, derive.Subtotal(qty, unit))
		if err := item.Validate(ctx); err != nil {
			return err
		}

		if err := k.items.Create(ctx, item); err != nil {
			return fmt.Errorf("create %s: %w", k.itemEntity, err)
		}
		if err := m.record(ctx, audit.ActionCreate, k.itemEntity, item.GetID(), audit.Snapshot(item)); err != nil {
			return err
		}

		if _, err := recomputeOrder(ctx, m, k, orderID); err != nil {
			return staleAggregate(ctx, k.itemEntity, item.GetID(), k.orderEntity, orderID, err)
		}
		return nil
	})
}

func updateLine[I documents.LineItem, O documents.Order](
	ctx context.Context,
	m *Maintainer,
	k lineKind[I, O],
	itemID id.ID,
	patch derive.LinePatch,
) (I, error) {
	var updated I

	current, err := k.items.GetByID(ctx, itemID)
	if err != nil {
		return updated, notFound(err, k.itemEntity, itemID)
	}
	orderID := current.ParentID()

	err = m.run(ctx, []string{lock.Key(k.orderEntity, orderID)}, func(ctx context.Context) error {
		item, err := k.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return notFound(err, k.itemEntity, itemID)
		}
		before := audit.Snapshot(item)

		qty, unit, subtotal := derive.MergeLine(item.GetQuantity(), item.GetUnitValue(), patch)
		item.SetValues(qty, unit, subtotal)
		if err := item.Validate(ctx); err != nil {
			return err
		}

		if err := k.items.Update(ctx, item); err != nil {
			return fmt.Errorf("update %s: %w", k.itemEntity, err)
		}
		if err := m.record(ctx, audit.ActionUpdate, k.itemEntity, itemID, audit.Diff(before, audit.Snapshot(item))); err != nil {
			return err
		}

		if _, err := recomputeOrder(ctx, m, k, orderID); err != nil {
			return staleAggregate(ctx, k.itemEntity, itemID, k.orderEntity, orderID, err)
		}
		updated = item
		return nil
	})
	return updated, err
}

func deleteLine[I documents.LineItem, O documents.Order](
	ctx context.Context,
	m *Maintainer,
	k lineKind[I, O],
	itemID id.ID,
) error {
	current, err := k.items.GetByID(ctx, itemID)
	if err != nil {
		return notFound(err, k.itemEntity, itemID)
	}
	orderID := current.ParentID()

	return m.run(ctx, []string{lock.Key(k.orderEntity, orderID)}, func(ctx context.Context) error {
		if err := k.items.Delete(ctx, itemID); err != nil {
			return notFound(err, k.itemEntity, itemID)
		}
		if err := m.record(ctx, audit.ActionDelete, k.itemEntity, itemID, nil); err != nil {
			return err
		}

		if _, err := recomputeOrder(ctx, m, k, orderID); err != nil {
			return staleAggregate(ctx, k.itemEntity, itemID, k.orderEntity, orderID, err)
		}
		return nil
	})
}

func lockedRecomputeOrder[I documents.LineItem, O documents.Order](
	ctx context.Context,
	m *Maintainer,
	k lineKind[I, O],
	orderID id.ID,
) (changed bool, err error) {
	err = m.run(ctx, []string{lock.Key(k.orderEntity, orderID)}, func(ctx context.Context) error {
		changed, err = recomputeOrder(ctx, m, k, orderID)
		return err
	})
	return changed, err
}

// recomputeOrder sets the order total to the sum of its line subtotals.
// It writes only when the stored total differs.
func recomputeOrder[I documents.LineItem, O documents.Order](
	ctx context.Context,
	m *Maintainer,
	k lineKind[I, O],
	orderID id.ID,
) (changed bool, err error) {
	ctx, span := startSpan(ctx, "consistency.recompute_order", k.orderEntity, orderID)
	defer func() { endSpan(span, err) }()

	order, err := k.orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return false, notFound(err, k.orderEntity, orderID)
	}
	items, err := domain.All(ctx, k.items, filter.Eq(k.parentField, orderID))
	if err != nil {
		return false, fmt.Errorf("load %s lines: %w", k.orderEntity, err)
	}

	total := derive.OrderTotal(items)
	previous := order.GetTotal()
	if previous.Equal(total) {
		return false, nil
	}

	order.SetTotal(total)
	if err := k.orders.Update(ctx, order); err != nil {
		return false, fmt.Errorf("update %s total: %w", k.orderEntity, err)
	}
	err = m.record(ctx, audit.ActionRecompute, k.orderEntity, orderID,
		audit.Change("total_amount", previous.String(), total.String()))
	return err == nil, err
}
