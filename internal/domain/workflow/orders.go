package workflow

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/core/numerator"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
	"erpledger/pkg/logger"
)

// Orders are numbered from an in-memory range; gaps after a restart are accepted.
const orderNumberStrategy = numerator.StrategyCached

// SalesOrderInput creates a sales order. Empty Number and zero Date are filled in.
type SalesOrderInput struct {
	CustomerID id.ID
	Number     string
	Date       time.Time
}

// PurchaseOrderInput creates a purchase order.
type PurchaseOrderInput struct {
	SupplierID  id.ID
	WarehouseID *id.ID
	Number      string
	Date        time.Time
}

// OrderDetail is an order with its lines.
type OrderDetail[O any, I any] struct {
	Order O   `json:"order"`
	Items []I `json:"items"`
}

// OrderService manages sales and purchase orders.
type OrderService struct {
	base
}

// NewOrderService creates the order service.
func NewOrderService(cfg Config) *OrderService {
	return &OrderService{base: newBase(cfg)}
}

// CreateSalesOrder opens a draft sales order for an existing customer.
func (s *OrderService) CreateSalesOrder(ctx context.Context, in SalesOrderInput) (*documents.SalesOrder, error) {
	o := documents.NewSalesOrder(in.CustomerID)
	o.Number = in.Number
	o.TotalAmount = types.Zero()
	if !in.Date.IsZero() {
		o.Date = in.Date
	}
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := related(ctx, s.stores.Customers, o.CustomerID, catalogs.EntityCustomer, "Related Customer does not exist"); err != nil {
			return err
		}
		if o.Number == "" {
			number, err := s.nextNumber(ctx, numerator.PrefixSalesOrder, orderNumberStrategy)
			if err != nil {
				return err
			}
			o.Number = number
		}
		if err := s.stores.SalesOrders.Create(ctx, o); err != nil {
			return fmt.Errorf("create sales order: %w", err)
		}
		return s.record(ctx, audit.ActionCreate, documents.EntitySalesOrder, o.ID, audit.Snapshot(o))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order created", "id", o.ID.String(), "number", o.Number)
	return o, nil
}

// CreatePurchaseOrder opens a draft purchase order for an existing supplier.
func (s *OrderService) CreatePurchaseOrder(ctx context.Context, in PurchaseOrderInput) (*documents.PurchaseOrder, error) {
	o := documents.NewPurchaseOrder(in.SupplierID)
	o.WarehouseID = in.WarehouseID
	o.Number = in.Number
	o.TotalAmount = types.Zero()
	if !in.Date.IsZero() {
		o.Date = in.Date
	}
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := related(ctx, s.stores.Suppliers, o.SupplierID, catalogs.EntitySupplier, "Related Supplier does not exist"); err != nil {
			return err
		}
		if o.WarehouseID != nil {
			if _, err := related(ctx, s.stores.Warehouses, *o.WarehouseID, catalogs.EntityWarehouse, "Related Warehouse does not exist"); err != nil {
				return err
			}
		}
		if o.Number == "" {
			number, err := s.nextNumber(ctx, numerator.PrefixPurchaseOrder, orderNumberStrategy)
			if err != nil {
				return err
			}
			o.Number = number
		}
		if err := s.stores.PurchaseOrders.Create(ctx, o); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		return s.record(ctx, audit.ActionCreate, documents.EntityPurchaseOrder, o.ID, audit.Snapshot(o))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created", "id", o.ID.String(), "number", o.Number)
	return o, nil
}

// GetSalesOrder returns the order with its lines.
func (s *OrderService) GetSalesOrder(ctx context.Context, orderID id.ID) (*OrderDetail[*documents.SalesOrder, *documents.SalesOrderItem], error) {
	o, err := s.stores.SalesOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, documents.EntitySalesOrder, orderID)
	}
	items, err := domain.All(ctx, s.stores.SalesOrderItems, filter.Eq("sales_order_id", orderID))
	if err != nil {
		return nil, fmt.Errorf("load sales order items: %w", err)
	}
	return &OrderDetail[*documents.SalesOrder, *documents.SalesOrderItem]{Order: o, Items: items}, nil
}

// GetPurchaseOrder returns the order with its lines.
func (s *OrderService) GetPurchaseOrder(ctx context.Context, orderID id.ID) (*OrderDetail[*documents.PurchaseOrder, *documents.PurchaseOrderItem], error) {
	o, err := s.stores.PurchaseOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, documents.EntityPurchaseOrder, orderID)
	}
	items, err := domain.All(ctx, s.stores.PurchaseOrderItems, filter.Eq("purchase_order_id", orderID))
	if err != nil {
		return nil, fmt.Errorf("load purchase order items: %w", err)
	}
	return &OrderDetail[*documents.PurchaseOrder, *documents.PurchaseOrderItem]{Order: o, Items: items}, nil
}

// ListSalesOrders lists sales orders.
func (s *OrderService) ListSalesOrders(ctx context.Context, f domain.ListFilter) (domain.ListResult[*documents.SalesOrder], error) {
	return s.stores.SalesOrders.List(ctx, f)
}

// ListPurchaseOrders lists purchase orders.
func (s *OrderService) ListPurchaseOrders(ctx context.Context, f domain.ListFilter) (domain.ListResult[*documents.PurchaseOrder], error) {
	return s.stores.PurchaseOrders.List(ctx, f)
}

// UpdateSalesOrderStatus sets the workflow status of a sales order.
func (s *OrderService) UpdateSalesOrderStatus(ctx context.Context, orderID id.ID, status documents.SalesOrderStatus) (*documents.SalesOrder, error) {
	if !status.Valid() {
		return nil, apperror.NewValidation("Invalid sales order status").WithDetail("status", string(status))
	}

	var updated *documents.SalesOrder
	err := s.run(ctx, []string{lock.Key(documents.EntitySalesOrder, orderID)}, func(ctx context.Context) error {
		o, err := s.stores.SalesOrders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, documents.EntitySalesOrder, orderID)
		}
		if o.Status == status {
			updated = o
			return nil
		}

		previous := o.Status
		o.Status = status
		if err := s.stores.SalesOrders.Update(ctx, o); err != nil {
			return fmt.Errorf("update sales order status: %w", err)
		}
		updated = o
		return s.record(ctx, audit.ActionUpdate, documents.EntitySalesOrder, orderID,
			audit.Change("status", string(previous), string(status)))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePurchaseOrderStatus sets the workflow status of a purchase order.
// Moving to received books one inbound stock movement per line, referencing
// the order number, in the same transaction.
func (s *OrderService) UpdatePurchaseOrderStatus(ctx context.Context, orderID id.ID, status documents.PurchaseOrderStatus) (*documents.PurchaseOrder, error) {
	if !status.Valid() {
		return nil, apperror.NewValidation("Invalid purchase order status").WithDetail("status", string(status))
	}

	keys := []string{lock.Key(documents.EntityPurchaseOrder, orderID)}
	if status == documents.PurchaseOrderReceived {
		items, err := domain.All(ctx, s.stores.PurchaseOrderItems, filter.Eq("purchase_order_id", orderID))
		if err != nil {
			return nil, fmt.Errorf("load purchase order items: %w", err)
		}
		for _, it := range items {
			keys = append(keys, lock.Key(catalogs.EntityProduct, it.ProductID))
		}
	}

	var updated *documents.PurchaseOrder
	var received int
	err := s.run(ctx, keys, func(ctx context.Context) error {
		o, err := s.stores.PurchaseOrders.GetForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, documents.EntityPurchaseOrder, orderID)
		}
		if o.Status == status {
			updated = o
			return nil
		}

		if status == documents.PurchaseOrderReceived {
			if received, err = s.receive(ctx, o); err != nil {
				return err
			}
		}

		previous := o.Status
		o.Status = status
		if err := s.stores.PurchaseOrders.Update(ctx, o); err != nil {
			return fmt.Errorf("update purchase order status: %w", err)
		}
		updated = o
		return s.record(ctx, audit.ActionUpdate, documents.EntityPurchaseOrder, orderID,
			audit.Change("status", string(previous), string(status)))
	})
	if err != nil {
		return nil, err
	}

	if received > 0 {
		logger.Info(ctx, "purchase order received",
			"id", orderID.String(), "number", updated.Number, "movements", received)
	}
	return updated, nil
}

// receive books the inbound movements of o. Every product key must
// already be held by ctx.
func (s *OrderService) receive(ctx context.Context, o *documents.PurchaseOrder) (int, error) {
	items, err := domain.All(ctx, s.stores.PurchaseOrderItems, filter.Eq("purchase_order_id", o.ID))
	if err != nil {
		return 0, fmt.Errorf("load purchase order items: %w", err)
	}

	booked := 0
	for _, it := range items {
		// a line added after the keys were chosen
		if !lock.Holds(ctx, lock.Key(catalogs.EntityProduct, it.ProductID)) {
			return 0, apperror.NewConcurrentModification(documents.EntityPurchaseOrder, o.ID.String())
		}
		if it.Quantity == 0 {
			continue
		}
		_, err := s.m.CreateStockMovement(ctx, consistency.StockMovementInput{
			ProductID:    it.ProductID,
			WarehouseID:  o.WarehouseID,
			Type:         documents.MovementInbound,
			Quantity:     it.Quantity,
			Reference:    o.Number,
			MovementDate: s.now(),
		})
		if err != nil {
			return 0, fmt.Errorf("receive %s line %s: %w", o.Number, it.ID, err)
		}
		booked++
	}
	return booked, nil
}
