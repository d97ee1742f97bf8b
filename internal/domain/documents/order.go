// Package documents defines the transactional records of the ledger:
// orders and their line items, stock movements, invoices and money transactions.
package documents

import (
	"context"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

// Entity names used in errors, audit entries and lock keys.
const (
	EntitySalesOrder        = "sales_order"
	EntityPurchaseOrder     = "purchase_order"
	EntitySalesOrderItem    = "sales_order_item"
	EntityPurchaseOrderItem = "purchase_order_item"
	EntityStockMovement     = "stock_movement"
	EntityInvoice           = "invoice"
	EntityTransaction       = "transaction"
)

// SalesOrderStatus is the workflow state of a sales order.
type SalesOrderStatus string

const (
	SalesOrderDraft     SalesOrderStatus = "draft"
	SalesOrderConfirmed SalesOrderStatus = "confirmed"
	SalesOrderShipped   SalesOrderStatus = "shipped"
	SalesOrderDelivered SalesOrderStatus = "delivered"
	SalesOrderCompleted SalesOrderStatus = "completed"
	SalesOrderCancelled SalesOrderStatus = "cancelled"
)

// PendingSalesOrderStatuses are the states in which an order still claims stock.
var PendingSalesOrderStatuses = []SalesOrderStatus{SalesOrderDraft, SalesOrderConfirmed}

// Valid reports whether s is a known status.
func (s SalesOrderStatus) Valid() bool {
	switch s {
	case SalesOrderDraft, SalesOrderConfirmed, SalesOrderShipped,
		SalesOrderDelivered, SalesOrderCompleted, SalesOrderCancelled:
		return true
	}
	return false
}

// PurchaseOrderStatus is the workflow state of a purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderConfirmed PurchaseOrderStatus = "confirmed"
	PurchaseOrderReceived  PurchaseOrderStatus = "received"
	PurchaseOrderClosed    PurchaseOrderStatus = "closed"
	PurchaseOrderCancelled PurchaseOrderStatus = "cancelled"
)

// OpenPurchaseOrderStatuses block deleting the supplier.
var OpenPurchaseOrderStatuses = []PurchaseOrderStatus{PurchaseOrderDraft, PurchaseOrderConfirmed}

// Valid reports whether s is a known status.
func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case PurchaseOrderDraft, PurchaseOrderConfirmed, PurchaseOrderReceived,
		PurchaseOrderClosed, PurchaseOrderCancelled:
		return true
	}
	return false
}

// Order is implemented by both order variants. Total is derived from line items.
type Order interface {
	entity.Record
	GetTotal() types.Money
	SetTotal(total types.Money)
	GetNumber() string
}

// SalesOrder is an order placed by a customer.
type SalesOrder struct {
	entity.Document

	CustomerID  id.ID            `db:"customer_id" json:"customerId"`
	Status      SalesOrderStatus `db:"status" json:"status"`
	TotalAmount types.Money      `db:"total_amount" json:"totalAmount"`
}

// NewSalesOrder creates a draft order for the customer.
func NewSalesOrder(customerID id.ID) *SalesOrder {
	return &SalesOrder{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Status:     SalesOrderDraft,
	}
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if !o.Status.Valid() {
		return apperror.NewValidation("invalid sales order status").WithDetail("value", string(o.Status))
	}
	return nil
}

func (o *SalesOrder) GetTotal() types.Money      { return o.TotalAmount }
func (o *SalesOrder) SetTotal(total types.Money) { o.TotalAmount = total }
func (o *SalesOrder) GetNumber() string          { return o.Number }

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	entity.Document

	SupplierID  id.ID               `db:"supplier_id" json:"supplierId"`
	WarehouseID *id.ID              `db:"warehouse_id" json:"warehouseId,omitempty"`
	Status      PurchaseOrderStatus `db:"status" json:"status"`
	TotalAmount types.Money         `db:"total_amount" json:"totalAmount"`
}

// NewPurchaseOrder creates a draft order for the supplier.
func NewPurchaseOrder(supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		Status:     PurchaseOrderDraft,
	}
}

// Validate implements entity.Validatable.
func (o *PurchaseOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").WithDetail("field", "supplierId")
	}
	if !o.Status.Valid() {
		return apperror.NewValidation("invalid purchase order status").WithDetail("value", string(o.Status))
	}
	return nil
}

func (o *PurchaseOrder) GetTotal() types.Money      { return o.TotalAmount }
func (o *PurchaseOrder) SetTotal(total types.Money) { o.TotalAmount = total }
func (o *PurchaseOrder) GetNumber() string          { return o.Number }

var (
	_ Order = (*SalesOrder)(nil)
	_ Order = (*PurchaseOrder)(nil)
)
