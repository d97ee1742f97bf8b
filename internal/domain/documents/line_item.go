package documents

import (
	"context"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

// LineItem is implemented by both item variants. Subtotal is derived
// from quantity and unit value.
type LineItem interface {
	entity.Record
	ParentID() id.ID
	GetProductID() id.ID
	GetQuantity() int64
	GetUnitValue() types.Money
	GetSubtotal() types.Money
	SetValues(quantity int64, unitValue, subtotal types.Money)
}

// SalesOrderItem is a product line of a sales order.
type SalesOrderItem struct {
	entity.BaseEntity

	SalesOrderID id.ID       `db:"sales_order_id" json:"salesOrderId"`
	ProductID    id.ID       `db:"product_id" json:"productId"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	UnitPrice    types.Money `db:"unit_price" json:"unitPrice"`
	Subtotal     types.Money `db:"subtotal" json:"subtotal"`
}

// Validate implements entity.Validatable.
func (i *SalesOrderItem) Validate(ctx context.Context) error {
	return validateLine(i.SalesOrderID, i.ProductID, i.Quantity, i.UnitPrice, "salesOrderId")
}

func (i *SalesOrderItem) ParentID() id.ID           { return i.SalesOrderID }
func (i *SalesOrderItem) GetProductID() id.ID       { return i.ProductID }
func (i *SalesOrderItem) GetQuantity() int64        { return i.Quantity }
func (i *SalesOrderItem) GetUnitValue() types.Money { return i.UnitPrice }
func (i *SalesOrderItem) GetSubtotal() types.Money  { return i.Subtotal }

func (i *SalesOrderItem) SetValues(quantity int64, unitValue, subtotal types.Money) {
	i.Quantity, i.UnitPrice, i.Subtotal = quantity, unitValue, subtotal
}

// PurchaseOrderItem is a product line of a purchase order.
type PurchaseOrderItem struct {
	entity.BaseEntity

	PurchaseOrderID id.ID       `db:"purchase_order_id" json:"purchaseOrderId"`
	ProductID       id.ID       `db:"product_id" json:"productId"`
	Quantity        int64       `db:"quantity" json:"quantity"`
	UnitCost        types.Money `db:"unit_cost" json:"unitCost"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`
}

// Validate implements entity.Validatable.
func (i *PurchaseOrderItem) Validate(ctx context.Context) error {
	return validateLine(i.PurchaseOrderID, i.ProductID, i.Quantity, i.UnitCost, "purchaseOrderId")
}

func (i *PurchaseOrderItem) ParentID() id.ID           { return i.PurchaseOrderID }
func (i *PurchaseOrderItem) GetProductID() id.ID       { return i.ProductID }
func (i *PurchaseOrderItem) GetQuantity() int64        { return i.Quantity }
func (i *PurchaseOrderItem) GetUnitValue() types.Money { return i.UnitCost }
func (i *PurchaseOrderItem) GetSubtotal() types.Money  { return i.Subtotal }

func (i *PurchaseOrderItem) SetValues(quantity int64, unitValue, subtotal types.Money) {
	i.Quantity, i.UnitCost, i.Subtotal = quantity, unitValue, subtotal
}

func validateLine(parent, product id.ID, quantity int64, unit types.Money, parentField string) error {
	if id.IsNil(parent) {
		return apperror.NewValidation("order is required").WithDetail("field", parentField)
	}
	if id.IsNil(product) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if quantity < 0 {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	if unit.IsNegative() {
		return apperror.NewValidation("unit value cannot be negative").WithDetail("field", "unitValue")
	}
	return nil
}

var (
	_ LineItem = (*SalesOrderItem)(nil)
	_ LineItem = (*PurchaseOrderItem)(nil)
)
