package dto

import (
	"time"

	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/derive"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/workflow"
)

// --- Line items ---

// CreateSalesOrderItemRequest adds a sales line. An absent unitPrice takes
// the product price.
type CreateSalesOrderItemRequest struct {
	SalesOrderID id.ID        `json:"salesOrderId" binding:"required"`
	ProductID    id.ID        `json:"productId" binding:"required"`
	Quantity     int64        `json:"quantity"`
	UnitPrice    *types.Money `json:"unitPrice"`
}

// ToInput maps the request.
func (r CreateSalesOrderItemRequest) ToInput() consistency.SalesOrderItemInput {
	return consistency.SalesOrderItemInput{
		SalesOrderID: r.SalesOrderID,
		ProductID:    r.ProductID,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
	}
}

// CreatePurchaseOrderItemRequest adds a purchase line.
type CreatePurchaseOrderItemRequest struct {
	PurchaseOrderID id.ID       `json:"purchaseOrderId" binding:"required"`
	ProductID       id.ID       `json:"productId" binding:"required"`
	Quantity        int64       `json:"quantity"`
	UnitCost        types.Money `json:"unitCost"`
}

// ToInput maps the request.
func (r CreatePurchaseOrderItemRequest) ToInput() consistency.PurchaseOrderItemInput {
	return consistency.PurchaseOrderItemInput{
		PurchaseOrderID: r.PurchaseOrderID,
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		UnitCost:        r.UnitCost,
	}
}

// UpdateLineItemRequest patches a line. UnitPrice applies to sales lines
// and UnitCost to purchase lines; the parent order cannot be changed.
type UpdateLineItemRequest struct {
	Quantity  *int64       `json:"quantity"`
	UnitPrice *types.Money `json:"unitPrice"`
	UnitCost  *types.Money `json:"unitCost"`
}

// SalesPatch maps the request for a sales line.
func (r UpdateLineItemRequest) SalesPatch() derive.LinePatch {
	return derive.LinePatch{Quantity: r.Quantity, UnitValue: r.UnitPrice}
}

// PurchasePatch maps the request for a purchase line.
func (r UpdateLineItemRequest) PurchasePatch() derive.LinePatch {
	return derive.LinePatch{Quantity: r.Quantity, UnitValue: r.UnitCost}
}

// --- Stock movements ---

// CreateStockMovementRequest records a movement.
type CreateStockMovementRequest struct {
	ProductID    id.ID     `json:"productId" binding:"required"`
	WarehouseID  *id.ID    `json:"warehouseId"`
	Type         string    `json:"type" binding:"required"`
	Quantity     int64     `json:"quantity"`
	Reference    string    `json:"reference"`
	MovementDate time.Time `json:"movementDate"`
}

// ToInput maps the request.
func (r CreateStockMovementRequest) ToInput() consistency.StockMovementInput {
	return consistency.StockMovementInput{
		ProductID:    r.ProductID,
		WarehouseID:  r.WarehouseID,
		Type:         documents.MovementType(r.Type),
		Quantity:     r.Quantity,
		Reference:    r.Reference,
		MovementDate: r.MovementDate,
	}
}

// --- Transactions ---

// CreateTransactionRequest records a money movement. Negative amounts are outflows.
type CreateTransactionRequest struct {
	Date        time.Time   `json:"date"`
	Amount      types.Money `json:"amount"`
	Description string      `json:"description"`
	AccountID   id.ID       `json:"accountId" binding:"required"`
	InvoiceID   *id.ID      `json:"invoiceId"`
	EmployeeID  *id.ID      `json:"employeeId"`
}

// ToInput maps the request.
func (r CreateTransactionRequest) ToInput() consistency.TransactionInput {
	return consistency.TransactionInput{
		Date:        r.Date,
		Amount:      r.Amount,
		Description: r.Description,
		AccountID:   r.AccountID,
		InvoiceID:   r.InvoiceID,
		EmployeeID:  r.EmployeeID,
	}
}

// UpdateTransactionRequest patches a transaction.
type UpdateTransactionRequest struct {
	Date          *time.Time   `json:"date"`
	Amount        *types.Money `json:"amount"`
	Description   *string      `json:"description"`
	AccountID     *id.ID       `json:"accountId"`
	InvoiceID     *id.ID       `json:"invoiceId"`
	UnlinkInvoice bool         `json:"unlinkInvoice"`
	EmployeeID    *id.ID       `json:"employeeId"`
}

// ToPatch maps the request.
func (r UpdateTransactionRequest) ToPatch() consistency.TransactionPatch {
	return consistency.TransactionPatch{
		Date:          r.Date,
		Amount:        r.Amount,
		Description:   r.Description,
		AccountID:     r.AccountID,
		InvoiceID:     r.InvoiceID,
		UnlinkInvoice: r.UnlinkInvoice,
		EmployeeID:    r.EmployeeID,
	}
}

// --- Orders ---

// CreateSalesOrderRequest opens a sales order.
type CreateSalesOrderRequest struct {
	CustomerID id.ID     `json:"customerId" binding:"required"`
	Number     string    `json:"number"`
	Date       time.Time `json:"date"`
}

// ToInput maps the request.
func (r CreateSalesOrderRequest) ToInput() workflow.SalesOrderInput {
	return workflow.SalesOrderInput{CustomerID: r.CustomerID, Number: r.Number, Date: r.Date}
}

// CreatePurchaseOrderRequest opens a purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID  id.ID     `json:"supplierId" binding:"required"`
	WarehouseID *id.ID    `json:"warehouseId"`
	Number      string    `json:"number"`
	Date        time.Time `json:"date"`
}

// ToInput maps the request.
func (r CreatePurchaseOrderRequest) ToInput() workflow.PurchaseOrderInput {
	return workflow.PurchaseOrderInput{
		SupplierID:  r.SupplierID,
		WarehouseID: r.WarehouseID,
		Number:      r.Number,
		Date:        r.Date,
	}
}

// StatusRequest moves an order or invoice to a new status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- Invoices ---

// CreateInvoiceRequest issues an invoice.
type CreateInvoiceRequest struct {
	CustomerID   id.ID       `json:"customerId" binding:"required"`
	SalesOrderID *id.ID      `json:"salesOrderId"`
	Amount       types.Money `json:"amount"`
	Number       string      `json:"number"`
	Date         time.Time   `json:"date"`
	DueDate      *time.Time  `json:"dueDate"`
}

// ToInput maps the request.
func (r CreateInvoiceRequest) ToInput() workflow.InvoiceInput {
	return workflow.InvoiceInput{
		CustomerID:   r.CustomerID,
		SalesOrderID: r.SalesOrderID,
		Amount:       r.Amount,
		Number:       r.Number,
		Date:         r.Date,
		DueDate:      r.DueDate,
	}
}

// InvoiceDetail is an invoice with its linked payments.
type InvoiceDetail struct {
	Invoice  *documents.Invoice       `json:"invoice"`
	Payments []*documents.Transaction `json:"payments"`
}
