package documents

import (
	"context"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceStatusSequence is the forward order of invoice states.
var InvoiceStatusSequence = []InvoiceStatus{
	InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled,
}

// UnsettledInvoiceStatuses block deleting the customer.
var UnsettledInvoiceStatuses = []InvoiceStatus{InvoiceDraft, InvoiceSent, InvoiceOverdue}

// Rank returns the position of s in InvoiceStatusSequence, or -1.
func (s InvoiceStatus) Rank() int {
	for i, v := range InvoiceStatusSequence {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool { return s.Rank() >= 0 }

// Invoice bills a customer. PaidAmount and the payment-driven part of
// Status are derived from linked transactions.
type Invoice struct {
	entity.Document

	CustomerID   id.ID         `db:"customer_id" json:"customerId"`
	SalesOrderID *id.ID        `db:"sales_order_id" json:"salesOrderId,omitempty"`
	Amount       types.Money   `db:"amount" json:"amount"`
	PaidAmount   types.Money   `db:"paid_amount" json:"paidAmount"`
	Status       InvoiceStatus `db:"status" json:"status"`
	DueDate      *time.Time    `db:"due_date" json:"dueDate,omitempty"`
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(inv.CustomerID) {
		return apperror.NewValidation("customer is required").WithDetail("field", "customerId")
	}
	if !inv.Amount.IsPositive() {
		return apperror.NewValidation("amount must be greater than 0").WithDetail("field", "amount")
	}
	if !inv.Status.Valid() {
		return apperror.NewValidation("invalid invoice status").WithDetail("value", string(inv.Status))
	}
	if inv.DueDate != nil && inv.DueDate.Before(inv.Date) {
		return apperror.NewValidation("due date is before issue date").WithDetail("field", "dueDate")
	}
	return nil
}

// Remaining is the amount still to be paid.
func (inv *Invoice) Remaining() types.Money {
	return inv.Amount.Sub(inv.PaidAmount)
}

var _ entity.Record = (*Invoice)(nil)
