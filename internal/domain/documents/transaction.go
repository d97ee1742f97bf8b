package documents

import (
	"context"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

// Transaction is a signed money movement on an account, optionally
// settling an invoice.
type Transaction struct {
	entity.BaseEntity

	Date        time.Time   `db:"date" json:"date"`
	Amount      types.Money `db:"amount" json:"amount"`
	Description string      `db:"description" json:"description,omitempty"`
	AccountID   id.ID       `db:"account_id" json:"accountId"`
	InvoiceID   *id.ID      `db:"invoice_id" json:"invoiceId,omitempty"`
	EmployeeID  *id.ID      `db:"employee_id" json:"employeeId,omitempty"`
}

// Validate implements entity.Validatable.
func (t *Transaction) Validate(ctx context.Context) error {
	if id.IsNil(t.AccountID) {
		return apperror.NewValidation("account is required").WithDetail("field", "accountId")
	}
	if t.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if t.Amount.IsZero() {
		return apperror.NewValidation("amount cannot be zero").WithDetail("field", "amount")
	}
	if t.InvoiceID != nil && !t.Amount.IsPositive() {
		return apperror.NewValidation("invoice payments must be positive").WithDetail("field", "amount")
	}
	return nil
}

var _ entity.Record = (*Transaction)(nil)
