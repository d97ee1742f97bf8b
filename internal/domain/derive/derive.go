// Package derive holds the pure rules that turn child records into parent
// aggregates. Nothing here touches storage; the consistency maintainer feeds
// it the current child set and persists what it returns.
package derive

import (
	"erpledger/internal/core/apperror"
	"erpledger/internal/core/types"
	"erpledger/internal/domain/documents"
)

// Subtotal is quantity × unit value.
func Subtotal(quantity int64, unitValue types.Money) types.Money {
	return types.Times(quantity, unitValue)
}

// LinePatch is a partial line item update. Nil fields keep the persisted value.
type LinePatch struct {
	Quantity  *int64
	UnitValue *types.Money
}

// MergeLine resolves a patch against the persisted line values and returns
// the effective quantity, unit value and recomputed subtotal.
func MergeLine(persistedQty int64, persistedUnit types.Money, patch LinePatch) (int64, types.Money, types.Money) {
	qty, unit := persistedQty, persistedUnit
	if patch.Quantity != nil {
		qty = *patch.Quantity
	}
	if patch.UnitValue != nil {
		unit = *patch.UnitValue
	}
	return qty, unit, Subtotal(qty, unit)
}

// OrderTotal sums the subtotals of every line of an order.
func OrderTotal[I documents.LineItem](items []I) types.Money {
	total := types.Zero()
	for _, it := range items {
		total = total.Add(it.GetSubtotal())
	}
	return total
}

// ValidateMovement checks a movement's type and quantity.
func ValidateMovement(kind documents.MovementType, quantity int64) error {
	if quantity <= 0 {
		return apperror.NewValidation("Quantity must be greater than 0").
			WithDetail("quantity", quantity)
	}
	if !kind.Valid() {
		return apperror.NewValidation("Invalid movement type").
			WithDetail("type", string(kind))
	}
	return nil
}

// ApplyStockMovement returns the stock after applying a movement.
// Outbound movements clamp at zero; adjustments overwrite.
func ApplyStockMovement(current int64, kind documents.MovementType, quantity int64) (int64, error) {
	if err := ValidateMovement(kind, quantity); err != nil {
		return current, err
	}
	switch kind {
	case documents.MovementInbound:
		return current + quantity, nil
	case documents.MovementOutbound:
		return max(0, current-quantity), nil
	default:
		return quantity, nil
	}
}

// ReverseStockMovement undoes a movement on the current stock. Adjustments
// cannot be reversed: the stock is returned unchanged with an Unsupported error.
func ReverseStockMovement(current int64, kind documents.MovementType, quantity int64) (int64, error) {
	switch kind {
	case documents.MovementInbound:
		return max(0, current-quantity), nil
	case documents.MovementOutbound:
		return current + quantity, nil
	case documents.MovementAdjustment:
		return current, apperror.NewUnsupported("Cannot automatically revert adjustment movement. Manual review required.")
	default:
		return current, apperror.NewValidation("Invalid movement type").WithDetail("type", string(kind))
	}
}

// InvoicePaidAmount sums the amounts of the invoice's transactions.
func InvoicePaidAmount(transactions []*documents.Transaction) types.Money {
	paid := types.Zero()
	for _, t := range transactions {
		paid = paid.Add(t.Amount)
	}
	return paid
}

// PromoteInvoiceStatus derives the status from the payment state.
// Cancelled is final; overdue is kept until the invoice is fully paid.
func PromoteInvoiceStatus(current documents.InvoiceStatus, paid, amount types.Money) documents.InvoiceStatus {
	switch {
	case current == documents.InvoiceCancelled:
		return current
	case paid.GreaterThanOrEqual(amount):
		return documents.InvoicePaid
	case current == documents.InvoiceOverdue:
		return current
	case paid.IsPositive():
		return documents.InvoiceSent
	default:
		return documents.InvoiceDraft
	}
}

// AccountBalance sums the signed amounts of the account's transactions.
func AccountBalance(transactions []*documents.Transaction) types.Money {
	return InvoicePaidAmount(transactions)
}
