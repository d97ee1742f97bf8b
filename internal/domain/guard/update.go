package guard

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/id"
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
)

// DefaultBackdateLimitDays is how far in the past a transaction date may be moved.
const DefaultBackdateLimitDays = 30

// StockFloor rejects a negative stock level while draft or confirmed
// sales orders still reference the product.
func StockFloor(ctx context.Context, s domain.Stores, productID id.ID, newStock int64) error {
	if newStock >= 0 {
		return nil
	}

	items, err := domain.All(ctx, s.SalesOrderItems, filter.Eq("product_id", productID))
	if err != nil {
		return fmt.Errorf("load sales order items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	orderIDs := make([]id.ID, 0, len(items))
	for _, it := range items {
		orderIDs = append(orderIDs, it.SalesOrderID)
	}

	pending, err := s.SalesOrders.Exists(ctx, domain.ListFilter{
		IDs:             orderIDs,
		AdvancedFilters: []filter.Item{filter.In("status", documents.PendingSalesOrderStatuses...)},
	})
	if err != nil {
		return fmt.Errorf("check pending sales orders: %w", err)
	}
	if pending {
		return apperror.NewInvalidState("Cannot reduce stock below zero when product has pending orders").
			WithDetail("product_id", productID.String()).
			WithDetail("stock_quantity", newStock)
	}
	return nil
}

// InvoiceStatusTransition rejects moving an invoice backward in
// draft → sent → paid → overdue → cancelled. Cancelled and overdue are
// reachable from anywhere.
func InvoiceStatusTransition(current, next documents.InvoiceStatus) error {
	if !next.Valid() {
		return apperror.NewValidation("Invalid invoice status").WithDetail("status", string(next))
	}
	if next == documents.InvoiceCancelled || next == documents.InvoiceOverdue {
		return nil
	}
	if next.Rank() < current.Rank() {
		return apperror.NewInvalidState(
			fmt.Sprintf("Cannot change invoice status from %s to %s", current, next)).
			WithDetail("from", string(current)).
			WithDetail("to", string(next))
	}
	return nil
}

// TransactionBackdate rejects a transaction date more than limitDays before now.
func TransactionBackdate(date, now time.Time, limitDays int) error {
	if limitDays <= 0 {
		limitDays = DefaultBackdateLimitDays
	}
	if date.Before(now.AddDate(0, 0, -limitDays)) {
		return apperror.NewInvalidState(
			fmt.Sprintf("Transaction date cannot be more than %d days in the past", limitDays)).
			WithDetail("date", date.Format(time.DateOnly))
	}
	return nil
}

// UniqueSKU rejects a SKU already used by another product.
func UniqueSKU(ctx context.Context, products domain.Store[*catalogs.Product], sku string, self id.ID) error {
	f := domain.Where(filter.Eq("sku", sku))
	if !id.IsNil(self) {
		f.AdvancedFilters = append(f.AdvancedFilters, filter.Item{Field: "id", Operator: filter.NotEqual, Value: self})
	}
	taken, err := products.Exists(ctx, f)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if taken {
		dup := apperror.NewDuplicate(catalogs.EntityProduct, "sku", sku)
		dup.Message = fmt.Sprintf("Product with SKU %s already exists", sku)
		return dup
	}
	return nil
}
