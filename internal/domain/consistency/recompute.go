package consistency

import (
	"context"
	"fmt"

	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/derive"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
	"erpledger/pkg/logger"
)

// RecomputeCount reports how many parents of one kind were checked and
// how many of them held a stale aggregate.
type RecomputeCount struct {
	Checked int `json:"checked"`
	Changed int `json:"changed"`
}

// RecomputeReport is the outcome of RecomputeAll.
type RecomputeReport struct {
	SalesOrders    RecomputeCount `json:"salesOrders"`
	PurchaseOrders RecomputeCount `json:"purchaseOrders"`
	Invoices       RecomputeCount `json:"invoices"`
	Accounts       RecomputeCount `json:"accounts"`
}

// Changed is the total number of rewritten aggregates.
func (r RecomputeReport) Changed() int {
	return r.SalesOrders.Changed + r.PurchaseOrders.Changed + r.Invoices.Changed + r.Accounts.Changed
}

// RecomputeInvoice rebuilds paid amount and status from the invoice's transactions.
func (m *Maintainer) RecomputeInvoice(ctx context.Context, invoiceID id.ID) (changed bool, err error) {
	err = m.run(ctx, []string{lock.Key(documents.EntityInvoice, invoiceID)}, func(ctx context.Context) error {
		changed, err = m.recomputeInvoice(ctx, invoiceID)
		return err
	})
	return changed, err
}

// RecomputeAccount rebuilds the balance from the account's transactions.
func (m *Maintainer) RecomputeAccount(ctx context.Context, accountID id.ID) (changed bool, err error) {
	err = m.run(ctx, []string{lock.Key(catalogs.EntityAccount, accountID)}, func(ctx context.Context) error {
		changed, err = m.recomputeAccount(ctx, accountID)
		return err
	})
	return changed, err
}

// RecomputeAll rebuilds every order total, invoice payment state and
// account balance. Each parent is recomputed in its own transaction.
// Product stock is not rebuilt: the initial stock of a product is not a movement.
func (m *Maintainer) RecomputeAll(ctx context.Context) (RecomputeReport, error) {
	var report RecomputeReport
	var err error

	if report.SalesOrders, err = recomputeEach(ctx, m.stores.SalesOrders, m.RecomputeSalesOrder); err != nil {
		return report, fmt.Errorf("recompute sales orders: %w", err)
	}
	if report.PurchaseOrders, err = recomputeEach(ctx, m.stores.PurchaseOrders, m.RecomputePurchaseOrder); err != nil {
		return report, fmt.Errorf("recompute purchase orders: %w", err)
	}
	if report.Invoices, err = recomputeEach(ctx, m.stores.Invoices, m.RecomputeInvoice); err != nil {
		return report, fmt.Errorf("recompute invoices: %w", err)
	}
	if report.Accounts, err = recomputeEach(ctx, m.stores.Accounts, m.RecomputeAccount); err != nil {
		return report, fmt.Errorf("recompute accounts: %w", err)
	}

	logger.Info(ctx, "aggregates recomputed",
		"sales_orders", report.SalesOrders.Changed,
		"purchase_orders", report.PurchaseOrders.Changed,
		"invoices", report.Invoices.Changed,
		"accounts", report.Accounts.Changed,
	)
	return report, nil
}

func recomputeEach[T entity.Record](
	ctx context.Context,
	store domain.Store[T],
	recompute func(ctx context.Context, parentID id.ID) (bool, error),
) (RecomputeCount, error) {
	var count RecomputeCount

	parents, err := domain.All(ctx, store)
	if err != nil {
		return count, err
	}
	for _, p := range parents {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		changed, err := recompute(ctx, p.GetID())
		if err != nil {
			return count, err
		}
		count.Checked++
		if changed {
			count.Changed++
		}
	}
	return count, nil
}

func (m *Maintainer) recomputeInvoice(ctx context.Context, invoiceID id.ID) (changed bool, err error) {
	ctx, span := startSpan(ctx, "consistency.recompute_invoice", documents.EntityInvoice, invoiceID)
	defer func() { endSpan(span, err) }()

	inv, err := m.stores.Invoices.GetForUpdate(ctx, invoiceID)
	if err != nil {
		return false, notFound(err, documents.EntityInvoice, invoiceID)
	}
	txs, err := domain.All(ctx, m.stores.Transactions, filter.Eq("invoice_id", invoiceID))
	if err != nil {
		return false, fmt.Errorf("load invoice transactions: %w", err)
	}

	paid := derive.InvoicePaidAmount(txs)
	status := derive.PromoteInvoiceStatus(inv.Status, paid, inv.Amount)
	if paid.Equal(inv.PaidAmount) && status == inv.Status {
		return false, nil
	}

	changes := audit.Change("paid_amount", inv.PaidAmount.String(), paid.String())
	if status != inv.Status {
		changes["status"] = map[string]any{"old": string(inv.Status), "new": string(status)}
	}
	inv.PaidAmount = paid
	inv.Status = status
	if err := m.stores.Invoices.Update(ctx, inv); err != nil {
		return false, fmt.Errorf("update invoice payment state: %w", err)
	}
	err = m.record(ctx, audit.ActionRecompute, documents.EntityInvoice, invoiceID, changes)
	return err == nil, err
}

func (m *Maintainer) recomputeAccount(ctx context.Context, accountID id.ID) (changed bool, err error) {
	ctx, span := startSpan(ctx, "consistency.recompute_account", catalogs.EntityAccount, accountID)
	defer func() { endSpan(span, err) }()

	acc, err := m.stores.Accounts.GetForUpdate(ctx, accountID)
	if err != nil {
		return false, notFound(err, catalogs.EntityAccount, accountID)
	}
	txs, err := domain.All(ctx, m.stores.Transactions, filter.Eq("account_id", accountID))
	if err != nil {
		return false, fmt.Errorf("load account transactions: %w", err)
	}

	balance := derive.AccountBalance(txs)
	if balance.Equal(acc.Balance) {
		return false, nil
	}

	previous := acc.Balance
	acc.Balance = balance
	if err := m.stores.Accounts.Update(ctx, acc); err != nil {
		return false, fmt.Errorf("update account balance: %w", err)
	}
	err = m.record(ctx, audit.ActionRecompute, catalogs.EntityAccount, accountID,
		audit.Change("balance", previous.String(), balance.String()))
	return err == nil, err
}
