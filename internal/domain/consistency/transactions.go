package consistency

import (
	"context"
	"fmt"
	"slices"
	"time"

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
	"erpledger/internal/domain/guard"
)

// TransactionInput creates a transaction. A zero Date means now.
type TransactionInput struct {
	Date        time.Time
	Amount      types.Money
	Description string
	AccountID   id.ID
	InvoiceID   *id.ID
	EmployeeID  *id.ID
}

// TransactionPatch is a partial transaction update. Nil fields keep the
// persisted value; UnlinkInvoice detaches the transaction from its invoice.
type TransactionPatch struct {
	Date          *time.Time
	Amount        *types.Money
	Description   *string
	AccountID     *id.ID
	InvoiceID     *id.ID
	UnlinkInvoice bool
	EmployeeID    *id.ID
}

func (p TransactionPatch) apply(t *documents.Transaction) {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
	switch {
	case p.UnlinkInvoice:
		t.InvoiceID = nil
	case p.InvoiceID != nil:
		t.InvoiceID = id.Ref(*p.InvoiceID)
	}
	if p.EmployeeID != nil {
		t.EmployeeID = id.Ref(*p.EmployeeID)
	}
}

// CreateTransaction records a money movement and recomputes the balance
// of its account and the payment state of its invoice.
func (m *Maintainer) CreateTransaction(ctx context.Context, in TransactionInput) (*documents.Transaction, error) {
	t := &documents.Transaction{
		BaseEntity:  entity.NewBaseEntity(),
		Date:        in.Date,
		Amount:      in.Amount,
		Description: in.Description,
		AccountID:   in.AccountID,
		InvoiceID:   in.InvoiceID,
		EmployeeID:  in.EmployeeID,
	}
	if t.Date.IsZero() {
		t.Date = m.now()
	}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err := m.run(ctx, transactionKeys(t), func(ctx context.Context) error {
		if err := m.checkTransaction(ctx, t); err != nil {
			return err
		}

		if err := m.stores.Transactions.Create(ctx, t); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := m.record(ctx, audit.ActionCreate, documents.EntityTransaction, t.ID, audit.Snapshot(t)); err != nil {
			return err
		}

		return m.recomputeTransactionParents(ctx, t.ID, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTransaction merges the patch and recomputes every affected account
// and invoice, old and new.
func (m *Maintainer) UpdateTransaction(ctx context.Context, transactionID id.ID, patch TransactionPatch) (*documents.Transaction, error) {
	if patch.Date != nil {
		if err := guard.TransactionBackdate(*patch.Date, m.now(), m.backdateLimitDays); err != nil {
			return nil, err
		}
	}

	current, err := m.stores.Transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, documents.EntityTransaction, transactionID)
	}
	target := *current
	patch.apply(&target)

	var updated *documents.Transaction
	err = m.run(ctx, append(transactionKeys(current), transactionKeys(&target)...), func(ctx context.Context) error {
		t, err := m.stores.Transactions.GetForUpdate(ctx, transactionID)
		if err != nil {
			return notFound(err, documents.EntityTransaction, transactionID)
		}
		// the parents may have moved since the keys were chosen
		if t.AccountID != current.AccountID || !id.Equal(t.InvoiceID, current.InvoiceID) {
			return apperror.NewConcurrentModification(documents.EntityTransaction, transactionID.String())
		}
		previous := *t
		before := audit.Snapshot(t)

		patch.apply(t)
		if err := t.Validate(ctx); err != nil {
			return err
		}
		if err := m.checkTransaction(ctx, t); err != nil {
			return err
		}

		if err := m.stores.Transactions.Update(ctx, t); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := m.record(ctx, audit.ActionUpdate, documents.EntityTransaction, t.ID, audit.Diff(before, audit.Snapshot(t))); err != nil {
			return err
		}

		if err := m.recomputeTransactionParents(ctx, t.ID, &previous, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction and recomputes its account and invoice.
// The invoice status can regress to sent or draft.
func (m *Maintainer) DeleteTransaction(ctx context.Context, transactionID id.ID) error {
	current, err := m.stores.Transactions.GetByID(ctx, transactionID)
	if err != nil {
		return notFound(err, documents.EntityTransaction, transactionID)
	}

	return m.run(ctx, transactionKeys(current), func(ctx context.Context) error {
		t, err := m.stores.Transactions.GetForUpdate(ctx, transactionID)
		if err != nil {
			return notFound(err, documents.EntityTransaction, transactionID)
		}
		if t.AccountID != current.AccountID || !id.Equal(t.InvoiceID, current.InvoiceID) {
			return apperror.NewConcurrentModification(documents.EntityTransaction, transactionID.String())
		}

		if err := m.stores.Transactions.Delete(ctx, transactionID); err != nil {
			return notFound(err, documents.EntityTransaction, transactionID)
		}
		if err := m.record(ctx, audit.ActionDelete, documents.EntityTransaction, transactionID, audit.Snapshot(t)); err != nil {
			return err
		}

		return m.recomputeTransactionParents(ctx, transactionID, t)
	})
}

func transactionKeys(t *documents.Transaction) []string {
	keys := []string{lock.Key(catalogs.EntityAccount, t.AccountID)}
	if t.InvoiceID != nil {
		keys = append(keys, lock.Key(documents.EntityInvoice, *t.InvoiceID))
	}
	return keys
}

// checkTransaction validates t against its account, employee and invoice.
// t may already be persisted; its own previous amount is excluded from
// the remaining balance and the funds check.
func (m *Maintainer) checkTransaction(ctx context.Context, t *documents.Transaction) error {
	account, err := m.stores.Accounts.GetForUpdate(ctx, t.AccountID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return related(catalogs.EntityAccount, t.AccountID, "Account does not exist")
		}
		return err
	}

	if t.EmployeeID != nil {
		ok, err := m.stores.Employees.Exists(ctx, domain.ListFilter{IDs: []id.ID{*t.EmployeeID}})
		if err != nil {
			return fmt.Errorf("check employee: %w", err)
		}
		if !ok {
			return related(catalogs.EntityEmployee, *t.EmployeeID, "Employee does not exist")
		}
	}

	if t.InvoiceID != nil {
		if err := m.checkPayment(ctx, t); err != nil {
			return err
		}
	}

	if account.Type == catalogs.AccountAsset && t.Amount.IsNegative() {
		others, err := m.sumExcluding(ctx, "account_id", t.AccountID, t.ID)
		if err != nil {
			return err
		}
		if others.Add(t.Amount).IsNegative() {
			return apperror.NewInvalidState("Insufficient funds in account").
				WithDetail("account_id", t.AccountID.String()).
				WithDetail("balance", others.String()).
				WithDetail("amount", t.Amount.String())
		}
	}
	return nil
}

func (m *Maintainer) checkPayment(ctx context.Context, t *documents.Transaction) error {
	inv, err := m.stores.Invoices.GetForUpdate(ctx, *t.InvoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return related(documents.EntityInvoice, *t.InvoiceID, "Invoice does not exist")
		}
		return err
	}
	if inv.Status == documents.InvoiceCancelled {
		return apperror.NewInvalidState("Cannot record payment on a cancelled invoice").
			WithDetail("invoice_id", inv.ID.String())
	}

	paid, err := m.sumExcluding(ctx, "invoice_id", inv.ID, t.ID)
	if err != nil {
		return err
	}
	remaining := inv.Amount.Sub(paid)
	if t.Amount.GreaterThan(remaining) {
		return apperror.NewInvalidState(
			fmt.Sprintf("Payment amount (%s) exceeds remaining invoice amount (%s)", t.Amount.String(), remaining.String())).
			WithDetail("invoice_id", inv.ID.String()).
			WithDetail("remaining", remaining.String())
	}
	return nil
}

// sumExcluding sums the amounts of the transactions whose field equals
// parentID, skipping self.
func (m *Maintainer) sumExcluding(ctx context.Context, field string, parentID, self id.ID) (types.Money, error) {
	txs, err := domain.All(ctx, m.stores.Transactions,
		filter.Eq(field, parentID),
		filter.Item{Field: "id", Operator: filter.NotEqual, Value: self},
	)
	if err != nil {
		return types.Zero(), fmt.Errorf("load transactions by %s: %w", field, err)
	}
	return derive.InvoicePaidAmount(txs), nil
}

// recomputeTransactionParents recomputes each distinct account and invoice
// referenced by the given versions of a transaction.
func (m *Maintainer) recomputeTransactionParents(ctx context.Context, transactionID id.ID, versions ...*documents.Transaction) error {
	accounts := make([]id.ID, 0, len(versions))
	invoices := make([]id.ID, 0, len(versions))
	for _, v := range versions {
		accounts = appendUnique(accounts, v.AccountID)
		if v.InvoiceID != nil {
			invoices = appendUnique(invoices, *v.InvoiceID)
		}
	}

	for _, invID := range invoices {
		if _, err := m.recomputeInvoice(ctx, invID); err != nil {
			return staleAggregate(ctx, documents.EntityTransaction, transactionID, documents.EntityInvoice, invID, err)
		}
	}
	for _, accID := range accounts {
		if _, err := m.recomputeAccount(ctx, accID); err != nil {
			return staleAggregate(ctx, documents.EntityTransaction, transactionID, catalogs.EntityAccount, accID, err)
		}
	}
	return nil
}

func appendUnique(ids []id.ID, v id.ID) []id.ID {
	if slices.Contains(ids, v) {
		return ids
	}
	return append(ids, v)
}

// related reports a missing referenced record.
func related(entityName string, entityID id.ID, message string) error {
	e := apperror.NewNotFound(entityName, entityID.String())
	e.Message = message
	return e
}
