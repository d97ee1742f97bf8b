package workflow

import (
	"context"
	"fmt"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/core/numerator"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
	"erpledger/internal/domain/guard"
	"erpledger/pkg/logger"
)

// InvoiceInput creates an invoice. Empty Number and zero Date are filled in.
type InvoiceInput struct {
	CustomerID   id.ID
	SalesOrderID *id.ID
	Amount       types.Money
	Number       string
	Date         time.Time
	DueDate      *time.Time
}

// InvoiceService manages invoices. Payment state is derived by the
// consistency maintainer; this service owns numbering and status moves.
type InvoiceService struct {
	base
}

// NewInvoiceService creates the invoice service.
func NewInvoiceService(cfg Config) *InvoiceService {
	return &InvoiceService{base: newBase(cfg)}
}

// Create issues a draft invoice with nothing paid.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (*documents.Invoice, error) {
	inv := &documents.Invoice{
		Document:     entity.NewDocument(),
		CustomerID:   in.CustomerID,
		SalesOrderID: in.SalesOrderID,
		Amount:       in.Amount,
		PaidAmount:   types.Zero(),
		Status:       documents.InvoiceDraft,
		DueDate:      in.DueDate,
	}
	inv.Number = in.Number
	inv.Date = in.Date
	if inv.Date.IsZero() {
		inv.Date = s.now()
	}
	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}

	var customer *catalogs.Customer
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		customer, err = related(ctx, s.stores.Customers, inv.CustomerID, catalogs.EntityCustomer, "Related Customer does not exist")
		if err != nil {
			return err
		}
		if inv.SalesOrderID != nil {
			if _, err := related(ctx, s.stores.SalesOrders, *inv.SalesOrderID, documents.EntitySalesOrder, "Related Sales Order does not exist"); err != nil {
				return err
			}
		}
		if inv.Number == "" {
			number, err := s.nextNumber(ctx, numerator.PrefixInvoice, numerator.StrategyStrict)
			if err != nil {
				return err
			}
			inv.Number = number
		}
		if err := s.stores.Invoices.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return s.record(ctx, audit.ActionCreate, documents.EntityInvoice, inv.ID, audit.Snapshot(inv))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created, notification sent to customer",
		"invoice", inv.Number,
		"customer", customer.Name,
		"email", customer.Email,
		"amount", inv.Amount.String(),
	)
	return inv, nil
}

// Get returns an invoice.
func (s *InvoiceService) Get(ctx context.Context, invoiceID id.ID) (*documents.Invoice, error) {
	inv, err := s.stores.Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, notFound(err, documents.EntityInvoice, invoiceID)
	}
	return inv, nil
}

// List lists invoices.
func (s *InvoiceService) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*documents.Invoice], error) {
	return s.stores.Invoices.List(ctx, f)
}

// Payments returns the transactions linked to an invoice.
func (s *InvoiceService) Payments(ctx context.Context, invoiceID id.ID) ([]*documents.Transaction, error) {
	return domain.All(ctx, s.stores.Transactions, filter.Eq("invoice_id", invoiceID))
}

// UpdateStatus moves the invoice through draft → sent → paid → overdue →
// cancelled. Backward moves are rejected except to cancelled or overdue.
func (s *InvoiceService) UpdateStatus(ctx context.Context, invoiceID id.ID, status documents.InvoiceStatus) (*documents.Invoice, error) {
	var updated *documents.Invoice
	var previous documents.InvoiceStatus
	err := s.run(ctx, []string{lock.Key(documents.EntityInvoice, invoiceID)}, func(ctx context.Context) error {
		inv, err := s.stores.Invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return notFound(err, documents.EntityInvoice, invoiceID)
		}
		if err := guard.InvoiceStatusTransition(inv.Status, status); err != nil {
			return err
		}
		previous = inv.Status
		if previous == status {
			updated = inv
			return nil
		}

		inv.Status = status
		if err := s.stores.Invoices.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}
		updated = inv
		return s.record(ctx, audit.ActionUpdate, documents.EntityInvoice, invoiceID,
			audit.Change("status", string(previous), string(status)))
	})
	if err != nil {
		return nil, err
	}

	if status == documents.InvoiceOverdue && previous != status {
		logger.Warn(ctx, "invoice overdue, reminder sent to customer",
			"invoice", updated.Number,
			"customer_id", updated.CustomerID.String(),
			"remaining", updated.Remaining().String(),
		)
	}
	return updated, nil
}

// Delete removes an invoice that has no linked transactions.
func (s *InvoiceService) Delete(ctx context.Context, invoiceID id.ID) error {
	return s.run(ctx, []string{lock.Key(documents.EntityInvoice, invoiceID)}, func(ctx context.Context) error {
		if _, err := s.stores.Invoices.GetForUpdate(ctx, invoiceID); err != nil {
			return notFound(err, documents.EntityInvoice, invoiceID)
		}
		if err := s.guards.Check(ctx, documents.EntityInvoice, invoiceID); err != nil {
			return err
		}
		if err := s.stores.Invoices.Delete(ctx, invoiceID); err != nil {
			return notFound(err, documents.EntityInvoice, invoiceID)
		}
		return s.record(ctx, audit.ActionDelete, documents.EntityInvoice, invoiceID, nil)
	})
}

// MarkOverdue moves every sent invoice whose due date has passed to overdue.
func (s *InvoiceService) MarkOverdue(ctx context.Context) (int, error) {
	now := s.now()
	sent, err := domain.All(ctx, s.stores.Invoices, filter.Eq("status", documents.InvoiceSent))
	if err != nil {
		return 0, fmt.Errorf("load sent invoices: %w", err)
	}

	marked := 0
	for _, inv := range sent {
		if inv.DueDate == nil || !inv.DueDate.Before(now) {
			continue
		}
		if _, err := s.UpdateStatus(ctx, inv.ID, documents.InvoiceOverdue); err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return marked, err
		}
		marked++
	}
	return marked, nil
}
