// Package guard holds the rules that veto a mutation before anything is
// written: the delete table protecting parents with live dependents, and
// the update-time checks on stock, invoice status, backdating and SKUs.
package guard

import (
	"context"
	"fmt"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
)

// Dependent is one disqualifying-dependent rule for a parent entity.
type Dependent struct {
	// Entity names the dependent kind
	Entity string
	// Message is returned when the rule trips
	Message string
	// Exists reports whether a dependent of parentID matches the rule
	Exists func(ctx context.Context, parentID id.ID) (bool, error)
}

// dependent builds a rule that trips when store holds a row whose field
// references the parent, optionally restricted to the given statuses.
func dependent[T entity.Record, S ~string](store domain.Store[T], entityName, field, message string, statuses ...S) Dependent {
	return Dependent{
		Entity:  entityName,
		Message: message,
		Exists: func(ctx context.Context, parentID id.ID) (bool, error) {
			items := []filter.Item{filter.Eq(field, parentID)}
			if len(statuses) > 0 {
				items = append(items, filter.In("status", statuses...))
			}
			return store.Exists(ctx, domain.Where(items...))
		},
	}
}

// DeleteTable maps a parent entity name to its disqualifying dependents.
type DeleteTable struct {
	rules map[string][]Dependent
}

// NewDeleteTable builds the ledger's delete guard table.
func NewDeleteTable(s domain.Stores) *DeleteTable {
	type none = string

	return &DeleteTable{rules: map[string][]Dependent{
		catalogs.EntityAccount: {
			dependent[*documents.Transaction, none](s.Transactions, documents.EntityTransaction, "account_id",
				"Cannot delete account that has associated transactions"),
		},
		catalogs.EntityCustomer: {
			dependent(s.Invoices, documents.EntityInvoice, "customer_id",
				"Cannot delete customer with unpaid invoices", documents.UnsettledInvoiceStatuses...),
			dependent(s.SalesOrders, documents.EntitySalesOrder, "customer_id",
				"Cannot delete customer with active sales orders", documents.PendingSalesOrderStatuses...),
		},
		catalogs.EntityDepartment: {
			dependent[*catalogs.Employee, none](s.Employees, catalogs.EntityEmployee, "department_id",
				"Cannot delete department with assigned employees. Please reassign employees first."),
		},
		catalogs.EntityEmployee: {
			dependent[*documents.Transaction, none](s.Transactions, documents.EntityTransaction, "employee_id",
				"Cannot delete employee with associated transactions. Archive employee instead."),
		},
		catalogs.EntitySupplier: {
			dependent(s.PurchaseOrders, documents.EntityPurchaseOrder, "supplier_id",
				"Cannot delete supplier with pending purchase orders", documents.OpenPurchaseOrderStatuses...),
		},
		catalogs.EntityWarehouse: {
			dependent[*documents.StockMovement, none](s.StockMovements, documents.EntityStockMovement, "warehouse_id",
				"Cannot delete warehouse that has associated stock movements"),
		},
		documents.EntityInvoice: {
			dependent[*documents.Transaction, none](s.Transactions, documents.EntityTransaction, "invoice_id",
				"Cannot delete invoice that has associated payments/transactions"),
		},
	}}
}

// Rules returns the dependents guarding parentEntity.
func (t *DeleteTable) Rules(parentEntity string) []Dependent {
	return t.rules[parentEntity]
}

// Check evaluates the rules for parentEntity in order and fails with
// InvalidState on the first one that trips.
func (t *DeleteTable) Check(ctx context.Context, parentEntity string, parentID id.ID) error {
	for _, rule := range t.rules[parentEntity] {
		found, err := rule.Exists(ctx, parentID)
		if err != nil {
			return fmt.Errorf("check %s dependents of %s: %w", rule.Entity, parentEntity, err)
		}
		if found {
			return apperror.NewInvalidState(rule.Message).
				WithDetail("entity", parentEntity).
				WithDetail("id", parentID.String()).
				WithDetail("dependent", rule.Entity)
		}
	}
	return nil
}

// Hook adapts Check to a before-delete hook.
func Hook[T entity.Record](t *DeleteTable, parentEntity string) domain.Hook[T] {
	return func(ctx context.Context, e T) error {
		return t.Check(ctx, parentEntity, e.GetID())
	}
}
