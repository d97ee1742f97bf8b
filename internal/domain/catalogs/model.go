// Package catalogs defines the reference entities of the ledger: accounts,
// parties, organisation structure, warehouses and products.
package catalogs

import (
	"context"
	"strings"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
)

// Entity names used in errors, audit entries and lock keys.
const (
	EntityAccount    = "account"
	EntityCustomer   = "customer"
	EntitySupplier   = "supplier"
	EntityDepartment = "department"
	EntityEmployee   = "employee"
	EntityWarehouse  = "warehouse"
	EntityProduct    = "product"
)

// AccountType classifies a ledger account.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

// Account is a ledger account. Balance is derived from its transactions.
type Account struct {
	entity.Catalog

	Code    string      `db:"code" json:"code"`
	Type    AccountType `db:"type" json:"type"`
	Balance types.Money `db:"balance" json:"balance"`
}

// Validate implements entity.Validatable.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !a.Type.Valid() {
		return apperror.NewValidation("invalid account type").
			WithDetail("field", "type").
			WithDetail("value", string(a.Type))
	}
	return nil
}

// Party is the shared shape of customers and suppliers.
type Party struct {
	entity.Catalog

	Email string `db:"email" json:"email,omitempty"`
	Phone string `db:"phone" json:"phone,omitempty"`
}

// Validate implements entity.Validatable.
func (p *Party) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return apperror.NewValidation("invalid email").WithDetail("field", "email")
	}
	return nil
}

// Customer buys through sales orders and is billed by invoices.
type Customer struct {
	Party
}

// Supplier sells through purchase orders.
type Supplier struct {
	Party
}

// Department groups employees.
type Department struct {
	entity.Catalog
}

// Employee may be assigned to a department and referenced by transactions.
type Employee struct {
	entity.Catalog

	Email        string     `db:"email" json:"email,omitempty"`
	Position     string     `db:"position" json:"position,omitempty"`
	DepartmentID *id.ID     `db:"department_id" json:"departmentId,omitempty"`
	HireDate     *time.Time `db:"hire_date" json:"hireDate,omitempty"`
}

// Warehouse stores products; stock movements may reference it.
type Warehouse struct {
	entity.Catalog

	Code     string `db:"code" json:"code"`
	Location string `db:"location" json:"location,omitempty"`
}

// Product is a stock-keeping unit. StockQuantity is derived from movements.
type Product struct {
	entity.Catalog

	SKU           string      `db:"sku" json:"sku"`
	StockQuantity int64       `db:"stock_quantity" json:"stockQuantity"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	ReorderLevel  int64       `db:"reorder_level" json:"reorderLevel"`
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").WithDetail("field", "unitPrice")
	}
	if p.ReorderLevel < 0 {
		return apperror.NewValidation("reorder level cannot be negative").WithDetail("field", "reorderLevel")
	}
	return nil
}

// InventoryValue is stock on hand valued at the unit price.
func (p *Product) InventoryValue() types.Money {
	return types.Times(p.StockQuantity, p.UnitPrice)
}

// LowStock reports whether stock is at or below the reorder level.
func (p *Product) LowStock() bool {
	return p.ReorderLevel > 0 && p.StockQuantity <= p.ReorderLevel
}

var (
	_ entity.Record = (*Account)(nil)
	_ entity.Record = (*Customer)(nil)
	_ entity.Record = (*Supplier)(nil)
	_ entity.Record = (*Department)(nil)
	_ entity.Record = (*Employee)(nil)
	_ entity.Record = (*Warehouse)(nil)
	_ entity.Record = (*Product)(nil)
)
