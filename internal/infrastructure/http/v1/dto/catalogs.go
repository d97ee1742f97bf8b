package dto

import (
	"time"

	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
	"erpledger/internal/domain/catalogs"
)

// --- Accounts ---

// CreateAccountRequest creates an account. Balance is derived, never accepted.
type CreateAccountRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// UpdateAccountRequest updates an account.
type UpdateAccountRequest struct {
	Name *string `json:"name"`
	Code *string `json:"code"`
	Type *string `json:"type"`
}

// ToAccount maps the request.
func (r CreateAccountRequest) ToAccount() *catalogs.Account {
	return &catalogs.Account{
		Catalog: entity.NewCatalog(r.Name),
		Code:    r.Code,
		Type:    catalogs.AccountType(r.Type),
		Balance: types.Zero(),
	}
}

// Apply maps the request onto existing.
func (r UpdateAccountRequest) Apply(existing *catalogs.Account) *catalogs.Account {
	setString(&existing.Name, r.Name)
	setString(&existing.Code, r.Code)
	if r.Type != nil {
		existing.Type = catalogs.AccountType(*r.Type)
	}
	return existing
}

// --- Customers and suppliers ---

// CreatePartyRequest creates a customer or supplier.
type CreatePartyRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UpdatePartyRequest updates a customer or supplier.
type UpdatePartyRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (r CreatePartyRequest) party() catalogs.Party {
	return catalogs.Party{Catalog: entity.NewCatalog(r.Name), Email: r.Email, Phone: r.Phone}
}

func (r UpdatePartyRequest) apply(p *catalogs.Party) {
	setString(&p.Name, r.Name)
	setString(&p.Email, r.Email)
	setString(&p.Phone, r.Phone)
}

// ToCustomer maps the request.
func (r CreatePartyRequest) ToCustomer() *catalogs.Customer {
	return &catalogs.Customer{Party: r.party()}
}

// ToSupplier maps the request.
func (r CreatePartyRequest) ToSupplier() *catalogs.Supplier {
	return &catalogs.Supplier{Party: r.party()}
}

// ApplyCustomer maps the request onto existing.
func (r UpdatePartyRequest) ApplyCustomer(existing *catalogs.Customer) *catalogs.Customer {
	r.apply(&existing.Party)
	return existing
}

// ApplySupplier maps the request onto existing.
func (r UpdatePartyRequest) ApplySupplier(existing *catalogs.Supplier) *catalogs.Supplier {
	r.apply(&existing.Party)
	return existing
}

// --- Departments ---

// DepartmentRequest creates or renames a department.
type DepartmentRequest struct {
	Name string `json:"name" binding:"required"`
}

// ToDepartment maps the request.
func (r DepartmentRequest) ToDepartment() *catalogs.Department {
	return &catalogs.Department{Catalog: entity.NewCatalog(r.Name)}
}

// ApplyDepartment maps the request onto existing.
func (r DepartmentRequest) ApplyDepartment(existing *catalogs.Department) *catalogs.Department {
	existing.Name = r.Name
	return existing
}

// --- Employees ---

// CreateEmployeeRequest creates an employee.
type CreateEmployeeRequest struct {
	Name         string     `json:"name" binding:"required"`
	Email        string     `json:"email"`
	Position     string     `json:"position"`
	DepartmentID *id.ID     `json:"departmentId"`
	HireDate     *time.Time `json:"hireDate"`
}

// UpdateEmployeeRequest updates an employee. UnassignDepartment clears the department.
type UpdateEmployeeRequest struct {
	Name               *string    `json:"name"`
	Email              *string    `json:"email"`
	Position           *string    `json:"position"`
	DepartmentID       *id.ID     `json:"departmentId"`
	UnassignDepartment bool       `json:"unassignDepartment"`
	HireDate           *time.Time `json:"hireDate"`
}

// ToEmployee maps the request.
func (r CreateEmployeeRequest) ToEmployee() *catalogs.Employee {
	return &catalogs.Employee{
		Catalog:      entity.NewCatalog(r.Name),
		Email:        r.Email,
		Position:     r.Position,
		DepartmentID: r.DepartmentID,
		HireDate:     r.HireDate,
	}
}

// ApplyEmployee maps the request onto existing.
func (r UpdateEmployeeRequest) ApplyEmployee(existing *catalogs.Employee) *catalogs.Employee {
	setString(&existing.Name, r.Name)
	setString(&existing.Email, r.Email)
	setString(&existing.Position, r.Position)
	switch {
	case r.UnassignDepartment:
		existing.DepartmentID = nil
	case r.DepartmentID != nil:
		existing.DepartmentID = r.DepartmentID
	}
	if r.HireDate != nil {
		existing.HireDate = r.HireDate
	}
	return existing
}

// --- Warehouses ---

// CreateWarehouseRequest creates a warehouse.
type CreateWarehouseRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Location string `json:"location"`
}

// UpdateWarehouseRequest updates a warehouse.
type UpdateWarehouseRequest struct {
	Name     *string `json:"name"`
	Code     *string `json:"code"`
	Location *string `json:"location"`
}

// ToWarehouse maps the request.
func (r CreateWarehouseRequest) ToWarehouse() *catalogs.Warehouse {
	return &catalogs.Warehouse{Catalog: entity.NewCatalog(r.Name), Code: r.Code, Location: r.Location}
}

// ApplyWarehouse maps the request onto existing.
func (r UpdateWarehouseRequest) ApplyWarehouse(existing *catalogs.Warehouse) *catalogs.Warehouse {
	setString(&existing.Name, r.Name)
	setString(&existing.Code, r.Code)
	setString(&existing.Location, r.Location)
	return existing
}

// --- Products ---

// CreateProductRequest creates a product with its opening stock.
type CreateProductRequest struct {
	Name          string      `json:"name" binding:"required"`
	SKU           string      `json:"sku" binding:"required"`
	StockQuantity int64       `json:"stockQuantity" binding:"min=0"`
	UnitPrice     types.Money `json:"unitPrice"`
	ReorderLevel  int64       `json:"reorderLevel" binding:"min=0"`
}

// UpdateProductRequest updates a product. Stock changes go through movements
// except for explicit corrections.
type UpdateProductRequest struct {
	Name          *string      `json:"name"`
	SKU           *string      `json:"sku"`
	StockQuantity *int64       `json:"stockQuantity"`
	UnitPrice     *types.Money `json:"unitPrice"`
	ReorderLevel  *int64       `json:"reorderLevel"`
}

// ToProduct maps the request.
func (r CreateProductRequest) ToProduct() *catalogs.Product {
	return &catalogs.Product{
		Catalog:       entity.NewCatalog(r.Name),
		SKU:           r.SKU,
		StockQuantity: r.StockQuantity,
		UnitPrice:     r.UnitPrice,
		ReorderLevel:  r.ReorderLevel,
	}
}

// ApplyProduct maps the request onto existing.
func (r UpdateProductRequest) ApplyProduct(existing *catalogs.Product) *catalogs.Product {
	setString(&existing.Name, r.Name)
	setString(&existing.SKU, r.SKU)
	if r.StockQuantity != nil {
		existing.StockQuantity = *r.StockQuantity
	}
	if r.UnitPrice != nil {
		existing.UnitPrice = *r.UnitPrice
	}
	if r.ReorderLevel != nil {
		existing.ReorderLevel = *r.ReorderLevel
	}
	return existing
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
