// Package masterdata wires the catalog services of the ledger: accounts,
// parties, organisation structure, warehouses and products. Every parent
// listed in the delete guard table gets its guard as a before-delete hook.
package masterdata

import (
	"context"
	"fmt"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/lock"
	"erpledger/internal/core/tx"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/audit"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/guard"
)

// Config wires the catalog services.
type Config struct {
	Stores    domain.Stores
	TxManager tx.Manager
	Locker    lock.Locker
	Audit     audit.Recorder
	Guards    *guard.DeleteTable
}

// Services bundles one service per catalog.
type Services struct {
	Accounts    *domain.CatalogService[*catalogs.Account]
	Customers   *domain.CatalogService[*catalogs.Customer]
	Suppliers   *domain.CatalogService[*catalogs.Supplier]
	Departments *domain.CatalogService[*catalogs.Department]
	Employees   *domain.CatalogService[*catalogs.Employee]
	Warehouses  *domain.CatalogService[*catalogs.Warehouse]
	Products    *ProductService
}

// New creates the catalog services.
func New(cfg Config) *Services {
	if cfg.Guards == nil {
		cfg.Guards = guard.NewDeleteTable(cfg.Stores)
	}
	if cfg.Locker == nil {
		cfg.Locker = lock.NewKeyedMutex()
	}

	s := &Services{
		Accounts:    newGuarded(cfg, cfg.Stores.Accounts, catalogs.EntityAccount),
		Customers:   newGuarded(cfg, cfg.Stores.Customers, catalogs.EntityCustomer),
		Suppliers:   newGuarded(cfg, cfg.Stores.Suppliers, catalogs.EntitySupplier),
		Departments: newGuarded(cfg, cfg.Stores.Departments, catalogs.EntityDepartment),
		Employees:   newGuarded(cfg, cfg.Stores.Employees, catalogs.EntityEmployee),
		Warehouses:  newGuarded(cfg, cfg.Stores.Warehouses, catalogs.EntityWarehouse),
		Products:    NewProductService(cfg),
	}

	accounts := cfg.Stores.Accounts
	s.Accounts.Hooks().OnBeforeCreate(func(_ context.Context, a *catalogs.Account) error {
		a.Balance = types.Zero()
		return nil
	})
	s.Accounts.Hooks().OnBeforeUpdate(func(ctx context.Context, a *catalogs.Account) error {
		stored, err := accounts.GetForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		a.Balance = stored.Balance
		return nil
	})

	departmentExists := func(ctx context.Context, e *catalogs.Employee) error {
		return requireRelated(ctx, cfg.Stores.Departments, e.DepartmentID, catalogs.EntityDepartment, "Department does not exist")
	}
	s.Employees.Hooks().OnBeforeCreate(departmentExists)
	s.Employees.Hooks().OnBeforeUpdate(departmentExists)

	return s
}

func newGuarded[T entity.Record](cfg Config, store domain.Store[T], entityName string) *domain.CatalogService[T] {
	svc := domain.NewCatalogService(domain.CatalogServiceConfig[T]{
		Store:      store,
		TxManager:  cfg.TxManager,
		Audit:      cfg.Audit,
		EntityName: entityName,
	})
	if len(cfg.Guards.Rules(entityName)) > 0 {
		svc.Hooks().OnBeforeDelete(guard.Hook[T](cfg.Guards, entityName))
	}
	return svc
}

// requireRelated fails with NotFound when ref is set but no record of
// store carries it.
func requireRelated[T entity.Record](ctx context.Context, store domain.Store[T], ref *id.ID, entityName, message string) error {
	if ref == nil {
		return nil
	}
	ok, err := store.Exists(ctx, domain.ListFilter{IDs: []id.ID{*ref}})
	if err != nil {
		return fmt.Errorf("check %s: %w", entityName, err)
	}
	if !ok {
		e := apperror.NewNotFound(entityName, ref.String())
		e.Message = message
		return e
	}
	return nil
}
