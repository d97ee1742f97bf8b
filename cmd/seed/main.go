// Package main provides a CLI tool for seeding the ledger with demo data.
// Every record goes through the services, so derived fields are consistent
// from the start.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"erpledger/internal/app"
	"erpledger/internal/config"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
	"erpledger/internal/core/types"
	"erpledger/internal/domain"
	"erpledger/internal/domain/catalogs"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/filter"
	"erpledger/internal/domain/workflow"
	"erpledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load configuration", "error", err)
	}
	if cfg.UseMemoryStore() {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	seeded, err := alreadySeeded(ctx, a)
	if err != nil {
		log.Fatalw("failed to inspect accounts", "error", err)
	}
	if seeded {
		log.Info("demo data already present, nothing to do")
		return
	}

	if err := seedDemoData(ctx, a, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seeding completed successfully")
}

const cashAccountCode = "1000"

func alreadySeeded(ctx context.Context, a *app.App) (bool, error) {
	return a.Stores.Accounts.Exists(ctx, domain.Where(filter.Eq("code", cashAccountCode)))
}

func seedDemoData(ctx context.Context, a *app.App, log *logger.Logger) error {
	md := a.MasterData

	cash := &catalogs.Account{Catalog: entity.NewCatalog("Cash"), Code: cashAccountCode, Type: catalogs.AccountAsset}
	if err := md.Accounts.Create(ctx, cash); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	payable := &catalogs.Account{Catalog: entity.NewCatalog("Accounts Payable"), Code: "2000", Type: catalogs.AccountLiability}
	if err := md.Accounts.Create(ctx, payable); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	customer := &catalogs.Customer{Party: catalogs.Party{Catalog: entity.NewCatalog("Acme Corp"), Email: "billing@acme.example"}}
	if err := md.Customers.Create(ctx, customer); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	supplier := &catalogs.Supplier{Party: catalogs.Party{Catalog: entity.NewCatalog("Initech Supply"), Email: "sales@initech.example"}}
	if err := md.Suppliers.Create(ctx, supplier); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}

	dept := &catalogs.Department{Catalog: entity.NewCatalog("Operations")}
	if err := md.Departments.Create(ctx, dept); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	hired := time.Now().UTC().AddDate(-1, 0, 0)
	employee := &catalogs.Employee{
		Catalog:      entity.NewCatalog("Dana Park"),
		Email:        "dana@erpledger.example",
		Position:     "Warehouse lead",
		DepartmentID: id.Ref(dept.ID),
		HireDate:     &hired,
	}
	if err := md.Employees.Create(ctx, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}

	warehouse := &catalogs.Warehouse{Catalog: entity.NewCatalog("Main"), Code: "WH-1", Location: "Dock 4"}
	if err := md.Warehouses.Create(ctx, warehouse); err != nil {
		return fmt.Errorf("create warehouse: %w", err)
	}

	products := make([]*catalogs.Product, 0, 3)
	for _, p := range []struct {
		name, sku, price string
		reorder          int64
	}{
		{"Steel bolt M8", "BOLT-M8", "0.45", 200},
		{"Hex nut M8", "NUT-M8", "0.20", 200},
		{"Bracket L-40", "BRK-L40", "3.90", 20},
	} {
		product := &catalogs.Product{
			Catalog:      entity.NewCatalog(p.name),
			SKU:          p.sku,
			UnitPrice:    types.MustMoney(p.price),
			ReorderLevel: p.reorder,
		}
		if err := md.Products.Create(ctx, product); err != nil {
			return fmt.Errorf("create product %s: %w", p.sku, err)
		}
		products = append(products, product)
	}
	log.Infow("catalogs seeded", "products", len(products))

	// Stock arrives through a received purchase order.
	po, err := a.Orders.CreatePurchaseOrder(ctx, workflow.PurchaseOrderInput{
		SupplierID:  supplier.ID,
		WarehouseID: id.Ref(warehouse.ID),
	})
	if err != nil {
		return fmt.Errorf("create purchase order: %w", err)
	}
	for i, qty := range []int64{1000, 1000, 60} {
		cost := products[i].UnitPrice.Mul(types.MustMoney("0.6")).Round(2)
		if _, err := a.Maintainer.CreatePurchaseOrderItem(ctx, consistency.PurchaseOrderItemInput{
			PurchaseOrderID: po.ID,
			ProductID:       products[i].ID,
			Quantity:        qty,
			UnitCost:        cost,
		}); err != nil {
			return fmt.Errorf("create purchase line: %w", err)
		}
	}
	for _, status := range []documents.PurchaseOrderStatus{documents.PurchaseOrderConfirmed, documents.PurchaseOrderReceived} {
		if _, err := a.Orders.UpdatePurchaseOrderStatus(ctx, po.ID, status); err != nil {
			return fmt.Errorf("move purchase order to %s: %w", status, err)
		}
	}

	so, err := a.Orders.CreateSalesOrder(ctx, workflow.SalesOrderInput{CustomerID: customer.ID})
	if err != nil {
		return fmt.Errorf("create sales order: %w", err)
	}
	var total types.Money
	for i, qty := range []int64{400, 400, 25} {
		item, err := a.Maintainer.CreateSalesOrderItem(ctx, consistency.SalesOrderItemInput{
			SalesOrderID: so.ID,
			ProductID:    products[i].ID,
			Quantity:     qty,
		})
		if err != nil {
			return fmt.Errorf("create sales line: %w", err)
		}
		total = total.Add(item.Subtotal)
	}

	due := time.Now().UTC().AddDate(0, 0, 30)
	inv, err := a.Invoices.Create(ctx, workflow.InvoiceInput{
		CustomerID:   customer.ID,
		SalesOrderID: id.Ref(so.ID),
		Amount:       total,
		DueDate:      &due,
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	if _, err := a.Invoices.UpdateStatus(ctx, inv.ID, documents.InvoiceSent); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}

	// Half of the invoice is paid into cash.
	if _, err := a.Maintainer.CreateTransaction(ctx, consistency.TransactionInput{
		Amount:      total.Div(types.MustMoney("2")).Round(2),
		Description: "Partial payment " + inv.Number,
		AccountID:   cash.ID,
		InvoiceID:   id.Ref(inv.ID),
	}); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}

	log.Infow("documents seeded",
		"purchase_order", po.Number,
		"sales_order", so.Number,
		"invoice", inv.Number,
		"invoice_amount", total.String(),
	)
	return nil
}
