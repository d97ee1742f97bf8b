// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"erpledger/internal/core/entity"
	"erpledger/internal/domain/consistency"
	"erpledger/internal/domain/masterdata"
	"erpledger/internal/domain/reports"
	"erpledger/internal/domain/workflow"
	"erpledger/internal/infrastructure/http/v1/dto"
	"erpledger/internal/infrastructure/http/v1/handlers"
	"erpledger/internal/infrastructure/http/v1/middleware"
	"erpledger/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Debug switches gin to debug mode
	Debug bool

	MasterData *masterdata.Services
	Maintainer *consistency.Maintainer
	Orders     *workflow.OrderService
	Invoices   *workflow.InvoiceService
	Reports    *reports.Service

	// ReadinessChecks are pinged by /health/ready, keyed by name
	ReadinessChecks map[string]handlers.Pinger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.ReadinessChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		registerCatalogRoutes(v1, base, cfg.MasterData)
		registerLedgerRoutes(v1, base, cfg.Maintainer)
		registerDocumentRoutes(v1, base, cfg.Orders, cfg.Invoices)
		registerReportRoutes(v1, base, cfg.Reports)
	}

	return router
}

// catalogHandler builds the generic handler for one catalog.
func catalogHandler[T entity.Record, C any, U any](
	base *handlers.BaseHandler,
	svc handlers.CatalogService[T],
	create func(C) T,
	update func(U, T) T,
) *handlers.CatalogHandler[T, C, U] {
	return handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[T, C, U]{
		Service:      svc,
		MapCreateDTO: create,
		MapUpdateDTO: update,
	})
}

func registerCatalogRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, md *masterdata.Services) {
	RegisterCatalogRoutes(r.Group("/accounts"), catalogHandler(base, md.Accounts,
		dto.CreateAccountRequest.ToAccount, dto.UpdateAccountRequest.Apply))
	RegisterCatalogRoutes(r.Group("/customers"), catalogHandler(base, md.Customers,
		dto.CreatePartyRequest.ToCustomer, dto.UpdatePartyRequest.ApplyCustomer))
	RegisterCatalogRoutes(r.Group("/suppliers"), catalogHandler(base, md.Suppliers,
		dto.CreatePartyRequest.ToSupplier, dto.UpdatePartyRequest.ApplySupplier))
	RegisterCatalogRoutes(r.Group("/departments"), catalogHandler(base, md.Departments,
		dto.DepartmentRequest.ToDepartment, dto.DepartmentRequest.ApplyDepartment))
	RegisterCatalogRoutes(r.Group("/employees"), catalogHandler(base, md.Employees,
		dto.CreateEmployeeRequest.ToEmployee, dto.UpdateEmployeeRequest.ApplyEmployee))
	RegisterCatalogRoutes(r.Group("/warehouses"), catalogHandler(base, md.Warehouses,
		dto.CreateWarehouseRequest.ToWarehouse, dto.UpdateWarehouseRequest.ApplyWarehouse))

	products := catalogHandler(base, md.Products,
		dto.CreateProductRequest.ToProduct, dto.UpdateProductRequest.ApplyProduct)
	group := r.Group("/products")
	group.GET("", products.List)
	group.POST("", products.Create)
	group.GET("/:id", products.Get)
	group.PATCH("/:id", products.Update)
}

func registerLedgerRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, m *consistency.Maintainer) {
	h := handlers.NewLedgerHandler(base, m)

	RegisterChildRoutes(r.Group("/sales-order-items"), ChildRoutes{
		Create: h.CreateSalesOrderItem,
		Update: h.UpdateSalesOrderItem,
		Delete: h.DeleteSalesOrderItem,
	})
	RegisterChildRoutes(r.Group("/purchase-order-items"), ChildRoutes{
		Create: h.CreatePurchaseOrderItem,
		Update: h.UpdatePurchaseOrderItem,
		Delete: h.DeletePurchaseOrderItem,
	})
	RegisterChildRoutes(r.Group("/stock-movements"), ChildRoutes{
		Create: h.CreateStockMovement,
		Delete: h.DeleteStockMovement,
	})
	RegisterChildRoutes(r.Group("/transactions"), ChildRoutes{
		Create: h.CreateTransaction,
		Update: h.UpdateTransaction,
		Delete: h.DeleteTransaction,
	})

	r.POST("/maintenance/recompute", h.Recompute)
}

func registerDocumentRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, orders *workflow.OrderService, invoices *workflow.InvoiceService) {
	o := handlers.NewOrderHandler(base, orders)
	RegisterDocumentRoutes(r.Group("/sales-orders"), DocumentRoutes{
		List:   o.ListSalesOrders,
		Create: o.CreateSalesOrder,
		Get:    o.GetSalesOrder,
		Patch:  o.UpdateSalesOrderStatus,
	})
	RegisterDocumentRoutes(r.Group("/purchase-orders"), DocumentRoutes{
		List:   o.ListPurchaseOrders,
		Create: o.CreatePurchaseOrder,
		Get:    o.GetPurchaseOrder,
		Patch:  o.UpdatePurchaseOrderStatus,
	})

	inv := handlers.NewInvoiceHandler(base, invoices)
	RegisterDocumentRoutes(r.Group("/invoices"), DocumentRoutes{
		List:   inv.List,
		Create: inv.Create,
		Get:    inv.Get,
		Patch:  inv.UpdateStatus,
		Delete: inv.Delete,
	})
}

func registerReportRoutes(r *gin.RouterGroup, base *handlers.BaseHandler, svc *reports.Service) {
	h := handlers.NewReportsHandler(base, svc)

	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("/kpi", h.KPI)
		dashboard.GET("/sales", h.Sales)
		dashboard.GET("/procurement", h.Procurement)
		dashboard.GET("/inventory", h.Inventory)
		dashboard.GET("/hr", h.HR)
		dashboard.GET("/finance", h.Finance)
	}

	statements := r.Group("/reports")
	{
		statements.GET("/income-statement", h.IncomeStatement)
		statements.GET("/balance-sheet", h.BalanceSheet)
		statements.GET("/cash-flow", h.CashFlow)
	}
}
