package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"erpledger/internal/core/apperror"
	"erpledger/internal/domain/reports"
	"erpledger/internal/infrastructure/export"
)

// ReportsHandler serves the dashboard analytics and financial statements.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

func respond[T any](h *ReportsHandler, c *gin.Context, get func(context.Context) (T, error)) {
	v, err := get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// KPI handles GET /dashboard/kpi
func (h *ReportsHandler) KPI(c *gin.Context) { respond(h, c, h.service.GetKPI) }

// Sales handles GET /dashboard/sales
func (h *ReportsHandler) Sales(c *gin.Context) { respond(h, c, h.service.GetSalesAnalytics) }

// Procurement handles GET /dashboard/procurement
func (h *ReportsHandler) Procurement(c *gin.Context) { respond(h, c, h.service.GetProcurementAnalytics) }

// Inventory handles GET /dashboard/inventory
func (h *ReportsHandler) Inventory(c *gin.Context) { respond(h, c, h.service.GetInventoryAnalytics) }

// HR handles GET /dashboard/hr
func (h *ReportsHandler) HR(c *gin.Context) { respond(h, c, h.service.GetHRAnalytics) }

// Finance handles GET /dashboard/finance
func (h *ReportsHandler) Finance(c *gin.Context) { respond(h, c, h.service.GetFinanceAnalytics) }

// IncomeStatement handles GET /reports/income-statement[?format=xlsx]
func (h *ReportsHandler) IncomeStatement(c *gin.Context) {
	st, err := h.service.GetIncomeStatement(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.statement(c, "income-statement", st, func(w io.Writer) error { return export.IncomeStatement(w, st) })
}

// BalanceSheet handles GET /reports/balance-sheet[?format=xlsx]
func (h *ReportsHandler) BalanceSheet(c *gin.Context) {
	st, err := h.service.GetBalanceSheet(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.statement(c, "balance-sheet", st, func(w io.Writer) error { return export.BalanceSheet(w, st) })
}

// CashFlow handles GET /reports/cash-flow[?format=xlsx]
func (h *ReportsHandler) CashFlow(c *gin.Context) {
	st, err := h.service.GetCashFlow(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.statement(c, "cash-flow", st, func(w io.Writer) error { return export.CashFlow(w, st) })
}

// statement renders JSON by default and a workbook for format=xlsx.
func (h *ReportsHandler) statement(c *gin.Context, name string, body any, workbook func(io.Writer) error) {
	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		h.OK(c, body)
	case "xlsx":
		var buf bytes.Buffer
		if err := workbook(&buf); err != nil {
			h.Error(c, apperror.NewInternal(fmt.Errorf("export %s: %w", name, err)))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
		c.Data(http.StatusOK, export.ContentType, buf.Bytes())
	default:
		h.Error(c, apperror.NewValidation("unsupported format").WithDetail("format", format))
	}
}
