package handlers

import (
	"github.com/gin-gonic/gin"

	"erpledger/internal/domain/documents"
	"erpledger/internal/domain/workflow"
	"erpledger/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles sales and purchase orders.
type OrderHandler struct {
	*BaseHandler
	service *workflow.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *workflow.OrderService) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// CreateSalesOrder handles POST /sales-orders.
func (h *OrderHandler) CreateSalesOrder(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.CreateSalesOrder(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}

// ListSalesOrders handles GET /sales-orders.
func (h *OrderHandler) ListSalesOrders(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListSalesOrders(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// GetSalesOrder handles GET /sales-orders/:id and returns the order with its lines.
func (h *OrderHandler) GetSalesOrder(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}
	detail, err := h.service.GetSalesOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// UpdateSalesOrderStatus handles PATCH /sales-orders/:id.
func (h *OrderHandler) UpdateSalesOrderStatus(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.UpdateSalesOrderStatus(c.Request.Context(), orderID, documents.SalesOrderStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// CreatePurchaseOrder handles POST /purchase-orders.
func (h *OrderHandler) CreatePurchaseOrder(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.CreatePurchaseOrder(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}

// ListPurchaseOrders handles GET /purchase-orders.
func (h *OrderHandler) ListPurchaseOrders(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.ListPurchaseOrders(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// GetPurchaseOrder handles GET /purchase-orders/:id.
func (h *OrderHandler) GetPurchaseOrder(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}
	detail, err := h.service.GetPurchaseOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// UpdatePurchaseOrderStatus handles PATCH /purchase-orders/:id. Moving to
// received books the inbound stock.
func (h *OrderHandler) UpdatePurchaseOrderStatus(c *gin.Context) {
	orderID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.UpdatePurchaseOrderStatus(c.Request.Context(), orderID, documents.PurchaseOrderStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// InvoiceHandler handles invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *workflow.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *workflow.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, inv)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// Get handles GET /invoices/:id and returns the invoice with its payments.
func (h *InvoiceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}
	inv, err := h.service.Get(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	payments, err := h.service.Payments(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if payments == nil {
		payments = []*documents.Transaction{}
	}
	h.OK(c, dto.InvoiceDetail{Invoice: inv, Payments: payments})
}

// UpdateStatus handles PATCH /invoices/:id.
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.service.UpdateStatus(c.Request.Context(), invoiceID, documents.InvoiceStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, inv)
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
