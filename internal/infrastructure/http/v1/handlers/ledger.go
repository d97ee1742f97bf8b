package handlers

import (
	"github.com/gin-gonic/gin"

	"erpledger/internal/domain/consistency"
	"erpledger/internal/infrastructure/http/v1/dto"
)

// LedgerHandler exposes the child writes that keep derived fields in step:
// order lines, stock movements and transactions.
type LedgerHandler struct {
	*BaseHandler
	m *consistency.Maintainer
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, m *consistency.Maintainer) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, m: m}
}

// CreateSalesOrderItem handles POST /sales-order-items.
func (h *LedgerHandler) CreateSalesOrderItem(c *gin.Context) {
	var req dto.CreateSalesOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.m.CreateSalesOrderItem(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// UpdateSalesOrderItem handles PATCH /sales-order-items/:id.
func (h *LedgerHandler) UpdateSalesOrderItem(c *gin.Context) {
	itemID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateLineItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.m.UpdateSalesOrderItem(c.Request.Context(), itemID, req.SalesPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// DeleteSalesOrderItem handles DELETE /sales-order-items/:id.
func (h *LedgerHandler) DeleteSalesOrderItem(c *gin.Context) {
	itemID, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.m.DeleteSalesOrderItem(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreatePurchaseOrderItem handles POST /purchase-order-items.
func (h *LedgerHandler) CreatePurchaseOrderItem(c *gin.Context) {
	var req dto.CreatePurchaseOrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.m.CreatePurchaseOrderItem(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// UpdatePurchaseOrderItem handles PATCH /purchase-order-items/:id.
func (h *LedgerHandler) UpdatePurchaseOrderItem(c *gin.Context) {
	itemID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateLineItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.m.UpdatePurchaseOrderItem(c.Request.Context(), itemID, req.PurchasePatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// DeletePurchaseOrderItem handles DELETE /purchase-order-items/:id.
func (h *LedgerHandler) DeletePurchaseOrderItem(c *gin.Context) {
	itemID, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.m.DeletePurchaseOrderItem(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// CreateStockMovement handles POST /stock-movements.
func (h *LedgerHandler) CreateStockMovement(c *gin.Context) {
	var req dto.CreateStockMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	mv, err := h.m.CreateStockMovement(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, mv)
}

// DeleteStockMovement handles DELETE /stock-movements/:id. The movement is
// removed even when its effect cannot be reverted; the body then carries
// the warning.
func (h *LedgerHandler) DeleteStockMovement(c *gin.Context) {
	movementID, ok := h.PathID(c)
	if !ok {
		return
	}
	res, err := h.m.DeleteStockMovement(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, res)
}

// CreateTransaction handles POST /transactions.
func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.m.CreateTransaction(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t)
}

// UpdateTransaction handles PATCH /transactions/:id.
func (h *LedgerHandler) UpdateTransaction(c *gin.Context) {
	transactionID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	t, err := h.m.UpdateTransaction(c.Request.Context(), transactionID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// DeleteTransaction handles DELETE /transactions/:id.
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	transactionID, ok := h.PathID(c)
	if !ok {
		return
	}
	if err := h.m.DeleteTransaction(c.Request.Context(), transactionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Recompute handles POST /maintenance/recompute.
func (h *LedgerHandler) Recompute(c *gin.Context) {
	report, err := h.m.RecomputeAll(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"report": report, "changed": report.Changed()})
}
