package documents

import (
	"context"
	"time"

	"erpledger/internal/core/apperror"
	"erpledger/internal/core/entity"
	"erpledger/internal/core/id"
)

// MovementType is the kind of a stock movement.
type MovementType string

const (
	MovementInbound    MovementType = "inbound"
	MovementOutbound   MovementType = "outbound"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementInbound, MovementOutbound, MovementAdjustment:
		return true
	}
	return false
}

// StockMovement changes a product's stock. Movements are immutable:
// they are created and deleted, never updated.
type StockMovement struct {
	entity.BaseEntity

	ProductID    id.ID        `db:"product_id" json:"productId"`
	WarehouseID  *id.ID       `db:"warehouse_id" json:"warehouseId,omitempty"`
	Type         MovementType `db:"movement_type" json:"type"`
	Quantity     int64        `db:"quantity" json:"quantity"`
	Reference    string       `db:"reference" json:"reference,omitempty"`
	MovementDate time.Time    `db:"movement_date" json:"movementDate"`

	// PreviousStock is the product stock the movement was applied to.
	PreviousStock int64 `db:"previous_stock" json:"previousStock"`
}

// Validate implements entity.Validatable.
func (m *StockMovement) Validate(ctx context.Context) error {
	if id.IsNil(m.ProductID) {
		return apperror.NewValidation("product is required").WithDetail("field", "productId")
	}
	if m.Quantity <= 0 {
		return apperror.NewValidation("Quantity must be greater than 0").
			WithDetail("field", "quantity").
			WithDetail("value", m.Quantity)
	}
	if !m.Type.Valid() {
		return apperror.NewValidation("Invalid movement type").
			WithDetail("field", "type").
			WithDetail("value", string(m.Type))
	}
	return nil
}

var _ entity.Record = (*StockMovement)(nil)
