package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel is the cached on-hand quantity per (tenant, branch, product).
// The deduction engine computes the new quantity alongside the movement row
// and writes it absolutely; the before/after columns on movements let the
// level be rebuilt if they ever disagree. Negative stock is allowed; the
// deduction engine records it and raises a warning instead of blocking the
// sale.
type StockLevel struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	TenantID       string          `json:"tenant_id" gorm:"uniqueIndex:idx_stock_level_key;not null"`
	BranchID       uint            `json:"branch_id" gorm:"uniqueIndex:idx_stock_level_key;not null"`
	ProductID      uint            `json:"product_id" gorm:"uniqueIndex:idx_stock_level_key;not null"`
	CurrentStock   decimal.Decimal `json:"current_stock" gorm:"type:decimal(20,4);default:0"`
	LastMovementAt *time.Time      `json:"last_movement_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type StockMovementType string

const (
	MovementSaleOut StockMovementType = "sale_out"
)

type StockReferenceType string

const (
	StockRefOrder StockReferenceType = "order"
)

// StockMovement is the append-only inventory ledger. Before/after quantities
// are captured at write time so movements replay without the level row.
type StockMovement struct {
	ID             uint               `json:"id" gorm:"primaryKey"`
	TenantID       string             `json:"tenant_id" gorm:"index;not null"`
	BranchID       uint               `json:"branch_id" gorm:"index;not null"`
	ProductID      uint               `json:"product_id" gorm:"index;not null"`
	MovementType   StockMovementType  `json:"movement_type" gorm:"not null"` // sale_out
	Quantity       decimal.Decimal    `json:"quantity" gorm:"type:decimal(20,4);not null"`
	QuantityBefore decimal.Decimal    `json:"quantity_before" gorm:"type:decimal(20,4);default:0"`
	QuantityAfter  decimal.Decimal    `json:"quantity_after" gorm:"type:decimal(20,4);default:0"`
	ReferenceType  StockReferenceType `json:"reference_type" gorm:"index"`
	ReferenceID    uint               `json:"reference_id" gorm:"index"`
	CreatedBy      uint               `json:"created_by"`
	CreatedAt      time.Time          `json:"created_at"`
}
