package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order rows are owned by the order lifecycle subsystem; this engine only
// reads them when a close event fires.
type Order struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	TenantID      string          `json:"tenant_id" gorm:"index;not null"`
	BranchID      uint            `json:"branch_id" gorm:"index;not null"`
	OrderNumber   string          `json:"order_number" gorm:"index;not null"`
	CustomerID    *uint           `json:"customer_id" gorm:"index"`
	CustomerPhone string          `json:"customer_phone"`
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:decimal(20,4);not null"`
	Tax           decimal.Decimal `json:"tax" gorm:"type:decimal(20,4);default:0"`
	Service       decimal.Decimal `json:"service" gorm:"type:decimal(20,4);default:0"`
	Status        string          `json:"status" gorm:"default:'open'"` // open, closed, voided
	LineItems     []OrderLineItem `json:"line_items" gorm:"foreignKey:OrderID"`
	ClosedAt      *time.Time      `json:"closed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}

type OrderLineItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"index;not null"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,4);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type OrderStatus string

const (
	OrderOpen   OrderStatus = "open"
	OrderClosed OrderStatus = "closed"
	OrderVoided OrderStatus = "voided"
)

// BillBasis is the tax/service-excluded subtotal percentage rules apply to.
// Never negative.
func (o *Order) BillBasis() decimal.Decimal {
	basis := o.Subtotal.Sub(o.Tax).Sub(o.Service)
	if basis.IsNegative() {
		return decimal.Zero
	}
	return basis
}

// HasIdentifiableCustomer reports whether reward engines can attribute this
// order to a customer. Both the id and a phone number are required.
func (o *Order) HasIdentifiableCustomer() bool {
	return o.CustomerID != nil && *o.CustomerID != 0 && o.CustomerPhone != ""
}
