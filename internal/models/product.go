package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID                 uint            `json:"id" gorm:"primaryKey"`
	TenantID           string          `json:"tenant_id" gorm:"index;not null"`
	Name               string          `json:"name" gorm:"not null"`
	SKU                string          `json:"sku" gorm:"index"`
	IsInventoryTracked bool            `json:"is_inventory_tracked" gorm:"default:false"`
	IsActive           bool            `json:"is_active" gorm:"default:true"`
	ReorderLevel       decimal.Decimal `json:"reorder_level" gorm:"type:decimal(20,4);default:0"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}

type Customer struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"not null"`
	Phone     string         `json:"phone" gorm:"index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}
