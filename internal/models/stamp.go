package models

import "time"

// StampCard holds a customer's progress toward a milestone reward. One active
// card per (tenant, program, customer); reaching the target resets the card to
// zero within the same transaction that incremented it.
type StampCard struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TenantID      string    `json:"tenant_id" gorm:"index:idx_stamp_card_key;not null"`
	ProgramID     uint      `json:"program_id" gorm:"index:idx_stamp_card_key;not null"`
	CustomerID    uint      `json:"customer_id" gorm:"index:idx_stamp_card_key;not null"`
	CurrentStamps int       `json:"current_stamps" gorm:"default:0"`
	TargetStamps  int       `json:"target_stamps" gorm:"not null"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type StampReason string

const (
	StampEarn  StampReason = "earn"
	StampReset StampReason = "reset"
)

type StampLedgerEntry struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	TenantID    string      `json:"tenant_id" gorm:"index;not null"`
	ProgramID   uint        `json:"program_id" gorm:"index;not null"`
	CustomerID  uint        `json:"customer_id" gorm:"index;not null"`
	OrderID     uint        `json:"order_id" gorm:"index;not null"`
	StampsDelta int         `json:"stamps_delta" gorm:"not null"`
	Reason      StampReason `json:"reason" gorm:"not null"` // earn, reset
	CreatedAt   time.Time   `json:"created_at"`
}
