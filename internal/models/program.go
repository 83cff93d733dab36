package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProgramType string

const (
	ProgramCashback ProgramType = "cashback"
	ProgramPoints   ProgramType = "points"
	ProgramStamp    ProgramType = "stamp"
)

// RewardProgram configuration is owned by the admin surface; this engine only
// reads active rows. Rule documents are freeform JSON because program design
// varies per tenant; they are parsed into typed rules once per invocation.
type RewardProgram struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    string         `json:"tenant_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"not null"`
	ProgramType ProgramType    `json:"program_type" gorm:"index;not null"` // cashback, points, stamp
	EarnRule    datatypes.JSON `json:"earn_rule"`
	RedeemRule  datatypes.JSON `json:"redeem_rule"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Enrollment tracks a customer's participation in a cashback program. A
// qualifying visit is any closed order, counted regardless of reward outcome.
type Enrollment struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	TenantID             string     `json:"tenant_id" gorm:"uniqueIndex:idx_enrollment_key;not null"`
	ProgramID            uint       `json:"program_id" gorm:"uniqueIndex:idx_enrollment_key;not null"`
	CustomerID           uint       `json:"customer_id" gorm:"uniqueIndex:idx_enrollment_key;not null"`
	QualifyingVisitCount int        `json:"qualifying_visit_count" gorm:"default:0"`
	LastQualifyingAt     *time.Time `json:"last_qualifying_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
