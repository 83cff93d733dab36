package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type LedgerEntryType string

const (
	EntryCashbackEarn    LedgerEntryType = "cashback_earn"
	EntryCashbackRedeem  LedgerEntryType = "cashback_redeem"
	EntryCashbackExpire  LedgerEntryType = "cashback_expire"
	EntryPointsEarn      LedgerEntryType = "points_earn"
	EntryStampRewardCash LedgerEntryType = "stamp_reward_cash"
)

// LedgerEntry is one immutable balance-affecting event. Rows are append-only:
// never updated, never deleted. Sign convention: positive deltas earn,
// negative deltas redeem or expire.
type LedgerEntry struct {
	ID          uint            `json:"id" gorm:"primaryKey"` // monotonic; ties broken by insertion order
	TenantID    string          `json:"tenant_id" gorm:"index;not null"`
	ProgramID   uint            `json:"program_id" gorm:"index;not null"`
	CustomerID  uint            `json:"customer_id" gorm:"index;not null"`
	OrderID     uint            `json:"order_id" gorm:"index;not null"`
	EntryType   LedgerEntryType `json:"entry_type" gorm:"index;not null"`
	CashDelta   decimal.Decimal `json:"cash_delta" gorm:"type:decimal(20,4);default:0"`
	PointsDelta int64           `json:"points_delta" gorm:"default:0"`
	Meta        datatypes.JSON  `json:"meta"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LoyaltyAccount caches the aggregate ledger position per customer. Balances
// are maintained by additive upsert from ledger entries, never recomputed by
// scan in the hot path.
type LoyaltyAccount struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	TenantID      string          `json:"tenant_id" gorm:"uniqueIndex:idx_loyalty_account_key;not null"`
	CustomerID    uint            `json:"customer_id" gorm:"uniqueIndex:idx_loyalty_account_key;not null"`
	PointsBalance int64           `json:"points_balance" gorm:"default:0"`
	CashBalance   decimal.Decimal `json:"cash_balance" gorm:"type:decimal(20,4);default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
