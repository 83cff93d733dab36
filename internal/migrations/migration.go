package migrations

import (
	"loyalty_engine/internal/models"

	"gorm.io/gorm"
)

// RunMigrations creates or updates the schema. Ledger and movement tables are
// append-only so migrations never drop or rewrite existing rows.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.RewardProgram{},
		&models.Enrollment{},
		&models.LedgerEntry{},
		&models.LoyaltyAccount{},
		&models.StampCard{},
		&models.StampLedgerEntry{},
		&models.StockLevel{},
		&models.StockMovement{},
	)
}
