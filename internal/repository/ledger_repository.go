package repository

import (
	"errors"

	"loyalty_engine/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerRepository interface {
	CreateEntry(entry *models.LedgerEntry) error
	GetLatestByType(tenantID string, programID, customerID uint, entryType models.LedgerEntryType) (*models.LedgerEntry, error)
	GetRecentEntries(tenantID string, customerID uint, limit int) ([]models.LedgerEntry, error)
	ApplyToAccount(tenantID string, customerID uint, pointsDelta int64, cashDelta decimal.Decimal) error
	GetAccount(tenantID string, customerID uint) (*models.LoyaltyAccount, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateEntry(entry *models.LedgerEntry) error {
	return r.db.Create(entry).Error
}

// GetLatestByType orders by id descending, not created_at, so ties within the
// same second resolve by insertion order. Returns nil when no entry exists.
func (r *ledgerRepository) GetLatestByType(tenantID string, programID, customerID uint, entryType models.LedgerEntryType) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.Where("tenant_id = ? AND program_id = ? AND customer_id = ? AND entry_type = ?",
		tenantID, programID, customerID, entryType).
		Order("id desc").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) GetRecentEntries(tenantID string, customerID uint, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("id desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// ApplyToAccount upserts the cached balance additively. The account row is
// derived state; the ledger stays the source of truth.
func (r *ledgerRepository) ApplyToAccount(tenantID string, customerID uint, pointsDelta int64, cashDelta decimal.Decimal) error {
	account := models.LoyaltyAccount{
		TenantID:   tenantID,
		CustomerID: customerID,
	}
	err := r.db.Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		FirstOrCreate(&account).Error
	if err != nil {
		return err
	}

	return r.db.Model(&models.LoyaltyAccount{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", pointsDelta),
			"cash_balance":   gorm.Expr("cash_balance + ?", cashDelta),
		}).Error
}

func (r *ledgerRepository) GetAccount(tenantID string, customerID uint) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.db.Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}
