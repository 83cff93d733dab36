package repository

import (
	"loyalty_engine/internal/models"

	"gorm.io/gorm"
)

type StampRepository interface {
	GetOrCreateActiveCard(tenantID string, programID, customerID uint, targetStamps int) (*models.StampCard, error)
	GetCardByID(id uint) (*models.StampCard, error)
	AddStamps(cardID uint, delta int) error
	ResetCard(cardID uint) error
	CreateEntry(entry *models.StampLedgerEntry) error
}

type stampRepository struct {
	db *gorm.DB
}

func NewStampRepository(db *gorm.DB) StampRepository {
	return &stampRepository{db: db}
}

// GetOrCreateActiveCard keeps one active card per (tenant, program, customer).
// The target is fixed at creation; later rule edits apply to the next card.
func (r *stampRepository) GetOrCreateActiveCard(tenantID string, programID, customerID uint, targetStamps int) (*models.StampCard, error) {
	card := models.StampCard{
		TenantID:     tenantID,
		ProgramID:    programID,
		CustomerID:   customerID,
		TargetStamps: targetStamps,
		IsActive:     true,
	}
	err := r.db.Where("tenant_id = ? AND program_id = ? AND customer_id = ? AND is_active = ?",
		tenantID, programID, customerID, true).
		FirstOrCreate(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *stampRepository) GetCardByID(id uint) (*models.StampCard, error) {
	var card models.StampCard
	if err := r.db.First(&card, id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *stampRepository) AddStamps(cardID uint, delta int) error {
	return r.db.Model(&models.StampCard{}).
		Where("id = ?", cardID).
		Update("current_stamps", gorm.Expr("current_stamps + ?", delta)).Error
}

func (r *stampRepository) ResetCard(cardID uint) error {
	return r.db.Model(&models.StampCard{}).
		Where("id = ?", cardID).
		Update("current_stamps", 0).Error
}

func (r *stampRepository) CreateEntry(entry *models.StampLedgerEntry) error {
	return r.db.Create(entry).Error
}
