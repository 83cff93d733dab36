package repository

import (
	"loyalty_engine/internal/models"

	"gorm.io/gorm"
)

type ProgramRepository interface {
	Create(program *models.RewardProgram) error
	GetActivePrograms(tenantID string) ([]models.RewardProgram, error)
}

type programRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepository{db: db}
}

func (r *programRepository) Create(program *models.RewardProgram) error {
	return r.db.Create(program).Error
}

// GetActivePrograms returns active programs ordered by id so "first program of
// a type wins" is deterministic across calls.
func (r *programRepository) GetActivePrograms(tenantID string) ([]models.RewardProgram, error) {
	var programs []models.RewardProgram
	err := r.db.Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("id asc").
		Find(&programs).Error
	return programs, err
}
