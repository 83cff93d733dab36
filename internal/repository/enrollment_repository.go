package repository

import (
	"time"

	"loyalty_engine/internal/models"

	"gorm.io/gorm"
)

type EnrollmentRepository interface {
	FirstOrCreate(tenantID string, programID, customerID uint) (*models.Enrollment, error)
	IncrementVisit(id uint, at time.Time) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) FirstOrCreate(tenantID string, programID, customerID uint) (*models.Enrollment, error) {
	enrollment := models.Enrollment{
		TenantID:   tenantID,
		ProgramID:  programID,
		CustomerID: customerID,
	}
	err := r.db.Where("tenant_id = ? AND program_id = ? AND customer_id = ?", tenantID, programID, customerID).
		FirstOrCreate(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IncrementVisit is additive in SQL so concurrent closes of different orders
// cannot lose an update.
func (r *enrollmentRepository) IncrementVisit(id uint, at time.Time) error {
	return r.db.Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"qualifying_visit_count": gorm.Expr("qualifying_visit_count + 1"),
			"last_qualifying_at":     at,
		}).Error
}
