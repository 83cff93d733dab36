package repository

import (
	"errors"

	"loyalty_engine/internal/models"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(tenantID string, id uint) (*models.Order, error)
	GetByNumber(tenantID string, orderNumber string) (*models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID returns nil without error when the order does not exist for the
// tenant; a missing order is a reported no-op upstream, not a failure.
func (r *orderRepository) GetByID(tenantID string, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("LineItems").Where("tenant_id = ?", tenantID).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByNumber(tenantID string, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("LineItems").
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}
