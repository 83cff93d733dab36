package repository

import (
	"errors"
	"time"

	"loyalty_engine/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockAlert is the dashboard row for the low-stock query. Unlike the
// deduction warnings, it compares against the product's configured reorder
// level.
type LowStockAlert struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	BranchID     uint            `json:"branch_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
}

type StockRepository interface {
	GetLevel(tenantID string, branchID, productID uint) (*models.StockLevel, error)
	SetLevel(tenantID string, branchID, productID uint, newStock decimal.Decimal, movementAt time.Time) error
	CreateMovement(movement *models.StockMovement) error
	HasMovementsForOrder(tenantID string, orderID uint) (bool, error)
	GetLowStock(tenantID string, limit int) ([]LowStockAlert, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

// GetLevel returns nil when no level row exists yet; callers treat that as
// zero stock.
func (r *stockRepository) GetLevel(tenantID string, branchID, productID uint) (*models.StockLevel, error) {
	var level models.StockLevel
	err := r.db.Where("tenant_id = ? AND branch_id = ? AND product_id = ?", tenantID, branchID, productID).
		First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

func (r *stockRepository) SetLevel(tenantID string, branchID, productID uint, newStock decimal.Decimal, movementAt time.Time) error {
	level := models.StockLevel{
		TenantID:  tenantID,
		BranchID:  branchID,
		ProductID: productID,
	}
	err := r.db.Where("tenant_id = ? AND branch_id = ? AND product_id = ?", tenantID, branchID, productID).
		FirstOrCreate(&level).Error
	if err != nil {
		return err
	}

	return r.db.Model(&models.StockLevel{}).
		Where("id = ?", level.ID).
		Updates(map[string]interface{}{
			"current_stock":    newStock,
			"last_movement_at": movementAt,
		}).Error
}

func (r *stockRepository) CreateMovement(movement *models.StockMovement) error {
	return r.db.Create(movement).Error
}

// HasMovementsForOrder reports whether any sale movement already references
// the order. The deduction path uses it to keep a repeated call from
// deducting the same order twice.
func (r *stockRepository) HasMovementsForOrder(tenantID string, orderID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.StockMovement{}).
		Where("tenant_id = ? AND movement_type = ? AND reference_type = ? AND reference_id = ?",
			tenantID, models.MovementSaleOut, models.StockRefOrder, orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *stockRepository) GetLowStock(tenantID string, limit int) ([]LowStockAlert, error) {
	var alerts []LowStockAlert
	err := r.db.Raw(`
		SELECT p.id AS product_id, p.name AS product_name, s.branch_id,
		       s.current_stock, p.reorder_level
		FROM stock_levels s
		JOIN products p ON p.id = s.product_id AND p.tenant_id = s.tenant_id
		WHERE s.tenant_id = ?
		  AND p.is_inventory_tracked = ?
		  AND p.deleted_at IS NULL
		  AND s.current_stock <= p.reorder_level
		ORDER BY s.current_stock ASC
		LIMIT ?`, tenantID, true, limit).
		Scan(&alerts).Error
	return alerts, err
}
