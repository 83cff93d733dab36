package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty_engine/internal/models"
	"loyalty_engine/internal/redis"
	"loyalty_engine/internal/repository"
	"loyalty_engine/pkg/notify"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Fixed warning threshold for the deduction path. Tenant-configurable reorder
// levels are consulted only by the low-stock query.
var lowStockWarnThreshold = decimal.NewFromInt(5)

// ErrStockDeductionInProgress means another invocation holds the per-order
// deduction lock. Callers should surface it as a retryable conflict.
var ErrStockDeductionInProgress = errors.New("another deduction is already processing this order")

type DeductionResult struct {
	Notes []string `json:"notes"`
}

type InventoryService interface {
	ApplyStockDeduction(ctx context.Context, tenantID string, orderID, userID uint) (*DeductionResult, error)
	GetLowStockAlerts(tenantID string, limit int) ([]repository.LowStockAlert, error)
}

type inventoryService struct {
	db       *gorm.DB
	redis    *redis.Client
	lockTTL  time.Duration
	notifier *notify.Client
	logger   *logrus.Logger
}

// NewInventoryService builds the stock deduction engine. redisClient may be
// nil (unit tests); locking is skipped in that case. notifier may be nil;
// low-stock webhooks are skipped in that case.
func NewInventoryService(db *gorm.DB, redisClient *redis.Client, lockTTL time.Duration, notifier *notify.Client, logger *logrus.Logger) InventoryService {
	return &inventoryService{db: db, redis: redisClient, lockTTL: lockTTL, notifier: notifier, logger: logger}
}

// ApplyStockDeduction decrements per-branch stock for every inventory-tracked
// line item of a closed order. Deduction is best-effort per line item: a
// failure on one item becomes a warning and the remaining items still deduct.
// This runs independently of the reward path and does not require an
// identifiable customer.
func (s *inventoryService) ApplyStockDeduction(ctx context.Context, tenantID string, orderID, userID uint) (*DeductionResult, error) {
	// Serialize concurrent deductions of the same order before any stock read.
	if s.redis != nil {
		lockKey := fmt.Sprintf("stock-deduct:%s:%d", tenantID, orderID)
		lock, err := s.redis.ObtainLock(ctx, lockKey, s.lockTTL)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrStockDeductionInProgress
		} else if err != nil {
			return nil, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	}

	result := &DeductionResult{Notes: []string{}}

	order, err := repository.NewOrderRepository(s.db).GetByID(tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("stock deduction error: %w", err)
	}
	if order == nil {
		result.Notes = append(result.Notes, fmt.Sprintf("order %d not found for tenant, no stock deducted", orderID))
		return result, nil
	}
	if order.Status != string(models.OrderClosed) {
		result.Notes = append(result.Notes, fmt.Sprintf("order %s is not closed (status: %s), no stock deducted", order.OrderNumber, order.Status))
		return result, nil
	}

	// An order deducts at most once. Sale movements reference the order, so
	// their presence marks it as already processed; a repeat call (retried
	// job, double-submitted close) is a reported no-op.
	deducted, err := repository.NewStockRepository(s.db).HasMovementsForOrder(tenantID, orderID)
	if err != nil {
		return nil, fmt.Errorf("stock deduction error: %w", err)
	}
	if deducted {
		result.Notes = append(result.Notes, fmt.Sprintf("stock already deducted for order %s, nothing deducted", order.OrderNumber))
		return result, nil
	}

	var warned bool
	for _, item := range order.LineItems {
		warnings, err := s.deductLineItem(ctx, order, item, userID)
		if err != nil {
			// One bad product row must not block the rest of the order.
			s.logger.WithFields(logrus.Fields{
				"tenant_id":  tenantID,
				"order_id":   orderID,
				"product_id": item.ProductID,
			}).WithError(err).Warn("line item stock deduction failed")
			result.Notes = append(result.Notes, fmt.Sprintf("failed to deduct product %d: %v", item.ProductID, err))
			continue
		}
		if len(warnings) > 0 {
			warned = true
			result.Notes = append(result.Notes, warnings...)
		}
	}

	// Webhook push happens after all deductions committed; it is advisory
	// and never fails the deduction.
	if warned && s.notifier != nil {
		if err := s.notifier.SendLowStockAlert(ctx, tenantID, order.OrderNumber, result.Notes); err != nil {
			s.logger.WithError(err).Warn("low stock webhook delivery failed")
		}
	}

	return result, nil
}

// deductLineItem runs in its own transaction so a mid-item failure rolls back
// only that item's level update and movement row.
func (s *inventoryService) deductLineItem(ctx context.Context, order *models.Order, item models.OrderLineItem, userID uint) ([]string, error) {
	var warnings []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := repository.NewProductRepository(tx).GetByID(order.TenantID, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsInventoryTracked || !product.IsActive {
			return nil
		}

		stockRepo := repository.NewStockRepository(tx)

		currentStock := decimal.Zero
		level, err := stockRepo.GetLevel(order.TenantID, order.BranchID, item.ProductID)
		if err != nil {
			return err
		}
		if level != nil {
			currentStock = level.CurrentStock
		}

		newStock := currentStock.Sub(item.Quantity)
		now := time.Now()

		if err := stockRepo.SetLevel(order.TenantID, order.BranchID, item.ProductID, newStock, now); err != nil {
			return err
		}

		movement := &models.StockMovement{
			TenantID:       order.TenantID,
			BranchID:       order.BranchID,
			ProductID:      item.ProductID,
			MovementType:   models.MovementSaleOut,
			Quantity:       item.Quantity,
			QuantityBefore: currentStock,
			QuantityAfter:  newStock,
			ReferenceType:  models.StockRefOrder,
			ReferenceID:    order.ID,
			CreatedBy:      userID,
		}
		if err := stockRepo.CreateMovement(movement); err != nil {
			return err
		}

		if !newStock.IsPositive() {
			warnings = append(warnings, fmt.Sprintf("%s is out of stock (%s left)", product.Name, newStock.String()))
		} else if newStock.LessThan(lowStockWarnThreshold) {
			warnings = append(warnings, fmt.Sprintf("%s is running low (%s left)", product.Name, newStock.String()))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return warnings, nil
}

func (s *inventoryService) GetLowStockAlerts(tenantID string, limit int) ([]repository.LowStockAlert, error) {
	if limit <= 0 {
		limit = 20
	}
	return repository.NewStockRepository(s.db).GetLowStock(tenantID, limit)
}
