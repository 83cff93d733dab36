package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loyalty_engine/internal/models"
	"loyalty_engine/internal/redis"
	"loyalty_engine/internal/repository"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrOrderCloseInProgress means another invocation holds the per-order lock.
// Callers should surface it as a retryable conflict, not reprocess.
var ErrOrderCloseInProgress = errors.New("another close is already processing this order")

type AppliedFlags struct {
	Cashback bool `json:"cashback"`
	Points   bool `json:"points"`
	Stamp    bool `json:"stamp"`
}

type ApplicationResult struct {
	Applied AppliedFlags `json:"applied"`
	Notes   []string     `json:"notes"`
}

func (r *ApplicationResult) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

type RewardService interface {
	ApplyOnOrderClosed(ctx context.Context, tenantID string, orderID uint) (*ApplicationResult, error)
}

type rewardService struct {
	db      *gorm.DB
	redis   *redis.Client
	lockTTL time.Duration
	logger  *logrus.Logger
}

// NewRewardService builds the order-close reward engine. redisClient may be
// nil (unit tests); locking is skipped in that case.
func NewRewardService(db *gorm.DB, redisClient *redis.Client, lockTTL time.Duration, logger *logrus.Logger) RewardService {
	return &rewardService{db: db, redis: redisClient, lockTTL: lockTTL, logger: logger}
}

// ApplyOnOrderClosed computes and records cashback, points and stamps for one
// closed order inside a single transaction. Engines run in fixed order:
// cashback first, because redemption shrinks the basis points are earned on;
// stamps last, ignoring the basis entirely. Precondition misses (missing
// order, not closed, no identifiable customer) are reported no-ops.
func (s *rewardService) ApplyOnOrderClosed(ctx context.Context, tenantID string, orderID uint) (*ApplicationResult, error) {
	// Serialize concurrent closes of the same order before any ledger read.
	if s.redis != nil {
		lockKey := fmt.Sprintf("order-close:%s:%d", tenantID, orderID)
		lock, err := s.redis.ObtainLock(ctx, lockKey, s.lockTTL)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrOrderCloseInProgress
		} else if err != nil {
			return nil, err
		}
		defer func() {
			_ = lock.Release(ctx)
		}()
	}

	result := &ApplicationResult{Notes: []string{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderRepo := repository.NewOrderRepository(tx)

		order, err := orderRepo.GetByID(tenantID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			result.note("order %d not found for tenant", orderID)
			return nil
		}
		if order.Status != string(models.OrderClosed) {
			result.note("order %s is not closed (status: %s), nothing applied", order.OrderNumber, order.Status)
			return nil
		}
		if !order.HasIdentifiableCustomer() {
			result.note("order %s has no identifiable customer, rewards skipped", order.OrderNumber)
			return nil
		}

		programs, err := repository.NewProgramRepository(tx).GetActivePrograms(tenantID)
		if err != nil {
			return err
		}
		set := ResolvePrograms(programs)

		customerID := *order.CustomerID
		basis := order.BillBasis()
		now := time.Now()

		if set.Cashback != nil {
			basis, err = s.applyCashback(tx, set.Cashback, order, customerID, basis, now, result)
			if err != nil {
				return err
			}
		}
		if set.Points != nil {
			if err := s.applyPoints(tx, set.Points, order, customerID, basis, result); err != nil {
				return err
			}
		}
		if set.Stamp != nil {
			if err := s.applyStamp(tx, set.Stamp, order, customerID, result); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"order_id":  orderID,
		}).WithError(err).Error("order close reward processing failed")
		return nil, fmt.Errorf("reward processing error: %w", err)
	}

	return result, nil
}
