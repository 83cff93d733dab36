package worker

import (
	"context"
	"errors"
	"time"

	"loyalty_engine/internal/redis"
	"loyalty_engine/internal/services"

	"github.com/sirupsen/logrus"
)

// Processor consumes process_order jobs and runs the reward application and
// stock deduction for each. It does not retry failed jobs itself; retry
// policy belongs to the enqueueing side because the reward call is only safe
// to repeat under the per-order lock.
type Processor struct {
	redisClient      *redis.Client
	queue            string
	rewardService    services.RewardService
	inventoryService services.InventoryService
	logger           *logrus.Logger
}

func NewProcessor(
	redisClient *redis.Client,
	queue string,
	rewardService services.RewardService,
	inventoryService services.InventoryService,
	logger *logrus.Logger,
) *Processor {
	return &Processor{
		redisClient:      redisClient,
		queue:            queue,
		rewardService:    rewardService,
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// Start blocks until ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	p.logger.WithField("queue", p.queue).Info("order processing worker started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("order processing worker stopped")
			return
		default:
		}

		job, err := p.redisClient.PopProcessOrder(ctx, p.queue, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.WithError(err).Error("failed to pop job from queue")
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		p.processJob(ctx, job)
	}
}

func (p *Processor) processJob(ctx context.Context, job *redis.ProcessOrderJob) {
	fields := logrus.Fields{
		"tenant_id": job.TenantID,
		"order_id":  job.OrderID,
	}

	result, err := p.rewardService.ApplyOnOrderClosed(ctx, job.TenantID, job.OrderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderCloseInProgress) {
			// Another worker holds this order's close; it runs the stock
			// deduction too, so touching stock here would double-apply.
			p.logger.WithFields(fields).Info("order close already in progress, skipping job")
			return
		}
		p.logger.WithFields(fields).WithError(err).Error("reward application failed")
	} else {
		p.logger.WithFields(fields).WithFields(logrus.Fields{
			"applied": result.Applied,
			"notes":   result.Notes,
		}).Info("rewards applied")
	}

	deduction, err := p.inventoryService.ApplyStockDeduction(ctx, job.TenantID, job.OrderID, job.UserID)
	if err != nil {
		if errors.Is(err, services.ErrStockDeductionInProgress) {
			p.logger.WithFields(fields).Info("stock deduction already in progress, skipping")
			return
		}
		p.logger.WithFields(fields).WithError(err).Error("stock deduction failed")
		return
	}
	p.logger.WithFields(fields).WithField("notes", deduction.Notes).Info("stock deducted")
}
