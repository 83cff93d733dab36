package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	rdb    *redis.Client
	locker *redislock.Client
}

// ProcessOrderJob is the payload the order subsystem enqueues when an order
// reaches closed status.
type ProcessOrderJob struct {
	TenantID string    `json:"tenant_id"`
	OrderID  uint      `json:"order_id"`
	UserID   uint      `json:"user_id"`
	QueuedAt time.Time `json:"queued_at"`
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, locker: redislock.New(rdb)}, nil
}

// ObtainLock takes a best-effort distributed lock. ErrNotObtained is returned
// unwrapped so callers can distinguish contention from infrastructure errors.
func (c *Client) ObtainLock(ctx context.Context, key string, ttl time.Duration) (*redislock.Lock, error) {
	lock, err := c.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, err
	} else if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return lock, nil
}

// Job queue
func (c *Client) EnqueueProcessOrder(ctx context.Context, queue string, job *ProcessOrderJob) error {
	jsonData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return c.rdb.LPush(ctx, queue, jsonData).Err()
}

// PopProcessOrder blocks up to timeout waiting for a job. Returns nil with no
// error when the queue stays empty.
func (c *Client) PopProcessOrder(ctx context.Context, queue string, timeout time.Duration) (*ProcessOrderJob, error) {
	vals, err := c.rdb.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}
	if len(vals) < 2 {
		return nil, nil
	}

	var job ProcessOrderJob
	if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
