// contest/store/accrual_lock.go
package store

import (
	"context"
	"fmt"
	"time"

	redisu "github.com/campusgo/go-services/shared/redis"
	"github.com/redis/go-redis/v9"
)

// AccrualLockStore manages the cycle-in-progress flag for the points accrual
// cycle in Redis. The TTL keeps a crashed holder from wedging the lock: at
// worst one period passes before the next cycle can run.
type AccrualLockStore struct {
	redisClient *redis.ClusterClient
	lockTTL     time.Duration
}

// NewAccrualLockStore creates a new AccrualLockStore. lockTTL should be at
// least the accrual cycle period.
func NewAccrualLockStore(redisClient *redis.ClusterClient, lockTTL time.Duration) *AccrualLockStore {
	return &AccrualLockStore{
		redisClient: redisClient,
		lockTTL:     lockTTL,
	}
}

// TryAcquire attempts to take the cycle lock. It returns false without error
// when another cycle currently holds it.
func (als *AccrualLockStore) TryAcquire(ctx context.Context, holderID string) (bool, error) {
	ok, err := als.redisClient.SetNX(ctx, redisu.AccrualCycleLockKey, holderID, als.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire accrual cycle lock: %w", err)
	}
	return ok, nil
}

// Release frees the cycle lock if this holder still owns it. A lock that
// already expired or was taken over is left alone.
func (als *AccrualLockStore) Release(ctx context.Context, holderID string) error {
	val, err := als.redisClient.Get(ctx, redisu.AccrualCycleLockKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read accrual cycle lock for release: %w", err)
	}
	if val != holderID {
		return nil
	}
	if _, err := als.redisClient.Del(ctx, redisu.AccrualCycleLockKey).Result(); err != nil {
		return fmt.Errorf("failed to release accrual cycle lock: %w", err)
	}
	return nil
}
