package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gabrielpaulo/atrium-booking/internal/domain"
)

// Cache holds the redis client shared by the advisory slot locks, the
// idempotency store and the rate limiter.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func slotLockKey(resourceID string, iv domain.Interval) string {
	return fmt.Sprintf("slotlock:%s:%s:%d-%d", resourceID, iv.Date.Format("2006-01-02"), iv.Start, iv.End)
}

// AcquireSlotLock takes an advisory SetNX lock on a resource interval so
// competing hold requests fail fast before reaching the database. The
// transactional store, not this lock, is the correctness mechanism.
func (c *Cache) AcquireSlotLock(ctx context.Context, resourceID string, iv domain.Interval, holderID string, ttl time.Duration) (bool, error) {
	res := c.client.SetNX(ctx, slotLockKey(resourceID, iv), holderID, ttl)
	return res.Val(), res.Err()
}

// ReleaseSlotLock drops the advisory lock, called after release, confirm or
// hold expiry. Best effort; a leftover lock falls off with its TTL.
func (c *Cache) ReleaseSlotLock(ctx context.Context, resourceID string, iv domain.Interval) error {
	return c.client.Del(ctx, slotLockKey(resourceID, iv)).Err()
}

// SlotLockHolder reports who owns the advisory lock, empty when unheld.
func (c *Cache) SlotLockHolder(ctx context.Context, resourceID string, iv domain.Interval) (string, error) {
	val, err := c.client.Get(ctx, slotLockKey(resourceID, iv)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
