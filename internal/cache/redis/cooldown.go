package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glynfinck/trading/internal/domain"
)

// Cooldown implements domain.AlertCooldown using SETNX with a TTL: the first
// caller to claim a key within the window wins, repeats are suppressed until
// the key expires. The key is left to expire naturally so an opportunity that
// stays open across ticks produces one alert per window, not one per tick.
type Cooldown struct {
	rdb *redis.Client
}

// NewCooldown creates a Cooldown backed by the given Client.
func NewCooldown(c *Client) *Cooldown {
	return &Cooldown{rdb: c.Underlying()}
}

// Acquire reports whether the caller holds the cooldown for key and should
// alert now.
func (cd *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := cd.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire cooldown %s: %w", key, err)
	}
	return ok, nil
}

var _ domain.AlertCooldown = (*Cooldown)(nil)
