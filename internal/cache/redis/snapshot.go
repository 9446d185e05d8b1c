package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glynfinck/trading/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache: the latest tick outcome per
// detector is published under a fixed key for dashboards and health checks to
// read, expiring if the detector stops refreshing it.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

// Put stores payload under key with the given TTL; a zero TTL keeps the key
// until the next overwrite.
func (sc *SnapshotCache) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := sc.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: put snapshot %s: %w", key, err)
	}
	return nil
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)
