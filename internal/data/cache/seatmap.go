// Package cache holds the Redis-backed read caches. Only derived data
// lives here; the reservation engine stays authoritative and every
// seat-state transition invalidates the affected entry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const seatMapKeyFormat = "seatmap:%s"

// SeatMapCache caches the rendered seat map of a showtime.
type SeatMapCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewSeatMapCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *SeatMapCache {
	return &SeatMapCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With(zap.String("cache", "seatmap")),
	}
}

func seatMapKey(showtimeID uuid.UUID) string {
	return fmt.Sprintf(seatMapKeyFormat, showtimeID.String())
}

// Get unmarshals the cached seat map into dest. The second return is
// false on a miss; Redis errors are logged and treated as misses so a
// cache outage degrades to database reads.
func (c *SeatMapCache) Get(ctx context.Context, showtimeID uuid.UUID, dest any) (bool, error) {
	raw, err := c.rdb.Get(ctx, seatMapKey(showtimeID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.log.Warn("Seat map cache read failed",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return false, nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// Poisoned entry; drop it and fall through to the source.
		_ = c.rdb.Del(ctx, seatMapKey(showtimeID)).Err()
		return false, nil
	}
	return true, nil
}

// Set stores the seat map with the configured TTL.
func (c *SeatMapCache) Set(ctx context.Context, showtimeID uuid.UUID, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal seat map: %w", err)
	}

	if err := c.rdb.Set(ctx, seatMapKey(showtimeID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Seat map cache write failed",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return err
	}
	return nil
}

// Invalidate drops the cached seat map after a seat-state transition.
func (c *SeatMapCache) Invalidate(ctx context.Context, showtimeID uuid.UUID) {
	if err := c.rdb.Del(ctx, seatMapKey(showtimeID)).Err(); err != nil {
		c.log.Warn("Seat map cache invalidation failed",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
	}
}
