package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"bookline/backend/internal/domain"
)

const (
	slotsKeyPrefix  = "bookline:availability:"
	defaultSlotsTTL = 60 * time.Second
)

// AvailabilityCache fronts the per-day available-slot query with Redis. Reads
// fall back to the database on any cache error; staleness is bounded by the TTL
// plus explicit invalidation on every mutation of a day.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = defaultSlotsTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &AvailabilityCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With(slog.String("component", "cache.availability")),
	}
}

func slotsKey(date time.Time) string {
	return slotsKeyPrefix + domain.DateOf(date).Format("2006-01-02")
}

func (c *AvailabilityCache) GetSlots(ctx context.Context, date time.Time) ([]domain.TimeSlot, bool) {
	raw, err := c.rdb.Get(ctx, slotsKey(date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", slog.Any("err", err))
		}
		return nil, false
	}
	var slots []domain.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.log.Warn("cache entry corrupt, dropping", slog.Any("err", err))
		c.rdb.Del(ctx, slotsKey(date))
		return nil, false
	}
	return slots, true
}

func (c *AvailabilityCache) SetSlots(ctx context.Context, date time.Time, slots []domain.TimeSlot) {
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, slotsKey(date), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", slog.Any("err", err))
	}
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, date time.Time) {
	if err := c.rdb.Del(ctx, slotsKey(date)).Err(); err != nil {
		c.log.Warn("cache invalidation failed", slog.Any("err", err))
	}
}
