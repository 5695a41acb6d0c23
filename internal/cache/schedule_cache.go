package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reboucasericka/sistema-api/internal/model"
)

// ScheduleCache keeps professional weekly schedules in Redis. Availability
// lookups hit the schedule on every slot computation; the cache is
// best-effort and the database stays the source of truth.
type ScheduleCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

func NewScheduleCache(client *redis.Client, logger *slog.Logger, ttl time.Duration) *ScheduleCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScheduleCache{client: client, logger: logger, ttl: ttl}
}

func scheduleKey(professionalID string) string {
	return "schedule:" + professionalID
}

// Get returns the cached schedule and whether it was present. Redis errors
// are logged and reported as a miss.
func (c *ScheduleCache) Get(ctx context.Context, professionalID string) ([]model.ScheduleWindow, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, scheduleKey(professionalID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("schedule cache get failed", "professional_id", professionalID, "err", err)
		}
		return nil, false
	}
	var windows []model.ScheduleWindow
	if err := json.Unmarshal(raw, &windows); err != nil {
		c.logger.Warn("schedule cache entry corrupt, dropping", "professional_id", professionalID, "err", err)
		_ = c.client.Del(ctx, scheduleKey(professionalID)).Err()
		return nil, false
	}
	return windows, true
}

func (c *ScheduleCache) Set(ctx context.Context, professionalID string, windows []model.ScheduleWindow) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(windows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, scheduleKey(professionalID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("schedule cache set failed", "professional_id", professionalID, "err", err)
	}
}

// Invalidate removes the cached schedule after a write.
func (c *ScheduleCache) Invalidate(ctx context.Context, professionalID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, scheduleKey(professionalID)).Err(); err != nil {
		c.logger.Warn("schedule cache invalidate failed", "professional_id", professionalID, "err", err)
	}
}
