package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/resolvenow/internal/config"
	"github.com/iliyamo/resolvenow/internal/model"
)

// StatsCache keeps the last computed feedback statistics in Redis.  A nil
// client or a disabled config turns every method into a no-op miss.
type StatsCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewStatsCache(cfg config.StatsCacheConfig, rdb *redis.Client) *StatsCache {
	if !cfg.Enabled {
		rdb = nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatsCache{rdb: rdb, key: cfg.Key(), ttl: ttl}
}

// Get returns the cached statistics.  ok is false on a miss or any Redis
// error; callers fall back to the database.
func (s *StatsCache) Get(ctx context.Context) (stats *model.FeedbackStats, ok bool, err error) {
	if s == nil || s.rdb == nil {
		return nil, false, nil
	}
	bs, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var out model.FeedbackStats
	if err := json.Unmarshal(bs, &out); err != nil {
		return nil, false, err
	}
	return &out, true, nil
}

// Set stores stats for the configured TTL.
func (s *StatsCache) Set(ctx context.Context, stats *model.FeedbackStats) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	bs, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, s.key, bs, s.ttl).Err()
}

// Invalidate drops the cached document.
func (s *StatsCache) Invalidate(ctx context.Context) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.key).Err()
}
