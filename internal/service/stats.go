package service

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"github.com/iliyamo/resolvenow/internal/model"
)

// Summarize turns per-rating counts into the statistics document.  The mean
// is rounded half away from zero to one decimal place.  No counts yields a
// zero document with an empty distribution.
func Summarize(counts map[int]int) model.FeedbackStats {
	stats := model.FeedbackStats{RatingDistribution: map[string]int{}}
	sum := 0
	for rating, n := range counts {
		if n <= 0 {
			continue
		}
		stats.RatingDistribution[strconv.Itoa(rating)] = n
		stats.TotalFeedback += n
		sum += rating * n
	}
	if stats.TotalFeedback == 0 {
		return stats
	}
	mean := float64(sum) / float64(stats.TotalFeedback)
	stats.AverageRating = math.Round(mean*10) / 10
	return stats
}

// RatingCounter is the storage query behind the statistics.
type RatingCounter interface {
	RatingCounts(ctx context.Context) (map[int]int, error)
}

// StatsCacher is satisfied by repository.StatsCache.
type StatsCacher interface {
	Get(ctx context.Context) (*model.FeedbackStats, bool, error)
	Set(ctx context.Context, stats *model.FeedbackStats) error
	Invalidate(ctx context.Context) error
}

// StatsService computes statistics over all feedback, reading through an
// optional cache.  Cache failures are logged and never fail the request.
type StatsService struct {
	counter RatingCounter
	cache   StatsCacher
	log     *slog.Logger
}

func NewStatsService(counter RatingCounter, cache StatsCacher, log *slog.Logger) *StatsService {
	if log == nil {
		log = slog.Default()
	}
	return &StatsService{counter: counter, cache: cache, log: log}
}

// Stats returns the current statistics.
func (s *StatsService) Stats(ctx context.Context) (*model.FeedbackStats, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("stats cache read failed", "error", err)
		}
		if ok {
			return cached, nil
		}
	}
	counts, err := s.counter.RatingCounts(ctx)
	if err != nil {
		return nil, err
	}
	stats := Summarize(counts)
	if s.cache != nil {
		if err := s.cache.Set(ctx, &stats); err != nil {
			s.log.Warn("stats cache write failed", "error", err)
		}
	}
	return &stats, nil
}

// Invalidate drops cached statistics after a write.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidation failed", "error", err)
	}
}
