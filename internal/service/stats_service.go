package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/psychotest-app/psychotest-api/internal/models"
	"github.com/psychotest-app/psychotest-api/internal/scoring"
	appErrors "github.com/psychotest-app/psychotest-api/pkg/errors"
)

type statsResultRepository interface {
	FindSince(ctx context.Context, since time.Time) ([]models.TestResult, error)
}

const (
	rangeWeek  = "7d"
	rangeMonth = "30d"
	rangeAll   = "all"
)

// StatsService aggregates result sets into category and summary reports.
// Both reports are recomputed per request; redis only shortcuts the repeat
// lookups within the configured TTL.
type StatsService struct {
	repo     statsResultRepository
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(repo statsResultRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &StatsService{repo: repo, cache: cache, logger: logger, cacheTTL: cacheTTL, now: time.Now}
}

// CategoryStats buckets results by type and category within the optional
// time window. The boolean reports cache utilisation.
func (s *StatsService) CategoryStats(ctx context.Context, rng string) (models.CategoryStats, bool, error) {
	normalized := normalizeRange(rng)
	cacheKey := fmt.Sprintf("stats:categories:%s", normalized)

	var cached models.CategoryStats
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	results, err := s.repo.FindSince(ctx, s.windowStart(normalized))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load results for stats")
	}

	stats := aggregateCategories(results)

	if err := s.cache.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache category stats", zap.Error(err))
	}
	return stats, false, nil
}

// Summary computes the coarse dashboard counters over all results.
func (s *StatsService) Summary(ctx context.Context) (*models.SummaryStats, bool, error) {
	const cacheKey = "stats:summary"

	var cached models.SummaryStats
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	results, err := s.repo.FindSince(ctx, time.Time{})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load results for summary")
	}

	summary := summarize(results)

	if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache summary stats", zap.Error(err))
	}
	return summary, false, nil
}

// windowStart converts a normalized range into the inclusive lower bound for
// createdAt. A zero time means no window.
func (s *StatsService) windowStart(normalized string) time.Time {
	switch normalized {
	case rangeWeek:
		return s.now().Add(-7 * 24 * time.Hour)
	case rangeMonth:
		return s.now().Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// normalizeRange keeps only the two recognised windows; anything else,
// including an empty value, means no filter.
func normalizeRange(rng string) string {
	switch rng {
	case rangeWeek, rangeMonth:
		return rng
	default:
		return rangeAll
	}
}

func aggregateCategories(results []models.TestResult) models.CategoryStats {
	stats := models.CategoryStats{}
	for _, r := range results {
		byCategory, ok := stats[r.Type]
		if !ok {
			byCategory = map[string]int{}
			stats[r.Type] = byCategory
		}
		byCategory[r.Category]++
	}
	return stats
}

func summarize(results []models.TestResult) *models.SummaryStats {
	summary := &models.SummaryStats{TotalTests: len(results)}
	owners := make(map[string]struct{}, len(results))
	for _, r := range results {
		owners[r.UserID] = struct{}{}
		switch r.Type {
		case scoring.TypePhillips:
			if strings.Contains(r.Category, "высокая") {
				summary.HighAnxiety++
			}
		case scoring.TypeOlweus:
			if r.Category != scoring.CategoryWeak {
				summary.BullyingCases++
			}
		}
	}
	summary.UniqueStudents = len(owners)
	return summary
}
