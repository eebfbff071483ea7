package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/repositories"
)

// statusCountsKey is the cache key for the aggregated status counts.
const statusCountsKey = "sos:count"

// Cache is the subset of redis commands the stats service needs. Keeping it
// narrow lets tests substitute miniredis or a stub.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// StatsService reports aggregate request counts, served cache-aside so the
// dashboard poll does not hammer the store.
type StatsService interface {
	CountByStatus(ctx context.Context) (*models.StatusCounts, error)
	InvalidateCounts(ctx context.Context)
}

type statsService struct {
	sosRepo repositories.SosRepository
	cache   Cache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewStatsService creates a new stats service. cache may be nil, in which
// case every read goes to the store.
func NewStatsService(sosRepo repositories.SosRepository, cache Cache, ttl time.Duration, logger *zap.Logger) StatsService {
	return &statsService{
		sosRepo: sosRepo,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.Named("stats"),
	}
}

func (s *statsService) CountByStatus(ctx context.Context) (*models.StatusCounts, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, statusCountsKey).Result()
		if err == nil {
			var counts models.StatusCounts
			if jsonErr := json.Unmarshal([]byte(raw), &counts); jsonErr == nil {
				return &counts, nil
			}
			// A corrupt entry falls through to the store and gets rewritten.
		} else if err != redis.Nil {
			s.logger.Warn("Cache read failed, falling back to store", zap.Error(err))
		}
	}

	counts, err := s.sosRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests by status: %w", err)
	}

	if s.cache != nil {
		payload, _ := json.Marshal(counts)
		if err := s.cache.Set(ctx, statusCountsKey, payload, s.ttl).Err(); err != nil {
			s.logger.Warn("Cache write failed", zap.Error(err))
		}
	}
	return counts, nil
}

// InvalidateCounts drops the cached counts after a lifecycle mutation so the
// next read reflects the new state instead of waiting out the TTL.
func (s *statsService) InvalidateCounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statusCountsKey).Err(); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
}

var _ StatsService = (*statsService)(nil)
