package plan

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/munitax/fraccionamiento/pkg/models"
)

const statisticsCacheKey = "fraccionamiento:estadisticas"

// Statistics returns the plans-by-status projection, served from the cache
// when one is configured. Lifecycle mutations invalidate the cached copy.
func (s *Service) Statistics(ctx context.Context) ([]models.StatusStatistic, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, statisticsCacheKey); ok {
			var stats []models.StatusStatistic
			if err := json.Unmarshal([]byte(raw), &stats); err == nil {
				return stats, nil
			}
			// A corrupt cache entry falls through to the store.
			s.invalidateStatistics(ctx)
		}
	}

	stats, err := s.storage.PlanStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statisticsCacheKey, string(raw)); err != nil {
				slog.Warn("failed to cache statistics", "error", err)
			}
		}
	}
	return stats, nil
}

func (s *Service) invalidateStatistics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statisticsCacheKey); err != nil {
		slog.Warn("failed to invalidate statistics cache", "error", err)
	}
}
