package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
)

const (
	warmingQueryLimit  = 50
	warmingQueryWindow = 24 * time.Hour
)

// queryInterpreter is the slice of QueryUnderstandingService the warmer
// needs. ProcessQuery caches its own result, so warming a query is just
// running it through the pipeline.
type queryInterpreter interface {
	ProcessQuery(query string) *entities.ProcessedQuery
}

// CacheWarmingService keeps interpretations of the most frequent
// queries warm so popular searches skip the NLP pipeline.
type CacheWarmingService struct {
	analytics   repositories.SearchAnalyticsRepository
	interpreter queryInterpreter
	logger      *zerolog.Logger
}

// NewCacheWarmingService creates a new cache warming service.
func NewCacheWarmingService(
	analytics repositories.SearchAnalyticsRepository,
	interpreter queryInterpreter,
	logger *zerolog.Logger,
) *CacheWarmingService {
	return &CacheWarmingService{
		analytics:   analytics,
		interpreter: interpreter,
		logger:      logger,
	}
}

// WarmCache re-interprets the most searched queries of the last day.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	since := time.Now().Add(-warmingQueryWindow)
	frequencies, err := s.analytics.GetTopQueries(ctx, since, warmingQueryLimit)
	if err != nil {
		return err
	}

	for _, f := range frequencies {
		s.interpreter.ProcessQuery(f.Query)
	}

	s.logger.Debug().Int("queries", len(frequencies)).Msg("warmed query interpretation cache")
	return nil
}

// StartPeriodicWarming warms once immediately, then on every tick until
// the context is canceled.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("stopping cache warming")
			return
		case <-ticker.C:
			if err := s.WarmCache(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("periodic cache warming failed")
			}
		}
	}
}
