package services

import (
	"context"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SearchAnalyticsService records search events for offline analysis of
// query quality and personalization lift. Recording is fire and forget:
// it must never add latency or failures to the search path.
type SearchAnalyticsService struct {
	repo   repositories.SearchAnalyticsRepository
	logger *zerolog.Logger
}

// NewSearchAnalyticsService creates a new search analytics service.
func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository, logger *zerolog.Logger) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo, logger: logger}
}

// RecordSearch logs a search event in the background. The write runs
// on a fresh context so it survives the request context being
// canceled once the response is sent.
func (s *SearchAnalyticsService) RecordSearch(event *entities.SearchEvent) {
	if s.repo == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			s.logger.Error().Err(err).Str("query", event.Query).
				Msg("failed to record search event")
		}
	}()
}

// GetZeroResultQueries returns recent searches that found nothing,
// newest first. These drive synonym and catalog-gap curation.
func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetZeroResultQueries(ctx, limit)
}

// GetTopQueries returns the most frequent queries within the window.
func (s *SearchAnalyticsService) GetTopQueries(ctx context.Context, window time.Duration, limit int) ([]*entities.QueryFrequency, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.GetTopQueries(ctx, time.Now().Add(-window), limit)
}
