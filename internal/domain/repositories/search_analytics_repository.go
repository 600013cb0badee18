package repositories

import (
	"context"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

// SearchAnalyticsRepository persists search events for offline
// analysis.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
	GetTopQueries(ctx context.Context, since time.Time, limit int) ([]*entities.QueryFrequency, error)
}
