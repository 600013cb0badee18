package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/cartloom/marketplace/backend/pkg/errors"
)

type SearchAnalyticsAdapter struct {
	client *postgres.Client
}

func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{client: client}
}

func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO search_analytics
		(id, session_id, query, processed_query, intent, result_count, latency_ms, personalized, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		event.Query,
		event.ProcessedQuery,
		event.Intent,
		event.ResultCount,
		event.LatencyMs,
		event.Personalized,
		event.CreatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}

	return nil
}

func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, session_id, query, processed_query, intent, result_count, latency_ms, personalized, created_at
		FROM search_analytics
		WHERE result_count = 0
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		e := &entities.SearchEvent{}
		err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.Query,
			&e.ProcessedQuery,
			&e.Intent,
			&e.ResultCount,
			&e.LatencyMs,
			&e.Personalized,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read search events", err)
	}

	return events, nil
}

func (a *SearchAnalyticsAdapter) GetTopQueries(ctx context.Context, since time.Time, limit int) ([]*entities.QueryFrequency, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT query, COUNT(*) AS hits
		FROM search_analytics
		WHERE created_at >= $1
		GROUP BY query
		ORDER BY hits DESC
		LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get top queries", err)
	}
	defer rows.Close()

	var frequencies []*entities.QueryFrequency
	for rows.Next() {
		f := &entities.QueryFrequency{}
		if err := rows.Scan(&f.Query, &f.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan query frequency", err)
		}
		frequencies = append(frequencies, f)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read query frequencies", err)
	}

	return frequencies, nil
}
