package database

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/cartloom/marketplace/backend/pkg/errors"
)

// SessionAdapter implements session persistence in Postgres.
type SessionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSessionAdapter creates a new session adapter.
func NewSessionAdapter(client *postgres.Client) repositories.SessionRepository {
	return &SessionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// FindBySessionID retrieves a session by its external correlation key.
func (a *SessionAdapter) FindBySessionID(ctx context.Context, sessionID string) (*entities.Session, error) {
	query := `
		SELECT id, session_id, start_time, last_activity_time,
		       search_queries, clicked_results, viewed_categories, viewed_brands, filters
		FROM sessions
		WHERE session_id = $1
	`

	session := &entities.Session{}
	var filtersJSON []byte
	err := a.client.DB().QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.SessionID,
		&session.StartTime,
		&session.LastActivityTime,
		pq.Array(&session.SearchQueries),
		pq.Array(&session.ClickedResults),
		pq.Array(&session.ViewedCategories),
		pq.Array(&session.ViewedBrands),
		&filtersJSON,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find session", err)
	}

	if len(filtersJSON) > 0 {
		if err := json.Unmarshal(filtersJSON, &session.Filters); err != nil {
			return nil, apperrors.NewInternalError("failed to decode session filters", err)
		}
	}
	return session, nil
}

// Create inserts a new session. Inserting an existing session_id is a
// no-op; the sessions table carries a uniqueness constraint on it, so
// concurrent first contacts race safely and the caller re-reads the
// winning row.
func (a *SessionAdapter) Create(ctx context.Context, session *entities.Session) error {
	record, err := sessionRecord(session)
	if err != nil {
		return err
	}

	query, args, err := a.db.Insert("sessions").
		Rows(record).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build session insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create session", err)
	}
	return nil
}

// Save persists the session's mutable fields.
func (a *SessionAdapter) Save(ctx context.Context, session *entities.Session) error {
	filtersJSON, err := json.Marshal(session.Filters)
	if err != nil {
		return apperrors.NewInternalError("failed to encode session filters", err)
	}

	query, args, err := a.db.Update("sessions").
		Set(goqu.Record{
			"last_activity_time": session.LastActivityTime,
			"search_queries":     pq.Array(session.SearchQueries),
			"clicked_results":    pq.Array(session.ClickedResults),
			"viewed_categories":  pq.Array(session.ViewedCategories),
			"viewed_brands":      pq.Array(session.ViewedBrands),
			"filters":            filtersJSON,
		}).
		Where(goqu.Ex{"id": session.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build session update query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save session", err)
	}
	return nil
}

func sessionRecord(session *entities.Session) (goqu.Record, error) {
	filtersJSON, err := json.Marshal(session.Filters)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode session filters", err)
	}
	return goqu.Record{
		"id":                 session.ID,
		"session_id":         session.SessionID,
		"start_time":         session.StartTime,
		"last_activity_time": session.LastActivityTime,
		"search_queries":     pq.Array(session.SearchQueries),
		"clicked_results":    pq.Array(session.ClickedResults),
		"viewed_categories":  pq.Array(session.ViewedCategories),
		"viewed_brands":      pq.Array(session.ViewedBrands),
		"filters":            filtersJSON,
	}, nil
}

// InteractionAdapter implements interaction persistence in Postgres.
type InteractionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInteractionAdapter creates a new interaction adapter.
func NewInteractionAdapter(client *postgres.Client) repositories.InteractionRepository {
	return &InteractionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create appends a new interaction.
func (a *InteractionAdapter) Create(ctx context.Context, interaction *entities.Interaction) error {
	payload, err := entities.EncodePayload(interaction.Payload)
	if err != nil {
		return apperrors.NewInternalError("failed to encode interaction payload", err)
	}

	record := goqu.Record{
		"id":          interaction.ID,
		"session_id":  interaction.SessionID,
		"type":        string(interaction.Type),
		"payload":     payload,
		"duration_ms": interaction.DurationMs,
		"timestamp":   interaction.Timestamp,
		"created_at":  interaction.CreatedAt,
	}

	query, args, err := a.db.Insert("session_interactions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build interaction insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create interaction", err)
	}
	return nil
}

// Find returns interactions matching the filter, newest first.
func (a *InteractionAdapter) Find(ctx context.Context, filter repositories.InteractionFilter) ([]*entities.Interaction, error) {
	ds := a.db.From("session_interactions").
		Select("id", "session_id", "type", "payload", "duration_ms", "timestamp", "created_at").
		Order(goqu.C("timestamp").Desc())

	if filter.SessionID != "" {
		ds = ds.Where(goqu.Ex{"session_id": filter.SessionID})
	}
	if filter.Type != nil {
		ds = ds.Where(goqu.Ex{"type": string(*filter.Type)})
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build interaction query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query interactions", err)
	}
	defer rows.Close()

	interactions := []*entities.Interaction{}
	for rows.Next() {
		interaction := &entities.Interaction{}
		var typeStr string
		var payloadJSON []byte
		if err := rows.Scan(
			&interaction.ID,
			&interaction.SessionID,
			&typeStr,
			&payloadJSON,
			&interaction.DurationMs,
			&interaction.Timestamp,
			&interaction.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan interaction", err)
		}
		interaction.Type = entities.InteractionType(typeStr)

		payload, err := entities.DecodePayload(interaction.Type, payloadJSON)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to decode interaction payload", err)
		}
		interaction.Payload = payload

		interactions = append(interactions, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read interactions", err)
	}
	return interactions, nil
}
