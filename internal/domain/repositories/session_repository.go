package repositories

import (
	"context"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	// FindBySessionID retrieves a session by its external correlation
	// key. Returns a not-found AppError when absent.
	FindBySessionID(ctx context.Context, sessionID string) (*entities.Session, error)

	// Create inserts a new session. Inserting an already-existing
	// sessionID is a no-op, which makes concurrent first-contact
	// creation safe.
	Create(ctx context.Context, session *entities.Session) error

	// Save persists the session's mutable fields (last activity time
	// and the denormalized lists).
	Save(ctx context.Context, session *entities.Session) error
}

// InteractionFilter narrows an interaction query.
type InteractionFilter struct {
	// SessionID is the owning session's primary id (not the external
	// correlation key). Empty means all sessions.
	SessionID string
	// Type restricts to one interaction type when non-nil.
	Type *entities.InteractionType
	// Limit caps the number of rows; zero means no cap.
	Limit int
}

// InteractionRepository defines the interface for interaction
// persistence. Interactions are immutable once written.
type InteractionRepository interface {
	// Create appends a new interaction.
	Create(ctx context.Context, interaction *entities.Interaction) error

	// Find returns interactions matching the filter, newest first.
	Find(ctx context.Context, filter InteractionFilter) ([]*entities.Interaction, error)
}
