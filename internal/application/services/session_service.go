package services

import (
	"context"
	"math"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Interaction base weights before recency decay.
const (
	clickWeight      = 0.8
	searchWeight     = 0.7
	filterWeight     = 0.6
	viewWeight       = 0.5
	impressionWeight = 0.1
)

// recencyWindowHours is the linear decay horizon: an interaction this
// old contributes nothing.
const recencyWindowHours = 24.0

// SessionService tracks per-session interactions and derives the
// weight profile used for personalized ranking. Tracking is best
// effort: persistence failures are logged and swallowed so the search
// path never degrades because of it.
type SessionService struct {
	sessions     repositories.SessionRepository
	interactions repositories.InteractionRepository
	logger       *zerolog.Logger
	now          func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	sessions repositories.SessionRepository,
	interactions repositories.InteractionRepository,
	logger *zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		interactions: interactions,
		logger:       logger,
		now:          time.Now,
	}
}

// GetOrCreateSession finds the session for an external session id,
// creating it on first contact. Concurrent first contacts converge on
// one row: Create is a no-op on conflict and the winner is re-read.
func (s *SessionService) GetOrCreateSession(ctx context.Context, sessionID string) (*entities.Session, error) {
	session, err := s.sessions.FindBySessionID(ctx, sessionID)
	if err == nil {
		return session, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	fresh := &entities.Session{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		StartTime:        now,
		LastActivityTime: now,
		SearchQueries:    []string{},
		ClickedResults:   []string{},
		ViewedCategories: []string{},
		ViewedBrands:     []string{},
		Filters:          []map[string]string{},
	}
	if err := s.sessions.Create(ctx, fresh); err != nil {
		return nil, err
	}
	return s.sessions.FindBySessionID(ctx, sessionID)
}

// TrackInteraction records one user action against a session. It never
// fails from the caller's point of view; any error is logged and the
// interaction is dropped.
func (s *SessionService) TrackInteraction(
	ctx context.Context,
	sessionID string,
	interactionType entities.InteractionType,
	payload entities.InteractionPayload,
	durationMs int64,
) {
	if !entities.ValidInteractionType(interactionType) {
		s.logger.Warn().Str("session_id", sessionID).Str("type", string(interactionType)).
			Msg("dropping interaction with unknown type")
		return
	}

	session, err := s.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("failed to resolve session for interaction")
		return
	}

	now := s.now()
	interaction := &entities.Interaction{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		Type:       interactionType,
		Payload:    payload,
		DurationMs: durationMs,
		Timestamp:  now,
		CreatedAt:  now,
	}
	if err := s.interactions.Create(ctx, interaction); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("type", string(interactionType)).
			Msg("failed to persist interaction")
		return
	}

	s.updateSessionSummary(session, interactionType, payload, now)
	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("failed to update session summary")
	}
}

// updateSessionSummary appends to the session's denormalized lists and
// bumps the activity time.
func (s *SessionService) updateSessionSummary(
	session *entities.Session,
	interactionType entities.InteractionType,
	payload entities.InteractionPayload,
	now time.Time,
) {
	switch p := payload.(type) {
	case entities.SearchPayload:
		if interactionType == entities.InteractionSearch && p.Query != "" {
			session.SearchQueries = append(session.SearchQueries, p.Query)
		}
	case entities.ClickPayload:
		if interactionType == entities.InteractionClick && p.ResultID != "" {
			session.ClickedResults = append(session.ClickedResults, p.ResultID)
		}
	case entities.ViewPayload:
		switch p.TargetType {
		case "category":
			if p.CategoryID != "" {
				session.ViewedCategories = append(session.ViewedCategories, p.CategoryID)
			}
		case "brand":
			if p.BrandID != "" {
				session.ViewedBrands = append(session.ViewedBrands, p.BrandID)
			}
		}
	case entities.FilterPayload:
		if p.FilterType != "" && p.FilterValue != "" {
			session.Filters = append(session.Filters, map[string]string{p.FilterType: p.FilterValue})
		}
	}
	session.LastActivityTime = now
}

// GetSessionWeights computes the weight profile from the session's full
// interaction history. The session is created on first reference, like
// every other session touchpoint. Any failure yields an empty profile:
// ranking falls back to unpersonalized order rather than erroring.
func (s *SessionService) GetSessionWeights(ctx context.Context, sessionID string) *entities.WeightProfile {
	session, err := s.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("failed to load session for weights")
		return entities.NewWeightProfile()
	}

	interactions, err := s.interactions.Find(ctx, repositories.InteractionFilter{SessionID: session.ID})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("failed to load interactions for weights")
		return entities.NewWeightProfile()
	}

	return calculateSessionWeights(interactions, s.now())
}

// GetRecentInteractions returns a session's interactions newest first,
// optionally limited to one type. The limit defaults to 20. Failures
// yield an empty slice.
func (s *SessionService) GetRecentInteractions(
	ctx context.Context,
	sessionID string,
	interactionType *entities.InteractionType,
	limit int,
) []*entities.Interaction {
	if limit <= 0 {
		limit = 20
	}
	session, err := s.sessions.FindBySessionID(ctx, sessionID)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Error().Err(err).Str("session_id", sessionID).
				Msg("failed to load session for interactions")
		}
		return []*entities.Interaction{}
	}

	interactions, err := s.interactions.Find(ctx, repositories.InteractionFilter{
		SessionID: session.ID,
		Type:      interactionType,
		Limit:     limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).
			Msg("failed to load interactions")
		return []*entities.Interaction{}
	}
	return interactions
}

// GetInteractionsByType returns interactions of one type across all
// sessions, newest first. Failures yield an empty slice.
func (s *SessionService) GetInteractionsByType(
	ctx context.Context,
	interactionType entities.InteractionType,
	limit int,
) []*entities.Interaction {
	if limit <= 0 {
		limit = 100
	}
	interactions, err := s.interactions.Find(ctx, repositories.InteractionFilter{
		Type:  &interactionType,
		Limit: limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(interactionType)).
			Msg("failed to load interactions by type")
		return []*entities.Interaction{}
	}
	return interactions
}

// calculateSessionWeights folds interactions into additive,
// recency-decayed scores. Sort, add-to-cart, and purchase interactions
// are stored but carry no ranking weight here.
func calculateSessionWeights(interactions []*entities.Interaction, now time.Time) *entities.WeightProfile {
	profile := entities.NewWeightProfile()

	for _, interaction := range interactions {
		hoursSince := now.Sub(interaction.Timestamp).Hours()
		recency := 1.0 - hoursSince/recencyWindowHours
		if recency < 0 {
			recency = 0
		}

		switch p := interaction.Payload.(type) {
		case entities.ClickPayload:
			if p.ResultID != "" {
				profile.Entities[p.ResultID] += clickWeight * recency
			}
		case entities.DwellPayload:
			if p.ResultID != "" {
				dwell := math.Min(1.0, float64(interaction.DurationMs)/60000.0/2.0)
				profile.Entities[p.ResultID] += dwell * recency
			}
		case entities.ImpressionPayload:
			for _, resultID := range p.ResultIDs {
				if resultID != "" {
					profile.Entities[resultID] += impressionWeight * recency
				}
			}
		case entities.SearchPayload:
			if p.Query != "" {
				profile.Queries[p.Query] += searchWeight * recency
			}
		case entities.FilterPayload:
			if p.FilterType == "" || p.FilterValue == "" {
				continue
			}
			key := p.FilterType + ":" + p.FilterValue
			profile.Filters[key] += filterWeight * recency
			switch p.FilterType {
			case "category":
				profile.Categories[p.FilterValue] += filterWeight * recency
			case "brand":
				profile.Brands[p.FilterValue] += filterWeight * recency
			}
		case entities.ViewPayload:
			switch p.TargetType {
			case "category":
				if p.CategoryID != "" {
					profile.Categories[p.CategoryID] += viewWeight * recency
				}
			case "brand":
				if p.BrandID != "" {
					profile.Brands[p.BrandID] += viewWeight * recency
				}
			}
		}
	}

	return profile
}
