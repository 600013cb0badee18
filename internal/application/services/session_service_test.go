package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entities.Session // keyed by external session id
	failAll  bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*entities.Session{}}
}

func (r *fakeSessionRepo) FindBySessionID(_ context.Context, sessionID string) (*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.NewInternalError("db down", nil)
	}
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, errors.NewNotFoundError("session not found")
	}
	copied := *session
	return &copied, nil
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.NewInternalError("db down", nil)
	}
	if _, exists := r.sessions[session.SessionID]; exists {
		return nil // conflict is a no-op
	}
	copied := *session
	r.sessions[session.SessionID] = &copied
	return nil
}

func (r *fakeSessionRepo) Save(_ context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.NewInternalError("db down", nil)
	}
	copied := *session
	r.sessions[session.SessionID] = &copied
	return nil
}

type fakeInteractionRepo struct {
	mu      sync.Mutex
	items   []*entities.Interaction
	failAll bool
}

func (r *fakeInteractionRepo) Create(_ context.Context, interaction *entities.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.NewInternalError("db down", nil)
	}
	r.items = append(r.items, interaction)
	return nil
}

func (r *fakeInteractionRepo) Find(_ context.Context, filter repositories.InteractionFilter) ([]*entities.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.NewInternalError("db down", nil)
	}
	matched := []*entities.Interaction{}
	for i := len(r.items) - 1; i >= 0; i-- {
		item := r.items[i]
		if filter.SessionID != "" && item.SessionID != filter.SessionID {
			continue
		}
		if filter.Type != nil && item.Type != *filter.Type {
			continue
		}
		matched = append(matched, item)
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}
	return matched, nil
}

func newTestSessionService(sessions *fakeSessionRepo, interactions *fakeInteractionRepo) *SessionService {
	logger := zerolog.Nop()
	svc := NewSessionService(sessions, interactions, &logger)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGetOrCreateSession(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestSessionService(sessions, &fakeInteractionRepo{})

	first, err := svc.GetOrCreateSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", first.SessionID)
	assert.NotEmpty(t, first.ID)
	assert.Empty(t, first.SearchQueries)

	second, err := svc.GetOrCreateSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestTrackInteractionPersistsAndUpdatesSummary(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)

	ctx := context.Background()
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionSearch, entities.SearchPayload{Query: "boots"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionClick, entities.ClickPayload{ResultID: "prod-9"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionView,
		entities.ViewPayload{TargetType: "category", CategoryID: "cat-3"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionFilter,
		entities.FilterPayload{FilterType: "brand", FilterValue: "nike"}, 0)

	assert.Len(t, interactions.items, 4)

	session, err := svc.GetOrCreateSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"boots"}, session.SearchQueries)
	assert.Equal(t, []string{"prod-9"}, session.ClickedResults)
	assert.Equal(t, []string{"cat-3"}, session.ViewedCategories)
	require.Len(t, session.Filters, 1)
	assert.Equal(t, map[string]string{"brand": "nike"}, session.Filters[0])
}

func TestTrackInteractionDropsUnknownType(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)

	svc.TrackInteraction(context.Background(), "sess-1", entities.InteractionType("scroll"), nil, 0)

	assert.Empty(t, interactions.items)
	assert.Empty(t, sessions.sessions)
}

func TestTrackInteractionSwallowsRepositoryErrors(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.failAll = true
	svc := newTestSessionService(sessions, &fakeInteractionRepo{})

	// must not panic or error
	svc.TrackInteraction(context.Background(), "sess-1", entities.InteractionClick,
		entities.ClickPayload{ResultID: "prod-1"}, 0)
}

func TestGetSessionWeightsScoring(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)
	ctx := context.Background()

	svc.TrackInteraction(ctx, "sess-1", entities.InteractionClick, entities.ClickPayload{ResultID: "prod-1"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionSearch, entities.SearchPayload{Query: "boots"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionFilter,
		entities.FilterPayload{FilterType: "category", FilterValue: "footwear"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionView,
		entities.ViewPayload{TargetType: "brand", BrandID: "brand-2"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionImpression,
		entities.ImpressionPayload{ResultIDs: []string{"prod-1", "prod-2"}}, 0)

	profile := svc.GetSessionWeights(ctx, "sess-1")

	// interactions carry zero age under the fixed clock, so recency is 1
	assert.InDelta(t, 0.9, profile.Entities["prod-1"], 1e-9) // click 0.8 + impression 0.1
	assert.InDelta(t, 0.1, profile.Entities["prod-2"], 1e-9)
	assert.InDelta(t, 0.7, profile.Queries["boots"], 1e-9)
	assert.InDelta(t, 0.6, profile.Filters["category:footwear"], 1e-9)
	assert.InDelta(t, 0.6, profile.Categories["footwear"], 1e-9)
	assert.InDelta(t, 0.5, profile.Brands["brand-2"], 1e-9)
}

func TestGetSessionWeightsDwellCapped(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)
	ctx := context.Background()

	// 60s of dwell scores 0.5; ten minutes is capped at 1.0
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionDwell, entities.DwellPayload{ResultID: "prod-1"}, 60000)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionDwell, entities.DwellPayload{ResultID: "prod-2"}, 600000)

	profile := svc.GetSessionWeights(ctx, "sess-1")
	assert.InDelta(t, 0.5, profile.Entities["prod-1"], 1e-9)
	assert.InDelta(t, 1.0, profile.Entities["prod-2"], 1e-9)
}

func TestCalculateSessionWeightsRecencyDecay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := &entities.Interaction{
		Type:      entities.InteractionClick,
		Payload:   entities.ClickPayload{ResultID: "prod-fresh"},
		Timestamp: now,
	}
	halfOld := &entities.Interaction{
		Type:      entities.InteractionClick,
		Payload:   entities.ClickPayload{ResultID: "prod-half"},
		Timestamp: now.Add(-12 * time.Hour),
	}
	stale := &entities.Interaction{
		Type:      entities.InteractionClick,
		Payload:   entities.ClickPayload{ResultID: "prod-stale"},
		Timestamp: now.Add(-48 * time.Hour),
	}

	profile := calculateSessionWeights([]*entities.Interaction{fresh, halfOld, stale}, now)

	assert.InDelta(t, 0.8, profile.Entities["prod-fresh"], 1e-9)
	assert.InDelta(t, 0.4, profile.Entities["prod-half"], 1e-9)
	// beyond the window the weight clamps to zero instead of going negative
	assert.InDelta(t, 0.0, profile.Entities["prod-stale"], 1e-9)
}

func TestCalculateSessionWeightsUnscoredTypes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	profile := calculateSessionWeights([]*entities.Interaction{
		{Type: entities.InteractionSort, Payload: entities.OpaquePayload{"field": "price"}, Timestamp: now},
		{Type: entities.InteractionPurchase, Payload: entities.OpaquePayload{"orderId": "o-1"}, Timestamp: now},
	}, now)

	assert.True(t, profile.IsEmpty())
}

func TestCalculateSessionWeightsIncompleteFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// a filter interaction needs both a type and a value to score
	profile := calculateSessionWeights([]*entities.Interaction{
		{Type: entities.InteractionFilter, Payload: entities.FilterPayload{FilterType: "category", FilterValue: ""}, Timestamp: now},
		{Type: entities.InteractionFilter, Payload: entities.FilterPayload{FilterType: "", FilterValue: "footwear"}, Timestamp: now},
	}, now)

	assert.True(t, profile.IsEmpty())
}

func TestTrackInteractionIncompleteFilterSkipsSummary(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestSessionService(sessions, &fakeInteractionRepo{})
	ctx := context.Background()

	svc.TrackInteraction(ctx, "sess-1", entities.InteractionFilter,
		entities.FilterPayload{FilterType: "category", FilterValue: ""}, 0)

	session, err := sessions.FindBySessionID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, session.Filters)
}

func TestGetSessionWeightsUnknownSession(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestSessionService(sessions, &fakeInteractionRepo{})
	ctx := context.Background()

	profile := svc.GetSessionWeights(ctx, "never-seen")
	require.NotNil(t, profile)
	assert.True(t, profile.IsEmpty())

	// first reference creates the session
	created, err := sessions.FindBySessionID(ctx, "never-seen")
	require.NoError(t, err)
	assert.Equal(t, "never-seen", created.SessionID)
}

func TestGetSessionWeightsRepositoryFailure(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.failAll = true
	svc := newTestSessionService(sessions, &fakeInteractionRepo{})

	profile := svc.GetSessionWeights(context.Background(), "sess-1")
	require.NotNil(t, profile)
	assert.True(t, profile.IsEmpty())
}

func TestGetRecentInteractions(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)
	ctx := context.Background()

	svc.TrackInteraction(ctx, "sess-1", entities.InteractionSearch, entities.SearchPayload{Query: "boots"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionClick, entities.ClickPayload{ResultID: "prod-1"}, 0)
	svc.TrackInteraction(ctx, "sess-1", entities.InteractionClick, entities.ClickPayload{ResultID: "prod-2"}, 0)

	all := svc.GetRecentInteractions(ctx, "sess-1", nil, 0)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, entities.ClickPayload{ResultID: "prod-2"}, all[0].Payload)

	clickType := entities.InteractionClick
	clicks := svc.GetRecentInteractions(ctx, "sess-1", &clickType, 1)
	require.Len(t, clicks, 1)
	assert.Equal(t, entities.ClickPayload{ResultID: "prod-2"}, clicks[0].Payload)

	assert.Empty(t, svc.GetRecentInteractions(ctx, "missing", nil, 0))
}

func TestGetRecentInteractionsDefaultLimit(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		svc.TrackInteraction(ctx, "sess-1", entities.InteractionClick,
			entities.ClickPayload{ResultID: fmt.Sprintf("prod-%d", i)}, 0)
	}

	assert.Len(t, svc.GetRecentInteractions(ctx, "sess-1", nil, 0), 20)
	assert.Len(t, svc.GetRecentInteractions(ctx, "sess-1", nil, 5), 5)
}

func TestGetInteractionsByType(t *testing.T) {
	sessions := newFakeSessionRepo()
	interactions := &fakeInteractionRepo{}
	svc := newTestSessionService(sessions, interactions)
	ctx := context.Background()

	svc.TrackInteraction(ctx, "sess-1", entities.InteractionClick, entities.ClickPayload{ResultID: "prod-1"}, 0)
	svc.TrackInteraction(ctx, "sess-2", entities.InteractionClick, entities.ClickPayload{ResultID: "prod-2"}, 0)
	svc.TrackInteraction(ctx, "sess-2", entities.InteractionSearch, entities.SearchPayload{Query: "boots"}, 0)

	clicks := svc.GetInteractionsByType(ctx, entities.InteractionClick, 0)
	require.Len(t, clicks, 2)
	// spans sessions, newest first
	assert.Equal(t, entities.ClickPayload{ResultID: "prod-2"}, clicks[0].Payload)
	assert.Equal(t, entities.ClickPayload{ResultID: "prod-1"}, clicks[1].Payload)

	capped := svc.GetInteractionsByType(ctx, entities.InteractionClick, 1)
	assert.Len(t, capped, 1)
}

func TestGetInteractionsByTypeRepositoryFailure(t *testing.T) {
	svc := newTestSessionService(newFakeSessionRepo(), &fakeInteractionRepo{failAll: true})

	assert.Empty(t, svc.GetInteractionsByType(context.Background(), entities.InteractionClick, 10))
}
