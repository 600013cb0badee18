package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/marketplace/backend/internal/api/handlers"
	"github.com/cartloom/marketplace/backend/internal/application/services"
	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	apperrors "github.com/cartloom/marketplace/backend/pkg/errors"
)

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entities.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*entities.Session{}}
}

func (r *memSessionRepo) FindBySessionID(_ context.Context, sessionID string) (*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	copied := *session
	return &copied, nil
}

func (r *memSessionRepo) Create(_ context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.SessionID]; exists {
		return nil
	}
	copied := *session
	r.sessions[session.SessionID] = &copied
	return nil
}

func (r *memSessionRepo) Save(_ context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.SessionID] = &copied
	return nil
}

type memInteractionRepo struct {
	mu    sync.Mutex
	items []*entities.Interaction
}

func (r *memInteractionRepo) Create(_ context.Context, interaction *entities.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, interaction)
	return nil
}

func (r *memInteractionRepo) Find(_ context.Context, filter repositories.InteractionFilter) ([]*entities.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func newSessionHandlerUnderTest() (*handlers.SessionHandler, *memInteractionRepo) {
	logger := zerolog.Nop()
	interactions := &memInteractionRepo{}
	service := services.NewSessionService(newMemSessionRepo(), interactions, &logger)
	return handlers.NewSessionHandler(service), interactions
}

func TestSessionHandler_TrackInteraction(t *testing.T) {
	handler, interactions := newSessionHandlerUnderTest()

	body := `{"type":"click","data":{"resultId":"prod-1"}}`
	req := httptest.NewRequest("POST", "/api/sessions/sess-1/interactions", strings.NewReader(body))
	req.SetPathValue("id", "sess-1")
	w := httptest.NewRecorder()

	handler.TrackInteraction(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, interactions.items, 1)
	assert.Equal(t, entities.InteractionClick, interactions.items[0].Type)
	assert.Equal(t, entities.ClickPayload{ResultID: "prod-1"}, interactions.items[0].Payload)
}

func TestSessionHandler_TrackInteraction_UnknownType(t *testing.T) {
	handler, interactions := newSessionHandlerUnderTest()

	body := `{"type":"hover","data":{}}`
	req := httptest.NewRequest("POST", "/api/sessions/sess-1/interactions", strings.NewReader(body))
	req.SetPathValue("id", "sess-1")
	w := httptest.NewRecorder()

	handler.TrackInteraction(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, interactions.items)
}

func TestSessionHandler_TrackInteraction_BadBody(t *testing.T) {
	handler, _ := newSessionHandlerUnderTest()

	req := httptest.NewRequest("POST", "/api/sessions/sess-1/interactions", strings.NewReader("{"))
	req.SetPathValue("id", "sess-1")
	w := httptest.NewRecorder()

	handler.TrackInteraction(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_GetInteractions(t *testing.T) {
	handler, _ := newSessionHandlerUnderTest()

	for _, body := range []string{
		`{"type":"search","data":{"query":"boots"}}`,
		`{"type":"click","data":{"resultId":"prod-1"}}`,
	} {
		req := httptest.NewRequest("POST", "/api/sessions/sess-1/interactions", strings.NewReader(body))
		req.SetPathValue("id", "sess-1")
		handler.TrackInteraction(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest("GET", "/api/sessions/sess-1/interactions?type=click", nil)
	req.SetPathValue("id", "sess-1")
	w := httptest.NewRecorder()

	handler.GetInteractions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
}

func TestSessionHandler_GetInteractionsByType(t *testing.T) {
	handler, _ := newSessionHandlerUnderTest()

	for _, tc := range []struct{ session, body string }{
		{"sess-1", `{"type":"click","data":{"resultId":"prod-1"}}`},
		{"sess-2", `{"type":"click","data":{"resultId":"prod-2"}}`},
		{"sess-2", `{"type":"search","data":{"query":"boots"}}`},
	} {
		req := httptest.NewRequest("POST", "/api/sessions/"+tc.session+"/interactions", strings.NewReader(tc.body))
		req.SetPathValue("id", tc.session)
		handler.TrackInteraction(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest("GET", "/api/analytics/interactions?type=click", nil)
	w := httptest.NewRecorder()

	handler.GetInteractionsByType(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
}

func TestSessionHandler_GetInteractionsByType_MissingType(t *testing.T) {
	handler, _ := newSessionHandlerUnderTest()

	w := httptest.NewRecorder()
	handler.GetInteractionsByType(w, httptest.NewRequest("GET", "/api/analytics/interactions", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_GetWeights(t *testing.T) {
	handler, _ := newSessionHandlerUnderTest()

	body := `{"type":"click","data":{"resultId":"prod-1"}}`
	track := httptest.NewRequest("POST", "/api/sessions/sess-1/interactions", strings.NewReader(body))
	track.SetPathValue("id", "sess-1")
	handler.TrackInteraction(httptest.NewRecorder(), track)

	req := httptest.NewRequest("GET", "/api/sessions/sess-1/weights", nil)
	req.SetPathValue("id", "sess-1")
	w := httptest.NewRecorder()

	handler.GetWeights(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var profile entities.WeightProfile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
	assert.InDelta(t, 0.8, profile.Entities["prod-1"], 1e-6)
}

func TestSessionHandler_GetWeights_UnknownSession(t *testing.T) {
	handler, _ := newSessionHandlerUnderTest()

	req := httptest.NewRequest("GET", "/api/sessions/missing/weights", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.GetWeights(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var profile entities.WeightProfile
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
	assert.Empty(t, profile.Entities)
	assert.Empty(t, profile.Queries)
}
