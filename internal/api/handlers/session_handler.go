package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cartloom/marketplace/backend/internal/application/services"
	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

const defaultInteractionLimit = 20

// SessionHandler handles interaction tracking and weight profile
// endpoints.
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type trackInteractionRequest struct {
	Type       string         `json:"type"`
	Data       map[string]any `json:"data"`
	DurationMs int64          `json:"duration_ms,omitempty"`
}

// TrackInteraction handles POST /api/sessions/{id}/interactions.
// Tracking is best effort; a well-formed request is always accepted
// even if persistence fails behind the scenes.
func (h *SessionHandler) TrackInteraction(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	var req trackInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	interactionType := entities.InteractionType(req.Type)
	if !entities.ValidInteractionType(interactionType) {
		respondWithError(w, http.StatusBadRequest, "unknown interaction type")
		return
	}

	payload, err := entities.PayloadFromMap(interactionType, req.Data)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid interaction data")
		return
	}

	h.sessions.TrackInteraction(r.Context(), sessionID, interactionType, payload, req.DurationMs)

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}

// GetInteractions handles GET /api/sessions/{id}/interactions
func (h *SessionHandler) GetInteractions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	limit := parseIntQuery(r, "limit", defaultInteractionLimit)

	var interactionType *entities.InteractionType
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		t := entities.InteractionType(typeParam)
		if !entities.ValidInteractionType(t) {
			respondWithError(w, http.StatusBadRequest, "unknown interaction type")
			return
		}
		interactionType = &t
	}

	interactions := h.sessions.GetRecentInteractions(r.Context(), sessionID, interactionType, limit)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"interactions": interactions,
		"count":        len(interactions),
	})
}

// GetInteractionsByType handles GET /api/analytics/interactions.
// It reads interactions of one type across all sessions, for
// dashboard use.
func (h *SessionHandler) GetInteractionsByType(w http.ResponseWriter, r *http.Request) {
	typeParam := r.URL.Query().Get("type")
	if typeParam == "" {
		respondWithError(w, http.StatusBadRequest, "type is required")
		return
	}
	interactionType := entities.InteractionType(typeParam)
	if !entities.ValidInteractionType(interactionType) {
		respondWithError(w, http.StatusBadRequest, "unknown interaction type")
		return
	}

	limit := parseIntQuery(r, "limit", 100)
	interactions := h.sessions.GetInteractionsByType(r.Context(), interactionType, limit)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"interactions": interactions,
		"count":        len(interactions),
	})
}

// GetWeights handles GET /api/sessions/{id}/weights
func (h *SessionHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}

	respondWithJSON(w, http.StatusOK, h.sessions.GetSessionWeights(r.Context(), sessionID))
}
