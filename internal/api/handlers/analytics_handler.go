package handlers

import (
	"net/http"
	"time"

	"github.com/cartloom/marketplace/backend/internal/application/services"
)

// AnalyticsHandler exposes search analytics read endpoints.
type AnalyticsHandler struct {
	analytics *services.SearchAnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *services.SearchAnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// GetZeroResultQueries handles GET /api/analytics/zero-results
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)

	events, err := h.analytics.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load zero result queries")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}

// GetTopQueries handles GET /api/analytics/top-queries
func (h *AnalyticsHandler) GetTopQueries(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	windowHours := parseIntQuery(r, "window_hours", 24)

	frequencies, err := h.analytics.GetTopQueries(r.Context(), time.Duration(windowHours)*time.Hour, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load top queries")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": frequencies,
		"count":   len(frequencies),
	})
}
