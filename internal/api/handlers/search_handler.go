package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cartloom/marketplace/backend/internal/application/services"
	apperrors "github.com/cartloom/marketplace/backend/pkg/errors"
)

const maxQueryLength = 500

// SearchHandler handles product search and query understanding
// endpoints.
type SearchHandler struct {
	search        *services.SearchService
	understanding *services.QueryUnderstandingService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *services.SearchService, understanding *services.QueryUnderstandingService) *SearchHandler {
	return &SearchHandler{search: search, understanding: understanding}
}

// Search handles POST /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req services.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if len(req.Query) > maxQueryLength {
		respondWithError(w, http.StatusBadRequest, "query is too long")
		return
	}

	resp, err := h.search.Search(r.Context(), req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeExternal {
			respondWithError(w, http.StatusBadGateway, "search is temporarily unavailable")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "search failed")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

type understandRequest struct {
	Query string `json:"query"`
}

// UnderstandQuery handles POST /api/query/understand
func (h *SearchHandler) UnderstandQuery(w http.ResponseWriter, r *http.Request) {
	var req understandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if len(req.Query) > maxQueryLength {
		respondWithError(w, http.StatusBadRequest, "query is too long")
		return
	}

	respondWithJSON(w, http.StatusOK, h.understanding.ProcessQuery(req.Query))
}
