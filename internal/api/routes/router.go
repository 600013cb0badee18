package routes

import (
	"net/http"

	"github.com/cartloom/marketplace/backend/internal/api/handlers"
	"github.com/cartloom/marketplace/backend/internal/api/middleware"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler    *handlers.SearchHandler
	sessionHandler   *handlers.SessionHandler
	analyticsHandler *handlers.AnalyticsHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	sessionHandler *handlers.SessionHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		searchHandler:    searchHandler,
		sessionHandler:   sessionHandler,
		analyticsHandler: analyticsHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search endpoints
	r.mux.HandleFunc("POST /api/search", r.searchHandler.Search)
	r.mux.HandleFunc("POST /api/query/understand", r.searchHandler.UnderstandQuery)

	// Session endpoints
	r.mux.HandleFunc("POST /api/sessions/{id}/interactions", r.sessionHandler.TrackInteraction)
	r.mux.HandleFunc("GET /api/sessions/{id}/interactions", r.sessionHandler.GetInteractions)
	r.mux.HandleFunc("GET /api/sessions/{id}/weights", r.sessionHandler.GetWeights)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/analytics/zero-results", r.analyticsHandler.GetZeroResultQueries)
	r.mux.HandleFunc("GET /api/analytics/top-queries", r.analyticsHandler.GetTopQueries)
	r.mux.HandleFunc("GET /api/analytics/interactions", r.sessionHandler.GetInteractionsByType)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
