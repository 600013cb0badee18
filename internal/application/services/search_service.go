package services

import (
	"context"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultPerPage = 20

// SearchRequest is one product search as received from the API layer.
type SearchRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PerPage   int    `json:"per_page,omitempty"`
}

// SearchResponse bundles the ranked hits with the query interpretation
// that produced them, so clients can render applied-filter chips.
type SearchResponse struct {
	Results      *entities.ProductSearchResult `json:"results"`
	Interpreted  *entities.ProcessedQuery      `json:"interpreted"`
	Personalized bool                          `json:"personalized"`
	TookMs       int64                         `json:"took_ms"`
}

// SearchService orchestrates one search: query understanding and
// session weights resolve concurrently, the index retrieves with
// entity boosts pushed down, and content affinity re-ranks the hits.
type SearchService struct {
	understanding   *QueryUnderstandingService
	sessions        *SessionService
	personalization *PersonalizationService
	products        repositories.ProductSearchRepository
	analytics       *SearchAnalyticsService
	logger          *zerolog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	understanding *QueryUnderstandingService,
	sessions *SessionService,
	personalization *PersonalizationService,
	products repositories.ProductSearchRepository,
	analytics *SearchAnalyticsService,
	logger *zerolog.Logger,
) *SearchService {
	return &SearchService{
		understanding:   understanding,
		sessions:        sessions,
		personalization: personalization,
		products:        products,
		analytics:       analytics,
		logger:          logger,
	}
}

// Search runs the full pipeline for one request. Query understanding
// and personalization are enhancements that degrade to pass-through;
// only index failures surface as errors.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	ctx, span := observability.StartSpan(ctx, "search.execute")
	defer span.End()

	started := time.Now()

	var (
		interpreted *entities.ProcessedQuery
		profile     *entities.WeightProfile
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		interpreted = s.understanding.ProcessQuery(req.Query)
		return nil
	})
	if req.SessionID != "" {
		group.Go(func() error {
			profile = s.sessions.GetSessionWeights(groupCtx, req.SessionID)
			return nil
		})
	}
	// both branches are total; Wait only synchronizes
	_ = group.Wait()

	queryText := interpreted.ProcessedQuery
	if queryText == "" {
		queryText = req.Query
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}

	result, err := s.products.Search(ctx, repositories.ProductQuery{
		Query:   queryText,
		Filters: interpreted.Filters,
		Boosts:  s.personalization.BoostMap(profile),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("query", req.Query).Msg("product search failed")
		return nil, err
	}

	s.personalization.Rerank(result.Products, profile)

	personalized := profile != nil && !profile.IsEmpty()
	tookMs := time.Since(started).Milliseconds()

	if req.SessionID != "" {
		s.sessions.TrackInteraction(ctx, req.SessionID, entities.InteractionSearch,
			entities.SearchPayload{Query: req.Query}, 0)
	}
	if s.analytics != nil {
		s.analytics.RecordSearch(&entities.SearchEvent{
			SessionID:      req.SessionID,
			Query:          req.Query,
			ProcessedQuery: interpreted.ProcessedQuery,
			Intent:         string(interpreted.Intent),
			ResultCount:    result.Found,
			LatencyMs:      int(tookMs),
			Personalized:   personalized,
		})
	}

	return &SearchResponse{
		Results:      result,
		Interpreted:  interpreted,
		Personalized: personalized,
		TookMs:       tookMs,
	}, nil
}
