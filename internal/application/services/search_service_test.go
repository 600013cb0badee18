package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductIndex struct {
	mu        sync.Mutex
	lastQuery repositories.ProductQuery
	result    *entities.ProductSearchResult
	err       error
}

func (f *fakeProductIndex) Search(_ context.Context, query repositories.ProductQuery) (*entities.ProductSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProductIndex) Index(context.Context, *entities.Product) error { return nil }
func (f *fakeProductIndex) Delete(context.Context, string) error           { return nil }

type fakeAnalyticsRepo struct {
	mu            sync.Mutex
	events        []*entities.SearchEvent
	topQueries    []*entities.QueryFrequency
	topQueriesErr error
}

func (f *fakeAnalyticsRepo) LogEvent(_ context.Context, event *entities.SearchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAnalyticsRepo) GetZeroResultQueries(context.Context, int) ([]*entities.SearchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, nil
}

func (f *fakeAnalyticsRepo) GetTopQueries(context.Context, time.Time, int) ([]*entities.QueryFrequency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topQueries, f.topQueriesErr
}

func (f *fakeAnalyticsRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestSearchService(index *fakeProductIndex, analyticsRepo repositories.SearchAnalyticsRepository) (*SearchService, *fakeInteractionRepo) {
	logger := zerolog.Nop()
	interactions := &fakeInteractionRepo{}
	sessions := NewSessionService(newFakeSessionRepo(), interactions, &logger)

	var analytics *SearchAnalyticsService
	if analyticsRepo != nil {
		analytics = NewSearchAnalyticsService(analyticsRepo, &logger)
	}

	return NewSearchService(
		newTestQueryService(),
		sessions,
		NewPersonalizationService(&logger),
		index,
		analytics,
		&logger,
	), interactions
}

func TestSearchPushesInterpretedQueryToIndex(t *testing.T) {
	index := &fakeProductIndex{result: &entities.ProductSearchResult{
		Products: []*entities.ScoredProduct{},
		Found:    0,
		Page:     1,
	}}
	svc, _ := newTestSearchService(index, nil)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "red dresses under $50"})
	require.NoError(t, err)

	assert.Equal(t, "red dresses", index.lastQuery.Query)
	require.NotNil(t, index.lastQuery.Filters.PriceMax)
	assert.Equal(t, 50.0, *index.lastQuery.Filters.PriceMax)
	assert.Equal(t, 1, index.lastQuery.Page)
	assert.Equal(t, defaultPerPage, index.lastQuery.PerPage)

	assert.False(t, resp.Personalized)
	assert.Equal(t, entities.IntentSearch, resp.Interpreted.Intent)
}

func TestSearchAppliesSessionPersonalization(t *testing.T) {
	affine := &entities.ScoredProduct{
		Product: &entities.Product{ID: "p-2", Name: "Trail Shoe", Categories: []string{"footwear"}},
		Score:   0.5,
	}
	generic := &entities.ScoredProduct{
		Product: &entities.Product{ID: "p-1", Name: "Rain Coat", Categories: []string{"outerwear"}},
		Score:   0.6,
	}
	index := &fakeProductIndex{result: &entities.ProductSearchResult{
		Products: []*entities.ScoredProduct{generic, affine},
		Found:    2,
		Page:     1,
	}}
	svc, _ := newTestSearchService(index, nil)

	// seed session affinity for footwear
	svc.sessions.TrackInteraction(context.Background(), "sess-1", entities.InteractionFilter,
		entities.FilterPayload{FilterType: "category", FilterValue: "footwear"}, 0)

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "shoes", SessionID: "sess-1"})
	require.NoError(t, err)

	assert.True(t, resp.Personalized)
	assert.Equal(t, "p-2", resp.Results.Products[0].Product.ID)
}

func TestSearchRecordsInteractionAndAnalytics(t *testing.T) {
	index := &fakeProductIndex{result: &entities.ProductSearchResult{
		Products: []*entities.ScoredProduct{},
	}}
	analyticsRepo := &fakeAnalyticsRepo{}
	svc, interactions := newTestSearchService(index, analyticsRepo)

	_, err := svc.Search(context.Background(), SearchRequest{Query: "boots", SessionID: "sess-1"})
	require.NoError(t, err)

	require.Len(t, interactions.items, 1)
	assert.Equal(t, entities.InteractionSearch, interactions.items[0].Type)

	assert.Eventually(t, func() bool { return analyticsRepo.count() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestSearchPropagatesIndexFailure(t *testing.T) {
	index := &fakeProductIndex{err: assert.AnError}
	svc, _ := newTestSearchService(index, nil)

	_, err := svc.Search(context.Background(), SearchRequest{Query: "boots"})
	assert.Error(t, err)
}

func TestSearchEmptyProcessedQueryFallsBackToRaw(t *testing.T) {
	index := &fakeProductIndex{result: &entities.ProductSearchResult{
		Products: []*entities.ScoredProduct{},
	}}
	svc, _ := newTestSearchService(index, nil)

	// every token is a stopword, so the processed query is empty
	_, err := svc.Search(context.Background(), SearchRequest{Query: "the of and"})
	require.NoError(t, err)
	assert.Equal(t, "the of and", index.lastQuery.Query)
}
