package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
)

type stubInterpreter struct {
	intents map[string]entities.Intent
}

func (s *stubInterpreter) ProcessQuery(query string) *entities.ProcessedQuery {
	result := entities.DegradedQuery(query)
	if intent, ok := s.intents[query]; ok {
		result.Intent = intent
	}
	return result
}

type stubIndex struct {
	hits map[string][]string
	err  error
}

func (s *stubIndex) Search(ctx context.Context, query repositories.ProductQuery) (*entities.ProductSearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := s.hits[query.Query]
	products := make([]*entities.ScoredProduct, len(ids))
	for i, id := range ids {
		products[i] = &entities.ScoredProduct{Product: &entities.Product{ID: id}}
	}
	return &entities.ProductSearchResult{Products: products, Found: len(products)}, nil
}

func (s *stubIndex) Index(ctx context.Context, product *entities.Product) error { return nil }
func (s *stubIndex) Delete(ctx context.Context, id string) error                { return nil }

func TestRunner_Run(t *testing.T) {
	interpreter := &stubInterpreter{intents: map[string]entities.Intent{
		"running shoes": entities.IntentSearch,
		"show boots":    entities.IntentSearch, // misclassified, golden says filter
	}}
	index := &stubIndex{hits: map[string][]string{
		"running shoes": {"prod-1", "prod-2"},
		"show boots":    {"prod-9"},
	}}

	queries := []GoldenQuery{
		{ID: "q1", Query: "running shoes", Intent: entities.IntentSearch, ExpectedProducts: []string{"prod-1"}, Difficulty: "easy"},
		{ID: "q2", Query: "show boots", Intent: entities.IntentFilter, ExpectedProducts: []string{"prod-3"}, Difficulty: "medium"},
	}

	runner := NewRunner(interpreter, index)
	summary, err := runner.Run(context.Background(), queries)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalQueries)
	assert.InDelta(t, 0.5, summary.IntentAccuracy, 0.0001)
	// q1 recall 1.0, q2 recall 0.0
	assert.InDelta(t, 0.5, summary.AvgRecallAt10, 0.0001)
	assert.InDelta(t, 0.5, summary.AvgMRRAt10, 0.0001)
	assert.Equal(t, 2, summary.QueriesWithHits)

	require.Contains(t, summary.ByIntent, entities.IntentSearch)
	assert.Equal(t, 1, summary.ByIntent[entities.IntentSearch].Count)
	assert.InDelta(t, 1.0, summary.ByIntent[entities.IntentSearch].IntentAccuracy, 0.0001)
	require.Contains(t, summary.ByIntent, entities.IntentFilter)
	assert.InDelta(t, 0.0, summary.ByIntent[entities.IntentFilter].IntentAccuracy, 0.0001)
}

func TestRunner_SkipsFailedSearches(t *testing.T) {
	interpreter := &stubInterpreter{}
	index := &stubIndex{err: errors.New("index down")}

	runner := NewRunner(interpreter, index)
	summary, err := runner.Run(context.Background(), []GoldenQuery{
		{ID: "q1", Query: "boots", Intent: entities.IntentSearch, Difficulty: "easy"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalQueries)
	assert.Equal(t, 0, summary.QueriesWithHits)
	assert.Empty(t, summary.ByIntent)
}
