package evaluation

import (
	"context"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
)

// QueryInterpreter runs a raw query through the understanding pipeline.
type QueryInterpreter interface {
	ProcessQuery(query string) *entities.ProcessedQuery
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	interpreter QueryInterpreter
	index       repositories.ProductSearchRepository
}

func NewRunner(interpreter QueryInterpreter, index repositories.ProductSearchRepository) *Runner {
	return &Runner{interpreter: interpreter, index: index}
}

func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByIntent:     make(map[entities.Intent]*IntentSummary),
	}

	for _, gq := range queries {
		start := time.Now()

		interpreted := r.interpreter.ProcessQuery(gq.Query)
		queryText := interpreted.ProcessedQuery
		if queryText == "" {
			queryText = gq.Query
		}

		searchResult, err := r.index.Search(ctx, repositories.ProductQuery{
			Query:   queryText,
			Filters: interpreted.Filters,
			Page:    1,
			PerPage: 10,
		})
		duration := time.Since(start)

		if err != nil {
			continue
		}

		retrieved := make([]string, len(searchResult.Products))
		for i, hit := range searchResult.Products {
			retrieved[i] = hit.Product.ID
		}

		result := EvalResult{
			QueryID:       gq.ID,
			Query:         gq.Query,
			Intent:        gq.Intent,
			IntentMatched: interpreted.Intent == gq.Intent,
			RecallAt10:    RecallAtK(gq.ExpectedProducts, retrieved, 10),
			MRRAt10:       MRRAtK(gq.ExpectedProducts, retrieved, 10),
			ResultCount:   searchResult.Found,
			Latency:       duration,
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAt10 += res.RecallAt10
	s.AvgMRRAt10 += res.MRRAt10
	s.AvgLatency += res.Latency
	if res.IntentMatched {
		s.IntentAccuracy++
	}
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}

	if _, ok := s.ByIntent[res.Intent]; !ok {
		s.ByIntent[res.Intent] = &IntentSummary{}
	}
	is := s.ByIntent[res.Intent]
	is.Count++
	is.AvgRecallAt10 += res.RecallAt10
	is.AvgMRRAt10 += res.MRRAt10
	if res.IntentMatched {
		is.IntentAccuracy++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.IntentAccuracy /= n
		s.AvgRecallAt10 /= n
		s.AvgMRRAt10 /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, is := range s.ByIntent {
		if is.Count > 0 {
			n := float64(is.Count)
			is.IntentAccuracy /= n
			is.AvgRecallAt10 /= n
			is.AvgMRRAt10 /= n
		}
	}
}
