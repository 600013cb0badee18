package evaluation

import (
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

// GoldenQuery is a labeled test query with expected outcomes.
type GoldenQuery struct {
	ID               string          `json:"id"`
	Query            string          `json:"query"`
	Intent           entities.Intent `json:"intent"`
	ExpectedProducts []string        `json:"expected_products"`
	Difficulty       string          `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID       string
	Query         string
	Intent        entities.Intent
	IntentMatched bool
	RecallAt10    float64
	MRRAt10       float64
	ResultCount   int
	Latency       time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries    int
	IntentAccuracy  float64
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgLatency      time.Duration
	QueriesWithHits int // queries that returned at least 1 result
	ByIntent        map[entities.Intent]*IntentSummary
}

// IntentSummary holds metrics grouped by expected intent.
type IntentSummary struct {
	Count          int
	IntentAccuracy float64
	AvgRecallAt10  float64
	AvgMRRAt10     float64
}
