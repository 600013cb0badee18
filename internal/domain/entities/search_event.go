package entities

import "time"

// SearchEvent represents a single search interaction for analytics.
type SearchEvent struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"session_id,omitempty" db:"session_id"`
	Query          string    `json:"query" db:"query"`
	ProcessedQuery string    `json:"processed_query" db:"processed_query"`
	Intent         string    `json:"intent" db:"intent"`
	ResultCount    int       `json:"result_count" db:"result_count"`
	LatencyMs      int       `json:"latency_ms" db:"latency_ms"`
	Personalized   bool      `json:"personalized" db:"personalized"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// QueryFrequency is an aggregate row: how often a query was searched.
type QueryFrequency struct {
	Query string `json:"query" db:"query"`
	Count int    `json:"count" db:"count"`
}
