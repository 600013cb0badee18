package entities

import "time"

// Product is the searchable product document. The catalog itself is
// owned elsewhere; this is the shape indexed into and returned from the
// search index.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BrandName   string    `json:"brand_name"`
	Categories  []string  `json:"categories"`
	Values      []string  `json:"values"`
	Price       float64   `json:"price"`
	InStock     bool      `json:"in_stock"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoredProduct pairs a product with its final ranking score.
type ScoredProduct struct {
	Product *Product `json:"product"`
	Score   float64  `json:"score"`
}

// ProductSearchResult is a page of ranked search hits.
type ProductSearchResult struct {
	Products     []*ScoredProduct `json:"products"`
	Found        int              `json:"found"`
	Page         int              `json:"page"`
	SearchTimeMs int              `json:"search_time_ms"`
}
