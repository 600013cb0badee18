package repositories

import (
	"context"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

// ProductQuery is the fully-resolved input to the search index: the
// processed query text, the structured filters derived from it, and
// per-product ranking boosts from session personalization.
type ProductQuery struct {
	Query   string
	Filters entities.SearchFilters
	// Boosts maps product ids to additive score boosts.
	Boosts  map[string]float64
	Page    int
	PerPage int
}

// ProductSearchRepository defines the interface to the full-text
// product index. The index itself is an external collaborator; this
// core only produces its inputs and consumes its ranked output.
type ProductSearchRepository interface {
	// Search runs a product query and returns ranked hits.
	Search(ctx context.Context, query ProductQuery) (*entities.ProductSearchResult, error)

	// Index upserts a product document.
	Index(ctx context.Context, product *entities.Product) error

	// Delete removes a product document.
	Delete(ctx context.Context, id string) error
}
