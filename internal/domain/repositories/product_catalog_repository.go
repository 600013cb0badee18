package repositories

import (
	"context"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
)

// ProductCatalogFilter narrows a catalog listing.
type ProductCatalogFilter struct {
	// InStockOnly restricts to currently purchasable products.
	InStockOnly bool
	Limit       int
	Offset      int
}

// ProductCatalogRepository reads the product catalog from its system
// of record. The catalog is owned by another service; this subsystem
// only reads it to feed the search index.
type ProductCatalogRepository interface {
	Get(ctx context.Context, id string) (*entities.Product, error)
	List(ctx context.Context, filter ProductCatalogFilter) ([]*entities.Product, error)
}
