package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	tsclient "github.com/cartloom/marketplace/backend/internal/infrastructure/clients/typesense"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const collectionName = tsclient.ProductsCollection

// TypesenseAdapter implements product search using Typesense. All
// index calls run behind a circuit breaker so a struggling index fails
// fast instead of stacking up timeouts.
type TypesenseAdapter struct {
	client  *tsclient.Client
	breaker *gobreaker.CircuitBreaker
}

// Ensure TypesenseAdapter implements ProductSearchRepository
var _ repositories.ProductSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client, logger *zerolog.Logger) *TypesenseAdapter {
	return &TypesenseAdapter{
		client:  client,
		breaker: newSearchBreaker("typesense-products", logger),
	}
}

// Index upserts a product document
func (a *TypesenseAdapter) Index(ctx context.Context, product *entities.Product) error {
	document := map[string]interface{}{
		"id":          product.ID,
		"name":        product.Name,
		"description": product.Description,
		"brand_name":  product.BrandName,
		"categories":  product.Categories,
		"values":      product.Values,
		"price":       product.Price,
		"in_stock":    product.InStock,
		"rating":      product.Rating,
		"created_at":  product.CreatedAt.Unix(),
	}

	_, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	})
	if err != nil {
		return wrapBreakerError(fmt.Errorf("failed to index product: %w", err))
	}
	return nil
}

// Delete removes a product from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	})
	if err != nil {
		return wrapBreakerError(fmt.Errorf("failed to delete product from index: %w", err))
	}
	return nil
}

// Search runs a product query and returns ranked hits. Personalization
// boosts fold into a rank-based base score client-side; Typesense has
// no per-document boost parameter on this API.
func (a *TypesenseAdapter) Search(ctx context.Context, query repositories.ProductQuery) (*entities.ProductSearchResult, error) {
	q := query.Query
	if q == "" {
		q = "*"
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,description,brand_name,categories"),
		Page:    pointer.Int(query.Page),
		PerPage: pointer.Int(query.PerPage),
	}
	if filterBy := buildFilterBy(query.Filters); filterBy != "" {
		searchParams.FilterBy = pointer.String(filterBy)
	}

	raw, err := a.breaker.Execute(func() (interface{}, error) {
		return a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	})
	if err != nil {
		return nil, wrapBreakerError(fmt.Errorf("failed to search products: %w", err))
	}
	result := raw.(*api.SearchResult)

	products := []*entities.ScoredProduct{}
	if result.Hits != nil {
		for i, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			product := documentToProduct(*hit.Document)
			score := 1.0 / float64(1+i)
			if query.Boosts != nil {
				score += query.Boosts[product.ID]
			}
			products = append(products, &entities.ScoredProduct{Product: product, Score: score})
		}
	}

	if len(query.Boosts) > 0 {
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Score > products[j].Score
		})
	}

	found := 0
	if result.Found != nil {
		found = *result.Found
	}
	took := 0
	if result.SearchTimeMs != nil {
		took = *result.SearchTimeMs
	}

	return &entities.ProductSearchResult{
		Products:     products,
		Found:        found,
		Page:         query.Page,
		SearchTimeMs: took,
	}, nil
}

// buildFilterBy renders structured filters into Typesense filter
// syntax.
func buildFilterBy(filters entities.SearchFilters) string {
	parts := []string{}

	if filters.PriceMin != nil {
		parts = append(parts, fmt.Sprintf("price:>=%g", *filters.PriceMin))
	}
	if filters.PriceMax != nil {
		parts = append(parts, fmt.Sprintf("price:<=%g", *filters.PriceMax))
	}
	if len(filters.Categories) > 0 {
		quoted := make([]string, len(filters.Categories))
		for i, category := range filters.Categories {
			quoted[i] = "`" + category + "`"
		}
		parts = append(parts, fmt.Sprintf("categories:=[%s]", strings.Join(quoted, ",")))
	}
	if filters.BrandName != "" {
		parts = append(parts, fmt.Sprintf("brand_name:=`%s`", filters.BrandName))
	}
	for _, value := range filters.Values {
		parts = append(parts, fmt.Sprintf("values:=`%s`", value))
	}
	if filters.InStock {
		parts = append(parts, "in_stock:=true")
	}

	return strings.Join(parts, " && ")
}

// documentToProduct rebuilds a product entity from a Typesense
// document. Typesense returns loosely-typed maps; missing or mistyped
// fields stay at their zero value.
func documentToProduct(doc map[string]interface{}) *entities.Product {
	product := &entities.Product{}

	if v, ok := doc["id"].(string); ok {
		product.ID = v
	}
	if v, ok := doc["name"].(string); ok {
		product.Name = v
	}
	if v, ok := doc["description"].(string); ok {
		product.Description = v
	}
	if v, ok := doc["brand_name"].(string); ok {
		product.BrandName = v
	}
	product.Categories = toStringSlice(doc["categories"])
	product.Values = toStringSlice(doc["values"])
	if v, ok := doc["price"].(float64); ok {
		product.Price = v
	}
	if v, ok := doc["in_stock"].(bool); ok {
		product.InStock = v
	}
	if v, ok := doc["rating"].(float64); ok {
		product.Rating = v
	}
	if v, ok := doc["created_at"].(float64); ok {
		product.CreatedAt = time.Unix(int64(v), 0).UTC()
	}

	return product
}

func toStringSlice(value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
