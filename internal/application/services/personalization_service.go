package services

import (
	"sort"
	"strings"

	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/rs/zerolog"
)

// Boost scaling factors per weight-profile bucket. Entity weights
// apply at full strength; the softer signals are discounted.
const (
	entityBoostFactor   = 1.0
	categoryBoostFactor = 0.8
	brandBoostFactor    = 0.8
	queryBoostFactor    = 0.7
	filterBoostFactor   = 0.6
)

// PersonalizationService converts a session weight profile into ranking
// boosts. It is stateless; an empty profile produces no boosts and
// leaves the base ranking untouched.
type PersonalizationService struct {
	logger *zerolog.Logger
}

// NewPersonalizationService creates a new personalization service.
func NewPersonalizationService(logger *zerolog.Logger) *PersonalizationService {
	return &PersonalizationService{logger: logger}
}

// BoostMap returns per-product-id boosts derived from direct entity
// weights (clicks, dwells, impressions). These are the only boosts
// resolvable before retrieval, so they are pushed down into the search
// query; the content-based signals apply in Rerank afterwards.
func (s *PersonalizationService) BoostMap(profile *entities.WeightProfile) map[string]float64 {
	if profile == nil || len(profile.Entities) == 0 {
		return nil
	}
	boosts := make(map[string]float64, len(profile.Entities))
	for productID, weight := range profile.Entities {
		boosts[productID] = weight * entityBoostFactor
	}
	return boosts
}

// Rerank adds content-based boosts (category, brand, query, and value
// filter affinity) to each hit's score and re-sorts. The sort is
// stable, so ties keep the upstream relevance order.
func (s *PersonalizationService) Rerank(products []*entities.ScoredProduct, profile *entities.WeightProfile) {
	if profile == nil || profile.IsEmpty() {
		return
	}

	for _, scored := range products {
		scored.Score += s.contentBoost(scored.Product, profile)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Score > products[j].Score
	})
}

// contentBoost scores a product against the profile's category, brand,
// query, and filter buckets. Entity weights are deliberately excluded
// here; they were already folded in via BoostMap.
func (s *PersonalizationService) contentBoost(product *entities.Product, profile *entities.WeightProfile) float64 {
	if product == nil {
		return 0
	}

	boost := 0.0

	for _, category := range product.Categories {
		boost += profile.Categories[category] * categoryBoostFactor
	}
	boost += profile.Brands[product.BrandName] * brandBoostFactor

	if len(profile.Queries) > 0 {
		haystack := strings.ToLower(product.Name + " " + product.Description)
		for query, weight := range profile.Queries {
			if query != "" && strings.Contains(haystack, strings.ToLower(query)) {
				boost += weight * queryBoostFactor
			}
		}
	}

	// filter affinity only applies for the value/ethics facet; the
	// category and brand facets are already mirrored into their own
	// buckets when the filter interaction is scored
	for _, value := range product.Values {
		boost += profile.Filters["value:"+value] * filterBoostFactor
	}

	return boost
}
