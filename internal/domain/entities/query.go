package entities

// Intent is the coarse classification of what a search query is trying
// to do.
type Intent string

const (
	IntentSearch Intent = "search"
	IntentFilter Intent = "filter"
	IntentSort   Intent = "sort"
)

// QueryEntityType identifies a typed sub-span recognized inside a
// search string.
type QueryEntityType string

const (
	EntityPriceRange QueryEntityType = "priceRange"
	EntityMinPrice   QueryEntityType = "minPrice"
	EntityMaxPrice   QueryEntityType = "maxPrice"
	EntityCategory   QueryEntityType = "category"
	EntityBrand      QueryEntityType = "brand"
	EntityValue      QueryEntityType = "value"
)

// QueryEntity is a recognized sub-span of a search query.
type QueryEntity struct {
	Type  QueryEntityType `json:"type"`
	Value string          `json:"value"`
}

// SearchFilters holds the structured filters derived from a query.
// Derived purely from the extracted entities plus keyword triggers;
// no external state is consulted.
type SearchFilters struct {
	PriceMin   *float64 `json:"price_min,omitempty"`
	PriceMax   *float64 `json:"price_max,omitempty"`
	Categories []string `json:"categories,omitempty"`
	BrandName  string   `json:"brand_name,omitempty"`
	Values     []string `json:"values,omitempty"`
	InStock    bool     `json:"in_stock,omitempty"`
}

// IsEmpty reports whether no filter field is set.
func (f *SearchFilters) IsEmpty() bool {
	return f.PriceMin == nil && f.PriceMax == nil &&
		len(f.Categories) == 0 && f.BrandName == "" &&
		len(f.Values) == 0 && !f.InStock
}

// ProcessedQuery is the result of running a raw search string through
// the query understanding pipeline. It is computed per request and
// never persisted.
type ProcessedQuery struct {
	OriginalQuery  string        `json:"original_query"`
	ProcessedQuery string        `json:"processed_query"`
	Tokens         []string      `json:"tokens"`
	Stems          []string      `json:"stems"`
	Entities       []QueryEntity `json:"entities"`
	Intent         Intent        `json:"intent"`
	Filters        SearchFilters `json:"filters"`
}

// DegradedQuery returns the fallback result used when the pipeline
// fails internally: the raw query passes through untouched and all
// derived fields are empty. Query understanding is an enhancement, so
// callers always get a structurally valid result.
func DegradedQuery(query string) *ProcessedQuery {
	return &ProcessedQuery{
		OriginalQuery:  query,
		ProcessedQuery: query,
		Tokens:         []string{},
		Stems:          []string{},
		Entities:       []QueryEntity{},
		Intent:         IntentSearch,
		Filters:        SearchFilters{},
	}
}
