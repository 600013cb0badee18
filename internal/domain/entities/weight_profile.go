package entities

// WeightProfile holds the accumulated, recency-decayed scores of a
// session's interactions. Keys are product ids, category ids, brand
// ids, raw query strings, and "filterType:filterValue" pairs. Scores
// are sums over all historical, recency-discounted interactions; they
// are unbounded above and never negative.
//
// A profile is recomputed in full from the interaction history on every
// request. Nothing is cached or mutated incrementally, which keeps the
// result correct under concurrent writes at an acceptable recompute
// cost for per-session interaction volumes.
type WeightProfile struct {
	Entities   map[string]float64 `json:"entities"`
	Categories map[string]float64 `json:"categories"`
	Brands     map[string]float64 `json:"brands"`
	Queries    map[string]float64 `json:"queries"`
	Filters    map[string]float64 `json:"filters"`
}

// NewWeightProfile returns a profile with all maps initialized and
// empty. An empty profile means "no personalization available", never
// an error condition.
func NewWeightProfile() *WeightProfile {
	return &WeightProfile{
		Entities:   make(map[string]float64),
		Categories: make(map[string]float64),
		Brands:     make(map[string]float64),
		Queries:    make(map[string]float64),
		Filters:    make(map[string]float64),
	}
}

// IsEmpty reports whether the profile carries no signal.
func (p *WeightProfile) IsEmpty() bool {
	return len(p.Entities) == 0 && len(p.Categories) == 0 &&
		len(p.Brands) == 0 && len(p.Queries) == 0 && len(p.Filters) == 0
}
