package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// InteractionType enumerates the tracked user actions.
type InteractionType string

const (
	InteractionSearch     InteractionType = "search"
	InteractionClick      InteractionType = "click"
	InteractionView       InteractionType = "view"
	InteractionFilter     InteractionType = "filter"
	InteractionSort       InteractionType = "sort"
	InteractionImpression InteractionType = "impression"
	InteractionDwell      InteractionType = "dwell"
	InteractionAddToCart  InteractionType = "add_to_cart"
	InteractionPurchase   InteractionType = "purchase"
)

// ValidInteractionType reports whether t is a known interaction type.
func ValidInteractionType(t InteractionType) bool {
	switch t {
	case InteractionSearch, InteractionClick, InteractionView,
		InteractionFilter, InteractionSort, InteractionImpression,
		InteractionDwell, InteractionAddToCart, InteractionPurchase:
		return true
	}
	return false
}

// Session is one client browsing session. Created lazily on first
// reference; never deleted by this subsystem.
type Session struct {
	ID               string    `json:"id" db:"id"`
	SessionID        string    `json:"session_id" db:"session_id"`
	StartTime        time.Time `json:"start_time" db:"start_time"`
	LastActivityTime time.Time `json:"last_activity_time" db:"last_activity_time"`

	// Denormalized convenience lists, append-only.
	SearchQueries    []string            `json:"search_queries" db:"search_queries"`
	ClickedResults   []string            `json:"clicked_results" db:"clicked_results"`
	ViewedCategories []string            `json:"viewed_categories" db:"viewed_categories"`
	ViewedBrands     []string            `json:"viewed_brands" db:"viewed_brands"`
	Filters          []map[string]string `json:"filters" db:"filters"`
}

// Interaction is a single tracked user action belonging to exactly one
// session. Immutable once written.
type Interaction struct {
	ID         string             `json:"id" db:"id"`
	SessionID  string             `json:"session_id" db:"session_id"`
	Type       InteractionType    `json:"type" db:"type"`
	Payload    InteractionPayload `json:"data"`
	DurationMs int64              `json:"duration_ms,omitempty" db:"duration_ms"`
	Timestamp  time.Time          `json:"timestamp" db:"timestamp"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

// InteractionPayload is the closed set of per-type interaction data.
// Each variant carries only the fields its scoring logic reads, which
// turns missing-field handling into plain zero-value checks.
type InteractionPayload interface {
	interactionPayload()
}

// ClickPayload records a click on a search result.
type ClickPayload struct {
	ResultID string `json:"resultId"`
}

// DwellPayload records time spent on a result; the duration lives on
// the interaction itself.
type DwellPayload struct {
	ResultID string `json:"resultId"`
}

// ImpressionPayload records the results shown on a page.
type ImpressionPayload struct {
	ResultIDs []string `json:"resultIds"`
}

// SearchPayload records a submitted search query.
type SearchPayload struct {
	Query string `json:"query"`
}

// FilterPayload records a filter application.
type FilterPayload struct {
	FilterType  string `json:"filterType"`
	FilterValue string `json:"filterValue"`
}

// ViewPayload records a category or brand page view. TargetType is
// "category" or "brand".
type ViewPayload struct {
	TargetType string `json:"type"`
	CategoryID string `json:"categoryId,omitempty"`
	BrandID    string `json:"brandId,omitempty"`
}

// OpaquePayload carries data for the interaction types this subsystem
// stores but does not score (sort, add_to_cart, purchase).
type OpaquePayload map[string]any

func (ClickPayload) interactionPayload()      {}
func (DwellPayload) interactionPayload()      {}
func (ImpressionPayload) interactionPayload() {}
func (SearchPayload) interactionPayload()     {}
func (FilterPayload) interactionPayload()     {}
func (ViewPayload) interactionPayload()       {}
func (OpaquePayload) interactionPayload()     {}

// EncodePayload serializes a payload for storage.
func EncodePayload(p InteractionPayload) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// DecodePayload deserializes a stored payload into the variant for the
// given interaction type.
func DecodePayload(t InteractionType, raw []byte) (InteractionPayload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch t {
	case InteractionClick:
		var p ClickPayload
		return p, json.Unmarshal(raw, &p)
	case InteractionDwell:
		var p DwellPayload
		return p, json.Unmarshal(raw, &p)
	case InteractionImpression:
		var p ImpressionPayload
		return p, json.Unmarshal(raw, &p)
	case InteractionSearch:
		var p SearchPayload
		return p, json.Unmarshal(raw, &p)
	case InteractionFilter:
		var p FilterPayload
		return p, json.Unmarshal(raw, &p)
	case InteractionView:
		var p ViewPayload
		return p, json.Unmarshal(raw, &p)
	case InteractionSort, InteractionAddToCart, InteractionPurchase:
		var p OpaquePayload
		return p, json.Unmarshal(raw, &p)
	}
	return nil, fmt.Errorf("unknown interaction type %q", t)
}

// PayloadFromMap converts a loosely-typed payload (as received over the
// wire) into the typed variant for the given interaction type.
func PayloadFromMap(t InteractionType, data map[string]any) (InteractionPayload, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return DecodePayload(t, raw)
}
