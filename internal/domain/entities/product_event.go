package entities

import (
	"time"

	"github.com/google/uuid"
)

// ProductEventType represents the kind of catalog change.
type ProductEventType string

const (
	ProductEventTypeUpserted ProductEventType = "product_upserted"
	ProductEventTypeDeleted  ProductEventType = "product_deleted"
)

// ProductEvent is a catalog change notification. The catalog service
// publishes these; the indexer consumes them to keep the search index
// in step without waiting for the next full reindex.
type ProductEvent struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	EventType ProductEventType `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewProductEvent creates a new product event.
func NewProductEvent(productID string, eventType ProductEventType) *ProductEvent {
	return &ProductEvent{
		ID:        uuid.NewString(),
		ProductID: productID,
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
