package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/lib/pq"

	"github.com/cartloom/marketplace/backend/internal/adapters/events"
	"github.com/cartloom/marketplace/backend/internal/adapters/search"
	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/providers"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/postgres"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/redis"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/typesense"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/observability"
	"github.com/cartloom/marketplace/backend/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	brand_name TEXT NOT NULL DEFAULT '',
	categories TEXT[] NOT NULL DEFAULT '{}',
	"values" TEXT[] NOT NULL DEFAULT '{}',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	in_stock BOOLEAN NOT NULL DEFAULT TRUE,
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	start_time TIMESTAMPTZ NOT NULL,
	last_activity_time TIMESTAMPTZ NOT NULL,
	search_queries TEXT[] NOT NULL DEFAULT '{}',
	clicked_results TEXT[] NOT NULL DEFAULT '{}',
	viewed_categories TEXT[] NOT NULL DEFAULT '{}',
	viewed_brands TEXT[] NOT NULL DEFAULT '{}',
	filters JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS session_interactions (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	timestamp TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_session_interactions_session
	ON session_interactions (session_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS search_analytics (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL DEFAULT '',
	query TEXT NOT NULL,
	processed_query TEXT NOT NULL DEFAULT '',
	intent TEXT NOT NULL DEFAULT '',
	result_count INT NOT NULL DEFAULT 0,
	latency_ms INT NOT NULL DEFAULT 0,
	personalized BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_search_analytics_zero_results
	ON search_analytics (created_at DESC) WHERE result_count = 0;
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			DROP TABLE IF EXISTS
				session_interactions,
				sessions,
				search_analytics,
				products
			CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("Schema ready")

	var productIndex *search.TypesenseAdapter
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Typesense unavailable, seeding DB only: %v", err)
	} else {
		if err := tsClient.InitSchema(ctx); err != nil {
			log.Printf("Warning: failed to init Typesense schema: %v", err)
		}
		productIndex = search.NewTypesenseAdapter(tsClient, observability.GetLogger())
	}

	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Redis unavailable, skipping catalog events: %v", err)
	} else {
		eventBus = events.NewRedisEventBus(redisClient, observability.GetLogger())
		defer eventBus.Close()
	}

	products := []entities.Product{
		{
			ID:          "prod-trail-runner-pro",
			Name:        "Trail Runner Pro",
			Description: "Lightweight trail running shoe with recycled mesh upper",
			BrandName:   "Veloce",
			Categories:  []string{"footwear", "running"},
			Values:      []string{"sustainable"},
			Price:       129.99,
			InStock:     true,
			Rating:      4.6,
		},
		{
			ID:          "prod-classic-leather-boots",
			Name:        "Classic Leather Boots",
			Description: "Full-grain leather boots with stitched welt sole",
			BrandName:   "Northway",
			Categories:  []string{"footwear", "boots"},
			Values:      []string{"handmade"},
			Price:       189.00,
			InStock:     true,
			Rating:      4.8,
		},
		{
			ID:          "prod-organic-cotton-tote",
			Name:        "Organic Cotton Tote",
			Description: "Everyday tote bag in certified organic cotton",
			BrandName:   "Loom & Field",
			Categories:  []string{"bags"},
			Values:      []string{"organic", "fair trade"},
			Price:       34.50,
			InStock:     true,
			Rating:      4.3,
		},
		{
			ID:          "prod-rain-shell-jacket",
			Name:        "Rain Shell Jacket",
			Description: "Packable waterproof shell for city commutes",
			BrandName:   "Veloce",
			Categories:  []string{"outerwear"},
			Values:      nil,
			Price:       94.00,
			InStock:     false,
			Rating:      4.1,
		},
		{
			ID:          "prod-linen-summer-dress",
			Name:        "Linen Summer Dress",
			Description: "Breathable linen dress in natural dye",
			BrandName:   "Loom & Field",
			Categories:  []string{"dresses"},
			Values:      []string{"sustainable", "ethical"},
			Price:       58.00,
			InStock:     true,
			Rating:      4.5,
		},
	}

	seeded := 0
	for i := range products {
		product := &products[i]
		product.CreatedAt = time.Now()

		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO products
			(id, name, description, brand_name, categories, "values", price, in_stock, rating, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			product.ID,
			product.Name,
			product.Description,
			product.BrandName,
			pq.Array(product.Categories),
			pq.Array(product.Values),
			product.Price,
			product.InStock,
			product.Rating,
			product.CreatedAt,
		)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", product.Name, err)
			continue
		}

		if productIndex != nil {
			if err := productIndex.Index(ctx, product); err != nil {
				log.Printf("Failed to index product %s: %v", product.Name, err)
			}
		}
		if eventBus != nil {
			event := entities.NewProductEvent(product.ID, entities.ProductEventTypeUpserted)
			if err := eventBus.Publish(ctx, providers.EventChannelProductUpdates, event); err != nil {
				log.Printf("Failed to publish event for product %s: %v", product.Name, err)
			}
		}
		seeded++
	}

	log.Printf("Seeded %d products", seeded)
}
