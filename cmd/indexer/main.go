package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cartloom/marketplace/backend/internal/adapters/database"
	"github.com/cartloom/marketplace/backend/internal/adapters/events"
	"github.com/cartloom/marketplace/backend/internal/adapters/search"
	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/providers"
	"github.com/cartloom/marketplace/backend/internal/domain/repositories"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/postgres"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/redis"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/clients/typesense"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/observability"
	"github.com/cartloom/marketplace/backend/pkg/config"
	apperrors "github.com/cartloom/marketplace/backend/pkg/errors"
)

const indexBatchSize = 500

func main() {
	var reset, follow bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.BoolVar(&follow, "follow", false, "apply catalog change events from Redis between reindex runs")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Fatalf("Failed to connect to Typesense: %v", err)
	}

	catalog := database.NewProductCatalogAdapter(pgClient)
	index := search.NewTypesenseAdapter(tsClient, observability.GetLogger())

	if follow {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, catalog events disabled: %v", err)
		} else {
			bus := events.NewRedisEventBus(redisClient, observability.GetLogger())
			defer bus.Close()

			eventChan, err := bus.Subscribe(ctx, providers.EventChannelProductUpdates)
			if err != nil {
				log.Printf("Warning: failed to subscribe to catalog events: %v", err)
			} else {
				go consumeEvents(ctx, eventChan, catalog, index)
				log.Println("Following catalog change events")
			}
		}
	}

	for {
		if err := indexOnce(ctx, tsClient, catalog, index, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 && !follow {
			break
		}

		reset = false
		if interval > 0 {
			log.Printf("Reindex complete. Next run in %s.", interval)
		}

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-waitOrForever(interval):
		}
	}
}

// waitOrForever returns a channel that fires after d, or never when
// d is zero (follow-only mode keeps running on events alone).
func waitOrForever(d time.Duration) <-chan time.Time {
	if d <= 0 {
		return nil
	}
	return time.After(d)
}

func indexOnce(ctx context.Context, tsClient *typesense.Client, catalog repositories.ProductCatalogRepository, index repositories.ProductSearchRepository, reset bool) error {
	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Reset requested, deleting products collection")
		_, err := tsClient.Client().Collection(typesense.ProductsCollection).Delete(ctx)
		if err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	indexed := 0
	failed := 0
	offset := 0
	for {
		products, err := catalog.List(ctx, repositories.ProductCatalogFilter{
			Limit:  indexBatchSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			break
		}

		for _, product := range products {
			if err := index.Index(ctx, product); err != nil {
				failed++
				log.Printf("Warning: failed to index product %s: %v", product.ID, err)
				continue
			}
			indexed++
		}

		offset += len(products)
	}

	log.Printf("Indexed %d products (%d failed)", indexed, failed)
	return nil
}

// consumeEvents applies catalog change events to the index until the
// channel closes.
func consumeEvents(ctx context.Context, eventChan <-chan *entities.ProductEvent, catalog repositories.ProductCatalogRepository, index repositories.ProductSearchRepository) {
	for event := range eventChan {
		switch event.EventType {
		case entities.ProductEventTypeDeleted:
			if err := index.Delete(ctx, event.ProductID); err != nil {
				log.Printf("Warning: failed to remove product %s from index: %v", event.ProductID, err)
			}
		case entities.ProductEventTypeUpserted:
			product, err := catalog.Get(ctx, event.ProductID)
			if apperrors.IsNotFound(err) {
				// Deleted between publish and read; drop it from the index.
				if err := index.Delete(ctx, event.ProductID); err != nil {
					log.Printf("Warning: failed to remove product %s from index: %v", event.ProductID, err)
				}
				continue
			}
			if err != nil {
				log.Printf("Warning: failed to load product %s: %v", event.ProductID, err)
				continue
			}
			if err := index.Index(ctx, product); err != nil {
				log.Printf("Warning: failed to index product %s: %v", product.ID, err)
			}
		default:
			log.Printf("Warning: unknown catalog event type %q", event.EventType)
		}
	}
}
