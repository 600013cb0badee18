//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartloom/marketplace/backend/internal/adapters/events"
	"github.com/cartloom/marketplace/backend/internal/domain/entities"
	"github.com/cartloom/marketplace/backend/internal/domain/providers"
	"github.com/cartloom/marketplace/backend/internal/infrastructure/observability"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient, observability.GetLogger())
	defer eventBus.Close()

	channel := providers.EventChannelProductUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewProductEvent("prod-bus-1", entities.ProductEventTypeUpserted)

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForProductEvent(t, sub1)
	received2 := waitForProductEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, "prod-bus-1", received1.ProductID)
	assert.Equal(t, entities.ProductEventTypeUpserted, received1.EventType)
}

func TestRedisEventBusUnsubscribeIntegration(t *testing.T) {
	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient, observability.GetLogger())
	defer eventBus.Close()

	channel := providers.EventChannelProductUpdates
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := eventBus.Subscribe(ctx, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, eventBus.Unsubscribe(context.Background(), channel))

	err = eventBus.Publish(context.Background(),
		channel, entities.NewProductEvent("prod-bus-2", entities.ProductEventTypeDeleted))
	require.NoError(t, err)

	select {
	case event, ok := <-sub:
		if ok {
			t.Fatalf("received event %s after unsubscribe", event.ID)
		}
	case <-time.After(500 * time.Millisecond):
	}
}

func waitForProductEvent(t *testing.T, ch <-chan *entities.ProductEvent) *entities.ProductEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for product event")
		return nil
	}
}
