package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"finbot/internal/domain/models"
)

func TestMemoryBusDeliversInOrder(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var mu sync.Mutex
	var got []float64
	done := make(chan struct{})

	err := bus.Subscribe("market-stream", func(tick *models.MarketTick) {
		mu.Lock()
		got = append(got, tick.Price)
		if len(got) == 3 {
			close(done)
		}
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ctx := context.Background()
	for _, p := range []float64{100, 101, 102} {
		if err := bus.Publish(ctx, "market-stream", &models.MarketTick{Symbol: "BTC", Price: p}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []float64{100, 101, 102}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tick %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		once := sync.Once{}
		if err := bus.Subscribe("market-stream", func(tick *models.MarketTick) {
			once.Do(wg.Done)
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	if err := bus.Publish(context.Background(), "market-stream", &models.MarketTick{Symbol: "ETH", Price: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fan-out")
	}
}

func TestMemoryBusPublishAfterClose(t *testing.T) {
	bus := NewMemoryBus()
	bus.Close()

	err := bus.Publish(context.Background(), "market-stream", &models.MarketTick{Symbol: "BTC", Price: 1})
	if err == nil {
		t.Fatal("expected error publishing on closed bus")
	}
}

func TestMemoryBusUnsubscribeIdempotent(t *testing.T) {
	bus := NewMemoryBus()
	defer bus.Close()

	if err := bus.Unsubscribe("never-subscribed"); err != nil {
		t.Fatalf("unsubscribe unknown channel: %v", err)
	}
}
