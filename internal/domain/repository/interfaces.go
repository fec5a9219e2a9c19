package repository

import (
	"context"

	"finbot/internal/domain/models"
)

// MarketStream is the upstream exchange connection.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.MarketTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickHandler consumes ticks delivered by a bus subscription.
// Invoked serially per channel.
type TickHandler func(tick *models.MarketTick)

// TickBus is the pub/sub transport between ingest and analytics.
// Delivery is at-least-once per subscriber; order is preserved per
// publisher and channel. No persistence: a restarting subscriber may miss
// in-flight ticks, which the sliding-window semantics tolerate.
type TickBus interface {
	Publish(ctx context.Context, channel string, tick *models.MarketTick) error
	Subscribe(channel string, handler TickHandler) error
	Unsubscribe(channel string) error
	Close() error
}

// SnapshotResult is the outcome of an asynchronous snapshot read.
type SnapshotResult struct {
	Snapshot *models.MarketSnapshot
	Err      error
}

// SnapshotRepository stores the latest snapshot per symbol under
// latest_snapshot:<symbol>. FindLatest returns (nil, nil) when no snapshot
// exists. FindLatestAsync must be used from loops that may not block.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *models.MarketSnapshot) error
	FindLatest(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
	FindLatestAsync(ctx context.Context, symbol string) <-chan SnapshotResult
	Delete(ctx context.Context, symbol string) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordTickIngested(exchange, symbol string)
	RecordTickPublished(bus, symbol string)
	RecordSnapshotGenerated(symbol, regime string)
	RecordBroadcast(symbol string, sessions int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
