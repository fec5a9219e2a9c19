package usecase

import (
	"context"
	"sync"
	"time"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	applogger "finbot/pkg/logger"
)

// SnapshotSink receives snapshots for delivery to connected clients.
// Broadcast returns the number of sessions the snapshot was sent to.
type SnapshotSink interface {
	Broadcast(symbol string, snapshot *models.MarketSnapshot) int
	HasSubscribers(symbol string) bool
}

// Broadcaster periodically reads the latest snapshot per symbol and
// pushes it to the sink. Store reads are asynchronous so a slow Redis
// never stalls the send loop.
type Broadcaster struct {
	store    drepo.SnapshotRepository
	sink     SnapshotSink
	metrics  drepo.Metrics
	log      *applogger.Logger
	symbols  []string
	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBroadcaster creates the broadcaster.
func NewBroadcaster(store drepo.SnapshotRepository, sink SnapshotSink, metrics drepo.Metrics, log *applogger.Logger, symbols []string, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = time.Second
	}
	return &Broadcaster{
		store:    store,
		sink:     sink,
		metrics:  metrics,
		log:      log,
		symbols:  symbols,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the broadcast loop.
func (b *Broadcaster) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stopCh:
				return
			case <-ticker.C:
				b.broadcastAll(ctx)
			}
		}
	}()
}

// Stop halts the broadcast loop.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

func (b *Broadcaster) broadcastAll(ctx context.Context) {
	for _, symbol := range b.symbols {
		// skip symbols nobody is watching
		if !b.sink.HasSubscribers(symbol) {
			continue
		}
		symbol := symbol
		results := b.store.FindLatestAsync(ctx, symbol)
		go func() {
			res, ok := <-results
			if !ok {
				return
			}
			if res.Err != nil {
				b.metrics.RecordError("broadcast_read")
				b.log.Warn("broadcast read failed",
					applogger.String("symbol", symbol),
					applogger.Error(res.Err),
				)
				return
			}
			if res.Snapshot == nil {
				b.log.Debug("no snapshot to broadcast", applogger.String("symbol", symbol))
				return
			}
			sent := b.sink.Broadcast(symbol, res.Snapshot)
			if sent > 0 {
				b.metrics.RecordBroadcast(symbol, sent)
			}
		}()
	}
}
