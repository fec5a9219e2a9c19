package usecase

import (
	"context"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	mid "finbot/internal/middleware"
	applogger "finbot/pkg/logger"
)

// TickPublisher forwards validated ticks onto the bus.
type TickPublisher struct {
	bus     drepo.TickBus
	channel string
	busName string
	metrics drepo.Metrics
}

// NewTickPublisher creates the bus-publishing stage of the ingest path.
func NewTickPublisher(bus drepo.TickBus, channel, busName string, metrics drepo.Metrics) *TickPublisher {
	return &TickPublisher{bus: bus, channel: channel, busName: busName, metrics: metrics}
}

// Process publishes one tick.
func (p *TickPublisher) Process(ctx context.Context, t *models.MarketTick) error {
	if err := p.bus.Publish(ctx, p.channel, t); err != nil {
		return err
	}
	p.metrics.RecordTickPublished(p.busName, t.Symbol)
	return nil
}

// TickCollector drains the exchange stream into the ingest pipeline.
type TickCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.IngestPipeline
	metrics drepo.Metrics
	log     *applogger.Logger
}

// NewTickCollector creates a new TickCollector.
func NewTickCollector(stream drepo.MarketStream, pipe *mid.IngestPipeline, metrics drepo.Metrics, log *applogger.Logger) *TickCollector {
	return &TickCollector{stream: stream, pipe: pipe, metrics: metrics, log: log}
}

// IsConnected reports the upstream connection state.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes, and launches the consume loop.
func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	ticks, errs := c.stream.Read(ctx)
	go c.consume(ctx, ticks, errs)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, ticks <-chan *models.MarketTick, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				// read loop exited; block this arm until reconnect
				errs = nil
				continue
			}
			c.metrics.RecordError("stream")
			c.log.Warn("stream error, reconnecting", applogger.Error(err))
			// Reconnect waits the configured delay before dialing, so
			// this retry loop is rate-limited.
			for {
				if ctx.Err() != nil {
					return
				}
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.log.Error("reconnect failed", applogger.Error(rerr))
					continue
				}
				break
			}
			ticks, errs = c.stream.Read(ctx)
		case t, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			if t == nil {
				continue
			}
			c.metrics.RecordTickIngested(t.Exchange, t.Symbol)
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
			_ = c.pipe.Process(ctx, t)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}
