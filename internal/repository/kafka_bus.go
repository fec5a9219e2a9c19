package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	xkafka "finbot/pkg/kafka"
	applogger "finbot/pkg/logger"
)

// KafkaBus is a TickBus over Kafka topics. Ticks are keyed by symbol
// with a hash balancer, so each symbol maps to one partition and keeps
// its order.
type KafkaBus struct {
	producer *xkafka.Producer
	opts     KafkaBusOptions
	log      *applogger.Logger

	mu        sync.Mutex
	consumers map[string]*xkafka.Consumer
	cancel    []context.CancelFunc
}

// KafkaBusOptions configures the bus consumers.
type KafkaBusOptions struct {
	Brokers    []string
	GroupID    string
	Workers    int
	BufferSize int
	RetryMax   int
	BackoffMin time.Duration
	BackoffMax time.Duration
	MinBytes   int
	MaxBytes   int
}

// NewKafkaBus creates a bus with a shared producer.
func NewKafkaBus(producer *xkafka.Producer, opts KafkaBusOptions, log *applogger.Logger) *KafkaBus {
	return &KafkaBus{
		producer:  producer,
		opts:      opts,
		log:       log,
		consumers: make(map[string]*xkafka.Consumer),
	}
}

// Publish sends a tick to the topic, keyed by symbol.
func (b *KafkaBus) Publish(ctx context.Context, channel string, tick *models.MarketTick) error {
	return b.producer.Publish(ctx, channel, []byte(tick.Symbol), tick)
}

// tickMessageHandler adapts a TickHandler to the consumer pool.
type tickMessageHandler struct {
	topic   string
	handler drepo.TickHandler
	log     *applogger.Logger
}

func (h *tickMessageHandler) Topic() string { return h.topic }

func (h *tickMessageHandler) Handle(ctx context.Context, key, value []byte) error {
	var tick models.MarketTick
	if err := json.Unmarshal(value, &tick); err != nil {
		h.log.Warn("kafka bus: bad tick payload",
			applogger.String("topic", h.topic),
			applogger.Error(err),
		)
		return nil // poison message, do not retry
	}
	h.handler(&tick)
	return nil
}

// Subscribe starts a consumer group for the topic.
func (b *KafkaBus) Subscribe(channel string, handler drepo.TickHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.consumers[channel]; ok {
		return fmt.Errorf("already subscribed to %s", channel)
	}

	consumer, err := xkafka.NewConsumer(
		&tickMessageHandler{topic: channel, handler: handler, log: b.log},
		xkafka.WithConsumerBrokers(b.opts.Brokers),
		xkafka.WithConsumerGroupID(b.opts.GroupID),
		xkafka.WithConsumerWorkers(b.opts.Workers),
		xkafka.WithConsumerBufferSize(b.opts.BufferSize),
		xkafka.WithConsumerRetry(b.opts.RetryMax, b.opts.BackoffMin, b.opts.BackoffMax),
		xkafka.WithConsumerFetch(b.opts.MinBytes, b.opts.MaxBytes),
	)
	if err != nil {
		return fmt.Errorf("kafka consumer %s: %w", channel, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)
	b.consumers[channel] = consumer
	b.cancel = append(b.cancel, cancel)
	return nil
}

// Unsubscribe stops the consumer for a topic.
func (b *KafkaBus) Unsubscribe(channel string) error {
	b.mu.Lock()
	consumer, ok := b.consumers[channel]
	if ok {
		delete(b.consumers, channel)
	}
	b.mu.Unlock()
	if !ok {
		return nil
	}
	return consumer.Stop(context.Background())
}

// Close stops all consumers and the producer.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	consumers := b.consumers
	b.consumers = make(map[string]*xkafka.Consumer)
	for _, cancel := range b.cancel {
		cancel()
	}
	b.cancel = nil
	b.mu.Unlock()

	var firstErr error
	for _, c := range consumers {
		if err := c.Stop(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.producer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
