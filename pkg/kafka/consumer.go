package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes messages from a single topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, key, value []byte) error
}

// Consumer reads from a consumer group and dispatches to a worker pool.
// Messages for the same partition are handled serially so per-key
// ordering survives the pool.
type Consumer struct {
	cfg      *ConsumerConfig
	reader   *kafka.Reader
	handler  MessageHandler
	msgs     chan kafka.Message
	partLock map[int]*sync.Mutex
	mu       sync.Mutex
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	closed   bool
}

// NewConsumer creates a consumer group reader for the handler's topic.
func NewConsumer(handler MessageHandler, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		WorkerCount: 4,
		BufferSize:  256,
		RetryMax:    3,
		BackoffMin:  100 * time.Millisecond,
		BackoffMax:  5 * time.Second,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("group id is required")
	}
	if handler == nil || handler.Topic() == "" {
		return nil, fmt.Errorf("handler with topic is required")
	}

	initConsumerMetricsOnce()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    handler.Topic(),
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		cfg:      cfg,
		reader:   reader,
		handler:  handler,
		msgs:     make(chan kafka.Message, cfg.BufferSize),
		partLock: make(map[int]*sync.Mutex),
	}, nil
}

// Start begins fetching and dispatching messages. It returns once the
// fetch loop and workers are running.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}

	c.wg.Add(1)
	go c.fetchLoop(ctx)
}

func (c *Consumer) fetchLoop(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.msgs)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoffWithJitter(1, c.cfg.BackoffMin, c.cfg.BackoffMax)):
			}
			continue
		}

		select {
		case c.msgs <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) worker(ctx context.Context) {
	defer c.wg.Done()

	for msg := range c.msgs {
		c.process(ctx, msg)
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	lock := c.partitionLock(msg.Partition)
	lock.Lock()
	defer lock.Unlock()

	// a panicking handler must not take the whole pool down
	defer func() {
		if r := recover(); r != nil {
			consumerPanicsTotal.WithLabelValues(c.handler.Topic()).Inc()
		}
	}()

	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoffWithJitter(attempt, c.cfg.BackoffMin, c.cfg.BackoffMax)):
			}
		}
		if err = c.handler.Handle(ctx, msg.Key, msg.Value); err == nil {
			break
		}
	}
	if err != nil {
		consumerErrsTotal.WithLabelValues(c.handler.Topic()).Inc()
	}

	// commit regardless: a poison message must not wedge the partition
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if cerr := c.reader.CommitMessages(ctx, msg); cerr == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoffWithJitter(attempt+1, c.cfg.BackoffMin, c.cfg.BackoffMax)):
		}
	}
}

func (c *Consumer) partitionLock(partition int) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.partLock[partition]
	if !ok {
		lock = &sync.Mutex{}
		c.partLock[partition] = lock
	}
	return lock
}

// Stop cancels the fetch loop and waits for in-flight messages, bounded
// by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return c.reader.Close()
}

var (
	consumerOnce        sync.Once
	consumerErrsTotal   *prometheus.CounterVec
	consumerPanicsTotal *prometheus.CounterVec
)

func initConsumerMetricsOnce() {
	consumerOnce.Do(func() {
		consumerErrsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_kafka_consumer_handler_errors_total",
				Help: "Messages dropped after exhausting handler retries",
			},
			[]string{"topic"},
		)
		consumerPanicsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbot_kafka_consumer_handler_panics_total",
				Help: "Panics recovered from message handlers",
			},
			[]string{"topic"},
		)
	})
}

func backoffWithJitter(attempt int, min, max time.Duration) time.Duration {
	d := min << uint(attempt-1)
	if d > max || d <= 0 {
		d = max
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d/2 + jitter
}
