package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	applogger "finbot/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisBus is a TickBus over Redis pub/sub. Redis delivers per-channel
// messages in publish order, so the ordering contract holds as long as
// a single publisher owns a channel.
type RedisBus struct {
	client *redis.Client
	log    *applogger.Logger

	mu   sync.Mutex
	subs map[string]*redisSubscription
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// NewRedisBus creates a bus over an existing Redis client.
func NewRedisBus(client *redis.Client, log *applogger.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		log:    log,
		subs:   make(map[string]*redisSubscription),
	}
}

// Publish sends a tick as JSON to the channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, tick *models.MarketTick) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe starts a receive loop that decodes ticks and invokes the
// handler serially.
func (b *RedisBus) Subscribe(channel string, handler drepo.TickHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[channel]; ok {
		return fmt.Errorf("already subscribed to %s", channel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, channel)
	b.subs[channel] = &redisSubscription{pubsub: pubsub, cancel: cancel}

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var tick models.MarketTick
				if err := json.Unmarshal([]byte(msg.Payload), &tick); err != nil {
					b.log.Warn("redis bus: bad tick payload",
						applogger.String("channel", channel),
						applogger.Error(err),
					)
					continue
				}
				handler(&tick)
			}
		}
	}()

	return nil
}

// Unsubscribe stops the receive loop for a channel.
func (b *RedisBus) Unsubscribe(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[channel]
	if !ok {
		return nil
	}
	delete(b.subs, channel)
	sub.cancel()
	return sub.pubsub.Close()
}

// Close stops all subscriptions. The shared Redis client is owned by
// the caller and stays open.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var firstErr error
	for channel, sub := range b.subs {
		sub.cancel()
		if err := sub.pubsub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(b.subs, channel)
	}
	return firstErr
}
