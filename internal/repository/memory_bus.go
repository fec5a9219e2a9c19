package repository

import (
	"context"
	"fmt"
	"sync"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
)

// MemoryBus is an in-process TickBus. Each channel runs one dispatch
// goroutine so handlers see ticks in publish order.
type MemoryBus struct {
	mu     sync.Mutex
	chans  map[string]*memoryChannel
	closed bool
}

type memoryChannel struct {
	ticks    chan *models.MarketTick
	handlers []drepo.TickHandler
	mu       sync.RWMutex
	done     chan struct{}
}

// NewMemoryBus creates an in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{chans: make(map[string]*memoryChannel)}
}

func (b *MemoryBus) channel(name string) *memoryChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.chans[name]
	if !ok {
		ch = &memoryChannel{
			ticks: make(chan *models.MarketTick, 1024),
			done:  make(chan struct{}),
		}
		b.chans[name] = ch
		go ch.dispatch()
	}
	return ch
}

func (c *memoryChannel) dispatch() {
	for {
		select {
		case <-c.done:
			return
		case tick, ok := <-c.ticks:
			if !ok {
				return
			}
			c.mu.RLock()
			handlers := c.handlers
			c.mu.RUnlock()
			for _, h := range handlers {
				h(tick)
			}
		}
	}
}

// Publish delivers a tick to all current subscribers of the channel.
func (b *MemoryBus) Publish(ctx context.Context, channel string, tick *models.MarketTick) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bus closed")
	}
	b.mu.Unlock()

	ch := b.channel(channel)
	select {
	case ch.ticks <- tick:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a handler. Handlers on the same channel run
// serially in publish order.
func (b *MemoryBus) Subscribe(channel string, handler drepo.TickHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	ch := b.channel(channel)
	ch.mu.Lock()
	ch.handlers = append(ch.handlers, handler)
	ch.mu.Unlock()
	return nil
}

// Unsubscribe drops all handlers and stops the channel's dispatcher.
func (b *MemoryBus) Unsubscribe(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.chans[channel]
	if !ok {
		return nil
	}
	delete(b.chans, channel)
	close(ch.done)
	return nil
}

// Close stops all channels.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for name, ch := range b.chans {
		close(ch.done)
		delete(b.chans, name)
	}
	return nil
}
