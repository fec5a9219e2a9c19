package usecase

import (
	"sync"

	"finbot/internal/domain/models"
)

// DefaultWindowSize is the per-symbol tick capacity. Appending past
// capacity evicts the oldest tick.
const DefaultWindowSize = 500

// TickWindow is a fixed-capacity sliding window of ticks for one
// symbol, backed by a ring buffer.
type TickWindow struct {
	mu    sync.RWMutex
	buf   []*models.MarketTick
	head  int // index of the oldest element
	count int
}

// NewTickWindow creates a window with the given capacity.
func NewTickWindow(capacity int) *TickWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &TickWindow{buf: make([]*models.MarketTick, capacity)}
}

// Append adds a tick, evicting the oldest when full.
func (w *TickWindow) Append(tick *models.MarketTick) {
	w.mu.Lock()
	defer w.mu.Unlock()
	tail := (w.head + w.count) % len(w.buf)
	w.buf[tail] = tick
	if w.count < len(w.buf) {
		w.count++
	} else {
		w.head = (w.head + 1) % len(w.buf)
	}
}

// Len returns the number of ticks currently held.
func (w *TickWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Snapshot returns the ticks oldest-first. The slice is a copy; the
// window may keep mutating underneath.
func (w *TickWindow) Snapshot() []*models.MarketTick {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*models.MarketTick, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Prices returns the price series oldest-first.
func (w *TickWindow) Prices() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)].Price
	}
	return out
}

// Latest returns the most recent tick, or nil when empty.
func (w *TickWindow) Latest() *models.MarketTick {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.count == 0 {
		return nil
	}
	return w.buf[(w.head+w.count-1)%len(w.buf)]
}

// SymbolWindows maintains one TickWindow per symbol.
type SymbolWindows struct {
	mu       sync.RWMutex
	windows  map[string]*TickWindow
	capacity int
}

// NewSymbolWindows creates the per-symbol window set.
func NewSymbolWindows(capacity int) *SymbolWindows {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &SymbolWindows{
		windows:  make(map[string]*TickWindow),
		capacity: capacity,
	}
}

// Window returns the window for a symbol, creating it on first use.
func (s *SymbolWindows) Window(symbol string) *TickWindow {
	s.mu.RLock()
	w, ok := s.windows[symbol]
	s.mu.RUnlock()
	if ok {
		return w
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok = s.windows[symbol]; ok {
		return w
	}
	w = NewTickWindow(s.capacity)
	s.windows[symbol] = w
	return w
}

// Append routes a tick to its symbol's window.
func (s *SymbolWindows) Append(tick *models.MarketTick) {
	s.Window(tick.Symbol).Append(tick)
}

// Symbols lists the symbols that have received at least one tick.
func (s *SymbolWindows) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.windows))
	for sym := range s.windows {
		out = append(out, sym)
	}
	return out
}
