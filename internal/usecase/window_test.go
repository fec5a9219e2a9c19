package usecase

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"finbot/internal/domain/models"
)

func windowTick(symbol string, price float64, i int) *models.MarketTick {
	return &models.MarketTick{
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Unix(int64(i), 0),
	}
}

func TestTickWindowEviction(t *testing.T) {
	w := NewTickWindow(500)
	for i := 1; i <= 750; i++ {
		w.Append(windowTick("BTC", float64(i), i))
	}

	if w.Len() != 500 {
		t.Fatalf("len = %d, want 500", w.Len())
	}

	prices := w.Prices()
	if prices[0] != 251 {
		t.Errorf("oldest price = %v, want 251 (first 250 evicted)", prices[0])
	}
	if prices[len(prices)-1] != 750 {
		t.Errorf("newest price = %v, want 750", prices[len(prices)-1])
	}
	for i := 1; i < len(prices); i++ {
		if prices[i] != prices[i-1]+1 {
			t.Fatalf("order broken at %d: %v after %v", i, prices[i], prices[i-1])
		}
	}
}

func TestTickWindowPartialFill(t *testing.T) {
	w := NewTickWindow(500)
	for i := 1; i <= 42; i++ {
		w.Append(windowTick("ETH", float64(i), i))
	}
	if w.Len() != 42 {
		t.Fatalf("len = %d, want 42", w.Len())
	}
	prices := w.Prices()
	if prices[0] != 1 || prices[41] != 42 {
		t.Errorf("prices bounds = %v..%v, want 1..42", prices[0], prices[41])
	}
	latest := w.Latest()
	if latest == nil || latest.Price != 42 {
		t.Errorf("latest = %+v, want price 42", latest)
	}
}

func TestTickWindowEmpty(t *testing.T) {
	w := NewTickWindow(10)
	if w.Len() != 0 {
		t.Errorf("len = %d, want 0", w.Len())
	}
	if w.Latest() != nil {
		t.Error("latest on empty window should be nil")
	}
	if got := len(w.Prices()); got != 0 {
		t.Errorf("prices len = %d, want 0", got)
	}
}

func TestTickWindowSnapshotIsCopy(t *testing.T) {
	w := NewTickWindow(10)
	w.Append(windowTick("BTC", 1, 1))
	snap := w.Snapshot()
	w.Append(windowTick("BTC", 2, 2))
	if len(snap) != 1 {
		t.Errorf("snapshot mutated by later append: len = %d", len(snap))
	}
}

func TestSymbolWindowsIsolation(t *testing.T) {
	s := NewSymbolWindows(500)
	s.Append(windowTick("BTC", 100, 1))
	s.Append(windowTick("ETH", 200, 1))
	s.Append(windowTick("BTC", 101, 2))

	if got := s.Window("BTC").Len(); got != 2 {
		t.Errorf("BTC len = %d, want 2", got)
	}
	if got := s.Window("ETH").Len(); got != 1 {
		t.Errorf("ETH len = %d, want 1", got)
	}

	syms := s.Symbols()
	if len(syms) != 2 {
		t.Errorf("symbols = %v, want 2 entries", syms)
	}
}

func TestSymbolWindowsConcurrentAppend(t *testing.T) {
	s := NewSymbolWindows(500)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			sym := fmt.Sprintf("SYM%d", g%4)
			for i := 0; i < 200; i++ {
				s.Append(windowTick(sym, float64(i), i))
			}
		}(g)
	}
	wg.Wait()

	for _, sym := range s.Symbols() {
		if got := s.Window(sym).Len(); got != 400 {
			t.Errorf("%s len = %d, want 400", sym, got)
		}
	}
}
