package usecase

import (
	"context"
	"sync"
	"time"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	dservice "finbot/internal/domain/service"
	"finbot/internal/services/analytics"
	applogger "finbot/pkg/logger"
)

// AnalysisEngine consumes ticks from the bus, maintains per-symbol
// windows, and periodically generates snapshots.
type AnalysisEngine struct {
	windows    *SymbolWindows
	analyzer   dservice.MarketAnalyzer
	forecaster dservice.Forecaster
	simulator  dservice.Simulator
	snapshots  drepo.SnapshotRepository
	metrics    drepo.Metrics
	log        *applogger.Logger

	symbols  []string
	interval time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

// AnalysisOptions configures the engine.
type AnalysisOptions struct {
	Symbols    []string
	Interval   time.Duration
	WindowSize int
}

// NewAnalysisEngine creates the engine.
func NewAnalysisEngine(
	analyzer dservice.MarketAnalyzer,
	forecaster dservice.Forecaster,
	simulator dservice.Simulator,
	snapshots drepo.SnapshotRepository,
	metrics drepo.Metrics,
	log *applogger.Logger,
	opts AnalysisOptions,
) *AnalysisEngine {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	return &AnalysisEngine{
		windows:    NewSymbolWindows(opts.WindowSize),
		analyzer:   analyzer,
		forecaster: forecaster,
		simulator:  simulator,
		snapshots:  snapshots,
		metrics:    metrics,
		log:        log,
		symbols:    opts.Symbols,
		interval:   opts.Interval,
		inFlight:   make(map[string]bool),
		stopCh:     make(chan struct{}),
	}
}

// ProcessTick appends a tick to its symbol window. Invalid ticks are
// dropped.
func (e *AnalysisEngine) ProcessTick(tick *models.MarketTick) {
	if tick == nil || !tick.Valid() {
		e.metrics.RecordError("analysis_invalid_tick")
		return
	}
	e.windows.Append(tick)
}

// HandleTick is the bus subscription entry point.
func (e *AnalysisEngine) HandleTick(tick *models.MarketTick) {
	e.ProcessTick(tick)
}

// Start launches the periodic snapshot scheduler.
func (e *AnalysisEngine) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.stopCh:
				return
			case <-ticker.C:
				e.runCycle(ctx)
			}
		}
	}()
}

// Stop halts the scheduler.
func (e *AnalysisEngine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// runCycle generates snapshots for all tracked symbols. A symbol whose
// previous generation is still running is skipped, not queued.
func (e *AnalysisEngine) runCycle(ctx context.Context) {
	symbols := e.symbols
	if len(symbols) == 0 {
		symbols = e.windows.Symbols()
	}
	for _, symbol := range symbols {
		if !e.tryAcquire(symbol) {
			e.metrics.RecordError("analysis_cycle_skipped")
			continue
		}
		go func(symbol string) {
			defer e.release(symbol)
			start := time.Now()
			snap := e.GenerateSnapshot(symbol)
			if snap == nil || snap.ABCAnalysis == nil {
				// nothing stored until the window reaches MinWindow
				return
			}
			if err := e.snapshots.Save(ctx, snap); err != nil {
				e.metrics.RecordError("snapshot_save")
				e.log.Error("snapshot save failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
				return
			}
			e.metrics.RecordSnapshotGenerated(symbol, snap.MarketState)
			e.metrics.RecordLatency("snapshot_generate", time.Since(start).Seconds())
		}(symbol)
	}
}

func (e *AnalysisEngine) tryAcquire(symbol string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[symbol] {
		return false
	}
	e.inFlight[symbol] = true
	return true
}

func (e *AnalysisEngine) release(symbol string) {
	e.mu.Lock()
	delete(e.inFlight, symbol)
	e.mu.Unlock()
}

// GenerateSnapshot runs the full analytical stack over the symbol's
// window. With fewer than MinWindow ticks it returns the default
// snapshot (UNKNOWN state); with no ticks at all it returns nil so
// nothing is stored for symbols that never traded.
func (e *AnalysisEngine) GenerateSnapshot(symbol string) *models.MarketSnapshot {
	window := e.windows.Window(symbol)
	if window.Len() == 0 {
		return nil
	}
	prices := window.Prices()
	if len(prices) < analytics.MinWindow {
		e.log.Warn("insufficient data",
			applogger.String("symbol", symbol),
			applogger.Int("ticks", len(prices)),
		)
		return defaultSnapshot(symbol)
	}

	// drop non-positive prices defensively; decode already filters them
	clean := prices[:0:0]
	for _, p := range prices {
		if p > 0 {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return defaultSnapshot(symbol)
	}
	currentPrice := clean[len(clean)-1]

	abc := e.analyzer.Analyze(clean, currentPrice)

	// standalone analyses kept alongside the ABC result
	bayes := analytics.AnalyzeBayesian(clean)
	forecast := e.forecaster.ForecastDefault(clean)
	mc := e.simulator.Simulate(currentPrice, bayes.Drift, bayes.Volatility)

	return &models.MarketSnapshot{
		Symbol:            symbol,
		Timestamp:         time.Now(),
		CurrentPrice:      currentPrice,
		BayesianMetrics:   bayes,
		ArimaForecast:     forecast,
		MonteCarloResults: mc,
		MarketState:       abc.MarketRegime,
		ABCAnalysis:       &abc,
	}
}

// WindowLen reports the current window size for a symbol.
func (e *AnalysisEngine) WindowLen(symbol string) int {
	return e.windows.Window(symbol).Len()
}

func defaultSnapshot(symbol string) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:      symbol,
		Timestamp:   time.Now(),
		MarketState: models.RegimeUnknown,
	}
}
