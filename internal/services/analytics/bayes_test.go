package analytics

import (
	"math"
	"testing"

	"finbot/internal/domain/models"
)

func TestAnalyzeBayesianTooFewPrices(t *testing.T) {
	got := AnalyzeBayesian([]float64{100})
	if got.PriorVariance != 0.01 {
		t.Errorf("default priorVariance = %v, want 0.01", got.PriorVariance)
	}
	if got.Drift != 0 || got.Volatility != 0 || got.SampleSize != 0 {
		t.Errorf("defaults not zero: %+v", got)
	}
}

func TestAnalyzeBayesianPosterior(t *testing.T) {
	// 1% up moves: constant log return, zero sample variance
	prices := make([]float64, 51)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.01
	}

	got := AnalyzeBayesian(prices)

	if got.SampleSize != 50 {
		t.Errorf("sampleSize = %d, want 50", got.SampleSize)
	}
	if got.Drift <= 0 {
		t.Errorf("drift = %v, want positive for an uptrend", got.Drift)
	}
	if got.Confidence <= 0 || got.Confidence >= 1 {
		t.Errorf("confidence = %v, want (0,1)", got.Confidence)
	}

	// posterior mean shrinks toward the zero prior: m/(1+m) of sample mean
	r := math.Log(1.01)
	m := 50.0
	wantPosterior := m * r / (1.0 + m)
	wantDrift := Round(wantPosterior*252, 8)
	if math.Abs(got.Drift-wantDrift) > 1e-9 {
		t.Errorf("drift = %v, want %v", got.Drift, wantDrift)
	}
}

func TestAnalyzeMomentumUsesArimaPrior(t *testing.T) {
	prices := make([]float64, 51)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.01
	}

	arima := models.ARIMASignal{Trend: 0.5, Confidence: 0.8}
	got := analyzeMomentum(prices, arima)

	if got.PriorMean != Round(0.5*10.0, 8) {
		t.Errorf("priorMean = %v, want 5", got.PriorMean)
	}
	wantPriorVar := Round(0.01*(2.0-0.8), 8)
	if got.PriorVariance != wantPriorVar {
		t.Errorf("priorVariance = %v, want %v", got.PriorVariance, wantPriorVar)
	}
	if got.PosteriorMean <= 0 {
		t.Errorf("posteriorMean = %v, want positive", got.PosteriorMean)
	}
	if got.Volatility < 0 {
		t.Errorf("volatility = %v, want >= 0", got.Volatility)
	}
}

func TestAnalyzeMomentumBreakPenalty(t *testing.T) {
	prices := make([]float64, 51)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.002
	}

	plain := analyzeMomentum(prices, models.ARIMASignal{Confidence: 0.5})
	broken := analyzeMomentum(prices, models.ARIMASignal{Confidence: 0.5, StructuralBreakDetected: true})

	want := Round(plain.Confidence*0.7, 8)
	if math.Abs(broken.Confidence-want) > 1e-6 {
		t.Errorf("break confidence = %v, want %v", broken.Confidence, want)
	}
}

func TestAnalyzeMomentumEmptyReturns(t *testing.T) {
	got := analyzeMomentum([]float64{100}, models.ARIMASignal{})
	if got.PriorVariance != 0.01 {
		t.Errorf("default priorVariance = %v, want 0.01", got.PriorVariance)
	}
}
