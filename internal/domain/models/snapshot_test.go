package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"testing"
	"time"
)

func fullSnapshot() MarketSnapshot {
	return MarketSnapshot{
		Symbol:       "BTC",
		Timestamp:    time.Date(2026, 5, 28, 12, 0, 0, 0, time.UTC),
		CurrentPrice: 67000.5,
		BayesianMetrics: BayesianMetrics{
			Drift:         0.0012,
			Volatility:    0.034,
			Confidence:    0.91,
			SampleSize:    480,
			PriorMean:     0.001,
			PriorVariance: 0.0001,
		},
		ArimaForecast: ArimaForecast{
			Predictions:             []float64{67100, 67200, 67300},
			ConfidenceIntervalLower: []float64{66800, 66700, 66600},
			ConfidenceIntervalUpper: []float64{67400, 67700, 68000},
			Horizon:                 3,
			ModelOrder:              "ARIMA(1,1,1)",
			AIC:                     -1234.56,
		},
		MonteCarloResults: MonteCarloResults{
			Simulations:     10000,
			ProbabilityUp:   0.62,
			ProbabilityDown: 0.38,
			ExpectedReturn:  0.015,
			ValueAtRisk95:   -0.042,
			ValueAtRisk99:   -0.071,
			ConditionalVaR:  -0.089,
			Percentiles: []MCPercentile{
				{Level: 5, Value: 64000},
				{Level: 50, Value: 67500},
				{Level: 95, Value: 71000},
			},
		},
		MarketState: RegimeBullishStable,
		ABCAnalysis: &ABCAnalysisResult{
			ArimaSignal: ARIMASignal{
				Trend:                   12.5,
				TrendPercentage:         0.019,
				StructuralBreakDetected: true,
				Confidence:              0.85,
				Description:             "upward trend with recent break",
				CusumStatistic:          3.4,
				Threshold:               3.0,
			},
			MomentumMetrics: MomentumMetrics{
				Drift:             0.0012,
				Volatility:        0.034,
				Confidence:        0.88,
				PriorMean:         125,
				PosteriorMean:     0.0011,
				PriorVariance:     0.0002,
				PosteriorVariance: 0.00015,
			},
			MarketPrediction: MarketPrediction{
				ProbabilityUp:              0.62,
				ProbabilityDown:            0.30,
				ProbabilityNeutral:         0.08,
				ExpectedPriceChange:        1005,
				ExpectedPriceChangePercent: 1.5,
				MostLikelyScenario:         "moderate upside",
				PriceTargets: []PriceTarget{
					{Percentile: 5, Price: 64000, ChangePercent: -4.48},
					{Percentile: 95, Price: 71000, ChangePercent: 5.97},
				},
			},
			ABCIntegrationConfidence: 0.87,
			NeedsRecalibration:       true,
			MarketRegime:             RegimeBullishStable,
		},
	}
}

func TestMarketSnapshotRoundTrip(t *testing.T) {
	in := fullSnapshot()

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out MarketSnapshot
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip changed snapshot:\n in: %+v\nout: %+v", in, out)
	}
}

func TestMarketSnapshotFieldNames(t *testing.T) {
	data, err := json.Marshal(fullSnapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertKeys(t, data, []string{
		"symbol", "timestamp", "currentPrice", "bayesianMetrics",
		"arimaForecast", "monteCarloResults", "marketState", "abcAnalysis",
	})
}

func TestMarketTickRoundTrip(t *testing.T) {
	in := MarketTick{
		Symbol:    "ETH",
		Price:     3500.25,
		Volume:    12,
		Timestamp: time.Date(2026, 5, 28, 12, 0, 1, 0, time.UTC),
		Exchange:  "BINANCE",
		Bid:       3500.1,
		Ask:       3500.4,
		High:      3600,
		Low:       3400,
		Open:      3450,
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out MarketTick
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip changed tick:\n in: %+v\nout: %+v", in, out)
	}

	assertKeys(t, data, []string{
		"symbol", "price", "volume", "timestamp", "exchange",
		"bid", "ask", "high", "low", "open",
	})
}

func TestMarketTickOmitsEmptyQuotes(t *testing.T) {
	tick := MarketTick{
		Symbol:    "ETH",
		Price:     3500.25,
		Volume:    12,
		Timestamp: time.Date(2026, 5, 28, 12, 0, 1, 0, time.UTC),
		Exchange:  "BINANCE",
	}
	data, err := json.Marshal(tick)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertKeys(t, data, []string{"symbol", "price", "volume", "timestamp", "exchange"})
}

// assertKeys checks the exact top-level key set of a JSON object.
func assertKeys(t *testing.T, data []byte, want []string) {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := make([]string, 0, len(m))
	for k := range m {
		got = append(got, k)
	}
	sort.Strings(got)
	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	if !reflect.DeepEqual(got, sorted) {
		t.Errorf("keys = %v, want %v", got, sorted)
	}
}
