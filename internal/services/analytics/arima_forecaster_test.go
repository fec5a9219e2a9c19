package analytics

import (
	"math"
	"testing"
)

func TestForecastTooFewPrices(t *testing.T) {
	f := NewArimaForecaster(7)
	got := f.Forecast(linearSeries(100, 1, 9), 7)

	if got.ModelOrder != "ARIMA(0,0,0)" {
		t.Errorf("modelOrder = %q, want ARIMA(0,0,0)", got.ModelOrder)
	}
	if got.Horizon != 7 {
		t.Errorf("horizon = %d, want 7", got.Horizon)
	}
	if len(got.Predictions) != 7 {
		t.Fatalf("predictions = %d, want 7", len(got.Predictions))
	}
	for i, p := range got.Predictions {
		if p != 0 {
			t.Errorf("predictions[%d] = %v, want 0", i, p)
		}
	}
}

func TestForecastProjectsTrend(t *testing.T) {
	f := NewArimaForecaster(7)
	got := f.Forecast(linearSeries(100, 2, 50), 5)

	if got.ModelOrder != "ARIMA(1,1,1)" {
		t.Errorf("modelOrder = %q, want ARIMA(1,1,1)", got.ModelOrder)
	}
	if got.Horizon != 5 {
		t.Errorf("horizon = %d, want 5", got.Horizon)
	}
	if len(got.Predictions) != 5 || len(got.ConfidenceIntervalLower) != 5 || len(got.ConfidenceIntervalUpper) != 5 {
		t.Fatalf("slice lengths = %d/%d/%d, want 5 each",
			len(got.Predictions), len(got.ConfidenceIntervalLower), len(got.ConfidenceIntervalUpper))
	}

	last := linearSeries(100, 2, 50)[49]
	for i, p := range got.Predictions {
		if p <= last {
			t.Errorf("predictions[%d] = %v, want above last price %v", i, p, last)
		}
		if i > 0 && p <= got.Predictions[i-1] {
			t.Errorf("predictions not increasing at %d: %v <= %v", i, p, got.Predictions[i-1])
		}
	}
}

func TestForecastIntervalsWidenWithHorizon(t *testing.T) {
	f := NewArimaForecaster(7)
	got := f.Forecast(linearSeries(100, 2, 50), 7)

	prevMargin := 0.0
	for i := range got.Predictions {
		margin := got.ConfidenceIntervalUpper[i] - got.Predictions[i]
		if margin <= 0 {
			t.Fatalf("margin[%d] = %v, want positive", i, margin)
		}
		if margin <= prevMargin {
			t.Errorf("margin[%d] = %v, want wider than %v", i, margin, prevMargin)
		}
		lowerMargin := got.Predictions[i] - got.ConfidenceIntervalLower[i]
		if math.Abs(margin-lowerMargin) > 1e-6 {
			t.Errorf("asymmetric band at %d: upper %v vs lower %v", i, margin, lowerMargin)
		}
		prevMargin = margin
	}
}

func TestForecastDefaultUsesConfiguredHorizon(t *testing.T) {
	f := NewArimaForecaster(3)
	got := f.ForecastDefault(linearSeries(100, 1, 30))
	if got.Horizon != 3 || len(got.Predictions) != 3 {
		t.Errorf("horizon = %d, predictions = %d, want 3", got.Horizon, len(got.Predictions))
	}

	// non-positive config falls back to 7
	f = NewArimaForecaster(0)
	got = f.ForecastDefault(linearSeries(100, 1, 30))
	if got.Horizon != 7 {
		t.Errorf("fallback horizon = %d, want 7", got.Horizon)
	}
}

func TestAIC(t *testing.T) {
	if got := aic([]float64{5, 5, 5, 5, 5, 5}, 3); got != math.MaxFloat64 {
		t.Errorf("aic of constant series = %v, want MaxFloat64", got)
	}
	if got := aic(linearSeries(1, 1, 3), 3); got != math.MaxFloat64 {
		t.Errorf("aic with n <= numParams = %v, want MaxFloat64", got)
	}

	data := linearSeries(100, 2, 50)
	got := aic(data, 3)
	want := 50*math.Log(SampleVariance(data)) + 6
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("aic = %v, want %v", got, want)
	}
}
