package analytics

import (
	"math"

	"finbot/internal/domain/models"
)

// ArimaForecaster produces the legacy point-forecast path kept on the
// snapshot. The model order string on the wire is "ARIMA(1,1,1)" while the
// implementation is Holt's double exponential smoothing; the string is
// part of the wire contract and must not change.
type ArimaForecaster struct {
	defaultHorizon int
}

// NewArimaForecaster creates a forecaster with the configured horizon.
func NewArimaForecaster(horizonPeriods int) *ArimaForecaster {
	if horizonPeriods <= 0 {
		horizonPeriods = 7
	}
	return &ArimaForecaster{defaultHorizon: horizonPeriods}
}

// Forecast smooths the series and projects level + h*trend with a 95%
// confidence band widening by the square root of the step.
func (f *ArimaForecaster) Forecast(prices []float64, horizon int) models.ArimaForecast {
	if len(prices) < 10 {
		return defaultForecast(horizon)
	}

	n := len(prices)
	level := prices[0]
	trend := (prices[n-1] - prices[0]) / float64(n)

	for i := 1; i < n; i++ {
		prevLevel := level
		level = holtAlpha*prices[i] + (1-holtAlpha)*(level+trend)
		trend = holtBeta*(level-prevLevel) + (1-holtBeta)*trend
	}

	stdError := StdDev(prices)

	predictions := make([]float64, 0, horizon)
	lower := make([]float64, 0, horizon)
	upper := make([]float64, 0, horizon)

	for h := 1; h <= horizon; h++ {
		forecast := level + float64(h)*trend
		margin := 1.96 * stdError * math.Sqrt(float64(h))

		predictions = append(predictions, Round(forecast, 8))
		lower = append(lower, Round(forecast-margin, 8))
		upper = append(upper, Round(forecast+margin, 8))
	}

	return models.ArimaForecast{
		Predictions:             predictions,
		ConfidenceIntervalLower: lower,
		ConfidenceIntervalUpper: upper,
		Horizon:                 horizon,
		ModelOrder:              "ARIMA(1,1,1)",
		AIC:                     Round(aic(prices, 3), 8),
	}
}

// ForecastDefault uses the configured horizon.
func (f *ArimaForecaster) ForecastDefault(prices []float64) models.ArimaForecast {
	return f.Forecast(prices, f.defaultHorizon)
}

// aic is the Akaike information criterion for a model with numParams
// parameters fitted on data.
func aic(data []float64, numParams int) float64 {
	variance := SampleVariance(data)
	n := len(data)
	if variance <= 0 || n <= numParams {
		return math.MaxFloat64
	}
	return float64(n)*math.Log(variance) + 2*float64(numParams)
}

func defaultForecast(horizon int) models.ArimaForecast {
	zeros := make([]float64, horizon)
	return models.ArimaForecast{
		Predictions:             zeros,
		ConfidenceIntervalLower: zeros,
		ConfidenceIntervalUpper: zeros,
		Horizon:                 horizon,
		ModelOrder:              "ARIMA(0,0,0)",
	}
}
