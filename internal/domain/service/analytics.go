package service

import "finbot/internal/domain/models"

// MarketAnalyzer runs the combined regime analysis over a price window.
type MarketAnalyzer interface {
	Analyze(prices []float64, currentPrice float64) models.ABCAnalysisResult
}

// Forecaster projects future prices with confidence bands.
type Forecaster interface {
	Forecast(prices []float64, horizon int) models.ArimaForecast
	ForecastDefault(prices []float64) models.ArimaForecast
}

// Simulator estimates terminal price distributions from drift and
// volatility.
type Simulator interface {
	Simulate(currentPrice, drift, volatility float64) models.MonteCarloResults
}
