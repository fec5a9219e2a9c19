package models

import "time"

// BayesianMetrics is the standalone (weakly-informative prior) Bayesian
// estimate kept on the snapshot for backward compatibility.
type BayesianMetrics struct {
	Drift         float64 `json:"drift"`
	Volatility    float64 `json:"volatility"`
	Confidence    float64 `json:"confidence"`
	SampleSize    int     `json:"sampleSize"`
	PriorMean     float64 `json:"priorMean"`
	PriorVariance float64 `json:"priorVariance"`
}

// ArimaForecast is the legacy forecast path: point predictions with 95%
// confidence intervals over a fixed horizon.
type ArimaForecast struct {
	Predictions             []float64 `json:"predictions"`
	ConfidenceIntervalLower []float64 `json:"confidenceIntervalLower"`
	ConfidenceIntervalUpper []float64 `json:"confidenceIntervalUpper"`
	Horizon                 int       `json:"horizon"`
	ModelOrder              string    `json:"modelOrder"`
	AIC                     float64   `json:"aic"`
}

// MCPercentile is one level of the Monte Carlo terminal distribution.
type MCPercentile struct {
	Level int     `json:"level"`
	Value float64 `json:"value"`
}

// MonteCarloResults carries simulation risk metrics.
type MonteCarloResults struct {
	Simulations     int            `json:"simulations"`
	ProbabilityUp   float64        `json:"probabilityUp"`
	ProbabilityDown float64        `json:"probabilityDown"`
	ExpectedReturn  float64        `json:"expectedReturn"`
	ValueAtRisk95   float64        `json:"valueAtRisk95"`
	ValueAtRisk99   float64        `json:"valueAtRisk99"`
	ConditionalVaR  float64        `json:"conditionalVaR"`
	Percentiles     []MCPercentile `json:"percentiles"`
}

// MarketSnapshot is the composite analytical output for one symbol at one
// instant. One snapshot per symbol, overwritten on each generation.
// Field names and JSON casing are part of the wire contract.
type MarketSnapshot struct {
	Symbol            string             `json:"symbol"`
	Timestamp         time.Time          `json:"timestamp"`
	CurrentPrice      float64            `json:"currentPrice"`
	BayesianMetrics   BayesianMetrics    `json:"bayesianMetrics"`
	ArimaForecast     ArimaForecast      `json:"arimaForecast"`
	MonteCarloResults MonteCarloResults  `json:"monteCarloResults"`
	MarketState       string             `json:"marketState"`
	ABCAnalysis       *ABCAnalysisResult `json:"abcAnalysis,omitempty"`
}
