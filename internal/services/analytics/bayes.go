package analytics

import (
	"math"

	"finbot/internal/domain/models"
)

const tradingDaysPerYear = 252

// analyzeMomentum is stage 2: a conjugate normal update on log returns
// where the prior is informed by the ARIMA trend signal.
func analyzeMomentum(prices []float64, arima models.ARIMASignal) models.MomentumMetrics {
	returns := LogReturns(prices)
	if len(returns) == 0 {
		return defaultMomentumMetrics()
	}

	priorMean := arima.Trend * 10.0
	priorVariance := 0.01 * (2.0 - arima.Confidence)
	priorN := 1.0 + arima.Confidence

	sampleMean := Mean(returns)
	sampleVariance := SampleVariance(returns)
	m := float64(len(returns))

	posteriorN := priorN + m
	posteriorMean := (priorN*priorMean + m*sampleMean) / posteriorN
	posteriorVariance := (priorN*priorVariance +
		m*sampleVariance +
		(priorN*m/posteriorN)*math.Pow(sampleMean-priorMean, 2)) / posteriorN

	confidence := 1.0 - 1.0/math.Sqrt(m+1)
	if arima.StructuralBreakDetected {
		confidence *= structuralBreakPenalty
	}

	return models.MomentumMetrics{
		Drift:             Round(posteriorMean*tradingDaysPerYear, 8),
		Volatility:        Round(math.Sqrt(posteriorVariance*tradingDaysPerYear), 8),
		Confidence:        Round(confidence, 8),
		PriorMean:         Round(priorMean, 8),
		PosteriorMean:     Round(posteriorMean, 8),
		PriorVariance:     Round(priorVariance, 8),
		PosteriorVariance: Round(posteriorVariance, 8),
	}
}

func defaultMomentumMetrics() models.MomentumMetrics {
	return models.MomentumMetrics{PriorVariance: 0.01}
}

// AnalyzeBayesian is the standalone estimate with a weakly informative
// prior. Kept on the snapshot alongside the ABC result for compatibility.
func AnalyzeBayesian(prices []float64) models.BayesianMetrics {
	if len(prices) < 2 {
		return defaultBayesianMetrics()
	}
	returns := LogReturns(prices)
	if len(returns) == 0 {
		return defaultBayesianMetrics()
	}

	priorMean := 0.0
	priorVariance := 0.01
	priorN := 1.0

	sampleMean := Mean(returns)
	sampleVariance := SampleVariance(returns)
	m := float64(len(returns))

	posteriorN := priorN + m
	posteriorMean := (priorN*priorMean + m*sampleMean) / posteriorN
	posteriorVariance := (priorN*priorVariance +
		m*sampleVariance +
		(priorN*m/posteriorN)*math.Pow(sampleMean-priorMean, 2)) / posteriorN

	confidence := 1.0 - 1.0/math.Sqrt(m+1)

	return models.BayesianMetrics{
		Drift:         Round(posteriorMean*tradingDaysPerYear, 8),
		Volatility:    Round(math.Sqrt(posteriorVariance*tradingDaysPerYear), 8),
		Confidence:    Round(confidence, 8),
		SampleSize:    len(returns),
		PriorMean:     Round(priorMean, 8),
		PriorVariance: Round(priorVariance, 8),
	}
}

func defaultBayesianMetrics() models.BayesianMetrics {
	return models.BayesianMetrics{PriorVariance: 0.01}
}
