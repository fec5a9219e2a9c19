package analytics

import (
	"fmt"
	"math"

	"finbot/internal/domain/models"
)

const (
	holtAlpha = 0.3 // level smoothing
	holtBeta  = 0.1 // trend smoothing

	cusumThresholdMultiplier = 3.0
	structuralBreakPenalty   = 0.7
)

// holtTrend estimates the series trend using Holt's double exponential
// smoothing and returns the final trend component.
func holtTrend(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	n := len(prices)
	level := prices[0]
	trend := (prices[n-1] - prices[0]) / float64(n)

	for i := 1; i < n; i++ {
		prevLevel := level
		level = holtAlpha*prices[i] + (1-holtAlpha)*(level+trend)
		trend = holtBeta*(level-prevLevel) + (1-holtBeta)*trend
	}
	return trend
}

// cusumStatistic monitors the last 30% of observations for sudden shifts
// and returns the maximum absolute cumulative standardized deviation.
func cusumStatistic(prices []float64, mean, stdDev float64) float64 {
	if len(prices) < 10 || stdDev == 0 {
		return 0
	}
	monitorStart := int(float64(len(prices)) * 0.7)
	var cusum, maxCusum float64
	for i := monitorStart; i < len(prices); i++ {
		cusum += (prices[i] - mean) / stdDev
		maxCusum = math.Max(math.Abs(maxCusum), math.Abs(cusum))
	}
	return maxCusum
}

func arimaConfidence(n int, structuralBreak bool) float64 {
	conf := 1.0 - 1.0/math.Sqrt(float64(n+1))
	if structuralBreak {
		conf *= structuralBreakPenalty
	}
	return math.Max(0.0, math.Min(1.0, conf))
}

func arimaDescription(trendPct float64, structuralBreak bool) string {
	suffix := ""
	if structuralBreak {
		suffix = " [STRUCTURAL BREAK DETECTED]"
	}
	if math.Abs(trendPct) < 1.0 {
		return "Price stable" + suffix
	}
	if trendPct > 0 {
		return fmt.Sprintf("Price increasing %.2f%% in trend", trendPct) + suffix
	}
	return fmt.Sprintf("Price decreasing %.2f%% in trend", math.Abs(trendPct)) + suffix
}

// analyzeARIMA is stage 1: trend detection with structural break flagging.
func analyzeARIMA(prices []float64) models.ARIMASignal {
	mean := Mean(prices)
	stdDev := StdDev(prices)

	trend := holtTrend(prices)
	trendPct := 0.0
	if mean != 0 {
		trendPct = trend / mean * 100.0
	}

	cusum := cusumStatistic(prices, mean, stdDev)
	threshold := cusumThresholdMultiplier * stdDev
	structuralBreak := math.Abs(cusum) > threshold

	return models.ARIMASignal{
		Trend:                   Round(trend, 8),
		TrendPercentage:         Round(trendPct, 2),
		StructuralBreakDetected: structuralBreak,
		Confidence:              Round(arimaConfidence(len(prices), structuralBreak), 8),
		Description:             arimaDescription(trendPct, structuralBreak),
		CusumStatistic:          Round(cusum, 8),
		Threshold:               Round(threshold, 8),
	}
}
