package analytics

import (
	"math"

	"finbot/internal/domain/models"

	applogger "finbot/pkg/logger"
)

const (
	// MinWindow is the minimum number of observations required before the
	// analyzer produces anything other than the default result.
	MinWindow = 30

	highVolatilityThreshold = 0.50
	volatileRegimeThreshold = 0.30
)

// ABCAnalyzer is the three-stage ARIMA-Bayes-Carlo pipeline.
//
// Stage 1 detects trend and structural breaks (Holt smoothing + CUSUM).
// Stage 2 updates momentum with an ARIMA-informed prior.
// Stage 3 simulates price paths parameterized by the posterior.
//
// The stages are chained, not cyclic: the "feedback loop" is the
// needsRecalibration flag on the emitted result. The analyzer holds no
// mutable state between calls apart from the simulator's PRNG.
type ABCAnalyzer struct {
	simulator *MonteCarloSimulator
	logger    *applogger.Logger
}

// NewABCAnalyzer creates the integrated analyzer.
func NewABCAnalyzer(simulator *MonteCarloSimulator, logger *applogger.Logger) *ABCAnalyzer {
	return &ABCAnalyzer{simulator: simulator, logger: logger}
}

// Analyze runs the full pipeline over the price window. Fewer than
// MinWindow prices, or a non-positive current price, yield the default
// result with the UNKNOWN regime. No failure propagates to the caller.
func (a *ABCAnalyzer) Analyze(prices []float64, currentPrice float64) models.ABCAnalysisResult {
	if len(prices) < MinWindow || currentPrice <= 0 {
		return DefaultABCResult()
	}

	arimaSignal := analyzeARIMA(prices)
	momentum := analyzeMomentum(prices, arimaSignal)
	prediction := a.predict(currentPrice, momentum)

	integration := integrationConfidence(arimaSignal, momentum)
	needsRecalibration := arimaSignal.StructuralBreakDetected ||
		momentum.Volatility > highVolatilityThreshold
	regime := determineRegime(arimaSignal, momentum, prediction)

	result := models.ABCAnalysisResult{
		ArimaSignal:              arimaSignal,
		MomentumMetrics:          momentum,
		MarketPrediction:         prediction,
		ABCIntegrationConfidence: Round(integration, 8),
		NeedsRecalibration:       needsRecalibration,
		MarketRegime:             regime,
	}

	if a.logger != nil {
		a.logger.Info("abc analysis",
			applogger.String("regime", result.MarketRegime),
			applogger.Bool("recalibrate", result.NeedsRecalibration),
			applogger.String("arima", arimaSignal.Description),
		)
	}
	return result
}

// predict is stage 3: Monte Carlo simulation wrapped into the prediction
// contract (probabilities, expected change, percentile price targets).
func (a *ABCAnalyzer) predict(currentPrice float64, momentum models.MomentumMetrics) models.MarketPrediction {
	mc := a.simulator.Simulate(currentPrice, momentum.Drift, momentum.Volatility)

	probUp := mc.ProbabilityUp
	probDown := mc.ProbabilityDown
	probNeutral := math.Max(0, 1.0-probUp-probDown)

	expectedReturn := mc.ExpectedReturn
	targets := make([]models.PriceTarget, 0, len(mc.Percentiles))
	for _, p := range mc.Percentiles {
		changePct := (p.Value - currentPrice) / currentPrice * 100.0
		targets = append(targets, models.PriceTarget{
			Percentile:    p.Level,
			Price:         p.Value,
			ChangePercent: Round(changePct, 2),
		})
	}

	return models.MarketPrediction{
		ProbabilityUp:              Round(probUp, 8),
		ProbabilityDown:            Round(probDown, 8),
		ProbabilityNeutral:         Round(probNeutral, 8),
		ExpectedPriceChange:        Round(currentPrice*expectedReturn, 2),
		ExpectedPriceChangePercent: Round(expectedReturn*100.0, 2),
		MostLikelyScenario:         mostLikelyScenario(probUp, probDown, probNeutral),
		PriceTargets:               targets,
	}
}

// integrationConfidence is the geometric mean of the stage confidences,
// penalized when a structural break undermines both.
func integrationConfidence(arima models.ARIMASignal, momentum models.MomentumMetrics) float64 {
	stability := 1.0
	if arima.StructuralBreakDetected {
		stability = structuralBreakPenalty
	}
	return math.Sqrt(arima.Confidence*momentum.Confidence) * stability
}

// determineRegime classifies the market. Rules are evaluated in order and
// the first match wins.
func determineRegime(arima models.ARIMASignal, momentum models.MomentumMetrics, prediction models.MarketPrediction) string {
	trendPct := arima.TrendPercentage
	drift := momentum.Drift
	volatility := momentum.Volatility
	probUp := prediction.ProbabilityUp

	if arima.StructuralBreakDetected {
		return models.RegimeChange
	}
	if volatility > highVolatilityThreshold {
		return models.RegimeHighVolatility
	}

	bullish := 0
	if trendPct > 2.0 {
		bullish++
	}
	if drift > 0.05 {
		bullish++
	}
	if probUp > 0.6 {
		bullish++
	}
	if bullish >= 2 {
		if volatility > volatileRegimeThreshold {
			return models.RegimeBullishVolatile
		}
		return models.RegimeBullishStable
	}

	bearish := 0
	if trendPct < -2.0 {
		bearish++
	}
	if drift < -0.05 {
		bearish++
	}
	if probUp < 0.4 {
		bearish++
	}
	if bearish >= 2 {
		if volatility > volatileRegimeThreshold {
			return models.RegimeBearishVolatile
		}
		return models.RegimeBearishStable
	}

	if volatility > volatileRegimeThreshold {
		return models.RegimeNeutralVolatile
	}
	return models.RegimeNeutralStable
}

func mostLikelyScenario(probUp, probDown, probNeutral float64) string {
	switch {
	case probUp > probDown && probUp > probNeutral:
		return models.ScenarioUp
	case probDown > probUp && probDown > probNeutral:
		return models.ScenarioDown
	default:
		return models.ScenarioSideways
	}
}

// DefaultABCResult is returned when the window is too small or an input is
// unusable. All scalar outputs are zero except the documented defaults.
func DefaultABCResult() models.ABCAnalysisResult {
	return models.ABCAnalysisResult{
		ArimaSignal: models.ARIMASignal{
			Description: "Insufficient data",
		},
		MomentumMetrics: defaultMomentumMetrics(),
		MarketPrediction: models.MarketPrediction{
			ProbabilityUp:      0.5,
			ProbabilityDown:    0.5,
			MostLikelyScenario: models.ScenarioUnknown,
			PriceTargets:       []models.PriceTarget{},
		},
		MarketRegime: models.RegimeUnknown,
	}
}
