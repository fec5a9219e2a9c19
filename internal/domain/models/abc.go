package models

// Market regimes emitted by the ABC analyzer. Closed set; consumers
// depend on the exact strings.
const (
	RegimeBullishStable   = "BULLISH_STABLE"
	RegimeBullishVolatile = "BULLISH_VOLATILE"
	RegimeBearishStable   = "BEARISH_STABLE"
	RegimeBearishVolatile = "BEARISH_VOLATILE"
	RegimeNeutralStable   = "NEUTRAL_STABLE"
	RegimeNeutralVolatile = "NEUTRAL_VOLATILE"
	RegimeChange          = "REGIME_CHANGE"
	RegimeHighVolatility  = "HIGH_VOLATILITY"
	RegimeUnknown         = "UNKNOWN"
)

// Most-likely-scenario labels for MarketPrediction.
const (
	ScenarioUp       = "UPWARD_MOVEMENT"
	ScenarioDown     = "DOWNWARD_MOVEMENT"
	ScenarioSideways = "SIDEWAYS_MOVEMENT"
	ScenarioUnknown  = "UNKNOWN"
)

// ARIMASignal carries trend detection and structural break analysis.
type ARIMASignal struct {
	Trend                    float64 `json:"trend"`
	TrendPercentage          float64 `json:"trendPercentage"`
	StructuralBreakDetected  bool    `json:"structuralBreakDetected"`
	Confidence               float64 `json:"confidence"`
	Description              string  `json:"description"`
	CusumStatistic           float64 `json:"cusumStatistic"`
	Threshold                float64 `json:"threshold"`
}

// MomentumMetrics is the Bayesian posterior over drift and volatility,
// computed with an ARIMA-informed prior.
type MomentumMetrics struct {
	Drift             float64 `json:"drift"`
	Volatility        float64 `json:"volatility"`
	Confidence        float64 `json:"confidence"`
	PriorMean         float64 `json:"priorMean"`
	PosteriorMean     float64 `json:"posteriorMean"`
	PriorVariance     float64 `json:"priorVariance"`
	PosteriorVariance float64 `json:"posteriorVariance"`
}

// PriceTarget is one percentile of the Monte Carlo terminal distribution.
type PriceTarget struct {
	Percentile    int     `json:"percentile"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// MarketPrediction is the Monte Carlo stage output.
type MarketPrediction struct {
	ProbabilityUp              float64       `json:"probabilityUp"`
	ProbabilityDown            float64       `json:"probabilityDown"`
	ProbabilityNeutral         float64       `json:"probabilityNeutral"`
	ExpectedPriceChange        float64       `json:"expectedPriceChange"`
	ExpectedPriceChangePercent float64       `json:"expectedPriceChangePercent"`
	MostLikelyScenario         string        `json:"mostLikelyScenario"`
	PriceTargets               []PriceTarget `json:"priceTargets"`
}

// ABCAnalysisResult is the integrated ARIMA-Bayes-Carlo output.
// The recalibration flag is the feedback coupling: a structural break or
// high volatility tells the caller the models should be reset.
type ABCAnalysisResult struct {
	ArimaSignal              ARIMASignal      `json:"arimaSignal"`
	MomentumMetrics          MomentumMetrics  `json:"momentumMetrics"`
	MarketPrediction         MarketPrediction `json:"marketPrediction"`
	ABCIntegrationConfidence float64          `json:"abcIntegrationConfidence"`
	NeedsRecalibration       bool             `json:"needsRecalibration"`
	MarketRegime             string           `json:"marketRegime"`
}
