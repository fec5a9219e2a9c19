package analytics

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"finbot/internal/domain/models"
)

// MonteCarloSimulator simulates future price paths with geometric Brownian
// motion and derives risk metrics from the terminal distribution.
type MonteCarloSimulator struct {
	simulations int
	horizonDays int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMonteCarloSimulator creates a simulator with a time-based seed.
func NewMonteCarloSimulator(simulations, horizonDays int) *MonteCarloSimulator {
	return NewSeededMonteCarloSimulator(simulations, horizonDays, time.Now().UnixNano())
}

// NewSeededMonteCarloSimulator creates a simulator with a fixed seed so
// results are reproducible.
func NewSeededMonteCarloSimulator(simulations, horizonDays int, seed int64) *MonteCarloSimulator {
	if simulations <= 0 {
		simulations = 10000
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}
	return &MonteCarloSimulator{
		simulations: simulations,
		horizonDays: horizonDays,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Simulate runs the configured number of GBM paths from currentPrice.
// probabilityUp counts terminals strictly above the start price;
// probabilityDown is the complement and includes equality.
func (s *MonteCarloSimulator) Simulate(currentPrice, drift, volatility float64) models.MonteCarloResults {
	if currentPrice <= 0 {
		return s.defaultResults()
	}

	s0 := currentPrice
	dt := 1.0 / float64(tradingDaysPerYear)

	finalPrices := make([]float64, s.simulations)
	countUp := 0

	s.mu.Lock()
	for sim := 0; sim < s.simulations; sim++ {
		price := s0
		for day := 0; day < s.horizonDays; day++ {
			z := s.rng.NormFloat64()
			dW := z * math.Sqrt(dt)
			price = price * math.Exp((drift-0.5*volatility*volatility)*dt+volatility*dW)
		}
		finalPrices[sim] = price
		if price > s0 {
			countUp++
		}
	}
	s.mu.Unlock()

	sort.Float64s(finalPrices)

	n := float64(s.simulations)
	probabilityUp := float64(countUp) / n
	probabilityDown := float64(s.simulations-countUp) / n
	expectedReturn := (Mean(finalPrices) - s0) / s0

	var95 := s0 - finalPrices[int(n*0.05)]
	var99 := s0 - finalPrices[int(n*0.01)]
	cvar := conditionalVaR(finalPrices, s0, 0.05)

	percentiles := []models.MCPercentile{
		{Level: 5, Value: Round(finalPrices[int(n*0.05)], 8)},
		{Level: 25, Value: Round(finalPrices[int(n*0.25)], 8)},
		{Level: 50, Value: Round(finalPrices[int(n*0.50)], 8)},
		{Level: 75, Value: Round(finalPrices[int(n*0.75)], 8)},
		{Level: 95, Value: Round(finalPrices[int(n*0.95)], 8)},
	}

	return models.MonteCarloResults{
		Simulations:     s.simulations,
		ProbabilityUp:   Round(probabilityUp, 8),
		ProbabilityDown: Round(probabilityDown, 8),
		ExpectedReturn:  Round(expectedReturn, 8),
		ValueAtRisk95:   Round(var95, 8),
		ValueAtRisk99:   Round(var99, 8),
		ConditionalVaR:  Round(cvar, 8),
		Percentiles:     percentiles,
	}
}

// conditionalVaR is the expected shortfall: the mean loss over the worst
// alpha fraction of outcomes.
func conditionalVaR(sortedPrices []float64, currentPrice, alpha float64) float64 {
	cutoff := int(float64(len(sortedPrices)) * alpha)
	if cutoff <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < cutoff; i++ {
		sum += currentPrice - sortedPrices[i]
	}
	return sum / float64(cutoff)
}

func (s *MonteCarloSimulator) defaultResults() models.MonteCarloResults {
	return models.MonteCarloResults{
		Simulations:     s.simulations,
		ProbabilityUp:   0.5,
		ProbabilityDown: 0.5,
		Percentiles: []models.MCPercentile{
			{Level: 5}, {Level: 25}, {Level: 50}, {Level: 75}, {Level: 95},
		},
	}
}
