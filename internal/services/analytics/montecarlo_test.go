package analytics

import (
	"math"
	"testing"
)

func TestSimulateProbabilitiesSumToOne(t *testing.T) {
	sim := NewSeededMonteCarloSimulator(5000, 7, 42)
	res := sim.Simulate(100, 0.05, 0.2)

	if res.Simulations != 5000 {
		t.Errorf("simulations = %d, want 5000", res.Simulations)
	}
	sum := res.ProbabilityUp + res.ProbabilityDown
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("probUp+probDown = %v, want 1 (down includes equality)", sum)
	}
	if res.ProbabilityUp < 0 || res.ProbabilityUp > 1 {
		t.Errorf("probUp = %v, out of range", res.ProbabilityUp)
	}
}

func TestSimulatePositiveDriftSkewsUp(t *testing.T) {
	sim := NewSeededMonteCarloSimulator(10000, 7, 7)
	res := sim.Simulate(100, 2.0, 0.1) // strong drift, mild vol

	if res.ProbabilityUp <= 0.5 {
		t.Errorf("probUp = %v, want > 0.5 under strong positive drift", res.ProbabilityUp)
	}
	if res.ExpectedReturn <= 0 {
		t.Errorf("expectedReturn = %v, want positive", res.ExpectedReturn)
	}
}

func TestSimulateNegativeDriftSkewsDown(t *testing.T) {
	sim := NewSeededMonteCarloSimulator(10000, 7, 7)
	res := sim.Simulate(100, -2.0, 0.1)

	if res.ProbabilityDown <= 0.5 {
		t.Errorf("probDown = %v, want > 0.5 under strong negative drift", res.ProbabilityDown)
	}
}

func TestSimulatePercentilesOrdered(t *testing.T) {
	sim := NewSeededMonteCarloSimulator(10000, 7, 99)
	res := sim.Simulate(100, 0.1, 0.4)

	if len(res.Percentiles) != 5 {
		t.Fatalf("percentiles = %d, want 5", len(res.Percentiles))
	}
	wantLevels := []int{5, 25, 50, 75, 95}
	for i, p := range res.Percentiles {
		if p.Level != wantLevels[i] {
			t.Errorf("percentile %d level = %d, want %d", i, p.Level, wantLevels[i])
		}
		if p.Value <= 0 {
			t.Errorf("percentile %d value = %v, want positive", p.Level, p.Value)
		}
		if i > 0 && p.Value < res.Percentiles[i-1].Value {
			t.Errorf("percentiles not ordered at %d: %v < %v", i, p.Value, res.Percentiles[i-1].Value)
		}
	}
}

func TestSimulateRiskMetricsConsistent(t *testing.T) {
	sim := NewSeededMonteCarloSimulator(10000, 7, 1234)
	res := sim.Simulate(100, 0, 0.5)

	// VaR99 comes from a deeper tail than VaR95
	if res.ValueAtRisk99 < res.ValueAtRisk95 {
		t.Errorf("VaR99 (%v) < VaR95 (%v)", res.ValueAtRisk99, res.ValueAtRisk95)
	}
	// expected shortfall is at least the VaR at the same level
	if res.ConditionalVaR < res.ValueAtRisk95 {
		t.Errorf("CVaR (%v) < VaR95 (%v)", res.ConditionalVaR, res.ValueAtRisk95)
	}
}

func TestSimulateReproducibleWithSeed(t *testing.T) {
	a := NewSeededMonteCarloSimulator(2000, 7, 555).Simulate(100, 0.05, 0.2)
	b := NewSeededMonteCarloSimulator(2000, 7, 555).Simulate(100, 0.05, 0.2)

	if a.ProbabilityUp != b.ProbabilityUp || a.ExpectedReturn != b.ExpectedReturn {
		t.Errorf("same seed diverged: %+v vs %+v", a, b)
	}
}

func TestSimulateNonPositivePrice(t *testing.T) {
	sim := NewSeededMonteCarloSimulator(1000, 7, 1)
	res := sim.Simulate(0, 0.05, 0.2)

	if res.ProbabilityUp != 0.5 || res.ProbabilityDown != 0.5 {
		t.Errorf("default probs = %v/%v, want 0.5/0.5", res.ProbabilityUp, res.ProbabilityDown)
	}
	if len(res.Percentiles) != 5 {
		t.Errorf("default percentiles = %d, want 5", len(res.Percentiles))
	}
}
