package analytics

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if got := Mean([]float64{2, 4, 6}); got != 4 {
		t.Errorf("Mean = %v, want 4", got)
	}
}

func TestSampleVariance(t *testing.T) {
	if got := SampleVariance([]float64{5}); got != 0 {
		t.Errorf("variance of single value = %v, want 0", got)
	}
	// {2,4,4,4,5,5,7,9}: mean 5, sum of squares 32, n-1 = 7
	got := SampleVariance([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := 32.0 / 7.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("variance = %v, want %v", got, want)
	}
}

func TestStdDevConstantSeries(t *testing.T) {
	if got := StdDev([]float64{3, 3, 3, 3}); got != 0 {
		t.Errorf("stddev of constant series = %v, want 0", got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		x     float64
		scale int
		want  float64
	}{
		{2.345, 2, 2.35},
		{2.344, 2, 2.34},
		{-2.345, 2, -2.35}, // away from zero
		{-2.344, 2, -2.34},
		{0.123456785, 8, 0.12345679},
		{1.5, 0, 2},
		{-1.5, 0, -2},
	}
	for _, c := range cases {
		if got := Round(c.x, c.scale); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("Round(%v, %d) = %v, want %v", c.x, c.scale, got, c.want)
		}
	}
}

func TestRoundNonFinite(t *testing.T) {
	if got := Round(math.NaN(), 2); got != 0 {
		t.Errorf("Round(NaN) = %v, want 0", got)
	}
	if got := Round(math.Inf(1), 2); got != 0 {
		t.Errorf("Round(+Inf) = %v, want 0", got)
	}
	if got := Round(math.MaxFloat64, 8); got != math.MaxFloat64 {
		t.Errorf("Round(MaxFloat64) = %v, want unchanged", got)
	}
}

func TestLogReturns(t *testing.T) {
	if got := LogReturns([]float64{100}); got != nil {
		t.Errorf("single price should yield nil, got %v", got)
	}

	returns := LogReturns([]float64{100, 110, 99})
	if len(returns) != 2 {
		t.Fatalf("len = %d, want 2", len(returns))
	}
	if math.Abs(returns[0]-math.Log(1.1)) > 1e-12 {
		t.Errorf("returns[0] = %v, want ln(1.1)", returns[0])
	}
	if math.Abs(returns[1]-math.Log(99.0/110.0)) > 1e-12 {
		t.Errorf("returns[1] = %v, want ln(0.9)", returns[1])
	}
}
