package analytics

import "math"

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleVariance returns the unbiased (n-1) sample variance, 0 when n < 2.
func SampleVariance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(n-1)
}

// StdDev returns the sample standard deviation.
func StdDev(xs []float64) float64 {
	return math.Sqrt(SampleVariance(xs))
}

// Round rounds half-up (away from zero) to the given number of fractional
// digits. External-facing fractional values carry 8 digits, percents 2.
func Round(x float64, scale int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	// Already integral beyond float precision; scaling would overflow.
	if math.Abs(x) >= 1e15 {
		return x
	}
	p := math.Pow(10, float64(scale))
	if x >= 0 {
		return math.Floor(x*p+0.5) / p
	}
	return -math.Floor(-x*p+0.5) / p
}

// LogReturns computes ln(p[i]/p[i-1]) for consecutive positive prices.
// Non-positive pairs contribute a zero return, matching the window
// semantics where such ticks never enter in the first place.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			returns[i-1] = math.Log(prices[i] / prices[i-1])
		}
	}
	return returns
}
