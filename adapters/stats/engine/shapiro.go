package engine

import (
	"fmt"
	"math"

	"gocompare/domain/core"
)

// Shapiro-Wilk W test for normality, following Royston's 1995 algorithm
// (AS R94). Valid for 3 <= n <= 5000; above that the p-value approximation
// degrades slowly but stays usable.

// Polynomial coefficients for the Royston weight corrections and the
// parameters of the transformed W distribution, indexed by ascending power.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilk computes the W statistic and upper-tail p-value for the null
// hypothesis that the sample is drawn from a normal distribution. The sample
// must have at least three values and a nonzero range.
func ShapiroWilk(sample []float64) (w, p float64, err error) {
	n := len(sample)
	if n < 3 {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: shapiro-wilk needs n >= 3, got %d", core.ErrInsufficientData, n)
	}

	x := sortedCopy(sample)
	if x[n-1]-x[0] == 0 {
		return math.NaN(), math.NaN(), fmt.Errorf("%w: zero range", core.ErrInsufficientData)
	}

	weights := roystonWeights(n)

	// W = (sum a_i x_(i))^2 / sum (x_i - mean)^2
	mean := sampleMean(x)
	num, den := 0.0, 0.0
	for i, v := range x {
		num += weights[i] * v
		den += (v - mean) * (v - mean)
	}
	w = num * num / den
	if w > 1 {
		w = 1 // numerical noise on nearly perfect fits
	}

	p = roystonPValue(w, n)
	return w, p, nil
}

// roystonWeights builds the full antisymmetric weight vector a_1..a_n from
// the expected normal order statistics, with Royston's polynomial corrections
// to the outer one (n <= 5) or two (n > 5) weights.
func roystonWeights(n int) []float64 {
	dist := NewDistributions()

	// Expected values of normal order statistics, Blom-style approximation.
	m := make([]float64, n)
	ssqM := 0.0
	for i := 0; i < n; i++ {
		m[i] = dist.NormalQuantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
		ssqM += m[i] * m[i]
	}

	a := make([]float64, n)
	if n == 3 {
		a[0] = -math.Sqrt(0.5)
		a[1] = 0
		a[2] = math.Sqrt(0.5)
		return a
	}

	rsn := 1 / math.Sqrt(float64(n))
	normM := math.Sqrt(ssqM)

	an := m[n-1]/normM + polyval(swC1, rsn)
	var phi float64
	if n > 5 {
		an1 := m[n-2]/normM + polyval(swC2, rsn)
		phi = (ssqM - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-1], a[0] = an, -an
		a[n-2], a[1] = an1, -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	} else {
		phi = (ssqM - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
		a[n-1], a[0] = an, -an
		for i := 1; i < n-1; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
	}
	return a
}

// roystonPValue maps a W statistic to an upper-tail p-value using the
// piecewise normalizing transformations from AS R94.
func roystonPValue(w float64, n int) float64 {
	dist := NewDistributions()

	switch {
	case n == 3:
		// Exact small-sample distribution.
		const stqr = math.Pi / 3 // asin(sqrt(3/4))
		p := (6 / math.Pi) * (math.Asin(math.Sqrt(w)) - stqr)
		if p < 0 {
			return 0
		}
		if p > 1 {
			return 1
		}
		return p

	case n <= 11:
		gamma := polyval(swG, float64(n))
		if gamma-math.Log(1-w) <= 0 {
			// w beyond the transform's support, overwhelming evidence
			// against normality
			return 1e-99
		}
		y := -math.Log(gamma - math.Log(1-w))
		mu := polyval(swC3, float64(n))
		sigma := math.Exp(polyval(swC4, float64(n)))
		return dist.NormalSurvival((y - mu) / sigma)

	default:
		logN := math.Log(float64(n))
		y := math.Log(1 - w)
		mu := polyval(swC5, logN)
		sigma := math.Exp(polyval(swC6, logN))
		return dist.NormalSurvival((y - mu) / sigma)
	}
}

// polyval evaluates a polynomial with coefficients ordered by ascending power.
func polyval(coeffs []float64, x float64) float64 {
	sum := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		sum = sum*x + coeffs[i]
	}
	return sum
}
