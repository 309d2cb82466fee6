package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// =============================================================================
// Descriptive statistics
// =============================================================================

// MeanSEM returns the arithmetic mean and the sample standard error of xs
// (sample standard deviation / sqrt(n)).
// 모든 값이 같으면 mean은 그 값 그대로, SEM은 정확히 0
// n < 2 이면 SEM은 0
func MeanSEM(xs []float64) (mean, sem float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	if allEqual(xs) {
		return xs[0], 0
	}

	mean, std := stat.MeanStdDev(xs, nil)
	sem = std / math.Sqrt(float64(len(xs)))
	return mean, sem
}

// Mean returns the arithmetic mean of xs (exact when all values are equal)
func Mean(xs []float64) float64 {
	m, _ := MeanSEM(xs)
	return m
}

// AllFinite reports whether every value is neither NaN nor ±Inf
func AllFinite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Distinct counts distinct values
func Distinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		seen[x] = struct{}{}
	}
	return len(seen)
}

func allEqual(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// =============================================================================
// Simple linear regression
// =============================================================================

// Fit is an ordinary least-squares fit of y on x
type Fit struct {
	Slope     float64
	Intercept float64
	R         float64 // Pearson correlation
	PValue    float64 // two-sided, H0: slope = 0
	StdErr    float64 // standard error of the slope
	N         int
}

// LinearFit fits y = Intercept + Slope*x.
// Callers guarantee len(x) == len(y) and at least two distinct x values.
//
// With two points (or a perfect fit) the slope error is 0 and p is 0,
// the same convention scipy's linregress uses.
func LinearFit(x, y []float64) Fit {
	n := len(x)
	alpha, beta := stat.LinearRegression(x, y, nil, false)

	fit := Fit{
		Slope:     beta,
		Intercept: alpha,
		N:         n,
	}

	varX := stat.Variance(x, nil)
	varY := stat.Variance(y, nil)
	if varX == 0 || varY == 0 {
		// y 상수: r 정의 불가 → 0
		fit.PValue = 1
		return fit
	}

	r := stat.Correlation(x, y, nil)
	// 부동소수 오차로 |r| > 1 이 나올 수 있음
	r = math.Max(-1, math.Min(1, r))
	fit.R = r

	df := float64(n - 2)
	oneMinusR2 := (1 - r) * (1 + r)
	if df <= 0 || oneMinusR2 <= 0 {
		return fit
	}

	t := r * math.Sqrt(df/oneMinusR2)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	fit.PValue = 2 * dist.Survival(math.Abs(t))
	fit.StdErr = math.Sqrt(oneMinusR2 * varY / varX / df)

	return fit
}
