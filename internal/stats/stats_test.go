package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanSEM(t *testing.T) {
	tests := []struct {
		name     string
		xs       []float64
		wantMean float64
		wantSEM  float64
	}{
		{"equal values", []float64{21.3, 21.3, 21.3}, 21.3, 0},
		{"single value", []float64{18.0}, 18.0, 0},
		// sd = 1, sem = 1/sqrt(3)
		{"unit spread", []float64{19, 20, 21}, 20, 1 / math.Sqrt(3)},
		{"two values", []float64{10, 12}, 11, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, sem := MeanSEM(tt.xs)
			assert.InDelta(t, tt.wantMean, mean, 1e-12)
			assert.InDelta(t, tt.wantSEM, sem, 1e-12)
		})
	}
}

func TestMeanSEM_EqualValuesAreExact(t *testing.T) {
	// 0.1*3/3 != 0.1 in floating point; the shortcut keeps it exact
	mean, sem := MeanSEM([]float64{0.1, 0.1, 0.1})
	assert.Equal(t, 0.1, mean)
	assert.Equal(t, 0.0, sem)
}

func TestMeanSEM_Empty(t *testing.T) {
	mean, sem := MeanSEM(nil)
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(sem))
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite(1, 2, 3))
	assert.False(t, AllFinite(1, math.NaN()))
	assert.False(t, AllFinite(math.Inf(1)))
	assert.True(t, AllFinite())
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, 3, Distinct([]float64{1, 1, 2, 3, 3}))
	assert.Equal(t, 0, Distinct(nil))
}

func TestLinearFit_PerfectLine(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{30, 26.7, 23.4, 20.1}

	fit := LinearFit(x, y)

	assert.InDelta(t, -3.3, fit.Slope, 1e-9)
	assert.InDelta(t, 30.0, fit.Intercept, 1e-9)
	assert.InDelta(t, -1.0, fit.R, 1e-9)
	assert.InDelta(t, 0.0, fit.StdErr, 1e-6)
	assert.InDelta(t, 0.0, fit.PValue, 1e-6)
	assert.Equal(t, 4, fit.N)
}

func TestLinearFit_NoisyLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1}

	fit := LinearFit(x, y)

	// Sxx = 10, Sxy = 19.9, Syy = 39.708
	assert.InDelta(t, 1.99, fit.Slope, 1e-9)
	assert.InDelta(t, 0.05, fit.Intercept, 1e-9)
	assert.InDelta(t, 0.99865, fit.R, 1e-4)
	assert.InDelta(t, 0.05972, fit.StdErr, 1e-4)
	// t = 1.99/0.05972 ≈ 33.32, df = 3, two-sided
	assert.InDelta(t, 5.94154e-05, fit.PValue, 1e-9)
}

func TestLinearFit_TwoPoints(t *testing.T) {
	fit := LinearFit([]float64{0, 1}, []float64{25, 21.7})

	assert.InDelta(t, -3.3, fit.Slope, 1e-9)
	assert.InDelta(t, 0.0, fit.StdErr, 1e-12)
	assert.InDelta(t, 0.0, fit.PValue, 1e-12)
}

func TestLinearFit_ConstantY(t *testing.T) {
	fit := LinearFit([]float64{0, 1, 2}, []float64{20, 20, 20})

	assert.Equal(t, 0.0, fit.Slope)
	assert.Equal(t, 0.0, fit.R)
	assert.Equal(t, 1.0, fit.PValue)
}
