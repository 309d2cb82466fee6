package s1_efficiency

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qpcr/internal/contracts"
)

func tidyRow(gene, dilution string, rep int, ct float64) contracts.TidyRow {
	return contracts.TidyRow{
		Measurement: contracts.Measurement{
			Gene:      gene,
			Group:     dilution,
			Replicate: rep,
			Ct:        [3]float64{ct, ct, ct},
		},
		CtMean: ct,
	}
}

// 10배 희석, 기울기 -3.32
func standardCurve(gene string) []contracts.TidyRow {
	return []contracts.TidyRow{
		tidyRow(gene, "1", 1, 20.00),
		tidyRow(gene, "0.1", 1, 23.32),
		tidyRow(gene, "0.01", 1, 26.64),
		tidyRow(gene, "0.001", 1, 29.96),
	}
}

func TestPrimerEfficiency(t *testing.T) {
	tests := []struct {
		name  string
		slope float64
		want  float64
		delta float64
	}{
		{"reference slope", -3.754, 84.66, 1e-9},
		{"ideal doubling", -3.32, 100.0, 0.5},
		{"rounded to two decimals", -3.1, 110.17, 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrimerEfficiency(tt.slope)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.delta)
		})
	}
}

func TestPrimerEfficiency_InvalidSlope(t *testing.T) {
	for _, slope := range []float64{0, math.NaN(), math.Inf(-1), -0.001, 0.001, -1e-300} {
		eff, err := PrimerEfficiency(slope)
		require.Error(t, err, "slope %v gave %v", slope, eff)
		assert.True(t, errors.Is(err, contracts.ErrDomain))
	}
}

func TestEstimate(t *testing.T) {
	res, err := Estimate(standardCurve("GOI"), "GOI")
	require.NoError(t, err)

	assert.Equal(t, "GOI", res.Gene)
	assert.InDelta(t, -3.32, res.Slope, 1e-9)
	assert.InDelta(t, 20.0, res.Intercept, 1e-9)
	assert.InDelta(t, -1.0, res.R, 1e-9)
	assert.InDelta(t, 1.0, res.RSquared(), 1e-9)
	assert.InDelta(t, 100.0, res.EfficiencyPercent, 0.5)
	assert.InDelta(t, 2.0, res.AmplificationFactor(), 0.005)
	require.Len(t, res.Points, 4)
	assert.InDelta(t, -3.0, res.Points[3].LogDilution, 1e-12)
}

func TestEstimate_FiltersGene(t *testing.T) {
	rows := append(standardCurve("GOI"), tidyRow("OTHER", "1", 1, 5), tidyRow("OTHER", "0.1", 1, 50))

	res, err := Estimate(rows, "GOI")
	require.NoError(t, err)
	assert.Len(t, res.Points, 4)
	assert.InDelta(t, -3.32, res.Slope, 1e-9)
}

func TestEstimate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    []contracts.TidyRow
		wantErr error
	}{
		{"gene absent", standardCurve("GOI")[:0], contracts.ErrEmptyInput},
		{"zero dilution", []contracts.TidyRow{tidyRow("GOI", "1", 1, 20), tidyRow("GOI", "0", 1, 25)}, contracts.ErrDomain},
		{"negative dilution", []contracts.TidyRow{tidyRow("GOI", "-0.1", 1, 20), tidyRow("GOI", "1", 1, 25)}, contracts.ErrDomain},
		{"unparseable dilution", []contracts.TidyRow{tidyRow("GOI", "1:10", 1, 20)}, contracts.ErrSchema},
		{"single dilution", []contracts.TidyRow{tidyRow("GOI", "1", 1, 20), tidyRow("GOI", "1", 2, 20.2)}, contracts.ErrUnderdeterminedFit},
		{"flat curve", []contracts.TidyRow{tidyRow("GOI", "1", 1, 20), tidyRow("GOI", "0.1", 1, 20)}, contracts.ErrDomain},
		{"nearly flat curve", []contracts.TidyRow{
			tidyRow("GOI", "1", 1, 20), tidyRow("GOI", "0.1", 1, 20.001), tidyRow("GOI", "0.01", 1, 20.002),
		}, contracts.ErrDomain},
		{"NA mean Ct", []contracts.TidyRow{tidyRow("GOI", "1", 1, 20), tidyRow("GOI", "0.1", 1, math.NaN())}, contracts.ErrDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Estimate(tt.rows, "GOI")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestEstimate_UnderdeterminedIsDomainError(t *testing.T) {
	_, err := Estimate([]contracts.TidyRow{tidyRow("GOI", "1", 1, 20)}, "GOI")

	var ue *contracts.UnderdeterminedFitError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 1, ue.Distinct)
	assert.True(t, errors.Is(err, contracts.ErrDomain))
}

func TestEstimate_TwoPoints(t *testing.T) {
	rows := []contracts.TidyRow{tidyRow("GOI", "1", 1, 20), tidyRow("GOI", "0.1", 1, 23.754)}

	res, err := Estimate(rows, "GOI")
	require.NoError(t, err)
	assert.InDelta(t, -3.754, res.Slope, 1e-9)
	assert.Equal(t, 84.66, res.EfficiencyPercent)
	assert.Equal(t, 0.0, res.StdErr)
	assert.Equal(t, 0.0, res.PValue)
}

func TestEstimateAll(t *testing.T) {
	rows := append(standardCurve("b-actin"), standardCurve("GAPDH")...)

	results, err := EstimateAll(rows, []string{"b-actin", "GAPDH"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "GAPDH", results[0].Gene)
	assert.Equal(t, "b-actin", results[1].Gene)
}

func TestEstimateAll_PropagatesError(t *testing.T) {
	_, err := EstimateAll(standardCurve("GOI"), []string{"GOI", "MISSING"})
	assert.True(t, errors.Is(err, contracts.ErrEmptyInput))
}

func TestPoints_NonFiniteCt(t *testing.T) {
	_, err := Points([]contracts.TidyRow{tidyRow("GOI", "0.1", 1, math.Inf(1))}, "GOI")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no finite mean Ct")
}
