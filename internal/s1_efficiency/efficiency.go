package s1_efficiency

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/stats"
)

const op = "efficiency"

// PrimerEfficiency converts a standard-curve slope to an efficiency percentage,
// rounded to two decimals. A slope of -3.32 is ~100% (perfect doubling).
func PrimerEfficiency(slope float64) (float64, error) {
	if slope == 0 || !stats.AllFinite(slope) {
		return 0, contracts.NewDomainError(op, "slope %v has no efficiency", slope)
	}

	eff := math.Round((math.Pow(10, -1/slope)-1)*100*100) / 100
	// 기울기가 0에 가까우면 10^(-1/slope)가 Inf 또는 0으로 붕괴
	if math.IsInf(eff, 0) || eff <= -100 {
		return 0, contracts.NewDomainError(op, "slope %v gives no finite efficiency", slope)
	}
	return eff, nil
}

// Estimate fits Ct_mean against log10(dilution) for one gene
// ⭐ SSOT: S1 진입점. 희석 시리즈 → 효율
func Estimate(rows []contracts.TidyRow, gene string) (*contracts.EfficiencyResult, error) {
	points, err := Points(rows, gene)
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.LogDilution
		y[i] = p.CtMean
	}

	if n := stats.Distinct(x); n < 2 {
		return nil, &contracts.UnderdeterminedFitError{Gene: gene, Distinct: n}
	}

	fit := stats.LinearFit(x, y)
	eff, err := PrimerEfficiency(fit.Slope)
	if err != nil {
		// Ct가 희석과 (거의) 무관
		return nil, contracts.NewDomainError(op, "gene %q: Ct does not change with dilution (slope %v)", gene, fit.Slope)
	}

	return &contracts.EfficiencyResult{
		Gene:              gene,
		Slope:             fit.Slope,
		Intercept:         fit.Intercept,
		StdErr:            fit.StdErr,
		R:                 fit.R,
		PValue:            fit.PValue,
		EfficiencyPercent: eff,
		Points:            points,
	}, nil
}

// EstimateAll estimates every gene independently. Results are sorted by gene.
func EstimateAll(rows []contracts.TidyRow, genes []string) ([]*contracts.EfficiencyResult, error) {
	sorted := append([]string(nil), genes...)
	sort.Strings(sorted)

	out := make([]*contracts.EfficiencyResult, 0, len(sorted))
	for _, gene := range sorted {
		res, err := Estimate(rows, gene)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Points extracts the dilution series of one gene in input order
func Points(rows []contracts.TidyRow, gene string) ([]contracts.DilutionPoint, error) {
	var points []contracts.DilutionPoint
	for _, row := range rows {
		if row.Gene != gene {
			continue
		}

		dilution, err := strconv.ParseFloat(strings.TrimSpace(row.Group), 64)
		if err != nil {
			return nil, &contracts.SchemaError{
				Schema:  contracts.SchemaDilution,
				Message: "gene " + strconv.Quote(gene) + ": dilution " + strconv.Quote(row.Group) + " is not a number",
			}
		}
		if !(dilution > 0) || math.IsInf(dilution, 0) {
			return nil, contracts.NewDomainError(op, "gene %q: dilution %v must be a positive finite number", gene, dilution)
		}

		if !stats.AllFinite(row.CtMean) {
			return nil, contracts.NewDomainError(op, "gene %q: dilution %v has no finite mean Ct", gene, dilution)
		}

		points = append(points, contracts.DilutionPoint{
			Gene:        gene,
			Replicate:   row.Replicate,
			Dilution:    dilution,
			LogDilution: math.Log10(dilution),
			CtMean:      row.CtMean,
			CtSEM:       row.CtSEM,
		})
	}

	if len(points) == 0 {
		return nil, contracts.NewEmptyInputError(op, "no dilution rows for gene %q", gene)
	}
	return points, nil
}
