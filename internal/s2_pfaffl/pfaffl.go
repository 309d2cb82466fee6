package s2_pfaffl

import (
	"fmt"
	"math"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/stats"
)

const op = "pfaffl"

// Request names the gene pair, the two conditions and the primer
// efficiencies (percent) of one Pfaffl analysis
type Request struct {
	Target                string  `json:"target"`
	Reference             string  `json:"reference"`
	ControlCondition      string  `json:"control_condition"`
	ExperimentalCondition string  `json:"experimental_condition"`
	TargetEfficiency      float64 `json:"target_efficiency"`
	ReferenceEfficiency   float64 `json:"reference_efficiency"`
}

// Validate checks the request before any row is touched
func (r Request) Validate() error {
	switch {
	case r.Target == "" || r.Reference == "":
		return contracts.NewDomainError(op, "target and reference genes are required")
	case r.Target == r.Reference:
		return contracts.NewDomainError(op, "target and reference must differ (both %q)", r.Target)
	case r.ControlCondition == "" || r.ExperimentalCondition == "":
		return contracts.NewDomainError(op, "control and experimental conditions are required")
	case r.ControlCondition == r.ExperimentalCondition:
		return contracts.NewDomainError(op, "control and experimental conditions must differ (both %q)", r.ControlCondition)
	}
	if _, err := Factor(r.TargetEfficiency); err != nil {
		return err
	}
	if _, err := Factor(r.ReferenceEfficiency); err != nil {
		return err
	}
	return nil
}

// Factor converts an efficiency percentage to the amplification factor
// per cycle (100% → 2)
func Factor(efficiency float64) (float64, error) {
	if !stats.AllFinite(efficiency) || efficiency <= -100 {
		return 0, contracts.NewDomainError(op, "efficiency %v%% gives no positive amplification factor", efficiency)
	}
	return efficiency/100 + 1, nil
}

// Calc returns the efficiency-weighted expression ratio
// factorT^ΔCt_target / factorR^ΔCt_reference
func Calc(deltaTarget, deltaReference, effTarget, effReference float64) (float64, error) {
	ft, err := Factor(effTarget)
	if err != nil {
		return 0, err
	}
	fr, err := Factor(effReference)
	if err != nil {
		return 0, err
	}
	if !stats.AllFinite(deltaTarget, deltaReference) {
		return 0, contracts.NewDomainError(op, "non-finite delta Ct (%v, %v)", deltaTarget, deltaReference)
	}

	ratio := math.Pow(ft, deltaTarget) / math.Pow(fr, deltaReference)
	if !stats.AllFinite(ratio) || ratio <= 0 {
		return 0, contracts.NewDomainError(op, "ratio overflowed for delta Ct (%v, %v)", deltaTarget, deltaReference)
	}
	return ratio, nil
}

type pairKey struct {
	condition string
	replicate int
}

// Analyze runs the full Pfaffl computation
// ⭐ SSOT: S2 진입점. baseline → ΔCt → 짝짓기 → 비율 → 조건별 요약
func Analyze(rows []contracts.TidyRow, req Request) (*contracts.ExpressionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 1. 유전자별 control baseline
	baseTarget, err := baseline(rows, req.Target, req.ControlCondition)
	if err != nil {
		return nil, err
	}
	baseRef, err := baseline(rows, req.Reference, req.ControlCondition)
	if err != nil {
		return nil, err
	}

	result := &contracts.ExpressionResult{
		Target:                req.Target,
		Reference:             req.Reference,
		ControlCondition:      req.ControlCondition,
		ExperimentalCondition: req.ExperimentalCondition,
		TargetEfficiency:      req.TargetEfficiency,
		ReferenceEfficiency:   req.ReferenceEfficiency,
		BaselineTarget:        baseTarget,
		BaselineReference:     baseRef,
	}

	// 2. ΔCt: 모든 행, 자기 유전자의 baseline 기준
	targets := make(map[pairKey]float64)
	refs := make(map[pairKey]float64)
	var order []pairKey
	for _, row := range rows {
		var (
			base float64
			into map[pairKey]float64
		)
		switch row.Gene {
		case req.Target:
			base, into = baseTarget, targets
		case req.Reference:
			base, into = baseRef, refs
		default:
			continue
		}

		delta := row.CtMean - base
		result.DeltaCts = append(result.DeltaCts, contracts.DeltaCtRow{
			Gene:      row.Gene,
			Condition: row.Condition,
			Replicate: row.Replicate,
			DeltaCt:   delta,
		})

		if row.Condition != req.ControlCondition && row.Condition != req.ExperimentalCondition {
			continue
		}
		if !contracts.ValidReplicate(row.Replicate) {
			return nil, contracts.NewDomainError(op, "gene %q condition %q: replicate %d outside 1..%d",
				row.Gene, row.Condition, row.Replicate, contracts.ReplicateCount)
		}

		key := pairKey{condition: row.Condition, replicate: row.Replicate}
		if _, dup := into[key]; dup {
			return nil, contracts.NewDomainError(op, "gene %q condition %q replicate %d appears more than once",
				row.Gene, row.Condition, row.Replicate)
		}
		into[key] = delta
		if row.Gene == req.Target {
			order = append(order, key)
		}
	}

	// 3-4. (condition, replicate) 짝짓기. 짝 없는 행은 버리고 개수만 기록
	for _, key := range order {
		dRef, ok := refs[key]
		if !ok {
			result.Dropped++
			continue
		}
		ratio, err := Calc(targets[key], dRef, req.TargetEfficiency, req.ReferenceEfficiency)
		if err != nil {
			return nil, fmt.Errorf("condition %q replicate %d: %w", key.condition, key.replicate, err)
		}
		result.Ratios = append(result.Ratios, contracts.RatioRow{
			Gene:      req.Target,
			Condition: key.condition,
			Replicate: key.replicate,
			Ratio:     ratio,
		})
	}
	for key := range refs {
		if _, ok := targets[key]; !ok {
			result.Dropped++
		}
	}

	if len(result.Ratios) == 0 {
		return nil, contracts.NewEmptyInputError(op, "no %q/%q pairs share condition and replicate", req.Target, req.Reference)
	}

	// 5. 조건별 [3] 슬롯 요약 (control 먼저)
	for _, cond := range []string{req.ControlCondition, req.ExperimentalCondition} {
		summary, err := summarize(req.Target, cond, result.Ratios)
		if err != nil {
			return nil, err
		}
		result.Summaries = append(result.Summaries, summary)
	}

	return result, nil
}

// baseline is the mean Ct_mean of gene under the control condition
func baseline(rows []contracts.TidyRow, gene, control string) (float64, error) {
	var cts []float64
	for _, row := range rows {
		if row.Gene == gene && row.Condition == control {
			cts = append(cts, row.CtMean)
		}
	}
	if len(cts) == 0 {
		return 0, contracts.NewEmptyInputError(op, "no rows for gene %q under control condition %q", gene, control)
	}
	return stats.Mean(cts), nil
}

func summarize(gene, condition string, ratios []contracts.RatioRow) (contracts.RatioSummary, error) {
	summary := contracts.RatioSummary{Gene: gene, Condition: condition}
	for _, r := range ratios {
		if r.Condition != condition {
			continue
		}
		if err := summary.Slots.Set(r.Replicate, r.Ratio); err != nil {
			return summary, contracts.NewDomainError(op, "condition %q: %v", condition, err)
		}
	}

	values := summary.Slots.Collected()
	if len(values) == 0 {
		return summary, contracts.NewEmptyInputError(op, "no matched pairs under condition %q", condition)
	}

	summary.N = len(values)
	summary.MeanRatio, summary.SEMRatio = stats.MeanSEM(values)
	return summary, nil
}
