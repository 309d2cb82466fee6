package contracts

// DeltaCtRow is a row's Ct_mean minus its own gene's control baseline
type DeltaCtRow struct {
	Gene      string  `json:"gene"`
	Condition string  `json:"condition"`
	Replicate int     `json:"replicate"`
	DeltaCt   float64 `json:"delta_ct"`
}

// RatioRow is the efficiency-weighted expression ratio of one matched
// target/reference pair
type RatioRow struct {
	Gene      string  `json:"gene"`
	Condition string  `json:"condition"`
	Replicate int     `json:"replicate"`
	Ratio     float64 `json:"ratio"`
}

// RatioSummary aggregates the ratios of one condition across replicate slots
// ⭐ SSOT: S2 → 리포트/저장 전달
type RatioSummary struct {
	Gene      string         `json:"gene"`
	Condition string         `json:"condition"`
	Slots     ReplicateSlots `json:"slots"`
	N         int            `json:"n"`
	MeanRatio float64        `json:"mean_ratio"`
	SEMRatio  float64        `json:"sem_ratio"`
}

// ExpressionResult is the full Pfaffl output for one target/reference pair
type ExpressionResult struct {
	Target                string  `json:"target"`
	Reference             string  `json:"reference"`
	ControlCondition      string  `json:"control_condition"`
	ExperimentalCondition string  `json:"experimental_condition"`
	TargetEfficiency      float64 `json:"target_efficiency"`
	ReferenceEfficiency   float64 `json:"reference_efficiency"`
	BaselineTarget        float64 `json:"baseline_target"`
	BaselineReference     float64 `json:"baseline_reference"`

	DeltaCts  []DeltaCtRow   `json:"delta_cts"`
	Ratios    []RatioRow     `json:"ratios"`
	Summaries []RatioSummary `json:"summaries"` // control first, experimental second

	// Dropped counts target/reference rows without a counterpart sharing
	// condition and replicate
	Dropped int `json:"dropped"`
}

// Summary returns the summary for a condition
func (r *ExpressionResult) Summary(condition string) (RatioSummary, bool) {
	for _, s := range r.Summaries {
		if s.Condition == condition {
			return s, true
		}
	}
	return RatioSummary{}, false
}

// FoldChange returns experimental mean ratio / control mean ratio.
// ok is false when either summary is absent.
func (r *ExpressionResult) FoldChange() (fold float64, ok bool) {
	ctrl, ok1 := r.Summary(r.ControlCondition)
	exp, ok2 := r.Summary(r.ExperimentalCondition)
	if !ok1 || !ok2 || ctrl.MeanRatio == 0 {
		return 0, false
	}
	return exp.MeanRatio / ctrl.MeanRatio, true
}
