package contracts

// FractionRow is one replicate's share of transcript in one fraction
type FractionRow struct {
	Fraction          int     `json:"fraction"`
	Replicate         int     `json:"replicate"`
	DeltaCt           float64 `json:"delta_ct"`
	RelativeQuantity  float64 `json:"relative_quantity"`
	PercentInFraction float64 `json:"percent_in_fraction"`
}

// FractionSummary aggregates one fraction across replicates
// ⭐ SSOT: S3 → 리포트/저장 전달
type FractionSummary struct {
	Fraction       int                     `json:"fraction"`
	Percent        [ReplicateCount]float64 `json:"percent"`
	AveragePercent float64                 `json:"average_percent"`
	SEMPercent     float64                 `json:"sem_percent"`
}

// PolysomeProfile is the fraction distribution of one gene under one condition
type PolysomeProfile struct {
	Gene      string            `json:"gene"`
	Condition string            `json:"condition"`
	Rows      []FractionRow     `json:"rows"`      // ordered by fraction, then replicate
	Summaries []FractionSummary `json:"summaries"` // one per fraction, ascending
}

// Fractions returns the number of fractions in the profile
func (p *PolysomeProfile) Fractions() int {
	return len(p.Summaries)
}

// ReplicateTotal sums percent_in_fraction of one replicate (≈100)
func (p *PolysomeProfile) ReplicateTotal(rep int) float64 {
	total := 0.0
	for _, row := range p.Rows {
		if row.Replicate == rep {
			total += row.PercentInFraction
		}
	}
	return total
}
