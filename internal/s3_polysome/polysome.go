package s3_polysome

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/stats"
)

const op = "polysome"

// Target is one gene/condition pair found in fraction data
type Target struct {
	Gene      string `json:"gene"`
	Condition string `json:"condition"`
}

// Targets lists every gene/condition pair in rows, sorted by gene then condition
func Targets(rows []contracts.TidyRow) []Target {
	seen := make(map[Target]bool)
	var out []Target
	for _, row := range rows {
		t := Target{Gene: row.Gene, Condition: row.Condition}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gene != out[j].Gene {
			return out[i].Gene < out[j].Gene
		}
		return out[i].Condition < out[j].Condition
	})
	return out
}

// Profile distributes one gene's transcript across polysome fractions.
// Ct1..Ct3 of each row are the three biological replicates.
// ⭐ SSOT: S3 진입점. fraction 1 기준 ΔCt → 2^ΔCt → 분율(%)
func Profile(rows []contracts.TidyRow, gene, condition string) (*contracts.PolysomeProfile, error) {
	byFraction := make(map[int][contracts.ReplicateCount]float64)
	for _, row := range rows {
		if row.Gene != gene || row.Condition != condition {
			continue
		}

		fraction, err := parseFraction(row.Group)
		if err != nil {
			return nil, err
		}
		if _, dup := byFraction[fraction]; dup {
			return nil, contracts.NewDomainError(op, "gene %q condition %q: fraction %d appears more than once", gene, condition, fraction)
		}
		if !stats.AllFinite(row.Ct[:]...) {
			return nil, contracts.NewDomainError(op, "gene %q condition %q fraction %d: non-finite Ct %v", gene, condition, fraction, row.Ct)
		}
		byFraction[fraction] = row.Ct
	}

	if len(byFraction) == 0 {
		return nil, contracts.NewDomainError(op, "no fraction rows for gene %q condition %q", gene, condition)
	}
	base, ok := byFraction[1]
	if !ok {
		return nil, contracts.NewDomainError(op, "gene %q condition %q: fraction 1 is missing", gene, condition)
	}

	fractions := make([]int, 0, len(byFraction))
	for f := range byFraction {
		fractions = append(fractions, f)
	}
	sort.Ints(fractions)

	// 반복별 ΔCt, RQ 및 합계
	var (
		deltas [][contracts.ReplicateCount]float64
		rqs    [][contracts.ReplicateCount]float64
		totals [contracts.ReplicateCount]float64
	)
	for _, f := range fractions {
		var d, q [contracts.ReplicateCount]float64
		for r := 0; r < contracts.ReplicateCount; r++ {
			d[r] = base[r] - byFraction[f][r]
			q[r] = math.Exp2(d[r])
			totals[r] += q[r]
		}
		deltas = append(deltas, d)
		rqs = append(rqs, q)
	}
	for r, total := range totals {
		if !stats.AllFinite(total) {
			return nil, contracts.NewDomainError(op, "gene %q condition %q replicate %d: relative quantities overflow", gene, condition, r+1)
		}
	}

	profile := &contracts.PolysomeProfile{Gene: gene, Condition: condition}
	for i, f := range fractions {
		summary := contracts.FractionSummary{Fraction: f}
		for r := 0; r < contracts.ReplicateCount; r++ {
			pct := rqs[i][r] * 100 / totals[r]
			summary.Percent[r] = pct
			profile.Rows = append(profile.Rows, contracts.FractionRow{
				Fraction:          f,
				Replicate:         r + 1,
				DeltaCt:           deltas[i][r],
				RelativeQuantity:  rqs[i][r],
				PercentInFraction: pct,
			})
		}
		summary.AveragePercent, summary.SEMPercent = stats.MeanSEM(summary.Percent[:])
		profile.Summaries = append(profile.Summaries, summary)
	}

	return profile, nil
}

// ProfileAll profiles every gene/condition pair in rows
func ProfileAll(rows []contracts.TidyRow) ([]*contracts.PolysomeProfile, error) {
	targets := Targets(rows)
	out := make([]*contracts.PolysomeProfile, 0, len(targets))
	for _, t := range targets {
		p, err := Profile(rows, t.Gene, t.Condition)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseFraction(group string) (int, error) {
	f, err := strconv.Atoi(strings.TrimSpace(group))
	if err != nil || f < 1 {
		return 0, &contracts.SchemaError{
			Schema:  contracts.SchemaFraction,
			Message: "fraction " + strconv.Quote(group) + " is not an integer >= 1",
		}
	}
	return f, nil
}
