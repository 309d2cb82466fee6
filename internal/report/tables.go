package report

import (
	"strconv"
	"strings"

	"github.com/wonny/qpcr/internal/contracts"
)

// Table is a rendered result table: a title, a header and string cells
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Column headers of the result tables
var (
	EfficiencyColumns = []string{"Gene", "Slope", "Intercept", "Error", "R", "p_value", "Primer Efficiency"}
	ExpressionColumns = []string{
		"Gene", "Condition",
		"Gene Expression Ratio 1", "Gene Expression Ratio 2", "Gene Expression Ratio 3",
		"Average GER", "SEM GER", "N",
	}
	DeltaCtColumns  = []string{"Gene", "Condition", "Replicate", "Delta Ct"}
	PolysomeColumns = []string{
		"Gene", "Condition", "Fraction",
		"Percent in fraction R1", "Percent in fraction R2", "Percent in fraction R3",
		"Average Percent in Fraction", "SEM Percent in Fraction",
	}
)

// TidyTable renders tidy rows. The group column is named after the schema.
func TidyTable(schema contracts.Schema, rows []contracts.TidyRow) Table {
	group := "Group"
	if schema.IsValid() {
		group = headerCase(schema.GroupColumn())
	}

	columns := []string{"Gene", group}
	if schema == contracts.SchemaFraction {
		columns = append(columns, "Condition")
	} else {
		columns = append(columns, "Replicate")
	}
	columns = append(columns, "Ct1", "Ct2", "Ct3", "Ct_mean", "Ct_sem")

	t := Table{Title: "Tidy " + string(schema), Columns: columns}
	for _, r := range rows {
		cells := []string{r.Gene, r.Group}
		if schema == contracts.SchemaFraction {
			cells = append(cells, r.Condition)
		} else {
			cells = append(cells, strconv.Itoa(r.Replicate))
		}
		for _, ct := range r.Ct {
			cells = append(cells, formatFloat(ct))
		}
		cells = append(cells, formatFloat(r.CtMean), formatFloat(r.CtSEM))
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// EfficiencyTable renders one row per gene
func EfficiencyTable(results []*contracts.EfficiencyResult) Table {
	t := Table{Title: "Primer Efficiency", Columns: EfficiencyColumns}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.Gene,
			formatFloat(r.Slope),
			formatFloat(r.Intercept),
			formatFloat(r.StdErr),
			formatFloat(r.R),
			formatFloat(r.PValue),
			formatFloat(r.EfficiencyPercent),
		})
	}
	return t
}

// ExpressionTable renders the per-condition ratio summaries
func ExpressionTable(result *contracts.ExpressionResult) Table {
	t := Table{
		Title:   "Gene Expression Ratio " + result.Target + "/" + result.Reference,
		Columns: ExpressionColumns,
	}
	for _, s := range result.Summaries {
		cells := []string{s.Gene, s.Condition}
		for rep := 1; rep <= contracts.ReplicateCount; rep++ {
			v, ok := s.Slots.Get(rep)
			if !ok {
				cells = append(cells, "")
				continue
			}
			cells = append(cells, formatFloat(v))
		}
		cells = append(cells, formatFloat(s.MeanRatio), formatFloat(s.SEMRatio), strconv.Itoa(s.N))
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// DeltaCtTable renders every ΔCt row of an expression result
func DeltaCtTable(result *contracts.ExpressionResult) Table {
	t := Table{Title: "Delta Ct", Columns: DeltaCtColumns}
	for _, d := range result.DeltaCts {
		t.Rows = append(t.Rows, []string{d.Gene, d.Condition, strconv.Itoa(d.Replicate), formatFloat(d.DeltaCt)})
	}
	return t
}

// PolysomeTable renders the fraction summaries of one or more profiles
func PolysomeTable(profiles ...*contracts.PolysomeProfile) Table {
	t := Table{Title: "Polysome Profile", Columns: PolysomeColumns}
	for _, p := range profiles {
		for _, s := range p.Summaries {
			cells := []string{p.Gene, p.Condition, strconv.Itoa(s.Fraction)}
			for _, pct := range s.Percent {
				cells = append(cells, formatFloat(pct))
			}
			cells = append(cells, formatFloat(s.AveragePercent), formatFloat(s.SEMPercent))
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func headerCase(col string) string {
	if col == "" {
		return col
	}
	return strings.ToUpper(col[:1]) + col[1:]
}
