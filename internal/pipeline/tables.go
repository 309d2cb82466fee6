package pipeline

import "github.com/wonny/qpcr/internal/report"

// Tables renders every result of the run in stage order
func (r *RunResult) Tables() []report.Table {
	var tables []report.Table
	if len(r.Efficiencies) > 0 {
		tables = append(tables, report.EfficiencyTable(r.Efficiencies))
	}
	if r.Expression != nil {
		tables = append(tables, report.ExpressionTable(r.Expression), report.DeltaCtTable(r.Expression))
	}
	if len(r.Profiles) > 0 {
		tables = append(tables, report.PolysomeTable(r.Profiles...))
	}
	return tables
}
