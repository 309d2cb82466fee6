package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qpcr/internal/contracts"
)

func sampleExpression() *contracts.ExpressionResult {
	var ctrl, exp contracts.ReplicateSlots
	_ = ctrl.Set(1, 1)
	_ = ctrl.Set(2, 1)
	_ = exp.Set(1, 0.25)
	_ = exp.Set(3, 0.5)

	return &contracts.ExpressionResult{
		Target:                "GOI",
		Reference:             "ACTB",
		ControlCondition:      "Untreated",
		ExperimentalCondition: "Treated",
		DeltaCts: []contracts.DeltaCtRow{
			{Gene: "GOI", Condition: "Treated", Replicate: 1, DeltaCt: -2},
		},
		Summaries: []contracts.RatioSummary{
			{Gene: "GOI", Condition: "Untreated", Slots: ctrl, N: 2, MeanRatio: 1},
			{Gene: "GOI", Condition: "Treated", Slots: exp, N: 2, MeanRatio: 0.375, SEMRatio: 0.125},
		},
	}
}

func TestEfficiencyTable(t *testing.T) {
	table := EfficiencyTable([]*contracts.EfficiencyResult{
		{Gene: "GOI", Slope: -3.754, Intercept: 20, StdErr: 0.1, R: -0.99, PValue: 0.001, EfficiencyPercent: 84.66},
	})

	assert.Equal(t, EfficiencyColumns, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"GOI", "-3.754", "20", "0.1", "-0.99", "0.001", "84.66"}, table.Rows[0])
}

func TestExpressionTable_EmptySlots(t *testing.T) {
	table := ExpressionTable(sampleExpression())

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"GOI", "Untreated", "1", "1", "", "1", "0", "2"}, table.Rows[0])
	assert.Equal(t, []string{"GOI", "Treated", "0.25", "", "0.5", "0.375", "0.125", "2"}, table.Rows[1])
}

func TestTidyTable_HeaderFollowsSchema(t *testing.T) {
	rows := []contracts.TidyRow{{
		Measurement: contracts.Measurement{Gene: "GOI", Group: "0.1", Replicate: 2, Ct: [3]float64{20, 21, 22}},
		CtMean:      21,
		CtSEM:       0.5,
	}}

	table := TidyTable(contracts.SchemaDilution, rows)
	assert.Equal(t, []string{"Gene", "Dilution", "Replicate", "Ct1", "Ct2", "Ct3", "Ct_mean", "Ct_sem"}, table.Columns)
	assert.Equal(t, []string{"GOI", "0.1", "2", "20", "21", "22", "21", "0.5"}, table.Rows[0])

	fraction := TidyTable(contracts.SchemaFraction, nil)
	assert.Equal(t, "Fraction", fraction.Columns[1])
	assert.Equal(t, "Condition", fraction.Columns[2])
}

func TestPolysomeTable(t *testing.T) {
	profile := &contracts.PolysomeProfile{
		Gene:      "GOI",
		Condition: "Untreated",
		Summaries: []contracts.FractionSummary{
			{Fraction: 1, Percent: [3]float64{50, 50, 50}, AveragePercent: 50},
			{Fraction: 2, Percent: [3]float64{50, 50, 50}, AveragePercent: 50},
		},
	}

	table := PolysomeTable(profile)
	assert.Equal(t, PolysomeColumns, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2", table.Rows[1][2])
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	res := sampleExpression()

	require.NoError(t, Write("csv", &buf, ExpressionTable(res), DeltaCtTable(res)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Gene,Condition,Gene Expression Ratio 1"))
	assert.Contains(t, out, "\n\nGene,Condition,Replicate,Delta Ct\n")
	assert.Contains(t, out, "GOI,Treated,1,-2\n")
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write("JSON", &buf, DeltaCtTable(sampleExpression())))

	var decoded []Table
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Delta Ct", decoded[0].Title)
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write("text", &buf, DeltaCtTable(sampleExpression())))

	assert.Contains(t, buf.String(), "Delta Ct")
	assert.Contains(t, buf.String(), "Gene  Condition  Replicate  Delta Ct")
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write("xlsx", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, json, text")
}
