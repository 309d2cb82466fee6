package s0_ingest

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qpcr/internal/contracts"
)

func TestDetectSchema(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    contracts.Schema
	}{
		{"condition", []string{"Gene", "Condition", "Replicate", "Ct1", "Ct2", "Ct3"}, contracts.SchemaCondition},
		{"dilution", []string{"Gene", "Dilution", "Replicate", "Ct1", "Ct2", "Ct3"}, contracts.SchemaDilution},
		{"fraction", []string{"Gene", "Fraction", "Condition", "Ct1", "Ct2", "Ct3"}, contracts.SchemaFraction},
		{"order and case do not matter", []string{" ct3", "CT1", "replicate", "gene", "Ct2", "condition "}, contracts.SchemaCondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectSchema(tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectSchema_MissingColumns(t *testing.T) {
	_, err := DetectSchema([]string{"Gene", "Condition", "Replicate", "Ct1", "Ct2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrSchema))

	var se *contracts.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, contracts.SchemaCondition, se.Schema)
	assert.Equal(t, []string{"ct3"}, se.Missing)
	assert.Contains(t, err.Error(), "ct3")
}

func TestParse_Condition(t *testing.T) {
	table := contracts.RawTable{
		Columns: []string{"Gene", "Condition", "Replicate", "Ct1", "Ct2", "Ct3"},
		Rows: [][]string{
			{"GOI", "Untreated", "1", "24.1", "24.3", "24.2"},
			{"Control", "Treated", "2", "18.0", "18.1", "17.9"},
		},
	}

	rows, err := Parse(table, contracts.SchemaCondition)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "GOI", rows[0].Gene)
	assert.Equal(t, "Untreated", rows[0].Group)
	assert.Equal(t, "Untreated", rows[0].Condition)
	assert.Equal(t, 1, rows[0].Replicate)
	assert.Equal(t, [3]float64{24.1, 24.3, 24.2}, rows[0].Ct)
	assert.Equal(t, 2, rows[1].Replicate)
}

func TestParse_Fraction(t *testing.T) {
	table := contracts.RawTable{
		Columns: []string{"Gene", "Fraction", "Condition", "Ct1", "Ct2", "Ct3"},
		Rows: [][]string{
			{"GOI", "1", "Untreated", "20", "21", "22"},
		},
	}

	rows, err := Parse(table, contracts.SchemaFraction)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Group)
	assert.Equal(t, "Untreated", rows[0].Condition)
	assert.Equal(t, 1, rows[0].Replicate)
}

func TestParse_WrongTypes(t *testing.T) {
	header := []string{"Gene", "Dilution", "Replicate", "Ct1", "Ct2", "Ct3"}

	tests := []struct {
		name string
		row  []string
	}{
		{"non numeric ct", []string{"GOI", "1", "1", "abc", "20", "20"}},
		{"non integer replicate", []string{"GOI", "1", "one", "20", "20", "20"}},
		{"zero replicate", []string{"GOI", "1", "0", "20", "20", "20"}},
		{"empty gene", []string{" ", "1", "1", "20", "20", "20"}},
		{"short row", []string{"GOI", "1", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(contracts.RawTable{Columns: header, Rows: [][]string{tt.row}}, contracts.SchemaDilution)
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrSchema), "got %v", err)
		})
	}
}

func TestParse_MissingColumn(t *testing.T) {
	table := contracts.RawTable{Columns: []string{"Gene", "Replicate", "Ct1", "Ct2", "Ct3"}}

	_, err := Parse(table, contracts.SchemaDilution)

	var se *contracts.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"dilution"}, se.Missing)
}

func TestTidyOne(t *testing.T) {
	row, err := TidyOne(contracts.Measurement{Gene: "GOI", Group: "A", Replicate: 1, Ct: [3]float64{19, 20, 21}})
	require.NoError(t, err)

	assert.InDelta(t, 20.0, row.CtMean, 1e-12)
	assert.InDelta(t, 1/math.Sqrt(3), row.CtSEM, 1e-12)
	assert.Equal(t, "GOI", row.Gene)
}

func TestTidyOne_SEMZeroIffEqual(t *testing.T) {
	tests := []struct {
		name     string
		ct       [3]float64
		wantZero bool
	}{
		{"all equal", [3]float64{22.5, 22.5, 22.5}, true},
		{"one differs", [3]float64{22.5, 22.5, 22.6}, false},
		{"tiny spread", [3]float64{30, 30, 30.000001}, false},
		{"awkward float", [3]float64{0.1, 0.1, 0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := TidyOne(contracts.Measurement{Gene: "G", Group: "c", Replicate: 1, Ct: tt.ct})
			require.NoError(t, err)

			assert.GreaterOrEqual(t, row.CtSEM, 0.0)
			assert.Equal(t, tt.wantZero, row.CtSEM == 0)
		})
	}
}

func TestTidyOne_NonFinite(t *testing.T) {
	_, err := TidyOne(contracts.Measurement{Gene: "G", Group: "c", Replicate: 1, Ct: [3]float64{20, math.NaN(), 21}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrDomain))
}

func TestTidy_RetidyIsIdempotent(t *testing.T) {
	first, err := Tidy([]contracts.Measurement{
		{Gene: "GOI", Group: "A", Condition: "A", Replicate: 1, Ct: [3]float64{24.13, 24.37, 24.22}},
		{Gene: "GOI", Group: "A", Condition: "A", Replicate: 2, Ct: [3]float64{0.1, 0.2, 0.3}},
	})
	require.NoError(t, err)

	retidy := make([]contracts.Measurement, len(first))
	for i, row := range first {
		retidy[i] = row.Retidied()
	}

	second, err := Tidy(retidy)
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].CtMean, second[i].CtMean)
		assert.Equal(t, 0.0, second[i].CtSEM)
	}
}

func TestTidy_DoesNotMutateInput(t *testing.T) {
	in := []contracts.Measurement{{Gene: "G", Group: "c", Replicate: 1, Ct: [3]float64{1, 2, 3}}}
	before := in[0]

	_, err := Tidy(in)
	require.NoError(t, err)
	assert.Equal(t, before, in[0])
}

func TestLoad(t *testing.T) {
	table := contracts.RawTable{
		Columns: []string{"Gene", "Dilution", "Replicate", "Ct1", "Ct2", "Ct3"},
		Rows: [][]string{
			{"GOI", "1", "1", "20", "20", "20"},
			{"GOI", "0.1", "1", "23.3", "23.4", "23.2"},
			{"GOI", "0.01", "1", "NA", "26.7", "26.6"},
		},
	}

	schema, _, err := Load(table)
	assert.Equal(t, contracts.SchemaDilution, schema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrDomain))
	assert.Contains(t, err.Error(), "row 3")

	table.Rows = table.Rows[:2]
	schema, rows, err := Load(table)
	require.NoError(t, err)
	assert.Equal(t, contracts.SchemaDilution, schema)
	assert.Len(t, rows, 2)
}

func TestGenesAndConditions(t *testing.T) {
	rows := []contracts.TidyRow{
		{Measurement: contracts.Measurement{Gene: "b", Condition: "y"}},
		{Measurement: contracts.Measurement{Gene: "a", Condition: "x"}},
		{Measurement: contracts.Measurement{Gene: "b", Condition: "x"}},
	}

	assert.Equal(t, []string{"a", "b"}, Genes(rows))
	assert.Equal(t, []string{"x", "y"}, Conditions(rows))
}
