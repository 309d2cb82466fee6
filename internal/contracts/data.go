package contracts

import "strings"

// ReplicateCount is the fixed number of technical Ct readings per row and
// of biological replicate slots in expression and polysome summaries.
const ReplicateCount = 3

// Schema identifies one of the three recognised input layouts
// ⭐ SSOT: 입력 스키마 정의는 여기서만
type Schema string

const (
	// SchemaCondition gene expression ratio runs: gene, condition, replicate, ct1..ct3
	SchemaCondition Schema = "condition"
	// SchemaDilution primer efficiency runs: gene, dilution, replicate, ct1..ct3
	SchemaDilution Schema = "dilution"
	// SchemaFraction polysome profiling runs: gene, fraction, condition, ct1..ct3
	// ct1..ct3 are the biological replicates
	SchemaFraction Schema = "fraction"
)

// Column names (lower case; headers are matched case-insensitively)
const (
	ColGene      = "gene"
	ColCondition = "condition"
	ColDilution  = "dilution"
	ColFraction  = "fraction"
	ColReplicate = "replicate"
	ColCt1       = "ct1"
	ColCt2       = "ct2"
	ColCt3       = "ct3"
)

// CtColumns lists the technical replicate columns in order
var CtColumns = [ReplicateCount]string{ColCt1, ColCt2, ColCt3}

// Columns returns the required columns for the schema
func (s Schema) Columns() []string {
	switch s {
	case SchemaCondition:
		return []string{ColGene, ColCondition, ColReplicate, ColCt1, ColCt2, ColCt3}
	case SchemaDilution:
		return []string{ColGene, ColDilution, ColReplicate, ColCt1, ColCt2, ColCt3}
	case SchemaFraction:
		return []string{ColGene, ColFraction, ColCondition, ColCt1, ColCt2, ColCt3}
	default:
		return nil
	}
}

// GroupColumn returns the column whose value lands in Measurement.Group
func (s Schema) GroupColumn() string {
	switch s {
	case SchemaCondition:
		return ColCondition
	case SchemaDilution:
		return ColDilution
	case SchemaFraction:
		return ColFraction
	default:
		return ""
	}
}

// IsValid reports whether s is one of the recognised schemas
func (s Schema) IsValid() bool {
	return s.Columns() != nil
}

// RawTable is an already-parsed tabular value: a header row plus string cells.
// Column order is not significant, column names are.
type RawTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Index maps normalised column names to their position.
// The first occurrence wins when a header repeats.
func (t RawTable) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		key := NormalizeColumn(col)
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// NormalizeColumn lower-cases and trims a header cell
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Measurement is one raw input row with its three technical Ct readings
type Measurement struct {
	Gene string `json:"gene"`
	// Group holds the condition, dilution or fraction label depending on schema
	Group string `json:"group"`
	// Condition is the condition label (condition and fraction schemas)
	Condition string                  `json:"condition,omitempty"`
	Replicate int                     `json:"replicate"`
	Ct        [ReplicateCount]float64 `json:"ct"`
}

// TidyRow is a Measurement with its technical mean and standard error
type TidyRow struct {
	Measurement
	CtMean float64 `json:"ct_mean"`
	CtSEM  float64 `json:"ct_sem"`
}

// Retidied returns the measurement that re-averaging this row would see:
// the mean replicated into all three Ct slots.
func (r TidyRow) Retidied() Measurement {
	m := r.Measurement
	for i := range m.Ct {
		m.Ct[i] = r.CtMean
	}
	return m
}
