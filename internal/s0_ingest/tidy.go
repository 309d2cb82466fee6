package s0_ingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/stats"
)

const op = "tidy"

// Load detects the schema of a raw table, parses it and tidies every row
// ⭐ SSOT: S0 진입점. 원시 테이블 → Tidy rows
func Load(table contracts.RawTable) (contracts.Schema, []contracts.TidyRow, error) {
	schema, err := DetectSchema(table.Columns)
	if err != nil {
		return "", nil, err
	}

	rows, err := Parse(table, schema)
	if err != nil {
		return schema, nil, err
	}

	tidy, err := Tidy(rows)
	if err != nil {
		return schema, nil, err
	}

	return schema, tidy, nil
}

// Parse converts string cells into measurements.
// Empty or NA Ct cells become NaN and are rejected later by Tidy.
func Parse(table contracts.RawTable, schema contracts.Schema) ([]contracts.Measurement, error) {
	if err := ValidateColumns(table.Columns, schema); err != nil {
		return nil, err
	}

	idx := table.Index()
	width := 0
	for _, col := range schema.Columns() {
		if idx[col]+1 > width {
			width = idx[col] + 1
		}
	}

	out := make([]contracts.Measurement, 0, len(table.Rows))
	for i, cells := range table.Rows {
		rowNum := i + 1
		if len(cells) < width {
			return nil, cellError(schema, rowNum, "", fmt.Sprintf("expected at least %d cells, got %d", width, len(cells)))
		}

		m := contracts.Measurement{
			Gene:  strings.TrimSpace(cells[idx[contracts.ColGene]]),
			Group: strings.TrimSpace(cells[idx[schema.GroupColumn()]]),
		}
		if m.Gene == "" {
			return nil, cellError(schema, rowNum, contracts.ColGene, "empty gene")
		}
		if m.Group == "" {
			return nil, cellError(schema, rowNum, schema.GroupColumn(), "empty value")
		}

		switch schema {
		case contracts.SchemaFraction:
			// 폴리솜: ct1..ct3 가 생물학적 반복. 행 자체는 반복 1개
			m.Condition = strings.TrimSpace(cells[idx[contracts.ColCondition]])
			m.Replicate = 1
		default:
			if schema == contracts.SchemaCondition {
				m.Condition = m.Group
			}
			rep, err := strconv.Atoi(strings.TrimSpace(cells[idx[contracts.ColReplicate]]))
			if err != nil || rep < 1 {
				return nil, cellError(schema, rowNum, contracts.ColReplicate,
					fmt.Sprintf("replicate %q is not an integer >= 1", cells[idx[contracts.ColReplicate]]))
			}
			m.Replicate = rep
		}

		for k, col := range contracts.CtColumns {
			v, err := parseCt(cells[idx[col]])
			if err != nil {
				return nil, cellError(schema, rowNum, col, err.Error())
			}
			m.Ct[k] = v
		}

		out = append(out, m)
	}

	return out, nil
}

// Tidy computes Ct_mean and Ct_sem for every row. Rows are independent.
func Tidy(rows []contracts.Measurement) ([]contracts.TidyRow, error) {
	out := make([]contracts.TidyRow, 0, len(rows))
	for i, m := range rows {
		row, err := TidyOne(m)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// TidyOne averages the three technical replicates of one measurement
func TidyOne(m contracts.Measurement) (contracts.TidyRow, error) {
	if !stats.AllFinite(m.Ct[:]...) {
		return contracts.TidyRow{}, contracts.NewDomainError(op,
			"gene %q group %q replicate %d has a non-finite Ct %v", m.Gene, m.Group, m.Replicate, m.Ct)
	}

	mean, sem := stats.MeanSEM(m.Ct[:])
	return contracts.TidyRow{
		Measurement: m,
		CtMean:      mean,
		CtSEM:       sem,
	}, nil
}

// Genes returns the distinct genes of rows, sorted
func Genes(rows []contracts.TidyRow) []string {
	return distinct(rows, func(r contracts.TidyRow) string { return r.Gene })
}

// Conditions returns the distinct condition labels of rows, sorted
func Conditions(rows []contracts.TidyRow) []string {
	return distinct(rows, func(r contracts.TidyRow) string { return r.Condition })
}

func distinct(rows []contracts.TidyRow, key func(contracts.TidyRow) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		k := key(r)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func parseCt(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "undetermined":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ct value %q is not a number", cell)
	}
	return v, nil
}

func cellError(schema contracts.Schema, row int, column, msg string) error {
	if column != "" {
		msg = fmt.Sprintf("row %d column %s: %s", row, column, msg)
	} else {
		msg = fmt.Sprintf("row %d: %s", row, msg)
	}
	return &contracts.SchemaError{Schema: schema, Message: msg}
}
