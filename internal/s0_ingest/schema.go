package s0_ingest

import (
	"github.com/wonny/qpcr/internal/contracts"
)

// detectionOrder 우선순위: fraction 컬럼이 있으면 폴리솜, 다음 dilution, 마지막 condition
var detectionOrder = []contracts.Schema{
	contracts.SchemaFraction,
	contracts.SchemaDilution,
	contracts.SchemaCondition,
}

// DetectSchema picks the schema whose required columns are all present.
// When none matches, the SchemaError names the missing columns of the
// closest schema.
func DetectSchema(columns []string) (contracts.Schema, error) {
	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[contracts.NormalizeColumn(col)] = true
	}

	var (
		closest     contracts.Schema
		closestMiss []string
	)
	for _, schema := range detectionOrder {
		missing := missingColumns(schema, present)
		if len(missing) == 0 {
			return schema, nil
		}
		if closest == "" || len(missing) < len(closestMiss) {
			closest = schema
			closestMiss = missing
		}
	}

	return "", &contracts.SchemaError{
		Schema:  closest,
		Missing: closestMiss,
		Message: "header matches none of the condition, dilution or fraction layouts",
	}
}

// ValidateColumns checks that every column of schema is present
func ValidateColumns(columns []string, schema contracts.Schema) error {
	if !schema.IsValid() {
		return &contracts.SchemaError{Message: "unknown schema " + string(schema)}
	}

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[contracts.NormalizeColumn(col)] = true
	}

	if missing := missingColumns(schema, present); len(missing) > 0 {
		return &contracts.SchemaError{Schema: schema, Missing: missing}
	}
	return nil
}

func missingColumns(schema contracts.Schema, present map[string]bool) []string {
	var missing []string
	for _, col := range schema.Columns() {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
