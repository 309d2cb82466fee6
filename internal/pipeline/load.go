package pipeline

import (
	"fmt"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/plate"
	"github.com/wonny/qpcr/internal/s0_ingest"
)

// LoadFile reads a plate export and tidies it.
// When want is non-empty the detected schema must match it.
func LoadFile(path string, want contracts.Schema) (contracts.Schema, []contracts.TidyRow, error) {
	table, err := plate.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return LoadTable(table, want)
}

// LoadTable tidies an in-memory table, checking the schema like LoadFile
func LoadTable(table contracts.RawTable, want contracts.Schema) (contracts.Schema, []contracts.TidyRow, error) {
	schema, rows, err := s0_ingest.Load(table)
	if err != nil {
		return schema, nil, err
	}
	if want != "" && schema != want {
		return schema, nil, &contracts.SchemaError{
			Schema:  want,
			Message: fmt.Sprintf("expected %s data, got %s data", want, schema),
		}
	}
	return schema, rows, nil
}
