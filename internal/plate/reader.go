package plate

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/qpcr/internal/contracts"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoHeader the input has no header row
var ErrNoHeader = errors.New("plate: no header row")

// Options controls how plate exports are read
type Options struct {
	// Comma is the field delimiter (default ',')
	Comma rune
}

// ReadFile reads a CSV (or TSV, by extension) plate export
func ReadFile(path string) (contracts.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return contracts.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	opts := Options{}
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Comma = '\t'
	}

	table, err := Read(f, opts)
	if err != nil {
		return contracts.RawTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Read parses a delimited table with a header row into a RawTable.
// Blank lines are skipped; rows may be shorter than the header (the
// parser reports them).
func Read(r io.Reader, opts Options) (contracts.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return contracts.RawTable{}, fmt.Errorf("read plate: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return contracts.RawTable{}, fmt.Errorf("parse plate: %w", err)
	}

	var table contracts.RawTable
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		if table.Columns == nil {
			table.Columns = rec
			continue
		}
		table.Rows = append(table.Rows, rec)
	}

	if table.Columns == nil {
		return contracts.RawTable{}, ErrNoHeader
	}
	return table, nil
}

func isBlank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
