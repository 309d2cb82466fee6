package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// WriterFunc renders tables in one output format
type WriterFunc func(w io.Writer, tables []Table) error

// writers maps format → writer. Registered in init().
var writers = map[string]WriterFunc{}

// Register adds (or replaces) the writer for a format
func Register(format string, fn WriterFunc) {
	writers[strings.ToLower(format)] = fn
}

// Formats returns the registered format names, sorted
func Formats() []string {
	out := make([]string, 0, len(writers))
	for f := range writers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Write renders tables in the given format
func Write(format string, w io.Writer, tables ...Table) error {
	fn, ok := writers[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unknown output format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return fn(w, tables)
}

func init() {
	Register("csv", writeCSV)
	Register("json", writeJSON)
	Register("text", writeText)
}

// writeCSV writes each table with its header; tables are separated by a blank line
func writeCSV(w io.Writer, tables []Table) error {
	cw := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			cw.Flush()
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, tables []Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tables)
}

func writeText(w io.Writer, tables []Table) error {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if t.Title != "" {
			fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
			fmt.Fprintf(w, "  %s\n", t.Title)
			fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
