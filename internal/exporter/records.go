package exporter

import (
	"io"
	"sort"

	"vizpipe/pkg/contracts/domain"
)

// RecordColumns returns the sorted union of the records' field names
func RecordColumns(records []domain.Record) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, r := range records {
		for _, f := range r.Fields() {
			if !seen[f] {
				seen[f] = true
				columns = append(columns, f)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// WriteRecords writes records as CSV with the given columns, or all columns
// when none are given. Missing fields are empty cells.
func WriteRecords(w io.Writer, records []domain.Record, columns []string, bom bool) error {
	if len(columns) == 0 {
		columns = RecordColumns(records)
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = r[c].String()
		}
		rows = append(rows, row)
	}
	return writeTable(w, columns, rows, bom)
}
