package ingest

import (
	"fmt"
	"strings"

	apperrors "vizpipe/internal/errors"
	"vizpipe/pkg/contracts/domain"
)

const utf8BOM = "\ufeff"

// TableStats summarises a table load
type TableStats struct {
	Rows         int
	FailedCells  int // kept as raw text
	MissingCells int
}

// recordsFromRows converts a header row plus data rows into records.
// Blank rows are dropped.
func recordsFromRows(rows [][]string, schema Schema) ([]domain.Record, TableStats, error) {
	var stats TableStats
	if len(rows) == 0 {
		return nil, stats, apperrors.NewParsingError("table has no header row", nil)
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if name == "" {
			return nil, stats, apperrors.NewParsingError(fmt.Sprintf("header column %d is empty", i+1), nil)
		}
		header[i] = name
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(domain.Record, len(header))
		for i, column := range header {
			if i >= len(row) {
				stats.MissingCells++
				continue
			}
			v, ok := schema.convert(column, row[i])
			switch {
			case v.IsMissing():
				stats.MissingCells++
				continue
			case !ok:
				stats.FailedCells++
			}
			rec[column] = v
		}
		records = append(records, rec)
	}
	stats.Rows = len(records)
	return records, stats, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
