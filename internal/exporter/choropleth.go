package exporter

import (
	"io"
	"strconv"

	"vizpipe/pkg/contracts/domain"
)

// ChoroplethHeaders are the columns of a joined target export
var ChoroplethHeaders = []string{"key", "value", "class"}

// ChoroplethRows renders one row per target. Absent values are empty cells.
func ChoroplethRows(targets []domain.ClassifiedTarget) [][]string {
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		rows = append(rows, []string{t.Key, formatValue(t.Value), strconv.Itoa(t.Class)})
	}
	return rows
}

// WriteChoropleth writes classified targets as CSV to w
func WriteChoropleth(w io.Writer, targets []domain.ClassifiedTarget, bom bool) error {
	return writeTable(w, ChoroplethHeaders, ChoroplethRows(targets), bom)
}

// ExportChoropleth writes classified targets to a CSV file below the output
// directory
func (w *CSVWriter) ExportChoropleth(filePath string, targets []domain.ClassifiedTarget) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   ChoroplethHeaders,
		Records:   ChoroplethRows(targets),
		BOMPrefix: true,
	})
}
