package exporter

import (
	"io"

	"vizpipe/pkg/contracts/domain"
)

// SeriesHeaders are the columns of a series export
var SeriesHeaders = []string{"outer", "inner", "count", "representative"}

// SeriesRows flattens groups into one row per bucket, in series order
func SeriesRows(groups []domain.OuterGroup) [][]string {
	var rows [][]string
	for _, g := range groups {
		for _, b := range g.Buckets {
			rows = append(rows, []string{
				g.Key.String(),
				b.Key.String(),
				formatInt(b.Count),
				b.Representative.String(),
			})
		}
	}
	return rows
}

// WriteSeries writes groups as CSV to w
func WriteSeries(w io.Writer, groups []domain.OuterGroup, bom bool) error {
	return writeTable(w, SeriesHeaders, SeriesRows(groups), bom)
}

// ExportSeries writes groups to a CSV file below the output directory
func (w *CSVWriter) ExportSeries(filePath string, groups []domain.OuterGroup) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   SeriesHeaders,
		Records:   SeriesRows(groups),
		BOMPrefix: true,
	})
}
