package ingest

import (
	"encoding/csv"
	"io"

	apperrors "vizpipe/internal/errors"
	"vizpipe/pkg/contracts/domain"
)

// ReadCSV reads a CSV table with a header row
func ReadCSV(r io.Reader, schema Schema) ([]domain.Record, error) {
	records, _, err := readCSV(r, schema)
	return records, err
}

func readCSV(r io.Reader, schema Schema) ([]domain.Record, TableStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, TableStats{}, apperrors.NewParsingError("failed to read CSV", err)
	}
	return recordsFromRows(rows, schema)
}
