package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	apperrors "vizpipe/internal/errors"
	"vizpipe/pkg/contracts/domain"
)

// ReadXLSX reads a worksheet with a header row. An empty sheet name selects
// the first sheet of the workbook.
func ReadXLSX(r io.Reader, sheet string, schema Schema) ([]domain.Record, error) {
	records, _, err := readXLSX(r, sheet, schema)
	return records, err
}

func readXLSX(r io.Reader, sheet string, schema Schema) ([]domain.Record, TableStats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, TableStats{}, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, TableStats{}, apperrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, TableStats{}, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return recordsFromRows(rows, schema)
}
