package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"vizpipe/pkg/contracts/domain"
)

// Converter turns a raw cell into a scalar
type Converter func(raw string) (domain.Scalar, error)

// Schema maps column names to converters. Columns without an entry are
// loaded as text.
type Schema map[string]Converter

// Text keeps the cell as a string
func Text(raw string) (domain.Scalar, error) {
	return domain.String(raw), nil
}

// Number parses a decimal number, ignoring surrounding space and ","
// thousands separators.
func Number(raw string) (domain.Scalar, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.Scalar{}, fmt.Errorf("%q is not a number", raw)
	}
	return domain.Number(f), nil
}

// Floor parses a number and rounds it down
func Floor(raw string) (domain.Scalar, error) {
	s, err := Number(raw)
	if err != nil {
		return s, err
	}
	f, _ := s.Num()
	return domain.Number(math.Floor(f)), nil
}

// Year parses a four digit year into January 1 of that year, UTC
func Year(raw string) (domain.Scalar, error) {
	t, err := time.Parse("2006", strings.TrimSpace(raw))
	if err != nil {
		return domain.Scalar{}, fmt.Errorf("%q is not a year", raw)
	}
	return domain.Date(t), nil
}

// RatingsSchema is the schema of the board game ratings dataset
func RatingsSchema() Schema {
	return Schema{
		"year":           Year,
		"average_rating": Number,
		"users_rated":    Number,
	}
}

// CountsSchema is the schema of the per-region counts dataset
func CountsSchema() Schema {
	return Schema{
		"count": Number,
	}
}

// convert applies the column converter. Empty cells are missing; cells that
// fail to convert keep their raw text.
func (s Schema) convert(column, raw string) (domain.Scalar, bool) {
	if strings.TrimSpace(raw) == "" {
		return domain.Scalar{}, false
	}
	conv, ok := s[column]
	if !ok {
		conv = Text
	}
	v, err := conv(raw)
	if err != nil {
		return domain.String(raw), false
	}
	return v, true
}
