package dataprocessing

import (
	"fmt"
	"math"
	"strings"

	"vizpipe/pkg/contracts/domain"
)

// KeyFunc extracts a grouping or sort key from a record. Returning an error
// marks the record as invalid.
type KeyFunc func(domain.Record) (domain.Scalar, error)

// Field returns a KeyFunc reading the named field. When kinds are given the
// value must have one of them.
func Field(name string, kinds ...domain.ScalarKind) KeyFunc {
	return func(r domain.Record) (domain.Scalar, error) {
		v, ok := r.Get(name)
		if !ok {
			return domain.Scalar{}, &InvalidRecordError{Index: -1, Field: name, Reason: "missing"}
		}
		if len(kinds) == 0 {
			return v, nil
		}
		for _, k := range kinds {
			if v.Kind() == k {
				return v, nil
			}
		}
		return domain.Scalar{}, &InvalidRecordError{
			Index:  -1,
			Field:  name,
			Reason: fmt.Sprintf("expected %s, got %s", kindList(kinds), v.Kind()),
		}
	}
}

// FloorField returns a KeyFunc flooring the named numeric field, the way a
// 7.4 average rating lands in bucket 7.
func FloorField(name string) KeyFunc {
	field := Field(name, domain.KindNumber)
	return func(r domain.Record) (domain.Scalar, error) {
		v, err := field(r)
		if err != nil {
			return v, err
		}
		f, _ := v.Num()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.Scalar{}, &InvalidRecordError{Index: -1, Field: name, Reason: "not a finite number"}
		}
		return domain.Number(math.Floor(f)), nil
	}
}

// YearField returns a KeyFunc yielding the calendar year of the named field
// as a number. Dates contribute their UTC year, numbers must be whole.
func YearField(name string) KeyFunc {
	field := Field(name, domain.KindDate, domain.KindNumber)
	return func(r domain.Record) (domain.Scalar, error) {
		v, err := field(r)
		if err != nil {
			return v, err
		}
		if t, ok := v.Time(); ok {
			return domain.Number(float64(t.Year())), nil
		}
		f, _ := v.Num()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return domain.Scalar{}, &InvalidRecordError{Index: -1, Field: name, Reason: "year must be a whole number"}
		}
		return v, nil
	}
}

func kindList(kinds []domain.ScalarKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " or ")
}
