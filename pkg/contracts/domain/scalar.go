package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ScalarKind identifies the type held by a Scalar
type ScalarKind int

const (
	// KindMissing is the kind of the zero Scalar
	KindMissing ScalarKind = iota
	KindString
	KindNumber
	KindDate
)

// String returns the kind name used in error messages and JSON
func (k ScalarKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "missing"
	}
}

// Scalar is a single typed field value of a Record.
// The zero value is a missing field.
type Scalar struct {
	kind ScalarKind
	str  string
	num  float64
	date time.Time
}

// String creates a string scalar
func String(s string) Scalar {
	return Scalar{kind: KindString, str: s}
}

// Number creates a numeric scalar
func Number(f float64) Scalar {
	return Scalar{kind: KindNumber, num: f}
}

// Date creates a date scalar. Dates are normalised to UTC.
func Date(t time.Time) Scalar {
	return Scalar{kind: KindDate, date: t.UTC()}
}

// Kind returns the scalar kind
func (s Scalar) Kind() ScalarKind { return s.kind }

// IsMissing reports whether the scalar holds no value
func (s Scalar) IsMissing() bool { return s.kind == KindMissing }

// Str returns the string value and whether the scalar is a string
func (s Scalar) Str() (string, bool) { return s.str, s.kind == KindString }

// Num returns the numeric value and whether the scalar is a number
func (s Scalar) Num() (float64, bool) { return s.num, s.kind == KindNumber }

// Time returns the date value and whether the scalar is a date
func (s Scalar) Time() (time.Time, bool) { return s.date, s.kind == KindDate }

// String formats the scalar for display and CSV output
func (s Scalar) String() string {
	switch s.kind {
	case KindString:
		return s.str
	case KindNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case KindDate:
		if s.date.Month() == time.January && s.date.Day() == 1 && s.date.Hour() == 0 &&
			s.date.Minute() == 0 && s.date.Second() == 0 && s.date.Nanosecond() == 0 {
			return s.date.Format("2006")
		}
		return s.date.Format(time.RFC3339)
	default:
		return ""
	}
}

// Key returns a canonical identity for the scalar. Two scalars are equal
// exactly when their keys are equal; scalars of different kinds never are.
func (s Scalar) Key() string {
	switch s.kind {
	case KindString:
		return "s:" + s.str
	case KindNumber:
		if s.num == 0 {
			return "n:0" // folds -0
		}
		return "n:" + strconv.FormatFloat(s.num, 'g', -1, 64)
	case KindDate:
		return "d:" + s.date.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal reports whether two scalars hold the same kind and value
func (s Scalar) Equal(other Scalar) bool {
	return s.kind == other.kind && s.Key() == other.Key()
}

// Compare orders scalars ascending. Numbers compare numerically and dates
// chronologically. Strings that parse as finite numbers sort before all other
// strings and compare numerically among themselves, ties broken byte-wise;
// the remaining strings compare byte-wise. Scalars of different kinds are
// ordered by kind. The result is -1, 0 or +1.
func Compare(a, b Scalar) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}

	switch a.kind {
	case KindNumber:
		return compareFloat(a.num, b.num)
	case KindString:
		af, aNum := numericString(a.str)
		bf, bNum := numericString(b.str)
		switch {
		case aNum && bNum:
			if c := compareFloat(af, bf); c != 0 {
				return c
			}
		case aNum:
			return -1
		case bNum:
			return 1
		}
		return strings.Compare(a.str, b.str)
	case KindDate:
		return a.date.Compare(b.date)
	default:
		return 0
	}
}

// numericString parses s as a finite number
func numericString(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes numbers as JSON numbers, dates as RFC 3339 strings,
// strings as JSON strings and missing values as null.
func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindString:
		return json.Marshal(s.str)
	case KindNumber:
		if math.IsNaN(s.num) || math.IsInf(s.num, 0) {
			return nil, fmt.Errorf("cannot encode non-finite number %v", s.num)
		}
		return json.Marshal(s.num)
	case KindDate:
		return json.Marshal(s.date.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes JSON numbers as numbers, strings as strings and null
// as missing. Dates arrive as strings; callers convert them explicitly.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*s = Scalar{}
	case string:
		*s = String(val)
	case float64:
		*s = Number(val)
	case bool:
		*s = String(strconv.FormatBool(val))
	default:
		return fmt.Errorf("scalar must be a string, number or null, got %T", v)
	}
	return nil
}
