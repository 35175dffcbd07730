package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"vizpipe/pkg/contracts/domain"
)

// Default join fields, matching the per-state counts dataset
const (
	DefaultSourceKeyField = "state"
	DefaultValueField     = "count"
)

// JoinOptions selects the join keys and the source value field.
// Zero fields fall back to the defaults.
type JoinOptions struct {
	TargetKey  func(domain.JoinTarget) string
	SourceKey  KeyFunc
	ValueField string
}

func (o JoinOptions) withDefaults() JoinOptions {
	if o.TargetKey == nil {
		o.TargetKey = func(t domain.JoinTarget) string { return t.Key }
	}
	if o.SourceKey == nil {
		o.SourceKey = Field(DefaultSourceKeyField, domain.KindString)
	}
	if o.ValueField == "" {
		o.ValueField = DefaultValueField
	}
	return o
}

// JoinResult is the outcome of a keyed join
type JoinResult struct {
	Targets       []domain.JoinTarget     `json:"targets"`
	Matched       int                     `json:"matched"`
	Unmatched     []string                `json:"unmatched"`
	Skipped       []*UnparsableValueError `json:"-"`
	DuplicateKeys []string                `json:"duplicate_keys"`
}

// Join attaches source values to targets by exact, case-sensitive key.
// Source keys must be strings; a number or date key is never converted to
// text to match a target.
//
// The first usable source row for a key wins; later rows with that key are
// ignored and listed in DuplicateKeys. Rows whose key or value cannot be read
// are skipped and listed in Skipped without claiming their key. Targets with
// no match get an absent value, never zero. The input targets are not
// modified.
func Join(targets []domain.JoinTarget, source []domain.Record, opts JoinOptions) *JoinResult {
	opts = opts.withDefaults()
	result := &JoinResult{
		Targets:       make([]domain.JoinTarget, 0, len(targets)),
		Unmatched:     []string{},
		DuplicateKeys: []string{},
	}

	values := make(map[string]float64, len(source))
	reported := make(map[string]bool)

	for i, row := range source {
		k, err := opts.SourceKey(row)
		if err == nil && k.IsMissing() {
			err = errors.New("key is missing")
		}
		if err == nil && k.Kind() != domain.KindString {
			err = fmt.Errorf("key must be a string, got %s", k.Kind())
		}
		if err != nil {
			result.Skipped = append(result.Skipped, &UnparsableValueError{Index: i, Err: err})
			continue
		}
		key := k.String()

		raw, _ := row.Get(opts.ValueField)
		v, err := parseValue(raw)
		if err != nil {
			result.Skipped = append(result.Skipped, &UnparsableValueError{
				Index: i,
				Key:   key,
				Raw:   raw.String(),
				Err:   err,
			})
			continue
		}

		if _, seen := values[key]; seen {
			if !reported[key] {
				reported[key] = true
				result.DuplicateKeys = append(result.DuplicateKeys, key)
			}
			continue
		}
		values[key] = v
	}

	for _, t := range targets {
		key := opts.TargetKey(t)
		if v, ok := values[key]; ok {
			result.Targets = append(result.Targets, t.WithValue(v))
			result.Matched++
			continue
		}
		result.Targets = append(result.Targets, t.WithoutValue())
		result.Unmatched = append(result.Unmatched, key)
	}

	return result
}

// parseValue reads a finite number from a number or numeric string scalar
func parseValue(s domain.Scalar) (float64, error) {
	var (
		f   float64
		err error
	)
	switch s.Kind() {
	case domain.KindNumber:
		f, _ = s.Num()
	case domain.KindString:
		str, _ := s.Str()
		f, err = strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
	case domain.KindMissing:
		return 0, fmt.Errorf("value is missing")
	default:
		return 0, fmt.Errorf("expected number, got %s", s.Kind())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}
