package dataprocessing

import (
	"sort"

	"vizpipe/pkg/contracts/domain"
)

// TopN returns at most n records whose outer and inner keys equal the
// selection, ordered descending by sortKey. The sort is stable, so ties keep
// input order. Any record with an unreadable outer or inner key fails the
// call; sort keys are only read from matching records.
func TopN(records []domain.Record, outerKey, innerKey KeyFunc, sel domain.Selection, n int, sortKey KeyFunc) ([]domain.Record, error) {
	if n <= 0 || len(records) == 0 {
		return []domain.Record{}, nil
	}

	type ranked struct {
		rec domain.Record
		key domain.Scalar
	}
	var matches []ranked

	for i, rec := range records {
		outer, err := outerKey(rec)
		if err != nil {
			return nil, atIndex(err, i)
		}
		inner, err := innerKey(rec)
		if err != nil {
			return nil, atIndex(err, i)
		}
		if !outer.Equal(sel.Outer) || !inner.Equal(sel.Inner) {
			continue
		}
		k, err := sortKey(rec)
		if err != nil {
			return nil, atIndex(err, i)
		}
		matches = append(matches, ranked{rec: rec, key: k})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return domain.Compare(matches[i].key, matches[j].key) > 0
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]domain.Record, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out, nil
}
