package dataprocessing

import (
	"fmt"
	"sort"

	"vizpipe/pkg/contracts/domain"
)

// SeriesOption tunes BuildSeries
type SeriesOption func(*seriesOptions)

type seriesOptions struct {
	representative KeyFunc
	outerKeys      []domain.Scalar
}

// WithRepresentative sets the representative of an observed bucket from its
// first record. Padded buckets always carry the outer key.
func WithRepresentative(fn KeyFunc) SeriesOption {
	return func(o *seriesOptions) {
		o.representative = fn
	}
}

// WithOuterKeys restricts the output to the listed outer groups. Every record
// is still validated, and groups keep their first-seen order.
func WithOuterKeys(keys ...domain.Scalar) SeriesOption {
	return func(o *seriesOptions) {
		o.outerKeys = append(o.outerKeys, keys...)
	}
}

// groupAccumulator collects the observed buckets of one outer key
type groupAccumulator struct {
	key     domain.Scalar
	buckets map[string]*domain.InnerBucket
	order   []string
}

// BuildSeries groups records by outer key, in first-seen order, and counts
// them per inner key. Each group's buckets are zero-filled to exactly
// innerDomain and sorted ascending with domain.Compare.
//
// A record with an unreadable key, or an inner key outside a non-empty
// domain, fails the whole build with an InvalidRecordError. With an empty
// domain no padding happens.
func BuildSeries(records []domain.Record, outerKey, innerKey KeyFunc, innerDomain []domain.Scalar, opts ...SeriesOption) ([]domain.OuterGroup, error) {
	var o seriesOptions
	for _, opt := range opts {
		opt(&o)
	}

	// The domain is a set
	keys := make([]domain.Scalar, 0, len(innerDomain))
	inDomain := make(map[string]bool, len(innerDomain))
	for _, k := range innerDomain {
		if k.IsMissing() || inDomain[k.Key()] {
			continue
		}
		inDomain[k.Key()] = true
		keys = append(keys, k)
	}

	groups := make(map[string]*groupAccumulator)
	var order []string

	for i, rec := range records {
		outer, err := outerKey(rec)
		if err != nil {
			return nil, atIndex(err, i)
		}
		inner, err := innerKey(rec)
		if err != nil {
			return nil, atIndex(err, i)
		}
		if outer.IsMissing() || inner.IsMissing() {
			return nil, &InvalidRecordError{Index: i, Reason: "key is missing"}
		}
		if len(keys) > 0 && !inDomain[inner.Key()] {
			return nil, &InvalidRecordError{
				Index:  i,
				Reason: fmt.Sprintf("inner key %s is outside the domain", inner),
			}
		}

		g, ok := groups[outer.Key()]
		if !ok {
			g = &groupAccumulator{key: outer, buckets: make(map[string]*domain.InnerBucket)}
			groups[outer.Key()] = g
			order = append(order, outer.Key())
		}

		b, ok := g.buckets[inner.Key()]
		if !ok {
			rep := outer
			if o.representative != nil {
				if rep, err = o.representative(rec); err != nil {
					return nil, atIndex(err, i)
				}
			}
			b = &domain.InnerBucket{Key: inner, Representative: rep}
			g.buckets[inner.Key()] = b
			g.order = append(g.order, inner.Key())
		}
		b.Count++
	}

	var wanted map[string]bool
	if len(o.outerKeys) > 0 {
		wanted = make(map[string]bool, len(o.outerKeys))
		for _, k := range o.outerKeys {
			wanted[k.Key()] = true
		}
	}

	result := make([]domain.OuterGroup, 0, len(order))
	for _, k := range order {
		if wanted != nil && !wanted[k] {
			continue
		}
		result = append(result, groups[k].series(keys))
	}
	return result, nil
}

// series pads the observed buckets to the domain and sorts them
func (g *groupAccumulator) series(innerDomain []domain.Scalar) domain.OuterGroup {
	buckets := make([]domain.InnerBucket, 0, len(g.order)+len(innerDomain))
	for _, k := range g.order {
		buckets = append(buckets, *g.buckets[k])
	}
	for _, d := range innerDomain {
		if _, ok := g.buckets[d.Key()]; !ok {
			buckets = append(buckets, domain.InnerBucket{Key: d, Count: 0, Representative: g.key})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return domain.Compare(buckets[i].Key, buckets[j].Key) < 0
	})
	return domain.OuterGroup{Key: g.key, Buckets: buckets}
}

// SeriesExtent returns the largest bucket count and the total count across
// all groups, the y-domain a renderer needs.
func SeriesExtent(groups []domain.OuterGroup) (maxCount, total int) {
	for _, g := range groups {
		for _, b := range g.Buckets {
			if b.Count > maxCount {
				maxCount = b.Count
			}
			total += b.Count
		}
	}
	return maxCount, total
}
