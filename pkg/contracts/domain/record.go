package domain

import "sort"

// Record is a flat data row: field name to scalar value.
// Records are treated as immutable once loaded.
type Record map[string]Scalar

// Get returns the field value; missing fields return the zero Scalar
func (r Record) Get(field string) (Scalar, bool) {
	v, ok := r[field]
	if !ok || v.IsMissing() {
		return Scalar{}, false
	}
	return v, true
}

// Fields returns the record's field names in sorted order
func (r Record) Fields() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
