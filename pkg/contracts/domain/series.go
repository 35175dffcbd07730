package domain

// OuterGroup is one series of a grouped chart, e.g. all games of one year.
// Buckets always cover the complete inner-key domain in ascending key order.
type OuterGroup struct {
	Key     Scalar        `json:"key"`
	Buckets []InnerBucket `json:"buckets"`
}

// InnerBucket is one point of a series, e.g. the number of games of a year
// with a given rating. Zero-count buckets are padding.
type InnerBucket struct {
	Key            Scalar `json:"key"`
	Count          int    `json:"count"`
	Representative Scalar `json:"representative"`
}

// Total returns the sum of bucket counts in the group
func (g OuterGroup) Total() int {
	total := 0
	for _, b := range g.Buckets {
		total += b.Count
	}
	return total
}

// Bucket returns the bucket with the given inner key
func (g OuterGroup) Bucket(key Scalar) (InnerBucket, bool) {
	for _, b := range g.Buckets {
		if b.Key.Equal(key) {
			return b, true
		}
	}
	return InnerBucket{}, false
}

// Selection identifies a single bucket, typically the one under the pointer
type Selection struct {
	Outer Scalar `json:"outer"`
	Inner Scalar `json:"inner"`
}
