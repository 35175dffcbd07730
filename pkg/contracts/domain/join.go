package domain

import "encoding/json"

// JoinTarget is a keyed entity that receives a value from a join, e.g. a
// GeoJSON region. A nil Value means no data was joined, which is not zero.
type JoinTarget struct {
	Key        string                 `json:"key"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Geometry   json.RawMessage        `json:"geometry,omitempty"`
	Value      *float64               `json:"value"`
}

// HasValue reports whether a value was joined into the target
func (t JoinTarget) HasValue() bool {
	return t.Value != nil
}

// Clone returns a copy of the target that shares no maps with t
func (t JoinTarget) Clone() JoinTarget {
	out := t
	if t.Properties != nil {
		out.Properties = make(map[string]interface{}, len(t.Properties))
		for k, p := range t.Properties {
			out.Properties[k] = p
		}
	}
	if t.Value != nil {
		v := *t.Value
		out.Value = &v
	}
	return out
}

// WithValue returns a copy of the target carrying v
func (t JoinTarget) WithValue(v float64) JoinTarget {
	out := t.Clone()
	out.Value = &v
	return out
}

// WithoutValue returns a copy of the target with the value marked absent
func (t JoinTarget) WithoutValue() JoinTarget {
	out := t.Clone()
	out.Value = nil
	return out
}

// ClassifiedTarget is a joined target with its quantile class.
// Class is -1 for targets without a value.
type ClassifiedTarget struct {
	JoinTarget
	Class int `json:"class"`
}
