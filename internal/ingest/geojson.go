package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	apperrors "vizpipe/internal/errors"
	"vizpipe/pkg/contracts/domain"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// ReadFeatureCollection reads a GeoJSON FeatureCollection into join targets
// keyed by the given feature property. Geometry is passed through untouched.
func ReadFeatureCollection(r io.Reader, keyProperty string) ([]domain.JoinTarget, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, apperrors.NewParsingError("failed to decode GeoJSON", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, apperrors.NewParsingError(fmt.Sprintf("expected a FeatureCollection, got %q", fc.Type), nil)
	}

	targets := make([]domain.JoinTarget, 0, len(fc.Features))
	for i, f := range fc.Features {
		key, err := featureKey(f, keyProperty)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("feature %d", i), err).
				WithContext("property", keyProperty)
		}
		targets = append(targets, domain.JoinTarget{
			Key:        key,
			Properties: f.Properties,
			Geometry:   f.Geometry,
		})
	}
	return targets, nil
}

func featureKey(f feature, property string) (string, error) {
	v, ok := f.Properties[property]
	if !ok || v == nil {
		return "", fmt.Errorf("property %q is missing", property)
	}
	switch key := v.(type) {
	case string:
		return key, nil
	case float64:
		return strconv.FormatFloat(key, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("property %q must be a string or number, got %T", property, v)
	}
}
