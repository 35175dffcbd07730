package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero value", 0, "0"},
		{"integer", 123, "123"},
		{"negative integer", -456, "-456"},
		{"decimal", 7.25, "7.25"},
		{"large", 1234567, "1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatValue(t *testing.T) {
	v := 120.0
	assert.Equal(t, "120", formatValue(&v))
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "42", formatInt(42))
}
