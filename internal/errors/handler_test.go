package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizpipe/internal/shared/testutil"
)

func TestNewErrorHandler(t *testing.T) {
	for _, includeStack := range []bool{true, false} {
		logger, _ := testutil.NewTestLogger(t)

		handler := NewErrorHandler(logger, includeStack)

		require.NotNil(t, handler)
		assert.Equal(t, includeStack, handler.includeStack)
		assert.NotNil(t, handler.logger)
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
	}{
		{
			name:       "invalid record",
			err:        fmt.Errorf("build series: %w", ErrInvalidRecord),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInvalidRecord,
			wantTitle:  "Invalid Record",
		},
		{
			name:       "unparsable value",
			err:        fmt.Errorf("row 4: %w", ErrUnparsableValue),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUnparsableValue,
			wantTitle:  "Unparsable Value",
		},
		{
			name:       "dataset not loaded",
			err:        ErrDatasetNotLoaded,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetNotLoaded,
			wantTitle:  "Dataset Not Loaded",
		},
		{
			name:       "api validation error",
			err:        ErrValidation("limit", "must be positive"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "app not found error",
			err:        NewNotFoundError("outer group 2031"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantTitle:  "Resource Not Found",
		},
		{
			name:       "dataset reload failure",
			err:        NewStorageError("dataset validation failed", errors.New("counts dataset: file missing")),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
			wantTitle:  "Dataset Unavailable",
		},
		{
			name:       "unsupported format",
			err:        UnsupportedFormat("xml", "json", "csv"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
		},
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/series", nil)
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantTitle, body["title"])
			assert.Equal(t, "/api/series", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	rec := httptest.NewRecorder()

	handler.HandlePanic(rec, httptest.NewRequest(http.MethodPost, "/api/drilldown", nil), "nil map")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, logs.ContainsMessage("panic recovered"))
	assert.NotContains(t, rec.Body.String(), "nil map")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "/x").
		WithExtension("error_code", "VALIDATION_FAILED").
		WithExtension("type", "overridden")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "/errors/validation",
		"title": "Validation Failed",
		"status": 400,
		"instance": "/x",
		"error_code": "VALIDATION_FAILED"
	}`, string(data))
}
