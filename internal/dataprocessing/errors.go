package dataprocessing

import (
	"errors"
	"fmt"

	apperrors "vizpipe/internal/errors"
)

// InvalidRecordError reports a record whose key field is missing, has the
// wrong scalar kind or falls outside the inner-key domain. It aborts the
// whole operation: a partial grouping would be misleading.
type InvalidRecordError struct {
	Index  int    // position of the record in the input, -1 when unknown
	Field  string // offending field, empty when the key is computed
	Reason string
}

func (e *InvalidRecordError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return "invalid record: " + e.Reason
	case e.Index < 0:
		return fmt.Sprintf("invalid record: field %q: %s", e.Field, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("invalid record %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("invalid record %d: field %q: %s", e.Index, e.Field, e.Reason)
	}
}

// Is makes errors.Is(err, apperrors.ErrInvalidRecord) hold
func (e *InvalidRecordError) Is(target error) bool {
	return target == apperrors.ErrInvalidRecord
}

// UnparsableValueError reports a join source row that was skipped because its
// key or value could not be read.
type UnparsableValueError struct {
	Index int    // position of the row in the source
	Key   string // join key of the row, empty when the key itself was unreadable
	Raw   string // raw value as loaded
	Err   error
}

func (e *UnparsableValueError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("source row %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("source row %d (key %q): value %q: %v", e.Index, e.Key, e.Raw, e.Err)
}

func (e *UnparsableValueError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, apperrors.ErrUnparsableValue) hold
func (e *UnparsableValueError) Is(target error) bool {
	return target == apperrors.ErrUnparsableValue
}

// atIndex attaches a record position to an error returned by a KeyFunc.
// Errors that are not InvalidRecordErrors are wrapped into one.
func atIndex(err error, index int) error {
	var ire *InvalidRecordError
	if errors.As(err, &ire) {
		out := *ire
		out.Index = index
		return &out
	}
	return &InvalidRecordError{Index: index, Reason: err.Error()}
}
