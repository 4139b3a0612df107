package delta

import (
	"errors"
	"fmt"

	"github.com/roach88/tabletools/internal/batch"
	"github.com/roach88/tabletools/internal/table"
)

// ErrFieldType is wrapped by LoadError when a configured field has a type
// the run cannot use.
var ErrFieldType = errors.New("unsupported field type")

// LoadError reports an invalid table or field reference. Nothing has been
// written when it is returned.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MissingEntityReferenceError reports a row whose entity link cell is empty.
type MissingEntityReferenceError struct {
	RecordID table.RecordID
	Field    string
}

func (e *MissingEntityReferenceError) Error() string {
	return fmt.Sprintf("record %s: link field %q is empty", e.RecordID, e.Field)
}

// MissingValueError reports a row whose value cell is empty.
type MissingValueError struct {
	RecordID table.RecordID
	Field    string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("record %s: value field %q is empty", e.RecordID, e.Field)
}

// InvalidDateError reports a timestamp that could not be parsed. It aborts
// the whole run so that no group is written in a wrong order.
type InvalidDateError struct {
	RecordID table.RecordID
	EntityID EntityID
	Value    string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("record %s (entity %s): cannot parse date %q", e.RecordID, e.EntityID, e.Value)
}

// NonFiniteDeltaError reports a difference that overflowed float64. It is
// detected before anything is written.
type NonFiniteDeltaError struct {
	RecordID table.RecordID
	EntityID EntityID
	Newer    float64
	Older    float64
}

func (e *NonFiniteDeltaError) Error() string {
	return fmt.Sprintf("record %s (entity %s): difference %g - %g is not finite", e.RecordID, e.EntityID, e.Newer, e.Older)
}

// WriteError is returned when persisting a chunk fails. Chunks before it
// remain applied.
type WriteError = batch.WriteError

// IsLoadError reports whether err wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsMissingEntityReference reports whether err wraps a
// *MissingEntityReferenceError.
func IsMissingEntityReference(err error) bool {
	var me *MissingEntityReferenceError
	return errors.As(err, &me)
}

// IsNonFiniteDelta reports whether err wraps a *NonFiniteDeltaError.
func IsNonFiniteDelta(err error) bool {
	var ne *NonFiniteDeltaError
	return errors.As(err, &ne)
}

// IsInvalidDate reports whether err wraps an *InvalidDateError.
func IsInvalidDate(err error) bool {
	var de *InvalidDateError
	return errors.As(err, &de)
}
