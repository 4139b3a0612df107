package dedupe

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCheckboxField is returned when the table has no checkbox field
	// and none was named or requested.
	ErrNoCheckboxField = errors.New("table has no checkbox field; pass a mark field or ask for one to be created")

	// ErrAmbiguousCheckboxField is returned when the table has several
	// checkbox fields and none was named.
	ErrAmbiguousCheckboxField = errors.New("table has several checkbox fields; choose one")

	// ErrNotCheckbox is returned when the named mark field is not a checkbox.
	ErrNotCheckbox = errors.New("mark field is not a checkbox")
)

// FieldError reports a problem with the search or mark field.
type FieldError struct {
	Table string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("table %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("table %q field %q: %v", e.Table, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsFieldError reports whether err wraps a *FieldError.
func IsFieldError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}
