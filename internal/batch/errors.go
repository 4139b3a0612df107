package batch

import (
	"errors"
	"fmt"
)

// WriteError reports the chunk that failed and how much was applied
// before it.
type WriteError struct {
	// ChunkIndex is the zero-based index of the failed chunk.
	ChunkIndex int

	// Committed counts items persisted before the failure.
	Committed int

	// Remaining counts items not persisted, including the failed chunk.
	Remaining int

	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write chunk %d: %v (committed=%d, remaining=%d)", e.ChunkIndex, e.Err, e.Committed, e.Remaining)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err wraps a *WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
