package cli

import (
	"context"
	"errors"

	"github.com/roach88/tabletools/internal/batch"
	"github.com/roach88/tabletools/internal/dedupe"
	"github.com/roach88/tabletools/internal/delta"
	"github.com/roach88/tabletools/internal/fixture"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeUsage          = "E002" // Bad flags or job file
	ErrCodeDatabase       = "E003" // Database could not be opened
	ErrCodeInterrupted    = "E004" // Run cancelled by a signal
	ErrCodeLoad           = "E101" // Table or field reference invalid
	ErrCodeMissingEntity  = "E102" // Row without an entity link
	ErrCodeMissingValue   = "E103" // Row without a value
	ErrCodeInvalidDate    = "E104" // Unparseable timestamp
	ErrCodeWrite          = "E105" // Chunk write failed
	ErrCodeNonFiniteDelta = "E106" // Difference overflowed
	ErrCodeCheckboxField  = "E201" // Mark field unusable or not chosen
	ErrCodeInvalidFixture = "E301" // Fixture file rejected
)

// errorCode classifies err for CLI output.
func errorCode(err error) string {
	var (
		missingValue *delta.MissingValueError
		exitErr      *ExitError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCodeInterrupted
	case delta.IsLoadError(err):
		return ErrCodeLoad
	case delta.IsMissingEntityReference(err):
		return ErrCodeMissingEntity
	case errors.As(err, &missingValue):
		return ErrCodeMissingValue
	case delta.IsInvalidDate(err):
		return ErrCodeInvalidDate
	case delta.IsNonFiniteDelta(err):
		return ErrCodeNonFiniteDelta
	case batch.IsWriteError(err):
		return ErrCodeWrite
	case dedupe.IsFieldError(err):
		return ErrCodeCheckboxField
	case errors.Is(err, fixture.ErrInvalidFixture):
		return ErrCodeInvalidFixture
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		if exitErr.Message == "failed to open database" {
			return ErrCodeDatabase
		}
		return ErrCodeUsage
	default:
		return ErrCodeGeneric
	}
}

// errorDetails returns structured context for JSON output, when there is any.
func errorDetails(err error) any {
	var we *batch.WriteError
	if errors.As(err, &we) {
		return map[string]int{
			"chunk":     we.ChunkIndex,
			"committed": we.Committed,
			"remaining": we.Remaining,
		}
	}
	var de *delta.InvalidDateError
	if errors.As(err, &de) {
		return map[string]string{
			"record": string(de.RecordID),
			"entity": string(de.EntityID),
			"value":  de.Value,
		}
	}
	var me *delta.MissingEntityReferenceError
	if errors.As(err, &me) {
		return map[string]string{
			"record": string(me.RecordID),
			"field":  me.Field,
		}
	}
	return nil
}
