package table

import "errors"

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrFieldNotFound  = errors.New("field not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrBatchTooLarge  = errors.New("batch exceeds maximum size")
	ErrInvalidValue   = errors.New("invalid cell value")
	ErrDuplicateName  = errors.New("name already in use")
)
