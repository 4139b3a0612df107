package table

import (
	"encoding/json"
	"fmt"
	"math"
)

// CheckValue reports whether v can be stored in a cell of field f.
// nil is always accepted and means "clear".
func CheckValue(f Field, v any) error {
	if v == nil {
		return nil
	}
	ok := false
	switch f.Type {
	case FieldText, FieldDate:
		_, ok = v.(string)
	case FieldNumber:
		var n float64
		n, ok = v.(float64)
		if ok && (math.IsNaN(n) || math.IsInf(n, 0)) {
			return fmt.Errorf("%w: field %q: non-finite number", ErrInvalidValue, f.Name)
		}
	case FieldCheckbox:
		_, ok = v.(bool)
	case FieldLink:
		_, ok = v.([]LinkedRecord)
	}
	if !ok {
		return fmt.Errorf("%w: field %q (%s) cannot hold %T", ErrInvalidValue, f.Name, f.Type, v)
	}
	return nil
}

// Coerce converts loosely typed input (decoded YAML or JSON, CLI strings)
// into the Go type a field stores. Link values accept a record id, a list of
// record ids, or []LinkedRecord.
func Coerce(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case FieldNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		}
	case FieldText, FieldDate:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case FieldCheckbox:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case FieldLink:
		switch l := v.(type) {
		case []LinkedRecord:
			return l, nil
		case string:
			return []LinkedRecord{{ID: RecordID(l)}}, nil
		case []string:
			out := make([]LinkedRecord, len(l))
			for i, id := range l {
				out[i] = LinkedRecord{ID: RecordID(id)}
			}
			return out, nil
		case []any:
			out := make([]LinkedRecord, 0, len(l))
			for _, elem := range l {
				id, ok := elem.(string)
				if !ok {
					return nil, fmt.Errorf("%w: field %q: link element %T", ErrInvalidValue, f.Name, elem)
				}
				out = append(out, LinkedRecord{ID: RecordID(id)})
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: field %q (%s) cannot hold %T", ErrInvalidValue, f.Name, f.Type, v)
}
