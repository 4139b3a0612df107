package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/tabletools/internal/table"
)

// marshalCell converts a cell value to JSON TEXT for storage.
// Link cells store only the record ids; names are resolved on read.
func marshalCell(f table.Field, v any) (string, error) {
	if err := table.CheckValue(f, v); err != nil {
		return "", err
	}

	var stored any = v
	if links, ok := v.([]table.LinkedRecord); ok {
		ids := make([]string, len(links))
		for i, l := range links {
			ids[i] = string(l.ID)
		}
		stored = ids
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(stored); err != nil {
		return "", fmt.Errorf("marshal cell %q: %w", f.Name, err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalCell parses stored JSON TEXT into the Go type of the field.
// Link cells come back with ids only.
func unmarshalCell(f table.Field, data string) (any, error) {
	var err error
	switch f.Type {
	case table.FieldText, table.FieldDate:
		var s string
		err = json.Unmarshal([]byte(data), &s)
		if err == nil {
			return s, nil
		}
	case table.FieldNumber:
		var n float64
		err = json.Unmarshal([]byte(data), &n)
		if err == nil {
			return n, nil
		}
	case table.FieldCheckbox:
		var b bool
		err = json.Unmarshal([]byte(data), &b)
		if err == nil {
			return b, nil
		}
	case table.FieldLink:
		var ids []string
		err = json.Unmarshal([]byte(data), &ids)
		if err == nil {
			links := make([]table.LinkedRecord, len(ids))
			for i, id := range ids {
				links[i] = table.LinkedRecord{ID: table.RecordID(id)}
			}
			return links, nil
		}
	default:
		err = fmt.Errorf("unknown field type %q", f.Type)
	}
	return nil, fmt.Errorf("unmarshal cell %q: %w", f.Name, err)
}

// isEmptyValue reports whether a value clears the cell instead of
// storing it: nil and zero-length links.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	links, ok := v.([]table.LinkedRecord)
	return ok && len(links) == 0
}
