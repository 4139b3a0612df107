package table

import "fmt"

// TableID identifies a table.
type TableID string

// FieldID identifies a field within a table.
type FieldID string

// RecordID identifies a row.
type RecordID string

// MaxBatchSize is the largest number of records a single create or update
// call accepts.
const MaxBatchSize = 50

// FieldType is the declared type of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldCheckbox FieldType = "checkbox"
	FieldLink     FieldType = "link"
)

// ValidFieldTypes lists every supported field type.
var ValidFieldTypes = []FieldType{FieldText, FieldNumber, FieldDate, FieldCheckbox, FieldLink}

// ParseFieldType validates a field type name.
func ParseFieldType(s string) (FieldType, error) {
	for _, ft := range ValidFieldTypes {
		if string(ft) == s {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q: must be one of %v", s, ValidFieldTypes)
}

// Field describes one column of a table.
type Field struct {
	ID   FieldID   `json:"id"`
	Name string    `json:"name"`
	Type FieldType `json:"type"`

	// LinkedTableID is set for link fields only.
	LinkedTableID TableID `json:"linked_table_id,omitempty"`
}

// Schema is a table with its fields in creation order.
type Schema struct {
	ID     TableID `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field resolves a field reference by id, then by name.
func (s Schema) Field(ref string) (Field, bool) {
	for _, f := range s.Fields {
		if string(f.ID) == ref {
			return f, true
		}
	}
	for _, f := range s.Fields {
		if f.Name == ref {
			return f, true
		}
	}
	return Field{}, false
}

// FieldsOfType returns the fields with the given type, in creation order.
func (s Schema) FieldsOfType(ft FieldType) []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Type == ft {
			out = append(out, f)
		}
	}
	return out
}

// LinkedRecord is one reference held in a link cell.
type LinkedRecord struct {
	ID   RecordID `json:"id"`
	Name string   `json:"name,omitempty"`
}

// RecordUpdate sets the listed fields of one record. A nil value clears
// the cell.
type RecordUpdate struct {
	ID     RecordID        `json:"id"`
	Fields map[FieldID]any `json:"fields"`
}
