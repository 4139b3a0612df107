package table

import (
	"strconv"
	"strings"
)

// Record is one row. Cells only holds non-empty values.
type Record struct {
	ID    RecordID        `json:"id"`
	Cells map[FieldID]any `json:"cells"`
}

// CellValue returns the raw cell value, or nil when the cell is empty.
func (r Record) CellValue(f Field) any {
	if r.Cells == nil {
		return nil
	}
	return r.Cells[f.ID]
}

// LinkedRecords returns the references held in a link cell.
func (r Record) LinkedRecords(f Field) []LinkedRecord {
	links, _ := r.CellValue(f).([]LinkedRecord)
	return links
}

// FirstLinkedID returns the id of the first linked record in a link cell.
// Additional links are ignored.
func (r Record) FirstLinkedID(f Field) (RecordID, bool) {
	links := r.LinkedRecords(f)
	if len(links) == 0 {
		return "", false
	}
	return links[0].ID, true
}

// Number returns the value of a number cell.
func (r Record) Number(f Field) (float64, bool) {
	n, ok := r.CellValue(f).(float64)
	return n, ok
}

// CellValueAsString renders a cell the way it reads in a grid view.
// Empty cells render as "".
func (r Record) CellValueAsString(f Field) string {
	switch v := r.CellValue(f).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "checked"
		}
		return ""
	case []LinkedRecord:
		names := make([]string, len(v))
		for i, l := range v {
			names[i] = l.Name
			if names[i] == "" {
				names[i] = string(l.ID)
			}
		}
		return strings.Join(names, ", ")
	default:
		return ""
	}
}
