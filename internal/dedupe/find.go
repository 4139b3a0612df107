package dedupe

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/tabletools/internal/table"
)

// Duplicate is a value seen on more than one row.
type Duplicate struct {
	Value     string           `json:"value"`
	RecordIDs []table.RecordID `json:"record_ids"`
}

// Count returns the number of rows holding the value.
func (d Duplicate) Count() int {
	return len(d.RecordIDs)
}

// FindOptions tunes Find.
type FindOptions struct {
	// IgnoreEmpty leaves rows with an empty rendering out of the count.
	IgnoreEmpty bool
}

// Find groups records by the string rendering of field and returns every
// value held by more than one record, in the order each value was first seen.
// Record ids keep input order.
func Find(records []table.Record, field table.Field, opts FindOptions) []Duplicate {
	index := make(map[string]int)
	var seen []Duplicate
	for _, rec := range records {
		value := rec.CellValueAsString(field)
		if value == "" && opts.IgnoreEmpty {
			continue
		}
		key := norm.NFC.String(value)
		i, ok := index[key]
		if !ok {
			i = len(seen)
			index[key] = i
			seen = append(seen, Duplicate{Value: value})
		}
		seen[i].RecordIDs = append(seen[i].RecordIDs, rec.ID)
	}

	var dups []Duplicate
	for _, d := range seen {
		if d.Count() > 1 {
			dups = append(dups, d)
		}
	}
	return dups
}

// BuildUpdates ticks mark on every record of every duplicate.
func BuildUpdates(dups []Duplicate, mark table.FieldID) []table.RecordUpdate {
	var updates []table.RecordUpdate
	for _, d := range dups {
		for _, id := range d.RecordIDs {
			updates = append(updates, table.RecordUpdate{
				ID:     id,
				Fields: map[table.FieldID]any{mark: true},
			})
		}
	}
	return updates
}
