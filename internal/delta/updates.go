package delta

import "github.com/roach88/tabletools/internal/table"

// BuildUpdates converts ordered observations into one update per record.
// A nil delta produces an explicit nil, which clears the delta cell.
func BuildUpdates(rows []OrderedObservation, deltaField table.FieldID) []table.RecordUpdate {
	updates := make([]table.RecordUpdate, len(rows))
	for i, row := range rows {
		var v any
		if row.Delta != nil {
			v = *row.Delta
		}
		updates[i] = table.RecordUpdate{
			ID:     row.RecordID,
			Fields: map[table.FieldID]any{deltaField: v},
		}
	}
	return updates
}
