package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tabletools/internal/table"
)

// SelectRecords returns every record of a table with the requested fields
// populated. Empty fieldRefs selects all fields. Records are ordered by
// insertion (rowid ASC, id ASC) so repeated reads are identical.
//
// Returns empty slice (not nil) if the table has no records.
// Fails with table.ErrTableNotFound or table.ErrFieldNotFound for bad
// references.
func (s *Store) SelectRecords(ctx context.Context, tableRef string, fieldRefs []string) ([]table.Record, error) {
	schema, err := s.Schema(ctx, tableRef)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	fields, err := resolveFields(schema, fieldRefs)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}

	records, index, err := s.readRecordIDs(ctx, schema.ID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(fields) == 0 {
		return records, nil
	}

	byID := make(map[table.FieldID]table.Field, len(fields))
	placeholders := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, string(schema.ID))
	for i, f := range fields {
		byID[f.ID] = f
		placeholders[i] = "?"
		args = append(args, string(f.ID))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.record_id, c.field_id, c.value
		FROM cells c
		JOIN records r ON r.id = c.record_id
		WHERE r.table_id = ? AND c.field_id IN (`+strings.Join(placeholders, ", ")+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recordID, fieldID, data string
		if err := rows.Scan(&recordID, &fieldID, &data); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		f := byID[table.FieldID(fieldID)]
		v, err := unmarshalCell(f, data)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", recordID, err)
		}
		records[index[table.RecordID(recordID)]].Cells[f.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}

	for _, f := range fields {
		if f.Type != table.FieldLink {
			continue
		}
		if err := s.resolveLinkNames(ctx, f, records); err != nil {
			return nil, err
		}
	}

	return records, nil
}

// readRecordIDs lists the records of a table in insertion order with empty
// cell maps, plus an id→position index.
func (s *Store) readRecordIDs(ctx context.Context, tableID table.TableID) ([]table.Record, map[table.RecordID]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM records
		WHERE table_id = ?
		ORDER BY rowid ASC, id COLLATE BINARY ASC
	`, string(tableID))
	if err != nil {
		return nil, nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []table.Record{}
	index := make(map[table.RecordID]int)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("scan record: %w", err)
		}
		index[table.RecordID(id)] = len(records)
		records = append(records, table.Record{ID: table.RecordID(id), Cells: map[table.FieldID]any{}})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, index, nil
}

// resolveLinkNames fills LinkedRecord.Name from the first field of the
// linked table, rendered as a string.
func (s *Store) resolveLinkNames(ctx context.Context, f table.Field, records []table.Record) error {
	target, err := loadSchema(ctx, s.db, string(f.LinkedTableID))
	if err != nil {
		return fmt.Errorf("link field %q: %w", f.Name, err)
	}
	if len(target.Fields) == 0 {
		return nil
	}
	primary := target.Fields[0]

	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, value FROM cells WHERE field_id = ?
	`, string(primary.ID))
	if err != nil {
		return fmt.Errorf("query link names: %w", err)
	}
	defer rows.Close()

	names := make(map[table.RecordID]string)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scan link name: %w", err)
		}
		v, err := unmarshalCell(primary, data)
		if err != nil {
			return fmt.Errorf("link name for %s: %w", id, err)
		}
		rec := table.Record{ID: table.RecordID(id), Cells: map[table.FieldID]any{primary.ID: v}}
		names[rec.ID] = rec.CellValueAsString(primary)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate link names: %w", err)
	}

	for _, rec := range records {
		links, ok := rec.Cells[f.ID].([]table.LinkedRecord)
		if !ok {
			continue
		}
		for i := range links {
			links[i].Name = names[links[i].ID]
		}
	}
	return nil
}

// CountRecords returns the number of records in a table.
func (s *Store) CountRecords(ctx context.Context, tableRef string) (int, error) {
	schema, err := s.Schema(ctx, tableRef)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE table_id = ?`, string(schema.ID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
