package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tabletools/internal/table"
)

// CreateRecords inserts records into a table in one transaction and returns
// their new ids in input order. Map keys are field ids or names; values are
// coerced with table.Coerce. At most table.MaxBatchSize records per call.
func (s *Store) CreateRecords(ctx context.Context, tableRef string, rows []map[string]any) ([]table.RecordID, error) {
	if len(rows) > table.MaxBatchSize {
		return nil, fmt.Errorf("create records: %w: %d > %d", table.ErrBatchTooLarge, len(rows), table.MaxBatchSize)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	schema, err := loadSchema(ctx, tx, tableRef)
	if err != nil {
		return nil, fmt.Errorf("create records: %w", err)
	}

	ids := make([]table.RecordID, 0, len(rows))
	for i, row := range rows {
		id := table.RecordID(s.ids.Generate(prefixRecord))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, table_id) VALUES (?, ?)
		`, string(id), string(schema.ID)); err != nil {
			return nil, fmt.Errorf("create records: row %d: %w", i, err)
		}

		for ref, raw := range row {
			f, ok := schema.Field(ref)
			if !ok {
				return nil, fmt.Errorf("create records: row %d: %w: %q", i, table.ErrFieldNotFound, ref)
			}
			v, err := table.Coerce(f, raw)
			if err != nil {
				return nil, fmt.Errorf("create records: row %d: %w", i, err)
			}
			if err := writeCell(ctx, tx, id, f, v); err != nil {
				return nil, fmt.Errorf("create records: row %d: %w", i, err)
			}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create records: commit: %w", err)
	}
	return ids, nil
}

// UpdateRecords applies a batch of cell updates in one transaction.
// Either every update in the batch is applied or none is.
//
// Field keys must be field ids of the table (names are not accepted here, to
// match the write-path contract of the routines). A nil value clears the
// cell.
//
// Fails with table.ErrBatchTooLarge for more than table.MaxBatchSize
// updates, table.ErrFieldNotFound for unknown field ids,
// table.ErrRecordNotFound for records outside the table, and
// table.ErrInvalidValue for values the field type cannot hold.
func (s *Store) UpdateRecords(ctx context.Context, tableRef string, updates []table.RecordUpdate) error {
	if len(updates) > table.MaxBatchSize {
		return fmt.Errorf("update records: %w: %d > %d", table.ErrBatchTooLarge, len(updates), table.MaxBatchSize)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	schema, err := loadSchema(ctx, tx, tableRef)
	if err != nil {
		return fmt.Errorf("update records: %w", err)
	}
	byID := make(map[table.FieldID]table.Field, len(schema.Fields))
	for _, f := range schema.Fields {
		byID[f.ID] = f
	}

	for _, u := range updates {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT table_id FROM records WHERE id = ?`, string(u.ID)).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != string(schema.ID)) {
			return fmt.Errorf("update records: %w: %q in table %q", table.ErrRecordNotFound, u.ID, schema.Name)
		}
		if err != nil {
			return fmt.Errorf("update records: lookup %s: %w", u.ID, err)
		}

		for fid, v := range u.Fields {
			f, ok := byID[fid]
			if !ok {
				return fmt.Errorf("update records: %w: %q in table %q", table.ErrFieldNotFound, fid, schema.Name)
			}
			if err := writeCell(ctx, tx, u.ID, f, v); err != nil {
				return fmt.Errorf("update records: record %s: %w", u.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update records: commit: %w", err)
	}
	return nil
}

// writeCell upserts or clears one cell. Link targets must exist in the
// linked table.
func writeCell(ctx context.Context, q querier, id table.RecordID, f table.Field, v any) error {
	if isEmptyValue(v) {
		_, err := q.ExecContext(ctx, `DELETE FROM cells WHERE record_id = ? AND field_id = ?`, string(id), string(f.ID))
		if err != nil {
			return fmt.Errorf("clear cell %q: %w", f.Name, err)
		}
		return nil
	}

	data, err := marshalCell(f, v)
	if err != nil {
		return err
	}

	if links, ok := v.([]table.LinkedRecord); ok {
		for _, l := range links {
			var n int
			err := q.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM records WHERE id = ? AND table_id = ?
			`, string(l.ID), string(f.LinkedTableID)).Scan(&n)
			if err != nil {
				return fmt.Errorf("check link %s: %w", l.ID, err)
			}
			if n == 0 {
				return fmt.Errorf("field %q: link %w: %q", f.Name, table.ErrRecordNotFound, l.ID)
			}
		}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO cells (record_id, field_id, value)
		VALUES (?, ?, ?)
		ON CONFLICT(record_id, field_id) DO UPDATE SET value = excluded.value
	`, string(id), string(f.ID), data)
	if err != nil {
		return fmt.Errorf("write cell %q: %w", f.Name, err)
	}
	return nil
}
