package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/tabletools/internal/table"
)

// CreateTable creates an empty table. Names are unique across the store.
func (s *Store) CreateTable(ctx context.Context, name string) (table.Schema, error) {
	if name == "" {
		return table.Schema{}, fmt.Errorf("create table: name is required")
	}
	id := table.TableID(s.ids.Generate(prefixTable))
	_, err := s.db.ExecContext(ctx, `INSERT INTO tables (id, name) VALUES (?, ?)`, string(id), name)
	if err != nil {
		if isUniqueViolation(err) {
			return table.Schema{}, fmt.Errorf("create table %q: %w", name, table.ErrDuplicateName)
		}
		return table.Schema{}, fmt.Errorf("create table: %w", err)
	}
	return table.Schema{ID: id, Name: name, Fields: []table.Field{}}, nil
}

// CreateField adds a field to a table. linkedTableRef is required for link
// fields and must be empty otherwise.
func (s *Store) CreateField(ctx context.Context, tableRef, name string, ft table.FieldType, linkedTableRef string) (table.Field, error) {
	schema, err := s.Schema(ctx, tableRef)
	if err != nil {
		return table.Field{}, fmt.Errorf("create field: %w", err)
	}
	if name == "" {
		return table.Field{}, fmt.Errorf("create field: name is required")
	}
	if _, err := table.ParseFieldType(string(ft)); err != nil {
		return table.Field{}, fmt.Errorf("create field: %w", err)
	}

	field := table.Field{
		ID:   table.FieldID(s.ids.Generate(prefixField)),
		Name: name,
		Type: ft,
	}

	var linked sql.NullString
	switch {
	case ft == table.FieldLink && linkedTableRef == "":
		return table.Field{}, fmt.Errorf("create field %q: link fields need a linked table", name)
	case ft != table.FieldLink && linkedTableRef != "":
		return table.Field{}, fmt.Errorf("create field %q: only link fields take a linked table", name)
	case ft == table.FieldLink:
		target, err := s.Schema(ctx, linkedTableRef)
		if err != nil {
			return table.Field{}, fmt.Errorf("create field %q: linked table: %w", name, err)
		}
		field.LinkedTableID = target.ID
		linked = sql.NullString{String: string(target.ID), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fields (id, table_id, name, type, linked_table_id)
		VALUES (?, ?, ?, ?, ?)
	`, string(field.ID), string(schema.ID), field.Name, string(field.Type), linked)
	if err != nil {
		if isUniqueViolation(err) {
			return table.Field{}, fmt.Errorf("create field %q: %w", name, table.ErrDuplicateName)
		}
		return table.Field{}, fmt.Errorf("create field: %w", err)
	}
	return field, nil
}

// Schema loads a table and its fields. The reference is a table id or name.
// Returns table.ErrTableNotFound if neither matches.
func (s *Store) Schema(ctx context.Context, tableRef string) (table.Schema, error) {
	return loadSchema(ctx, s.db, tableRef)
}

// Tables lists every table, ordered by name.
func (s *Store) Tables(ctx context.Context) ([]table.Schema, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM tables ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	rows.Close()

	schemas := make([]table.Schema, 0, len(ids))
	for _, id := range ids {
		schema, err := s.Schema(ctx, id)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

func loadSchema(ctx context.Context, q querier, tableRef string) (table.Schema, error) {
	var schema table.Schema
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id, name FROM tables
		WHERE id = ? OR name = ?
		ORDER BY (id = ?) DESC
		LIMIT 1
	`, tableRef, tableRef, tableRef).Scan(&id, &schema.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return table.Schema{}, fmt.Errorf("%w: %q", table.ErrTableNotFound, tableRef)
	}
	if err != nil {
		return table.Schema{}, fmt.Errorf("query table: %w", err)
	}
	schema.ID = table.TableID(id)

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, linked_table_id
		FROM fields
		WHERE table_id = ?
		ORDER BY rowid ASC
	`, id)
	if err != nil {
		return table.Schema{}, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	schema.Fields = []table.Field{}
	for rows.Next() {
		var f table.Field
		var fid, ftype string
		var linked sql.NullString
		if err := rows.Scan(&fid, &f.Name, &ftype, &linked); err != nil {
			return table.Schema{}, fmt.Errorf("scan field: %w", err)
		}
		f.ID = table.FieldID(fid)
		f.Type = table.FieldType(ftype)
		if linked.Valid {
			f.LinkedTableID = table.TableID(linked.String)
		}
		schema.Fields = append(schema.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return table.Schema{}, fmt.Errorf("iterate fields: %w", err)
	}
	return schema, nil
}

// resolveFields maps field references onto the schema. Empty refs select
// every field.
func resolveFields(schema table.Schema, refs []string) ([]table.Field, error) {
	if len(refs) == 0 {
		return schema.Fields, nil
	}
	fields := make([]table.Field, 0, len(refs))
	seen := make(map[table.FieldID]bool, len(refs))
	for _, ref := range refs {
		f, ok := schema.Field(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q in table %q", table.ErrFieldNotFound, ref, schema.Name)
		}
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		fields = append(fields, f)
	}
	return fields, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
