// Package testutil provides in-memory fakes for exercising the record
// routines without SQLite.
package testutil

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/roach88/tabletools/internal/table"
)

// MemTable is a single in-memory table that follows the store's contract:
// full-scan reads in insertion order, batch limits, per-call atomic updates,
// and id-only field keys on update.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type MemTable struct {
	mu      sync.Mutex
	schema  table.Schema
	order   []table.RecordID
	records map[table.RecordID]map[table.FieldID]any

	// UpdateCalls records every UpdateRecords batch, including failed ones.
	UpdateCalls [][]table.RecordUpdate

	// FailUpdateAt makes the n-th UpdateRecords call (1-based) fail
	// without applying anything. Zero never fails.
	FailUpdateAt int

	// FailSelect makes SelectRecords fail with the given error.
	FailSelect error

	nextField int
}

// NewMemTable creates an empty table with the given schema.
func NewMemTable(schema table.Schema) *MemTable {
	return &MemTable{
		schema:  schema,
		records: make(map[table.RecordID]map[table.FieldID]any),
	}
}

// Add appends a record. Cells are keyed by field id or name.
func (m *MemTable) Add(id table.RecordID, cells map[string]any) *MemTable {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := make(map[table.FieldID]any, len(cells))
	for ref, v := range cells {
		f, ok := m.schema.Field(ref)
		if !ok {
			panic(fmt.Sprintf("MemTable.Add: unknown field %q", ref))
		}
		row[f.ID] = v
	}
	m.order = append(m.order, id)
	m.records[id] = row
	return m
}

func (m *MemTable) matches(ref string) bool {
	return ref == string(m.schema.ID) || ref == m.schema.Name
}

// Schema implements the store's schema lookup.
func (m *MemTable) Schema(_ context.Context, tableRef string) (table.Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.matches(tableRef) {
		return table.Schema{}, fmt.Errorf("%w: %q", table.ErrTableNotFound, tableRef)
	}
	schema := m.schema
	schema.Fields = append([]table.Field(nil), m.schema.Fields...)
	return schema, nil
}

// SelectRecords returns copies of every record with the requested fields.
func (m *MemTable) SelectRecords(_ context.Context, tableRef string, fieldRefs []string) ([]table.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSelect != nil {
		return nil, m.FailSelect
	}
	if !m.matches(tableRef) {
		return nil, fmt.Errorf("%w: %q", table.ErrTableNotFound, tableRef)
	}

	wanted := make(map[table.FieldID]bool)
	for _, ref := range fieldRefs {
		f, ok := m.schema.Field(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q", table.ErrFieldNotFound, ref)
		}
		wanted[f.ID] = true
	}

	out := make([]table.Record, 0, len(m.order))
	for _, id := range m.order {
		cells := make(map[table.FieldID]any)
		for fid, v := range m.records[id] {
			if len(wanted) == 0 || wanted[fid] {
				cells[fid] = v
			}
		}
		out = append(out, table.Record{ID: id, Cells: cells})
	}
	return out, nil
}

// UpdateRecords applies a batch atomically.
func (m *MemTable) UpdateRecords(_ context.Context, tableRef string, updates []table.RecordUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := make([]table.RecordUpdate, len(updates))
	for i, u := range updates {
		batch[i] = table.RecordUpdate{ID: u.ID, Fields: maps.Clone(u.Fields)}
	}
	m.UpdateCalls = append(m.UpdateCalls, batch)

	if m.FailUpdateAt > 0 && len(m.UpdateCalls) == m.FailUpdateAt {
		return fmt.Errorf("injected failure on update call %d", m.FailUpdateAt)
	}
	if !m.matches(tableRef) {
		return fmt.Errorf("%w: %q", table.ErrTableNotFound, tableRef)
	}
	if len(updates) > table.MaxBatchSize {
		return fmt.Errorf("%w: %d", table.ErrBatchTooLarge, len(updates))
	}

	byID := make(map[table.FieldID]table.Field, len(m.schema.Fields))
	for _, f := range m.schema.Fields {
		byID[f.ID] = f
	}
	for _, u := range updates {
		if _, ok := m.records[u.ID]; !ok {
			return fmt.Errorf("%w: %q", table.ErrRecordNotFound, u.ID)
		}
		for fid, v := range u.Fields {
			f, ok := byID[fid]
			if !ok {
				return fmt.Errorf("%w: %q", table.ErrFieldNotFound, fid)
			}
			if err := table.CheckValue(f, v); err != nil {
				return err
			}
		}
	}

	for _, u := range updates {
		for fid, v := range u.Fields {
			if v == nil {
				delete(m.records[u.ID], fid)
				continue
			}
			m.records[u.ID][fid] = v
		}
	}
	return nil
}

// CreateField adds a field with a generated id.
func (m *MemTable) CreateField(_ context.Context, tableRef, name string, ft table.FieldType, linkedTableRef string) (table.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.matches(tableRef) {
		return table.Field{}, fmt.Errorf("%w: %q", table.ErrTableNotFound, tableRef)
	}
	for _, f := range m.schema.Fields {
		if f.Name == name {
			return table.Field{}, fmt.Errorf("%w: %q", table.ErrDuplicateName, name)
		}
	}
	m.nextField++
	f := table.Field{
		ID:            table.FieldID(fmt.Sprintf("fldNew%d", m.nextField)),
		Name:          name,
		Type:          ft,
		LinkedTableID: table.TableID(linkedTableRef),
	}
	m.schema.Fields = append(m.schema.Fields, f)
	return f, nil
}

// Cell returns the stored value of one cell, or nil.
func (m *MemTable) Cell(id table.RecordID, ref string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.schema.Field(ref)
	if !ok {
		return nil
	}
	return m.records[id][f.ID]
}
