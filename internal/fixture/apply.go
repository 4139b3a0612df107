package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/tabletools/internal/batch"
	"github.com/roach88/tabletools/internal/table"
)

// Store is the part of the table store Apply writes through.
type Store interface {
	CreateTable(ctx context.Context, name string) (table.Schema, error)
	CreateField(ctx context.Context, tableRef, name string, ft table.FieldType, linkedTableRef string) (table.Field, error)
	CreateRecords(ctx context.Context, tableRef string, rows []map[string]any) ([]table.RecordID, error)
}

// TableResult reports what was created for one table.
type TableResult struct {
	Name    string        `json:"name"`
	ID      table.TableID `json:"id"`
	Fields  int           `json:"fields"`
	Records int           `json:"records"`
	Chunks  int           `json:"chunks"`
}

// Result reports what Apply created.
type Result struct {
	Tables []TableResult `json:"tables"`
}

// Records returns the number of records created across tables.
func (r *Result) Records() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Records
	}
	return n
}

// Option configures Apply.
type Option func(*applyOptions)

type applyOptions struct {
	onChunk func(batch.ChunkEvent)
}

// WithChunkObserver registers a callback invoked after each record chunk.
func WithChunkObserver(fn func(batch.ChunkEvent)) Option {
	return func(o *applyOptions) {
		o.onChunk = fn
	}
}

// keyIndex maps the first-field value of each record to its id, per table.
type keyIndex map[string]map[string][]table.RecordID

func (k keyIndex) resolve(tableName string, key any) (table.RecordID, error) {
	s, ok := key.(string)
	if !ok {
		s = fmt.Sprint(key)
	}
	ids := k[tableName][s]
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: no record %q in table %q", ErrInvalidFixture, s, tableName)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %d records named %q in table %q", ErrInvalidFixture, len(ids), s, tableName)
	}
}

// Apply creates every table, field and record of fx, in file order. Records
// are written in chunks of batch.DefaultSize; a failure leaves earlier
// tables and chunks in place.
func Apply(ctx context.Context, st Store, fx *Fixture, opts ...Option) (*Result, error) {
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	keys := make(keyIndex)
	result := &Result{}
	for _, t := range fx.Tables {
		tr, err := applyTable(ctx, st, t, keys, o)
		if tr != nil {
			result.Tables = append(result.Tables, *tr)
		}
		if err != nil {
			return result, fmt.Errorf("table %q: %w", t.Name, err)
		}
		slog.Info("table imported", "table", t.Name, "id", tr.ID, "records", tr.Records)
	}
	return result, nil
}

func applyTable(ctx context.Context, st Store, t Table, keys keyIndex, o applyOptions) (*TableResult, error) {
	schema, err := st.CreateTable(ctx, t.Name)
	if err != nil {
		return nil, err
	}
	tr := &TableResult{Name: t.Name, ID: schema.ID}

	links := make(map[string]string)
	for _, f := range t.Fields {
		ft, err := table.ParseFieldType(f.Type)
		if err != nil {
			return tr, err
		}
		if _, err := st.CreateField(ctx, t.Name, f.Name, ft, f.Links); err != nil {
			return tr, err
		}
		if ft == table.FieldLink {
			links[f.Name] = f.Links
		}
		tr.Fields++
	}

	rows := make([]map[string]any, len(t.Records))
	for i, rec := range t.Records {
		row, err := resolveRow(rec, links, keys)
		if err != nil {
			return tr, fmt.Errorf("record %d: %w", i, err)
		}
		rows[i] = row
	}

	var ids []table.RecordID
	persist := func(ctx context.Context, chunk []map[string]any) error {
		created, err := st.CreateRecords(ctx, t.Name, chunk)
		if err != nil {
			return err
		}
		ids = append(ids, created...)
		return nil
	}
	progress, err := batch.Write(ctx, rows, persist, batch.OnChunk(func(e batch.ChunkEvent) {
		if o.onChunk != nil {
			o.onChunk(e)
		}
	}))
	tr.Records = progress.Committed
	tr.Chunks = progress.Chunks
	if err != nil {
		return tr, err
	}

	primary := t.Fields[0].Name
	index := make(map[string][]table.RecordID, len(ids))
	for i, id := range ids {
		v, ok := t.Records[i][primary]
		if !ok {
			continue
		}
		key := normalizeScalar(v)
		s, isString := key.(string)
		if !isString {
			s = fmt.Sprint(key)
		}
		index[s] = append(index[s], id)
	}
	keys[t.Name] = index
	return tr, nil
}

// resolveRow copies a fixture record, replacing link names with record ids.
func resolveRow(rec map[string]any, links map[string]string, keys keyIndex) (map[string]any, error) {
	row := make(map[string]any, len(rec))
	for name, v := range rec {
		target, isLink := links[name]
		if !isLink {
			row[name] = normalizeScalar(v)
			continue
		}
		var refs []any
		switch l := v.(type) {
		case nil:
			continue
		case []any:
			refs = l
		default:
			refs = []any{l}
		}
		ids := make([]string, len(refs))
		for i, ref := range refs {
			id, err := keys.resolve(target, normalizeScalar(ref))
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			ids[i] = string(id)
		}
		row[name] = ids
	}
	return row, nil
}

// normalizeScalar turns YAML timestamps back into date strings.
func normalizeScalar(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
