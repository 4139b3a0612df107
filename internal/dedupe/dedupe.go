package dedupe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tabletools/internal/batch"
	"github.com/roach88/tabletools/internal/table"
)

// Config names the table and fields of a run.
type Config struct {
	Table string `yaml:"table" json:"table" validate:"required,trimmed"`
	Field string `yaml:"field" json:"field" validate:"required,trimmed"`

	// MarkField is an existing checkbox field to tick.
	MarkField string `yaml:"mark_field,omitempty" json:"mark_field,omitempty" validate:"omitempty,trimmed"`

	// CreateField is the name of a checkbox field to create when MarkField
	// is empty.
	CreateField string `yaml:"create_field,omitempty" json:"create_field,omitempty" validate:"omitempty,trimmed,excluded_with=MarkField"`

	IgnoreEmpty bool `yaml:"ignore_empty,omitempty" json:"ignore_empty,omitempty"`
}

// Store is the table store a run needs.
type Store interface {
	Schema(ctx context.Context, tableRef string) (table.Schema, error)
	SelectRecords(ctx context.Context, tableRef string, fieldRefs []string) ([]table.Record, error)
	UpdateRecords(ctx context.Context, tableRef string, updates []table.RecordUpdate) error
	CreateField(ctx context.Context, tableRef, name string, ft table.FieldType, linkedTableRef string) (table.Field, error)
}

// Report summarises a run.
type Report struct {
	Table        string      `json:"table"`
	Field        string      `json:"field"`
	MarkField    string      `json:"mark_field"`
	FieldCreated bool        `json:"field_created,omitempty"`
	Records      int         `json:"records"`
	Duplicates   []Duplicate `json:"duplicates"`
	Updates      int         `json:"updates"`
	Written      int         `json:"written"`
	Chunks       int         `json:"chunks"`
	DryRun       bool        `json:"dry_run"`
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	dryRun  bool
	onChunk func(batch.ChunkEvent)
}

// WithDryRun finds duplicates without touching the table. No field is
// created either.
func WithDryRun(dryRun bool) Option {
	return func(o *runOptions) {
		o.dryRun = dryRun
	}
}

// WithChunkObserver registers a callback invoked after each written chunk.
func WithChunkObserver(fn func(batch.ChunkEvent)) Option {
	return func(o *runOptions) {
		o.onChunk = fn
	}
}

// ResolveMarkField picks the checkbox field to tick: the named MarkField,
// else a newly created CreateField, else the table's only checkbox field.
// The boolean reports whether a field was created.
func ResolveMarkField(ctx context.Context, st Store, cfg Config) (table.Field, bool, error) {
	schema, err := st.Schema(ctx, cfg.Table)
	if err != nil {
		return table.Field{}, false, &FieldError{Table: cfg.Table, Err: err}
	}

	if cfg.MarkField != "" {
		f, ok := schema.Field(cfg.MarkField)
		if !ok {
			return table.Field{}, false, &FieldError{Table: cfg.Table, Field: cfg.MarkField, Err: table.ErrFieldNotFound}
		}
		if f.Type != table.FieldCheckbox {
			return table.Field{}, false, &FieldError{Table: cfg.Table, Field: cfg.MarkField, Err: ErrNotCheckbox}
		}
		return f, false, nil
	}

	if cfg.CreateField != "" {
		f, err := st.CreateField(ctx, cfg.Table, cfg.CreateField, table.FieldCheckbox, "")
		if err != nil {
			return table.Field{}, false, &FieldError{Table: cfg.Table, Field: cfg.CreateField, Err: err}
		}
		slog.Info("created checkbox field", "table", cfg.Table, "field", f.Name, "id", f.ID)
		return f, true, nil
	}

	boxes := schema.FieldsOfType(table.FieldCheckbox)
	switch len(boxes) {
	case 0:
		return table.Field{}, false, &FieldError{Table: cfg.Table, Err: ErrNoCheckboxField}
	case 1:
		return boxes[0], false, nil
	default:
		return table.Field{}, false, &FieldError{Table: cfg.Table, Err: ErrAmbiguousCheckboxField}
	}
}

// Run finds duplicate values of cfg.Field and ticks the mark field on every
// affected row, in sequential chunks.
func Run(ctx context.Context, st Store, cfg Config, opts ...Option) (*Report, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	schema, err := st.Schema(ctx, cfg.Table)
	if err != nil {
		return nil, &FieldError{Table: cfg.Table, Err: err}
	}
	field, ok := schema.Field(cfg.Field)
	if !ok {
		return nil, &FieldError{Table: cfg.Table, Field: cfg.Field, Err: table.ErrFieldNotFound}
	}

	records, err := st.SelectRecords(ctx, cfg.Table, []string{string(field.ID)})
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", cfg.Table, err)
	}
	dups := Find(records, field, FindOptions{IgnoreEmpty: cfg.IgnoreEmpty})
	for _, d := range dups {
		slog.Debug("duplicate value", "value", d.Value, "occurrences", d.Count())
	}

	report := &Report{
		Table:      cfg.Table,
		Field:      field.Name,
		Records:    len(records),
		Duplicates: dups,
		DryRun:     o.dryRun,
	}
	for _, d := range dups {
		report.Updates += d.Count()
	}

	if o.dryRun {
		report.MarkField = cfg.MarkField
		if report.MarkField == "" {
			report.MarkField = cfg.CreateField
		}
		return report, nil
	}
	if len(dups) == 0 {
		slog.Info("no duplicates found", "table", cfg.Table, "field", field.Name)
		return report, nil
	}

	mark, created, err := ResolveMarkField(ctx, st, cfg)
	if err != nil {
		return report, err
	}
	report.MarkField = mark.Name
	report.FieldCreated = created
	if mark.ID == field.ID {
		return report, &FieldError{Table: cfg.Table, Field: mark.Name, Err: fmt.Errorf("mark field must differ from the search field")}
	}

	updates := BuildUpdates(dups, mark.ID)
	persist := func(ctx context.Context, chunk []table.RecordUpdate) error {
		return st.UpdateRecords(ctx, cfg.Table, chunk)
	}
	progress, err := batch.Write(ctx, updates, persist, batch.OnChunk(func(e batch.ChunkEvent) {
		if e.Err != nil {
			slog.Error("chunk failed", "table", cfg.Table, "chunk", e.Index, "size", e.Size, "error", e.Err)
		}
		if o.onChunk != nil {
			o.onChunk(e)
		}
	}))
	report.Written = progress.Committed
	report.Chunks = progress.Chunks
	if err != nil {
		return report, err
	}

	slog.Info("duplicates marked", "table", cfg.Table, "values", len(dups), "records", report.Written)
	return report, nil
}
