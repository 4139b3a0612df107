package delta

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tabletools/internal/table"
)

// Reader is the part of the table store the loader needs.
type Reader interface {
	Schema(ctx context.Context, tableRef string) (table.Schema, error)
	SelectRecords(ctx context.Context, tableRef string, fieldRefs []string) ([]table.Record, error)
}

// Fields holds the resolved fields of a run.
type Fields struct {
	Entity table.Field
	Value  table.Field
	Date   table.Field
	Delta  table.Field
}

// Skipped is a row left out of the run because it was incomplete.
type Skipped struct {
	RecordID table.RecordID `json:"record_id"`
	Reason   string         `json:"reason"`
}

// ResolveFields checks that the table exists and that every configured
// field exists with a usable type. Failures are *LoadError.
func ResolveFields(ctx context.Context, r Reader, cfg Config) (Fields, error) {
	schema, err := r.Schema(ctx, cfg.Table)
	if err != nil {
		return Fields{}, &LoadError{Table: cfg.Table, Err: err}
	}

	lookup := func(ref string, allowed ...table.FieldType) (table.Field, error) {
		f, ok := schema.Field(ref)
		if !ok {
			return table.Field{}, fmt.Errorf("%w: %q", table.ErrFieldNotFound, ref)
		}
		for _, ft := range allowed {
			if f.Type == ft {
				return f, nil
			}
		}
		return table.Field{}, fmt.Errorf("%w: field %q is %s, want one of %v", ErrFieldType, f.Name, f.Type, allowed)
	}

	var fields Fields
	steps := []struct {
		dst     *table.Field
		ref     string
		allowed []table.FieldType
	}{
		{&fields.Entity, cfg.EntityField, []table.FieldType{table.FieldLink}},
		{&fields.Value, cfg.ValueField, []table.FieldType{table.FieldNumber}},
		{&fields.Date, cfg.DateField, []table.FieldType{table.FieldDate, table.FieldText}},
		{&fields.Delta, cfg.DeltaField, []table.FieldType{table.FieldNumber}},
	}
	for _, step := range steps {
		f, err := lookup(step.ref, step.allowed...)
		if err != nil {
			return Fields{}, &LoadError{Table: cfg.Table, Err: err}
		}
		*step.dst = f
	}

	if fields.Delta.ID == fields.Value.ID {
		return Fields{}, &LoadError{Table: cfg.Table, Err: fmt.Errorf("delta field %q must differ from the value field", fields.Delta.Name)}
	}
	return fields, nil
}

// Load reads every row of the table and converts it to an Observation.
//
// A row with an empty link or value cell fails the load with
// *MissingEntityReferenceError or *MissingValueError, unless skipIncomplete
// is set; skipped rows are returned separately.
func Load(ctx context.Context, r Reader, cfg Config, fields Fields, skipIncomplete bool) ([]Observation, []Skipped, error) {
	records, err := r.SelectRecords(ctx, cfg.Table, []string{
		string(fields.Entity.ID),
		string(fields.Value.ID),
		string(fields.Date.ID),
	})
	if err != nil {
		return nil, nil, &LoadError{Table: cfg.Table, Err: err}
	}

	observations := make([]Observation, 0, len(records))
	var skipped []Skipped
	for _, rec := range records {
		obs, err := observationFrom(rec, fields)
		if err != nil {
			if !skipIncomplete {
				return nil, nil, err
			}
			slog.Warn("skipping incomplete record", "record", rec.ID, "reason", err.Error())
			skipped = append(skipped, Skipped{RecordID: rec.ID, Reason: err.Error()})
			continue
		}
		observations = append(observations, obs)
	}
	return observations, skipped, nil
}

func observationFrom(rec table.Record, fields Fields) (Observation, error) {
	entity, ok := rec.FirstLinkedID(fields.Entity)
	if !ok || entity == "" {
		return Observation{}, &MissingEntityReferenceError{RecordID: rec.ID, Field: fields.Entity.Name}
	}
	value, ok := rec.Number(fields.Value)
	if !ok {
		return Observation{}, &MissingValueError{RecordID: rec.ID, Field: fields.Value.Name}
	}
	return Observation{
		RecordID:  rec.ID,
		EntityID:  EntityID(entity),
		Timestamp: rec.CellValueAsString(fields.Date),
		Value:     value,
	}, nil
}
