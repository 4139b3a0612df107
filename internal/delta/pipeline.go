package delta

import (
	"context"
	"log/slog"
	"math"

	"github.com/roach88/tabletools/internal/batch"
	"github.com/roach88/tabletools/internal/table"
)

// Store is the table store a run reads from and writes to.
type Store interface {
	Reader
	UpdateRecords(ctx context.Context, tableRef string, updates []table.RecordUpdate) error
}

// Report summarises a run.
type Report struct {
	Table   string               `json:"table"`
	Records int                  `json:"records"`
	Groups  int                  `json:"groups"`
	Updates int                  `json:"updates"`
	Written int                  `json:"written"`
	Chunks  int                  `json:"chunks"`
	DryRun  bool                 `json:"dry_run"`
	Skipped []Skipped            `json:"skipped,omitempty"`
	Rows    []OrderedObservation `json:"rows"`
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	dryRun    bool
	chunkSize int
	onChunk   func(batch.ChunkEvent)
}

// WithDryRun computes deltas without writing them.
func WithDryRun(dryRun bool) Option {
	return func(o *runOptions) {
		o.dryRun = dryRun
	}
}

// WithChunkSize overrides the write chunk size (default batch.DefaultSize).
func WithChunkSize(n int) Option {
	return func(o *runOptions) {
		o.chunkSize = n
	}
}

// WithChunkObserver registers a callback invoked after each written chunk.
func WithChunkObserver(fn func(batch.ChunkEvent)) Option {
	return func(o *runOptions) {
		o.onChunk = fn
	}
}

// Compute runs the pure part of the pipeline: group, sort, and diff.
// A difference that overflows float64 is a *NonFiniteDeltaError. Groups are visited in ascending entity order; rows within a group are most
// recent first.
func Compute(observations []Observation) ([]OrderedObservation, int, error) {
	groups := GroupByEntity(observations)
	rows := make([]OrderedObservation, 0, len(observations))
	for _, id := range groups.Keys() {
		sorted, err := SortChronological(groups[id])
		if err != nil {
			return nil, 0, err
		}
		deltas := ComputeDeltas(sorted)
		for i, row := range deltas {
			if row.Delta != nil && (math.IsInf(*row.Delta, 0) || math.IsNaN(*row.Delta)) {
				return nil, 0, &NonFiniteDeltaError{
					RecordID: row.RecordID,
					EntityID: row.EntityID,
					Newer:    row.Value,
					Older:    sorted[i+1].Value,
				}
			}
		}
		rows = append(rows, deltas...)
	}
	return rows, len(groups), nil
}

// Run loads the table, computes every delta, and writes them back in
// sequential chunks. On a write failure the returned report reflects the
// chunks already applied and the error is a *WriteError.
func Run(ctx context.Context, st Store, cfg Config, opts ...Option) (*Report, error) {
	o := runOptions{chunkSize: batch.DefaultSize}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.DryRun {
		o.dryRun = true
	}

	fields, err := ResolveFields(ctx, st, cfg)
	if err != nil {
		return nil, err
	}

	observations, skipped, err := Load(ctx, st, cfg, fields, cfg.SkipIncomplete)
	if err != nil {
		return nil, err
	}
	slog.Debug("records loaded", "table", cfg.Table, "observations", len(observations), "skipped", len(skipped))

	rows, groups, err := Compute(observations)
	if err != nil {
		return nil, err
	}
	updates := BuildUpdates(rows, fields.Delta.ID)

	report := &Report{
		Table:   cfg.Table,
		Records: len(observations) + len(skipped),
		Groups:  groups,
		Updates: len(updates),
		DryRun:  o.dryRun,
		Skipped: skipped,
		Rows:    rows,
	}
	if o.dryRun {
		slog.Info("dry run, nothing written", "table", cfg.Table, "updates", len(updates))
		return report, nil
	}

	persist := func(ctx context.Context, chunk []table.RecordUpdate) error {
		return st.UpdateRecords(ctx, cfg.Table, chunk)
	}
	progress, err := batch.Write(ctx, updates, persist,
		batch.WithSize(o.chunkSize),
		batch.OnChunk(func(e batch.ChunkEvent) {
			if e.Err != nil {
				slog.Error("chunk failed", "table", cfg.Table, "chunk", e.Index, "size", e.Size, "error", e.Err)
			} else {
				slog.Debug("chunk written", "table", cfg.Table, "chunk", e.Index, "size", e.Size)
			}
			if o.onChunk != nil {
				o.onChunk(e)
			}
		}),
	)
	report.Written = progress.Committed
	report.Chunks = progress.Chunks
	if err != nil {
		return report, err
	}

	slog.Info("deltas written", "table", cfg.Table, "groups", groups, "updates", report.Written, "chunks", report.Chunks)
	return report, nil
}
