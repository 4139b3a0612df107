package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tabletools/internal/config"
	"github.com/roach88/tabletools/internal/delta"
	"github.com/roach88/tabletools/internal/metrics"
)

// DeltasOptions holds flags for the deltas command.
type DeltasOptions struct {
	*RootOptions
	delta.Config
}

// NewDeltasCommand creates the deltas command.
func NewDeltasCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeltasOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deltas",
		Short: "Compute per-entity deltas between consecutive observations",
		Long: `Compute the change between consecutive observations of each entity.

Rows are grouped by the first record in the entity link field, ordered
newest first by the date field, and each row's delta field is set to its
value minus the value of the next older row, rounded to two decimals.
The oldest row of each entity gets an empty delta. Updates are written in
chunks of 50; a failed chunk stops the run and earlier chunks stay written.

Example:
  tabletools deltas --db ./herd.db --table Weights --entity-field Animal \
    --value-field Weight --date-field Date --delta-field Change
  tabletools deltas --config job.yaml --dry-run --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeltas(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table holding the observations")
	cmd.Flags().StringVar(&opts.EntityField, "entity-field", "", "link field naming the owning entity")
	cmd.Flags().StringVar(&opts.ValueField, "value-field", "", "number field holding the observed value")
	cmd.Flags().StringVar(&opts.DateField, "date-field", "", "date or text field holding the timestamp")
	cmd.Flags().StringVar(&opts.DeltaField, "delta-field", "", "number field receiving the delta")
	cmd.Flags().BoolVar(&opts.SkipIncomplete, "skip-incomplete", false, "skip rows with an empty link or value instead of failing")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute and print deltas without writing them")

	return cmd
}

// deltasConfig merges the job file section with flags; flags set on the
// command line win.
func deltasConfig(cmd *cobra.Command, opts *DeltasOptions, job *config.Job) delta.Config {
	cfg := delta.Config{}
	if job.Deltas != nil {
		cfg = *job.Deltas
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("table", &cfg.Table, opts.Table)
	override("entity-field", &cfg.EntityField, opts.EntityField)
	override("value-field", &cfg.ValueField, opts.ValueField)
	override("date-field", &cfg.DateField, opts.DateField)
	override("delta-field", &cfg.DeltaField, opts.DeltaField)
	if flags.Changed("skip-incomplete") {
		cfg.SkipIncomplete = opts.SkipIncomplete
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = opts.DryRun
	}
	return cfg
}

func runDeltas(opts *DeltasOptions, cmd *cobra.Command) error {
	env, err := newRunEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	cfg := deltasConfig(cmd, opts, env.job)
	if err := config.Struct(cfg); err != nil {
		return WrapExitError(ExitCommandError, "invalid deltas arguments", err)
	}

	st, err := env.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	report, err := delta.Run(ctx, st, cfg,
		delta.WithChunkObserver(env.metrics.ChunkObserver(metrics.RoutineDeltas)),
	)
	env.metrics.ObserveRun(metrics.RoutineDeltas, start)
	if report != nil {
		env.metrics.RecordsLoaded(metrics.RoutineDeltas, report.Records)
	}
	if err != nil {
		if report != nil && !env.out.JSON() {
			out := env.out
			out.Heading("Deltas for %s", report.Table)
			printDeltasSummary(out, report)
			out.Warn("Wrote %d of %d updates in %d chunk(s) before the failure.", report.Written, report.Updates, report.Chunks)
		}
		code := ExitFailure
		if delta.IsLoadError(err) && ctx.Err() == nil {
			code = ExitCommandError
		}
		return env.flushMetrics(WrapExitError(code, "deltas failed", err))
	}

	if env.out.JSON() {
		if err := env.out.Success(report); err != nil {
			return err
		}
		return env.flushMetrics(nil)
	}
	printDeltasReport(env.out, report)
	return env.flushMetrics(nil)
}

func printDeltasReport(out *OutputFormatter, report *delta.Report) {
	out.Heading("Deltas for %s", report.Table)
	if report.DryRun || out.Verbose {
		for _, row := range report.Rows {
			out.Line("  %s  %s  %s  %s  %s",
				row.RecordID, row.EntityID, row.Timestamp,
				strconv.FormatFloat(row.Value, 'f', -1, 64), formatDelta(row.Delta))
		}
	}
	printDeltasSummary(out, report)
	for _, s := range report.Skipped {
		out.Warn("  skipped %s: %s", s.RecordID, s.Reason)
	}
	if report.DryRun {
		out.Dim("Dry run: nothing written.")
		return
	}
	out.Done("Wrote %d updates in %d chunk(s).", report.Written, report.Chunks)
}

func printDeltasSummary(out *OutputFormatter, report *delta.Report) {
	out.Line("  records: %d", report.Records)
	out.Line("  groups:  %d", report.Groups)
	out.Line("  updates: %d", report.Updates)
}

func formatDelta(d *float64) string {
	if d == nil {
		return "-"
	}
	return strconv.FormatFloat(*d, 'f', 2, 64)
}
