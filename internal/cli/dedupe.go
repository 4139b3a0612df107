package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tabletools/internal/config"
	"github.com/roach88/tabletools/internal/dedupe"
	"github.com/roach88/tabletools/internal/metrics"
)

// DedupeOptions holds flags for the dedupe command.
type DedupeOptions struct {
	*RootOptions
	dedupe.Config
	DryRun bool
	Yes    bool
}

// NewDedupeCommand creates the dedupe command.
func NewDedupeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DedupeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Mark rows whose field value occurs more than once",
		Long: `Find values of a field that appear on more than one row and tick a
checkbox field on every one of those rows.

The checkbox is --mark-field if given, else a new field named by
--create-field, else the table's only checkbox field. Without --yes the
command only previews what it would mark.

Example:
  tabletools dedupe --db ./herd.db --table Animals --field Name
  tabletools dedupe --db ./herd.db --table Animals --field Name --create-field Duplicate --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedupe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to search")
	cmd.Flags().StringVar(&opts.Field, "field", "", "field whose values are compared")
	cmd.Flags().StringVar(&opts.MarkField, "mark-field", "", "existing checkbox field to tick")
	cmd.Flags().StringVar(&opts.CreateField, "create-field", "", "create a checkbox field with this name and tick it")
	cmd.Flags().BoolVar(&opts.IgnoreEmpty, "ignore-empty", false, "do not treat empty cells as duplicates of each other")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "only report duplicates")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "write without previewing first")

	return cmd
}

// dedupeConfig merges the job file section with flags; flags set on the
// command line win.
func dedupeConfig(cmd *cobra.Command, opts *DedupeOptions, job *config.Job) dedupe.Config {
	cfg := dedupe.Config{}
	if job.Dedupe != nil {
		cfg = *job.Dedupe
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("table", &cfg.Table, opts.Table)
	override("field", &cfg.Field, opts.Field)
	override("mark-field", &cfg.MarkField, opts.MarkField)
	override("create-field", &cfg.CreateField, opts.CreateField)
	if flags.Changed("ignore-empty") {
		cfg.IgnoreEmpty = opts.IgnoreEmpty
	}
	return cfg
}

func runDedupe(opts *DedupeOptions, cmd *cobra.Command) error {
	env, err := newRunEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	cfg := dedupeConfig(cmd, opts, env.job)
	if err := config.Struct(cfg); err != nil {
		return WrapExitError(ExitCommandError, "invalid dedupe arguments", err)
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

	preview := opts.DryRun || !opts.Yes
	start := time.Now()
	report, err := dedupe.Run(ctx, st, cfg,
		dedupe.WithDryRun(preview),
		dedupe.WithChunkObserver(env.metrics.ChunkObserver(metrics.RoutineDedupe)),
	)
	env.metrics.ObserveRun(metrics.RoutineDedupe, start)
	if report != nil {
		env.metrics.RecordsLoaded(metrics.RoutineDedupe, report.Records)
	}
	if err != nil {
		code := ExitFailure
		if dedupe.IsFieldError(err) {
			code = ExitCommandError
		}
		return env.flushMetrics(WrapExitError(code, "dedupe failed", err))
	}

	if env.out.JSON() {
		if err := env.out.Success(report); err != nil {
			return err
		}
		return env.flushMetrics(nil)
	}
	printDedupeReport(env.out, report, !opts.DryRun && !opts.Yes)
	return env.flushMetrics(nil)
}

func printDedupeReport(out *OutputFormatter, report *dedupe.Report, needsConfirm bool) {
	out.Heading("Duplicates in %s.%s", report.Table, report.Field)
	if len(report.Duplicates) == 0 {
		out.Line("No duplicates found among %d records.", report.Records)
		return
	}
	for _, d := range report.Duplicates {
		value := d.Value
		if value == "" {
			value = "(empty)"
		}
		out.Line("  %s: %d occurrences", value, d.Count())
	}

	switch {
	case needsConfirm:
		out.Warn("About to mark %d records. Re-run with --yes to write.", report.Updates)
	case report.DryRun:
		out.Dim("Dry run: %d records would be marked.", report.Updates)
	default:
		if report.FieldCreated {
			out.Line("Created checkbox field %q.", report.MarkField)
		}
		out.Done("Marked %d records with %q in %d chunk(s).", report.Written, report.MarkField, report.Chunks)
	}
}
