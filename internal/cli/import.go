package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tabletools/internal/fixture"
	"github.com/roach88/tabletools/internal/metrics"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Create tables and records from a YAML fixture",
		Long: `Create the tables, fields and records described in a YAML fixture.

Link cells name records of the linked table by the value of its first
field. Records are written in chunks of 50.

Example:
  tabletools import --db ./herd.db herd.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	env, err := newRunEnv(cmd, opts)
	if err != nil {
		return err
	}

	fx, err := fixture.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
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
	result, err := fixture.Apply(ctx, st, fx,
		fixture.WithChunkObserver(env.metrics.ChunkObserver(metrics.RoutineImport)))
	env.metrics.ObserveRun(metrics.RoutineImport, start)
	if err != nil {
		return env.flushMetrics(WrapExitError(ExitFailure, "import failed", err))
	}

	if env.out.JSON() {
		if err := env.out.Success(result); err != nil {
			return err
		}
		return env.flushMetrics(nil)
	}
	for _, t := range result.Tables {
		env.out.Line("%s (%s): %d fields, %d records", t.Name, t.ID, t.Fields, t.Records)
	}
	env.out.Done("Imported %d records into %d table(s).", result.Records(), len(result.Tables))
	return env.flushMetrics(nil)
}
