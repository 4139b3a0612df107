package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tabletools/internal/config"
	"github.com/roach88/tabletools/internal/metrics"
	"github.com/roach88/tabletools/internal/store"
)

// runEnv is the per-invocation state shared by the commands: the job file,
// the formatter and the metrics recorder.
type runEnv struct {
	opts    *RootOptions
	job     *config.Job
	out     *OutputFormatter
	metrics *metrics.Recorder
}

func newRunEnv(cmd *cobra.Command, opts *RootOptions) (*runEnv, error) {
	env := &runEnv{
		opts: opts,
		job:  &config.Job{},
		out: &OutputFormatter{
			Format:  opts.Format,
			Writer:  cmd.OutOrStdout(),
			Verbose: opts.Verbose,
		},
		metrics: metrics.New(),
	}
	if opts.ConfigPath != "" {
		job, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load job file", err)
		}
		slog.Debug("job file loaded", "path", opts.ConfigPath)
		env.job = job
	}
	return env, nil
}

// openStore opens the database named by --db, falling back to the job file.
func (e *runEnv) openStore() (*store.Store, error) {
	path := e.opts.Database
	if path == "" {
		path = e.job.Database
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set database in the job file")
	}

	var storeOpts []store.Option
	if e.opts.IDGenerator != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(e.opts.IDGenerator))
	}
	slog.Debug("opening database", "path", path)
	st, err := store.Open(path, storeOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging any error.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// flushMetrics writes the textfile when --metrics-file is set. A failure
// here does not mask the run's own error.
func (e *runEnv) flushMetrics(runErr error) error {
	if e.opts.MetricsFile == "" {
		return runErr
	}
	if err := e.metrics.WriteTextfile(e.opts.MetricsFile); err != nil {
		if runErr != nil {
			slog.Error("failed to write metrics", "error", err)
			return runErr
		}
		return WrapExitError(ExitCommandError, "failed to write metrics", err)
	}
	return runErr
}
