package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tabletools/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	Database    string
	ConfigPath  string
	MetricsFile string

	// IDGenerator overrides store id generation (for testing).
	// If nil, the store uses UUIDv7Generator.
	IDGenerator store.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tabletools CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabletools",
		Short: "Batch routines for tabular record stores",
		Long: `tabletools runs record-processing routines against a SQLite table store.

Routines:
  deltas   compute per-entity differences between consecutive observations
  dedupe   tick a checkbox on every row whose field value is duplicated

Arguments can come from flags or from a job file (--config); flags win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "job file (.yaml, .yml or .cue)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the run")

	cmd.AddCommand(NewDeltasCommand(opts))
	cmd.AddCommand(NewDedupeCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// Execute runs the root command with os.Args and returns the process exit
// code. Errors are reported through the output formatter. SIGINT and
// SIGTERM cancel the command's context; a routine stops before its next
// chunk and chunks already written stay written.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return executeContext(ctx, NewRootCommand(), os.Stdout, os.Stderr)
}

func executeContext(ctx context.Context, cmd *cobra.Command, stdout, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if ctx.Err() != nil {
		slog.Warn("interrupted", "error", ctx.Err())
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	verbose, _ := cmd.PersistentFlags().GetBool("verbose")
	w := stderr
	if format == "json" {
		w = stdout
	}
	formatter := &OutputFormatter{Format: format, Writer: w, Verbose: verbose}
	_ = formatter.Error(errorCode(err), err.Error(), errorDetails(err))
	return GetExitCode(err)
}

// setupLogging installs the default slog logger. Debug records are only
// emitted with --verbose.
func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
