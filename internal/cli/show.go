package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tabletools/internal/table"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Table  string
	Fields []string
}

// ShowRow is one record in JSON output, cells rendered as strings.
type ShowRow struct {
	ID     table.RecordID    `json:"id"`
	Fields map[string]string `json:"fields"`
}

// ShowResult is the JSON output of show --table.
type ShowResult struct {
	Table   string    `json:"table"`
	Columns []string  `json:"columns"`
	Records []ShowRow `json:"records"`
}

// TableSummary is one table in the JSON output of show without --table.
type TableSummary struct {
	ID      table.TableID `json:"id"`
	Name    string        `json:"name"`
	Fields  []table.Field `json:"fields"`
	Records int           `json:"records"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List tables, or print the records of one table",
		Long: `Without --table, list every table with its fields and record count.
With --table, print the table's records, optionally limited to --fields.

Example:
  tabletools show --db ./herd.db
  tabletools show --db ./herd.db --table Weights --fields Animal,Date,Change`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to print")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "fields to print (default all)")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	env, err := newRunEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
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

	if opts.Table == "" {
		return showTables(ctx, env, st)
	}

	schema, err := st.Schema(ctx, opts.Table)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table", err)
	}
	records, err := st.SelectRecords(ctx, opts.Table, opts.Fields)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}

	columns := schema.Fields
	if len(opts.Fields) > 0 {
		columns = columns[:0:0]
		for _, ref := range opts.Fields {
			f, _ := schema.Field(ref)
			columns = append(columns, f)
		}
	}

	if env.out.JSON() {
		result := ShowResult{Table: schema.Name, Columns: make([]string, len(columns)), Records: make([]ShowRow, len(records))}
		for i, f := range columns {
			result.Columns[i] = f.Name
		}
		for i, rec := range records {
			row := ShowRow{ID: rec.ID, Fields: make(map[string]string, len(columns))}
			for _, f := range columns {
				row.Fields[f.Name] = rec.CellValueAsString(f)
			}
			result.Records[i] = row
		}
		return env.out.Success(result)
	}

	w := tabwriter.NewWriter(env.out.Writer, 0, 0, 2, ' ', 0)
	header := []string{"ID"}
	for _, f := range columns {
		header = append(header, f.Name)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, rec := range records {
		cells := []string{string(rec.ID)}
		for _, f := range columns {
			cells = append(cells, rec.CellValueAsString(f))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	env.out.Dim("%d records", len(records))
	return nil
}

type tableLister interface {
	Tables(ctx context.Context) ([]table.Schema, error)
	CountRecords(ctx context.Context, tableRef string) (int, error)
}

func showTables(ctx context.Context, env *runEnv, st tableLister) error {
	schemas, err := st.Tables(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list tables", err)
	}
	summaries := make([]TableSummary, len(schemas))
	for i, s := range schemas {
		n, err := st.CountRecords(ctx, string(s.ID))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count records", err)
		}
		summaries[i] = TableSummary{ID: s.ID, Name: s.Name, Fields: s.Fields, Records: n}
	}

	if env.out.JSON() {
		return env.out.Success(summaries)
	}
	if len(summaries) == 0 {
		env.out.Line("No tables.")
		return nil
	}
	for _, s := range summaries {
		env.out.Heading("%s (%s), %d records", s.Name, s.ID, s.Records)
		for _, f := range s.Fields {
			if f.Type == table.FieldLink {
				env.out.Line("  %s: %s -> %s", f.Name, f.Type, f.LinkedTableID)
				continue
			}
			env.out.Line("  %s: %s", f.Name, f.Type)
		}
	}
	return nil
}
