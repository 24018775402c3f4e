package cli

import (
	"bytes"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/querysql"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/store"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Table string
	Limit int
	Name  string
	Seed  string
}

// PreviewOutput is the preview command's output.
type PreviewOutput struct {
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Text renders a tab-aligned table with a header row.
func (r PreviewOutput) Text() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	for i, c := range r.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
	for _, row := range r.Rows {
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			if v == nil {
				v = "NULL"
			}
			fmt.Fprint(w, v)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	fmt.Fprintf(&buf, "(%d rows)", len(r.Rows))
	return buf.String()
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Run an expression against a table",
		Long: `Run an expression against a table in the database and print the
matching rows in rowid order.

The expression comes from a file, stdin, or a saved filter (--name). It must
decode.

--seed runs a SQL script against the database first, which is how event
fixtures are loaded.

Example:
  filterctl preview filter.json --db events.db --table audit_event
  filterctl preview --name risky-logins --db events.db --limit 10
  filterctl preview filter.json --db events.db --seed events.sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to preview (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum rows (default from config, 0 for no limit)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "preview a saved filter instead of a file")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "SQL script to run before the preview")

	return cmd
}

func runPreview(opts *PreviewOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Name != "" && len(args) > 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "give either a file or --name, not both", nil)
	}

	cfg := opts.config()
	table := opts.Table
	if table == "" {
		table = cfg.Table
	}
	limit := opts.Limit
	if limit < 0 {
		limit = cfg.Limit
	}

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	if opts.Seed != "" {
		script, name, err := readInput(cmd, []string{opts.Seed})
		if err != nil {
			return failInput(formatter, name, err)
		}
		if err := st.Exec(ctx, string(script)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to run seed script %s", name), err)
		}
		opts.logger().Debug("seed script applied", "path", name, "bytes", len(script))
	}

	var payload []byte
	if opts.Name != "" {
		saved, err := st.Load(ctx, opts.Name)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("saved filter not found: %s", opts.Name), err)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to load filter", err)
		}
		payload = []byte(saved.Payload)
	} else {
		data, name, err := readInput(cmd, args)
		if err != nil {
			return failInput(formatter, name, err)
		}
		payload = data
	}

	root, err := filtercodec.Decode(payload)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeParse, "expression does not decode", err)
	}
	groups, conditions := filter.Count(root)
	opts.logger().Debug("running preview", "table", table, "limit", limit, "groups", groups, "conditions", conditions)

	res, err := st.Preview(ctx, table, root, limit)
	var compileErr *querysql.CompileError
	if errors.As(err, &compileErr) {
		return formatter.Fail(ExitFailure, ErrCodeCompile, "expression cannot be compiled", err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "preview failed", err)
	}

	return formatter.Success(PreviewOutput{SQL: res.SQL, Columns: res.Columns, Rows: res.Rows})
}
