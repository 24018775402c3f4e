package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Table     string
	WhereOnly bool
	Limit     int
	Qualify   bool
}

// SQLResult is a compiled statement and its bound parameters.
type SQLResult struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// Text renders the statement and a JSON list of parameters.
func (r SQLResult) Text() string {
	params, err := json.Marshal(r.Params)
	if err != nil {
		params = []byte(fmt.Sprint(r.Params))
	}
	return r.SQL + "\nparams: " + string(params)
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql [file]",
		Short: "Compile an expression to parameterized SQLite SQL",
		Long: `Compile a filter expression to the SQL the preview backend runs.

Values are always bound parameters. The expression must decode; unlike the
editor, sql never falls back to the empty group.

Example:
  filterctl sql filter.json --table audit_event --limit 20
  filterctl sql filter.json --where`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to select from (default from config)")
	cmd.Flags().BoolVar(&opts.WhereOnly, "where", false, "print only the WHERE clause")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row limit for the SELECT (0 for none)")
	cmd.Flags().BoolVar(&opts.Qualify, "qualify", false, "qualify columns with the field's table")

	return cmd
}

func runSQL(opts *SQLOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, name, err := readInput(cmd, args)
	if err != nil {
		return failInput(formatter, name, err)
	}

	root, err := filtercodec.Decode(data)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeParse, "expression does not decode", err)
	}

	compiler := querysql.NewSQLCompiler()
	compiler.QualifyColumns = opts.Qualify

	var result SQLResult
	if opts.WhereOnly {
		result.SQL, result.Params, err = compiler.CompileWhere(root)
	} else {
		table := opts.Table
		if table == "" {
			table = opts.config().Table
		}
		result.SQL, result.Params, err = compiler.CompileSelect(table, root, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeCompile, "expression cannot be compiled", err)
	}
	if result.Params == nil {
		result.Params = []any{}
	}

	opts.logger().Debug("compiled expression", "input", name, "params", len(result.Params))
	return formatter.Success(result)
}
