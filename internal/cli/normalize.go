package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	Strict      bool
	Fingerprint bool
}

// NormalizeResult is the normalize command's output.
type NormalizeResult struct {
	Expression  json.RawMessage `json:"expression"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Warning     string          `json:"warning,omitempty"`
}

// Text renders the expression, followed by the fingerprint if requested.
func (r NormalizeResult) Text() string {
	var b strings.Builder
	b.Write(r.Expression)
	if r.Fingerprint != "" {
		b.WriteString("\nfingerprint: ")
		b.WriteString(r.Fingerprint)
	}
	return b.String()
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Rewrite an expression in canonical layout",
		Long: `Parse a filter expression and print it back in the layout the
structured editor produces: fixed key order, two-space indent, normalized
connectors and value shapes derived from each operator.

Input that does not decode becomes the empty AND group, as the editor does.
Use --strict to fail instead.

Example:
  filterctl normalize filter.json
  cat filter.json | filterctl normalize --fingerprint`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on input that does not decode")
	cmd.Flags().BoolVar(&opts.Fingerprint, "fingerprint", false, "also print the canonical fingerprint")

	return cmd
}

func runNormalize(opts *NormalizeOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, name, err := readInput(cmd, args)
	if err != nil {
		return failInput(formatter, name, err)
	}

	root, parseErr := filtercodec.ParseResult(string(data))
	result := NormalizeResult{}
	if parseErr != nil {
		if opts.Strict {
			return formatter.Fail(ExitFailure, ErrCodeParse, "expression does not decode", parseErr)
		}
		result.Warning = parseErr.Error()
		opts.logger().Warn("expression does not decode, using empty group", "input", name, "error", parseErr)
	}

	out, err := filtercodec.Marshal(root)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to encode expression", err)
	}
	result.Expression = out

	if opts.Fingerprint {
		fp, err := filtercodec.Fingerprint(root)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to fingerprint expression", err)
		}
		result.Fingerprint = fp
	}

	return formatter.Success(result)
}
