package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/harness"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/metadata"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/store"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	SaveAs string
}

// EditResult is the edit command's output.
type EditResult struct {
	Script    string               `json:"script"`
	Mode      string               `json:"mode"`
	Submitted string               `json:"submitted"`
	Trace     []harness.TraceEvent `json:"trace"`
	SavedSeq  int64                `json:"saved_seq,omitempty"`
}

// Text renders the submitted payload.
func (r EditResult) Text() string {
	return r.Submitted
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <script.yaml>",
		Short: "Run an editing script through a filter session",
		Long: `Replay a YAML editing script through the structured/textual editing
session and print what the session would submit.

The catalog comes from --catalog, else from the script's catalog key.
With --save the submitted payload is stored under the given name.

Example:
  filterctl edit risky_logins.yaml
  filterctl edit risky_logins.yaml --db filters.db --save risky-logins`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SaveAs, "save", "", "save the submitted payload under this name")

	return cmd
}

func runEdit(opts *EditOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	script, err := harness.LoadScript(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeScript, "failed to load script", err)
	}

	var catalog metadata.Provider
	if opts.Catalog != "" {
		catalog, err = opts.loadCatalog()
	} else {
		catalog, err = script.LoadCatalog()
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}

	formatter.VerboseLog("Running %d step(s) from %s", len(script.Steps), path)
	result, err := harness.Run(script, catalog, harness.WithLogger(opts.logger()))
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeScript, "failed to run script", err)
	}
	if !result.Pass {
		return formatter.Fail(ExitFailure, ErrCodeScript,
			fmt.Sprintf("script %s failed", script.Name),
			errors.New(strings.Join(result.Errors, "; ")))
	}

	out := EditResult{
		Script:    script.Name,
		Mode:      result.Mode,
		Submitted: result.Submitted,
		Trace:     result.Trace,
	}

	if opts.SaveAs != "" {
		st, err := opts.openStore(formatter)
		if err != nil {
			return err
		}
		defer opts.closeStore(st)

		saved, err := st.Save(cmd.Context(), opts.SaveAs, result.Submitted, store.Source(result.Mode))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to save filter", err)
		}
		out.SavedSeq = saved.Seq
		opts.logger().Info("filter saved", "name", saved.Name, "seq", saved.Seq, "fingerprint", saved.Fingerprint)
	}

	return formatter.Success(out)
}
