package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Source string
}

// SavedFilterView is a saved filter as printed by the CLI.
type SavedFilterView struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Seq         int64  `json:"seq"`
	Payload     string `json:"payload,omitempty"`
}

func viewOf(f store.SavedFilter, withPayload bool) SavedFilterView {
	v := SavedFilterView{
		Name:        f.Name,
		Source:      string(f.Source),
		Fingerprint: f.Fingerprint,
		Seq:         f.Seq,
	}
	if withPayload {
		v.Payload = f.Payload
	}
	return v
}

// SaveResult is the save command's output.
type SaveResult struct {
	SavedFilterView
}

// Text renders a one-line confirmation.
func (r SaveResult) Text() string {
	if r.Fingerprint == "" {
		return fmt.Sprintf("saved %q (seq %d, payload does not decode)", r.Name, r.Seq)
	}
	return fmt.Sprintf("saved %q (seq %d, fingerprint %s)", r.Name, r.Seq, shortFingerprint(r.Fingerprint))
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <name> [file]",
		Short: "Store an expression under a name",
		Long: `Store an expression in the database under a name, replacing any
previous version. The payload is kept exactly as given, even if it does not
decode; such payloads are stored without a fingerprint.

Example:
  filterctl save risky-logins filter.json --db filters.db`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source, "source", string(store.SourceTextual), "editor view that produced the payload (structured|textual)")

	return cmd
}

func runSave(opts *SaveOptions, name string, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	source := store.Source(opts.Source)
	if source != store.SourceStructured && source != store.SourceTextual {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid source %q: must be structured or textual", opts.Source), nil)
	}

	data, inputName, err := readInput(cmd, args)
	if err != nil {
		return failInput(formatter, inputName, err)
	}

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	saved, err := st.Save(cmd.Context(), name, string(data), source)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to save filter", err)
	}
	if saved.Fingerprint == "" {
		opts.logger().Warn("saved payload does not decode", "name", name)
	}

	return formatter.Success(SaveResult{viewOf(saved, false)})
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Normalize bool
}

// LoadResult is the load command's output.
type LoadResult struct {
	SavedFilterView
}

// Text renders the payload only, so output can be piped back into other
// commands.
func (r LoadResult) Text() string {
	return r.Payload
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Print a saved expression",
		Long: `Print a saved expression exactly as it was stored.

With --normalize the payload is parsed and printed in canonical layout,
falling back to the empty group when it does not decode.

Example:
  filterctl load risky-logins --db filters.db | filterctl sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "print the payload in canonical layout")

	return cmd
}

func runLoad(opts *LoadOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	saved, err := st.Load(cmd.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("saved filter not found: %s", name), err)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to load filter", err)
	}

	if opts.Normalize {
		root, parseErr := filtercodec.ParseResult(saved.Payload)
		if parseErr != nil {
			opts.logger().Warn("saved payload does not decode, using empty group", "name", name, "error", parseErr)
		}
		saved.Payload = filtercodec.Serialize(root)
	}

	return formatter.Success(LoadResult{viewOf(saved, true)})
}

// ListResult is the list command's output.
type ListResult struct {
	Filters []SavedFilterView `json:"filters"`
}

// Text renders one line per filter in save order.
func (r ListResult) Text() string {
	if len(r.Filters) == 0 {
		return "no saved filters"
	}
	lines := make([]string, 0, len(r.Filters))
	for _, f := range r.Filters {
		fp := shortFingerprint(f.Fingerprint)
		if fp == "" {
			fp = "-"
		}
		lines = append(lines, fmt.Sprintf("%d\t%s\t%s\t%s", f.Seq, f.Name, f.Source, fp))
	}
	return strings.Join(lines, "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var fingerprint string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved expressions",
		Long: `List saved expressions in save order.

With --fingerprint only expressions that decode to the given tree are
listed, however they were spelled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, fingerprint, cmd)
		},
	}

	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "only list filters with this fingerprint")

	return cmd
}

func runList(opts *RootOptions, fingerprint string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore(formatter)
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	var filters []store.SavedFilter
	if fingerprint != "" {
		filters, err = st.FindByFingerprint(cmd.Context(), fingerprint)
	} else {
		filters, err = st.List(cmd.Context())
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to list filters", err)
	}

	result := ListResult{Filters: make([]SavedFilterView, 0, len(filters))}
	for _, f := range filters {
		result.Filters = append(result.Filters, viewOf(f, false))
	}
	return formatter.Success(result)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			st, err := rootOpts.openStore(formatter)
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			err = st.Delete(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("saved filter not found: %s", args[0]), err)
			}
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, "failed to delete filter", err)
			}
			return formatter.Success(fmt.Sprintf("deleted %q", args[0]))
		},
	}
}

// shortFingerprint trims a fingerprint for display.
func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
