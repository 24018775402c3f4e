package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Catalog    string
	Database   string

	// Config holds the merged configuration once PersistentPreRunE has run.
	Config *config.Config

	// Logger is set up in PersistentPreRunE and writes to stderr.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the filterctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "filterctl",
		Short: "filterctl - audit filter expression tool",
		Long: `Build, normalize, store and preview audit filter expressions.

A filter expression is a tree of AND/OR groups over field conditions, stored
as JSON. filterctl edits expressions through the same structured/textual
session the console uses, compiles them to SQL and runs previews against a
local SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.applyConfig(cmd); err != nil {
				return err
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "metadata catalog file (.yaml, .cue, .json)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	// Add subcommands
	cmd.AddCommand(NewNormalizeCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewPreviewCommand(opts))

	return cmd
}

// applyConfig loads --config, if given, and fills every global flag the
// user did not set explicitly.
func (o *RootOptions) applyConfig(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	o.Config = cfg

	flags := cmd.Flags()
	if !flags.Changed("format") && cfg.Format != "" {
		o.Format = cfg.Format
	}
	if !flags.Changed("catalog") {
		o.Catalog = cfg.Catalog
	}
	if !flags.Changed("db") {
		o.Database = cfg.Database
	}
	return nil
}

// newLogger builds the stderr text logger. Debug output needs --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// formatter creates the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// logger returns the configured logger, or one that discards output when
// a command is run without the root command.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// config returns the merged configuration, or the defaults when a command
// is run without the root command.
func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}
