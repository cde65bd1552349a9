// Package cli defines the strata command-line interface.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/config"
	"github.com/dshills/strata/internal/logging"
)

// version is stamped via ldflags at release build time.
var version = "dev"

// Options stores global CLI options shared between commands. The
// resolved configuration is filled in by the root command before any
// subcommand runs.
type Options struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	cfg config.Config
}

// Execute builds the root command, runs it with the provided args and
// logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.New(os.Stderr, slog.LevelInfo, "text")
	}

	rootCmd := newRootCommand(&Options{}, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags
// and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "strata",
		Short:         "strata is a layered document engine",
		Long:          "strata edits layered canvas documents: ordered layers, clip masks, groups, selection, and a bounded undo history. Documents are JSON files produced by export and accepted everywhere a command takes one.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolveConfigPath(opts.ConfigPath))
			if err != nil {
				return err
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			if opts.LogFormat != "" {
				cfg.LogFormat = opts.LogFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg

			logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a strata.toml configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "Log format (text, json, discard)")

	cmd.AddCommand(
		newNewCommand(opts),
		newRunCommand(opts),
		newInspectCommand(opts),
		newPatchCommand(opts),
		newTemplateCommand(opts),
		newViewCommand(opts),
	)

	return cmd
}

// resolveConfigPath falls back to strata.toml in the working directory
// when no path was given and the file exists.
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(config.DefaultFileName); err == nil {
		return config.DefaultFileName
	}
	return ""
}

// loggerKey is a private context key used to store a logger in command
// contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to
// a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.New(os.Stderr, slog.LevelInfo, "text")
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.New(os.Stderr, slog.LevelInfo, "text")
}
