package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/script"
)

// newRunCommand creates the "run" subcommand that executes Lua scripts
// against a document.
func newRunCommand(opts *Options) *cobra.Command {
	var (
		docPath string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "run <script.lua> [more scripts...]",
		Short: "Run Lua scripts against a document",
		Long:  "Run executes one or more Lua scripts in order against a document. Scripts drive the engine through the strata module: strata.add_layer, strata.group, strata.undo, and the rest. The resulting document is written when every script has finished.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())
			eng, err := newEngine(opts, logger)
			if err != nil {
				return err
			}
			if docPath != "" {
				if err := importDocument(eng, docPath); err != nil {
					return err
				}
			}

			runner, err := script.New(eng)
			if err != nil {
				return err
			}
			defer runner.Close()

			for _, path := range args {
				logger.Debug("running script", "script", path)
				if err := runner.DoFile(path); err != nil {
					return err
				}
			}
			logger.Info("scripts finished", "scripts", len(args), "layers", eng.LayerCount())
			return writeDocument(cmd, eng, outPath)
		},
	}

	cmd.Flags().StringVarP(&docPath, "doc", "d", "", "Document to load before the scripts run")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the resulting document here instead of stdout")
	return cmd
}
