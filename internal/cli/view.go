package cli

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/render/termview"
)

// newViewCommand creates the "view" subcommand that opens the
// interactive terminal viewer.
func newViewCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [document]",
		Short: "Open a document in the interactive terminal viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())
			eng, err := newEngine(opts, logger)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := importDocument(eng, args[0]); err != nil {
					return err
				}
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("open terminal: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init terminal: %w", err)
			}
			return termview.New(eng, screen).Run()
		},
	}
	return cmd
}
