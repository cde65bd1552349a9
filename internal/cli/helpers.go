package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/engine"
	"github.com/dshills/strata/internal/engine/id"
	"github.com/dshills/strata/internal/render/memscene"
)

// newEngine builds an engine from the resolved configuration, backed by
// an in-memory scene.
func newEngine(opts *Options, logger *slog.Logger) (*engine.Engine, error) {
	gen, err := id.FromStrategy(opts.cfg.IDStrategy, opts.cfg.IDPrefix)
	if err != nil {
		return nil, err
	}
	return engine.New(memscene.New(),
		engine.WithHistoryLimit(opts.cfg.HistoryLimit),
		engine.WithIDGenerator(gen),
		engine.WithLogger(logger),
		engine.WithDuplicateOffset(opts.cfg.DuplicateOffset.X, opts.cfg.DuplicateOffset.Y),
		engine.WithPasteOffset(opts.cfg.PasteOffset.X, opts.cfg.PasteOffset.Y),
	)
}

// importDocument loads an exported document file into the engine.
func importDocument(eng *engine.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if err := eng.ImportState(data); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// writeDocument exports the engine state to the given path, or to the
// command's stdout when the path is empty.
func writeDocument(cmd *cobra.Command, eng *engine.Engine, path string) error {
	data, err := eng.ExportState()
	if err != nil {
		return err
	}
	return writeOutput(cmd, path, data)
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
