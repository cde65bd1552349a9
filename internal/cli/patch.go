package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// newPatchCommand creates the "patch" subcommand that edits a document
// file in place.
func newPatchCommand(opts *Options) *cobra.Command {
	var (
		outPath     string
		forceString bool
	)
	cmd := &cobra.Command{
		Use:   "patch <document> <path> <value>",
		Short: "Set one value in an exported document",
		Long:  "Patch sets the value at a GJSON path in a document file, then verifies the result still loads as a document before writing it back. Values that parse as JSON are spliced in raw; anything else is written as a string, as is everything under --string.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			docPath, path, value := args[0], args[1], args[2]

			data, err := os.ReadFile(docPath)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			var patched []byte
			if !forceString && gjson.Valid(value) {
				patched, err = sjson.SetRawBytes(data, path, []byte(value))
			} else {
				patched, err = sjson.SetBytes(data, path, value)
			}
			if err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}

			// A patch that breaks the document must not reach disk.
			logger := LoggerFromContext(cmd.Context())
			eng, err := newEngine(opts, logger)
			if err != nil {
				return err
			}
			if err := eng.ImportState(patched); err != nil {
				return fmt.Errorf("patched document rejected: %w", err)
			}

			if outPath == "" {
				outPath = docPath
			}
			return writeOutput(cmd, outPath, patched)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the patched document here instead of back to the input")
	cmd.Flags().BoolVar(&forceString, "string", false, "Treat the value as a plain string even if it parses as JSON")
	return cmd
}
