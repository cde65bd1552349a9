package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/template"
)

// newNewCommand creates the "new" subcommand that starts a document,
// optionally from a template.
func newNewCommand(opts *Options) *cobra.Command {
	var (
		templatePath string
		outPath      string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a document, optionally from a YAML template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			eng, err := newEngine(opts, logger)
			if err != nil {
				return err
			}
			if templatePath != "" {
				tmpl, err := template.Load(templatePath)
				if err != nil {
					return err
				}
				if err := tmpl.Build(eng); err != nil {
					return err
				}
				logger.Info("template applied", "template", tmpl.Name, "layers", eng.LayerCount())
			}
			return writeDocument(cmd, eng, outPath)
		},
	}

	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "YAML template to build the document from")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the document here instead of stdout")
	return cmd
}
