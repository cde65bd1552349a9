package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/template"
)

// newTemplateCommand creates the "template" subcommand that validates a
// template file and describes what it would build.
func newTemplateCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template <file.yaml>",
		Short: "Validate a YAML template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := template.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			name := tmpl.Name
			if name == "" {
				name = args[0]
			}
			masks := 0
			for _, l := range tmpl.Layers {
				if l.Mask {
					masks++
				}
			}
			fmt.Fprintf(out, "%s: %d layers", name, len(tmpl.Layers))
			switch masks {
			case 0:
			case 1:
				fmt.Fprint(out, ", 1 mask")
			default:
				fmt.Fprintf(out, ", %d masks", masks)
			}
			if tmpl.Canvas.Width > 0 || tmpl.Canvas.Height > 0 {
				fmt.Fprintf(out, ", canvas %gx%g", tmpl.Canvas.Width, tmpl.Canvas.Height)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	return cmd
}
