// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/witnessreport/witness-report/internal/report"
	"github.com/witnessreport/witness-report/internal/template"
)

func newTemplatesCommand(root *rootOptions) *cobra.Command {
	var (
		extract      bool
		templatesDir string
	)
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in templates and table colours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			var store *template.Store
			if extract {
				s, err := template.NewStore(templatesDir, root.logger)
				if err != nil {
					return err
				}
				store = s
			}

			for _, b := range template.Builtins() {
				fmt.Fprintf(out, "%-10s %-24s heading %q\n", b.ID, b.Name, b.Heading)
				if store == nil {
					continue
				}
				path, err := store.Extract(b)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-10s extracted to %s\n", "", path)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Colours:")
			for _, name := range report.PaletteNames() {
				fmt.Fprintf(out, "  %-12s #%s\n", name, report.Palette[name])
			}
			fmt.Fprintf(out, "\nExtensions: %s\n", strings.Join(report.SupportedExtensions, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&extract, "extract", false, "write the built-in templates to the templates directory")
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "where built-in templates are extracted")
	return cmd
}
