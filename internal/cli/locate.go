// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witnessreport/witness-report/internal/report"
	"github.com/witnessreport/witness-report/internal/template"
)

func newLocateCommand(root *rootOptions) *cobra.Command {
	var (
		templateRef  string
		heading      string
		templatesDir string
	)
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Check that a heading matches exactly one paragraph of a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := template.NewStore(templatesDir, root.logger)
			if err != nil {
				return err
			}
			tpl, err := store.Open(templateRef)
			if err != nil {
				return err
			}
			if heading == "" {
				heading = tpl.Heading
			}
			if heading == "" {
				return fmt.Errorf("%w: --heading is required for user templates", report.ErrConfigValidation)
			}

			anchor := report.Locate(tpl.Document.Paragraphs(), heading)
			if err := anchor.Err(heading); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q found at paragraph %d of %s\n", heading, anchor.ParagraphIndex, tpl.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&templateRef, "template", "t", template.BuiltinPrefix+"1", "built-in template ID or template path")
	cmd.Flags().StringVar(&heading, "heading", "", "heading text (defaults to the built-in template's heading)")
	cmd.Flags().StringVar(&templatesDir, "templates-dir", "", "where built-in templates are extracted")
	return cmd
}
