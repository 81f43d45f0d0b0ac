// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/witnessreport/witness-report/internal/config"
	"github.com/witnessreport/witness-report/internal/progress"
	"github.com/witnessreport/witness-report/internal/report"
	"github.com/witnessreport/witness-report/internal/template"
)

// reportFlags override settings file values when set on the command line.
type reportFlags struct {
	template       string
	heading        string
	colour         string
	style          string
	extension      string
	outputDir      string
	evidence       string
	evidenceFormat string
	hashes         bool
	categories     []string
	templatesDir   string
}

func (f *reportFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.template, "template", "t", "", "built-in template ID (builtin:1..3) or template path")
	flags.StringVar(&f.heading, "heading", "", "paragraph text the evidence tables are inserted under")
	flags.StringVar(&f.colour, "colour", "", "key column colour: palette name or 6 digit hex code")
	flags.StringVar(&f.style, "style", "", "table style: basic or extended")
	flags.StringVar(&f.extension, "extension", "", "output extension: docx, docm, dotx or dotm")
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "directory the report is written to")
	flags.StringVarP(&f.evidence, "evidence", "e", "", "case manifest or evidence directory")
	flags.StringVar(&f.evidenceFormat, "evidence-format", "", "evidence format hint: manifest, yaml, json or directory")
	flags.BoolVar(&f.hashes, "hashes", false, "compute MD5 hashes for directory evidence")
	flags.StringSliceVar(&f.categories, "category", nil, "tag category to include (repeatable, default all)")
	flags.StringVar(&f.templatesDir, "templates-dir", "", "where built-in templates are extracted")
}

func (f *reportFlags) override(cmd *cobra.Command) func(*config.Settings) {
	changed := cmd.Flags().Changed
	return func(s *config.Settings) {
		if changed("template") {
			s.Template = f.template
		}
		if changed("heading") {
			s.Heading = f.heading
		}
		if changed("colour") {
			s.Colour = f.colour
		}
		if changed("style") {
			s.Style = f.style
		}
		if changed("extension") {
			s.Extension = f.extension
		}
		if changed("output-dir") {
			s.OutputDir = f.outputDir
		}
		if changed("evidence") {
			s.Evidence.Path = f.evidence
		}
		if changed("evidence-format") {
			s.Evidence.Format = f.evidenceFormat
		}
		if changed("hashes") {
			s.Evidence.Hashes = f.hashes
		}
		if changed("category") {
			s.Categories = f.categories
		}
		if changed("templates-dir") {
			s.TemplatesDir = f.templatesDir
		}
	}
}

// generateOnce runs one report for settings and prints the outcome to out.
func generateOnce(ctx context.Context, s *config.Settings, logger *slog.Logger, out io.Writer) (*report.GeneratedReport, error) {
	store, err := template.NewStore(s.TemplatesDir, logger)
	if err != nil {
		return nil, err
	}
	tpl, err := store.Open(s.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", report.ErrConfigValidation, err)
	}
	feed, err := s.OpenFeed(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.SelectCategories(ctx, feed)
	if err != nil {
		return nil, err
	}
	cfg, err := s.ReportConfig(tpl, categories)
	if err != nil {
		return nil, err
	}
	reg, err := s.Registries(logger)
	if err != nil {
		return nil, err
	}

	tracker := progress.New(ctx, logger)
	res, err := report.NewGenerator(logger, reg).Generate(tracker.Context(), cfg, feed, tracker)
	if err != nil {
		return nil, err
	}
	printResult(out, res)
	return res, nil
}

func printResult(out io.Writer, res *report.GeneratedReport) {
	if res.Cancelled {
		fmt.Fprintln(out, "Report generation cancelled; nothing was written.")
		return
	}
	fmt.Fprintf(out, "Wrote %s (%d tables)\n", res.Path, res.TablesCreated)
	for _, c := range res.Categories {
		fmt.Fprintf(out, "  %s: %d\n", c.Name, c.TablesCreated)
	}
	if summary := res.Summary(); summary != "" {
		fmt.Fprintln(out, summary)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if res.RegistrationErr != nil {
		fmt.Fprintf(out, "warning: %v\n", res.RegistrationErr)
	}
}
