// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/witnessreport/witness-report/internal/config"
	"github.com/witnessreport/witness-report/internal/evidence"
	"github.com/witnessreport/witness-report/internal/evidence/feeds"
	"github.com/witnessreport/witness-report/internal/progress"
	"github.com/witnessreport/witness-report/internal/registry"
	"github.com/witnessreport/witness-report/internal/report"
	"github.com/witnessreport/witness-report/internal/template"
)

// MetadataGenerateReport describes the generate_report tool.
var MetadataGenerateReport = &mcp.Tool{
	Name: "generate_report",
	Description: "Generate a forensic expert witness report. For every tagged evidence file of the " +
		"selected tag categories a styled table (file name, path, hash, created, modified and accessed " +
		"times) is inserted under the evidence heading of the template, followed by a caption holding " +
		"the file's comment and, for images, the picture itself. " +
		"Evidence is read from a case manifest (YAML or JSON) or from a directory whose subdirectories " +
		"are tag categories. Items that are not regular files are listed in failed_exports.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"output_dir"},
		"properties": map[string]interface{}{
			"template": map[string]interface{}{
				"type":        "string",
				"description": "Built-in template ID (builtin:1, builtin:2, builtin:3) or path to a docx, docm, dotx or dotm file. Defaults to builtin:1.",
			},
			"heading": map[string]interface{}{
				"type":        "string",
				"description": "Text of the paragraph the tables are inserted under. Must match exactly one paragraph. Defaults to the built-in template's evidence heading.",
			},
			"colour": map[string]interface{}{
				"type":        "string",
				"description": "Key column colour: a palette name such as Navy Blue or a 6 digit hex code.",
			},
			"style": map[string]interface{}{
				"type":        "string",
				"description": "Table style.",
				"enum":        []string{"basic", "extended"},
			},
			"extension": map[string]interface{}{
				"type":        "string",
				"description": "Output file extension.",
				"enum":        report.SupportedExtensions,
			},
			"output_dir": map[string]interface{}{
				"type":        "string",
				"description": "Directory the report is written to as report.<extension>.",
			},
			"categories": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Tag categories to include, in order. Defaults to every category of the evidence.",
			},
			"evidence_path": map[string]interface{}{
				"type":        "string",
				"description": "Path to a case manifest or an evidence directory.",
			},
			"evidence_content": map[string]interface{}{
				"type":        "string",
				"description": "Inline case manifest, used instead of evidence_path.",
			},
			"evidence_format": map[string]interface{}{
				"type":        "string",
				"description": "Format hint for the evidence. If omitted, auto-detection is used.",
				"enum":        []string{"manifest", "yaml", "json", "directory"},
			},
			"hashes": map[string]interface{}{
				"type":        "boolean",
				"description": "Compute MD5 hashes for directory evidence.",
			},
		},
	},
}

// InputGenerateReport is the input for the GenerateReport tool.
type InputGenerateReport struct {
	Template        string   `json:"template"`
	Heading         string   `json:"heading"`
	Colour          string   `json:"colour"`
	Style           string   `json:"style"`
	Extension       string   `json:"extension"`
	OutputDir       string   `json:"output_dir"`
	Categories      []string `json:"categories"`
	EvidencePath    string   `json:"evidence_path"`
	EvidenceContent string   `json:"evidence_content"`
	EvidenceFormat  string   `json:"evidence_format"`
	Hashes          bool     `json:"hashes"`
}

// CategoryOutput counts the tables added for one tag category.
type CategoryOutput struct {
	Name          string `json:"name"`
	TablesCreated int    `json:"tables_created"`
	Error         string `json:"error,omitempty"`
}

// OutputGenerateReport is the output for the GenerateReport tool.
type OutputGenerateReport struct {
	RunID string `json:"run_id"`
	// Path is empty when the run was cancelled.
	Path          string           `json:"path"`
	TablesCreated int              `json:"tables_created"`
	Categories    []CategoryOutput `json:"categories"`
	// FailedExports names the tagged files left out of the report.
	FailedExports []string `json:"failed_exports"`
	Summary       string   `json:"summary,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Registration  string   `json:"registration_error,omitempty"`
	LoaderUsed    string   `json:"loader_used"`
	Cancelled     bool     `json:"cancelled"`
}

// Handlers serves the report tools.
type Handlers struct {
	templates *template.Store
	logger    *slog.Logger
	// registry overrides the per-run reports.yaml index when set.
	registry registry.Registry
}

func NewHandlers(templates *template.Store, logger *slog.Logger, reg registry.Registry) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{templates: templates, logger: logger, registry: reg}
}

// GenerateReport opens the template and the evidence, fills the template
// and writes the report.
func (h *Handlers) GenerateReport(ctx context.Context, _ *mcp.CallToolRequest, input InputGenerateReport) (*mcp.CallToolResult, OutputGenerateReport, error) {
	if input.OutputDir == "" {
		return nil, OutputGenerateReport{}, fmt.Errorf("output_dir is required")
	}
	if input.EvidencePath == "" && input.EvidenceContent == "" {
		return nil, OutputGenerateReport{}, fmt.Errorf("evidence_path or evidence_content is required")
	}

	settings := &config.Settings{
		Template:   input.Template,
		Heading:    input.Heading,
		Colour:     input.Colour,
		Style:      input.Style,
		Extension:  input.Extension,
		OutputDir:  input.OutputDir,
		Categories: input.Categories,
		Evidence: config.Evidence{
			Path:   input.EvidencePath,
			Format: input.EvidenceFormat,
			Hashes: input.Hashes,
		},
	}
	if settings.Template == "" {
		settings.Template = template.BuiltinPrefix + "1"
	}
	if settings.Colour == "" {
		settings.Colour = config.DefaultColour
	}

	tpl, err := h.templates.Open(settings.Template)
	if err != nil {
		return nil, OutputGenerateReport{}, err
	}

	src := settings.Source()
	if input.EvidenceContent != "" {
		src.Content = []byte(input.EvidenceContent)
		src.ID = "inline"
	}
	loaded, err := feeds.DefaultPipeline(input.Hashes, settings.OutputDir).OpenWithMeta(ctx, src)
	if err != nil {
		return nil, OutputGenerateReport{}, fmt.Errorf("%w: %w", report.ErrDataAccess, err)
	}

	categories, err := settings.SelectCategories(ctx, loaded.Feed)
	if err != nil {
		return nil, OutputGenerateReport{}, err
	}
	cfg, err := settings.ReportConfig(tpl, categories)
	if err != nil {
		return nil, OutputGenerateReport{}, err
	}

	reg := h.registry
	if reg == nil {
		if reg, err = settings.Registries(h.logger); err != nil {
			return nil, OutputGenerateReport{}, err
		}
	}

	tracker := progress.New(ctx, h.logger)
	res, err := report.NewGenerator(h.logger, reg).Generate(tracker.Context(), cfg, loaded.Feed, tracker)
	if err != nil {
		return nil, OutputGenerateReport{}, err
	}
	return nil, toOutput(res, loaded), nil
}

func toOutput(res *report.GeneratedReport, loaded evidence.LoadResult) OutputGenerateReport {
	out := OutputGenerateReport{
		RunID:         res.RunID,
		Path:          res.Path,
		TablesCreated: res.TablesCreated,
		Categories:    make([]CategoryOutput, 0, len(res.Categories)),
		FailedExports: make([]string, 0, len(res.FailedExports)),
		Summary:       res.Summary(),
		Warnings:      res.Warnings,
		LoaderUsed:    loaded.LoaderUsed,
		Cancelled:     res.Cancelled,
	}
	for _, c := range res.Categories {
		co := CategoryOutput{Name: c.Name, TablesCreated: c.TablesCreated}
		if c.Err != nil {
			co.Error = c.Err.Error()
		}
		out.Categories = append(out.Categories, co)
	}
	for _, f := range res.FailedExports {
		out.FailedExports = append(out.FailedExports, f.File)
	}
	if res.RegistrationErr != nil {
		out.Registration = res.RegistrationErr.Error()
	}
	return out
}
