// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/witnessreport/witness-report/internal/report"
	"github.com/witnessreport/witness-report/internal/template"
)

// MetadataListTemplates describes the list_templates tool.
var MetadataListTemplates = &mcp.Tool{
	Name:        "list_templates",
	Description: "List the built-in report templates with their evidence headings, the table colour palette and the supported output extensions.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

type InputListTemplates struct{}

type TemplateInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Heading string `json:"heading"`
}

type ColourInfo struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// OutputListTemplates is the output for the ListTemplates tool.
type OutputListTemplates struct {
	Templates   []TemplateInfo `json:"templates"`
	Palette     []ColourInfo   `json:"palette"`
	Extensions  []string       `json:"extensions"`
	TemplateDir string         `json:"template_dir"`
}

func (h *Handlers) ListTemplates(_ context.Context, _ *mcp.CallToolRequest, _ InputListTemplates) (*mcp.CallToolResult, OutputListTemplates, error) {
	out := OutputListTemplates{
		Extensions:  report.SupportedExtensions,
		TemplateDir: h.templates.Dir(),
	}
	for _, b := range template.Builtins() {
		out.Templates = append(out.Templates, TemplateInfo{ID: b.ID, Name: b.Name, Heading: b.Heading})
	}
	for _, name := range report.PaletteNames() {
		out.Palette = append(out.Palette, ColourInfo{Name: name, Hex: report.Palette[name]})
	}
	return nil, out, nil
}
