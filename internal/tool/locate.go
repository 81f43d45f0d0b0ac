// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/witnessreport/witness-report/internal/report"
)

// MetadataLocateHeading describes the locate_heading tool.
var MetadataLocateHeading = &mcp.Tool{
	Name: "locate_heading",
	Description: "Check whether a heading can anchor the evidence tables in a template. " +
		"Matching is a case-sensitive substring search over the body paragraphs; a usable heading " +
		"matches exactly one paragraph. Use this before generate_report when working with a custom template.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"template", "heading"},
		"properties": map[string]interface{}{
			"template": map[string]interface{}{
				"type":        "string",
				"description": "Built-in template ID or path to a template document.",
			},
			"heading": map[string]interface{}{
				"type":        "string",
				"description": "Heading text to look for.",
			},
		},
	},
}

// InputLocateHeading is the input for the LocateHeading tool.
type InputLocateHeading struct {
	Template string `json:"template"`
	Heading  string `json:"heading"`
}

// OutputLocateHeading is the output for the LocateHeading tool.
type OutputLocateHeading struct {
	// MatchCount stops counting at 2.
	MatchCount     int    `json:"match_count"`
	ParagraphIndex int    `json:"paragraph_index"`
	ParagraphText  string `json:"paragraph_text,omitempty"`
	Usable         bool   `json:"usable"`
	Problem        string `json:"problem,omitempty"`
}

// LocateHeading runs the anchor search over a template.
func (h *Handlers) LocateHeading(_ context.Context, _ *mcp.CallToolRequest, input InputLocateHeading) (*mcp.CallToolResult, OutputLocateHeading, error) {
	if input.Heading == "" {
		return nil, OutputLocateHeading{}, fmt.Errorf("heading is required")
	}
	tpl, err := h.templates.Open(input.Template)
	if err != nil {
		return nil, OutputLocateHeading{}, err
	}

	anchor := report.Locate(tpl.Document.Paragraphs(), input.Heading)
	out := OutputLocateHeading{
		MatchCount:     anchor.MatchCount,
		ParagraphIndex: anchor.ParagraphIndex,
		Usable:         anchor.MatchCount == 1,
	}
	if anchor.Paragraph != nil {
		out.ParagraphText = anchor.Paragraph.Text()
	}
	if err := anchor.Err(input.Heading); err != nil {
		out.Problem = err.Error()
	}
	return nil, out, nil
}
