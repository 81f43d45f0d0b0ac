// SPDX-License-Identifier: Apache-2.0

package template

import (
	"strings"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/report"
)

// BuiltinPrefix marks a reference to one of the built-in templates.
const BuiltinPrefix = "builtin:"

// Builtin describes a report template that ships with the tool.
type Builtin struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	// Heading is the evidence heading the template is laid out around.
	Heading string `json:"heading"`

	outline []line
	// exhibitsAfter is the paragraph the exhibit table follows, if the
	// template has one.
	exhibitsAfter string
}

// exhibitColumns is the header of the exhibit table of templates 1 and 2.
var exhibitColumns = []report.ExhibitColumn{
	{Title: "Item", Center: true},
	{Title: "Serial Number", Center: true},
	{Title: "Description"},
	{Title: "Type", Center: true},
}

// exhibitRows is the number of blank rows under the exhibit table header.
const exhibitRows = 3

type line struct {
	text  string
	style string
}

var builtins = []Builtin{
	{
		ID:       BuiltinPrefix + "1",
		Name:     "Pre-existing Template 1",
		FileName: "template_one.docx",
		Heading:  "Analysis Evidence",
		outline: []line{
			{"Forensic Expert Witness Report", "Title"},
			{"Case Details", "Heading1"},
			{"Case number, examiner and requesting party.", ""},
			{"Instructions", "Heading1"},
			{"Summary of the instructions received.", ""},
			{"Exhibits", "Heading1"},
			{"Analysis", "Heading1"},
			{"Analysis Evidence", "Heading2"},
			{"Findings", "Heading1"},
			{"Declaration", "Heading1"},
			{"I confirm that the facts stated in this report are within my own knowledge.", ""},
		},
		exhibitsAfter: "Exhibits",
	},
	{
		ID:       BuiltinPrefix + "2",
		Name:     "Pre-existing Template 2",
		FileName: "template_two.docx",
		Heading:  "Analysis Evidence",
		outline: []line{
			{"Digital Forensic Examination Report", "Title"},
			{"Introduction", "Heading1"},
			{"Scope of the examination.", ""},
			{"Exhibits Received", "Heading1"},
			{"Methodology", "Heading1"},
			{"Tools and procedures used during the examination.", ""},
			{"Analysis Evidence", "Heading1"},
			{"Conclusion", "Heading1"},
		},
		exhibitsAfter: "Exhibits Received",
	},
	{
		ID:       BuiltinPrefix + "3",
		Name:     "Pre-existing Template 3",
		FileName: "template_three.docx",
		Heading:  "Section 2 - Evidence",
		outline: []line{
			{"Expert Witness Statement", "Title"},
			{"Section 1 - Background", "Heading1"},
			{"Qualifications of the examiner and the background to the case.", ""},
			{"Section 2 - Evidence", "Heading1"},
			{"Section 3 - Opinion", "Heading1"},
			{"Section 4 - Statement of Truth", "Heading1"},
		},
	},
}

// Builtins returns the built-in templates in display order.
func Builtins() []Builtin {
	out := make([]Builtin, len(builtins))
	copy(out, builtins)
	return out
}

// IsBuiltin reports whether ref names a built-in template.
func IsBuiltin(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), BuiltinPrefix)
}

// LookupBuiltin finds a built-in template by ID or display name.
func LookupBuiltin(ref string) (Builtin, bool) {
	ref = strings.TrimSpace(ref)
	for _, b := range builtins {
		if b.ID == ref || strings.EqualFold(b.Name, ref) {
			return b, true
		}
	}
	return Builtin{}, false
}

// Exhibits describes the template's exhibit table, or nil.
func (b Builtin) Exhibits() *report.ExhibitTable {
	if b.exhibitsAfter == "" {
		return nil
	}
	cols := make([]report.ExhibitColumn, len(exhibitColumns))
	copy(cols, exhibitColumns)
	return &report.ExhibitTable{Index: 0, Columns: cols, Width: report.ExhibitTableWidth}
}

// Document builds a fresh copy of the template.
func (b Builtin) Document() *docx.Document {
	doc := docx.New()
	var exhibitsAfter *docx.Paragraph
	for _, l := range b.outline {
		p := doc.AppendParagraph(l.text, l.style)
		if b.exhibitsAfter != "" && l.text == b.exhibitsAfter {
			exhibitsAfter = p
		}
	}
	if exhibitsAfter != nil {
		addExhibitTable(doc, exhibitsAfter)
	}
	return doc
}

// addExhibitTable inserts an empty exhibit list after p. The header carries
// plain titles until a report run styles it.
func addExhibitTable(doc *docx.Document, p *docx.Paragraph) {
	pos, err := doc.CursorAfter(p)
	if err != nil {
		return
	}
	tbl, err := doc.InsertTable(pos)
	if err != nil {
		return
	}
	header := tbl.Row(0)
	for i, col := range exhibitColumns {
		cell := header.Cell(i)
		if cell == nil {
			cell = header.AddCell()
		}
		cell.SetText(col.Title)
	}
	for i := 0; i < exhibitRows; i++ {
		tbl.CreateRow()
	}
	tbl.SetWidth(report.ExhibitTableWidth)
}
