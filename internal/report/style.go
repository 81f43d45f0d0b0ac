// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/evidence"
)

const (
	FontFamily = "Calibri"
	FontSize   = 10

	black = "000000"
	white = "ffffff"
)

// readableOnBlack lists the backgrounds that force black text.
var readableOnBlack = []string{"00ffff", "ffff00"}

// Palette maps the selectable table colour names to hex codes.
var Palette = map[string]string{
	"Black":       "000000",
	"Red":         "990000",
	"Orange":      "e68a00",
	"Navy Blue":   "003366",
	"Blue":        "000099",
	"Aqua":        "00ffff",
	"Yellow":      "ffff00",
	"Dark Green":  "009933",
	"Green":       "33cc33",
	"Light Green": "66ff66",
	"Pink":        "ff66ff",
	"Purple":      "6600ff",
}

var hexColour = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// IsHexColour reports whether s is a 6 digit hex colour.
func IsHexColour(s string) bool { return hexColour.MatchString(s) }

// ResolveColour accepts a palette name (case-insensitive) or a 6 digit hex
// code and returns the lower-case hex code.
func ResolveColour(s string) (string, error) {
	s = strings.TrimSpace(s)
	for name, hex := range Palette {
		if strings.EqualFold(name, s) {
			return hex, nil
		}
	}
	s = strings.TrimPrefix(s, "#")
	if IsHexColour(s) {
		return strings.ToLower(s), nil
	}
	return "", fmt.Errorf("unknown colour %q", s)
}

// PaletteNames returns the palette names in alphabetical order.
func PaletteNames() []string {
	names := make([]string, 0, len(Palette))
	for name := range Palette {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FontColourFor returns the font colour used on background: black for the
// reserved light backgrounds, requested otherwise.
func FontColourFor(background, requested string) string {
	for _, light := range readableOnBlack {
		if strings.EqualFold(background, light) {
			return black
		}
	}
	return requested
}

// StyleCell replaces the content of cell with a single styled run of text.
func StyleCell(cell *docx.Cell, background, text, fontColour string, bold, center bool) {
	cell.SetColor(background)
	fontColour = FontColourFor(background, fontColour)

	for len(cell.Paragraphs()) > 0 {
		cell.RemoveParagraph(0)
	}

	p := cell.AddParagraph()
	r := p.AddRun()
	r.FontFamily = FontFamily
	r.FontSize = FontSize
	r.Color = fontColour
	r.Bold = bold
	r.Text = text

	p.SetSpacing(docx.SingleLineSpacing)
	if center {
		p.SetAlignment(docx.AlignCenter)
	}
}

// TableVariant selects how evidence tables are styled.
type TableVariant string

const (
	// VariantBasic styles the key column only.
	VariantBasic TableVariant = "basic"
	// VariantExtended also styles the value column and fixes column widths.
	VariantExtended TableVariant = "extended"
)

// ParseTableVariant maps a variant name to a TableVariant. The empty string
// is basic.
func ParseTableVariant(s string) (TableVariant, error) {
	switch v := TableVariant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantBasic, nil
	case VariantBasic, VariantExtended:
		return v, nil
	}
	return "", fmt.Errorf("unknown table style %q", s)
}

// Column widths of the extended variant, in twentieths of a point.
// Timestamp values get a narrower cell than the other values.
const (
	KeyColumnWidth       = 1*1440 + 85
	ValueColumnWidth     = 5*1440 + 938 - 85
	TimestampColumnWidth = ValueColumnWidth/2 + 720

	// ExhibitTableWidth spans the text width of the built-in templates.
	ExhibitTableWidth = 6*1440 + 938
)

// TableStyle is the styling applied to every evidence table of a run.
type TableStyle struct {
	Background    string
	KeyFontColour string
	Variant       TableVariant
}

// NewTableStyle returns the style for a table colour with white key text.
func NewTableStyle(background string, variant TableVariant) TableStyle {
	return TableStyle{
		Background:    background,
		KeyFontColour: white,
		Variant:       variant,
	}
}

func (s TableStyle) styleRow(row *docx.Row, f evidence.Field) {
	key := row.Cell(0)
	value := row.Cell(1)
	switch s.Variant {
	case VariantExtended:
		StyleCell(key, s.Background, f.Label, s.KeyFontColour, true, true)
		StyleCell(value, white, f.Value, black, false, false)
		key.SetWidth(KeyColumnWidth)
		if f.Timestamp {
			value.SetWidth(TimestampColumnWidth)
		} else {
			value.SetWidth(ValueColumnWidth)
		}
	default:
		StyleCell(key, s.Background, f.Label, s.KeyFontColour, true, false)
		value.SetText(f.Value)
	}
}
