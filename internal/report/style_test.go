// SPDX-License-Identifier: Apache-2.0

package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/report"
)

func newCell(t *testing.T, extraParagraphs int) *docx.Cell {
	t.Helper()
	doc := docx.New()
	tbl, err := doc.InsertTable(doc.CursorAtStart())
	require.NoError(t, err)
	cell := tbl.Row(0).Cell(0)
	for i := 0; i < extraParagraphs; i++ {
		cell.AddParagraph().AddRun().Text = "old"
	}
	return cell
}

func TestStyleCell(t *testing.T) {
	tests := []struct {
		name       string
		background string
		fontColour string
		bold       bool
		center     bool
		wantColour string
	}{
		{name: "yellow forces black text", background: "ffff00", fontColour: "ffffff", bold: true, wantColour: "000000"},
		{name: "aqua forces black text", background: "00ffff", fontColour: "ffffff", wantColour: "000000"},
		{name: "upper-case aqua forces black text", background: "00FFFF", fontColour: "ffffff", wantColour: "000000"},
		{name: "dark background keeps requested colour", background: "003366", fontColour: "ffffff", center: true, wantColour: "ffffff"},
		{name: "light green is not reserved", background: "66ff66", fontColour: "ffffff", wantColour: "ffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell := newCell(t, 3)
			report.StyleCell(cell, tt.background, "File Name", tt.fontColour, tt.bold, tt.center)

			assert.Equal(t, tt.background, cell.Color())
			paras := cell.Paragraphs()
			require.Len(t, paras, 1)
			runs := paras[0].Runs()
			require.Len(t, runs, 1)

			r := runs[0]
			assert.Equal(t, "File Name", r.Text)
			assert.Equal(t, tt.wantColour, r.Color)
			assert.Equal(t, "Calibri", r.FontFamily)
			assert.Equal(t, 10, r.FontSize)
			assert.Equal(t, tt.bold, r.Bold)

			spacing, ok := paras[0].Spacing()
			require.True(t, ok)
			assert.Equal(t, docx.Spacing{Before: 0, After: 0, Line: 240}, spacing)
			if tt.center {
				assert.Equal(t, docx.AlignCenter, paras[0].Alignment())
			} else {
				assert.Empty(t, paras[0].Alignment())
			}
		})
	}
}

func TestStyleCell_RemovesEveryParagraph(t *testing.T) {
	for extra := 0; extra < 5; extra++ {
		cell := newCell(t, extra)
		report.StyleCell(cell, "990000", "value", "ffffff", false, false)
		assert.Equal(t, "value", cell.Text())
	}
}

func TestResolveColour(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Navy Blue", want: "003366"},
		{in: "navy blue", want: "003366"},
		{in: "Yellow", want: "ffff00"},
		{in: "#E68A00", want: "e68a00"},
		{in: "123abc", want: "123abc"},
		{in: "Magenta", wantErr: true},
		{in: "12345", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := report.ResolveColour(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Len(t, report.PaletteNames(), 12)
}

func TestParseTableVariant(t *testing.T) {
	v, err := report.ParseTableVariant("")
	require.NoError(t, err)
	assert.Equal(t, report.VariantBasic, v)

	v, err = report.ParseTableVariant("Extended")
	require.NoError(t, err)
	assert.Equal(t, report.VariantExtended, v)

	_, err = report.ParseTableVariant("fancy")
	assert.Error(t, err)
}
