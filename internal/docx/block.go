// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"bytes"
	"strings"
)

// BlockKind identifies the type of a body block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindTable
	KindOther
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindTable:
		return "table"
	default:
		return "other"
	}
}

// Block is one direct child of the document body. Blocks are compared by
// identity, so a *Paragraph or *Table stays a valid handle while other
// blocks are inserted around it.
type Block interface {
	Kind() BlockKind
	appendXML(buf *bytes.Buffer) error
}

type rawBlock struct {
	name string
	raw  []byte
}

func (b *rawBlock) Kind() BlockKind { return KindOther }

func (b *rawBlock) appendXML(buf *bytes.Buffer) error {
	buf.Write(b.raw)
	return nil
}

// Alignment is a paragraph justification value.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignBoth   Alignment = "both"
)

// Spacing is paragraph spacing in twentieths of a point.
type Spacing struct {
	Before int
	After  int
	Line   int
}

// SingleLineSpacing is single line spacing with no space before or after.
var SingleLineSpacing = Spacing{Before: 0, After: 0, Line: 240}

// Run is a span of text with uniform formatting. FontSize is in points.
type Run struct {
	Text       string
	FontFamily string
	FontSize   int
	Color      string
	Bold       bool
	// Break adds a line break after the run content.
	Break bool

	picture *picture
}

// Paragraph is a body or cell paragraph. Paragraphs loaded from a package
// keep their XML; runs added to them are appended after the existing
// content, while style, alignment and spacing changes only apply to
// paragraphs created by this package.
type Paragraph struct {
	raw  []byte
	text string

	style   string
	align   Alignment
	spacing *Spacing
	runs    []*Run
}

func (p *Paragraph) Kind() BlockKind { return KindParagraph }

// Loaded reports whether the paragraph was read from the package.
func (p *Paragraph) Loaded() bool { return p.raw != nil }

// Text returns the paragraph's plain text.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	sb.WriteString(p.text)
	for _, r := range p.runs {
		sb.WriteString(r.Text)
		if r.Break {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Style returns the paragraph style id set on a new paragraph.
func (p *Paragraph) Style() string { return p.style }

func (p *Paragraph) SetStyle(style string) { p.style = style }

func (p *Paragraph) Alignment() Alignment { return p.align }

func (p *Paragraph) SetAlignment(a Alignment) { p.align = a }

// Spacing returns the explicit spacing of the paragraph, if any.
func (p *Paragraph) Spacing() (Spacing, bool) {
	if p.spacing == nil {
		return Spacing{}, false
	}
	return *p.spacing, true
}

func (p *Paragraph) SetSpacing(s Spacing) { p.spacing = &s }

// AddRun appends an empty run.
func (p *Paragraph) AddRun() *Run {
	r := &Run{}
	p.runs = append(p.runs, r)
	return r
}

// Runs returns the runs added through AddRun.
func (p *Paragraph) Runs() []*Run {
	out := make([]*Run, len(p.runs))
	copy(out, p.runs)
	return out
}

// Cell is a table cell. A new cell holds one empty paragraph.
type Cell struct {
	fill       string
	width      int
	paragraphs []*Paragraph
}

func newCell() *Cell {
	return &Cell{paragraphs: []*Paragraph{{}}}
}

// SetColor sets the cell background as a 6 digit hex colour.
func (c *Cell) SetColor(hex string) { c.fill = hex }

func (c *Cell) Color() string { return c.fill }

// SetWidth sets the preferred cell width in twentieths of a point.
func (c *Cell) SetWidth(twips int) { c.width = twips }

func (c *Cell) Width() int { return c.width }

// Paragraphs returns a snapshot of the cell paragraphs.
func (c *Cell) Paragraphs() []*Paragraph {
	out := make([]*Paragraph, len(c.paragraphs))
	copy(out, c.paragraphs)
	return out
}

// RemoveParagraph removes the paragraph at index i. Later paragraphs shift
// down by one.
func (c *Cell) RemoveParagraph(i int) bool {
	if i < 0 || i >= len(c.paragraphs) {
		return false
	}
	c.paragraphs = append(c.paragraphs[:i], c.paragraphs[i+1:]...)
	return true
}

// AddParagraph appends an empty paragraph to the cell.
func (c *Cell) AddParagraph() *Paragraph {
	p := &Paragraph{}
	c.paragraphs = append(c.paragraphs, p)
	return p
}

// SetText appends text as a new run of the first paragraph.
func (c *Cell) SetText(text string) {
	if len(c.paragraphs) == 0 {
		c.AddParagraph()
	}
	c.paragraphs[0].AddRun().Text = text
}

// Text returns the cell text, one line per paragraph.
func (c *Cell) Text() string {
	lines := make([]string, len(c.paragraphs))
	for i, p := range c.paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

// Row is a table row.
type Row struct {
	cells []*Cell
}

// Cell returns the cell at index i, or nil.
func (r *Row) Cell(i int) *Cell {
	if i < 0 || i >= len(r.cells) {
		return nil
	}
	return r.cells[i]
}

func (r *Row) Cells() []*Cell {
	out := make([]*Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// AddCell appends a new cell to the row.
func (r *Row) AddCell() *Cell {
	c := newCell()
	r.cells = append(r.cells, c)
	return c
}

// Table is a body table. A new table starts with one row of one cell.
// Tables loaded from a package keep their XML and expose their text; only
// their header row and width can be replaced.
type Table struct {
	raw    []byte
	loaded [][]string
	rows   []*Row

	// header replaces the first row of a loaded table when it is written.
	header *Row
	width  int
}

func newTable() *Table {
	return &Table{rows: []*Row{{cells: []*Cell{newCell()}}}}
}

func (t *Table) Kind() BlockKind { return KindTable }

// Loaded reports whether the table was read from the package.
func (t *Table) Loaded() bool { return t.raw != nil }

// Row returns the row at index i, or nil.
func (t *Table) Row(i int) *Row {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i]
}

func (t *Table) Rows() []*Row {
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// CreateRow appends a row with as many cells as the first row. It returns
// nil for loaded tables.
func (t *Table) CreateRow() *Row {
	if t.Loaded() {
		return nil
	}
	n := 1
	if len(t.rows) > 0 && len(t.rows[0].cells) > 0 {
		n = len(t.rows[0].cells)
	}
	r := &Row{}
	for i := 0; i < n; i++ {
		r.AddCell()
	}
	t.rows = append(t.rows, r)
	return r
}

// HeaderRow returns the first row for editing, or nil if the table has no
// rows. For a loaded table the row is a new one holding the loaded header
// text, and it replaces the original first row when the package is written.
func (t *Table) HeaderRow() *Row {
	if !t.Loaded() {
		return t.Row(0)
	}
	if t.header != nil {
		return t.header
	}
	if len(t.loaded) == 0 {
		return nil
	}
	r := &Row{}
	for _, text := range t.loaded[0] {
		c := r.AddCell()
		if text != "" {
			c.SetText(text)
		}
	}
	t.header = r
	return r
}

// SetWidth sets the preferred table width in twentieths of a point.
func (t *Table) SetWidth(twips int) { t.width = twips }

// Width returns the width set with SetWidth, or 0.
func (t *Table) Width() int { return t.width }

// CellTexts returns the text of every cell, one slice per row.
func (t *Table) CellTexts() [][]string {
	if t.Loaded() {
		if t.header == nil || len(t.loaded) == 0 {
			return t.loaded
		}
		out := make([][]string, len(t.loaded))
		copy(out, t.loaded)
		out[0] = rowTexts(t.header)
		return out
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = rowTexts(r)
	}
	return out
}

func rowTexts(r *Row) []string {
	out := make([]string, 0, len(r.cells))
	for _, c := range r.cells {
		out = append(out, c.Text())
	}
	return out
}
