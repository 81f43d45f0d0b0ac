// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Element names carry the w: prefix literally; the main document root binds
// it (checked on load).

type xmlVal struct {
	Val string `xml:"w:val,attr"`
}

type xmlEmpty struct{}

type xmlSpacing struct {
	Before   int    `xml:"w:before,attr"`
	After    int    `xml:"w:after,attr"`
	Line     int    `xml:"w:line,attr"`
	LineRule string `xml:"w:lineRule,attr"`
}

type xmlParaProps struct {
	Style   *xmlVal     `xml:"w:pStyle,omitempty"`
	Spacing *xmlSpacing `xml:"w:spacing,omitempty"`
	Justify *xmlVal     `xml:"w:jc,omitempty"`
}

type xmlFonts struct {
	ASCII string `xml:"w:ascii,attr"`
	HAnsi string `xml:"w:hAnsi,attr"`
	CS    string `xml:"w:cs,attr"`
}

type xmlRunProps struct {
	Fonts  *xmlFonts `xml:"w:rFonts,omitempty"`
	Bold   *xmlEmpty `xml:"w:b,omitempty"`
	Color  *xmlVal   `xml:"w:color,omitempty"`
	Size   *xmlVal   `xml:"w:sz,omitempty"`
	SizeCS *xmlVal   `xml:"w:szCs,omitempty"`
}

type xmlText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlInner struct {
	Inner string `xml:",innerxml"`
}

type xmlRun struct {
	XMLName xml.Name     `xml:"w:r"`
	Props   *xmlRunProps `xml:"w:rPr,omitempty"`
	Drawing *xmlInner    `xml:"w:drawing,omitempty"`
	Text    *xmlText     `xml:"w:t,omitempty"`
	Break   *xmlEmpty    `xml:"w:br,omitempty"`
}

type xmlParagraph struct {
	XMLName xml.Name      `xml:"w:p"`
	Props   *xmlParaProps `xml:"w:pPr,omitempty"`
	Runs    []xmlRun      `xml:"w:r"`
}

type xmlWidth struct {
	W    int    `xml:"w:w,attr"`
	Type string `xml:"w:type,attr"`
}

type xmlBorder struct {
	Val   string `xml:"w:val,attr"`
	Size  int    `xml:"w:sz,attr"`
	Space int    `xml:"w:space,attr"`
	Color string `xml:"w:color,attr"`
}

type xmlBorders struct {
	Top     xmlBorder `xml:"w:top"`
	Left    xmlBorder `xml:"w:left"`
	Bottom  xmlBorder `xml:"w:bottom"`
	Right   xmlBorder `xml:"w:right"`
	InsideH xmlBorder `xml:"w:insideH"`
	InsideV xmlBorder `xml:"w:insideV"`
}

type xmlTableProps struct {
	Width   xmlWidth   `xml:"w:tblW"`
	Borders xmlBorders `xml:"w:tblBorders"`
}

type xmlGridCol struct {
	W int `xml:"w:w,attr"`
}

type xmlShading struct {
	Val   string `xml:"w:val,attr"`
	Color string `xml:"w:color,attr"`
	Fill  string `xml:"w:fill,attr"`
}

type xmlCellProps struct {
	Width   *xmlWidth   `xml:"w:tcW,omitempty"`
	Shading *xmlShading `xml:"w:shd,omitempty"`
}

type xmlCell struct {
	Props      *xmlCellProps  `xml:"w:tcPr,omitempty"`
	Paragraphs []xmlParagraph `xml:"w:p"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"w:tc"`
}

type xmlTable struct {
	XMLName xml.Name      `xml:"w:tbl"`
	Props   xmlTableProps `xml:"w:tblPr"`
	Grid    []xmlGridCol  `xml:"w:tblGrid>w:gridCol"`
	Rows    []xmlRow      `xml:"w:tr"`
}

// defaultTableWidth is the text width used to size columns without an
// explicit cell width.
const defaultTableWidth = 9578

func (r *Run) toXML() xmlRun {
	out := xmlRun{}
	props := &xmlRunProps{}
	used := false
	if r.FontFamily != "" {
		props.Fonts = &xmlFonts{ASCII: r.FontFamily, HAnsi: r.FontFamily, CS: r.FontFamily}
		used = true
	}
	if r.Bold {
		props.Bold = &xmlEmpty{}
		used = true
	}
	if r.Color != "" {
		props.Color = &xmlVal{Val: strings.ToUpper(r.Color)}
		used = true
	}
	if r.FontSize > 0 {
		half := strconv.Itoa(r.FontSize * 2)
		props.Size = &xmlVal{Val: half}
		props.SizeCS = &xmlVal{Val: half}
		used = true
	}
	if used {
		out.Props = props
	}
	if r.picture != nil {
		out.Drawing = &xmlInner{Inner: r.picture.drawingXML()}
	}
	if r.Text != "" || r.picture == nil {
		out.Text = &xmlText{Value: r.Text}
		if strings.TrimSpace(r.Text) != r.Text {
			out.Text.Space = "preserve"
		}
	}
	if r.Break {
		out.Break = &xmlEmpty{}
	}
	return out
}

func (p *Paragraph) toXML() xmlParagraph {
	out := xmlParagraph{}
	props := &xmlParaProps{}
	used := false
	if p.style != "" {
		props.Style = &xmlVal{Val: p.style}
		used = true
	}
	if p.spacing != nil {
		props.Spacing = &xmlSpacing{
			Before:   p.spacing.Before,
			After:    p.spacing.After,
			Line:     p.spacing.Line,
			LineRule: "auto",
		}
		used = true
	}
	if p.align != "" {
		props.Justify = &xmlVal{Val: string(p.align)}
		used = true
	}
	if used {
		out.Props = props
	}
	for _, r := range p.runs {
		out.Runs = append(out.Runs, r.toXML())
	}
	return out
}

func (p *Paragraph) appendXML(buf *bytes.Buffer) error {
	if !p.Loaded() {
		return marshalTo(buf, p.toXML())
	}
	if len(p.runs) == 0 {
		buf.Write(p.raw)
		return nil
	}

	var runs bytes.Buffer
	for _, r := range p.runs {
		if err := marshalTo(&runs, r.toXML()); err != nil {
			return err
		}
	}
	buf.Write(spliceChildren(p.raw, runs.Bytes()))
	return nil
}

// spliceChildren inserts children before the closing tag of the element in
// raw, expanding a self-closing element if needed.
func spliceChildren(raw, children []byte) []byte {
	trimmed := bytes.TrimRight(raw, " \t\r\n")
	var out []byte
	if bytes.HasSuffix(trimmed, []byte("/>")) {
		name := elementName(trimmed)
		out = append(out, trimmed[:len(trimmed)-2]...)
		out = append(out, '>')
		out = append(out, children...)
		out = append(out, "</"+name+">"...)
		return out
	}
	i := bytes.LastIndex(trimmed, []byte("</"))
	if i < 0 {
		return raw
	}
	out = append(out, trimmed[:i]...)
	out = append(out, children...)
	out = append(out, trimmed[i:]...)
	return out
}

func elementName(raw []byte) string {
	s := strings.TrimPrefix(string(raw), "<")
	end := strings.IndexAny(s, " \t\r\n/>")
	if end < 0 {
		return s
	}
	return s[:end]
}

func (t *Table) appendXML(buf *bytes.Buffer) error {
	if !t.Loaded() {
		return marshalTo(buf, t.toXML())
	}
	if t.header == nil && t.width == 0 {
		buf.Write(t.raw)
		return nil
	}
	edited, err := t.editedXML()
	if err != nil {
		return err
	}
	buf.Write(edited)
	return nil
}

type span struct{ start, end int }

// tableSpans locates the parts of a loaded table that can be replaced.
type tableSpans struct {
	width    span
	propsEnd int
	firstRow span
}

func scanTable(raw []byte) (tableSpans, error) {
	var (
		out        tableSpans
		depth      int
		inProps    bool
		widthStart int64
		rowStart   int64 = -1
	)
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 2 && t.Name.Local == "tblPr":
				inProps = true
			case depth == 3 && inProps && t.Name.Local == "tblW":
				widthStart = offset
			case depth == 2 && t.Name.Local == "tr" && rowStart < 0:
				rowStart = offset
			}
		case xml.EndElement:
			switch {
			case depth == 3 && inProps && t.Name.Local == "tblW":
				out.width = span{int(widthStart), int(dec.InputOffset())}
			case depth == 2 && t.Name.Local == "tblPr":
				inProps = false
				// A self-closing tblPr has no closing tag to insert before.
				if bytes.HasPrefix(raw[offset:], []byte("</")) {
					out.propsEnd = int(offset)
				}
			case depth == 2 && t.Name.Local == "tr" && out.firstRow.end == 0:
				out.firstRow = span{int(rowStart), int(dec.InputOffset())}
			}
			depth--
		}
	}
	return out, nil
}

// editedXML is the loaded table XML with the header row and width applied.
func (t *Table) editedXML() ([]byte, error) {
	spans, err := scanTable(t.raw)
	if err != nil {
		return nil, fmt.Errorf("scan table: %w", err)
	}

	type edit struct {
		span
		data []byte
	}
	var edits []edit
	if t.width > 0 {
		w := []byte(fmt.Sprintf(`<w:tblW w:w="%d" w:type="dxa"/>`, t.width))
		switch {
		case spans.width.end > 0:
			edits = append(edits, edit{spans.width, w})
		case spans.propsEnd > 0:
			edits = append(edits, edit{span{spans.propsEnd, spans.propsEnd}, w})
		}
	}
	if t.header != nil && spans.firstRow.end > 0 {
		var row bytes.Buffer
		enc := xml.NewEncoder(&row)
		if err := enc.EncodeElement(t.header.toXML(), xml.StartElement{Name: xml.Name{Local: "w:tr"}}); err != nil {
			return nil, err
		}
		if err := enc.Flush(); err != nil {
			return nil, err
		}
		edits = append(edits, edit{spans.firstRow, row.Bytes()})
	}

	// Table properties always precede the rows, so edits are in order.
	var out []byte
	last := 0
	for _, e := range edits {
		out = append(out, t.raw[last:e.start]...)
		out = append(out, e.data...)
		last = e.end
	}
	return append(out, t.raw[last:]...), nil
}

func (t *Table) toXML() xmlTable {
	cols := 0
	for _, r := range t.rows {
		if len(r.cells) > cols {
			cols = len(r.cells)
		}
	}
	widths := make([]int, cols)
	for _, r := range t.rows {
		for i, c := range r.cells {
			if c.width > widths[i] {
				widths[i] = c.width
			}
		}
	}

	total := 0
	grid := make([]xmlGridCol, cols)
	for i, w := range widths {
		if w == 0 && cols > 0 {
			w = defaultTableWidth / cols
		}
		grid[i] = xmlGridCol{W: w}
		total += w
	}

	if t.width > 0 {
		total = t.width
	}

	border := xmlBorder{Val: "single", Size: 4, Space: 0, Color: "auto"}
	out := xmlTable{
		Props: xmlTableProps{
			Width: xmlWidth{W: total, Type: "dxa"},
			Borders: xmlBorders{
				Top: border, Left: border, Bottom: border, Right: border,
				InsideH: border, InsideV: border,
			},
		},
		Grid: grid,
	}

	for _, r := range t.rows {
		out.Rows = append(out.Rows, r.toXML())
	}
	return out
}

func (r *Row) toXML() xmlRow {
	out := xmlRow{}
	for _, c := range r.cells {
		out.Cells = append(out.Cells, c.toXML())
	}
	return out
}

func (c *Cell) toXML() xmlCell {
	out := xmlCell{}
	if c.width > 0 || c.fill != "" {
		out.Props = &xmlCellProps{}
		if c.width > 0 {
			out.Props.Width = &xmlWidth{W: c.width, Type: "dxa"}
		}
		if c.fill != "" {
			out.Props.Shading = &xmlShading{Val: "clear", Color: "auto", Fill: strings.ToUpper(c.fill)}
		}
	}
	for _, p := range c.paragraphs {
		out.Paragraphs = append(out.Paragraphs, p.toXML())
	}
	// A cell must end with a paragraph.
	if len(out.Paragraphs) == 0 {
		out.Paragraphs = []xmlParagraph{{}}
	}
	return out
}

func marshalTo(buf *bytes.Buffer, v any) error {
	data, err := xml.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}
