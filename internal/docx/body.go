// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// parseMain splits word/document.xml into the markup before the body
// content, one block per direct child of w:body, and the trailing section
// properties. Offsets come from the decoder so block XML is kept verbatim.
func (d *Document) parseMain(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		depth      int
		bodyStart  = -1
		tailStart  = -1
		blockStart int64
		blockName  string
		boundW     bool
	)

	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1:
				for _, attr := range t.Attr {
					if attr.Name.Space == "xmlns" && attr.Name.Local == "w" && attr.Value == nsMain {
						boundW = true
					}
				}
			case depth == 2 && t.Name.Local == "body":
				bodyStart = int(dec.InputOffset())
			case depth == 3 && bodyStart >= 0 && tailStart < 0:
				if t.Name.Local == "sectPr" {
					tailStart = int(offset)
					break
				}
				blockStart, blockName = offset, t.Name.Local
			}
		case xml.EndElement:
			switch {
			case depth == 3 && bodyStart >= 0 && tailStart < 0:
				raw := data[blockStart:dec.InputOffset()]
				d.blocks = append(d.blocks, loadedBlock(blockName, raw))
			case depth == 2 && t.Name.Local == "body" && tailStart < 0:
				tailStart = int(offset)
			}
			depth--
		}
	}

	if !boundW {
		return ErrUnsupportedNamespace
	}
	if bodyStart < 0 || tailStart < 0 {
		return fmt.Errorf("%w: %s has no body", ErrNotPackage, documentPart)
	}
	d.prefix = data[:bodyStart]
	d.suffix = data[tailStart:]
	return nil
}

func loadedBlock(name string, raw []byte) Block {
	switch name {
	case "p":
		return &Paragraph{raw: raw, text: paragraphText(raw)}
	case "tbl":
		return &Table{raw: raw, loaded: tableText(raw)}
	default:
		return &rawBlock{name: name, raw: raw}
	}
}

// paragraphText concatenates the w:t content of a paragraph, with tabs and
// breaks as whitespace.
func paragraphText(raw []byte) string {
	var (
		sb     strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		}
	}
	return sb.String()
}

// tableText returns the text of each cell of the outermost table, one slice
// per row. Paragraphs inside a cell are joined with newlines; nested tables
// contribute their text to the enclosing cell.
func tableText(raw []byte) [][]string {
	var (
		rows     [][]string
		cell     strings.Builder
		inText   bool
		tblDepth int
		paras    int
	)
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					rows = append(rows, nil)
				}
			case "tc":
				if tblDepth == 1 {
					cell.Reset()
					paras = 0
				}
			case "p":
				if paras > 0 {
					cell.WriteByte('\n')
				}
				paras++
			case "t":
				inText = true
			case "tab":
				cell.WriteByte('\t')
			}
		case xml.CharData:
			if inText {
				cell.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tc":
				if tblDepth == 1 && len(rows) > 0 {
					last := len(rows) - 1
					rows[last] = append(rows[last], cell.String())
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return rows
}

func (d *Document) renderMain() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(d.prefix)
	for _, b := range d.blocks {
		if err := b.appendXML(&buf); err != nil {
			return nil, err
		}
	}
	buf.Write(d.suffix)
	return buf.Bytes(), nil
}
