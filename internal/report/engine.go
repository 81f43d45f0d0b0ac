// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/evidence"
)

// MaxImageWidth is the widest an embedded picture is rendered, in EMU.
const MaxImageWidth = 6 * docx.EMUPerInch

// InsertionCursor carries the insertion position across the records of one
// tag category.
type InsertionCursor struct {
	createdTables []*docx.Table
	// trailing is the caption after the newest table; nil selects the
	// fallback position rule.
	trailing *docx.Paragraph
}

func NewInsertionCursor() *InsertionCursor {
	return &InsertionCursor{}
}

// Tables returns the tables created so far, in insertion order.
func (c *InsertionCursor) Tables() []*docx.Table {
	out := make([]*docx.Table, len(c.createdTables))
	copy(out, c.createdTables)
	return out
}

// Table returns the i-th created table, or nil.
func (c *InsertionCursor) Table(i int) *docx.Table {
	if i < 0 || i >= len(c.createdTables) {
		return nil
	}
	return c.createdTables[i]
}

// Trailing returns the caption paragraph of the newest table, if any.
func (c *InsertionCursor) Trailing() *docx.Paragraph { return c.trailing }

func (c *InsertionCursor) Len() int { return len(c.createdTables) }

// position returns where the next table goes:
//   - right after the anchor paragraph for the first table;
//   - past the spacer that follows the previous caption;
//   - two blocks past the previous table when the caption is missing.
func (c *InsertionCursor) position(doc *docx.Document, anchor *docx.Paragraph) (*docx.Cursor, error) {
	switch {
	case len(c.createdTables) == 0:
		if anchor == nil {
			return nil, fmt.Errorf("no anchor paragraph")
		}
		return doc.CursorAfter(anchor)
	case c.trailing != nil:
		pos, err := doc.CursorAfter(c.trailing)
		if err != nil {
			return nil, err
		}
		pos.ToNextSibling()
		return pos, nil
	default:
		pos, err := doc.CursorAfter(c.createdTables[len(c.createdTables)-1])
		if err != nil {
			return nil, err
		}
		pos.ToNextSibling()
		pos.ToNextSibling()
		return pos, nil
	}
}

// Caption returns the text of the paragraph placed under a record's table.
func Caption(rec evidence.Record) string {
	if rec.Comment != "" {
		return rec.Comment
	}
	return `This table shows information about "` + rec.Name + `"`
}

// InsertRecord adds one styled table for rec to doc, followed by a caption
// paragraph and an empty spacer paragraph, and advances cur.
//
// Failures to create the table or its paragraphs wrap ErrDocumentMutation.
// When only the picture of an image record could not be embedded, the table
// is returned together with an error wrapping ErrUnsupportedContent.
func InsertRecord(doc *docx.Document, cur *InsertionCursor, anchor Anchor, rec evidence.Record, style TableStyle) (*docx.Table, error) {
	pos, err := cur.position(doc, anchor.Paragraph)
	if err != nil {
		return nil, fmt.Errorf("%w: position table for %q: %w", ErrDocumentMutation, rec.Name, err)
	}
	tbl, err := doc.InsertTable(pos)
	if err != nil {
		return nil, fmt.Errorf("%w: insert table for %q: %w", ErrDocumentMutation, rec.Name, err)
	}

	for i, f := range rec.Fields() {
		var row *docx.Row
		if i == 0 {
			row = tbl.Row(0)
			if row != nil {
				row.AddCell()
			}
		} else {
			row = tbl.CreateRow()
		}
		if row == nil || row.Cell(1) == nil {
			return nil, fmt.Errorf("%w: add %q row for %q", ErrDocumentMutation, f.Label, rec.Name)
		}
		style.styleRow(row, f)
	}
	cur.createdTables = append(cur.createdTables, tbl)
	cur.trailing = nil

	captionPos, err := doc.CursorAfter(tbl)
	if err != nil {
		return nil, fmt.Errorf("%w: position caption for %q: %w", ErrDocumentMutation, rec.Name, err)
	}
	caption, err := doc.InsertParagraph(captionPos)
	if err != nil {
		return nil, fmt.Errorf("%w: insert caption for %q: %w", ErrDocumentMutation, rec.Name, err)
	}

	var imageErr error
	if len(rec.RawContent) > 0 {
		run, err := doc.AddPicture(caption, rec.Name, rec.RawContent, MaxImageWidth)
		if err != nil {
			imageErr = fmt.Errorf("%w: embed %q: %w", ErrUnsupportedContent, rec.Name, err)
		} else {
			run.Break = true
		}
	}
	caption.AddRun().Text = Caption(rec)

	spacerPos, err := doc.CursorAfter(tbl)
	if err != nil {
		return nil, fmt.Errorf("%w: position spacer for %q: %w", ErrDocumentMutation, rec.Name, err)
	}
	spacerPos.ToNextSibling()
	spacer, err := doc.InsertParagraph(spacerPos)
	if err != nil {
		return nil, fmt.Errorf("%w: insert spacer for %q: %w", ErrDocumentMutation, rec.Name, err)
	}
	spacer.AddRun()

	cur.trailing = caption
	return tbl, imageErr
}
