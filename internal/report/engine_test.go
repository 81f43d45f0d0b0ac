// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witnessreport/witness-report/internal/docx"
	"github.com/witnessreport/witness-report/internal/evidence"
)

func documentWith(texts ...string) *docx.Document {
	doc := docx.New()
	for _, text := range texts {
		doc.AppendParagraph(text, "")
	}
	return doc
}

// layout describes the body as paragraph texts, with tables shown by the
// value of their File Name row.
func layout(doc *docx.Document) []string {
	var out []string
	for _, b := range doc.Blocks() {
		switch v := b.(type) {
		case *docx.Paragraph:
			out = append(out, v.Text())
		case *docx.Table:
			out = append(out, "table:"+v.CellTexts()[0][1])
		}
	}
	return out
}

func anchorFor(t *testing.T, doc *docx.Document, heading string) Anchor {
	t.Helper()
	a := Locate(doc.Paragraphs(), heading)
	require.Equal(t, 1, a.MatchCount)
	return a
}

func TestInsertRecord_Order(t *testing.T) {
	doc := documentWith("Intro", "Evidence", "Conclusion")
	anchor := anchorFor(t, doc, "Evidence")
	cur := NewInsertionCursor()
	style := NewTableStyle("003366", VariantBasic)

	_, err := InsertRecord(doc, cur, anchor, evidence.Record{Name: "a.txt", Comment: "first"}, style)
	require.NoError(t, err)
	_, err = InsertRecord(doc, cur, anchor, evidence.Record{Name: "b.txt"}, style)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Intro", "Evidence",
		"table:a.txt", "first", "",
		"table:b.txt", `This table shows information about "b.txt"`, "",
		"Conclusion",
	}, layout(doc))
	assert.Equal(t, 2, cur.Len())
	assert.Equal(t, `This table shows information about "b.txt"`, cur.Trailing().Text())
	assert.Equal(t, "a.txt", cur.Table(0).CellTexts()[0][1])
	assert.Nil(t, cur.Table(2))
}

func TestInsertRecord_FallbackWithoutCaption(t *testing.T) {
	doc := documentWith("Intro", "Evidence", "Conclusion")
	anchor := anchorFor(t, doc, "Evidence")
	cur := NewInsertionCursor()
	style := NewTableStyle("990000", VariantBasic)

	_, err := InsertRecord(doc, cur, anchor, evidence.Record{Name: "a.txt"}, style)
	require.NoError(t, err)
	cur.trailing = nil

	_, err = InsertRecord(doc, cur, anchor, evidence.Record{Name: "b.txt"}, style)
	require.NoError(t, err)

	got := layout(doc)
	assert.Equal(t, "table:a.txt", got[2])
	assert.Equal(t, "table:b.txt", got[5])
	assert.Equal(t, "Conclusion", got[len(got)-1])
}

func TestInsertRecord_RowsAndValues(t *testing.T) {
	doc := documentWith("Evidence")
	cur := NewInsertionCursor()
	rec := evidence.Record{
		Name: "a.txt", Path: "/img/a.txt",
		CreatedAt: "2024-01-01", ModifiedAt: "2024-01-02", AccessedAt: "2024-01-03",
	}

	tbl, err := InsertRecord(doc, cur, anchorFor(t, doc, "Evidence"), rec, NewTableStyle("ffff00", VariantBasic))
	require.NoError(t, err)

	texts := tbl.CellTexts()
	require.Len(t, texts, 6)
	var labels, values []string
	for _, row := range texts {
		require.Len(t, row, 2)
		labels = append(labels, row[0])
		values = append(values, row[1])
	}
	assert.Equal(t, []string{"File Name", "File Path", "Hash Value", "Created time", "Modified time", "Accessed time"}, labels)
	assert.Equal(t, []string{
		"a.txt", "/img/a.txt",
		"Hashes have not been calculated. Please configure and run an appropriate ingest module.",
		"2024-01-01", "2024-01-02", "2024-01-03",
	}, values)

	key := tbl.Row(0).Cell(0)
	assert.Equal(t, "ffff00", key.Color())
	assert.Equal(t, "000000", key.Paragraphs()[0].Runs()[0].Color)
	assert.True(t, key.Paragraphs()[0].Runs()[0].Bold)

	value := tbl.Row(0).Cell(1)
	assert.Empty(t, value.Color())
	assert.Empty(t, value.Paragraphs()[0].Runs()[0].FontFamily)
}

func TestInsertRecord_ExtendedStyle(t *testing.T) {
	doc := documentWith("Evidence")
	tbl, err := InsertRecord(doc, NewInsertionCursor(), anchorFor(t, doc, "Evidence"),
		evidence.Record{Name: "a.txt", Hash: "abc"}, NewTableStyle("003366", VariantExtended))
	require.NoError(t, err)

	for i, row := range tbl.Rows() {
		key, value := row.Cell(0), row.Cell(1)
		assert.Equal(t, KeyColumnWidth, key.Width())
		if i >= 3 {
			assert.Equal(t, TimestampColumnWidth, value.Width(), "row %d", i)
		} else {
			assert.Equal(t, ValueColumnWidth, value.Width(), "row %d", i)
		}
		assert.Equal(t, docx.AlignCenter, key.Paragraphs()[0].Alignment())
		assert.Equal(t, "ffffff", key.Paragraphs()[0].Runs()[0].Color)
		assert.Equal(t, "ffffff", value.Color())
		assert.Equal(t, "000000", value.Paragraphs()[0].Runs()[0].Color)
	}
	assert.Equal(t, 1525, KeyColumnWidth)
	assert.Equal(t, 8053, ValueColumnWidth)
	assert.Equal(t, 4746, TimestampColumnWidth)
	assert.Equal(t, "abc", tbl.CellTexts()[2][1])
}

func TestInsertRecord_EmbedsImageInCaption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20))))

	doc := documentWith("Evidence")
	cur := NewInsertionCursor()
	_, err := InsertRecord(doc, cur, anchorFor(t, doc, "Evidence"),
		evidence.Record{Name: "photo.png", RawContent: buf.Bytes()}, NewTableStyle("003366", VariantBasic))
	require.NoError(t, err)

	runs := cur.Trailing().Runs()
	require.Len(t, runs, 2)
	assert.True(t, runs[0].HasPicture())
	assert.True(t, runs[0].Break)
	assert.Equal(t, `This table shows information about "photo.png"`, runs[1].Text)
}

func TestInsertRecord_BadImageStillInserted(t *testing.T) {
	doc := documentWith("Evidence")
	cur := NewInsertionCursor()
	tbl, err := InsertRecord(doc, cur, anchorFor(t, doc, "Evidence"),
		evidence.Record{Name: "photo.png", RawContent: []byte("not an image")}, NewTableStyle("003366", VariantBasic))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedContent)
	require.NotNil(t, tbl)
	assert.Equal(t, 1, cur.Len())
	assert.Equal(t, []string{"Evidence", "table:photo.png", `This table shows information about "photo.png"`, ""}, layout(doc))
}

func TestInsertRecord_StaleAnchor(t *testing.T) {
	doc := documentWith("Intro", "Evidence")
	anchor := anchorFor(t, doc, "Evidence")
	require.True(t, doc.Remove(anchor.Paragraph))

	_, err := InsertRecord(doc, NewInsertionCursor(), anchor, evidence.Record{Name: "a"}, NewTableStyle("003366", VariantBasic))
	assert.ErrorIs(t, err, ErrDocumentMutation)
	assert.ErrorIs(t, err, docx.ErrBlockNotFound)
}
