// SPDX-License-Identifier: Apache-2.0

package docx_test

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witnessreport/witness-report/internal/docx"
)

const testBody = `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Intro</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Evidence </w:t></w:r><w:r><w:t>Items</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p><w:p><w:r><w:t>b</w:t></w:r></w:p></w:tc>` +
	`<w:tc><w:p><w:r><w:t>c</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
	`<w:p/>` +
	`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`

func buildPackage(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/></Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
			`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
			body + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for _, name := range []string{"[Content_Types].xml", "word/document.xml", "word/_rels/document.xml.rels"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func bodyTexts(doc *docx.Document) []string {
	var out []string
	for _, b := range doc.Blocks() {
		switch v := b.(type) {
		case *docx.Paragraph:
			out = append(out, v.Text())
		case *docx.Table:
			out = append(out, "[table]")
		default:
			out = append(out, "[other]")
		}
	}
	return out
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_BodyBlocks(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, testBody))
	require.NoError(t, err)

	assert.Equal(t, []string{"Intro", "Evidence Items", "[table]", ""}, bodyTexts(doc))

	paras := doc.Paragraphs()
	require.Len(t, paras, 3)
	assert.True(t, paras[0].Loaded())

	tables := doc.Tables()
	require.Len(t, tables, 1)
	assert.True(t, tables[0].Loaded())
	assert.Equal(t, [][]string{{"a\nb", "c"}}, tables[0].CellTexts())
	assert.Nil(t, tables[0].CreateRow())
}

func TestLoad_Errors(t *testing.T) {
	_, err := docx.Load([]byte("not a zip"))
	assert.ErrorIs(t, err, docx.ErrNotPackage)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	_, err = docx.Load(buf.Bytes())
	assert.ErrorIs(t, err, docx.ErrNotPackage)
}

func TestLoad_RoundTripKeepsBlocksVerbatim(t *testing.T) {
	pkg := buildPackage(t, testBody)
	doc, err := docx.Load(pkg)
	require.NoError(t, err)

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, readPart(t, pkg, "word/document.xml"), readPart(t, out, "word/document.xml"))
}

// ---------------------------------------------------------------------------
// Cursor
// ---------------------------------------------------------------------------

func TestCursor_InsertAfterAndAdvance(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, testBody))
	require.NoError(t, err)
	evidence := doc.Paragraphs()[1]

	c, err := doc.CursorAfter(evidence)
	require.NoError(t, err)
	tbl, err := doc.InsertTable(c)
	require.NoError(t, err)
	assert.Same(t, tbl, c.Before())

	caption, err := doc.InsertParagraph(c)
	require.NoError(t, err)
	caption.AddRun().Text = "Caption"

	assert.Equal(t, []string{"Intro", "Evidence Items", "[table]", "Caption", "[table]", ""}, bodyTexts(doc))
	assert.Equal(t, 2, doc.IndexOf(tbl))
}

func TestCursor_ToNextSibling(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, testBody))
	require.NoError(t, err)
	blocks := doc.Blocks()

	c := doc.CursorAtStart()
	assert.Nil(t, c.Before())
	require.True(t, c.ToNextSibling())
	assert.Same(t, blocks[0], c.Before())

	c, err = doc.CursorAfter(blocks[len(blocks)-1])
	require.NoError(t, err)
	assert.False(t, c.ToNextSibling())
	assert.Same(t, blocks[len(blocks)-1], c.Before())
}

func TestCursor_StaleBlock(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, testBody))
	require.NoError(t, err)
	p := doc.Paragraphs()[1]

	c, err := doc.CursorAfter(p)
	require.NoError(t, err)
	require.True(t, doc.Remove(p))

	_, err = doc.InsertTable(c)
	assert.ErrorIs(t, err, docx.ErrBlockNotFound)

	_, err = doc.CursorAfter(p)
	assert.ErrorIs(t, err, docx.ErrBlockNotFound)
}

func TestCursor_ForeignDocument(t *testing.T) {
	a := docx.New()
	b := docx.New()
	_, err := a.InsertParagraph(b.CursorAtStart())
	assert.Error(t, err)
	_, err = a.InsertParagraph(nil)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Tables and cells
// ---------------------------------------------------------------------------

func TestTable_NewTableShape(t *testing.T) {
	doc := docx.New()
	tbl, err := doc.InsertTable(doc.CursorAtStart())
	require.NoError(t, err)

	require.Len(t, tbl.Rows(), 1)
	first := tbl.Row(0)
	require.Len(t, first.Cells(), 1)
	first.AddCell()

	row := tbl.CreateRow()
	require.NotNil(t, row)
	assert.Len(t, row.Cells(), 2)
	assert.Nil(t, tbl.Row(5))
	assert.Nil(t, row.Cell(2))
}

func TestCell_RemoveParagraphs(t *testing.T) {
	doc := docx.New()
	tbl, err := doc.InsertTable(doc.CursorAtStart())
	require.NoError(t, err)
	cell := tbl.Row(0).Cell(0)
	cell.AddParagraph()
	require.Len(t, cell.Paragraphs(), 2)

	for len(cell.Paragraphs()) > 0 {
		require.True(t, cell.RemoveParagraph(0))
	}
	assert.False(t, cell.RemoveParagraph(0))

	cell.SetText("value")
	assert.Equal(t, "value", cell.Text())
}

func TestWrite_RendersNewContent(t *testing.T) {
	doc := docx.New()
	doc.AppendParagraph("Report", "Title")
	tbl, err := doc.InsertTable(doc.CursorAtStart())
	require.NoError(t, err)
	cell := tbl.Row(0).Cell(0)
	cell.SetColor("ffff00")
	cell.SetWidth(1525)
	p := cell.Paragraphs()[0]
	p.SetSpacing(docx.SingleLineSpacing)
	p.SetAlignment(docx.AlignCenter)
	r := p.AddRun()
	r.Text = "Name & more"
	r.FontFamily = "Calibri"
	r.FontSize = 10
	r.Color = "000000"
	r.Bold = true

	out, err := doc.Bytes()
	require.NoError(t, err)
	main := readPart(t, out, "word/document.xml")

	assert.Contains(t, main, `<w:shd w:val="clear" w:color="auto" w:fill="FFFF00"></w:shd>`)
	assert.Contains(t, main, `<w:tcW w:w="1525" w:type="dxa"></w:tcW>`)
	assert.Contains(t, main, `<w:sz w:val="20"></w:sz>`)
	assert.Contains(t, main, `<w:jc w:val="center"></w:jc>`)
	assert.Contains(t, main, `w:line="240"`)
	assert.Contains(t, main, `Name &amp; more`)
	assert.Less(t, strings.Index(main, "<w:tbl>"), strings.Index(main, "Report"))
	assert.True(t, strings.HasSuffix(main, `</w:sectPr></w:body></w:document>`))

	reloaded, err := docx.Load(out)
	require.NoError(t, err)
	require.Len(t, reloaded.Tables(), 1)
	assert.Equal(t, [][]string{{"Name & more"}}, reloaded.Tables()[0].CellTexts())
	assert.Equal(t, "Report", reloaded.Paragraphs()[0].Text())
}

func TestWrite_LoadedParagraphKeepsContentWithAddedRuns(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, testBody))
	require.NoError(t, err)
	last := doc.Paragraphs()[2]
	last.AddRun().Text = "appended"

	out, err := doc.Bytes()
	require.NoError(t, err)
	reloaded, err := docx.Load(out)
	require.NoError(t, err)
	assert.Equal(t, "appended", reloaded.Paragraphs()[2].Text())
	assert.Equal(t, "Intro", reloaded.Paragraphs()[0].Text())
}

// ---------------------------------------------------------------------------
// Pictures
// ---------------------------------------------------------------------------

func TestAddPicture(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, testBody))
	require.NoError(t, err)
	p := doc.Paragraphs()[2]

	r, err := doc.AddPicture(p, "photo.png", testPNG(t, 1200, 600), 6*docx.EMUPerInch)
	require.NoError(t, err)
	assert.True(t, r.HasPicture())

	out, err := doc.Bytes()
	require.NoError(t, err)

	main := readPart(t, out, "word/document.xml")
	assert.Contains(t, main, `<wp:extent cx="5486400" cy="2743200"/>`)
	assert.Contains(t, main, `r:embed="rIdWitnessImage1"`)

	rels := readPart(t, out, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Target="media/witness_image1.png"`)
	assert.Contains(t, readPart(t, out, "[Content_Types].xml"), `<Default Extension="png" ContentType="image/png"/>`)
	assert.NotEmpty(t, readPart(t, out, "word/media/witness_image1.png"))

	// A second pass over the written package keeps relationship ids unique.
	again, err := docx.Load(out)
	require.NoError(t, err)
	_, err = again.AddPicture(again.Paragraphs()[0], "second.png", testPNG(t, 10, 10), 0)
	require.NoError(t, err)
	out2, err := again.Bytes()
	require.NoError(t, err)
	rels2 := readPart(t, out2, "word/_rels/document.xml.rels")
	assert.Contains(t, rels2, `Id="rIdWitnessImage1"`)
	assert.Contains(t, rels2, `Id="rIdWitnessImage2"`)
}

func TestAddPicture_Unsupported(t *testing.T) {
	doc := docx.New()
	p := doc.AppendParagraph("", "")
	_, err := doc.AddPicture(p, "notes.txt", []byte("plain text"), 0)
	assert.ErrorIs(t, err, docx.ErrUnsupportedImage)
	assert.Empty(t, p.Runs())
}

func TestSave_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	doc := docx.New()
	doc.AppendParagraph("hello", "")
	require.NoError(t, doc.Save(path))

	reopened, err := docx.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", reopened.Paragraphs()[0].Text())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_FileMode(t *testing.T) {
	dir := t.TempDir()
	doc := docx.New()
	doc.AppendParagraph("hello", "")

	fresh := filepath.Join(dir, "report.docx")
	require.NoError(t, doc.Save(fresh))
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	existing := filepath.Join(dir, "report.docm")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o600))
	require.NoError(t, os.Chmod(existing, 0o640))
	require.NoError(t, doc.Save(existing))
	info, err = os.Stat(existing)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

// ---------------------------------------------------------------------------
// Loaded table header
// ---------------------------------------------------------------------------

const exhibitBody = `<w:p><w:r><w:t>Exhibits</w:t></w:r></w:p>` +
	`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="dxa"/></w:tblPr>` +
	`<w:tblGrid><w:gridCol w:w="2500"/><w:gridCol w:w="2500"/></w:tblGrid>` +
	`<w:tr><w:tc><w:p><w:r><w:t>Item</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Type</w:t></w:r></w:p></w:tc></w:tr>` +
	`<w:tr><w:tc><w:p><w:r><w:t>1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Laptop</w:t></w:r></w:p></w:tc></w:tr>` +
	`</w:tbl>` +
	`<w:sectPr/>`

func TestTable_LoadedHeaderRow(t *testing.T) {
	doc, err := docx.Load(buildPackage(t, exhibitBody))
	require.NoError(t, err)
	tbl := doc.Tables()[0]

	row := tbl.HeaderRow()
	require.NotNil(t, row)
	require.Len(t, row.Cells(), 2)
	assert.Equal(t, "Item", row.Cell(0).Text())
	assert.Same(t, row, tbl.HeaderRow())

	row.Cell(0).SetColor("003366")
	for len(row.Cell(1).Paragraphs()) > 0 {
		row.Cell(1).RemoveParagraph(0)
	}
	row.Cell(1).AddParagraph().AddRun().Text = "Kind"
	tbl.SetWidth(9578)

	assert.Equal(t, [][]string{{"Item", "Kind"}, {"1", "Laptop"}}, tbl.CellTexts())

	out, err := doc.Bytes()
	require.NoError(t, err)
	main := readPart(t, out, "word/document.xml")
	assert.Contains(t, main, `<w:tblW w:w="9578" w:type="dxa"/>`)
	assert.NotContains(t, main, `w:w="5000"`)
	assert.Contains(t, main, `<w:tblStyle w:val="TableGrid"/>`)
	assert.Contains(t, main, `w:fill="003366"`)
	assert.Contains(t, main, "Kind")
	assert.Contains(t, main, "Laptop")

	reopened, err := docx.Load(out)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Item", "Kind"}, {"1", "Laptop"}}, reopened.Tables()[0].CellTexts())
	assert.Equal(t, []string{"Exhibits", "[table]"}, bodyTexts(reopened)[:2])
}

func TestTable_LoadedWidthWithoutTblW(t *testing.T) {
	body := `<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/></w:tblPr>` +
		`<w:tr><w:tc><w:p/></w:tc></w:tr></w:tbl><w:sectPr/>`
	doc, err := docx.Load(buildPackage(t, body))
	require.NoError(t, err)
	doc.Tables()[0].SetWidth(9578)

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, readPart(t, out, "word/document.xml"),
		`<w:tblStyle w:val="TableGrid"/><w:tblW w:w="9578" w:type="dxa"/></w:tblPr>`)
}

func TestTable_NewTableWidth(t *testing.T) {
	doc := docx.New()
	p := doc.AppendParagraph("Exhibits", "")
	pos, err := doc.CursorAfter(p)
	require.NoError(t, err)
	tbl, err := doc.InsertTable(pos)
	require.NoError(t, err)
	assert.Same(t, tbl.Row(0), tbl.HeaderRow())

	tbl.SetWidth(9578)
	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Contains(t, readPart(t, out, "word/document.xml"), `<w:tblW w:w="9578" w:type="dxa"></w:tblW>`)
}
