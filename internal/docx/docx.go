// SPDX-License-Identifier: Apache-2.0

// Package docx holds a WordprocessingML package as an ordered arena of body
// blocks (paragraphs, tables and anything else found directly under
// w:body). Blocks read from the package keep their original XML untouched;
// blocks created through a Cursor are rendered when the package is written.
//
// Only the parts of the format needed to anchor new content in an existing
// template are modelled: body paragraph text, table cell text, new tables,
// new paragraphs and inline pictures.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	documentPart     = "word/document.xml"
	documentRelsPart = "word/_rels/document.xml.rels"
	contentTypesPart = "[Content_Types].xml"

	nsMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

var (
	// ErrNotPackage is returned when the input is not a zip package with a
	// main document part.
	ErrNotPackage = errors.New("docx: not a word processing package")
	// ErrUnsupportedNamespace is returned when the main document does not
	// bind the "w" prefix to the WordprocessingML namespace.
	ErrUnsupportedNamespace = errors.New("docx: main document does not use the w prefix")
	// ErrBlockNotFound is returned when a cursor refers to a block that is not
	// part of the document body.
	ErrBlockNotFound = errors.New("docx: block is not part of the document")
	// ErrUnsupportedImage is returned for pictures that are not PNG, JPEG or GIF.
	ErrUnsupportedImage = errors.New("docx: unsupported image format")
)

type part struct {
	name string
	data []byte
}

// Document is an editable word processing package.
type Document struct {
	parts  []part
	prefix []byte
	suffix []byte
	blocks []Block
	media  []mediaPart
	// mediaBase counts pictures embedded by an earlier run over the same
	// package, keeping relationship ids unique.
	mediaBase int
}

// Open reads the package at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load parses a package from its raw bytes.
func Load(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPackage, err)
	}

	doc := &Document{}
	var main []byte
	for _, f := range zr.File {
		content, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		switch f.Name {
		case documentPart:
			main = content
		case documentRelsPart:
			doc.mediaBase = bytes.Count(content, []byte(`Id="rIdWitnessImage`))
		}
		doc.parts = append(doc.parts, part{name: f.Name, data: content})
	}

	if main == nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNotPackage, documentPart)
	}
	if err := doc.parseMain(main); err != nil {
		return nil, err
	}
	return doc, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Blocks returns a snapshot of the body blocks in document order.
func (d *Document) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Paragraphs returns a snapshot of the body-level paragraphs in document
// order. Paragraphs nested in tables are not included. The returned slice is
// not affected by later insertions.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range d.blocks {
		if p, ok := b.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns a snapshot of the body-level tables in document order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.blocks {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// IndexOf returns the body position of b, or -1.
func (d *Document) IndexOf(b Block) int {
	if b == nil {
		return -1
	}
	for i, blk := range d.blocks {
		if blk == b {
			return i
		}
	}
	return -1
}

// AppendParagraph adds a new paragraph at the end of the body.
func (d *Document) AppendParagraph(text, style string) *Paragraph {
	p := &Paragraph{style: style}
	if text != "" {
		p.AddRun().Text = text
	}
	d.blocks = append(d.blocks, p)
	return p
}

// Write serialises the package.
func (d *Document) Write(w io.Writer) error {
	zw := zip.NewWriter(w)

	hasRels := false
	for _, p := range d.parts {
		data := p.data
		var err error
		switch p.name {
		case documentPart:
			data, err = d.renderMain()
		case documentRelsPart:
			hasRels = true
			data = d.renderRels(p.data)
		case contentTypesPart:
			data = d.renderContentTypes(p.data)
		}
		if err != nil {
			return fmt.Errorf("render %s: %w", p.name, err)
		}
		if err := writeZipFile(zw, p.name, data); err != nil {
			return err
		}
	}

	if !hasRels && len(d.media) > 0 {
		if err := writeZipFile(zw, documentRelsPart, d.renderRels(nil)); err != nil {
			return err
		}
	}
	for _, m := range d.media {
		if err := writeZipFile(zw, "word/"+m.target, m.data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Bytes returns the serialised package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to path through a temporary file in the same
// directory, so an existing file at path is only replaced by a complete
// package. The file keeps the mode of the file it replaces, or gets 0644.
func (d *Document) Save(path string) (err error) {
	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = d.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
