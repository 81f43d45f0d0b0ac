// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

const (
	relTypeImage = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	// emuPerPixel assumes 96 DPI.
	emuPerPixel = 9525
	// EMUPerInch converts inches to English Metric Units.
	EMUPerInch = 914400

	firstPictureID = 4000
)

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

type mediaPart struct {
	relID  string
	target string
	ext    string
	data   []byte
}

type picture struct {
	id     int
	relID  string
	name   string
	cx, cy int64
}

// AddPicture embeds an image as a new run at the end of p. The image keeps
// its aspect ratio and is scaled down to maxWidth EMU when wider; a
// maxWidth of zero keeps the natural size.
func (d *Document) AddPicture(p *Paragraph, name string, data []byte, maxWidth int64) (*Run, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if _, ok := imageContentTypes[format]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}

	cx := int64(cfg.Width) * emuPerPixel
	cy := int64(cfg.Height) * emuPerPixel
	if maxWidth > 0 && cx > maxWidth {
		cy = cy * maxWidth / cx
		cx = maxWidth
	}

	n := d.mediaBase + len(d.media) + 1
	m := mediaPart{
		relID:  fmt.Sprintf("rIdWitnessImage%d", n),
		target: fmt.Sprintf("media/witness_image%d.%s", n, format),
		ext:    format,
		data:   data,
	}
	d.media = append(d.media, m)

	r := p.AddRun()
	r.picture = &picture{
		id:    firstPictureID + n,
		relID: m.relID,
		name:  name,
		cx:    cx,
		cy:    cy,
	}
	return r, nil
}

// HasPicture reports whether the run holds an embedded image.
func (r *Run) HasPicture() bool { return r.picture != nil }

const drawingFormat = `<wp:inline distT="0" distB="0" distL="0" distR="0" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">` +
	`<wp:extent cx="%[1]d" cy="%[2]d"/>` +
	`<wp:docPr id="%[3]d" name="Picture %[3]d" descr="%[4]s"/>` +
	`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
	`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:nvPicPr><pic:cNvPr id="%[3]d" name="%[4]s"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip xmlns:r="` + nsRels + `" r:embed="%[5]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
	`</pic:pic></a:graphicData></a:graphic></wp:inline>`

func (p *picture) drawingXML() string {
	return fmt.Sprintf(drawingFormat, p.cx, p.cy, p.id, escapeAttr(p.name), p.relID)
}

func escapeAttr(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (d *Document) renderRels(existing []byte) []byte {
	if len(d.media) == 0 {
		return existing
	}
	var rels strings.Builder
	for _, m := range d.media {
		fmt.Fprintf(&rels, `<Relationship Id="%s" Type="%s" Target="%s"/>`, m.relID, relTypeImage, m.target)
	}
	if existing == nil {
		return []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			rels.String() + `</Relationships>`)
	}
	return insertBeforeClose(existing, "</Relationships>", rels.String())
}

func (d *Document) renderContentTypes(existing []byte) []byte {
	lower := strings.ToLower(string(existing))
	var defaults strings.Builder
	seen := map[string]bool{}
	for _, m := range d.media {
		if seen[m.ext] || strings.Contains(lower, `extension="`+m.ext+`"`) {
			continue
		}
		seen[m.ext] = true
		fmt.Fprintf(&defaults, `<Default Extension="%s" ContentType="%s"/>`, m.ext, imageContentTypes[m.ext])
	}
	if defaults.Len() == 0 {
		return existing
	}
	return insertBeforeClose(existing, "</Types>", defaults.String())
}

func insertBeforeClose(data []byte, closeTag, content string) []byte {
	i := bytes.LastIndex(data, []byte(closeTag))
	if i < 0 {
		return data
	}
	out := make([]byte, 0, len(data)+len(content))
	out = append(out, data[:i]...)
	out = append(out, content...)
	out = append(out, data[i:]...)
	return out
}
