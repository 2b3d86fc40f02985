// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// OOXML namespace URIs used by the document part.
const (
	nsMain    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRel     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsDrawing = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsDrawML  = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPicture = "http://schemas.openxmlformats.org/drawingml/2006/picture"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// PageSetup describes the single section of the output document.
type PageSetup struct {
	// WidthCm and HeightCm are the page dimensions in centimeters.
	WidthCm  float64
	HeightCm float64

	// Margins are the page margins in centimeters.
	Margins types.Margins

	// Columns is the body column count; values below 2 mean a single
	// column.
	Columns int
}

// ParagraphOptions set the paragraph-level properties (pPr) of one
// paragraph.
type ParagraphOptions struct {
	// Alignment positions the paragraph; empty means left.
	Alignment types.Alignment

	// SpaceBeforePt and SpaceAfterPt are vertical spacing in points.
	SpaceBeforePt float64
	SpaceAfterPt  float64

	// LineSpacing is a multiple of single spacing; zero leaves the
	// document default in place.
	LineSpacing float64

	// LeftIndentCm shifts the whole paragraph right.
	LeftIndentCm float64

	// FirstLineIndentCm indents the first line relative to LeftIndentCm.
	// A negative value produces a hanging indent.
	FirstLineIndentCm float64
}

// Run is one contiguous span of identically formatted text.
type Run struct {
	Text        string
	Font        string
	SizePt      float64
	Bold        bool
	Italic      bool
	Superscript bool
}

// block is one body-level element: a text paragraph or an inline image
// wrapped in its own paragraph.
type block struct {
	opts  ParagraphOptions
	runs  []Run
	image *imageRef
}

type imageRef struct {
	relID  string
	docID  int
	cxEMU  int64
	cyEMU  int64
	target string
}

type mediaFile struct {
	name string
	data []byte
}

// Writer assembles a minimal valid OOXML package: [Content_Types].xml,
// the package relationships, word/document.xml with its relationships,
// and word/media/* for embedded figures. Blocks render in insertion
// order; the section properties close the body.
type Writer struct {
	page   PageSetup
	blocks []block
	media  []mediaFile
}

// NewWriter returns a Writer with an A4 page, 2.5cm margins and a
// single column. SetPage replaces the defaults.
func NewWriter() *Writer {
	return &Writer{
		page: PageSetup{
			WidthCm:  21.0,
			HeightCm: 29.7,
			Margins:  types.Uniform(2.5),
			Columns:  1,
		},
	}
}

// SetPage replaces the page geometry of the document's single section.
func (w *Writer) SetPage(ps PageSetup) {
	w.page = ps
}

// AddParagraph appends one paragraph composed of the given runs. A
// paragraph with no runs is legal and renders as vertical space.
func (w *Writer) AddParagraph(opts ParagraphOptions, runs ...Run) {
	w.blocks = append(w.blocks, block{opts: opts, runs: runs})
}

// AddImage appends a paragraph holding one inline image, scaled to the
// given size. The data must be PNG-encoded.
func (w *Writer) AddImage(data []byte, widthCm, heightCm float64, opts ParagraphOptions) error {
	if len(data) == 0 {
		return fmt.Errorf("adding image: empty image data")
	}
	if widthCm <= 0 || heightCm <= 0 {
		return fmt.Errorf("adding image: dimensions must be positive, got %.2fx%.2fcm", widthCm, heightCm)
	}

	n := len(w.media) + 1
	name := fmt.Sprintf("image%d.png", n)
	w.media = append(w.media, mediaFile{name: name, data: data})
	w.blocks = append(w.blocks, block{
		opts: opts,
		image: &imageRef{
			relID:  fmt.Sprintf("rId%d", n),
			docID:  n,
			cxEMU:  cmToEMU(widthCm),
			cyEMU:  cmToEMU(heightCm),
			target: "media/" + name,
		},
	})
	return nil
}

// Bytes assembles the package and returns the zip archive contents.
func (w *Writer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(w.contentTypes())},
		{"_rels/.rels", []byte(packageRels)},
		{"word/document.xml", []byte(w.documentXML())},
		{"word/_rels/document.xml.rels", []byte(w.documentRels())},
	}
	for _, m := range w.media {
		parts = append(parts, struct {
			name    string
			content []byte
		}{"word/media/" + m.name, m.data})
	}

	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := f.Write(p.content); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the assembled package to path.
func (w *Writer) Save(path string) error {
	data, err := w.Bytes()
	if err != nil {
		return fmt.Errorf("assembling document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (w *Writer) contentTypes() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	if len(w.media) > 0 {
		b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	}
	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`</Types>`)
	return b.String()
}

const packageRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func (w *Writer) documentRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i, m := range w.media {
		fmt.Fprintf(&b,
			`<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/%s"/>`,
			i+1, m.name)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func (w *Writer) documentXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b,
		`<w:document xmlns:w="%s" xmlns:r="%s" xmlns:wp="%s" xmlns:a="%s" xmlns:pic="%s">`,
		nsMain, nsRel, nsDrawing, nsDrawML, nsPicture)
	b.WriteString(`<w:body>`)
	for _, blk := range w.blocks {
		writeParagraph(&b, blk)
	}
	w.writeSectPr(&b)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, blk block) {
	b.WriteString(`<w:p>`)
	writeParagraphProps(b, blk.opts)
	if blk.image != nil {
		writeImageRun(b, blk.image)
	} else {
		for _, r := range blk.runs {
			writeRun(b, r)
		}
	}
	b.WriteString(`</w:p>`)
}

// writeParagraphProps emits pPr children in schema order: spacing,
// ind, jc.
func writeParagraphProps(b *strings.Builder, opts ParagraphOptions) {
	var props strings.Builder

	if opts.SpaceBeforePt > 0 || opts.SpaceAfterPt > 0 || opts.LineSpacing > 0 {
		props.WriteString(`<w:spacing`)
		if opts.SpaceBeforePt > 0 {
			fmt.Fprintf(&props, ` w:before="%d"`, ptToTwentieths(opts.SpaceBeforePt))
		}
		if opts.SpaceAfterPt > 0 {
			fmt.Fprintf(&props, ` w:after="%d"`, ptToTwentieths(opts.SpaceAfterPt))
		}
		if opts.LineSpacing > 0 {
			fmt.Fprintf(&props, ` w:line="%d" w:lineRule="auto"`, int(math.Round(opts.LineSpacing*240)))
		}
		props.WriteString(`/>`)
	}

	if opts.LeftIndentCm != 0 || opts.FirstLineIndentCm != 0 {
		props.WriteString(`<w:ind`)
		if opts.LeftIndentCm != 0 {
			fmt.Fprintf(&props, ` w:left="%d"`, cmToTwips(opts.LeftIndentCm))
		}
		switch {
		case opts.FirstLineIndentCm < 0:
			fmt.Fprintf(&props, ` w:hanging="%d"`, cmToTwips(-opts.FirstLineIndentCm))
		case opts.FirstLineIndentCm > 0:
			fmt.Fprintf(&props, ` w:firstLine="%d"`, cmToTwips(opts.FirstLineIndentCm))
		}
		props.WriteString(`/>`)
	}

	if val := jcValue(opts.Alignment); val != "" {
		fmt.Fprintf(&props, `<w:jc w:val="%s"/>`, val)
	}

	if props.Len() > 0 {
		b.WriteString(`<w:pPr>`)
		b.WriteString(props.String())
		b.WriteString(`</w:pPr>`)
	}
}

// writeRun emits rPr children in schema order: rFonts, b, i, sz, szCs,
// vertAlign.
func writeRun(b *strings.Builder, r Run) {
	b.WriteString(`<w:r>`)

	var props strings.Builder
	if r.Font != "" {
		font := escapeXML(r.Font)
		fmt.Fprintf(&props, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, font, font, font)
	}
	if r.Bold {
		props.WriteString(`<w:b/>`)
	}
	if r.Italic {
		props.WriteString(`<w:i/>`)
	}
	if r.SizePt > 0 {
		hp := ptToHalfPoints(r.SizePt)
		fmt.Fprintf(&props, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, hp, hp)
	}
	if r.Superscript {
		props.WriteString(`<w:vertAlign w:val="superscript"/>`)
	}
	if props.Len() > 0 {
		b.WriteString(`<w:rPr>`)
		b.WriteString(props.String())
		b.WriteString(`</w:rPr>`)
	}

	fmt.Fprintf(b, `<w:t xml:space="preserve">%s</w:t>`, escapeXML(r.Text))
	b.WriteString(`</w:r>`)
}

func writeImageRun(b *strings.Builder, img *imageRef) {
	name := fmt.Sprintf("Picture %d", img.docID)
	b.WriteString(`<w:r><w:drawing>`)
	b.WriteString(`<wp:inline distT="0" distB="0" distL="0" distR="0">`)
	fmt.Fprintf(b, `<wp:extent cx="%d" cy="%d"/>`, img.cxEMU, img.cyEMU)
	fmt.Fprintf(b, `<wp:docPr id="%d" name="%s"/>`, img.docID, name)
	b.WriteString(`<a:graphic>`)
	b.WriteString(`<a:graphicData uri="` + nsPicture + `">`)
	b.WriteString(`<pic:pic>`)
	fmt.Fprintf(b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, img.docID, name)
	fmt.Fprintf(b, `<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, img.relID)
	b.WriteString(`<pic:spPr><a:xfrm><a:off x="0" y="0"/>`)
	fmt.Fprintf(b, `<a:ext cx="%d" cy="%d"/>`, img.cxEMU, img.cyEMU)
	b.WriteString(`</a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	b.WriteString(`</pic:pic>`)
	b.WriteString(`</a:graphicData></a:graphic>`)
	b.WriteString(`</wp:inline>`)
	b.WriteString(`</w:drawing></w:r>`)
}

// writeSectPr emits the section properties in schema order: pgSz,
// pgMar, cols.
func (w *Writer) writeSectPr(b *strings.Builder) {
	b.WriteString(`<w:sectPr>`)
	fmt.Fprintf(b, `<w:pgSz w:w="%d" w:h="%d"/>`, cmToTwips(w.page.WidthCm), cmToTwips(w.page.HeightCm))
	fmt.Fprintf(b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/>`,
		cmToTwips(w.page.Margins.Top), cmToTwips(w.page.Margins.Right),
		cmToTwips(w.page.Margins.Bottom), cmToTwips(w.page.Margins.Left))
	if w.page.Columns >= 2 {
		fmt.Fprintf(b, `<w:cols w:num="%d" w:space="708"/>`, w.page.Columns)
	}
	b.WriteString(`</w:sectPr>`)
}

func jcValue(a types.Alignment) string {
	switch a {
	case types.AlignCenter:
		return "center"
	case types.AlignRight:
		return "right"
	case types.AlignJustify:
		return "both"
	case types.AlignLeft:
		return "left"
	default:
		return ""
	}
}

// cmToTwips converts centimeters to twentieths of a point (1440 twips
// per inch). A4 at 21x29.7cm comes out at the canonical 11906x16838.
func cmToTwips(cm float64) int {
	return int(math.Round(cm / 2.54 * 1440))
}

// ptToTwentieths converts points to twentieths of a point.
func ptToTwentieths(pt float64) int {
	return int(math.Round(pt * 20))
}

// ptToHalfPoints converts points to the half-point units of w:sz.
func ptToHalfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// cmToEMU converts centimeters to English Metric Units (360000 per cm).
func cmToEMU(cm float64) int64 {
	return int64(math.Round(cm * 360000))
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
