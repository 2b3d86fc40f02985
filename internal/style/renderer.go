// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package style renders a parsed manuscript into a publisher-styled
// document. The renderer is parametric over a template: every size,
// emphasis and spacing value comes from the template's style set, with
// session settings overriding font, margins and line spacing. Each
// rendering step appends one line to the changes log so the caller can
// show exactly what was reformatted.
package style

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/camera-ready/internal/docx"
	"github.com/pdiddy/camera-ready/pkg/types"
)

// superscriptSizePt is the fixed size of author affiliation markers.
const superscriptSizePt = 8

var (
	// headingNumberRe strips manuscript-supplied section numbers so the
	// renderer controls numbering.
	headingNumberRe = regexp.MustCompile(`^\s*\d+\.?\s*`)

	// refNumberRe strips source numbering like "[3] ", "3.", "3)" from
	// reference entries before renumbering.
	refNumberRe = regexp.MustCompile(`^\s*\[?\d+\]?[.)]\s*`)
)

// Document is a rendered manuscript ready to save or stream.
type Document struct {
	w *docx.Writer
}

// SaveDocx writes the document to path. Failure here aborts the render:
// a half-written output file is worse than none.
func (d *Document) SaveDocx(path string) error {
	return d.w.Save(path)
}

// Bytes returns the assembled document archive.
func (d *Document) Bytes() ([]byte, error) {
	return d.w.Bytes()
}

// Renderer applies one template to one parsed manuscript. It is stateful
// per render (figure counter, section counter, changes log); create a new
// one for each document.
type Renderer struct {
	tpl      types.Template
	settings types.Settings

	figures  int
	sections int
	changes  []string
}

// NewRenderer returns a renderer for the given template and session
// settings.
func NewRenderer(tpl types.Template, settings types.Settings) *Renderer {
	return &Renderer{tpl: tpl, settings: settings}
}

// Changes returns the log of formatting steps from the last render.
func (r *Renderer) Changes() []string {
	out := make([]string, len(r.changes))
	copy(out, r.changes)
	return out
}

// FigureCount returns the number of figures placed by the last render.
func (r *Renderer) FigureCount() int {
	return r.figures
}

// Render builds the styled document in a fixed order: page setup, title,
// authors, abstract, keywords, body sections, figures, references. Each
// step runs only when its input is non-empty. Figures are appended after
// the body; a figure whose file cannot be read still gets its caption
// and number so the text's numbering stays stable.
func (r *Renderer) Render(parsed *types.ParsedDocument, images []*types.ProcessedImage) (*Document, error) {
	if parsed == nil {
		return nil, fmt.Errorf("nothing to render: parse the document first")
	}

	r.figures = 0
	r.sections = 0
	r.changes = nil

	w := docx.NewWriter()
	r.setupPage(w)

	if parsed.Title != "" {
		r.addTitle(w, parsed.Title)
	}
	if len(parsed.Authors) > 0 {
		r.addAuthors(w, parsed.Authors)
	}
	if parsed.Abstract.Text != "" {
		r.addAbstract(w, parsed.Abstract.Text)
	}
	if len(parsed.Keywords) > 0 {
		r.addKeywords(w, parsed.Keywords)
	}
	for _, section := range parsed.Sections {
		// The references block is rendered from the extracted entries
		// below, not as body text.
		if section.Type == types.SectionReferences {
			continue
		}
		r.addSection(w, section)
	}
	for _, img := range images {
		if img == nil {
			continue
		}
		r.addFigure(w, img)
	}
	if len(parsed.References) > 0 {
		r.addReferences(w, parsed.References)
	}

	return &Document{w: w}, nil
}

// fontFamily returns the effective typeface: a non-empty settings value
// overrides the template.
func (r *Renderer) fontFamily() string {
	if r.settings.FontFamily != "" {
		return r.settings.FontFamily
	}
	return r.tpl.Styles.FontFamily
}

// margins returns the effective page margins: non-zero settings override
// the template.
func (r *Renderer) margins() types.Margins {
	if r.settings.Margins != (types.Margins{}) {
		return r.settings.Margins
	}
	return r.tpl.Margins
}

// lineSpacing returns the body line spacing multiplier.
func (r *Renderer) lineSpacing() float64 {
	if r.settings.LineSpacing > 0 {
		return r.settings.LineSpacing
	}
	return 1.0
}

func (r *Renderer) setupPage(w *docx.Writer) {
	widthCm, heightCm := r.tpl.PageSize.Dimensions()
	m := r.margins()
	w.SetPage(docx.PageSetup{
		WidthCm:  widthCm,
		HeightCm: heightCm,
		Margins:  m,
		Columns:  r.tpl.Styles.Columns,
	})

	if m.Top == m.Bottom && m.Top == m.Left && m.Top == m.Right {
		r.log("Page margins set to %scm all sides", formatCm(m.Top))
	} else {
		r.log("Page margins set to %scm top, %scm bottom, %scm left, %scm right",
			formatCm(m.Top), formatCm(m.Bottom), formatCm(m.Left), formatCm(m.Right))
	}
}

func (r *Renderer) addTitle(w *docx.Writer, title string) {
	st := r.tpl.Styles.Title
	if st.Uppercase {
		title = strings.ToUpper(title)
	}
	w.AddParagraph(paragraphOptions(st, 0), r.run(title, st))
	r.log("Title formatted (%s)", describeStyle(st))
}

func (r *Renderer) addAuthors(w *docx.Writer, authors []types.Author) {
	st := r.tpl.Styles.Authors
	runs := make([]docx.Run, 0, len(authors)*3)
	for i, author := range authors {
		runs = append(runs, r.run(author.Name, st))
		runs = append(runs, docx.Run{
			Text:        strconv.Itoa(i + 1),
			Font:        r.fontFamily(),
			SizePt:      superscriptSizePt,
			Superscript: true,
		})
		if i < len(authors)-1 {
			runs = append(runs, r.run(", ", st))
		}
	}
	w.AddParagraph(paragraphOptions(st, 0), runs...)
	r.log("Authors formatted with superscript affiliations")
}

func (r *Renderer) addAbstract(w *docx.Writer, text string) {
	st := r.tpl.Styles.Abstract
	leadIn := r.tpl.Styles.AbstractLeadIn
	if leadIn == "" {
		leadIn = "Abstract. "
	}

	// Lead-in is always bold and never italic; the body keeps the
	// template's emphasis.
	prefix := r.run(leadIn, st)
	prefix.Bold = true
	prefix.Italic = false

	w.AddParagraph(paragraphOptions(st, 0), prefix, r.run(text, st))
	r.log("Abstract prefixed with %q (%s)", strings.TrimSpace(leadIn), describeStyle(st))
}

func (r *Renderer) addKeywords(w *docx.Writer, keywords []string) {
	st := r.tpl.Styles.Keywords
	separator := r.tpl.Styles.KeywordSeparator
	if separator == "" {
		separator = " · "
	}

	prefix := r.run("Keywords: ", st)
	prefix.Bold = true
	prefix.Italic = false

	w.AddParagraph(paragraphOptions(st, 0), prefix, r.run(strings.Join(keywords, separator), st))
	r.log("Keywords formatted (%d keywords)", len(keywords))
}

func (r *Renderer) addSection(w *docx.Writer, section types.Section) {
	level := headingLevel(section.Type)
	heading := headingNumberRe.ReplaceAllString(section.Title, "")

	if level == 1 {
		r.sections++
		if r.settings.SectionNumbers {
			heading = fmt.Sprintf("%d %s", r.sections, heading)
		}
	}
	r.addHeading(w, heading, level)

	for _, para := range strings.Split(section.Content, "\n") {
		if para = strings.TrimSpace(para); para != "" {
			r.addBodyParagraph(w, para)
		}
	}
}

func (r *Renderer) addHeading(w *docx.Writer, text string, level int) {
	var st types.Style
	switch level {
	case 1:
		st = r.tpl.Styles.Heading1
	case 2:
		st = r.tpl.Styles.Heading2
	default:
		st = r.tpl.Styles.Heading3
	}
	if st.Uppercase {
		text = strings.ToUpper(text)
	}
	w.AddParagraph(paragraphOptions(st, 0), r.run(text, st))
}

func (r *Renderer) addBodyParagraph(w *docx.Writer, text string) {
	st := r.tpl.Styles.Body
	w.AddParagraph(paragraphOptions(st, r.lineSpacing()), r.run(text, st))
}

// addFigure places one processed image with its numbered caption. The
// number and caption are emitted even when the image file has gone
// missing, keeping figure numbering stable for the surrounding text.
func (r *Renderer) addFigure(w *docx.Writer, img *types.ProcessedImage) {
	r.figures++

	if data, err := os.ReadFile(img.ProcessedPath); err == nil && img.NewWidth > 0 {
		heightCm := img.WidthCm * float64(img.NewHeight) / float64(img.NewWidth)
		opts := docx.ParagraphOptions{Alignment: types.AlignCenter}
		if err := w.AddImage(data, img.WidthCm, heightCm, opts); err != nil {
			// Caption still follows; the reader sees a numbered gap
			// instead of shifted numbers.
			fmt.Fprintf(os.Stderr, "warning: could not embed figure %d: %v\n", r.figures, err)
		}
	}

	caption := img.Caption
	if caption == "" {
		caption = fmt.Sprintf("Description of figure %d", r.figures)
	}

	st := r.tpl.Styles.Caption
	prefix := r.run(fmt.Sprintf("Fig. %d. ", r.figures), st)
	prefix.Bold = true

	w.AddParagraph(paragraphOptions(st, 0), prefix, r.run(caption, st))
	r.log("Figure %d inserted with caption", r.figures)
}

func (r *Renderer) addReferences(w *docx.Writer, references []string) {
	r.addHeading(w, "References", 1)

	st := r.tpl.Styles.Reference
	for i, ref := range references {
		opts := paragraphOptions(st, 0)
		opts.LeftIndentCm = 0.5
		opts.FirstLineIndentCm = -0.5

		clean := refNumberRe.ReplaceAllString(ref, "")
		w.AddParagraph(opts,
			r.run(fmt.Sprintf("[%d] ", i+1), st),
			r.run(clean, st),
		)
	}
	r.log("References formatted: %d items", len(references))
}

// run builds a text run from a style, with the effective font applied.
func (r *Renderer) run(text string, st types.Style) docx.Run {
	return docx.Run{
		Text:   text,
		Font:   r.fontFamily(),
		SizePt: st.SizePt,
		Bold:   st.Bold,
		Italic: st.Italic,
	}
}

func (r *Renderer) log(format string, args ...any) {
	r.changes = append(r.changes, fmt.Sprintf(format, args...))
}

// paragraphOptions maps a style's paragraph-level values; lineSpacing
// zero leaves the document default.
func paragraphOptions(st types.Style, lineSpacing float64) docx.ParagraphOptions {
	return docx.ParagraphOptions{
		Alignment:     st.Alignment,
		SpaceBeforePt: st.SpaceBeforePt,
		SpaceAfterPt:  st.SpaceAfterPt,
		LineSpacing:   lineSpacing,
	}
}

// headingLevel maps a section classification to its heading depth.
// Acknowledgments render as level 2.
func headingLevel(t types.SectionType) int {
	switch t {
	case types.SectionIntroduction, types.SectionRelatedWork, types.SectionMethodology,
		types.SectionResults, types.SectionDiscussion, types.SectionConclusion,
		types.SectionReferences, types.SectionNumbered:
		return 1
	default:
		return 2
	}
}

// describeStyle renders a style as the human-readable descriptor used in
// the changes log, e.g. "14pt, Bold, Center".
func describeStyle(st types.Style) string {
	parts := []string{fmt.Sprintf("%gpt", st.SizePt)}
	if st.Bold {
		parts = append(parts, "Bold")
	}
	if st.Italic {
		parts = append(parts, "Italic")
	}
	if st.Alignment == types.AlignCenter {
		parts = append(parts, "Center")
	}
	return strings.Join(parts, ", ")
}

// formatCm renders a margin value without trailing zeros ("2.5", "1.75").
func formatCm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
