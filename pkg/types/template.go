// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Alignment positions a paragraph on the page.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// Style holds the typographic parameters for one document element.
type Style struct {
	// SizePt is the font size in points.
	SizePt float64 `json:"size_pt" yaml:"size_pt"`

	// Bold and Italic select the run emphasis.
	Bold   bool `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic bool `json:"italic,omitempty" yaml:"italic,omitempty"`

	// Alignment positions the paragraph; empty means left.
	Alignment Alignment `json:"alignment,omitempty" yaml:"alignment,omitempty"`

	// SpaceBeforePt and SpaceAfterPt are vertical paragraph spacing in points.
	SpaceBeforePt float64 `json:"space_before_pt,omitempty" yaml:"space_before_pt,omitempty"`
	SpaceAfterPt  float64 `json:"space_after_pt,omitempty" yaml:"space_after_pt,omitempty"`

	// Uppercase transforms the text to upper case before rendering
	// (used by layouts with capitalized level-1 headings).
	Uppercase bool `json:"uppercase,omitempty" yaml:"uppercase,omitempty"`
}

// StyleSet groups the per-element styles of one template.
type StyleSet struct {
	// FontFamily is the template's body typeface.
	FontFamily string `json:"font_family" yaml:"font_family"`

	// Columns is the body column count (1 or 2).
	Columns int `json:"columns" yaml:"columns"`

	// AbstractLeadIn precedes the abstract text (e.g. "Abstract. ", "Abstract—").
	AbstractLeadIn string `json:"abstract_lead_in" yaml:"abstract_lead_in"`

	// KeywordSeparator joins keyword tokens (e.g. " · ", ", ").
	KeywordSeparator string `json:"keyword_separator" yaml:"keyword_separator"`

	Title     Style `json:"title" yaml:"title"`
	Authors   Style `json:"authors" yaml:"authors"`
	Abstract  Style `json:"abstract" yaml:"abstract"`
	Keywords  Style `json:"keywords" yaml:"keywords"`
	Heading1  Style `json:"heading1" yaml:"heading1"`
	Heading2  Style `json:"heading2" yaml:"heading2"`
	Heading3  Style `json:"heading3" yaml:"heading3"`
	Body      Style `json:"body" yaml:"body"`
	Caption   Style `json:"caption" yaml:"caption"`
	Reference Style `json:"reference" yaml:"reference"`
}

// Margins are page margins in centimeters.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

// Uniform returns margins with the same value on all four sides.
func Uniform(cm float64) Margins {
	return Margins{Top: cm, Bottom: cm, Left: cm, Right: cm}
}

// PageSize names a page geometry. Only A4 and US Letter are defined.
type PageSize string

const (
	PageA4     PageSize = "A4"
	PageLetter PageSize = "Letter"
)

// Dimensions returns the page width and height in centimeters.
// Unrecognized sizes fall back to A4.
func (p PageSize) Dimensions() (widthCm, heightCm float64) {
	if p == PageLetter {
		return 21.59, 27.94
	}
	return 21.0, 29.7
}

// Template bundles the page geometry and typographic parameters of one
// publisher layout. The registry is the single source of truth; the
// renderer consumes whatever template it is handed.
type Template struct {
	// ID is the registry key (e.g. "springer_lncs", "ieee", "acm").
	ID string `json:"id" yaml:"id"`

	// Name is the display name.
	Name string `json:"name" yaml:"name"`

	// Description summarizes the layout for template pickers.
	Description string `json:"description" yaml:"description"`

	// PageSize selects the page geometry.
	PageSize PageSize `json:"page_size" yaml:"page_size"`

	// Margins are the default page margins in centimeters.
	Margins Margins `json:"margins" yaml:"margins"`

	// Styles holds the per-element typographic parameters.
	Styles StyleSet `json:"styles" yaml:"styles"`

	// Custom marks templates uploaded by users rather than built in.
	Custom bool `json:"custom,omitempty" yaml:"custom,omitempty"`
}
