// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SectionType classifies a detected manuscript section.
type SectionType string

const (
	SectionIntroduction    SectionType = "introduction"
	SectionRelatedWork     SectionType = "related_work"
	SectionMethodology     SectionType = "methodology"
	SectionResults         SectionType = "results"
	SectionDiscussion      SectionType = "discussion"
	SectionConclusion      SectionType = "conclusion"
	SectionReferences      SectionType = "references"
	SectionAcknowledgments SectionType = "acknowledgments"
	SectionNumbered        SectionType = "numbered_section"
)

// CanonicalSectionTypes lists the heading types rendered as level-1
// headings, in the order they are matched against paragraph text.
var CanonicalSectionTypes = []SectionType{
	SectionIntroduction,
	SectionRelatedWork,
	SectionMethodology,
	SectionResults,
	SectionDiscussion,
	SectionConclusion,
	SectionReferences,
	SectionAcknowledgments,
}

// Author is one detected author record. Name/email pairing is positional
// and best-effort; affiliation is only populated when explicitly supplied.
type Author struct {
	// Name is the detected author name (two or three capitalized words).
	Name string `json:"name" yaml:"name"`

	// Email is the positionally paired email address, empty when none matched.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// Affiliation is the institution line, empty unless supplied by the caller.
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
}

// Abstract holds the accumulated abstract text and its length verdict.
type Abstract struct {
	// Text is the abstract with the "Abstract." lead-in stripped.
	Text string `json:"text" yaml:"text"`

	// WordCount is the number of whitespace-delimited tokens in Text.
	WordCount int `json:"word_count" yaml:"word_count"`

	// IsValid reports whether WordCount falls within the publisher's
	// accepted range of 150-250 words inclusive.
	IsValid bool `json:"is_valid" yaml:"is_valid"`
}

// Section is a contiguous run of paragraphs introduced by a recognized heading.
type Section struct {
	// Type is the classification from the heading pattern table.
	Type SectionType `json:"type" yaml:"type"`

	// Title is the heading text exactly as found in the source.
	Title string `json:"title" yaml:"title"`

	// Content is the section body, source paragraphs joined by newlines.
	Content string `json:"content" yaml:"content"`

	// StartIndex is the heading's position in the raw paragraph list.
	StartIndex int `json:"start_index" yaml:"start_index"`
}

// DocumentStats summarizes the manuscript's size.
type DocumentStats struct {
	// WordCount is the number of whitespace-delimited tokens across all paragraphs.
	WordCount int `json:"word_count" yaml:"word_count"`

	// CharacterCount is the total character length of all paragraphs.
	CharacterCount int `json:"character_count" yaml:"character_count"`

	// ParagraphCount is the number of non-empty paragraphs.
	ParagraphCount int `json:"paragraph_count" yaml:"paragraph_count"`

	// EstimatedPages approximates typeset length at 275 words per page,
	// rounded to one decimal.
	EstimatedPages float64 `json:"estimated_pages" yaml:"estimated_pages"`
}

// InsertionPoint marks a paragraph that references a figure or table and
// is therefore a candidate position for inserting a nearby image.
type InsertionPoint struct {
	// Index is the paragraph's position in the raw paragraph list.
	Index int `json:"index" yaml:"index"`

	// Keyword is the figure-referencing word that matched.
	Keyword string `json:"keyword" yaml:"keyword"`

	// Excerpt is the start of the matching paragraph, for display.
	Excerpt string `json:"excerpt" yaml:"excerpt"`
}

// ParsedDocument is the structured result of scanning a manuscript's
// paragraphs. It is produced once per parse and never mutated.
type ParsedDocument struct {
	// Title is the detected manuscript title.
	Title string `json:"title" yaml:"title"`

	// Authors lists detected authors in source order.
	Authors []Author `json:"authors" yaml:"authors"`

	// Abstract is the detected abstract block.
	Abstract Abstract `json:"abstract" yaml:"abstract"`

	// Keywords lists the detected keyword tokens in source order.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Sections lists detected sections ordered by StartIndex.
	Sections []Section `json:"sections" yaml:"sections"`

	// References lists raw reference entries, numbering preserved.
	References []string `json:"references" yaml:"references"`

	// RawParagraphs preserves the full per-paragraph input for traceability.
	RawParagraphs []string `json:"raw_paragraphs" yaml:"raw_paragraphs"`

	// Stats summarizes document size.
	Stats DocumentStats `json:"stats" yaml:"stats"`
}
