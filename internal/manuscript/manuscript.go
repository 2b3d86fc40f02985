// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manuscript detects the logical structure of an academic
// manuscript from its paragraph text: title, authors, abstract, keywords,
// body sections, and references. Detection is heuristic, driven by a
// fixed ordered table of heading patterns. See docs/ARCHITECTURE
// § Section Detection.
package manuscript

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// headingPattern pairs a section type with its recognizer.
type headingPattern struct {
	sectionType types.SectionType
	re          *regexp.Regexp
}

// referencesHeadingRe doubles as the table entry for the references type
// and the trigger for reference-list extraction.
var referencesHeadingRe = regexp.MustCompile(`(?i)^\s*references?\s*$`)

// sectionPatterns is the fixed heading table. Patterns are evaluated top
// to bottom with first-match-wins; ordering matters because patterns
// overlap (e.g. "Future Work" would also match the numbered fallback).
// Each pattern anchors to the whole paragraph and tolerates the leading
// number conventionally used for that section.
var sectionPatterns = []headingPattern{
	{types.SectionIntroduction, regexp.MustCompile(`(?i)^\s*(1\.?\s*)?introduction\s*$`)},
	{types.SectionRelatedWork, regexp.MustCompile(`(?i)^\s*(2\.?\s*)?(related\s*work|literature\s*review|background)\s*$`)},
	{types.SectionMethodology, regexp.MustCompile(`(?i)^\s*(3\.?\s*)?(methodology|proposed\s*(method|approach|system)|method(s)?)\s*$`)},
	{types.SectionResults, regexp.MustCompile(`(?i)^\s*(4\.?\s*)?(results?|experiments?|evaluation|experimental\s*results)\s*$`)},
	{types.SectionDiscussion, regexp.MustCompile(`(?i)^\s*(5\.?\s*)?discussion\s*$`)},
	{types.SectionConclusion, regexp.MustCompile(`(?i)^\s*(6\.?\s*)?(conclusion(s)?|summary|future\s*work)\s*$`)},
	{types.SectionReferences, referencesHeadingRe},
	{types.SectionAcknowledgments, regexp.MustCompile(`(?i)^\s*(acknowledge?ments?)\s*$`)},
}

// numberedHeadingRe is the generic fallback for headings like "7. Threat Model".
var numberedHeadingRe = regexp.MustCompile(`^\s*\d+\.?\s+[A-Z]`)

var (
	// authorNameRe matches two or three capitalized words. Any capitalized
	// phrase matches, so false positives are expected on non-author lines.
	authorNameRe = regexp.MustCompile(`[A-Z][a-z]+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)
	emailRe      = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)

	abstractPrefixRe = regexp.MustCompile(`(?i)^\s*abstract\.?\s*`)

	// keywordsLineRe recognizes a keywords paragraph and captures the token
	// list. The colon is optional here but required by keywordsStopRe, which
	// only terminates abstract accumulation.
	keywordsLineRe     = regexp.MustCompile(`(?i)^\s*keywords?\.?\s*:?\s*(.+)$`)
	keywordsStopRe     = regexp.MustCompile(`(?i)^\s*keywords?\.?\s*:`)
	keywordDelimiterRe = regexp.MustCompile(`[,;·•]`)
)

// Parse runs the full detection pipeline over pre-split paragraphs.
// Paragraphs must be trimmed and non-empty, the form produced by
// docx.ExtractParagraphs. The result is never mutated afterwards.
func Parse(paragraphs []string) *types.ParsedDocument {
	return &types.ParsedDocument{
		Title:         ExtractTitle(paragraphs),
		Authors:       ExtractAuthors(paragraphs),
		Abstract:      ExtractAbstract(paragraphs),
		Keywords:      ExtractKeywords(paragraphs),
		Sections:      DetectSections(paragraphs),
		References:    ExtractReferences(paragraphs),
		RawParagraphs: paragraphs,
		Stats:         Stats(paragraphs),
	}
}

// ExtractTitle returns the first of the opening three paragraphs that is
// shorter than 200 characters and does not begin with "abstract", falling
// back to the very first paragraph. Empty input yields an empty title.
func ExtractTitle(paragraphs []string) string {
	if len(paragraphs) == 0 {
		return ""
	}

	limit := 3
	if len(paragraphs) < limit {
		limit = len(paragraphs)
	}
	for _, p := range paragraphs[:limit] {
		if utf8.RuneCountInString(p) < 200 && !strings.HasPrefix(strings.ToLower(p), "abstract") {
			return p
		}
	}
	return paragraphs[0]
}

// ExtractAuthors scans paragraphs 1-4 (the lines after the title) for
// capitalized name patterns, pairing the i-th name with the i-th email
// address found in the same paragraph. Scanning stops at the first
// paragraph that begins with "abstract". Affiliation is left unset.
func ExtractAuthors(paragraphs []string) []types.Author {
	var authors []types.Author

	end := 5
	if len(paragraphs) < end {
		end = len(paragraphs)
	}
	if end < 2 {
		return authors
	}

	for _, p := range paragraphs[1:end] {
		if strings.HasPrefix(strings.ToLower(p), "abstract") {
			break
		}

		names := authorNameRe.FindAllString(p, -1)
		emails := emailRe.FindAllString(p, -1)
		for i, name := range names {
			a := types.Author{Name: name}
			if i < len(emails) {
				a.Email = emails[i]
			}
			authors = append(authors, a)
		}
	}

	return authors
}

// ExtractAbstract accumulates the abstract block. A paragraph beginning
// with "Abstract" opens the accumulator with that prefix stripped (a later
// "Abstract" paragraph resets it); subsequent paragraphs are appended
// space-joined until a keywords line or a recognized heading appears. The
// terminating paragraph is not consumed.
func ExtractAbstract(paragraphs []string) types.Abstract {
	var text string
	started := false

	for _, p := range paragraphs {
		if loc := abstractPrefixRe.FindStringIndex(p); loc != nil {
			started = true
			text = p[loc[1]:]
			continue
		}
		if !started {
			continue
		}
		if keywordsStopRe.MatchString(p) || IsSectionHeading(p) {
			break
		}
		text += " " + p
	}

	wc := len(strings.Fields(text))
	return types.Abstract{
		Text:      strings.TrimSpace(text),
		WordCount: wc,
		IsValid:   wc >= 150 && wc <= 250,
	}
}

// ExtractKeywords splits the first keywords line on comma, semicolon, or
// middle-dot delimiters into trimmed non-empty tokens. Only the first
// matching paragraph is used.
func ExtractKeywords(paragraphs []string) []string {
	for _, p := range paragraphs {
		m := keywordsLineRe.FindStringSubmatch(p)
		if m == nil {
			continue
		}

		var keywords []string
		for _, tok := range keywordDelimiterRe.Split(m[1], -1) {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				keywords = append(keywords, tok)
			}
		}
		return keywords
	}
	return nil
}

// DetectSections performs a single forward pass: a heading match closes
// the open section (body paragraphs joined by newlines) and opens a new
// one; body paragraphs accumulate on the open section; paragraphs before
// the first heading belong to no section.
func DetectSections(paragraphs []string) []types.Section {
	var sections []types.Section
	var open *types.Section
	var content []string

	flush := func() {
		if open == nil {
			return
		}
		open.Content = strings.Join(content, "\n")
		sections = append(sections, *open)
	}

	for i, p := range paragraphs {
		if st, ok := HeadingType(p); ok {
			flush()
			open = &types.Section{Type: st, Title: p, StartIndex: i}
			content = nil
			continue
		}
		if open != nil {
			content = append(content, p)
		}
	}
	flush()

	return sections
}

// HeadingType classifies a paragraph against the pattern table, then the
// numbered fallback. The second return value is false for body text.
func HeadingType(p string) (types.SectionType, bool) {
	for _, hp := range sectionPatterns {
		if hp.re.MatchString(p) {
			return hp.sectionType, true
		}
	}
	if numberedHeadingRe.MatchString(p) {
		return types.SectionNumbered, true
	}
	return "", false
}

// IsSectionHeading reports whether the paragraph matches any heading
// pattern, including the numbered fallback.
func IsSectionHeading(p string) bool {
	_, ok := HeadingType(p)
	return ok
}

// ExtractReferences collects every paragraph after the references heading
// as one entry each. Numbering prefixes are preserved; the renderer strips
// them when it supplies its own.
func ExtractReferences(paragraphs []string) []string {
	var refs []string
	inRefs := false

	for _, p := range paragraphs {
		if referencesHeadingRe.MatchString(p) {
			inRefs = true
			continue
		}
		if inRefs {
			refs = append(refs, p)
		}
	}

	return refs
}

// Stats computes size statistics over the newline-joined paragraph text.
// Page count is estimated at 275 words per typeset page.
func Stats(paragraphs []string) types.DocumentStats {
	text := strings.Join(paragraphs, "\n")
	words := len(strings.Fields(text))

	return types.DocumentStats{
		WordCount:      words,
		CharacterCount: utf8.RuneCountInString(text),
		ParagraphCount: len(paragraphs),
		EstimatedPages: math.Round(float64(words)/275*10) / 10,
	}
}
