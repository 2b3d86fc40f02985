// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// previewPolicy sanitizes the generated preview markup. Manuscript text
// flows into the HTML unescaped, so everything passes through the
// policy before it reaches a browser.
var previewPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).
		OnElements("div", "p", "h1", "h2")
	return p
}()

type previewSection struct {
	Type  types.SectionType `json:"type"`
	Title string            `json:"title"`
}

type previewContent struct {
	Title    string           `json:"title"`
	Authors  []types.Author   `json:"authors"`
	Abstract types.Abstract   `json:"abstract"`
	Keywords []string         `json:"keywords"`
	Sections []previewSection `json:"sections"`
}

type previewResponse struct {
	Status        string              `json:"status"`
	HTML          string              `json:"html"`
	ParsedContent previewContent      `json:"parsed_content"`
	Stats         types.DocumentStats `json:"stats"`
	Changes       []string            `json:"changes"`
}

// handlePreview returns a sanitized HTML sketch of the parsed document
// alongside the detection results.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	resp := previewResponse{
		Status:  "success",
		HTML:    previewPolicy.Sanitize(previewHTML(sess.Parsed)),
		Changes: sess.ChangesLog,
	}
	if sess.Parsed != nil {
		resp.ParsedContent = previewContent{
			Title:    sess.Parsed.Title,
			Authors:  sess.Parsed.Authors,
			Abstract: sess.Parsed.Abstract,
			Keywords: sess.Parsed.Keywords,
		}
		for _, sec := range sess.Parsed.Sections {
			resp.ParsedContent.Sections = append(resp.ParsedContent.Sections,
				previewSection{Type: sec.Type, Title: sec.Title})
		}
		resp.Stats = sess.Parsed.Stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// previewHTML sketches the formatted document as simple markup. The
// output is unsafe until sanitized.
func previewHTML(parsed *types.ParsedDocument) string {
	var b strings.Builder
	b.WriteString(`<div class="preview-content">`)

	if parsed != nil {
		if parsed.Title != "" {
			fmt.Fprintf(&b, `<h1 class="preview-title">%s</h1>`, parsed.Title)
		}

		if len(parsed.Authors) > 0 {
			names := make([]string, len(parsed.Authors))
			for i, a := range parsed.Authors {
				names[i] = a.Name
			}
			fmt.Fprintf(&b, `<p class="preview-authors">%s</p>`, strings.Join(names, ", "))
		}

		if parsed.Abstract.Text != "" {
			fmt.Fprintf(&b, `<div class="preview-abstract"><strong>Abstract.</strong> <em>%s</em></div>`,
				parsed.Abstract.Text)
		}

		if len(parsed.Keywords) > 0 {
			fmt.Fprintf(&b, `<p class="preview-keywords"><strong>Keywords:</strong> %s</p>`,
				strings.Join(parsed.Keywords, " · "))
		}

		for i, sec := range parsed.Sections {
			fmt.Fprintf(&b, `<h2 class="preview-heading">%d. %s</h2>`, i+1, sec.Title)
			b.WriteString(`<p class="preview-body">[Section content...]</p>`)
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}
