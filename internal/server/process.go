// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/camera-ready/internal/docx"
	"github.com/pdiddy/camera-ready/internal/figure"
	"github.com/pdiddy/camera-ready/internal/history"
	"github.com/pdiddy/camera-ready/internal/manuscript"
	"github.com/pdiddy/camera-ready/internal/style"
	"github.com/pdiddy/camera-ready/pkg/types"
)

// settingsPatch is a partial settings update. Only fields present in
// the request override the session's current values.
type settingsPatch struct {
	FontFamily     *string        `json:"font_family"`
	SectionNumbers *bool          `json:"section_numbers"`
	ImageWidthPct  *float64       `json:"image_width"`
	AutoDetect     *bool          `json:"auto_detect"`
	Template       *string        `json:"template"`
	Margins        *types.Margins `json:"margins"`
	LineSpacing    *float64       `json:"line_spacing"`
}

func (p settingsPatch) apply(s *types.Settings) {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.SectionNumbers != nil {
		s.SectionNumbers = *p.SectionNumbers
	}
	if p.ImageWidthPct != nil {
		s.ImageWidthPct = *p.ImageWidthPct
	}
	if p.AutoDetect != nil {
		s.AutoDetect = *p.AutoDetect
	}
	if p.Template != nil && *p.Template != "" {
		s.Template = *p.Template
	}
	if p.Margins != nil {
		s.Margins = *p.Margins
	}
	if p.LineSpacing != nil {
		s.LineSpacing = *p.LineSpacing
	}
}

type processResponse struct {
	Status         string              `json:"status"`
	SessionID      string              `json:"session_id"`
	Title          string              `json:"title"`
	Authors        []string            `json:"authors"`
	Sections       int                 `json:"sections"`
	References     int                 `json:"references"`
	Figures        int                 `json:"figures"`
	ChangesLog     []string            `json:"changes_log"`
	Warnings       []string            `json:"warnings,omitempty"`
	Stats          types.DocumentStats `json:"stats"`
	OutputFilename string              `json:"output_filename"`
}

// handleProcess runs the full pipeline for an uploaded session: parse,
// normalize figures, render, save. The session moves uploaded →
// processing → completed, or to error with the failure message.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string         `json:"session_id"`
		Settings  *settingsPatch `json:"settings"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	sess, ok := s.getSession(w, req.SessionID)
	if !ok {
		return
	}
	if sess.DocumentPath == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no document uploaded"))
		return
	}

	if _, err := s.sessions.Update(sess.ID, func(ss *types.Session) {
		if req.Settings != nil {
			req.Settings.apply(&ss.Settings)
		}
		ss.Status = types.StatusProcessing
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp, err := s.process(r.Context(), sess.ID)
	if err != nil {
		s.sessions.Update(sess.ID, func(ss *types.Session) {
			ss.Status = types.StatusError
			ss.Error = err.Error()
		})
		s.logger.Error("processing failed", "session", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) process(ctx context.Context, id string) (*processResponse, error) {
	start := time.Now()

	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	dir := s.sessions.Dir(id)

	tpl, err := s.templates.Get(sess.Settings.Template)
	if err != nil {
		return nil, err
	}

	paragraphs, err := docx.ExtractParagraphs(sess.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	parsed := manuscript.Parse(paragraphs)
	points := manuscript.FindImageInsertionPoints(paragraphs)

	var (
		results  []types.ImageResult
		images   []*types.ProcessedImage
		warnings []string
	)
	if len(sess.ImagePaths) > 0 {
		var summary figure.Summary
		results, summary = figure.Process(sess.ImagePaths, sess.Settings.ImageWidthCm(),
			filepath.Join(dir, "processed"), io.Discard)
		warnings = append(warnings, summary.Warnings...)
		for _, res := range results {
			if res.OK() {
				images = append(images, res.Image)
			} else {
				warnings = append(warnings, fmt.Sprintf("image processing failed: %s (%s)",
					filepath.Base(res.Path), res.Err))
			}
		}
	}

	renderer := style.NewRenderer(tpl, sess.Settings)
	doc, err := renderer.Render(parsed, images)
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}

	outPath := filepath.Join(dir, outputName(sess.DocumentName))
	if err := doc.SaveDocx(outPath); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	changes := renderer.Changes()
	if err := writeChangesLog(filepath.Join(dir, "changes.txt"), changes); err != nil {
		s.logger.Warn("changes log not written", "session", id, "error", err)
	}

	if _, err := s.sessions.Update(id, func(ss *types.Session) {
		ss.Status = types.StatusCompleted
		ss.Parsed = parsed
		ss.Images = results
		ss.InsertionPoints = points
		ss.ChangesLog = changes
		ss.Warnings = append(ss.Warnings, warnings...)
		ss.OutputDocx = outPath
		ss.Error = ""
	}); err != nil {
		return nil, err
	}

	s.recordRun(ctx, id, parsed, tpl.ID, renderer.FigureCount(), warnings, time.Since(start))

	authors := make([]string, len(parsed.Authors))
	for i, a := range parsed.Authors {
		authors[i] = a.Name
	}

	return &processResponse{
		Status:         "success",
		SessionID:      id,
		Title:          parsed.Title,
		Authors:        authors,
		Sections:       len(parsed.Sections),
		References:     len(parsed.References),
		Figures:        renderer.FigureCount(),
		ChangesLog:     changes,
		Warnings:       warnings,
		Stats:          parsed.Stats,
		OutputFilename: filepath.Base(outPath),
	}, nil
}

func (s *Server) recordRun(ctx context.Context, id string, parsed *types.ParsedDocument, templateID string, figures int, warnings []string, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, history.Run{
		SessionID:  id,
		Title:      parsed.Title,
		Template:   templateID,
		Sections:   len(parsed.Sections),
		Figures:    figures,
		References: len(parsed.References),
		Warnings:   warnings,
		Duration:   elapsed,
	})
	if err != nil {
		s.logger.Warn("run not recorded", "session", id, "error", err)
	}
}

// outputName derives the artifact name from the uploaded file name,
// always with a .docx extension.
func outputName(docName string) string {
	if docName == "" {
		docName = "document"
	}
	stem := strings.TrimSuffix(docName, filepath.Ext(docName))
	return "formatted_" + stem + ".docx"
}

func writeChangesLog(path string, changes []string) error {
	if len(changes) == 0 {
		return nil
	}
	return os.WriteFile(path, []byte(strings.Join(changes, "\n")+"\n"), 0o644)
}
