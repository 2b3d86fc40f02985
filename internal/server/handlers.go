// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/camera-ready/internal/figure"
	"github.com/pdiddy/camera-ready/pkg/types"
)

type imageVerdict struct {
	Filename string   `json:"filename"`
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues,omitempty"`
}

// handleValidate reports print-readiness checks for every uploaded
// image without processing anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	verdicts := make([]imageVerdict, 0, len(sess.ImagePaths))
	for _, path := range sess.ImagePaths {
		v := figure.Validate(path)
		verdicts = append(verdicts, imageVerdict{
			Filename: filepath.Base(path),
			Valid:    v.Valid,
			Issues:   v.Issues,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"session_id": sess.ID,
		"images":     verdicts,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Settings)
}

// handleUpdateSettings merges a partial settings document into the
// session; omitted fields keep their current values.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch settingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding settings: %w", err))
		return
	}

	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	updated, err := s.sessions.Update(sess.ID, func(ss *types.Session) {
		patch.apply(&ss.Settings)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"settings": updated.Settings,
	})
}

func (s *Server) handleTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.templates.List())
}

type sessionResponse struct {
	Status           string                 `json:"status"`
	SessionID        string                 `json:"session_id"`
	Document         string                 `json:"document,omitempty"`
	Images           []string               `json:"images,omitempty"`
	ProcessingStatus types.SessionStatus    `json:"processing_status"`
	Settings         types.Settings         `json:"settings"`
	Stats            *types.DocumentStats   `json:"stats,omitempty"`
	InsertionPoints  []types.InsertionPoint `json:"insertion_points,omitempty"`
	Changes          []string               `json:"changes,omitempty"`
	Warnings         []string               `json:"warnings,omitempty"`
	OutputDocx       string                 `json:"output_docx,omitempty"`
	OutputPDF        string                 `json:"output_pdf,omitempty"`
	Error            string                 `json:"error,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	resp := sessionResponse{
		Status:           "success",
		SessionID:        sess.ID,
		Document:         sess.DocumentName,
		ProcessingStatus: sess.Status,
		Settings:         sess.Settings,
		InsertionPoints:  sess.InsertionPoints,
		Changes:          sess.ChangesLog,
		Warnings:         sess.Warnings,
		Error:            sess.Error,
		CreatedAt:        sess.CreatedAt,
		UpdatedAt:        sess.UpdatedAt,
	}
	for _, p := range sess.ImagePaths {
		resp.Images = append(resp.Images, filepath.Base(p))
	}
	if sess.Parsed != nil {
		stats := sess.Parsed.Stats
		resp.Stats = &stats
	}
	if sess.OutputDocx != "" {
		resp.OutputDocx = filepath.Base(sess.OutputDocx)
	}
	if sess.OutputPDF != "" {
		resp.OutputPDF = filepath.Base(sess.OutputPDF)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := s.sessions.Delete(sess.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("session removed", "session", sess.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
