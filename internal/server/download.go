// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/camera-ready/internal/export"
	"github.com/pdiddy/camera-ready/pkg/types"
)

// handleDownload streams a produced artifact. PDF is converted on the
// first request; a conversion failure leaves the DOCX downloadable.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if sess.Status != types.StatusCompleted || sess.OutputDocx == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("document not yet processed"))
		return
	}

	switch chi.URLParam(r, "format") {
	case "docx":
		serveAttachment(w, r, sess.OutputDocx, filepath.Base(sess.OutputDocx))

	case "pdf":
		pdfPath := sess.OutputPDF
		if pdfPath == "" || !fileExists(pdfPath) {
			var err error
			pdfPath, err = s.convertPDF(r, sess)
			if err != nil {
				writeError(w, http.StatusBadGateway,
					fmt.Errorf("PDF conversion failed: %v. Please download the DOCX and convert manually", err))
				return
			}
		}
		pdfName := strings.TrimSuffix(filepath.Base(sess.OutputDocx), ".docx") + ".pdf"
		serveAttachment(w, r, pdfPath, pdfName)

	case "zip":
		s.serveZip(w, sess)

	default:
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid format type %q (use docx, pdf, or zip)", chi.URLParam(r, "format")))
	}
}

func (s *Server) convertPDF(r *http.Request, sess types.Session) (string, error) {
	conv, err := export.Detect(s.cfg.Convert)
	if err != nil {
		return "", err
	}

	pdfPath, err := export.NewExporter(conv).PDF(r.Context(), sess.OutputDocx)
	if err != nil {
		return "", err
	}

	s.sessions.Update(sess.ID, func(ss *types.Session) { ss.OutputPDF = pdfPath })
	s.logger.Info("pdf exported", "session", sess.ID, "converter", conv.Name())
	return pdfPath, nil
}

// serveZip bundles every artifact the session produced: the rendered
// DOCX, the PDF when one exists, the processed figures, and the
// changes log.
func (s *Server) serveZip(w http.ResponseWriter, sess types.Session) {
	files := map[string]string{
		filepath.Base(sess.OutputDocx): sess.OutputDocx,
	}
	if sess.OutputPDF != "" && fileExists(sess.OutputPDF) {
		files[filepath.Base(sess.OutputPDF)] = sess.OutputPDF
	}
	if changes := filepath.Join(s.sessions.Dir(sess.ID), "changes.txt"); fileExists(changes) {
		files["changes.txt"] = changes
	}
	for _, res := range sess.Images {
		if res.OK() && fileExists(res.Image.ProcessedPath) {
			files["images/"+filepath.Base(res.Image.ProcessedPath)] = res.Image.ProcessedPath
		}
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="formatted_paper.zip"`)
	if err := export.Zip(w, files); err != nil {
		// Headers are out the door; all we can do is log.
		s.logger.Error("zip streaming failed", "session", sess.ID, "error", err)
	}
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, name string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
