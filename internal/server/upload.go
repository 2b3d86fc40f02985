// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/camera-ready/internal/figure"
	"github.com/pdiddy/camera-ready/pkg/types"
)

// Document uploads accepted at the boundary. Legacy .doc is stored but
// rejected with a load error when processing starts.
var allowedDocExtensions = map[string]bool{
	".docx": true,
	".doc":  true,
	".txt":  true,
}

type uploadedFile struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
}

type uploadResponse struct {
	SessionID string         `json:"session_id"`
	Document  *uploadedFile  `json:"document"`
	Images    []uploadedFile `json:"images"`
	Template  string         `json:"template,omitempty"`
	Status    string         `json:"status"`
}

// handleUpload accepts one multipart request with a `document` file,
// any number of `images` files, and an optional `template` id, and
// opens a session around them.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("upload exceeds %d MB limit", s.cfg.Server.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing upload: %w", err))
		return
	}

	settings := types.DefaultSettings()
	settings.Template = s.cfg.Render.DefaultTemplate
	settings.ImageWidthPct = s.cfg.Render.DefaultImageWidthPct
	if id := r.FormValue("template"); id != "" {
		settings.Template = id
	}

	sess, err := s.sessions.New(settings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dir := s.sessions.Dir(sess.ID)

	resp := uploadResponse{
		SessionID: sess.ID,
		Images:    []uploadedFile{},
		Template:  settings.Template,
		Status:    "success",
	}

	var (
		docPath, docName string
		imagePaths       []string
		warnings         []string
	)

	if files := r.MultipartForm.File["document"]; len(files) > 0 {
		hdr := files[0]
		name := filepath.Base(hdr.Filename)
		if !allowedDocExtensions[strings.ToLower(filepath.Ext(name))] {
			writeError(w, http.StatusBadRequest,
				fmt.Errorf("unsupported document type %q (use .docx or .txt)", filepath.Ext(name)))
			return
		}
		docPath = filepath.Join(dir, name)
		if err := saveUpload(hdr, docPath); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("storing document: %w", err))
			return
		}
		docName = name
		resp.Document = &uploadedFile{Filename: name, Size: humanize.Bytes(uint64(hdr.Size))}
	}

	for _, hdr := range r.MultipartForm.File["images"] {
		name := filepath.Base(hdr.Filename)
		if !figure.IsSupported(name) {
			warnings = append(warnings, fmt.Sprintf("skipped %s: unsupported image format", name))
			continue
		}
		imgPath := filepath.Join(dir, "images", name)
		if err := saveUpload(hdr, imgPath); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("storing image %s: %w", name, err))
			return
		}
		imagePaths = append(imagePaths, imgPath)
		resp.Images = append(resp.Images, uploadedFile{Filename: name, Size: humanize.Bytes(uint64(hdr.Size))})
	}

	if _, err := s.sessions.Update(sess.ID, func(ss *types.Session) {
		ss.DocumentPath = docPath
		ss.DocumentName = docName
		ss.ImagePaths = imagePaths
		ss.Warnings = warnings
	}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("upload accepted",
		"session", sess.ID,
		"document", docName,
		"images", len(imagePaths),
		"skipped", len(warnings),
	)
	writeJSON(w, http.StatusOK, resp)
}

func saveUpload(hdr *multipart.FileHeader, dst string) error {
	src, err := hdr.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
