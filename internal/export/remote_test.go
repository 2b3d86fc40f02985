// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/camera-ready/pkg/types"
)

func writeDocx(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "formatted.docx")
	if err := os.WriteFile(path, []byte("docx bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRemoteConvert(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		file, header, err := r.FormFile("document")
		if err != nil {
			http.Error(w, "missing document field", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "formatted.docx" {
			http.Error(w, "wrong filename", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "docx bytes" {
			http.Error(w, "wrong payload", http.StatusBadRequest)
			return
		}
		w.Write([]byte("%PDF-1.4 converted"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	docxPath := writeDocx(t, dir)

	conv := newRemoteConverter(types.ConvertConfig{RemoteURL: ts.URL})
	pdfPath, err := conv.Convert(context.Background(), docxPath, dir)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "%PDF-1.4 converted" {
		t.Errorf("output = %q", data)
	}
}

func TestRemoteConvertServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unsupported document", http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	dir := t.TempDir()
	conv := newRemoteConverter(types.ConvertConfig{RemoteURL: ts.URL})

	_, err := conv.Convert(context.Background(), writeDocx(t, dir), dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "unsupported document") {
		t.Errorf("error should carry status and body: %v", err)
	}
}

func TestRemoteAvailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	up := newRemoteConverter(types.ConvertConfig{RemoteURL: ts.URL})
	if !up.Available() {
		t.Error("converter with healthy endpoint should be available")
	}

	down := newRemoteConverter(types.ConvertConfig{RemoteURL: "http://127.0.0.1:1"})
	if down.Available() {
		t.Error("unreachable converter should not be available")
	}
}
