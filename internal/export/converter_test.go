// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// mockExecutor records calls and returns configured responses.
type mockExecutor struct {
	availableBins map[string]bool
	runFunc       func(ctx context.Context, name string, args ...string) ([]byte, error)
	lastArgs      []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.lastArgs = append([]string{name}, args...)
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args...)
	}
	return nil, nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.ConvertConfig
		bins     map[string]bool
		wantName string
		wantErr  string
	}{
		{
			name:     "remote URL selects remote converter",
			cfg:      types.ConvertConfig{RemoteURL: "http://converter:3000"},
			wantName: "remote",
		},
		{
			name:     "configured binary found",
			cfg:      types.ConvertConfig{Converter: "libreoffice"},
			bins:     map[string]bool{"libreoffice": true},
			wantName: "libreoffice",
		},
		{
			name:    "configured binary missing",
			cfg:     types.ConvertConfig{Converter: "abiword"},
			bins:    map[string]bool{},
			wantErr: "abiword not found",
		},
		{
			name:     "auto detection prefers soffice",
			cfg:      types.ConvertConfig{},
			bins:     map[string]bool{"soffice": true, "libreoffice": true},
			wantName: "soffice",
		},
		{
			name:     "auto detection falls back to libreoffice",
			cfg:      types.ConvertConfig{},
			bins:     map[string]bool{"libreoffice": true},
			wantName: "libreoffice",
		},
		{
			name:    "nothing available",
			cfg:     types.ConvertConfig{},
			bins:    map[string]bool{},
			wantErr: "no PDF converter available",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := detect(tt.cfg, &mockExecutor{availableBins: tt.bins})
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if conv.Name() != tt.wantName {
				t.Errorf("converter = %q, want %q", conv.Name(), tt.wantName)
			}
		})
	}
}

func TestLocalConvert(t *testing.T) {
	outDir := t.TempDir()
	docxPath := filepath.Join(outDir, "formatted.docx")
	if err := os.WriteFile(docxPath, []byte("docx"), 0o644); err != nil {
		t.Fatal(err)
	}

	exec := &mockExecutor{
		runFunc: func(_ context.Context, _ string, args ...string) ([]byte, error) {
			// soffice writes <stem>.pdf into --outdir.
			path := filepath.Join(outDir, "formatted.pdf")
			return []byte("convert ok"), os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
		},
	}
	conv := &localConverter{bin: "soffice", exec: exec}

	pdfPath, err := conv.Convert(context.Background(), docxPath, outDir)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if pdfPath != filepath.Join(outDir, "formatted.pdf") {
		t.Errorf("pdfPath = %q", pdfPath)
	}

	want := []string{"soffice", "--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath}
	if len(exec.lastArgs) != len(want) {
		t.Fatalf("command = %v, want %v", exec.lastArgs, want)
	}
	for i := range want {
		if exec.lastArgs[i] != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, exec.lastArgs[i], want[i])
		}
	}
}

func TestLocalConvertCommandFailure(t *testing.T) {
	exec := &mockExecutor{
		runFunc: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("Error: source file could not be loaded"), errors.New("exit status 1")
		},
	}
	conv := &localConverter{bin: "soffice", exec: exec}

	_, err := conv.Convert(context.Background(), "/tmp/in.docx", t.TempDir())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "could not be loaded") {
		t.Errorf("error should carry command output: %v", err)
	}
}

func TestLocalConvertMissingOutput(t *testing.T) {
	// Exit 0 but no PDF produced.
	exec := &mockExecutor{
		runFunc: func(context.Context, string, ...string) ([]byte, error) {
			return []byte(""), nil
		},
	}
	conv := &localConverter{bin: "soffice", exec: exec}

	_, err := conv.Convert(context.Background(), "/tmp/in.docx", t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing output file")
	}
	if !strings.Contains(err.Error(), "in.pdf is missing") {
		t.Errorf("error = %v, want mention of missing PDF", err)
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/work/sessions/abc123/formatted.docx", "formatted"},
		{"paper.tar.gz", "paper.tar"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := stem(tt.path); got != tt.want {
			t.Errorf("stem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
