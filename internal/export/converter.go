// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export turns rendered documents into delivery artifacts: PDF
// via an external converter (LibreOffice locally or a remote conversion
// service) and ZIP bundles of everything a session produced. PDF output
// is validated before it is handed to the caller; a conversion failure
// never invalidates the DOCX artifact.
package export

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// Local converter binaries tried in order when none is configured.
const (
	binSoffice     = "soffice"
	binLibreOffice = "libreoffice"
)

// Converter produces a PDF next to a rendered DOCX.
type Converter interface {
	// Name identifies the converter ("soffice", "libreoffice", "remote").
	Name() string

	// Available reports whether the converter can be used right now.
	Available() bool

	// Convert writes the PDF rendition of docxPath into outDir and
	// returns its path.
	Convert(ctx context.Context, docxPath, outDir string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var defaultExec executor = &osExecutor{}

// localConverter shells out to a LibreOffice binary in headless mode.
type localConverter struct {
	bin     string
	timeout time.Duration
	exec    executor
}

func (c *localConverter) Name() string { return c.bin }

func (c *localConverter) Available() bool {
	_, err := c.exec.LookPath(c.bin)
	return err == nil
}

func (c *localConverter) Convert(ctx context.Context, docxPath, outDir string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.exec.Run(ctx, c.bin,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w (output: %s)", c.bin, err, tail(out))
	}

	// soffice exits 0 even for some failures; the file is the truth.
	pdfPath := filepath.Join(outDir, stem(docxPath)+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("%s reported success but %s is missing (output: %s)",
			c.bin, filepath.Base(pdfPath), tail(out))
	}
	return pdfPath, nil
}

// Detect picks the converter for the given configuration: a remote
// service when a URL is set, the configured binary when named, or the
// first LibreOffice binary found on PATH.
func Detect(cfg types.ConvertConfig) (Converter, error) {
	return detect(cfg, defaultExec)
}

func detect(cfg types.ConvertConfig, exec executor) (Converter, error) {
	if cfg.RemoteURL != "" {
		return newRemoteConverter(cfg), nil
	}

	if cfg.Converter != "" {
		c := &localConverter{bin: cfg.Converter, timeout: cfg.CommandTimeout, exec: exec}
		if !c.Available() {
			return nil, fmt.Errorf("configured converter %s not found on PATH", cfg.Converter)
		}
		return c, nil
	}

	for _, bin := range []string{binSoffice, binLibreOffice} {
		c := &localConverter{bin: bin, timeout: cfg.CommandTimeout, exec: exec}
		if c.Available() {
			return c, nil
		}
	}
	return nil, fmt.Errorf(
		"no PDF converter available: install LibreOffice (%s or %s) or configure a remote converter URL",
		binSoffice, binLibreOffice,
	)
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// tail returns the trimmed end of command output for error messages.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 300 {
		s = "..." + s[len(s)-300:]
	}
	if s == "" {
		s = "(no output)"
	}
	return s
}
