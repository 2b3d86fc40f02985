// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/camera-ready/internal/httputil"
	"github.com/pdiddy/camera-ready/pkg/types"
)

// remoteConverter posts the DOCX to a conversion service and stores the
// PDF it returns. The service contract: POST multipart form with one
// "document" file field, 200 response carrying the PDF bytes.
type remoteConverter struct {
	url       string
	userAgent string
	client    *http.Client
}

func newRemoteConverter(cfg types.ConvertConfig) *remoteConverter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &remoteConverter{
		url:       strings.TrimRight(cfg.RemoteURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *remoteConverter) Name() string { return "remote" }

// Available probes the service health endpoint.
func (c *remoteConverter) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *remoteConverter) Convert(ctx context.Context, docxPath, outDir string) (string, error) {
	data, err := os.ReadFile(docxPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(docxPath), err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("document", filepath.Base(docxPath))
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("building conversion request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return "", fmt.Errorf("posting to converter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("converter returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	pdfPath := filepath.Join(outDir, stem(docxPath)+".pdf")
	f, err := os.Create(pdfPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Base(pdfPath), err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(pdfPath)
		return "", fmt.Errorf("saving converted PDF: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("saving converted PDF: %w", err)
	}
	return pdfPath, nil
}
