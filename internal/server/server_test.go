// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/camera-ready/internal/history"
	"github.com/pdiddy/camera-ready/internal/session"
	"github.com/pdiddy/camera-ready/internal/template"
	"github.com/pdiddy/camera-ready/pkg/types"
)

const sampleManuscript = `Deep Learning for Protein Folding

Jane Doe (jane@example.com)

Abstract. We study protein folding with transformers and present a model that improves accuracy.

Keywords: deep learning, proteins, folding

1. Introduction
Protein structure prediction is fundamental. Figure 1 shows the architecture.

2. Related Work
Prior approaches used templates.

References
[1] Smith, J. Folding at scale. 2024.
`

type testEnv struct {
	ts       *httptest.Server
	sessions *session.Store
	history  *history.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmp := t.TempDir()

	registry, err := template.New()
	require.NoError(t, err)

	hist, err := history.Open(filepath.Join(tmp, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	cfg := types.DefaultConfig()
	cfg.Storage.WorkDir = tmp
	// A binary that cannot exist keeps converter detection deterministic.
	cfg.Convert.Converter = "no-such-converter-binary"

	sessions := session.NewStore(filepath.Join(tmp, "sessions"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := New(cfg, logger, sessions, registry, hist)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, sessions: sessions, history: hist}
}

type fileField struct {
	field, name string
	content     []byte
}

func (e *testEnv) upload(t *testing.T, files []fileField, templateID string) uploadResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	if templateID != "" {
		require.NoError(t, mw.WriteField("template", templateID))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out uploadResponse
	decodeBody(t, resp, &out)
	return out
}

func (e *testEnv) process(t *testing.T, sessionID string) (*http.Response, []byte) {
	t.Helper()
	body := fmt.Sprintf(`{"session_id": %q}`, sessionID)
	resp, err := http.Post(e.ts.URL+"/api/process", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(data, v), "body: %s", data)
}

// pngBytes encodes a small solid-color PNG without resolution metadata.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestUploadCreatesSession(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
		{field: "images", name: "fig1_architecture.png", content: pngBytes(t)},
	}, "")

	assert.Len(t, out.SessionID, 8)
	require.NotNil(t, out.Document)
	assert.Equal(t, "paper.txt", out.Document.Filename)
	require.Len(t, out.Images, 1)
	assert.Equal(t, "fig1_architecture.png", out.Images[0].Filename)
	assert.Equal(t, "springer_lncs", out.Template)
	assert.Equal(t, "success", out.Status)

	sess, err := env.sessions.Get(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusUploaded, sess.Status)
	assert.FileExists(t, sess.DocumentPath)
	require.Len(t, sess.ImagePaths, 1)
	assert.FileExists(t, sess.ImagePaths[0])
}

func TestUploadRejectsBadDocumentType(t *testing.T) {
	env := newTestEnv(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", "paper.exe")
	require.NoError(t, err)
	part.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(env.ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]string
	decodeBody(t, resp, &out)
	assert.Contains(t, out["error"], "unsupported document type")
}

func TestUploadSkipsUnsupportedImages(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
		{field: "images", name: "diagram.svg", content: []byte("<svg/>")},
		{field: "images", name: "chart.png", content: pngBytes(t)},
	}, "")

	require.Len(t, out.Images, 1)
	assert.Equal(t, "chart.png", out.Images[0].Filename)

	sess, err := env.sessions.Get(out.SessionID)
	require.NoError(t, err)
	require.Len(t, sess.Warnings, 1)
	assert.Contains(t, sess.Warnings[0], "diagram.svg")
}

func TestProcessPipeline(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
		{field: "images", name: "fig1_model_architecture.png", content: pngBytes(t)},
	}, "")

	resp, body := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)

	var pr processResponse
	require.NoError(t, sonic.Unmarshal(body, &pr))

	assert.Equal(t, "success", pr.Status)
	assert.Equal(t, "Deep Learning for Protein Folding", pr.Title)
	assert.Equal(t, []string{"Jane Doe"}, pr.Authors)
	assert.Equal(t, 3, pr.Sections)
	assert.Equal(t, 1, pr.References)
	assert.Equal(t, 1, pr.Figures)
	assert.Equal(t, "formatted_paper.docx", pr.OutputFilename)
	assert.Greater(t, pr.Stats.WordCount, 0)

	require.NotEmpty(t, pr.ChangesLog)
	assert.Equal(t, "Page margins set to 2.5cm all sides", pr.ChangesLog[0])
	assert.Contains(t, pr.ChangesLog, "Title formatted (14pt, Bold, Center)")
	assert.Contains(t, pr.ChangesLog, "Figure 1 inserted with caption")
	assert.Contains(t, pr.ChangesLog, "References formatted: 1 items")

	// Undeclared resolution defaults to 72 DPI, below print quality.
	require.NotEmpty(t, pr.Warnings)
	assert.Contains(t, pr.Warnings[0], "low DPI")

	sess, err := env.sessions.Get(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, sess.Status)
	assert.FileExists(t, sess.OutputDocx)
	require.NotNil(t, sess.Parsed)
	assert.NotEmpty(t, sess.InsertionPoints, "body references Figure 1")

	// Completed runs land in the history store.
	runs, err := env.history.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.SessionID, runs[0].SessionID)
	assert.Equal(t, "Deep Learning for Protein Folding", runs[0].Title)
	assert.Equal(t, "springer_lncs", runs[0].Template)
	assert.Equal(t, 1, runs[0].Figures)
}

func TestProcessUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.process(t, "deadbeef")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessWithoutDocument(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "images", name: "chart.png", content: pngBytes(t)},
	}, "")

	resp, body := env.process(t, out.SessionID)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "no document uploaded")
}

func TestProcessUnknownTemplate(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "nonexistent_layout")

	resp, body := env.process(t, out.SessionID)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "nonexistent_layout")

	sess, err := env.sessions.Get(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusError, sess.Status)
	assert.NotEmpty(t, sess.Error)
}

func TestProcessLegacyDocFails(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.doc", content: []byte("legacy binary")},
	}, "")

	resp, body := env.process(t, out.SessionID)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "unsupported document format")
}

func TestDownloadDocx(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dl, body := env.get(t, "/api/download/"+out.SessionID+"/docx")
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "formatted_paper.docx")
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "DOCX is a zip container")
}

func TestDownloadBeforeProcessing(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")

	resp, body := env.get(t, "/api/download/"+out.SessionID+"/docx")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "not yet processed")
}

func TestDownloadInvalidFormat(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dl, body := env.get(t, "/api/download/"+out.SessionID+"/odt")
	assert.Equal(t, http.StatusBadRequest, dl.StatusCode)
	assert.Contains(t, string(body), "invalid format type")
}

func TestDownloadPDFWithoutConverter(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dl, body := env.get(t, "/api/download/"+out.SessionID+"/pdf")
	assert.Equal(t, http.StatusBadGateway, dl.StatusCode)
	assert.Contains(t, string(body), "PDF conversion failed")

	// The DOCX artifact survives the failed conversion.
	dlDocx, _ := env.get(t, "/api/download/"+out.SessionID+"/docx")
	assert.Equal(t, http.StatusOK, dlDocx.StatusCode)
}

func TestDownloadZipBundle(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
		{field: "images", name: "pipeline_overview.png", content: pngBytes(t)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dl, body := env.get(t, "/api/download/"+out.SessionID+"/zip")
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "application/zip", dl.Header.Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "formatted_paper.docx")
	assert.Contains(t, names, "changes.txt")
	assert.Contains(t, names, "images/fig_1_pipeline_overview.png")
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pv, body := env.get(t, "/api/preview/"+out.SessionID)
	require.Equal(t, http.StatusOK, pv.StatusCode)

	var pr previewResponse
	require.NoError(t, sonic.Unmarshal(body, &pr))

	assert.Contains(t, pr.HTML, "Deep Learning for Protein Folding")
	assert.Contains(t, pr.HTML, "<strong>Abstract.</strong>")
	assert.Contains(t, pr.HTML, "1. Introduction")
	assert.Equal(t, "Deep Learning for Protein Folding", pr.ParsedContent.Title)
	assert.Len(t, pr.ParsedContent.Sections, 3)
	assert.NotEmpty(t, pr.Changes)
}

func TestPreviewStripsScripts(t *testing.T) {
	env := newTestEnv(t)
	hostile := strings.Replace(sampleManuscript,
		"Deep Learning for Protein Folding",
		`Deep Learning <script>alert("xss")</script> for Protein Folding`, 1)

	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(hostile)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pv, body := env.get(t, "/api/preview/"+out.SessionID)
	require.Equal(t, http.StatusOK, pv.StatusCode)

	var pr previewResponse
	require.NoError(t, sonic.Unmarshal(body, &pr))
	assert.NotContains(t, pr.HTML, "<script>")
	assert.NotContains(t, pr.HTML, "alert(")
}

func TestSettingsMerge(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")

	resp, err := http.Post(env.ts.URL+"/api/settings/"+out.SessionID, "application/json",
		strings.NewReader(`{"font_family": "Arial", "section_numbers": false}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	gv, body := env.get(t, "/api/settings/"+out.SessionID)
	require.Equal(t, http.StatusOK, gv.StatusCode)

	var settings types.Settings
	require.NoError(t, sonic.Unmarshal(body, &settings))
	assert.Equal(t, "Arial", settings.FontFamily)
	assert.False(t, settings.SectionNumbers)
	// Untouched fields keep their defaults.
	assert.Equal(t, "springer_lncs", settings.Template)
	assert.InDelta(t, 80, settings.ImageWidthPct, 0.01)
	assert.InDelta(t, 2.5, settings.Margins.Top, 0.001)
}

func TestTemplatesList(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/api/templates")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var templates []types.Template
	require.NoError(t, sonic.Unmarshal(body, &templates))
	require.GreaterOrEqual(t, len(templates), 3)
	assert.Equal(t, "springer_lncs", templates[0].ID)
	assert.Equal(t, "ieee", templates[1].ID)
	assert.Equal(t, "acm", templates[2].ID)
}

func TestSessionDetail(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")
	resp, _ := env.process(t, out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sv, body := env.get(t, "/api/session/"+out.SessionID)
	require.Equal(t, http.StatusOK, sv.StatusCode)

	var sr sessionResponse
	require.NoError(t, sonic.Unmarshal(body, &sr))
	assert.Equal(t, "success", sr.Status)
	assert.Equal(t, "paper.txt", sr.Document)
	assert.Equal(t, types.StatusCompleted, sr.ProcessingStatus)
	require.NotNil(t, sr.Stats)
	assert.Greater(t, sr.Stats.WordCount, 0)
	assert.NotEmpty(t, sr.InsertionPoints)
	assert.Equal(t, "formatted_paper.docx", sr.OutputDocx)
}

func TestValidateImages(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
		{field: "images", name: "low_dpi_chart.png", content: pngBytes(t)},
	}, "")

	resp, body := env.get(t, "/api/validate/"+out.SessionID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vr struct {
		Status string         `json:"status"`
		Images []imageVerdict `json:"images"`
	}
	require.NoError(t, sonic.Unmarshal(body, &vr))
	require.Len(t, vr.Images, 1)
	assert.Equal(t, "low_dpi_chart.png", vr.Images[0].Filename)
	assert.False(t, vr.Images[0].Valid, "72 DPI fails the print check")
	assert.NotEmpty(t, vr.Images[0].Issues)
}

func TestCleanup(t *testing.T) {
	env := newTestEnv(t)
	out := env.upload(t, []fileField{
		{field: "document", name: "paper.txt", content: []byte(sampleManuscript)},
	}, "")
	dir := env.sessions.Dir(out.SessionID)

	req, err := http.NewRequest(http.MethodDelete, env.ts.URL+"/api/cleanup/"+out.SessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NoDirExists(t, dir)

	gone, _ := env.get(t, "/api/session/"+out.SessionID)
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func TestUnknownSessionPaths(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{
		"/api/preview/deadbeef",
		"/api/download/deadbeef/docx",
		"/api/validate/deadbeef",
		"/api/settings/deadbeef",
		"/api/session/deadbeef",
	} {
		resp, _ := env.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "path %s", path)
	}
}
