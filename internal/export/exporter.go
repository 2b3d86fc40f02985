// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Exporter wraps a converter with output validation.
type Exporter struct {
	conv Converter
}

// NewExporter returns an exporter using the given converter.
func NewExporter(conv Converter) *Exporter {
	return &Exporter{conv: conv}
}

// ConverterName reports which converter backs this exporter.
func (e *Exporter) ConverterName() string {
	return e.conv.Name()
}

// validatePDF is a test substitution point for the pdfcpu check.
var validatePDF = func(path string) error {
	return api.ValidateFile(path, nil)
}

// PDF converts the DOCX at docxPath and validates the result with pdfcpu
// before returning its path. The PDF lands next to the source document.
// On any failure the DOCX remains untouched and available.
func (e *Exporter) PDF(ctx context.Context, docxPath string) (string, error) {
	pdfPath, err := e.conv.Convert(ctx, docxPath, filepath.Dir(docxPath))
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", filepath.Base(docxPath), err)
	}
	if err := validatePDF(pdfPath); err != nil {
		return "", fmt.Errorf("converter produced an invalid PDF: %w", err)
	}
	return pdfPath, nil
}
