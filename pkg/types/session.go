// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SessionStatus tracks a formatting session through its lifecycle.
type SessionStatus string

const (
	StatusUploaded   SessionStatus = "uploaded"
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
	StatusError      SessionStatus = "error"
)

// Settings are the user-adjustable rendering parameters for one session.
type Settings struct {
	// FontFamily overrides the template typeface when non-empty.
	FontFamily string `json:"font_family" yaml:"font_family"`

	// SectionNumbers controls whether level-1 headings get a supplied
	// numeric prefix.
	SectionNumbers bool `json:"section_numbers" yaml:"section_numbers"`

	// ImageWidthPct maps to a physical width: width_cm = pct/100 * 14.
	ImageWidthPct float64 `json:"image_width" yaml:"image_width"`

	// AutoDetect enables heuristic section detection.
	AutoDetect bool `json:"auto_detect" yaml:"auto_detect"`

	// Template is the registry id of the layout to render with.
	Template string `json:"template" yaml:"template"`

	// Margins are page margins in centimeters.
	Margins Margins `json:"margins" yaml:"margins"`

	// LineSpacing is the body line spacing multiplier.
	LineSpacing float64 `json:"line_spacing" yaml:"line_spacing"`
}

// ImageWidthCm converts the percentage setting to centimeters, clamped
// to the maximum figure width.
func (s Settings) ImageWidthCm() float64 {
	pct := s.ImageWidthPct
	if pct <= 0 {
		pct = 80
	}
	if pct > 100 {
		pct = 100
	}
	return pct / 100 * MaxFigureWidthCm
}

// DefaultSettings returns the settings applied to a new session.
func DefaultSettings() Settings {
	return Settings{
		FontFamily:     "Times New Roman",
		SectionNumbers: true,
		ImageWidthPct:  80,
		AutoDetect:     true,
		Template:       "springer_lncs",
		Margins:        Uniform(2.5),
		LineSpacing:    1.0,
	}
}

// Session holds one upload-process-download cycle. Sessions live in
// memory until explicit cleanup, expiry, or process restart.
type Session struct {
	// ID is the short session identifier handed to the client.
	ID string `json:"session_id" yaml:"session_id"`

	// Status is the lifecycle state: uploaded, processing, completed, error.
	Status SessionStatus `json:"status" yaml:"status"`

	// DocumentPath is the stored upload, DocumentName its original file name.
	DocumentPath string `json:"document_path" yaml:"document_path"`
	DocumentName string `json:"document_name" yaml:"document_name"`

	// ImagePaths lists stored figure uploads in upload order.
	ImagePaths []string `json:"image_paths" yaml:"image_paths"`

	// Settings are the session's rendering parameters.
	Settings Settings `json:"settings" yaml:"settings"`

	// Parsed is the detection result, nil until processing succeeds.
	Parsed *ParsedDocument `json:"parsed,omitempty" yaml:"parsed,omitempty"`

	// Images holds the per-image processing outcomes.
	Images []ImageResult `json:"images,omitempty" yaml:"images,omitempty"`

	// InsertionPoints lists candidate figure positions in the body text.
	InsertionPoints []InsertionPoint `json:"insertion_points,omitempty" yaml:"insertion_points,omitempty"`

	// ChangesLog is the audit trail from the most recent render.
	ChangesLog []string `json:"changes_log,omitempty" yaml:"changes_log,omitempty"`

	// Warnings collects advisory messages (low DPI, per-image failures).
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// OutputDocx and OutputPDF are produced artifact paths. OutputPDF is
	// empty until a PDF download is requested and conversion succeeds.
	OutputDocx string `json:"output_docx,omitempty" yaml:"output_docx,omitempty"`
	OutputPDF  string `json:"output_pdf,omitempty" yaml:"output_pdf,omitempty"`

	// Error is the failure message when Status is error.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// CreatedAt and UpdatedAt bound the session's lifetime for TTL sweeps.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
