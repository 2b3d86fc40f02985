// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Figure geometry limits for the default publisher layout.
const (
	// MinDPI is the advisory minimum source resolution for print.
	MinDPI = 300

	// MaxFigureWidthCm is the widest figure the page layout accepts.
	MaxFigureWidthCm = 14.0

	// DefaultFigureWidthCm is used when the caller supplies no target width.
	DefaultFigureWidthCm = 12.0
)

// ProcessedImage records the outcome of normalizing one figure image.
type ProcessedImage struct {
	// OriginalPath is the source image path as supplied.
	OriginalPath string `json:"original_path" yaml:"original_path"`

	// OriginalWidth and OriginalHeight are the source pixel dimensions.
	OriginalWidth  int `json:"original_width" yaml:"original_width"`
	OriginalHeight int `json:"original_height" yaml:"original_height"`

	// OriginalMode names the source color mode (e.g. "RGB", "RGBA", "L", "CMYK").
	OriginalMode string `json:"original_mode" yaml:"original_mode"`

	// Resized reports whether the image was downscaled. Images at or below
	// the target width are never upscaled.
	Resized bool `json:"resized" yaml:"resized"`

	// NewWidth and NewHeight are the output pixel dimensions.
	NewWidth  int `json:"new_width" yaml:"new_width"`
	NewHeight int `json:"new_height" yaml:"new_height"`

	// SourceDPI is the resolution read from image metadata, 72 when absent.
	SourceDPI int `json:"source_dpi" yaml:"source_dpi"`

	// DPIWarning is set when the post-resize resolution falls below MinDPI.
	// Advisory only; processing still succeeds.
	DPIWarning bool `json:"dpi_warning" yaml:"dpi_warning"`

	// Warning carries the advisory message when DPIWarning is set.
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`

	// ProcessedPath is the output file, always PNG tagged at 300 DPI.
	// The tag reflects print intent, not measured quality.
	ProcessedPath string `json:"processed_path" yaml:"processed_path"`

	// FigureNumber is 1-based and assigned in processing order over
	// successful images only.
	FigureNumber int `json:"figure_number" yaml:"figure_number"`

	// Caption is derived from the original file name.
	Caption string `json:"caption" yaml:"caption"`

	// WidthCm is the physical display width used for scaling.
	WidthCm float64 `json:"width_cm" yaml:"width_cm"`
}

// ImageResult wraps one image's processing outcome. Batch processing
// degrades per item: a failed image yields a Result with Err set and
// does not abort the remaining images.
type ImageResult struct {
	// Path is the source image path.
	Path string `json:"path" yaml:"path"`

	// Image is the processed record, nil on failure.
	Image *ProcessedImage `json:"image,omitempty" yaml:"image,omitempty"`

	// Err is the failure message, empty on success.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether this image processed successfully.
func (r ImageResult) OK() bool {
	return r.Err == "" && r.Image != nil
}

// ImageValidation is the advisory verdict for one candidate figure.
// It never mutates the image.
type ImageValidation struct {
	// Path is the validated image path.
	Path string `json:"path" yaml:"path"`

	// Valid is true when Issues is empty.
	Valid bool `json:"valid" yaml:"valid"`

	// Issues lists specific problems: unsupported extension, resolution
	// below MinDPI, physical width over MaxFigureWidthCm, unusual color mode.
	Issues []string `json:"issues" yaml:"issues"`
}
