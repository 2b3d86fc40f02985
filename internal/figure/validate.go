// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figure

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// Validate reports print-readiness issues for one candidate figure
// without touching the file: extension, resolution, physical width at the
// recorded density, and color mode. All checks are advisory; Valid simply
// means no issues were found.
func Validate(path string) types.ImageValidation {
	v := types.ImageValidation{Path: path, Valid: true}

	if _, err := os.Stat(path); err != nil {
		v.Valid = false
		v.Issues = append(v.Issues, "File not found")
		return v
	}

	f, err := os.Open(path)
	if err != nil {
		v.Valid = false
		v.Issues = append(v.Issues, fmt.Sprintf("Error reading image: %v", err))
		return v
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		v.Valid = false
		v.Issues = append(v.Issues, fmt.Sprintf("Error reading image: %v", err))
		return v
	}

	if ext := strings.ToLower(filepath.Ext(path)); !supportedExtensions[ext] {
		v.Issues = append(v.Issues, fmt.Sprintf("Unsupported format: %s", ext))
	}

	dpi := ReadDPI(path)
	if dpi < types.MinDPI {
		v.Issues = append(v.Issues, fmt.Sprintf("Low resolution: %d DPI (recommended: %d+)", dpi, types.MinDPI))
	}

	widthCm := float64(cfg.Width) / float64(dpi) * 2.54
	if widthCm > types.MaxFigureWidthCm {
		v.Issues = append(v.Issues, fmt.Sprintf("Image too wide: %.1fcm (max: %.0fcm)", widthCm, types.MaxFigureWidthCm))
	}

	switch mode := configMode(cfg); mode {
	case "RGB", "L", "CMYK", "RGBA":
	default:
		v.Issues = append(v.Issues, fmt.Sprintf("Unusual color mode: %s", mode))
	}

	if len(v.Issues) > 0 {
		v.Valid = false
	}
	return v
}

// configMode names the color model without decoding pixel data.
func configMode(cfg image.Config) string {
	switch cfg.ColorModel {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel:
		return "RGB"
	case color.RGBAModel, color.RGBA64Model:
		return "RGB"
	case color.NRGBAModel, color.NRGBA64Model:
		return "RGBA"
	}
	if _, ok := cfg.ColorModel.(color.Palette); ok {
		return "P"
	}
	return "unknown"
}
