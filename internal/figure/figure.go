// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package figure normalizes manuscript figures for print: alpha channels
// are flattened onto white, exotic color modes converted to RGB, images
// downscaled to the target physical width using their embedded
// resolution, and everything re-encoded as PNG tagged at 300 DPI. See
// docs/ARCHITECTURE § Figure Normalization.
package figure

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	xdraw "golang.org/x/image/draw"

	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// supportedExtensions is the accepted input set. Output is always PNG.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// IsSupported reports whether the file extension is an accepted image format.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Summary holds counts from a batch processing run.
type Summary struct {
	Processed int
	Failed    int
	Warnings  []string
}

// Total returns the number of images handled.
func (s Summary) Total() int {
	return s.Processed + s.Failed
}

// HasFailures reports whether any images failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Process normalizes images in input order, writing outputs under outDir
// and progress lines to w. Figure numbers are assigned sequentially over
// successful images only; a failed image does not consume a number.
// Per-image failures are recorded in the result slice and never abort
// the batch.
func Process(paths []string, widthCm float64, outDir string, w io.Writer) ([]types.ImageResult, Summary) {
	if widthCm <= 0 {
		widthCm = types.DefaultFigureWidthCm
	}

	var (
		results []types.ImageResult
		summary Summary
	)

	for _, path := range paths {
		img, err := ProcessOne(path, widthCm, summary.Processed+1, outDir)
		if err != nil {
			fmt.Fprintf(w, "  failed:  %s (%v)\n", path, err)
			results = append(results, types.ImageResult{Path: path, Err: err.Error()})
			summary.Failed++
			continue
		}

		fmt.Fprintf(w, "  figure %d:  %s (%dx%d)\n", img.FigureNumber, filepath.Base(img.ProcessedPath), img.NewWidth, img.NewHeight)
		if img.DPIWarning {
			summary.Warnings = append(summary.Warnings, img.Warning)
		}
		results = append(results, types.ImageResult{Path: path, Image: img})
		summary.Processed++
	}

	return results, summary
}

// ProcessOne normalizes a single image to the target physical width and
// writes fig_{n}_{base}.png under outDir.
func ProcessOne(path string, widthCm float64, figureNumber int, outDir string) (*types.ProcessedImage, error) {
	if widthCm <= 0 {
		widthCm = types.DefaultFigureWidthCm
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", filepath.Base(path), err)
	}

	mode := colorMode(src)
	bounds := src.Bounds()

	result := &types.ProcessedImage{
		OriginalPath:   path,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		OriginalMode:   mode,
		WidthCm:        widthCm,
		FigureNumber:   figureNumber,
		Caption:        Caption(path),
	}

	img := normalize(src, mode)

	dpi := ReadDPI(path)
	result.SourceDPI = dpi

	// Downscale only. An image narrower than the target keeps its pixels.
	targetPx := int(widthCm / 2.54 * float64(dpi))
	if bounds.Dx() > targetPx {
		ratio := float64(targetPx) / float64(bounds.Dx())
		img = scale(img, targetPx, int(float64(bounds.Dy())*ratio))
		result.Resized = true
	}
	result.NewWidth = img.Bounds().Dx()
	result.NewHeight = img.Bounds().Dy()

	// Resampling does not alter the recorded density, so the advisory
	// check after resize still sees the source value.
	if dpi < types.MinDPI {
		result.DPIWarning = true
		result.Warning = fmt.Sprintf("Image %s has low DPI (%d). Recommended: %d+", filepath.Base(path), dpi, types.MinDPI)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outDir, fmt.Sprintf("fig_%d_%s.png", figureNumber, base))

	// The 300 DPI tag records print intent, not measured quality.
	if err := os.WriteFile(outPath, WithDPI(buf.Bytes(), types.MinDPI), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outPath, err)
	}
	result.ProcessedPath = outPath

	return result, nil
}

var (
	figPrefixRe   = regexp.MustCompile(`(?i)^fig\s*\d*\s*`)
	digitPrefixRe = regexp.MustCompile(`^\d+\s*`)
)

// Caption derives a figure caption from the file name: underscores and
// hyphens become spaces, a leading "fig" token (with optional digits) and
// any leading digit token are stripped, and the remainder is capitalized.
// A name that strips to nothing gets a placeholder caption.
func Caption(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	caption := strings.NewReplacer("_", " ", "-", " ").Replace(base)
	caption = figPrefixRe.ReplaceAllString(caption, "")
	caption = digitPrefixRe.ReplaceAllString(caption, "")
	caption = capitalize(strings.TrimSpace(caption))

	if caption == "" {
		caption = "Figure description"
	}
	return caption
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// colorMode names the decoded image's color model the way print
// workflows do. Opaque truecolor reports RGB even when the in-memory
// representation carries an alpha channel.
func colorMode(img image.Image) string {
	switch v := img.(type) {
	case *image.Gray, *image.Gray16:
		return "L"
	case *image.CMYK:
		return "CMYK"
	case *image.YCbCr:
		return "RGB"
	case *image.NRGBA, *image.NRGBA64:
		return "RGBA"
	case *image.RGBA:
		if v.Opaque() {
			return "RGB"
		}
		return "RGBA"
	case *image.RGBA64:
		if v.Opaque() {
			return "RGB"
		}
		return "RGBA"
	case *image.Paletted:
		return "P"
	default:
		return "unknown"
	}
}

// normalize flattens alpha onto an opaque white background and converts
// modes outside RGB, grayscale, and CMYK to RGB.
func normalize(img image.Image, mode string) image.Image {
	switch mode {
	case "RGB", "L", "CMYK":
		return img
	}

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if mode == "RGBA" {
		draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	} else {
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	}
	return out
}

// scale resamples with the Catmull-Rom kernel. Grayscale stays
// grayscale; everything else lands in RGBA.
func scale(img image.Image, w, h int) image.Image {
	r := image.Rect(0, 0, w, h)
	var dst xdraw.Image
	if _, ok := img.(*image.Gray); ok {
		dst = image.NewGray(r)
	} else {
		dst = image.NewRGBA(r)
	}
	xdraw.CatmullRom.Scale(dst, r, img, img.Bounds(), xdraw.Src, nil)
	return dst
}
