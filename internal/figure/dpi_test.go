package figure

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadDPIPNGWithoutMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.png")
	if err := os.WriteFile(path, encodePNG(t), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ReadDPI(path); got != 72 {
		t.Errorf("ReadDPI = %d, want 72", got)
	}
}

func TestWithDPIRoundTrip(t *testing.T) {
	data := WithDPI(encodePNG(t), 300)

	if got := dpiFromBytes(data); got != 300 {
		t.Errorf("dpiFromBytes = %d, want 300", got)
	}

	// The chunk insertion must not break decoding.
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding tagged PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("decoded width = %d, want 4", img.Bounds().Dx())
	}
}

func TestWithDPIIgnoresNonPNG(t *testing.T) {
	data := []byte("not a png at all")
	if got := WithDPI(data, 300); !bytes.Equal(got, data) {
		t.Error("WithDPI modified non-PNG data")
	}
}

func TestReadDPIJFIF(t *testing.T) {
	// Minimal SOI + APP0 JFIF segment declaring 300x300 dots per inch.
	seg := []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xE0, // APP0
		0x00, 0x10, // length 16
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01, // version
		0x01,       // units: dots per inch
		0x01, 0x2C, // X density 300
		0x01, 0x2C, // Y density 300
		0x00, 0x00, // no thumbnail
	}
	if got := dpiFromBytes(seg); got != 300 {
		t.Errorf("dpiFromBytes = %d, want 300", got)
	}
}

func TestReadDPIJFIFCentimeters(t *testing.T) {
	// Units flag 2: dots per centimeter; 118 dpcm is ~300 dpi.
	seg := []byte{
		0xFF, 0xD8,
		0xFF, 0xE0,
		0x00, 0x10,
		'J', 'F', 'I', 'F', 0x00,
		0x01, 0x01,
		0x02,
		0x00, 0x76, // X density 118
		0x00, 0x76,
		0x00, 0x00,
	}
	if got := dpiFromBytes(seg); got != 300 {
		t.Errorf("dpiFromBytes = %d, want 300", got)
	}
}

func TestReadDPIJPEGWithoutJFIF(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	if got := dpiFromBytes(buf.Bytes()); got != 72 {
		t.Errorf("dpiFromBytes = %d, want 72", got)
	}
}

func TestReadDPITIFF(t *testing.T) {
	// Little-endian TIFF with XResolution 300/1 and unit inch.
	buf := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	buf = append(buf, 2, 0) // two IFD entries
	// Tag 282 (XResolution), type 5 (rational), count 1, value offset 38.
	buf = append(buf, 26, 1, 5, 0, 1, 0, 0, 0, 38, 0, 0, 0)
	// Tag 296 (ResolutionUnit), type 3 (short), count 1, value 2 (inch).
	buf = append(buf, 40, 1, 3, 0, 1, 0, 0, 0, 2, 0, 0, 0)
	buf = append(buf, 0, 0, 0, 0)             // next IFD: none
	buf = append(buf, 44, 1, 0, 0, 1, 0, 0, 0) // 300/1 rational

	if got := dpiFromBytes(buf); got != 300 {
		t.Errorf("dpiFromBytes = %d, want 300", got)
	}
}

func TestReadDPIBMP(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{1, 2, 3, 255})
		}
	}
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	// Patch biXPelsPerMeter: 11811 pixels per meter is 300 DPI.
	binary.LittleEndian.PutUint32(data[38:], 11811)

	if got := dpiFromBytes(data); got != 300 {
		t.Errorf("dpiFromBytes = %d, want 300", got)
	}
}

func TestReadDPIUnknownFormat(t *testing.T) {
	if got := dpiFromBytes([]byte("garbage bytes here")); got != 72 {
		t.Errorf("dpiFromBytes = %d, want 72", got)
	}
}

func TestReadDPIMissingFile(t *testing.T) {
	if got := ReadDPI(filepath.Join(t.TempDir(), "nope.png")); got != 72 {
		t.Errorf("ReadDPI = %d, want 72", got)
	}
}
