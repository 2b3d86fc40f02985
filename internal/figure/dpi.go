// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figure

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
	"os"
)

// DefaultDPI is assumed when an image carries no resolution metadata.
const DefaultDPI = 72

const metersPerInch = 0.0254

// ReadDPI returns the horizontal resolution recorded in the image file's
// metadata: the PNG pHYs chunk, the JPEG JFIF density fields, the TIFF
// resolution tags, or the BMP pixels-per-meter header. Files without
// metadata, and files the sniffer does not recognize, report DefaultDPI.
// Resolution is advisory, so parse problems never surface as errors.
func ReadDPI(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultDPI
	}
	return dpiFromBytes(data)
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func dpiFromBytes(data []byte) int {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return pngDPI(data)
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return jpegDPI(data)
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return tiffDPI(data)
	case bytes.HasPrefix(data, []byte("BM")):
		return bmpDPI(data)
	}
	return DefaultDPI
}

// pngDPI scans chunks for pHYs. Unit flag 1 means pixels per meter; any
// other unit leaves the density unspecified.
func pngDPI(data []byte) int {
	off := len(pngSignature)
	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])

		if typ == "pHYs" && off+8+9 <= len(data) {
			ppuX := binary.BigEndian.Uint32(data[off+8:])
			unit := data[off+16]
			if unit == 1 && ppuX > 0 {
				return int(math.Round(float64(ppuX) * metersPerInch))
			}
			return DefaultDPI
		}
		if typ == "IDAT" || typ == "IEND" {
			break
		}
		off += 8 + length + 4
	}
	return DefaultDPI
}

// jpegDPI walks marker segments for the JFIF APP0 density fields. Unit 1
// is dots per inch, unit 2 dots per centimeter.
func jpegDPI(data []byte) int {
	off := 2
	for off+4 <= len(data) {
		if data[off] != 0xFF {
			break
		}
		marker := data[off+1]

		// Standalone markers carry no length.
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD9) {
			off += 2
			continue
		}
		if marker == 0xDA {
			break // start of scan, no metadata past here
		}

		length := int(binary.BigEndian.Uint16(data[off+2:]))
		if marker == 0xE0 && length >= 16 && off+2+length <= len(data) {
			seg := data[off+4 : off+2+length]
			if bytes.HasPrefix(seg, []byte("JFIF\x00")) {
				units := seg[7]
				x := binary.BigEndian.Uint16(seg[8:])
				switch {
				case units == 1 && x > 0:
					return int(x)
				case units == 2 && x > 0:
					return int(math.Round(float64(x) * 2.54))
				}
				return DefaultDPI
			}
		}
		off += 2 + length
	}
	return DefaultDPI
}

// tiffDPI reads IFD0 tags 282 (XResolution, a rational) and 296
// (ResolutionUnit: 2 inch, 3 centimeter), honoring the header byte order.
func tiffDPI(data []byte) int {
	if len(data) < 8 {
		return DefaultDPI
	}
	var order binary.ByteOrder = binary.LittleEndian
	if data[0] == 'M' {
		order = binary.BigEndian
	}

	ifdOff := int(order.Uint32(data[4:]))
	if ifdOff < 0 || ifdOff+2 > len(data) {
		return DefaultDPI
	}
	count := int(order.Uint16(data[ifdOff:]))

	var xres float64
	unit := 2 // inch unless stated otherwise
	for i := 0; i < count; i++ {
		entry := ifdOff + 2 + i*12
		if entry+12 > len(data) {
			return DefaultDPI
		}
		tag := order.Uint16(data[entry:])
		typ := order.Uint16(data[entry+2:])

		switch tag {
		case 282:
			if typ != 5 {
				continue
			}
			valOff := int(order.Uint32(data[entry+8:]))
			if valOff >= 0 && valOff+8 <= len(data) {
				num := order.Uint32(data[valOff:])
				den := order.Uint32(data[valOff+4:])
				if den != 0 {
					xres = float64(num) / float64(den)
				}
			}
		case 296:
			unit = int(order.Uint16(data[entry+8:]))
		}
	}

	if xres <= 0 {
		return DefaultDPI
	}
	if unit == 3 {
		return int(math.Round(xres * 2.54))
	}
	return int(math.Round(xres))
}

// bmpDPI converts the BITMAPINFOHEADER pixels-per-meter field, which sits
// at byte offset 38 of the file.
func bmpDPI(data []byte) int {
	if len(data) < 42 {
		return DefaultDPI
	}
	ppm := int32(binary.LittleEndian.Uint32(data[38:]))
	if ppm <= 0 {
		return DefaultDPI
	}
	return int(math.Round(float64(ppm) * metersPerInch))
}

// WithDPI returns the PNG with a pHYs chunk recording the given density,
// inserted directly after IHDR. image/png never emits pHYs itself, so no
// duplicate handling is needed. Non-PNG input is returned unchanged.
func WithDPI(png []byte, dpi int) []byte {
	if dpi <= 0 || !bytes.HasPrefix(png, pngSignature) {
		return png
	}
	// Signature plus the fixed-size IHDR chunk.
	ihdrEnd := len(pngSignature) + 8 + 13 + 4
	if len(png) < ihdrEnd {
		return png
	}

	ppu := uint32(math.Round(float64(dpi) / metersPerInch))

	chunk := make([]byte, 8+9+4)
	binary.BigEndian.PutUint32(chunk, 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], ppu)
	binary.BigEndian.PutUint32(chunk[12:], ppu)
	chunk[16] = 1 // pixels per meter
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(png)+len(chunk))
	out = append(out, png[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, png[ihdrEnd:]...)
	return out
}
