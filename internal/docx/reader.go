// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx reads and writes the OOXML document container. The reader
// pulls trimmed non-empty paragraph text out of .docx and .txt uploads for
// the section detector; the writer assembles a minimal valid package from
// styled paragraphs and embedded figures. Both sides speak stdlib
// archive/zip and encoding/xml only.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxElementDepth guards the XML token walk against pathologically nested
// documents.
const maxElementDepth = 96

// ErrUnsupportedFormat is returned for uploads the reader cannot parse,
// including legacy binary .doc files.
var ErrUnsupportedFormat = fmt.Errorf("unsupported document format (use .docx or .txt)")

// ExtractParagraphs loads a manuscript and returns its trimmed non-empty
// paragraphs in document order, the form the section detector expects.
// A file that cannot be opened or parsed is a whole-document failure:
// the caller gets an error, never a partial paragraph list.
func ExtractParagraphs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return extractDocx(path)
	case ".txt":
		return extractText(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

// extractText splits plain text on newlines, trimming each line and
// dropping empties.
func extractText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs, nil
}

// extractDocx streams word/document.xml out of the package zip, joining
// the text runs of each w:p element into one paragraph string.
func extractDocx(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%s: word/document.xml not found in archive", filepath.Base(path))
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var (
		paragraphs  []string
		current     strings.Builder
		inParagraph bool
		depth       int
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxElementDepth {
				return nil, fmt.Errorf("%s: document nesting exceeds %d levels", filepath.Base(path), maxElementDepth)
			}
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "tab":
				if inParagraph {
					current.WriteByte(' ')
				}
			case "br", "cr":
				if inParagraph {
					current.WriteByte(' ')
				}
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			depth--
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
			}
		}
	}

	return paragraphs, nil
}
