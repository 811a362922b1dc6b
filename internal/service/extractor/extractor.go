package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoText            = errors.New("no text found in document")
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

type Extractor interface {
	Extract(fileName, mimeType string, data []byte) (string, error)
}

type extractor struct{}

func New() Extractor {
	return &extractor{}
}

// Extract sniffs the content first and trusts the file name and MIME type only for
// plain text. Legacy binary Word files are not supported and yield ErrUnsupportedFormat,
// which callers treat as a cue to upload the document instead.
func (e *extractor) Extract(fileName, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty document %s: %w", fileName, ErrNoText)
	}

	var (
		text string
		err  error
	)

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		text, err = extractPDF(data)
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		text, err = extractOpenXML(data)
	case isPlainText(fileName, mimeType, data):
		text = string(data)
	default:
		return "", fmt.Errorf("%w: name=%s mime=%s", ErrUnsupportedFormat, fileName, mimeType)
	}
	if err != nil {
		return "", err
	}

	text = collapseWhitespace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", fileName, ErrNoText)
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return string(b), nil
}

// extractOpenXML reads <w:t> runs from a Word document or <a:t> runs from slides.
func extractOpenXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open zip container: %w", err)
	}

	var parts []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == "word/document.xml":
			parts = append(parts, f)
		case strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml"):
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: zip is neither docx nor pptx", ErrUnsupportedFormat)
	}

	var out strings.Builder
	for _, f := range parts {
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		err = collectText(rc, &out)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", f.Name, err)
		}
		out.WriteString("\n")
	}
	return out.String(), nil
}

func collectText(r io.Reader, out *strings.Builder) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "t" {
				continue
			}
			var v string
			if err := dec.DecodeElement(&v, &el); err != nil {
				return err
			}
			out.WriteString(v)
		case xml.EndElement:
			// Paragraph ends become spaces so words from adjacent paragraphs stay apart.
			if el.Name.Local == "p" {
				out.WriteString(" ")
			}
		}
	}
}

func isPlainText(fileName, mimeType string, data []byte) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if strings.HasPrefix(strings.ToLower(mimeType), "text/") || ext == ".txt" || ext == ".md" {
		return utf8.Valid(data)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	return utf8.Valid(data) && mimeType != mimePDF && mimeType != mimeDOCX && mimeType != mimePPTX
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u00a0", " ")), " ")
}
