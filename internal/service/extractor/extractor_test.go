package extractor

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a single-page PDF that shows each line with T* between them. With
// brokenXref every cross-reference entry points at the catalog object.
func buildPDF(lines []string, brokenXref bool) []byte {
	var content strings.Builder
	content.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("T*\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		if brokenXref {
			off = offsets[0]
		}
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Cell biology</w:t></w:r></w:p>
    <w:p><w:r><w:t>covers the </w:t></w:r><w:r><w:t>structure of cells.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDOCX(t *testing.T) {
	data := buildZip(t, map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   documentXML,
	})

	text, err := New().Extract("lecture.docx", mimeDOCX, data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := "Cell biology covers the structure of cells."
	if text != want {
		t.Errorf("Expected %q, got %q", want, text)
	}
}

func TestExtractPlainText(t *testing.T) {
	text, err := New().Extract("notes.txt", "text/plain", []byte("  line one\n\nline\ttwo  "))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "line one line two" {
		t.Errorf("Expected collapsed whitespace, got %q", text)
	}
}

func TestExtractRejectsUnknownFormats(t *testing.T) {
	legacyDoc := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0x00, 0x00}

	_, err := New().Extract("old.doc", "application/msword", legacyDoc)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}

	zipWithoutDocument := buildZip(t, map[string]string{"readme.txt": "hello"})
	_, err = New().Extract("archive.zip", "application/zip", zipWithoutDocument)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for plain zip, got %v", err)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	_, err := New().Extract("empty.pdf", mimePDF, nil)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Expected ErrNoText, got %v", err)
	}

	blank := buildZip(t, map[string]string{"word/document.xml": `<w:document xmlns:w="x"><w:body/></w:document>`})
	_, err = New().Extract("blank.docx", mimeDOCX, blank)
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Expected ErrNoText for empty docx, got %v", err)
	}
}

func TestExtractPDF(t *testing.T) {
	data := buildPDF([]string{"Photosynthesis converts light", "into chemical   energy."}, false)

	text, err := New().Extract("lecture.pdf", mimePDF, data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := "Photosynthesis converts light into chemical energy."
	if text != want {
		t.Errorf("Expected %q, got %q", want, text)
	}

	// The content is sniffed, so a wrong name and MIME type do not matter.
	text, err = New().Extract("upload.bin", "application/octet-stream", data)
	if err != nil || text != want {
		t.Errorf("Expected %q from sniffed pdf, got %q (%v)", want, text, err)
	}
}

func TestExtractPDFWithoutText(t *testing.T) {
	_, err := New().Extract("scan.pdf", mimePDF, buildPDF(nil, false))
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Expected ErrNoText, got %v", err)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	valid := buildPDF([]string{"Some lecture text"}, false)

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", valid[:len(valid)/2]},
		{"missing startxref", bytes.Replace(valid, []byte("startxref"), []byte("startxxxx"), 1)},
		{"broken xref offsets", buildPDF([]string{"Some lecture text"}, true)},
		{"header only", append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{0xFF}, 200)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := New().Extract("broken.pdf", mimePDF, tt.data)
			if err == nil {
				t.Fatalf("Expected error, got text %q", text)
			}
			if errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Expected a parse error, got %v", err)
			}
		})
	}
}
