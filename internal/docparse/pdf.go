// Package docparse decodes binary document formats (PDF, DOCX) into
// plain text for the pipeline.
package docparse

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFResult is the extracted text plus the page count for metadata.
type PDFResult struct {
	Text  string
	Pages int
}

// ParsePDF extracts text from a PDF body page by page. Pages whose text
// extraction fails are skipped rather than failing the document.
func ParsePDF(body []byte) (*PDFResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, fmt.Errorf("pdf has no extractable text (%d pages)", pages)
	}
	return &PDFResult{Text: text, Pages: pages}, nil
}

// IsPDF reports whether body starts with the PDF magic bytes.
func IsPDF(body []byte) bool {
	return bytes.HasPrefix(body, []byte("%PDF-"))
}
