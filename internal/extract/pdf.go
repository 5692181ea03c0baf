package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFInfo holds document-level metadata extracted alongside the text.
type PDFInfo struct {
	NumPages int
}

func extractPDF(content []byte) (string, error) {
	text, _, err := extractPDFWithInfo(content)
	return text, err
}

// extractPDFWithInfo extracts the plain text of every page, joined by blank
// lines, plus page-count metadata. Pages that yield no text are skipped.
func extractPDFWithInfo(content []byte) (string, PDFInfo, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", PDFInfo{}, fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", PDFInfo{}, fmt.Errorf("extract page %d: %w", i, err)
		}
		if t := trimmed(text); t != "" {
			pages = append(pages, t)
		}
	}
	return join(pages, "\n\n"), PDFInfo{NumPages: numPages}, nil
}

// ExtractPDF extracts text and metadata from a PDF file's bytes.
func (e *Extractor) ExtractPDF(content []byte) (string, PDFInfo, error) {
	return extractPDFWithInfo(content)
}
