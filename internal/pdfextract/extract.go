// Package pdfextract pulls page-level text out of PDF files. Page numbers are
// the only provenance the retrieval layer needs for citations.
package pdfextract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dslipak/pdf" // Pure Go PDF text extractor
)

// Page holds the extracted text of a single PDF page, 1-based.
type Page struct {
	Number int
	Text   string
}

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the byte stream starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Pages extracts plain text per page. Pages with no extractable text are
// returned with empty Text so page numbering stays aligned with the source.
func Pages(data []byte) ([]Page, error) {
	r, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := r.NumPage()
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		text, err := pageText(page)
		if err != nil {
			// A single malformed page should not sink the document.
			pages = append(pages, Page{Number: i})
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	return pages, nil
}

// openReader converts parser panics on malformed files into errors.
func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("document parse failed: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(page pdf.Page) (text string, err error) {
	// dslipak/pdf panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page content parse failed: %v", r)
		}
	}()

	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			sb.WriteString(word.S)
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
