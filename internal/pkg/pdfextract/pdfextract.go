package pdfextract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// ExtractFile reads the PDF at path and returns its plain text, one page per
// line block, together with the page count.
func ExtractFile(path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat pdf failed: %w", err)
	}
	return extract(f, info.Size())
}

func extract(r io.ReaderAt, size int64) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, pages, err = "", 0, fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", 0, fmt.Errorf("parse pdf failed: %w", err)
	}

	pages = pdfReader.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, fmt.Errorf("extract page %d failed: %w", i, err)
		}
		parts = append(parts, pageText)
	}
	return strings.Join(parts, "\n"), pages, nil
}

// Extractor degrades every extraction failure to an empty document.
type Extractor struct {
	logger *zerolog.Logger
}

func NewExtractor(logger *zerolog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

func (e *Extractor) Extract(path string) (string, int) {
	text, pages, err := ExtractFile(path)
	if err != nil {
		e.logger.Warn().Err(err).Str("path", path).Msg("pdf text extraction failed")
		return "", 0
	}
	return text, pages
}
