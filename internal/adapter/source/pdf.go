package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText extracts the plain text and a title from PDF bytes.
// The title comes from document metadata when present, otherwise fallback
// (typically the uploaded filename) is used. A PDF with no extractable text
// (scanned or image-based) is an error.
func ExtractPDFText(data []byte, fallbackTitle string) (text, title string, err error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("open pdf: %w", err)
	}

	title = strings.TrimSpace(fallbackTitle)
	if title == "" {
		title = "Uploaded PDF"
	}
	if info := reader.Trailer().Key("Info"); !info.IsNull() {
		if metaTitle := strings.TrimSpace(info.Key("Title").RawString()); metaTitle != "" {
			title = metaTitle
		}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", "", fmt.Errorf("extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", "", fmt.Errorf("read pdf text: %w", err)
	}

	text = strings.TrimSpace(sb.String())
	if text == "" {
		return "", "", fmt.Errorf("no readable text found in PDF, the file may be scanned or image-based")
	}
	return text, title, nil
}
