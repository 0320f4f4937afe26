package pdftext

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Extract pulls the plain text out of a PDF held in memory.
func Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var sb bytes.Buffer
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	return sb.String(), nil
}
