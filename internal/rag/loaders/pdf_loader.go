package loaders

import (
	"context"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
)

// PdfLoader implements the Loader interface for PDF files.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load extracts the plain text of a PDF file.
func (l *PdfLoader) Load(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	content, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
