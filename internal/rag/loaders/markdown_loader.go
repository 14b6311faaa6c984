package loaders

import (
	"context"
	"os"
	"regexp"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
)

// MarkdownLoader implements the Loader interface for Markdown (.md) files.
// Image references are stripped; only the text is embeddable.
type MarkdownLoader struct{}

// NewMarkdownLoader creates a new MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

// imageRegex matches Markdown image syntax (e.g., ![alt text](path/to/image.jpg))
var imageRegex = regexp.MustCompile(`!\[.*?\]\(.*?\)`)

// Load reads a Markdown file and returns its text with image tags removed.
func (l *MarkdownLoader) Load(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return imageRegex.ReplaceAllString(string(content), ""), nil
}

// compile-time check to ensure MarkdownLoader implements the Loader interface
var _ interfaces.Loader = (*MarkdownLoader)(nil)
