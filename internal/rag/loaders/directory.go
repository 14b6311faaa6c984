package loaders

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

// GeneralInfoDir is the directory name whose files are ingested as
// institute-wide topics instead of faculty profiles.
const GeneralInfoDir = "general_info"

// LoadError records a file that could not be read. Unreadable files do not
// abort a directory scan.
type LoadError struct {
	Path string
	Err  error
}

func (e LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

// ForPath returns the loader matching the file extension, or nil for
// unsupported files.
func ForPath(path string) interfaces.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return NewTxtLoader()
	case ".md":
		return NewMarkdownLoader()
	case ".pdf":
		return NewPdfLoader()
	case ".xlsx":
		return NewXlsxLoader()
	default:
		return nil
	}
}

// LoadDirectory walks the data tree under root and returns one SourceDocument
// per supported file. Files inside a "general_info" directory become
// kind=general with a "Water Institute - {Topic}" citation label; everything
// else is a faculty profile whose label is the file stem with underscores
// replaced by spaces. Unsupported extensions are skipped silently; read
// failures are collected and returned alongside the successfully loaded set.
func LoadDirectory(ctx context.Context, root string) ([]*schema.SourceDocument, []LoadError, error) {
	var docs []*schema.SourceDocument
	var loadErrs []LoadError

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		loader := ForPath(path)
		if loader == nil {
			return nil
		}

		text, err := loader.Load(ctx, path)
		if err != nil {
			loadErrs = append(loadErrs, LoadError{Path: path, Err: err})
			return nil
		}

		docs = append(docs, newSourceDocument(root, path, text))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking data directory '%s': %w", root, err)
	}

	return docs, loadErrs, nil
}

func newSourceDocument(root, path, text string) *schema.SourceDocument {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	kind := schema.KindFaculty
	if isGeneralInfo(root, path) {
		kind = schema.KindGeneral
	}

	name := strings.ReplaceAll(stem, "_", " ")
	display := name
	if kind == schema.KindGeneral {
		display = "Water Institute - " + titleCase(name)
	}

	return &schema.SourceDocument{
		ID:          kind + "_" + stem,
		Kind:        kind,
		DisplayName: display,
		FileName:    filepath.Base(path),
		RawText:     text,
	}
}

// isGeneralInfo reports whether any path element between root and the file is
// the general-info directory.
func isGeneralInfo(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == GeneralInfoDir {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
