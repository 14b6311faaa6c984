package loaders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcscroggins/water-institute-chatbot/internal/rag/schema"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDirectoryKindsAndNames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "faculty_txt", "Matthew_Cohen.txt"), "Studies watershed hydrology.")
	writeFile(t, filepath.Join(root, "general_info", "travel_awards.txt"), "Student travel awards are offered twice a year.")
	writeFile(t, filepath.Join(root, "general_info", "notes.bin"), "ignored")

	docs, loadErrs, err := LoadDirectory(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, loadErrs)
	require.Len(t, docs, 2)

	byID := map[string]*schema.SourceDocument{}
	for _, d := range docs {
		byID[d.ID] = d
	}

	faculty := byID["faculty_Matthew_Cohen"]
	require.NotNil(t, faculty)
	assert.Equal(t, schema.KindFaculty, faculty.Kind)
	assert.Equal(t, "Matthew Cohen", faculty.DisplayName)
	assert.Equal(t, "Matthew_Cohen.txt", faculty.FileName)
	assert.Equal(t, "Studies watershed hydrology.", faculty.RawText)

	general := byID["general_travel_awards"]
	require.NotNil(t, general)
	assert.Equal(t, schema.KindGeneral, general.Kind)
	assert.Equal(t, "Water Institute - Travel Awards", general.DisplayName)
	assert.Equal(t, "travel_awards.txt", general.FileName)
}

func TestTitleCaseMultibyte(t *testing.T) {
	assert.Equal(t, "Água Quality", titleCase("água quality"))
	assert.Equal(t, "Travel Awards", titleCase("travel awards"))
	assert.Equal(t, "", titleCase(""))
}

func TestLoadDirectoryDeterministicIDs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "faculty_txt", "Jane_Rivers.txt"), "Hydrology.")

	first, _, err := LoadDirectory(context.Background(), root)
	require.NoError(t, err)
	second, _, err := LoadDirectory(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestMarkdownLoaderStripsImages(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "profile.md")
	writeFile(t, path, "# Jane\n\n![portrait](jane.png)\n\nStudies springs.")

	text, err := NewMarkdownLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.NotContains(t, text, "jane.png")
	assert.Contains(t, text, "Studies springs.")
}

func TestForPathUnsupported(t *testing.T) {
	assert.Nil(t, ForPath("archive.zip"))
	assert.NotNil(t, ForPath("profile.TXT"))
	assert.NotNil(t, ForPath("metrics.xlsx"))
	assert.NotNil(t, ForPath("paper.pdf"))
}
