package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/core/domain"
)

func buildDOCX(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const documentXMLFixture = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The capital of France</w:t></w:r><w:r><w:t xml:space="preserve"> is Paris.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractor_FileTypes(t *testing.T) {
	assert.Equal(t, []domain.FileType{domain.FileTypeDOCX}, New().FileTypes())
}

func TestExtractor_Extract(t *testing.T) {
	content := buildDOCX(t, map[string]string{
		"word/document.xml": documentXMLFixture,
		"docProps/core.xml": `<cp:coreProperties xmlns:cp="c" xmlns:dc="d"><dc:title>Geography</dc:title></cp:coreProperties>`,
	})
	src := domain.NewFileSource("geo.docx")

	docs, err := New().Extract(context.Background(), src, content)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "The capital of France is Paris.\nSecond paragraph.", docs[0].Content)
	assert.Equal(t, "Geography", docs[0].Title)
	assert.Equal(t, "geo.docx", docs[0].SourceID)
}

func TestExtractor_Extract_TitleFallsBackToName(t *testing.T) {
	content := buildDOCX(t, map[string]string{"word/document.xml": documentXMLFixture})

	docs, err := New().Extract(context.Background(), domain.NewFileSource("my_notes.docx"), content)
	require.NoError(t, err)
	assert.Equal(t, "my notes", docs[0].Title)
}

func TestExtractor_Extract_NotAZip(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.NewFileSource("x.docx"), []byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtractor_Extract_MissingBody(t *testing.T) {
	content := buildDOCX(t, map[string]string{"other.xml": "<x/>"})

	_, err := New().Extract(context.Background(), domain.NewFileSource("x.docx"), content)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtractor_Extract_NilSource(t *testing.T) {
	_, err := New().Extract(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
