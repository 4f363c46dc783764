package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/core/domain"
)

func slideXML(shapes ...[]string) string {
	var b strings.Builder
	b.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>`)
	for _, paras := range shapes {
		b.WriteString(`<p:sp><p:txBody>`)
		for _, p := range paras {
			fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, p)
		}
		b.WriteString(`</p:txBody></p:sp>`)
	}
	b.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func buildPPTX(t *testing.T, slides map[int]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for n, body := range slides {
		w, err := zw.Create(fmt.Sprintf("ppt/slides/slide%d.xml", n))
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	w, err := zw.Create("ppt/slides/_rels/slide1.xml.rels")
	require.NoError(t, err)
	_, err = w.Write([]byte("<Relationships/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractor_FileTypes(t *testing.T) {
	assert.Equal(t, []domain.FileType{domain.FileTypePPTX}, New().FileTypes())
}

func TestExtractor_Extract_ShapesInSlideOrder(t *testing.T) {
	content := buildPPTX(t, map[int]string{
		10: slideXML([]string{"Slide ten"}),
		2:  slideXML([]string{"Title two"}, []string{"Body line", "Second line"}),
		1:  slideXML([]string{"Intro"}),
	})

	docs, err := New().Extract(context.Background(), domain.NewFileSource("deck.pptx"), content)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, "Intro\nTitle two\nBody line\nSecond line\nSlide ten", docs[0].Content)
	assert.Equal(t, 3, docs[0].Metadata["slides"])
}

func TestExtractor_Extract_SkipsEmptyShapes(t *testing.T) {
	content := buildPPTX(t, map[int]string{
		1: slideXML([]string{""}, []string{"Only text"}),
	})

	docs, err := New().Extract(context.Background(), domain.NewFileSource("deck.pptx"), content)
	require.NoError(t, err)
	assert.Equal(t, "Only text", docs[0].Content)
}

func TestExtractor_Extract_NoSlides(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("ppt/presentation.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = New().Extract(context.Background(), domain.NewFileSource("deck.pptx"), buf.Bytes())
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtractor_Extract_Corrupt(t *testing.T) {
	_, err := New().Extract(context.Background(), domain.NewFileSource("deck.pptx"), []byte("nope"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}
