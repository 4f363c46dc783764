package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/extractors/fetch"
)

const page = `<!DOCTYPE html>
<html>
<head><title> France facts </title><style>body { color: red }</style></head>
<body>
  <nav>Home</nav>
  <h1>Capitals</h1>
  <p>The capital of   France is <b>Paris</b>.</p>
  <script>var hidden = "do not index";</script>
  <ul><li>Lyon</li><li>Marseille</li></ul>
</body>
</html>`

type stubPDF struct {
	called bool
}

func (s *stubPDF) Extract(_ context.Context, src *domain.Source, content []byte) ([]domain.Document, error) {
	s.called = true
	return []domain.Document{{SourceID: src.ID, Content: string(content[:4])}}, nil
}

func serve(t *testing.T, contentType, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestExtractor_Extract_HTML(t *testing.T) {
	url := serve(t, "text/html; charset=utf-8", page)

	docs, err := New(fetch.NewClient(fetch.Options{}), nil).Extract(context.Background(), domain.NewWebSource(url), nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "France facts", doc.Title)
	assert.Equal(t, "Home\nCapitals\nThe capital of France is Paris.\nLyon\nMarseille", doc.Content)
	assert.NotContains(t, doc.Content, "do not index")
	assert.NotContains(t, doc.Content, "color")
	assert.Equal(t, url, doc.SourceID)
	assert.Equal(t, url, doc.URI)
}

func TestExtractor_Extract_PlainText(t *testing.T) {
	url := serve(t, "text/plain", "just text")

	docs, err := New(fetch.NewClient(fetch.Options{}), nil).Extract(context.Background(), domain.NewWebSource(url), nil)
	require.NoError(t, err)
	assert.Equal(t, "just text", docs[0].Content)
}

func TestExtractor_Extract_DelegatesPDF(t *testing.T) {
	url := serve(t, "application/octet-stream", "%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")
	pdf := &stubPDF{}

	docs, err := New(fetch.NewClient(fetch.Options{}), pdf).Extract(context.Background(), domain.NewWebSource(url), nil)
	require.NoError(t, err)
	assert.True(t, pdf.called)
	assert.Equal(t, "%PDF", docs[0].Content)
}

func TestExtractor_Extract_InvalidScheme(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "example.com", "javascript:alert(1)"} {
		_, err := New(fetch.NewClient(fetch.Options{}), nil).Extract(context.Background(), domain.NewWebSource(raw), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidURL, raw)
	}
}

func TestExtractor_Extract_FetchFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(fetch.NewClient(fetch.Options{}), nil).Extract(context.Background(), domain.NewWebSource(server.URL), nil)
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestExtractor_Extract_UnsupportedContent(t *testing.T) {
	url := serve(t, "image/png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	_, err := New(fetch.NewClient(fetch.Options{}), nil).Extract(context.Background(), domain.NewWebSource(url), nil)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestHTMLText_Latin1(t *testing.T) {
	body := []byte("<html><body><p>caf\xe9</p></body></html>")

	_, text, err := HTMLText(body, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}
