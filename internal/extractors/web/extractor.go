// Package web extracts the visible text of web pages.
package web

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
	"github.com/ragify/ragify/internal/extractors/fetch"
	"github.com/ragify/ragify/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor fetches a URL and extracts its text.
// HTML pages are reduced to their visible text, PDF responses are handed
// to the PDF extractor and other text/* responses are taken verbatim.
type Extractor struct {
	client *resty.Client
	pdf    driven.Extractor
}

// New creates a web extractor. pdf may be nil, in which case PDF
// responses fail extraction.
func New(client *resty.Client, pdf driven.Extractor) *Extractor {
	return &Extractor{client: client, pdf: pdf}
}

// Extract fetches src.URL and returns its text as documents.
func (e *Extractor) Extract(ctx context.Context, src *domain.Source, _ []byte) ([]domain.Document, error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}
	if !domain.IsHTTPURL(src.URL) {
		return nil, fmt.Errorf("%w: %q must start with http:// or https://", domain.ErrInvalidURL, src.URL)
	}

	resp, err := fetch.Get(ctx, e.client, src.URL, nil)
	if err != nil {
		return nil, err
	}

	mime := contentType(resp)
	switch {
	case mime.Is("application/pdf"):
		if e.pdf == nil {
			return nil, document.Failed("web", fmt.Errorf("pdf content at %s", src.URL))
		}
		return e.pdf.Extract(ctx, src, resp.Body)
	case mime.Is("text/html"), mime.Is("application/xhtml+xml"):
		title, text, err := HTMLText(resp.Body, resp.ContentType)
		if err != nil {
			return nil, document.Failed("web", err)
		}
		return []domain.Document{document.New(src, 0, title, text, map[string]any{
			"content_type": mime.String(),
			"final_url":    resp.FinalURL,
		})}, nil
	case strings.HasPrefix(mime.String(), "text/"):
		text, err := plaintext.Decode(resp.Body, resp.ContentType)
		if err != nil {
			return nil, document.Failed("web", err)
		}
		return []domain.Document{document.New(src, 0, src.URL, text, map[string]any{
			"content_type": mime.String(),
		})}, nil
	default:
		return nil, document.Failed("web", fmt.Errorf("unsupported content type %s", mime.String()))
	}
}

// contentType sniffs the body; the declared header only breaks ties when
// sniffing finds nothing more specific than plain text.
func contentType(resp *fetch.Response) *mimetype.MIME {
	detected := mimetype.Detect(resp.Body)
	if detected.Is("text/plain") && strings.Contains(strings.ToLower(resp.ContentType), "html") {
		return mimetype.Lookup("text/html")
	}
	return detected
}

// skipped elements never contribute visible text.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "head": true, "canvas": true,
}

// blocks start on a new line.
var blocks = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

// HTMLText parses an HTML page and returns its title and visible text.
// Block elements produce line breaks; whitespace runs inside a line collapse.
func HTMLText(body []byte, contentType string) (string, string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", "", err
	}
	root, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped[n.Data] {
				return
			}
			if blocks[n.Data] {
				b.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blocks[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(root)

	return findTitle(root), collapse(b.String()), nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// collapse squeezes whitespace inside lines and drops empty lines.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}
