package normalise

import (
	"context"
	"testing"

	"github.com/ragify/ragify/internal/core/domain"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"trailing spaces", "a  \t\nb ", "a\nb"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"outer whitespace", "\n\n  a\n\n", "a"},
		{"leading indentation kept", "a\n    b", "a\n    b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProcessor_Process(t *testing.T) {
	p := New()
	if p.Name() != "normalise" {
		t.Errorf("unexpected name %q", p.Name())
	}

	doc := &domain.Document{Content: "x \r\n\r\n\r\ny"}
	in := []domain.Segment{{ID: "s"}}

	out, err := p.Process(context.Background(), doc, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "x\n\ny" {
		t.Errorf("unexpected content %q", doc.Content)
	}
	if len(out) != 1 || out[0].ID != "s" {
		t.Error("expected segments to pass through")
	}
}
