// Package youtube extracts video transcripts from caption tracks.
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/extractors/document"
	"github.com/ragify/ragify/internal/extractors/fetch"
	"github.com/ragify/ragify/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultBaseURL is the site watch pages are fetched from.
const DefaultBaseURL = "https://www.youtube.com"

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Extractor resolves a video's transcript.
type Extractor struct {
	client   *resty.Client
	baseURL  string
	language string
}

// Option configures the extractor.
type Option func(*Extractor)

// WithBaseURL overrides the site watch pages are fetched from.
func WithBaseURL(u string) Option {
	return func(e *Extractor) {
		if u != "" {
			e.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithLanguage sets the preferred caption language.
func WithLanguage(lang string) Option {
	return func(e *Extractor) {
		if lang != "" {
			e.language = lang
		}
	}
}

// New creates a transcript extractor.
func New(client *resty.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client:   client,
		baseURL:  DefaultBaseURL,
		language: "en",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the watch page, picks a caption track and returns the
// transcript as a single document, caption segments joined by spaces.
func (e *Extractor) Extract(ctx context.Context, src *domain.Source, _ []byte) ([]domain.Document, error) {
	if src == nil {
		return nil, domain.ErrInvalidInput
	}

	videoID, err := VideoID(src.URL)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"Accept-Language": e.language}
	page, err := fetch.Get(ctx, e.client, e.baseURL+"/watch?v="+videoID, headers)
	if err != nil {
		return nil, err
	}

	tracks, title, err := parseWatchPage(page.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %v", domain.ErrTranscriptUnavailable, videoID, err)
	}
	track := pickTrack(tracks, e.language)
	logger.Debug("youtube %s: %d caption tracks, using %s (%s)", videoID, len(tracks), track.LanguageCode, track.Kind)

	captions, err := fetch.Get(ctx, e.client, track.BaseURL, headers)
	if err != nil {
		return nil, err
	}
	text, err := parseTimedText(captions.Body)
	if err != nil {
		return nil, document.Failed("transcript", err)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: video %s: empty transcript", domain.ErrTranscriptUnavailable, videoID)
	}

	doc := document.New(src, 0, title, text, map[string]any{
		"video_id": videoID,
		"language": track.LanguageCode,
	})
	return []domain.Document{doc}, nil
}

// VideoID extracts the 11 character video ID from the accepted URL forms:
// youtube.com/watch?v=, youtu.be/, youtube.com/shorts/ and youtube.com/embed/.
func VideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !domain.IsHTTPURL(raw) {
		return "", fmt.Errorf("%w: %q must start with http:// or https://", domain.ErrInvalidURL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"),
			strings.HasPrefix(u.Path, "/embed/"),
			strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) >= 2 {
				id = parts[1]
			}
		}
	default:
		return "", fmt.Errorf("%w: %q is not a YouTube URL", domain.ErrInvalidURL, raw)
	}

	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %q", domain.ErrInvalidURL, raw)
	}
	return id, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

var titlePattern = regexp.MustCompile(`"videoDetails":\{[^}]*?"title":"((?:[^"\\]|\\.)*)"`)

// parseWatchPage reads the caption track list embedded in the player
// response of a watch page.
func parseWatchPage(body []byte) ([]captionTrack, string, error) {
	page := string(body)

	const marker = `"captionTracks":`
	idx := strings.Index(page, marker)
	if idx < 0 {
		return nil, "", errors.New("no caption tracks")
	}
	array, err := jsonArrayAt(page[idx+len(marker):])
	if err != nil {
		return nil, "", err
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(array), &tracks); err != nil {
		return nil, "", fmt.Errorf("decode caption tracks: %w", err)
	}
	valid := tracks[:0]
	for _, t := range tracks {
		if t.BaseURL != "" {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil, "", errors.New("no caption tracks")
	}

	title := ""
	if m := titlePattern.FindStringSubmatch(page); m != nil {
		var s string
		if json.Unmarshal([]byte(`"`+m[1]+`"`), &s) == nil {
			title = s
		}
	}

	return valid, title, nil
}

// jsonArrayAt returns the JSON array that s starts with.
func jsonArrayAt(s string) (string, error) {
	s = strings.TrimLeft(s, " ")
	if !strings.HasPrefix(s, "[") {
		return "", errors.New("malformed caption tracks")
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return "", errors.New("unterminated caption tracks")
}

// pickTrack prefers the requested language, then the first manually
// created track, then the first track.
func pickTrack(tracks []captionTrack, language string) captionTrack {
	for _, t := range tracks {
		if strings.EqualFold(t.LanguageCode, language) && t.Kind != "asr" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.EqualFold(t.LanguageCode, language) {
			return t
		}
	}
	for _, t := range tracks {
		if t.Kind != "asr" {
			return t
		}
	}
	return tracks[0]
}

type timedText struct {
	Texts []struct {
		Content string `xml:",chardata"`
	} `xml:"text"`
}

// parseTimedText joins the caption segments of a timed-text document.
func parseTimedText(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		// Caption text is HTML-escaped a second time inside the XML.
		text := strings.Join(strings.Fields(html.UnescapeString(t.Content)), " ")
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
