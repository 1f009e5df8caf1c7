package source

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var videoIDPattern = regexp.MustCompile(`(?:v=|/v/|youtu\.be/|/embed/|/shorts/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID pulls the 11-character video ID out of the common YouTube
// URL shapes (watch, youtu.be, embed, shorts). Returns "" when no ID is found.
func ExtractVideoID(rawURL string) string {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// YouTubeSource fetches transcripts and titles without an API key, using the
// public timedtext and oEmbed endpoints.
type YouTubeSource struct {
	httpClient *http.Client
}

// NewYouTubeSource creates a YouTube source adapter.
func NewYouTubeSource() *YouTubeSource {
	return &YouTubeSource{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// FetchTitle attempts to resolve the video title via oEmbed. Falls back to a
// generic title when the lookup fails; a missing title never blocks ingestion.
func (y *YouTubeSource) FetchTitle(ctx context.Context, videoID string) string {
	fallback := "YouTube Video " + videoID

	oembedURL := "https://www.youtube.com/oembed?format=json&url=" +
		url.QueryEscape("https://www.youtube.com/watch?v="+videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return fallback
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Title == "" {
		return fallback
	}
	return payload.Title
}

// FetchTranscript downloads and flattens the English caption track for a
// video. Bracketed artifacts like [Music] are stripped and whitespace is
// collapsed.
func (y *YouTubeSource) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	endpoint := "https://video.google.com/timedtext?lang=en&v=" + url.QueryEscape(videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch transcript: unexpected status %d", resp.StatusCode)
	}

	var track struct {
		Texts []struct {
			Value string `xml:",chardata"`
		} `xml:"text"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&track); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	if len(track.Texts) == 0 {
		return "", fmt.Errorf("no transcript found for video %s", videoID)
	}

	parts := make([]string, 0, len(track.Texts))
	for _, t := range track.Texts {
		parts = append(parts, html.UnescapeString(t.Value))
	}
	return CleanTranscript(strings.Join(parts, " ")), nil
}

var (
	bracketPattern    = regexp.MustCompile(`\[.*?\]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanTranscript removes caption artifacts ([Music], [Applause]) and
// collapses runs of whitespace.
func CleanTranscript(text string) string {
	text = bracketPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
