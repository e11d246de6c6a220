package ingest

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

// ErrNoText is returned when a source yields no extractable text.
var ErrNoText = errors.New("no text extracted from source")

var (
	// htmlPolicy strips every element; script, style and title bodies
	// are dropped with their tags.
	htmlPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

	spaceRe = regexp.MustCompile(`\s+`)
)

// Document is a loaded source ready for chunking.
type Document struct {
	Source string
	Type   string
	Text   string
}

// LoadPDF extracts plain text from a PDF file, page by page. Pages
// that fail to decode are skipped rather than failing the whole file.
func LoadPDF(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Int("page", i).Msg("Skipping unreadable PDF page")
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := normalizeWhitespace(sb.String())
	if text == "" {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNoText)
	}

	log.Info().Str("path", path).Int("pages", pages).Int("chars", len(text)).Msg("Loaded PDF document")
	return Document{Source: path, Type: "pdf", Text: text}, nil
}

// LoadTextFile reads a plain text source.
func LoadTextFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	text := normalizeWhitespace(string(data))
	if text == "" {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNoText)
	}
	return Document{Source: path, Type: "text", Text: text}, nil
}

// LoadWebPage fetches a URL and strips markup down to readable text.
func LoadWebPage(ctx context.Context, url string) (Document, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "insurance-voice-agent/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return Document{}, fmt.Errorf("read body of %s: %w", url, err)
	}

	text := StripHTML(string(body))
	if text == "" {
		return Document{}, fmt.Errorf("%s: %w", url, ErrNoText)
	}

	log.Info().Str("url", url).Int("chars", len(text)).Msg("Loaded web document")
	return Document{Source: url, Type: "web", Text: text}, nil
}

// StripHTML reduces markup to readable text and collapses the
// leftover whitespace.
func StripHTML(markup string) string {
	text := html.UnescapeString(htmlPolicy.Sanitize(markup))
	// Decoded non-breaking spaces fold into plain spaces.
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return normalizeWhitespace(text)
}

func normalizeWhitespace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
