package utils

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/dannav/hhmmss"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ExtractPageTitle reads the video title from a watch page, preferring the
// og:title meta tag over the document title.
func ExtractPageTitle(ctx context.Context, client *http.Client, url string) (string, error) {
	slog.Debug("Extracting page title", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", res.Status)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", err
	}

	title := ""
	doc.Find(`meta[property="og:title"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok && title == "" {
			title = strings.TrimSpace(content)
		}
	})
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
		title = strings.TrimSpace(strings.TrimSuffix(title, "- YouTube"))
	}
	if title == "" {
		return "", fmt.Errorf("no title found")
	}
	return title, nil
}

// ParseClock turns "1:02:03", "4:13" or "59" into a duration.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	switch strings.Count(s, ":") {
	case 0:
		s = "00:00:" + s
	case 1:
		s = "00:" + s
	}
	return hhmmss.Parse(s)
}

// Tail returns at most the last n characters of s.
func Tail(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := len(s)
	for ; n > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}
