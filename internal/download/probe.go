package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"kgytgo/internal/models"
	"kgytgo/internal/storage"
	"kgytgo/internal/utils"
)

const DefaultProbeTimeout = 15 * time.Second

// Prober looks up a video's title before it is queued. It runs the
// downloader in metadata-only mode and falls back to the watch page.
type Prober struct {
	bins    Binaries
	timeout time.Duration
	client  *http.Client
	output  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewProber(bins Binaries, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		bins:    bins,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		output:  commandOutput,
	}
}

func commandOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.Output()
}

func ProbeArgs(url string) []string {
	return []string{"--no-playlist", "--print", "title", "--print", "duration_string", "--no-download", url}
}

func (p *Prober) Probe(ctx context.Context, url string) (models.VideoInfo, error) {
	url = strings.TrimSpace(url)
	if !storage.IsValidURL(url) {
		return models.VideoInfo{}, storage.ErrInvalidURL
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.output(ctx, p.bins.Downloader, ProbeArgs(url)...)
	if err == nil {
		if info := parseProbeOutput(string(out)); info.Title != "" {
			return info, nil
		}
		err = errors.New("downloader printed no title")
	}
	slog.Debug("Title probe failed, trying watch page", "url", url, "error", err)

	title, pageErr := utils.ExtractPageTitle(ctx, p.client, url)
	if pageErr != nil {
		return models.VideoInfo{}, fmt.Errorf("resolve title: %w", errors.Join(err, pageErr))
	}
	return models.VideoInfo{Title: title}, nil
}

func parseProbeOutput(out string) models.VideoInfo {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var info models.VideoInfo
	if len(lines) > 0 {
		info.Title = lines[0]
	}
	if len(lines) > 1 {
		if d, err := utils.ParseClock(lines[1]); err == nil {
			info.Duration = d
		}
	}
	return info
}
