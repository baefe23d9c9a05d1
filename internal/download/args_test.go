package download

import (
	"path/filepath"
	"slices"
	"testing"

	"kgytgo/internal/models"
)

func TestFormatSelectorIsTotalAndDistinct(t *testing.T) {
	seen := map[string]models.Quality{}
	for _, q := range models.Qualities() {
		sel := FormatSelector(q)
		if sel == "" {
			t.Fatalf("Empty selector for %s", q)
		}
		if other, dup := seen[sel]; dup {
			t.Errorf("%s and %s share selector %q", q, other, sel)
		}
		seen[sel] = q
		if FormatSelector(q) != sel {
			t.Errorf("Selector for %s is not stable", q)
		}
	}

	if FormatSelector("bogus") != FormatSelector(models.QualityBest) {
		t.Error("Expected unknown quality to fall back to Best")
	}
}

func TestFormatSelectorValues(t *testing.T) {
	tests := map[models.Quality]string{
		models.QualityBest:  "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		models.Quality1080p: "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080]",
		models.Quality720p:  "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720]",
		models.Quality480p:  "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480]",
		models.Quality360p:  "bestvideo[height<=360][ext=mp4]+bestaudio[ext=m4a]/best[height<=360]",
	}
	for q, want := range tests {
		if got := FormatSelector(q); got != want {
			t.Errorf("FormatSelector(%s) = %q, expected %q", q, got, want)
		}
	}
}

func TestBuildArgsVideo(t *testing.T) {
	req := models.Request{
		URL:     "https://www.youtube.com/watch?v=abc123",
		Format:  models.FormatVideo,
		Quality: models.Quality720p,
		Folder:  "/tmp/out",
	}
	opts := models.Options{EmbedThumbnail: true, EmbedMetadata: true}

	got := BuildArgs(req, opts, "/opt/bin")
	want := []string{
		"--newline",
		"-f", FormatSelector(models.Quality720p),
		"--merge-output-format", "mp4",
		"--ffmpeg-location", "/opt/bin",
		"--no-playlist",
		"--add-metadata",
		"-o", filepath.Join("/tmp/out", "%(title)s.%(ext)s"),
		"https://www.youtube.com/watch?v=abc123",
	}
	if !slices.Equal(got, want) {
		t.Errorf("BuildArgs() =\n%q\nexpected\n%q", got, want)
	}
}

func TestBuildArgsAudio(t *testing.T) {
	req := models.Request{
		URL:    "https://youtu.be/abc123",
		Format: models.FormatAudio,
		Folder: "/music",
	}
	opts := models.Options{PlaylistMode: true, EmbedThumbnail: true, EmbedMetadata: false}

	got := BuildArgs(req, opts, "/opt/bin")
	want := []string{
		"--newline",
		"-x", "--audio-format", "mp3", "--audio-quality", "0",
		"--ffmpeg-location", "/opt/bin",
		"--embed-thumbnail", "--convert-thumbnails", "jpg",
		"-o", filepath.Join("/music", "%(title)s.%(ext)s"),
		"https://youtu.be/abc123",
	}
	if !slices.Equal(got, want) {
		t.Errorf("BuildArgs() =\n%q\nexpected\n%q", got, want)
	}
}

func TestBuildArgsAudioIgnoresQuality(t *testing.T) {
	base := models.Request{URL: "https://youtu.be/x", Format: models.FormatAudio, Folder: "/m"}
	opts := models.Options{}

	first := base
	first.Quality = models.QualityBest
	second := base
	second.Quality = models.Quality360p

	if !slices.Equal(BuildArgs(first, opts, "/b"), BuildArgs(second, opts, "/b")) {
		t.Error("Expected audio arguments to ignore quality")
	}
	if slices.Contains(BuildArgs(first, opts, "/b"), "-f") {
		t.Error("Expected no format selector for audio")
	}
}
