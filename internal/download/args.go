package download

import (
	"path/filepath"

	"kgytgo/internal/models"
)

const outputPattern = "%(title)s.%(ext)s"

var formatSelectors = map[models.Quality]string{
	models.QualityBest:  "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
	models.Quality1080p: "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080]",
	models.Quality720p:  "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720]",
	models.Quality480p:  "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480]",
	models.Quality360p:  "bestvideo[height<=360][ext=mp4]+bestaudio[ext=m4a]/best[height<=360]",
}

// FormatSelector maps a quality tier to the downloader's -f expression.
// Anything unrecognised gets the Best selector.
func FormatSelector(q models.Quality) string {
	if sel, ok := formatSelectors[q]; ok {
		return sel
	}
	return formatSelectors[models.QualityBest]
}

func OutputTemplate(folder string) string {
	return filepath.Join(folder, outputPattern)
}

// BuildArgs assembles the downloader argument list for one request.
func BuildArgs(req models.Request, opts models.Options, muxerDir string) []string {
	args := []string{"--newline"}
	if req.Format == models.FormatAudio {
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "0")
	} else {
		args = append(args, "-f", FormatSelector(req.Quality), "--merge-output-format", "mp4")
	}
	args = append(args, "--ffmpeg-location", muxerDir)

	if !opts.PlaylistMode {
		args = append(args, "--no-playlist")
	}
	// thumbnails are only embedded into audio files
	if req.Format == models.FormatAudio && opts.EmbedThumbnail {
		args = append(args, "--embed-thumbnail", "--convert-thumbnails", "jpg")
	}
	if opts.EmbedMetadata {
		args = append(args, "--add-metadata")
	}

	return append(args, "-o", OutputTemplate(req.Folder), req.URL)
}
