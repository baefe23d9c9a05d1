package download

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	downloaderName = "yt-dlp"
	muxerName      = "ffmpeg"
)

// Binaries points at the bundled downloader and muxer executables.
type Binaries struct {
	Downloader string
	Muxer      string
}

func LocateBinaries(dir string) Binaries {
	return Binaries{
		Downloader: filepath.Join(dir, executableName(downloaderName)),
		Muxer:      filepath.Join(dir, executableName(muxerName)),
	}
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// MuxerDir is what the downloader receives as --ffmpeg-location.
func (b Binaries) MuxerDir() string {
	return filepath.Dir(b.Muxer)
}

type MissingBinariesError struct {
	Paths []string
}

func (e *MissingBinariesError) Error() string {
	return fmt.Sprintf("required binaries not found: %s", strings.Join(e.Paths, ", "))
}

func (b Binaries) Check() error {
	var missing []string
	for _, path := range []string{b.Downloader, b.Muxer} {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return &MissingBinariesError{Paths: missing}
	}
	return nil
}
