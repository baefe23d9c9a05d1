package download

import (
	"strings"
	"unicode/utf8"

	"kgytgo/internal/utils"
)

const errorTailSize = 400

var destinationMarkers = []string{"Destination:", "Merging formats into"}

// DestinationPath pulls the file path out of a downloader progress line such
// as `[download] Destination: /out/x.mp4` or
// `[Merger] Merging formats into "/out/x.mp4"`.
func DestinationPath(line string) (string, bool) {
	for _, marker := range destinationMarkers {
		i := strings.Index(line, marker)
		if i < 0 {
			continue
		}
		path := strings.TrimSpace(line[i+len(marker):])
		path = strings.Trim(path, `"`)
		if path == "" {
			return "", false
		}
		return path, true
	}
	return "", false
}

// Classify turns downloader error output into a short message. Checks run in
// a fixed order and the first hit wins.
func Classify(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "Private video"):
		return "This video is private and cannot be downloaded."
	case strings.Contains(lower, "age") && strings.Contains(lower, "restricted"):
		return "This video is age-restricted. Sign-in is required."
	case strings.Contains(lower, "not available in your country"):
		return "This video is not available in your region."
	case strings.Contains(text, "This live event will begin"):
		return "This is a scheduled livestream that hasn't started yet."
	case strings.Contains(text, "This video is available to this channel"):
		return "This video requires a channel membership."
	case text == "":
		return "Unknown error."
	default:
		return utils.Tail(text, errorTailSize)
	}
}

// errorLines narrows downloader output to its ERROR: lines. Routine lines
// such as "Downloading webpage" would otherwise satisfy the age check. Output
// without any ERROR: line is returned unchanged.
func errorLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "ERROR:") {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, "\n")
}

// outputTail keeps the most recent output of a run for error classification.
type outputTail struct {
	buf   []byte
	limit int
}

func newOutputTail(limit int) *outputTail {
	return &outputTail{limit: limit}
}

func (t *outputTail) Add(line string) {
	t.buf = append(t.buf, line...)
	t.buf = append(t.buf, '\n')
	if over := len(t.buf) - t.limit; over > 0 {
		for over < len(t.buf) && !utf8.RuneStart(t.buf[over]) {
			over++
		}
		t.buf = t.buf[over:]
	}
}

func (t *outputTail) String() string {
	return strings.TrimSpace(string(t.buf))
}
