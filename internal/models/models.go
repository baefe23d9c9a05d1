package models

import "time"

type Format string

const (
	FormatVideo Format = "mp4"
	FormatAudio Format = "mp3"
)

func (f Format) Valid() bool {
	return f == FormatVideo || f == FormatAudio
}

type Quality string

const (
	QualityBest  Quality = "Best"
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
)

// Qualities returns the tiers from highest to lowest.
func Qualities() []Quality {
	return []Quality{QualityBest, Quality1080p, Quality720p, Quality480p, Quality360p}
}

func (q Quality) Valid() bool {
	for _, tier := range Qualities() {
		if q == tier {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransition reports whether s may move to next. Requests only ever go
// pending -> active -> success|failed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusActive
	case StatusActive:
		return next.IsTerminal()
	default:
		return false
	}
}

type Request struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	Format          Format    `json:"format"`
	Quality         Quality   `json:"quality"`
	Title           string    `json:"title"`
	Folder          string    `json:"folder"`
	Status          Status    `json:"status"`
	DestinationPath string    `json:"destinationPath,omitempty"`
	AddedAt         time.Time `json:"addedAt"`
}

func (r Request) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.URL
}

// Entry is a request together with its 1-based display position.
type Entry struct {
	Request
	Position int `json:"position"`
}

type Options struct {
	PlaylistMode   bool
	EmbedThumbnail bool
	EmbedMetadata  bool
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

type HistoryRecord struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Format   Format  `json:"format"`
	SavePath string  `json:"savePath"`
	Date     string  `json:"date"`
	Outcome  Outcome `json:"outcome"`
}

type Summary struct {
	Succeeded int `json:"succeeded"`
	Total     int `json:"total"`
}

type EventType string

const (
	EventStatus   EventType = "status"
	EventLog      EventType = "log"
	EventFinished EventType = "finished"
	EventQueue    EventType = "queue"
)

type Event struct {
	Type    EventType `json:"type"`
	Entry   *Entry    `json:"entry,omitempty"`
	Line    string    `json:"line,omitempty"`
	Summary *Summary  `json:"summary,omitempty"`
}

type VideoInfo struct {
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration"`
}
