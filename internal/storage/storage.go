package storage

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kgytgo/internal/models"
)

var (
	ErrInvalidURL     = errors.New("that doesn't look like a valid YouTube URL")
	ErrNoFolder       = errors.New("no save folder selected")
	ErrInvalidFormat  = errors.New("unsupported format")
	ErrInvalidQuality = errors.New("unsupported quality")
	ErrNotFound       = errors.New("queue item not found")
	ErrNotPending     = errors.New("only pending items can be removed")
	ErrBusy           = errors.New("cannot clear queue while downloading")
	ErrBadTransition  = errors.New("invalid status transition")
)

var youtubeURL = regexp.MustCompile(`(?i)^(https?://)?(www\.)?(youtube\.com/(watch\?|shorts/|embed/)|youtu\.be/).+`)

// IsValidURL reports whether raw has the shape of a YouTube video link.
func IsValidURL(raw string) bool {
	return youtubeURL.MatchString(strings.TrimSpace(raw))
}

// Storage is the ordered download queue. The HTTP side appends, removes and
// clears; the runner walks it and moves items through their statuses.
type Storage struct {
	mu    sync.RWMutex
	queue []models.Request
}

func New() *Storage {
	return &Storage{queue: []models.Request{}}
}

func (s *Storage) Append(req models.Request) (string, error) {
	req.URL = strings.TrimSpace(req.URL)
	if !IsValidURL(req.URL) {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(req.Folder) == "" {
		return "", ErrNoFolder
	}
	if !req.Format.Valid() {
		return "", ErrInvalidFormat
	}
	if req.Quality == "" {
		req.Quality = models.QualityBest
	}
	if !req.Quality.Valid() {
		return "", ErrInvalidQuality
	}

	req.ID = uuid.NewString()
	req.Status = models.StatusPending
	req.DestinationPath = ""
	req.AddedAt = time.Now()

	s.mu.Lock()
	s.queue = append(s.queue, req)
	s.mu.Unlock()

	slog.Debug("Queued", "id", req.ID, "url", req.URL, "format", req.Format, "quality", req.Quality)
	return req.ID, nil
}

func (s *Storage) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	if s.queue[i].Status != models.StatusPending {
		return ErrNotPending
	}
	s.queue = append(s.queue[:i], s.queue[i+1:]...)
	return nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.queue {
		if req.Status == models.StatusActive {
			return ErrBusy
		}
	}
	s.queue = []models.Request{}
	return nil
}

// Snapshot returns a copy of the queue numbered from 1 in queue order.
func (s *Storage) Snapshot() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.Entry, len(s.queue))
	for i, req := range s.queue {
		entries[i] = models.Entry{Request: req, Position: i + 1}
	}
	return entries
}

func (s *Storage) Get(id string) (models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Entry{}, false
	}
	return models.Entry{Request: s.queue[i], Position: i + 1}, true
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.queue)
}

func (s *Storage) NextPending() (models.Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.queue {
		if req.Status == models.StatusPending {
			return req, true
		}
	}
	return models.Request{}, false
}

func (s *Storage) HasPending() bool {
	_, ok := s.NextPending()
	return ok
}

func (s *Storage) HasActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, req := range s.queue {
		if req.Status == models.StatusActive {
			return true
		}
	}
	return false
}

// Begin marks a pending request active.
func (s *Storage) Begin(id string) (models.Entry, error) {
	return s.transition(id, models.StatusActive, "")
}

// Finish moves an active request to success or failed. The destination path
// is only kept on success.
func (s *Storage) Finish(id string, status models.Status, destinationPath string) (models.Entry, error) {
	if status != models.StatusSuccess {
		destinationPath = ""
	}
	return s.transition(id, status, destinationPath)
}

func (s *Storage) transition(id string, next models.Status, destinationPath string) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Entry{}, ErrNotFound
	}
	if !s.queue[i].Status.CanTransition(next) {
		return models.Entry{}, ErrBadTransition
	}
	s.queue[i].Status = next
	if destinationPath != "" {
		s.queue[i].DestinationPath = destinationPath
	}
	return models.Entry{Request: s.queue[i], Position: i + 1}, nil
}

// Summary counts successful items against everything currently queued.
func (s *Storage) Summary() models.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := models.Summary{Total: len(s.queue)}
	for _, req := range s.queue {
		if req.Status == models.StatusSuccess {
			summary.Succeeded++
		}
	}
	return summary
}

func (s *Storage) indexOf(id string) int {
	for i, req := range s.queue {
		if req.ID == id {
			return i
		}
	}
	return -1
}
