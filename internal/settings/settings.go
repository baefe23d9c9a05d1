package settings

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"kgytgo/internal/models"
)

const fileName = "settings.json"

// Settings is the small option document restored at startup and rewritten
// whenever one of the options changes.
type Settings struct {
	LastFolder     string         `json:"last_folder"`
	Format         models.Format  `json:"format"`
	Quality        models.Quality `json:"quality"`
	EmbedThumbnail bool           `json:"embed_thumbnail"`
	EmbedMetadata  bool           `json:"embed_metadata"`
	PlaylistMode   bool           `json:"playlist_mode"`
}

func Defaults() Settings {
	return Settings{
		LastFolder:     "",
		Format:         models.FormatVideo,
		Quality:        models.QualityBest,
		EmbedThumbnail: true,
		EmbedMetadata:  true,
		PlaylistMode:   false,
	}
}

type Store struct {
	mu       sync.RWMutex
	filePath string
	current  Settings
}

func New(dataDir string) *Store {
	if err := os.MkdirAll(dataDir, os.ModePerm); err != nil {
		slog.Warn("Could not create data directory", "dir", dataDir, "error", err)
	}

	store := &Store{filePath: filepath.Join(dataDir, fileName)}
	current, err := store.load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not load settings, using defaults", "error", err)
		}
		current = Defaults()
	}
	store.current = current
	return store
}

func (s *Store) load() (Settings, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		return Settings{}, err
	}
	defer file.Close()

	loaded := Defaults()
	if err := json.NewDecoder(file).Decode(&loaded); err != nil {
		return Settings{}, err
	}
	return sanitize(loaded), nil
}

func sanitize(s Settings) Settings {
	def := Defaults()
	if !s.Format.Valid() {
		s.Format = def.Format
	}
	if !s.Quality.Valid() {
		s.Quality = def.Quality
	}
	return s
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Options returns the per-download flags the runner reads for each request.
func (s *Store) Options() models.Options {
	current := s.Get()
	return models.Options{
		PlaylistMode:   current.PlaylistMode,
		EmbedThumbnail: current.EmbedThumbnail,
		EmbedMetadata:  current.EmbedMetadata,
	}
}

// Update applies fn and writes the result to disk. A failed write is logged
// and otherwise ignored; the in-memory value still changes.
func (s *Store) Update(fn func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	fn(&next)
	s.current = sanitize(next)

	if err := s.save(s.current); err != nil {
		slog.Warn("Failed to save settings", "error", err)
	}
	return s.current
}

func (s *Store) save(data Settings) error {
	file, err := os.Create(s.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
