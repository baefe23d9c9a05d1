package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"kgytgo/internal/download"
	"kgytgo/internal/history"
	"kgytgo/internal/models"
	"kgytgo/internal/settings"
	"kgytgo/internal/storage"
	"kgytgo/internal/websocket"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func GetQueueHandler(store *storage.Storage, runner *download.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"running": runner.IsRunning(),
			"entries": store.Snapshot(),
		})
	}
}

func AddToQueueHandler(store *storage.Storage, prefs *settings.Store, bins download.Binaries, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL     string         `json:"url"`
			Format  models.Format  `json:"format"`
			Quality models.Quality `json:"quality"`
			Title   string         `json:"title"`
			Folder  string         `json:"folder"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "Please enter a YouTube URL.")
			return
		}
		if !storage.IsValidURL(req.URL) {
			writeError(w, http.StatusBadRequest, storage.ErrInvalidURL.Error())
			return
		}

		current := prefs.Get()
		if req.Folder == "" {
			req.Folder = current.LastFolder
		}
		if req.Folder == "" {
			writeError(w, http.StatusBadRequest, "Please select a save folder first.")
			return
		}
		if err := bins.Check(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if req.Format == "" {
			req.Format = current.Format
		}
		if req.Quality == "" {
			req.Quality = current.Quality
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = req.URL
		}

		id, err := store.Append(models.Request{
			URL:     req.URL,
			Format:  req.Format,
			Quality: req.Quality,
			Title:   title,
			Folder:  req.Folder,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Info("Added to queue", "id", id, "title", title)

		hub.BroadcastUpdate()
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

func DeleteQueueItemHandler(store *storage.Storage, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}

		switch err := store.Remove(id); {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, storage.ErrNotPending):
			writeError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		hub.BroadcastUpdate()
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func ClearQueueHandler(store *storage.Storage, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Clear(); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}

		hub.BroadcastUpdate()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func StartQueueHandler(runner *download.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := runner.Start()
		var missing *download.MissingBinariesError
		switch {
		case errors.Is(err, download.ErrQueueEmpty), errors.Is(err, download.ErrRunning):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &missing):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
		}
	}
}

// TitleSource resolves a video's title and duration before it is queued.
type TitleSource interface {
	Probe(ctx context.Context, url string) (models.VideoInfo, error)
}

func TitleHandler(prober TitleSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if !storage.IsValidURL(req.URL) {
			writeError(w, http.StatusBadRequest, "URL doesn't look like a valid YouTube link")
			return
		}

		info, err := prober.Probe(r.Context(), req.URL)
		if err != nil {
			slog.Debug("Title lookup failed", "url", req.URL, "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"title":    info.Title,
			"duration": int(info.Duration.Seconds()),
		})
	}
}

func UpdateDownloaderHandler(runner *download.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		output, err := runner.SelfUpdate(r.Context())
		switch {
		case errors.Is(err, download.ErrRunning):
			writeError(w, http.StatusConflict, "Cannot update while downloading.")
		case err != nil:
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "output": output})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"output": output})
		}
	}
}

func GetHistoryHandler(hist *history.History, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		records, err := hist.Recent(r.Context(), limit)
		if err != nil {
			slog.Warn("Could not read history", "error", err)
			records = []models.HistoryRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func ClearHistoryHandler(hist *history.History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := hist.Clear(r.Context()); err != nil {
			slog.Warn("Could not clear history", "error", err)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

func GetSettingsHandler(prefs *settings.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, prefs.Get())
	}
}

func UpdateSettingsHandler(prefs *settings.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			LastFolder     *string         `json:"last_folder"`
			Format         *models.Format  `json:"format"`
			Quality        *models.Quality `json:"quality"`
			EmbedThumbnail *bool           `json:"embed_thumbnail"`
			EmbedMetadata  *bool           `json:"embed_metadata"`
			PlaylistMode   *bool           `json:"playlist_mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		if req.Format != nil && !req.Format.Valid() {
			writeError(w, http.StatusBadRequest, storage.ErrInvalidFormat.Error())
			return
		}
		if req.Quality != nil && !req.Quality.Valid() {
			writeError(w, http.StatusBadRequest, storage.ErrInvalidQuality.Error())
			return
		}
		if req.LastFolder != nil && *req.LastFolder != "" {
			if info, err := os.Stat(*req.LastFolder); err != nil || !info.IsDir() {
				writeError(w, http.StatusBadRequest, "folder does not exist")
				return
			}
		}

		updated := prefs.Update(func(s *settings.Settings) {
			if req.LastFolder != nil {
				s.LastFolder = *req.LastFolder
			}
			if req.Format != nil {
				s.Format = *req.Format
			}
			if req.Quality != nil {
				s.Quality = *req.Quality
			}
			if req.EmbedThumbnail != nil {
				s.EmbedThumbnail = *req.EmbedThumbnail
			}
			if req.EmbedMetadata != nil {
				s.EmbedMetadata = *req.EmbedMetadata
			}
			if req.PlaylistMode != nil {
				s.PlaylistMode = *req.PlaylistMode
			}
		})
		writeJSON(w, http.StatusOK, updated)
	}
}
