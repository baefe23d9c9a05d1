package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"

	"kgytgo/internal/config"
	"kgytgo/internal/download"
	"kgytgo/internal/handler"
	"kgytgo/internal/history"
	"kgytgo/internal/settings"
	"kgytgo/internal/storage"
	"kgytgo/internal/websocket"
)

func main() {
	cfg := config.LoadConfig()
	SetupLogger(cfg.LogLevel)

	prefs := settings.New(cfg.DataDir)
	hist := openHistory(filepath.Join(cfg.DataDir, "history.db"))
	defer hist.Close()

	bins := download.LocateBinaries(cfg.BinDir)
	if err := bins.Check(); err != nil {
		slog.Warn("Bundled tools missing, downloads will be refused", "error", err)
	}

	store := storage.New()
	hub := websocket.NewHub()
	go hub.Run()
	runner := download.New(store, hist, hub, prefs, bins, download.ProcessExecutor{})
	prober := download.NewProber(bins, cfg.TitleTimeout)

	r := chi.NewRouter()
	r.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	r.Get("/queue", handler.GetQueueHandler(store, runner))
	r.Post("/queue", handler.AddToQueueHandler(store, prefs, bins, hub))
	r.Post("/queue/start", handler.StartQueueHandler(runner))
	r.Delete("/queue/{id}", handler.DeleteQueueItemHandler(store, hub))
	r.Delete("/queue", handler.ClearQueueHandler(store, hub))
	r.Post("/title", handler.TitleHandler(prober))
	r.Post("/update", handler.UpdateDownloaderHandler(runner))
	r.Get("/history", handler.GetHistoryHandler(hist, cfg.HistoryLimit))
	r.Delete("/history", handler.ClearHistoryHandler(hist))
	r.Get("/settings", handler.GetSettingsHandler(prefs))
	r.Put("/settings", handler.UpdateSettingsHandler(prefs))
	r.Get("/ws", hub.WsHandler)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down server...")
		if runner.IsRunning() {
			slog.Warn("Queue still running, in-flight download will be abandoned")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server forced to shutdown")
		}
		done <- true
	}()

	slog.Info("Server starting", "port", cfg.Port, "bin_dir", cfg.BinDir, "data_dir", cfg.DataDir)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("Server exited")
}

// openHistory falls back to an in-memory log so a broken history file never
// stops the app from starting.
func openHistory(path string) *history.History {
	hist, err := history.Open(path)
	if err == nil {
		return hist
	}
	slog.Warn("Could not open history, keeping it in memory", "path", path, "error", err)

	hist, err = history.Open(":memory:")
	if err != nil {
		slog.Error("Could not open in-memory history", "error", err)
		os.Exit(1)
	}
	return hist
}

func SetupLogger(level slog.Level) {
	handler := tint.NewHandler(colorable.NewColorableStderr(), &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		AddSource:  true,
	})

	slog.SetDefault(slog.New(handler))
}
