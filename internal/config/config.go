package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

const (
	defaultTitleTimeout = 15 * time.Second
	defaultHistoryLimit = 200
)

type Config struct {
	Port         string
	LogLevel     slog.Level
	DataDir      string
	BinDir       string
	StaticDir    string
	TitleTimeout time.Duration
	HistoryLimit int
}

func LoadConfig() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logLevelString := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if logLevelString == "" {
		logLevelString = "INFO"
	}
	var logLevel slog.Level
	switch logLevelString {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "INFO":
		logLevel = slog.LevelInfo
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	binDir := os.Getenv("BIN_DIR")
	if binDir == "" {
		binDir = executableDir()
	}
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "static"
	}

	titleTimeout := defaultTitleTimeout
	if raw := os.Getenv("TITLE_TIMEOUT"); raw != "" {
		if d, err := str2duration.ParseDuration(raw); err == nil && d > 0 {
			titleTimeout = d
		} else {
			slog.Warn("Ignoring invalid TITLE_TIMEOUT", "value", raw)
		}
	}

	historyLimit := defaultHistoryLimit
	if raw := os.Getenv("HISTORY_LIMIT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			historyLimit = n
		}
	}

	return Config{
		Port:         port,
		LogLevel:     logLevel,
		DataDir:      dataDir,
		BinDir:       binDir,
		StaticDir:    staticDir,
		TitleTimeout: titleTimeout,
		HistoryLimit: historyLimit,
	}
}

// executableDir is where the bundled downloader and muxer live by default.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
