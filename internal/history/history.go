// Package history keeps the append-only log of finished downloads in SQLite.
// The table layout matches the one earlier releases wrote, so an existing
// history file keeps working.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"kgytgo/internal/models"
)

const (
	DefaultLimit = 200
	dateLayout   = "2006-01-02 15:04"
)

const schema = `CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT, url TEXT, fmt TEXT,
	save_path TEXT, date TEXT, status TEXT
)`

type History struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &History{db: db, now: time.Now}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Append writes one finished attempt. The date is stamped here.
func (h *History) Append(ctx context.Context, rec models.HistoryRecord) error {
	_, err := h.db.ExecContext(ctx,
		"INSERT INTO history (title,url,fmt,save_path,date,status) VALUES (?,?,?,?,?,?)",
		rec.Title, rec.URL, string(rec.Format), rec.SavePath, h.now().Format(dateLayout), string(rec.Outcome))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	slog.Debug("History recorded", "url", rec.URL, "outcome", rec.Outcome)
	return nil
}

// Recent returns up to limit records, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT id,title,url,fmt,save_path,date,status FROM history ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := []models.HistoryRecord{}
	for rows.Next() {
		var (
			rec                                    models.HistoryRecord
			title, url, format, path, date, status sql.NullString
		)
		if err := rows.Scan(&rec.ID, &title, &url, &format, &path, &date, &status); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.Title = title.String
		rec.URL = url.String
		rec.Format = models.Format(format.String)
		rec.SavePath = path.String
		rec.Date = date.String
		rec.Outcome = models.Outcome(status.String)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (h *History) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
