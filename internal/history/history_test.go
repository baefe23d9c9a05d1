package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"kgytgo/internal/models"
)

func openTemp(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestAppendAndRecent(t *testing.T) {
	h := openTemp(t)
	h.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	ctx := context.Background()

	err := h.Append(ctx, models.HistoryRecord{
		Title: "first", URL: "https://youtu.be/a", Format: models.FormatVideo,
		SavePath: "/tmp/out/first.mp4", Outcome: models.OutcomeSuccess,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	err = h.Append(ctx, models.HistoryRecord{
		Title: "second", URL: "https://youtu.be/b", Format: models.FormatAudio, Outcome: models.OutcomeError,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Title != "second" || records[1].Title != "first" {
		t.Errorf("Expected newest first, got %s, %s", records[0].Title, records[1].Title)
	}
	if records[0].ID <= records[1].ID {
		t.Errorf("Expected increasing ids, got %d then %d", records[1].ID, records[0].ID)
	}
	if records[1].Date != "2026-03-04 05:06" {
		t.Errorf("Unexpected date %q", records[1].Date)
	}
	if records[1].SavePath != "/tmp/out/first.mp4" || records[1].Outcome != models.OutcomeSuccess {
		t.Errorf("Unexpected record %+v", records[1])
	}
	if records[0].SavePath != "" || records[0].Outcome != models.OutcomeError || records[0].Format != models.FormatAudio {
		t.Errorf("Unexpected record %+v", records[0])
	}
}

func TestRecentLimit(t *testing.T) {
	h := openTemp(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		h.Append(ctx, models.HistoryRecord{Title: fmt.Sprintf("v%d", i), Outcome: models.OutcomeSuccess})
	}

	records, err := h.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Title != "v4" {
		t.Errorf("Expected v4 first, got %s", records[0].Title)
	}
}

func TestClear(t *testing.T) {
	h := openTemp(t)
	ctx := context.Background()

	h.Append(ctx, models.HistoryRecord{Title: "a", Outcome: models.OutcomeSuccess})
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	records, err := h.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty history, got %d", len(records))
	}

	// ids keep growing after a clear
	h.Append(ctx, models.HistoryRecord{Title: "b", Outcome: models.OutcomeSuccess})
	records, _ = h.Recent(ctx, 0)
	if len(records) != 1 || records[0].ID < 2 {
		t.Errorf("Expected a fresh id above the cleared one, got %+v", records)
	}
}
