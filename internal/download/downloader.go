package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alessio/shellescape"

	"kgytgo/internal/models"
	"kgytgo/internal/storage"
)

const (
	separator         = "───────────────────────────────────────────────────────"
	maxCapturedOutput = 64 * 1024
)

var (
	ErrRunning    = errors.New("a download is already running")
	ErrQueueEmpty = errors.New("no pending items in the queue")
)

// Publisher receives everything the runner reports. Publish must not return
// before the event has been handed off.
type Publisher interface {
	Publish(event models.Event)
}

type HistorySink interface {
	Append(ctx context.Context, rec models.HistoryRecord) error
}

type OptionsSource interface {
	Options() models.Options
}

type state int

const (
	stateIdle state = iota
	stateRunning
)

// Runner drains the queue one request at a time through the external
// downloader.
type Runner struct {
	store    *storage.Storage
	history  HistorySink
	events   Publisher
	options  OptionsSource
	bins     Binaries
	executor Executor

	mu    sync.Mutex
	state state
	done  chan struct{}
}

func New(store *storage.Storage, history HistorySink, events Publisher, options OptionsSource, bins Binaries, executor Executor) *Runner {
	return &Runner{
		store:    store,
		history:  history,
		events:   events,
		options:  options,
		bins:     bins,
		executor: executor,
	}
}

func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRunning
}

// Start begins draining pending requests in the background. It returns
// ErrRunning if a drain is already in progress, ErrQueueEmpty if nothing is
// pending and *MissingBinariesError if the bundled tools are absent.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateRunning {
		return ErrRunning
	}
	if !r.store.HasPending() {
		return ErrQueueEmpty
	}
	if err := r.bins.Check(); err != nil {
		return err
	}

	r.state = stateRunning
	r.done = make(chan struct{})
	go r.drain(r.done)
	return nil
}

// Wait blocks until the most recently started drain has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *Runner) drain(done chan struct{}) {
	defer close(done)

	slog.Info("Queue started")
	for {
		req, ok := r.store.NextPending()
		if !ok {
			break
		}
		r.downloadItem(req)
	}

	summary := r.store.Summary()
	r.log(separator)
	r.log(fmt.Sprintf("✓ Queue finished: %d/%d successful", summary.Succeeded, summary.Total))
	r.events.Publish(models.Event{Type: models.EventFinished, Summary: &summary})
	slog.Info("Queue finished", "succeeded", summary.Succeeded, "total", summary.Total)

	// a new drain may only start once this run's summary is out
	r.setIdle()
}

func (r *Runner) downloadItem(req models.Request) {
	entry, err := r.store.Begin(req.ID)
	if err != nil {
		slog.Warn("Failed to start queue item", "id", req.ID, "error", err)
		return
	}
	r.publishStatus(entry)
	r.log("▶ Starting: " + req.DisplayTitle())
	r.log(separator)
	slog.Info("Downloading", "id", req.ID, "title", req.DisplayTitle())

	args := BuildArgs(req, r.options.Options(), r.bins.MuxerDir())
	slog.Debug("Executing command", "cmd", shellescape.QuoteCommand(append([]string{r.bins.Downloader}, args...)))

	var destination string
	tail := newOutputTail(maxCapturedOutput)
	code, err := r.executor.Execute(context.Background(), r.bins.Downloader, args, func(line string) {
		r.log(line)
		tail.Add(line)
		if path, ok := DestinationPath(line); ok {
			destination = path
		}
	})

	if err == nil && code == 0 {
		r.complete(req, destination)
		return
	}

	reason := fmt.Sprintf("Process exited with code %d", code)
	if err != nil {
		reason = err.Error()
	}
	r.fail(req, Classify(strings.TrimSpace(errorLines(tail.String())+"\n"+reason)))
}

func (r *Runner) complete(req models.Request, destination string) {
	entry, err := r.store.Finish(req.ID, models.StatusSuccess, destination)
	if err != nil {
		slog.Warn("Failed to mark queue item done", "id", req.ID, "error", err)
	} else {
		r.publishStatus(entry)
	}
	r.record(req, destination, models.OutcomeSuccess)
	r.log("✓ Complete!")
	slog.Info("Download complete", "id", req.ID, "path", destination)
}

func (r *Runner) fail(req models.Request, message string) {
	entry, err := r.store.Finish(req.ID, models.StatusFailed, "")
	if err != nil {
		slog.Warn("Failed to mark queue item failed", "id", req.ID, "error", err)
	} else {
		r.publishStatus(entry)
	}
	r.record(req, "", models.OutcomeError)
	r.log("✗ " + message)
	slog.Error("Download failed", "id", req.ID, "error", message)
}

func (r *Runner) record(req models.Request, path string, outcome models.Outcome) {
	err := r.history.Append(context.Background(), models.HistoryRecord{
		Title:    req.DisplayTitle(),
		URL:      req.URL,
		Format:   req.Format,
		SavePath: path,
		Outcome:  outcome,
	})
	if err != nil {
		slog.Warn("Could not write history", "id", req.ID, "error", err)
	}
}

// SelfUpdate asks the downloader to update itself. It shares the running
// state with the queue so the two never overlap.
func (r *Runner) SelfUpdate(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state == stateRunning {
		r.mu.Unlock()
		return "", ErrRunning
	}
	r.state = stateRunning
	r.mu.Unlock()
	defer r.setIdle()

	r.log("Checking for yt-dlp updates…")
	var out strings.Builder
	code, err := r.executor.Execute(ctx, r.bins.Downloader, []string{"-U"}, func(line string) {
		r.log(line)
		out.WriteString(line)
		out.WriteByte('\n')
	})
	if err != nil {
		return "", fmt.Errorf("update downloader: %w", err)
	}

	result := strings.TrimSpace(out.String())
	if result == "" {
		result = "Update check complete."
	}
	if code != 0 {
		return result, fmt.Errorf("update downloader: exited with code %d", code)
	}
	slog.Info("Downloader update check complete")
	return result, nil
}

func (r *Runner) setIdle() {
	r.mu.Lock()
	r.state = stateIdle
	r.mu.Unlock()
}

func (r *Runner) publishStatus(entry models.Entry) {
	r.events.Publish(models.Event{Type: models.EventStatus, Entry: &entry})
}

func (r *Runner) log(line string) {
	r.events.Publish(models.Event{Type: models.EventLog, Line: line})
}
