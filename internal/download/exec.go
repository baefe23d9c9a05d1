package download

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

const maxLineSize = 1024 * 1024

// Executor runs an external program and hands every output line to onLine
// while the program is still running.
type Executor interface {
	Execute(ctx context.Context, name string, args []string, onLine func(string)) (exitCode int, err error)
}

// ProcessExecutor runs the program as a child process with stdout and stderr
// merged into one stream.
type ProcessExecutor struct{}

func (ProcessExecutor) Execute(ctx context.Context, name string, args []string, onLine func(string)) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return -1, err
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(scanOutputLines)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line != "" {
			onLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		// the exit code still decides the outcome; keep the pipe drained so
		// the child can exit
		slog.Warn("Dropping unreadable process output", "name", name, "error", err)
		io.Copy(io.Discard, pr)
	}

	err := <-waitErr
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	case err != nil:
		return -1, err
	default:
		return 0, nil
	}
}

// scanOutputLines splits on '\n' and on a bare '\r', which the downloader uses
// to redraw its progress line in place. A "\r\n" pair yields an empty token
// that callers skip.
func scanOutputLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
