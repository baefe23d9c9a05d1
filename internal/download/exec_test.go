//go:build !windows

package download

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
)

func TestProcessExecutorStreamsMergedOutput(t *testing.T) {
	var lines []string
	code, err := ProcessExecutor{}.Execute(context.Background(), "sh",
		[]string{"-c", "echo one; echo two >&2; echo; printf 'three\\r\\n'; exit 3"},
		func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if code != 3 {
		t.Errorf("Expected exit code 3, got %d", code)
	}
	if want := []string{"one", "two", "three"}; !slices.Equal(lines, want) {
		t.Errorf("Expected %q, got %q", want, lines)
	}
}

func TestProcessExecutorSuccess(t *testing.T) {
	code, err := ProcessExecutor{}.Execute(context.Background(), "sh", []string{"-c", "true"}, func(string) {})
	if err != nil || code != 0 {
		t.Errorf("Expected clean exit, got %d %v", code, err)
	}
}

func TestProcessExecutorLaunchError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-binary")
	code, err := ProcessExecutor{}.Execute(context.Background(), missing, nil, func(string) {})
	if err == nil {
		t.Fatal("Expected launch error")
	}
	if code != -1 {
		t.Errorf("Expected -1, got %d", code)
	}
}

func TestProcessExecutorSplitsCarriageReturns(t *testing.T) {
	script := `printf '[download]  10.0%% of 10MiB\r[download]  20.0%% of 10MiB\r[download]  30.0%% of 10MiB\n'
printf '[Merger] Merging formats into "/out/y.mp4"\n'`

	var lines []string
	code, err := ProcessExecutor{}.Execute(context.Background(), "sh", []string{"-c", script},
		func(line string) { lines = append(lines, line) })
	if err != nil || code != 0 {
		t.Fatalf("Expected clean exit, got %d %v", code, err)
	}
	want := []string{
		"[download]  10.0% of 10MiB",
		"[download]  20.0% of 10MiB",
		"[download]  30.0% of 10MiB",
		`[Merger] Merging formats into "/out/y.mp4"`,
	}
	if !slices.Equal(lines, want) {
		t.Errorf("Expected %q, got %q", want, lines)
	}
}

func TestProcessExecutorLongProgressRun(t *testing.T) {
	script := `i=0
while [ $i -lt 20000 ]; do
	printf '[download]  45.1%% of 10.00MiB at 1.00MiB/s ETA 00:05\r'
	i=$((i+1))
done
printf '\n[Merger] Merging formats into "/out/y.mp4"\n'`

	var count int
	var destination string
	code, err := ProcessExecutor{}.Execute(context.Background(), "sh", []string{"-c", script},
		func(line string) {
			count++
			if path, ok := DestinationPath(line); ok {
				destination = path
			}
		})
	if err != nil || code != 0 {
		t.Fatalf("Expected clean exit, got %d %v", code, err)
	}
	if count != 20001 {
		t.Errorf("Expected 20001 lines, got %d", count)
	}
	if destination != "/out/y.mp4" {
		t.Errorf("Expected merged path, got %q", destination)
	}
}

func TestProcessExecutorOversizedLineKeepsExitCode(t *testing.T) {
	script := `head -c 2000000 /dev/zero | tr '\0' x; echo; echo done`
	code, err := ProcessExecutor{}.Execute(context.Background(), "sh", []string{"-c", script}, func(string) {})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
}

func TestScanOutputLines(t *testing.T) {
	tests := []struct {
		data    string
		atEOF   bool
		advance int
		token   string
	}{
		{"a\rb", false, 2, "a"},
		{"a\nb", false, 2, "a"},
		{"\r\n", false, 1, ""},
		{"partial", false, 0, ""},
		{"partial", true, 7, "partial"},
	}

	for _, tt := range tests {
		advance, token, err := scanOutputLines([]byte(tt.data), tt.atEOF)
		if err != nil || advance != tt.advance || string(token) != tt.token {
			t.Errorf("scanOutputLines(%q, %v) = %d, %q, %v; expected %d, %q", tt.data, tt.atEOF, advance, token, err, tt.advance, tt.token)
		}
	}
}
