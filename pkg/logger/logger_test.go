package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileOutputClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_logs.txt")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Info("report written", String("file", "rec1.csv"))
	if err := l.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "report written") {
		t.Fatalf("log message missing from file: %q", b)
	}
}

func TestCloseWithoutFile(t *testing.T) {
	l, err := New(&Config{Level: "info", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close on stderr logger must be a no-op: %v", err)
	}
}

func TestLevelIsPerInstance(t *testing.T) {
	dir := t.TempDir()
	quietPath := filepath.Join(dir, "quiet.txt")
	chattyPath := filepath.Join(dir, "chatty.txt")

	quiet, err := New(&Config{Level: "error", Format: "json", Output: quietPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer quiet.Close()
	chatty, err := New(&Config{Level: "info", Format: "json", Output: chattyPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer chatty.Close()

	quiet.Info("dropped")
	chatty.Info("kept")

	qb, _ := os.ReadFile(quietPath)
	if strings.Contains(string(qb), "dropped") {
		t.Fatalf("error-level logger must drop info messages: %q", qb)
	}
	cb, _ := os.ReadFile(chattyPath)
	if !strings.Contains(string(cb), "kept") {
		t.Fatalf("info-level logger must keep info messages despite the other instance: %q", cb)
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Format: "json", Output: "stderr"}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
