package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeWritesLogFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)
	defer CloseAll()

	err = Initialize(tempDir, Settings{
		DebugMode: true,
		Level:     "debug",
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Capture("capture stage started")
	Get(CategoryCapture).Debug("dropped event reason=%s", "ignored_app")

	logsDir := filepath.Join(tempDir, "logs")
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		t.Fatalf("failed to read logs dir: %v", err)
	}

	var found bool
	for _, e := range entries {
		if strings.Contains(e.Name(), "capture") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a capture log file, got entries: %v", entries)
	}
}

func TestDisabledCategoryIsNoOp(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_disabled")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)
	defer CloseAll()

	if err := Initialize(tempDir, Settings{DebugMode: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	// Should not panic and should not create a logs directory.
	Store("should not be written")

	if _, err := os.Stat(filepath.Join(tempDir, "logs")); !os.IsNotExist(err) {
		t.Fatalf("expected no logs directory to be created, stat err=%v", err)
	}
}

func TestJSONFormatEntry(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_test_json")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)
	defer CloseAll()

	if err := Initialize(tempDir, Settings{DebugMode: true, Level: "info", JSONFormat: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Get(CategoryMask).Info("pattern matched name=%s", "cpf")

	data, err := os.ReadFile(filepath.Join(tempDir, "logs", logFileName(t)))
	if err != nil {
		t.Fatalf("failed to read mask log: %v", err)
	}
	if !strings.Contains(string(data), `"cat":"mask"`) {
		t.Fatalf("expected JSON entry with category mask, got: %s", data)
	}
}

func logFileName(t *testing.T) string {
	t.Helper()
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	for cat, l := range loggers {
		if cat == CategoryMask && l.file != nil {
			return filepath.Base(l.file.Name())
		}
	}
	t.Fatalf("mask logger not found")
	return ""
}
