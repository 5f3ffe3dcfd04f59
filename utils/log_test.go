package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWriterBasicWrite(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "latest.log")
	writer, err := NewLogWriter(logPath, 1024, 3)
	if err != nil {
		t.Fatalf("NewLogWriter failed: %v", err)
	}
	defer writer.Close()

	if _, err := writer.Write([]byte("hello log\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello log\n" {
		t.Errorf("Log content mismatch: got %q", data)
	}
}

func TestLogWriterRotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "latest.log")
	// Tiny max size so every line triggers a rotation
	writer, err := NewLogWriter(logPath, 16, 2)
	if err != nil {
		t.Fatalf("NewLogWriter failed: %v", err)
	}
	defer writer.Close()

	for i := 0; i < 5; i++ {
		if _, err := writer.Write([]byte("0123456789abcdef")); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var rotated []string
	var hasCurrent bool
	for _, entry := range entries {
		if entry.Name() == "latest.log" {
			hasCurrent = true
			continue
		}
		if strings.Contains(entry.Name(), "_rotated.") {
			rotated = append(rotated, entry.Name())
		}
	}
	if !hasCurrent {
		t.Error("Expected current log file to exist after rotation")
	}
	if len(rotated) == 0 {
		t.Fatal("Expected rotated log files to exist")
	}
	// Historical files are capped
	if len(rotated) > 2 {
		t.Errorf("Expected at most 2 historical files, got %d: %v", len(rotated), rotated)
	}
}

func TestLogWriterClosed(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewLogWriter(filepath.Join(dir, "latest.log"), 1024, 3)
	if err != nil {
		t.Fatalf("NewLogWriter failed: %v", err)
	}
	writer.Close()
	if _, err := writer.Write([]byte("after close")); err == nil {
		t.Error("Expected error writing to a closed LogWriter")
	}
}
