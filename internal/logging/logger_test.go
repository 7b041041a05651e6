package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"info level", "info", slog.LevelInfo},
		{"warn level", "warn", slog.LevelWarn},
		{"warning level", "warning", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"invalid level", "invalid", slog.LevelInfo},
		{"empty string", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("debug", "/tmp/crawl.log")

	if cfg.Level != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Level)
	}
	if cfg.FilePath != "/tmp/crawl.log" {
		t.Errorf("FilePath = %q", cfg.FilePath)
	}
	if cfg.Console != os.Stderr {
		t.Error("Console should default to stderr")
	}
	if cfg.MaxSize != 100 || cfg.MaxBackups != 5 {
		t.Errorf("Unexpected rotation defaults: %d MB, %d backups", cfg.MaxSize, cfg.MaxBackups)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("console level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer, err := NewLogger(Config{Level: slog.LevelWarn, Console: &buf})
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer closer.Close()

		logger.Info("hidden")
		logger.Warn("shown", "url", "https://example.com")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("Expected 1 log line, got %d: %q", len(lines), buf.String())
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
			t.Fatalf("Log line is not JSON: %v", err)
		}
		if entry["msg"] != "shown" || entry["url"] != "https://example.com" {
			t.Errorf("Unexpected entry: %v", entry)
		}
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "nested", "test.log")

		logger, closer, err := NewLogger(Config{
			Level:      slog.LevelDebug,
			FilePath:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
		})
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}

		logger.Debug("test message")
		if err := closer.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		content, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("Log file was not created: %v", err)
		}
		if !strings.Contains(string(content), "test message") {
			t.Errorf("Log file content = %q", content)
		}
	})

	t.Run("no outputs configured", func(t *testing.T) {
		logger, closer, err := NewLogger(Config{Level: slog.LevelInfo})
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer closer.Close()
		logger.Info("discarded")
	})
}

func TestSetDefault(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	logFile := filepath.Join(t.TempDir(), "test.log")
	closer, err := SetDefault(Config{
		Level:      slog.LevelDebug,
		FilePath:   logFile,
		MaxSize:    10,
		MaxBackups: 3,
	})
	if err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	slog.Info("test message from default logger")
	_ = closer.Close()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "test message from default logger") {
		t.Errorf("Default logger did not write to file: %q", content)
	}
}
