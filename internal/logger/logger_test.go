package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/questexport/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"verbose", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input).String(); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "questexport.log")

	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{"json stdout", &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text stderr", &config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"file output", &config.LoggingConfig{Level: "warn", Format: "json", Output: logFile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger without error")
			}
			_ = logger.Sync()
		})
	}
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	if logger == nil {
		t.Fatal("NewDefault() returned nil")
	}
	logger.Debug("below default level")
	_ = logger.Sync()
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Errorw("discarded", "key", "value")
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() on nop logger returned %v", err)
	}
}

func TestContextLoggers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := NewWithCore(core)

	passLogger := logger.WithPass("6f1c")
	if passLogger == logger {
		t.Error("WithPass() should return a new logger instance")
	}
	passLogger.WithPath("/tmp/q.json").Info("pass done")

	logger.WithFields(map[string]interface{}{"entries": 3}).Info("with fields")
	logger.Info("plain")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["pass"] != "6f1c" || ctx["path"] != "/tmp/q.json" {
		t.Errorf("unexpected context for chained logger: %v", ctx)
	}
	if entries[1].ContextMap()["entries"] != int64(3) {
		t.Errorf("unexpected fields: %v", entries[1].ContextMap())
	}
	if len(entries[2].Context) != 0 {
		t.Errorf("parent logger must not inherit child context: %v", entries[2].Context)
	}
}

func TestBuildEncoder(t *testing.T) {
	for _, format := range []string{"json", "text", "unknown"} {
		if buildEncoder(format) == nil {
			t.Errorf("buildEncoder(%q) returned nil", format)
		}
	}
}

func TestBuildWriters(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		if buildWriters(output) == nil {
			t.Errorf("buildWriters(%q) returned nil", output)
		}
	}

	if buildWriters(filepath.Join(t.TempDir(), "out.log")) == nil {
		t.Error("buildWriters(file) returned nil")
	}

	// An unopenable file falls back to stderr instead of failing.
	if buildWriters(filepath.Join(t.TempDir(), "missing", "dir", "out.log")) == nil {
		t.Error("buildWriters(bad path) returned nil")
	}
}

func TestLoggingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questexport.log")

	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("export started")
	logger.Debug("hidden debug line")
	logger.WithPass("pass-42").Warn("snapshot skipped")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	out := string(content)
	for _, want := range []string{"export started", "snapshot skipped", "pass-42"} {
		if !strings.Contains(out, want) {
			t.Errorf("log file should contain %q", want)
		}
	}
	if strings.Contains(out, "hidden debug line") {
		t.Error("debug line should be filtered at info level")
	}
}
