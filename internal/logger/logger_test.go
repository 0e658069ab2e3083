package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileWriter_EmptyPath(t *testing.T) {
	if w := (Config{}).FileWriter(); w != nil {
		t.Fatalf("expected nil writer without a file path")
	}
}

func TestNew_TerminalOnly(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(&buf, Config{Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	log.Info("hidden")
	log.Warn("shown", "layer", "ink")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "layer=ink") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, _, err := New(&bytes.Buffer{}, Config{Level: "nope"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strokectl.log")

	var buf bytes.Buffer
	log, closer, err := New(&buf, Config{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.With("cmd", "record").Debug("stroke recorded", "samples", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created at %s: %v", path, err)
	}
	if !strings.Contains(string(data), `"msg":"stroke recorded"`) || !strings.Contains(string(data), `"cmd":"record"`) {
		t.Errorf("unexpected file contents: %s", data)
	}
	if !strings.Contains(buf.String(), "stroke recorded") {
		t.Errorf("terminal output missing record: %s", buf.String())
	}
}

func TestColorTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)
	log := slog.New(h).With("layer", "ink")

	log.Error("boom")
	out := buf.String()
	// The text handler quotes the escape byte, so match past it.
	if !strings.Contains(out, "[31mERROR") || !strings.Contains(out, "boom") {
		t.Errorf("missing red level prefix: %q", out)
	}
	if strings.Contains(out, "time=") {
		t.Errorf("time attribute not suppressed: %q", out)
	}
	if !strings.Contains(out, "layer=ink") {
		t.Errorf("attrs lost through WithAttrs: %q", out)
	}
}

func TestLevelColor(t *testing.T) {
	if levelColor(slog.LevelDebug) != "\033[36m" {
		t.Errorf("debug color")
	}
	if levelColor(slog.LevelInfo) != "\033[32m" {
		t.Errorf("info color")
	}
	if levelColor(slog.LevelWarn+1) != "\033[33m" {
		t.Errorf("warn+1 color")
	}
}
