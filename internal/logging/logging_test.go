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

func TestNewAutoFormatWritesJSONToNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("listening", "endpoint", "/tmp/bf.sock")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log output %q is not JSON: %v", buf.String(), err)
	}
	if rec["msg"] != "listening" || rec["endpoint"] != "/tmp/bf.sock" {
		t.Fatalf("record = %v", rec)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("request done", "exit_code", 0)
	if !strings.Contains(buf.String(), "msg=\"request done\"") || !strings.Contains(buf.String(), "exit_code=0") {
		t.Fatalf("text output = %q", buf.String())
	}
}

func TestNewHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("New() accepted an unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("New() accepted an unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
}

func TestOpenFileCreatesDirectoryAndAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "log")
	for i := 0; i < 2; i++ {
		f, err := OpenFile(dir, "daemon.log")
		if err != nil {
			t.Fatalf("OpenFile() error = %v", err)
		}
		f.WriteString("line\n") //nolint:errcheck
		f.Close()
	}
	data, err := os.ReadFile(filepath.Join(dir, "daemon.log"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if string(data) != "line\nline\n" {
		t.Fatalf("log contents = %q, want appended lines", data)
	}
}
