package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSaveToWritesConfigAndCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Formatter.Command = "ruff"
	cfg.Formatter.Args = []string{"format"}
	cfg.Daemon.IdleTimeout = "30m"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "[formatter]") {
		t.Fatalf("saved config missing formatter section: %q", text)
	}
	if !strings.Contains(text, `command = "ruff"`) {
		t.Fatalf("saved config missing command: %q", text)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 && os.PathSeparator == '/' {
		t.Fatalf("config mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Formatter.Command != "ruff" || !reflect.DeepEqual(loaded.Formatter.Args, []string{"format"}) {
		t.Fatalf("Formatter = %+v", loaded.Formatter)
	}
	if loaded.Daemon.IdleTimeout != "30m" {
		t.Fatalf("Daemon.IdleTimeout = %q, want 30m", loaded.Daemon.IdleTimeout)
	}
}

func TestInitWritesDefaultsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blackfast", "config.toml")

	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Formatter.Command != DefaultFormatterCommand {
		t.Fatalf("Formatter.Command = %q, want %q", loaded.Formatter.Command, DefaultFormatterCommand)
	}

	if err := Init(path); !errors.Is(err, ErrExists) {
		t.Fatalf("second Init() error = %v, want ErrExists", err)
	}
}

func TestInitRejectsEmptyPath(t *testing.T) {
	if err := Init(""); err == nil {
		t.Fatal("Init(\"\") error = nil")
	}
}
