package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDataDirUsesXDGDataHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	t.Setenv("XDG_DATA_HOME", "/tmp/data-home")
	t.Setenv("HOME", "/tmp/home")

	got, err := DataDir("blackfast")
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}
	want := filepath.Join("/tmp/data-home", "blackfast")
	if got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
}

func TestDataDirFallsBackToHomeLocalShare(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "/tmp/home")

	got, err := DataDir("blackfast")
	if err != nil {
		t.Fatalf("DataDir() error = %v", err)
	}
	want := filepath.Join("/tmp/home", ".local", "share", "blackfast")
	if got != want {
		t.Fatalf("DataDir() = %q, want %q", got, want)
	}
}

func TestStateDirFallsBackToHomeLocalState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/tmp/home")

	got, err := StateDir("blackfast")
	if err != nil {
		t.Fatalf("StateDir() error = %v", err)
	}
	want := filepath.Join("/tmp/home", ".local", "state", "blackfast")
	if got != want {
		t.Fatalf("StateDir() = %q, want %q", got, want)
	}
}

func TestConfigDirUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/config-home")

	got, err := ConfigDir("blackfast")
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	want := filepath.Join("/tmp/config-home", "blackfast")
	if got != want {
		t.Fatalf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestDataDirFailsWithoutHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("home resolution differs outside linux")
	}
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")

	_, err := DataDir("blackfast")
	if !errors.Is(err, ErrNoDataDir) {
		t.Fatalf("DataDir() error = %v, want ErrNoDataDir", err)
	}
}
