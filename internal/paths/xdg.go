package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// ErrNoDataDir is returned when no per-user directory can be derived because
// the home directory is unknown.
var ErrNoDataDir = errors.New("cannot determine per-user data directory")

func homeDir() (string, error) {
	if h := os.Getenv("HOME"); h != "" {
		return h, nil
	}
	h, err := os.UserHomeDir()
	if err != nil || h == "" {
		return "", ErrNoDataDir
	}
	return h, nil
}

func xdgDir(app, envVar string, fallbackParts ...string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, app), nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, fallbackParts...)
	return filepath.Join(append(parts, app)...), nil
}

// DataDir returns the per-user application data directory for app.
func DataDir(app string) (string, error) {
	switch runtime.GOOS {
	case "windows":
		return xdgDir(app, "LOCALAPPDATA", "AppData", "Local")
	case "darwin":
		return xdgDir(app, "XDG_DATA_HOME", "Library", "Application Support")
	default:
		return xdgDir(app, "XDG_DATA_HOME", ".local", "share")
	}
}

// ConfigDir returns the app config directory ($XDG_CONFIG_HOME/app).
func ConfigDir(app string) (string, error) {
	return xdgDir(app, "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the app state directory ($XDG_STATE_HOME/app), used for logs.
func StateDir(app string) (string, error) {
	return xdgDir(app, "XDG_STATE_HOME", ".local", "state")
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
