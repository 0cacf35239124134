// Package paths resolves the filesystem locations and IPC names shared by the
// blackfast client and daemon.
//
// Every location can be overridden by an environment variable named
// {APP}_{PURPOSE}. Load reads the environment once and returns a Paths value
// that the rest of the program passes around explicitly.
package paths

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Logical file purposes.
const (
	PurposeSocket = "socket"
	PurposePipe   = "pipe"
	PurposePID    = "pid"
	PurposeLock   = "lock"
	PurposeLog    = "log"
	PurposeConfig = "config"
	PurposeServer = "server"
)

// Paths is the resolved set of locations for one application instance.
type Paths struct {
	App        string
	Endpoint   string // unix socket path or named pipe name
	PIDFile    string // daemon identity marker
	LockFile   string // daemon single-instance lock
	LogDir     string
	ConfigFile string
	Server     string // daemon executable
}

// EnvName returns the override variable for purpose, e.g. BLACKFAST_SOCKET.
func EnvName(app, purpose string) string {
	return strings.ToUpper(app + "_" + purpose)
}

// Resolve returns the override for purpose if set, otherwise
// {DataDir(app)}/{app}.{purpose}.
func Resolve(app, purpose string) (string, error) {
	if v := os.Getenv(EnvName(app, purpose)); v != "" {
		return v, nil
	}
	dir, err := DataDir(app)
	if err != nil {
		return "", fmt.Errorf("resolving %s %s: %w", app, purpose, err)
	}
	return filepath.Join(dir, app+"."+purpose), nil
}

// ResolveEndpoint returns the daemon endpoint: a named pipe on Windows and a
// unix socket path everywhere else.
func ResolveEndpoint(app string) (string, error) {
	if runtime.GOOS == "windows" {
		if v := os.Getenv(EnvName(app, PurposePipe)); v != "" {
			return v, nil
		}
		return `\\.\pipe\` + app, nil
	}
	return Resolve(app, PurposeSocket)
}

// Load resolves every location for app. Only the endpoint, pid file and lock
// file are required; the others are left empty when no home directory exists.
func Load(app string) (Paths, error) {
	p := Paths{App: app}
	var err error
	if p.Endpoint, err = ResolveEndpoint(app); err != nil {
		return Paths{}, err
	}
	if p.PIDFile, err = Resolve(app, PurposePID); err != nil {
		return Paths{}, err
	}
	if p.LockFile, err = Resolve(app, PurposeLock); err != nil {
		return Paths{}, err
	}

	p.LogDir = optional(envOr(app, PurposeLog, func() (string, error) { return StateDir(app) }))
	p.ConfigFile = optional(envOr(app, PurposeConfig, func() (string, error) {
		dir, err := ConfigDir(app)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "config.toml"), nil
	}))
	p.Server, _ = envOr(app, PurposeServer, func() (string, error) {
		return serverExecutable(app + "-server"), nil
	})
	return p, nil
}

// Environ renders p as override variables so a child process resolves the
// same locations.
func (p Paths) Environ() []string {
	endpointPurpose := PurposeSocket
	if runtime.GOOS == "windows" {
		endpointPurpose = PurposePipe
	}
	pairs := []struct {
		purpose string
		value   string
	}{
		{endpointPurpose, p.Endpoint},
		{PurposePID, p.PIDFile},
		{PurposeLock, p.LockFile},
		{PurposeLog, p.LogDir},
		{PurposeConfig, p.ConfigFile},
	}
	var env []string
	for _, kv := range pairs {
		if kv.value == "" {
			continue
		}
		env = append(env, EnvName(p.App, kv.purpose)+"="+kv.value)
	}
	return env
}

func envOr(app, purpose string, fallback func() (string, error)) (string, error) {
	if v := os.Getenv(EnvName(app, purpose)); v != "" {
		return v, nil
	}
	return fallback()
}

func optional(path string, err error) string {
	if errors.Is(err, ErrNoDataDir) {
		return ""
	}
	return path
}

func serverExecutable(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if found, err := exec.LookPath(name); err == nil {
		return found
	}
	return name
}
