package paths

import (
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func TestEnvNameUppercasesAppAndPurpose(t *testing.T) {
	if got := EnvName("blackfast", PurposeSocket); got != "BLACKFAST_SOCKET" {
		t.Fatalf("EnvName() = %q, want BLACKFAST_SOCKET", got)
	}
	if got := EnvName("blackfast", PurposePID); got != "BLACKFAST_PID" {
		t.Fatalf("EnvName() = %q, want BLACKFAST_PID", got)
	}
}

func TestResolvePrefersEnvironmentOverride(t *testing.T) {
	t.Setenv("BLACKFAST_PID", "/run/custom.pid")
	t.Setenv("HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	got, err := Resolve("blackfast", PurposePID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/run/custom.pid" {
		t.Fatalf("Resolve() = %q, want override", got)
	}
}

func TestResolveJoinsDataDirWithAppAndPurpose(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	t.Setenv("BLACKFAST_SOCKET", "")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")

	got, err := Resolve("blackfast", PurposeSocket)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := filepath.Join("/tmp/data", "blackfast", "blackfast.socket")
	if got != want {
		t.Fatalf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolveFailsWhenNoDataDirAndNoOverride(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("home resolution differs outside linux")
	}
	t.Setenv("BLACKFAST_PID", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")

	_, err := Resolve("blackfast", PurposePID)
	if !errors.Is(err, ErrNoDataDir) {
		t.Fatalf("Resolve() error = %v, want ErrNoDataDir", err)
	}
}

func TestLoadToleratesMissingHomeWhenRequiredPathsOverridden(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("endpoint is a named pipe on windows")
	}
	t.Setenv("HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("BLACKFAST_SOCKET", "/tmp/bf.sock")
	t.Setenv("BLACKFAST_PID", "/tmp/bf.pid")
	t.Setenv("BLACKFAST_LOCK", "/tmp/bf.lock")
	t.Setenv("BLACKFAST_LOG", "")
	t.Setenv("BLACKFAST_CONFIG", "")
	t.Setenv("BLACKFAST_SERVER", "/opt/bin/blackfast-server")

	p, err := Load("blackfast")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Endpoint != "/tmp/bf.sock" || p.PIDFile != "/tmp/bf.pid" || p.LockFile != "/tmp/bf.lock" {
		t.Fatalf("Load() = %+v, want overrides", p)
	}
	if p.LogDir != "" || p.ConfigFile != "" {
		t.Fatalf("Load() optional paths = %q/%q, want empty", p.LogDir, p.ConfigFile)
	}
	if p.Server != "/opt/bin/blackfast-server" {
		t.Fatalf("Load() server = %q, want override", p.Server)
	}
}

func TestEnvironRoundTripsThroughLoad(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("endpoint is a named pipe on windows")
	}
	dir := t.TempDir()
	p := Paths{
		App:        "blackfast",
		Endpoint:   filepath.Join(dir, "s.sock"),
		PIDFile:    filepath.Join(dir, "d.pid"),
		LockFile:   filepath.Join(dir, "d.lock"),
		LogDir:     filepath.Join(dir, "log"),
		ConfigFile: filepath.Join(dir, "config.toml"),
	}

	env := p.Environ()
	if !slices.Contains(env, "BLACKFAST_SOCKET="+p.Endpoint) {
		t.Fatalf("Environ() = %v, missing socket override", env)
	}

	for _, kv := range env {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				t.Setenv(kv[:i], kv[i+1:])
				break
			}
		}
	}
	got, err := Load("blackfast")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got.Server = ""
	if got != p {
		t.Fatalf("Load() = %+v, want %+v", got, p)
	}
}
