package config

import "time"

// Config is the top-level blackfast daemon configuration.
type Config struct {
	Formatter FormatterConfig `toml:"formatter"`
	Daemon    DaemonConfig    `toml:"daemon"`
	Log       LogConfig       `toml:"log"`
}

// FormatterConfig describes the external command that formats files.
// Request arguments are appended to Args.
type FormatterConfig struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	Env     map[string]string `toml:"env"`
}

// DaemonConfig controls the daemon process lifetime.
type DaemonConfig struct {
	// IdleTimeout shuts the daemon down after this long without requests.
	// Empty or "0s" keeps it running until stopped.
	IdleTimeout string `toml:"idle_timeout"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // auto, json, text
}

// Defaults.
const (
	DefaultFormatterCommand = "black"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "auto"
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Formatter: FormatterConfig{Command: DefaultFormatterCommand},
		Log:       LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// IdleTimeoutDuration returns the parsed idle timeout, or 0 when disabled or invalid.
// Validate reports invalid values.
func (d DaemonConfig) IdleTimeoutDuration() time.Duration {
	if d.IdleTimeout == "" {
		return 0
	}
	ttl, err := time.ParseDuration(d.IdleTimeout)
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}
