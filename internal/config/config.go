package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadFrom reads and parses a config file at the given path.
// A missing file, or an empty path, yields Default() without error.
// Unset keys keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	expandConfigEnvVars(cfg)
	return cfg, nil
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Formatter.Command = expandEnvVars(cfg.Formatter.Command)
	for i := range cfg.Formatter.Args {
		cfg.Formatter.Args[i] = expandEnvVars(cfg.Formatter.Args[i])
	}
	for k, v := range cfg.Formatter.Env {
		cfg.Formatter.Env[k] = expandEnvVars(v)
	}
	cfg.Daemon.IdleTimeout = expandEnvVars(cfg.Daemon.IdleTimeout)
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
