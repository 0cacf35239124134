package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	if strings.TrimSpace(cfg.Formatter.Command) == "" {
		errs = append(errs, fmt.Errorf("formatter.command: must not be empty"))
	}

	if v := cfg.Daemon.IdleTimeout; v != "" {
		ttl, err := time.ParseDuration(v)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("daemon.idle_timeout: invalid duration %q: %w", v, err))
		case ttl < 0:
			errs = append(errs, fmt.Errorf("daemon.idle_timeout: must not be negative"))
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unsupported value %q", cfg.Log.Level))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "auto", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported value %q", cfg.Log.Format))
	}

	return errors.Join(errs...)
}
