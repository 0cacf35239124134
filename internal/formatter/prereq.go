package formatter

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lydakis/blackfast/internal/config"
)

var lookPathFn = exec.LookPath

// CheckCommand reports a formatter command that cannot be found. When the
// command is env(1), the program env would run is checked instead.
func CheckCommand(cfg config.FormatterConfig) error {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return fmt.Errorf("formatter command is empty")
	}
	if _, err := lookPathFn(command); err != nil {
		return fmt.Errorf("formatter command %q not found in PATH", command)
	}
	if filepath.Base(command) != "env" {
		return nil
	}

	wrapped := envTarget(cfg.Args)
	if wrapped == "" {
		return nil
	}
	if _, err := lookPathFn(wrapped); err != nil {
		return fmt.Errorf("formatter command %q (run through env) not found in PATH", wrapped)
	}
	return nil
}

// envTarget returns the program env(1) would execute for args, or "" if the
// arguments do not name one.
func envTarget(args []string) string {
	for i := 0; i < len(args); i++ {
		token := strings.TrimSpace(args[i])
		switch {
		case token == "":
		case token == "--":
			return firstProgram(args[i+1:])
		case token == "-S" || token == "--split-string":
			if i+1 >= len(args) {
				return ""
			}
			i++
			if target := envTarget(strings.Fields(args[i])); target != "" {
				return target
			}
		case strings.HasPrefix(token, "-S="), strings.HasPrefix(token, "--split-string="):
			_, value, _ := strings.Cut(token, "=")
			if target := envTarget(strings.Fields(value)); target != "" {
				return target
			}
		case token == "-u" || token == "--unset" || token == "-C" || token == "--chdir":
			i++
		case strings.HasPrefix(token, "-"):
		case strings.Index(token, "=") > 0:
		default:
			return unquote(token)
		}
	}
	return ""
}

func firstProgram(args []string) string {
	for _, raw := range args {
		token := unquote(strings.TrimSpace(raw))
		if token == "" || strings.Index(token, "=") > 0 {
			continue
		}
		return token
	}
	return ""
}

func unquote(token string) string {
	if len(token) < 2 {
		return token
	}
	first, last := token[0], token[len(token)-1]
	if (first == '\'' || first == '"') && first == last {
		return token[1 : len(token)-1]
	}
	return token
}
