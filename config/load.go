package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no path was given and no default config
// file exists. Callers fall back to Defaults().
var ErrNotFound = errors.New("no config file found (tried TRACER_CONFIG, tracer.yaml, ~/.config/tracer/tracer.yaml)")

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	// Resolve relative file paths against the config file
	if out := cfg.Logging.Output; out != "" && out != "stderr" && out != "stdout" && !filepath.IsAbs(out) {
		cfg.Logging.Output = filepath.Join(baseDir, out)
	}
	cfg.REPL.History = ExpandHome(cfg.REPL.History, getenv)
	if h := cfg.REPL.History; h != "" && !filepath.IsAbs(h) {
		cfg.REPL.History = filepath.Join(baseDir, h)
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > TRACER_CONFIG env > ./tracer.yaml > ~/.config/tracer/tracer.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("TRACER_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("TRACER_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("tracer.yaml"); err == nil {
		return "tracer.yaml", nil
	}

	if home := homeDir(getenv); home != "" {
		xdgPath := filepath.Join(home, ".config", "tracer", "tracer.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", ErrNotFound
}

func homeDir(getenv func(string) string) string {
	if home := getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string, getenv func(string) string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home := homeDir(getenv)
	if home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// Validate checks the configuration and reports every problem at once.
// Call it again after applying CLI overrides.
func Validate(cfg *Config) error {
	var errs []string

	if !slices.Contains(Methods, cfg.Inference.Method) {
		errs = append(errs, fmt.Sprintf("invalid inference method: %s (must be %s)", cfg.Inference.Method, strings.Join(Methods, " or ")))
	}
	if cfg.Inference.Particles < 1 {
		errs = append(errs, fmt.Sprintf("invalid particles: %d (must be at least 1)", cfg.Inference.Particles))
	}
	if cfg.Inference.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("invalid max_attempts: %d (must be at least 1)", cfg.Inference.MaxAttempts))
	}
	if cfg.Inference.Workers < 0 {
		errs = append(errs, fmt.Sprintf("invalid workers: %d (must not be negative)", cfg.Inference.Workers))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	if _, err := ParseSize(cfg.Eval.MaxStack); err != nil {
		errs = append(errs, fmt.Sprintf("eval.max_stack: %v", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ParseSize parses a size string like "10MB", "1GB", "500KB" to bytes.
// Supports: B, KB, MB, GB (case insensitive).
// Returns 0 for empty string.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.TrimSpace(strings.ToUpper(s))

	// Longest suffix first so that "B" does not match "MB"
	suffixes := []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	for _, sf := range suffixes {
		if strings.HasSuffix(s, sf.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(s, sf.suffix))
			var num int64
			if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
				return 0, fmt.Errorf("invalid size number: %s", numStr)
			}
			return num * sf.mult, nil
		}
	}

	var num int64
	if _, err := fmt.Sscanf(s, "%d", &num); err != nil {
		return 0, fmt.Errorf("invalid size format: %s (use B, KB, MB, or GB suffix)", s)
	}
	return num, nil
}
