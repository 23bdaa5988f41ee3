package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the
// resolved path. When no path is given and no file is found it returns
// Defaults() and an empty path.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Defaults(), "", nil
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

	if cfg.Serve.Script != "" && !filepath.IsAbs(cfg.Serve.Script) {
		cfg.Serve.Script = filepath.Join(baseDir, cfg.Serve.Script)
	}

	// Resolve a relative sqlite path
	if file, ok := strings.CutPrefix(cfg.Database.Default, "sqlite:"); ok {
		if file != "" && file != ":memory:" && !filepath.IsAbs(file) {
			cfg.Database.Default = "sqlite:" + filepath.Join(baseDir, file)
		}
	}

	if rest, ok := strings.CutPrefix(cfg.REPL.HistoryFile, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.REPL.HistoryFile = filepath.Join(home, rest)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// Validate checks the whole configuration and reports every problem in one
// error. Call it again after applying CLI overrides.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Serve.Port < 1 || cfg.Serve.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Serve.Port))
	}
	if cfg.Serve.Handler == "" {
		errs = append(errs, "serve.handler must name a function")
	}
	if _, err := ParseSize(cfg.Serve.MaxBody); err != nil {
		errs = append(errs, fmt.Sprintf("serve.max_body: %v", err))
	}

	for _, section := range []struct {
		name     string
		patterns StringOrSlice
	}{
		{"foreign.allow", cfg.Foreign.Allow},
		{"foreign.deny", cfg.Foreign.Deny},
	} {
		for _, p := range section.patterns {
			if _, err := path.Match(p, ""); err != nil {
				errs = append(errs, fmt.Sprintf("%s: bad pattern %q", section.name, p))
			}
		}
	}

	if dsn := cfg.Database.Default; dsn != "" && !knownDSN(dsn) {
		errs = append(errs, fmt.Sprintf("database.default: unsupported data source %q (use sqlite:, postgres:// or mysql:)", dsn))
	}

	validLevels := map[string]bool{"fastest": true, "default": true, "best": true, "none": true}
	if !validLevels[cfg.Compression.Level] {
		errs = append(errs, fmt.Sprintf("invalid compression level: %s (must be fastest, default, best, or none)", cfg.Compression.Level))
	}

	logLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !logLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func knownDSN(dsn string) bool {
	for _, prefix := range []string{"sqlite:", "postgres://", "postgresql://", "mysql:"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// Warnings returns non-fatal configuration issues that should be reported to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	if cfg.Serve.Watch && cfg.Serve.Script == "" {
		warnings = append(warnings, "serve.watch is set but serve.script is empty - there is nothing to reload")
	}
	if cfg.Trace && cfg.Serve.Script != "" {
		warnings = append(warnings, "trace is on - every request will write call traces")
	}
	for _, p := range cfg.Foreign.Allow {
		if cfg.Foreign.Deny.Contains(p) {
			warnings = append(warnings, fmt.Sprintf("foreign: pattern %q is both allowed and denied - deny wins", p))
		}
	}
	if strings.HasPrefix(cfg.Database.Default, "postgres") && !strings.Contains(cfg.Database.Default, "sslmode=") {
		warnings = append(warnings, "database.default: postgres DSN without sslmode - the driver will require TLS")
	}

	return warnings
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > GENIA_CONFIG env > ./genia.yaml > ~/.config/genia/genia.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("GENIA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("GENIA_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("genia.yaml"); err == nil {
		return "genia.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "genia", "genia.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
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

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// ParseSize parses a size string like "10MB", "1GB", "500KB" to bytes.
// Supports: B, KB, MB, GB (case insensitive).
// Returns 0 for empty string.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.TrimSpace(strings.ToUpper(s))

	// Longest suffix first so "B" does not match "MB"
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
		if numStr, ok := strings.CutSuffix(s, sf.suffix); ok {
			var num int64
			if _, err := fmt.Sscanf(strings.TrimSpace(numStr), "%d", &num); err != nil {
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
