package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noenv(string) string { return "" }

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "genia.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "TEST_HOST":
			return "example.com"
		case "TEST_PORT":
			return "9000"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "host: ${TEST_HOST}", "host: example.com"},
		{"with default (env set)", "host: ${TEST_HOST:-localhost}", "host: example.com"},
		{"with default (env not set)", "host: ${UNSET_VAR:-localhost}", "host: localhost"},
		{"multiple substitutions", "addr: ${TEST_HOST}:${TEST_PORT}", "addr: example.com:9000"},
		{"unset without default", "x: ${UNSET_VAR}", "x: "},
		{"no pattern", "plain: value", "plain: value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(interpolateEnv([]byte(tt.input), getenv))
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
trace: true
foreign:
  allow: [text.*, time.*]
  deny: sql.*
awk:
  field_separator: ","
database:
  default: sqlite:data/app.db
hosted:
  locale: de
  seed: 7
serve:
  port: 9090
  script: scripts/app.genia
  watch: true
logging:
  format: json
`)

	cfg, resolved, err := LoadWithPath(path, noenv)
	if err != nil {
		t.Fatalf("LoadWithPath: %v", err)
	}
	abs, _ := filepath.Abs(path)
	if resolved != abs || cfg.BaseDir != dir {
		t.Errorf("resolved %q base %q", resolved, cfg.BaseDir)
	}
	if !cfg.Trace || cfg.Awk.FieldSeparator != "," || cfg.Hosted.Locale != "de" || cfg.Hosted.Seed != 7 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if strings.Join(cfg.Foreign.Allow, ",") != "text.*,time.*" || strings.Join(cfg.Foreign.Deny, ",") != "sql.*" {
		t.Errorf("foreign = %+v", cfg.Foreign)
	}
	if cfg.Serve.Script != filepath.Join(dir, "scripts", "app.genia") {
		t.Errorf("script not resolved against config dir: %q", cfg.Serve.Script)
	}
	if cfg.Database.Default != "sqlite:"+filepath.Join(dir, "data", "app.db") {
		t.Errorf("sqlite path not resolved: %q", cfg.Database.Default)
	}
	// untouched sections keep their defaults
	if cfg.Serve.Handler != "handle_request" || cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("defaults lost: %+v %+v", cfg.Serve, cfg.Logging)
	}
}

func TestLoadWithEnvInterpolation(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "serve:\n  port: ${GENIA_PORT:-7000}\ndatabase:\n  default: ${DB_URL}\n")
	getenv := func(key string) string {
		if key == "DB_URL" {
			return "postgres://app@db/app?sslmode=disable"
		}
		return ""
	}
	cfg, err := Load(path, getenv)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serve.Port != 7000 || cfg.Database.Default != "postgres://app@db/app?sslmode=disable" {
		t.Errorf("got port %d dsn %q", cfg.Serve.Port, cfg.Database.Default)
	}
}

func TestLoadKeepsMemoryAndAbsoluteDSN(t *testing.T) {
	for _, dsn := range []string{"sqlite::memory:", "sqlite:/var/db/app.db"} {
		path := writeConfig(t, t.TempDir(), "database:\n  default: \""+dsn+"\"\n")
		cfg, err := Load(path, noenv)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Database.Default != dsn {
			t.Errorf("got %q, want %q", cfg.Database.Default, dsn)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing explicit file", filepath.Join(dir, "nope.yaml"), "config file not found"},
		{"bad yaml", writeConfig(t, t.TempDir(), "serve: [\n"), "failed to parse config"},
		{"invalid values", writeConfig(t, t.TempDir(), "serve:\n  port: -1\n"), "configuration errors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path, noenv)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	// nothing anywhere: defaults
	cfg, path, err := LoadWithPath("", noenv)
	if err != nil || path != "" || cfg.Serve.Port != 8080 {
		t.Fatalf("got %v %q %v", cfg, path, err)
	}

	// ~/.config/genia/genia.yaml
	xdg := filepath.Join(dir, ".config", "genia")
	os.MkdirAll(xdg, 0o755)
	writeConfig(t, xdg, "serve:\n  port: 1111\n")
	if got, _ := resolveConfigPath("", noenv); got != filepath.Join(xdg, "genia.yaml") {
		t.Errorf("home config: got %q", got)
	}

	// ./genia.yaml beats the home config
	writeConfig(t, dir, "serve:\n  port: 2222\n")
	if got, _ := resolveConfigPath("", noenv); got != "genia.yaml" {
		t.Errorf("local config: got %q", got)
	}

	// GENIA_CONFIG beats both
	other := writeConfig(t, t.TempDir(), "serve:\n  port: 3333\n")
	getenv := func(k string) string {
		if k == "GENIA_CONFIG" {
			return other
		}
		return ""
	}
	if got, _ := resolveConfigPath("", getenv); got != other {
		t.Errorf("GENIA_CONFIG: got %q", got)
	}

	// a missing GENIA_CONFIG is an error, not a fallback
	if _, err := resolveConfigPath("", func(string) string { return "/no/such/genia.yaml" }); err == nil {
		t.Error("expected an error for a missing GENIA_CONFIG file")
	}
}
