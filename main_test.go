package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noenv(string) string { return "" }

func TestRunVersion(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	if err := run(context.Background(), []string{"--version"}, stdout, stderr, noenv); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "genia-serve version") {
		t.Errorf("expected version output, got %q", stdout.String())
	}
}

func TestRunHelp(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	if err := run(context.Background(), []string{"--help"}, stdout, stderr, noenv); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	output := stdout.String()
	for _, want := range []string{"genia-serve - serve a Genia script", "--config", "--script", "GENIA_CONFIG"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in help, got %q", want, output)
		}
	}
}

func TestRunInvalidFlag(t *testing.T) {
	err := run(context.Background(), []string{"--invalid-flag"}, &bytes.Buffer{}, &bytes.Buffer{}, noenv)
	if err == nil {
		t.Error("expected error for invalid flag")
	}
}

func TestRunMissingConfig(t *testing.T) {
	err := run(context.Background(), []string{"--config", "/nonexistent/genia.yaml"}, &bytes.Buffer{}, &bytes.Buffer{}, noenv)
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected 'config file not found' error, got %v", err)
	}
}

func TestRunRequiresScript(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	err := run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{}, noenv)
	if err == nil || !strings.Contains(err.Error(), "serve.script is required") {
		t.Errorf("got %v", err)
	}
}

func TestRunInvalidPortOverride(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "app.genia")
	os.WriteFile(script, []byte(`define handle_request(b) -> b`), 0o644)
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	err := run(context.Background(), []string{"--script", script, "--port", "99999"}, &bytes.Buffer{}, &bytes.Buffer{}, noenv)
	if err == nil || !strings.Contains(err.Error(), "invalid port") {
		t.Errorf("got %v", err)
	}
}
