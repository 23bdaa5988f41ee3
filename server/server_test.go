package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/m0smith/genia-12-2024/config"
)

const echoScript = `define handle_request("ping") -> "pong"
  | (body) -> str("echo: ", body)
`

func newTestServer(t *testing.T, script string, mutate func(*config.Config)) (*Server, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.genia")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	cfg.Serve.Script = path
	cfg.Logging.Output = "stdout"
	if mutate != nil {
		mutate(cfg)
	}
	var out bytes.Buffer
	s, err := New(cfg, "", &out, &out)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, &out
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScriptHandler(t *testing.T) {
	s, _ := newTestServer(t, echoScript, nil)
	h := s.Handler()

	tests := []struct {
		body string
		want string
	}{
		{"ping", "pong"},
		{"hello", "echo: hello"},
		{"", "echo: "},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			rec := post(t, h, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
			}
			if rec.Body.String() != tt.want {
				t.Errorf("got %q, want %q", rec.Body.String(), tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("content type %q", ct)
			}
		})
	}
}

func TestNonTextResultIsPrinted(t *testing.T) {
	s, _ := newTestServer(t, `define handle_request(body) -> [body, 1]`, nil)
	rec := post(t, s.Handler(), "x")
	if rec.Body.String() != `["x", 1]` {
		t.Errorf("got %q", rec.Body.String())
	}
}

func TestScriptErrorsReturnJSON(t *testing.T) {
	tests := []struct {
		name   string
		script string
		code   string
	}{
		{"undefined name", `define handle_request(body) -> nope(body)`, "UNDEF-0001"},
		{"no clause", `define handle_request("only") -> 1`, "MATCH-0001"},
		{"division by zero", `define handle_request(body) -> 1 / 0`, "OP-0004"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.script, nil)
			rec := post(t, s.Handler(), "x")
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type %q", ct)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode %q: %v", rec.Body.String(), err)
			}
			if body.Code != tt.code || body.Error == "" {
				t.Errorf("got %+v, want code %s", body, tt.code)
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	s, _ := newTestServer(t, echoScript, nil)
	h := s.Handler()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/", http.StatusMethodNotAllowed},
		{http.MethodPost, "/other", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	s, _ := newTestServer(t, echoScript, func(c *config.Config) { c.Serve.MaxBody = "8B" })
	rec := post(t, s.Handler(), strings.Repeat("x", 64))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status %d, want 413", rec.Code)
	}
}

func TestCompression(t *testing.T) {
	s, _ := newTestServer(t, `define handle_request(body) -> str(body, body, body, body)`,
		func(c *config.Config) { c.Compression.MinSize = 16 })
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("genia ", 50)))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("response not compressed: %v", rec.Header())
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	plain, _ := io.ReadAll(zr)
	if len(plain) != 4*50*len("genia ") {
		t.Errorf("decompressed %d bytes", len(plain))
	}
}

func TestCompressionDisabled(t *testing.T) {
	s, _ := newTestServer(t, echoScript, func(c *config.Config) {
		c.Compression.MinSize = 1
		c.Compression.Level = "none"
	})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("z", 200)))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("expected an uncompressed response")
	}
}

func TestRequestLogging(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		s, out := newTestServer(t, echoScript, nil)
		post(t, s.Handler(), "ping")
		if !strings.Contains(out.String(), " POST / 200 4B ") {
			t.Errorf("log = %q", out.String())
		}
	})
	t.Run("json", func(t *testing.T) {
		s, out := newTestServer(t, echoScript, func(c *config.Config) { c.Logging.Format = "json" })
		post(t, s.Handler(), "ping")
		var entry RequestLogEntry
		if err := json.Unmarshal(out.Bytes(), &entry); err != nil {
			t.Fatalf("decode %q: %v", out.String(), err)
		}
		if entry.Method != "POST" || entry.Status != 200 || entry.Bytes != 4 {
			t.Errorf("entry = %+v", entry)
		}
	})
	t.Run("quiet", func(t *testing.T) {
		s, out := newTestServer(t, echoScript, func(c *config.Config) { c.Logging.Quiet = true })
		post(t, s.Handler(), "ping")
		if out.Len() != 0 {
			t.Errorf("quiet server logged %q", out.String())
		}
	})
}

func TestPrintGoesToStdout(t *testing.T) {
	s, out := newTestServer(t, `define handle_request(body) -> (print("got", body); "ok")`, func(c *config.Config) { c.Logging.Quiet = true })
	post(t, s.Handler(), "x")
	if out.String() != "got x\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		mutate func(*config.Config)
		want   string
	}{
		{"no script", "", func(c *config.Config) { c.Serve.Script = "" }, "serve.script is required"},
		{"parse error", "define (", nil, "loading"},
		{"missing handler", "define other(x) -> x", nil, "handle_request"},
		{"bad body size", echoScript, func(c *config.Config) { c.Serve.MaxBody = "huge" }, "serve.max_body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.genia")
			os.WriteFile(path, []byte(tt.script), 0o644)
			cfg := config.Defaults()
			cfg.Serve.Script = path
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			_, err := New(cfg, "", io.Discard, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestReloadKeepsOldScriptOnError(t *testing.T) {
	s, _ := newTestServer(t, echoScript, nil)
	h := s.Handler()

	os.WriteFile(s.config.Serve.Script, []byte(`define handle_request(body) -> "v2"`), 0o644)
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}
	if got := post(t, h, "x").Body.String(); got != "v2" {
		t.Errorf("after reload got %q", got)
	}

	os.WriteFile(s.config.Serve.Script, []byte(`define handle_request(`), 0o644)
	if err := s.Reload(); err == nil {
		t.Fatal("expected a parse error")
	}
	if got := post(t, h, "x").Body.String(); got != "v2" {
		t.Errorf("broken reload replaced the script: %q", got)
	}
}

func TestWatcherReloadsScript(t *testing.T) {
	s, _ := newTestServer(t, echoScript, nil)
	w, err := NewWatcher(s, io.Discard, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	os.WriteFile(s.config.Serve.Script, []byte(`define handle_request(body) -> "fresh"`), 0o644)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if w.Reloads() > 0 && post(t, s.Handler(), "x").Body.String() == "fresh" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("script was not reloaded")
}
