package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/m0smith/genia-12-2024/config"
	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

func textHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(body))
	})
}

func serveGzip(h http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompressionHandlerSkipped(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.CompressionConfig
	}{
		{"disabled", config.CompressionConfig{Enabled: false, Level: "default", MinSize: 0}},
		{"level none", config.CompressionConfig{Enabled: true, Level: "none", MinSize: 0}},
		{"below min size", config.CompressionConfig{Enabled: true, Level: "default", MinSize: 1024}},
	}
	body := strings.Repeat("genia ", 20)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveGzip(newCompressionHandler(textHandler(body), tt.cfg))
			if rec.Header().Get("Content-Encoding") == "gzip" {
				t.Error("response should not be gzipped")
			}
			if rec.Body.String() != body {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestCompressionHandlerLevels(t *testing.T) {
	body := strings.Repeat("print(\"hello\")\n", 200)
	for _, level := range []string{"fastest", "default", "best"} {
		t.Run(level, func(t *testing.T) {
			cfg := config.CompressionConfig{Enabled: true, Level: level, MinSize: 64}
			rec := serveGzip(newCompressionHandler(textHandler(body), cfg))
			if rec.Header().Get("Content-Encoding") != "gzip" {
				t.Fatalf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
			}
			zr, err := gzip.NewReader(rec.Body)
			if err != nil {
				t.Fatal(err)
			}
			got, err := io.ReadAll(zr)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != body {
				t.Error("decompressed body differs")
			}
		})
	}
}

func TestCompressionHandlerNoAcceptEncoding(t *testing.T) {
	body := strings.Repeat("x", 4096)
	cfg := config.CompressionConfig{Enabled: true, Level: "default", MinSize: 64}
	h := newCompressionHandler(textHandler(body), cfg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.Len() != len(body) {
		t.Errorf("client without gzip support got an encoded body")
	}
}

func TestCompressionHandlerErrorReports(t *testing.T) {
	cfg := config.CompressionConfig{Enabled: true, Level: "default", MinSize: 64}
	report := gerrors.New("MATCH-0001", map[string]any{"Function": "handle", "Args": strings.Repeat("x", 200)})
	h := newCompressionHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusInternalServerError, report)
	}), cfg)

	rec := serveGzip(h)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), `"code":"MATCH-0001"`) {
		t.Errorf("body = %s", got)
	}
}

func TestCompressionHandlerOtherContentTypes(t *testing.T) {
	cfg := config.CompressionConfig{Enabled: true, Level: "default", MinSize: 64}
	body := strings.Repeat("\x00\x01", 512)
	h := newCompressionHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte(body))
	}), cfg)

	rec := serveGzip(h)
	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("only script text and JSON should be compressed")
	}
	if rec.Body.String() != body {
		t.Error("body changed")
	}
}

func TestCompressionLevel(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"fastest", gzip.BestSpeed},
		{"best", gzip.BestCompression},
		{"default", gzip.DefaultCompression},
		{"", gzip.DefaultCompression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compressionLevel(tt.name); got != tt.want {
				t.Errorf("compressionLevel(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}
