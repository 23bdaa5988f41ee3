package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerText(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})

	var buf bytes.Buffer
	logger := newRequestLogger(handler, &buf, "")

	logger.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ping")))

	fields := strings.Fields(buf.String())
	if len(fields) != 6 {
		t.Fatalf("log line = %q", buf.String())
	}
	if fields[1] != "POST" || fields[2] != "/" || fields[3] != "200" || fields[4] != "4B" {
		t.Errorf("log line = %q", buf.String())
	}
	if !strings.HasSuffix(fields[5], "ms") {
		t.Errorf("duration = %q", fields[5])
	}
}

func TestRequestLoggerJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("no"))
	})

	var buf bytes.Buffer
	logger := newRequestLogger(handler, &buf, "json")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	logger.ServeHTTP(httptest.NewRecorder(), req)

	var entry RequestLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if entry.Method != "GET" || entry.Status != 405 || entry.Bytes != 2 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.UserAgent != "test-agent" {
		t.Errorf("user agent = %q", entry.UserAgent)
	}
	if entry.ClientIP != "203.0.113.9" {
		t.Errorf("client ip = %q, want the forwarded address", entry.ClientIP)
	}
	if entry.Timestamp == "" {
		t.Error("timestamp should not be empty")
	}
}

func TestResponseCaptureDefaultsTo200(t *testing.T) {
	rc := &responseCapture{ResponseWriter: httptest.NewRecorder()}
	rc.Write([]byte("abc"))
	rc.Write([]byte("de"))
	if rc.status != http.StatusOK || rc.bytes != 5 {
		t.Errorf("status = %d, bytes = %d", rc.status, rc.bytes)
	}
}
