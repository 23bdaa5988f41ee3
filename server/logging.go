package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// requestLogger is middleware that logs HTTP requests
type requestLogger struct {
	handler http.Handler
	output  io.Writer
	format  string // "json" or "text"
}

// RequestLogEntry represents a single request log entry
type RequestLogEntry struct {
	Timestamp  string `json:"timestamp"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Bytes      int    `json:"bytes"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// responseCapture wraps http.ResponseWriter to capture status code and size
type responseCapture struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rc *responseCapture) WriteHeader(code int) {
	rc.status = code
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if rc.status == 0 {
		rc.status = http.StatusOK
	}
	n, err := rc.ResponseWriter.Write(b)
	rc.bytes += n
	return n, err
}

func newRequestLogger(handler http.Handler, output io.Writer, format string) *requestLogger {
	if format == "" {
		format = "text"
	}
	return &requestLogger{handler: handler, output: output, format: format}
}

func (rl *requestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rc := &responseCapture{ResponseWriter: w}
	rl.handler.ServeHTTP(rc, r)
	duration := time.Since(start)

	clientIP := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		clientIP = xff
	}

	entry := RequestLogEntry{
		Timestamp:  start.Format(time.RFC3339),
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     rc.status,
		Bytes:      rc.bytes,
		DurationMs: duration.Milliseconds(),
		ClientIP:   clientIP,
		UserAgent:  r.UserAgent(),
	}

	if rl.format == "json" {
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fmt.Fprintf(rl.output, "%s\n", data)
		return
	}
	fmt.Fprintf(rl.output, "%s %s %s %d %dB %dms\n",
		entry.Timestamp, entry.Method, entry.Path, entry.Status, entry.Bytes, entry.DurationMs)
}
