// Package server exposes a Genia script over HTTP. Each POST to / calls the
// script's handler function with the request body.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/m0smith/genia-12-2024/config"
	"github.com/m0smith/genia-12-2024/pkg/genia/genia"
	"github.com/m0smith/genia-12-2024/pkg/genia/hosted"
)

// Server represents a Genia script service.
type Server struct {
	config     *config.Config
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	mux        *http.ServeMux
	server     *http.Server
	watcher    *Watcher
	maxBody    int64

	mu   sync.RWMutex
	base *genia.Interpreter
}

// InterpreterOptions translates the configuration into interpreter options.
// print output goes to stdout and traces to stderr.
func InterpreterOptions(cfg *config.Config, stdout, stderr io.Writer) []genia.Option {
	opts := []genia.Option{
		genia.WithLogger(genia.WriterLogger(stdout)),
		genia.WithHosted(hosted.Options{
			DefaultDSN: cfg.Database.Default,
			Locale:     cfg.Hosted.Locale,
			Seed:       cfg.Hosted.Seed,
		}),
		genia.WithPolicy(cfg.Foreign.Allow, cfg.Foreign.Deny),
		genia.WithFieldSeparator(cfg.Awk.FieldSeparator),
	}
	if cfg.Trace {
		opts = append(opts, genia.WithTrace(stderr))
	}
	return opts
}

// New loads the configured script and creates a server for it.
func New(cfg *config.Config, configPath string, stdout, stderr io.Writer) (*Server, error) {
	if cfg.Serve.Script == "" {
		return nil, fmt.Errorf("serve.script is required")
	}
	maxBody, err := config.ParseSize(cfg.Serve.MaxBody)
	if err != nil {
		return nil, fmt.Errorf("serve.max_body: %w", err)
	}

	s := &Server{
		config:     cfg,
		configPath: configPath,
		stdout:     stdout,
		stderr:     stderr,
		mux:        http.NewServeMux(),
		maxBody:    maxBody,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/", newScriptHandler(s))
	return s, nil
}

// Reload evaluates the script into a fresh interpreter and swaps it in once
// the handler function is known to exist. On failure the previous script
// keeps serving.
func (s *Server) Reload() error {
	in := genia.New(InterpreterOptions(s.config, s.stdout, s.stderr)...)
	if _, err := in.EvalFile(s.config.Serve.Script); err != nil {
		return fmt.Errorf("loading %s: %w", s.config.Serve.Script, err)
	}
	if _, err := in.Session().Env.Lookup(s.config.Serve.Handler); err != nil {
		return fmt.Errorf("loading %s: %w", s.config.Serve.Script, err)
	}

	s.mu.Lock()
	s.base = in
	s.mu.Unlock()
	return nil
}

// session returns a per-request interpreter that sees the script's
// definitions but not other requests' bindings.
func (s *Server) session() *genia.Interpreter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.Fork()
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = newCompressionHandler(handler, s.config.Compression)
	if s.config.Logging.Level != "error" && !s.config.Logging.Quiet {
		handler = newRequestLogger(handler, s.logOutput(), s.config.Logging.Format)
	}
	return handler
}

func (s *Server) logOutput() io.Writer {
	switch s.config.Logging.Output {
	case "", "stderr":
		return s.stderr
	case "stdout":
		return s.stdout
	}
	f, err := os.OpenFile(s.config.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logError("cannot open log file %s: %v", s.config.Logging.Output, err)
		return s.stderr
	}
	return f
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.listenAddr()

	if s.config.Serve.Watch {
		watcher, err := NewWatcher(s, s.stdout, s.stderr)
		if err != nil {
			s.logError("failed to create watcher: %v", err)
		} else {
			s.watcher = watcher
			if err := s.watcher.Start(ctx); err != nil {
				s.logError("failed to start watcher: %v", err)
			}
			defer s.watcher.Close()
		}
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(s.stdout, "Serving %s on http://%s\n", s.config.Serve.Script, addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintf(s.stdout, "\nShutting down gracefully...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) listenAddr() string {
	return net.JoinHostPort(s.config.Serve.Host, fmt.Sprint(s.config.Serve.Port))
}

func (s *Server) logError(format string, args ...any) {
	fmt.Fprintf(s.stderr, "[ERROR] "+format+"\n", args...)
}
