package server

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the served script when it changes on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	server  *Server
	script  string
	stdout  io.Writer
	stderr  io.Writer

	// Track last change time to debounce rapid changes
	mu         sync.Mutex
	lastChange time.Time
	reloads    uint64
}

// NewWatcher creates a file watcher for the server's script.
func NewWatcher(s *Server, stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher: fsWatcher,
		server:  s,
		script:  filepath.Clean(s.config.Serve.Script),
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

// Start begins watching for file changes. Editors often replace files
// rather than write them, so the directory is watched, not the file.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.script)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.logInfo("watching script: %s", w.script)
	go w.eventLoop(ctx)
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	const debounce = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.script {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.mu.Lock()
			if time.Since(w.lastChange) < debounce {
				w.mu.Unlock()
				continue
			}
			w.lastChange = time.Now()
			w.mu.Unlock()

			// let the writer finish before reading
			time.Sleep(debounce)
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	if err := w.server.Reload(); err != nil {
		w.logError("%v (still serving the previous version)", err)
		return
	}
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logInfo("reloaded %s", w.script)
}

// Reloads returns how many successful reloads have happened.
func (w *Watcher) Reloads() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...any) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...any) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
