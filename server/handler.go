package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

// scriptHandler calls the script's handler function once per POST.
type scriptHandler struct {
	server *Server
}

func newScriptHandler(s *Server) *scriptHandler {
	return &scriptHandler{server: s}
}

func (h *scriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, errors.New("not found: "+r.URL.Path))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("use POST"))
		return
	}

	if h.server.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.server.maxBody)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	in := h.server.session()
	result, err := in.Call(h.server.config.Serve.Handler, string(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, display(result))
}

// display is what a response body shows for v: text as is, anything else in
// its printed form.
func display(v evaluator.Value) string {
	if t, ok := v.(*evaluator.Text); ok {
		return t.Value
	}
	return v.Inspect()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}
