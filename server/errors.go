package server

import (
	"encoding/json"
	"net/http"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// errorBody is the JSON written for failed requests.
type errorBody struct {
	Error  string   `json:"error"`
	Class  string   `json:"class,omitempty"`
	Code   string   `json:"code,omitempty"`
	File   string   `json:"file,omitempty"`
	Line   int      `json:"line,omitempty"`
	Column int      `json:"column,omitempty"`
	Hints  []string `json:"hints,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	if ge, ok := gerrors.As(err); ok {
		body = errorBody{
			Error:  ge.Message,
			Class:  string(ge.Class),
			Code:   ge.Code,
			File:   ge.File,
			Line:   ge.Line,
			Column: ge.Column,
			Hints:  ge.Hints,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
