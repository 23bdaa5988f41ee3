package errors

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestGeniaError_String(t *testing.T) {
	tests := []struct {
		name     string
		err      *GeniaError
		expected string
	}{
		{
			name:     "message only",
			err:      &GeniaError{Message: "something went wrong"},
			expected: "something went wrong",
		},
		{
			name:     "with line and column",
			err:      &GeniaError{Message: "unexpected token", Line: 5, Column: 10},
			expected: "line 5, column 10: unexpected token",
		},
		{
			name:     "with file",
			err:      &GeniaError{Message: "parse error", File: "fact.genia", Line: 3, Column: 1},
			expected: "fact.genia: line 3, column 1: parse error",
		},
		{
			name: "with hints",
			err: &GeniaError{
				Message: "identifier not found: facts",
				Line:    1,
				Column:  1,
				Hints:   []string{"Did you mean `fact`?"},
			},
			expected: "line 1, column 1: identifier not found: facts\n  Did you mean `fact`?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGeniaError_PrettyString(t *testing.T) {
	tests := []struct {
		name     string
		err      *GeniaError
		contains []string
	}{
		{
			name:     "parser error",
			err:      &GeniaError{Class: ClassParse, Message: "unexpected token ')'", Line: 2, Column: 4},
			contains: []string{"Parser error", "line 2, column 4", "unexpected token ')'"},
		},
		{
			name:     "runtime error with file",
			err:      &GeniaError{Class: ClassMatch, Message: "no matching clause", File: "a.genia", Line: 1, Column: 1},
			contains: []string{"Runtime error", "in: a.genia", "at: line 1, column 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.PrettyString()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("PrettyString() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		code    string
		data    map[string]any
		class   ErrorClass
		message string
	}{
		{"PARSE-0001", map[string]any{"Expected": "')'", "Got": "]"}, ClassParse, "expected ')', got ']'"},
		{"UNDEF-0001", map[string]any{"Name": "x"}, ClassUndefined, "identifier not found: x"},
		{"MATCH-0001", map[string]any{"Function": "fact", "Args": "-1"}, ClassMatch, "no matching clause for fact(-1)"},
		{"OP-0003", map[string]any{"Left": `"a"`, "Right": "3"}, ClassOperator, `range bounds must be integers, got "a"..3`},
		{"INTERNAL-0001", nil, ClassInternal, "cannot pop the root frame"},
		{"NOPE-9999", map[string]any{"message": "custom"}, ClassInternal, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, tt.data)
			if err.Class != tt.class {
				t.Errorf("Class = %q, want %q", err.Class, tt.class)
			}
			if err.Message != tt.message {
				t.Errorf("Message = %q, want %q", err.Message, tt.message)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestWrapAndHasClass(t *testing.T) {
	err := Wrap("IO-0001", fs.ErrNotExist, map[string]any{"Operation": "read", "Path": "x.txt"})
	if !strings.Contains(err.Message, "file does not exist") {
		t.Errorf("Message = %q, want cause text", err.Message)
	}

	wrapped := fmt.Errorf("running script: %w", err)
	if !HasClass(wrapped, ClassIO) {
		t.Error("HasClass(wrapped, io) = false, want true")
	}
	if HasClass(wrapped, ClassParse) {
		t.Error("HasClass(wrapped, parse) = true, want false")
	}
	if ge, ok := As(wrapped); !ok || ge.Code != "IO-0001" {
		t.Errorf("As() = %v, %v", ge, ok)
	}
}

func TestWithPositionCopies(t *testing.T) {
	orig := New("UNDEF-0001", map[string]any{"Name": "y"})
	moved := orig.WithPosition(4, 2).WithFile("m.genia")
	if orig.Line != 0 || orig.File != "" {
		t.Error("WithPosition/WithFile mutated the receiver")
	}
	if moved.Line != 4 || moved.Column != 2 || moved.File != "m.genia" {
		t.Errorf("moved = %+v", moved)
	}
}

func TestToJSON(t *testing.T) {
	err := NewWithPosition("UNDEF-0001", 3, 7, map[string]any{"Name": "z"})
	b, jerr := err.ToJSON()
	if jerr != nil {
		t.Fatal(jerr)
	}
	var got map[string]any
	if jerr := json.Unmarshal(b, &got); jerr != nil {
		t.Fatal(jerr)
	}
	if got["class"] != "undefined" || got["code"] != "UNDEF-0001" || got["line"] != float64(3) {
		t.Errorf("json = %s", b)
	}
}

func TestFindClosestMatch(t *testing.T) {
	candidates := []string{"fact", "first", "rest", "print", "count"}
	tests := []struct {
		input string
		want  string
	}{
		{"fatc", "fact"},
		{"frist", "first"},
		{"prnt", "print"},
		{"fact", ""}, // exact match gives no suggestion
		{"zzzzzz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FindClosestMatch(tt.input, candidates); got != tt.want {
				t.Errorf("FindClosestMatch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewUndefinedName(t *testing.T) {
	err := NewUndefinedName("coutn", []string{"count", "cons"})
	if len(err.Hints) != 1 || err.Hints[0] != "Did you mean `count`?" {
		t.Errorf("Hints = %v", err.Hints)
	}
	err = NewUndefinedName("qqq", []string{"count"})
	if len(err.Hints) != 0 {
		t.Errorf("Hints = %v, want none", err.Hints)
	}
}
