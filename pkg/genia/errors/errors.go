// Package errors provides structured error types for the Genia language.
//
// GeniaError is the single error type produced by the parser and the
// evaluator. It carries a class, a catalog code, a rendered message, optional
// hints and the source position the failure was observed at.
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Lexer/parser errors
	ClassUndefined ErrorClass = "undefined" // Name not bound in any frame
	ClassMatch     ErrorClass = "match"     // No clause accepted the arguments
	ClassPattern   ErrorClass = "pattern"   // Required destructuring failed
	ClassOperator  ErrorClass = "operator"  // Operator or node has no meaning for its operands
	ClassForeign   ErrorClass = "foreign"   // Host routine resolution or invocation
	ClassInternal  ErrorClass = "internal"  // Evaluator invariant violated
	ClassIO        ErrorClass = "io"        // File operations
	ClassDatabase  ErrorClass = "database"  // SQL routines
	ClassConfig    ErrorClass = "config"    // Configuration problems
)

// GeniaError represents any error from parsing or evaluation.
type GeniaError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based (0 if unknown)
	Column  int            `json:"column"` // 1-based (0 if unknown)
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Err     error          `json:"-"` // underlying cause, if any
}

// Error implements the error interface.
func (e *GeniaError) Error() string {
	return e.String()
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *GeniaError) Unwrap() error {
	return e.Err
}

// String returns a formatted string representation of the error.
func (e *GeniaError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *GeniaError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Parser error")
	default:
		sb.WriteString("Runtime error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *GeniaError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *GeniaError) WithFile(file string) *GeniaError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *GeniaError) WithPosition(line, column int) *GeniaError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "{{.Message}}",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "a list pattern may contain only one rest marker",
		Hints:    []string{"[head, ..tail]", "[..pre, mid, ..post]"},
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "spread '..{{.Operand}}' is only allowed inside a list or an argument list",
		Hints:    []string{"[..xs, 1]", "f(..args)"},
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "invalid pattern: {{.Got}}",
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "identifier not found: {{.Name}}",
		// Hint "Did you mean `X`?" added dynamically by fuzzy matching
	},
	"UNDEF-0002": {
		Class:    ClassUndefined,
		Template: "unknown constructor: {{.Name}}",
	},

	// ========================================
	// Dispatch errors (MATCH-0xxx)
	// ========================================
	"MATCH-0001": {
		Class:    ClassMatch,
		Template: "no matching clause for {{.Function}}({{.Args}})",
	},

	// ========================================
	// Destructuring errors (PATTERN-0xxx)
	// ========================================
	"PATTERN-0001": {
		Class:    ClassPattern,
		Template: "pattern {{.Pattern}} does not match {{.Value}}",
	},

	// ========================================
	// Operator errors (OP-0xxx)
	// ========================================
	"OP-0001": {
		Class:    ClassOperator,
		Template: "unsupported operation: {{.Left}} {{.Operator}} {{.Right}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "unsupported operation: {{.Operator}}{{.Right}}",
	},
	"OP-0003": {
		Class:    ClassOperator,
		Template: "range bounds must be integers, got {{.Left}}..{{.Right}}",
	},
	"OP-0004": {
		Class:    ClassOperator,
		Template: "division by zero",
	},
	"OP-0005": {
		Class:    ClassOperator,
		Template: "cannot call {{.Got}} as a function",
	},
	"OP-0006": {
		Class:    ClassOperator,
		Template: "`{{.Function}}` expected {{.Expected}}, got {{.Got}}",
	},
	"OP-0007": {
		Class:    ClassOperator,
		Template: "invalid regular expression {{.Pattern}}: {{.GoError}}",
	},
	"OP-0008": {
		Class:    ClassOperator,
		Template: "cannot evaluate node of kind {{.Kind}}",
	},
	"OP-0009": {
		Class:    ClassOperator,
		Template: "cannot spread {{.Got}}",
	},
	"OP-0010": {
		Class:    ClassOperator,
		Template: "integer overflow: {{.Left}} {{.Operator}} {{.Right}}",
		Hints:    []string{"integers are 64-bit, from -9223372036854775808 to 9223372036854775807"},
	},
	"OP-0011": {
		Class:    ClassOperator,
		Template: "range {{.Left}}..{{.Right}} has more than {{.Max}} elements",
	},

	// ========================================
	// Foreign errors (FOREIGN-0xxx)
	// ========================================
	"FOREIGN-0001": {
		Class:    ClassForeign,
		Template: "cannot resolve foreign target '{{.Target}}'",
	},
	"FOREIGN-0002": {
		Class:    ClassForeign,
		Template: "foreign routine '{{.Target}}' failed: {{.GoError}}",
	},
	"FOREIGN-0003": {
		Class:    ClassForeign,
		Template: "foreign target '{{.Target}}' is not allowed",
		Hints:    []string{"add it to foreign.allow in genia.yaml"},
	},

	// ========================================
	// Internal errors (INTERNAL-0xxx)
	// ========================================
	"INTERNAL-0001": {
		Class:    ClassInternal,
		Template: "cannot pop the root frame",
	},
	"INTERNAL-0002": {
		Class:    ClassInternal,
		Template: "{{.Message}}",
	},

	// ========================================
	// I/O errors (IO-0xxx)
	// ========================================
	"IO-0001": {
		Class:    ClassIO,
		Template: "failed to {{.Operation}} '{{.Path}}': {{.GoError}}",
	},

	// ========================================
	// Database errors (DB-0xxx)
	// ========================================
	"DB-0001": {
		Class:    ClassDatabase,
		Template: "{{.Driver}} {{.Operation}} failed: {{.GoError}}",
	},
	"DB-0002": {
		Class:    ClassDatabase,
		Template: "unsupported data source '{{.DSN}}'",
		Hints:    []string{"sqlite:path.db", "postgres://user@host/db", "mysql:user:pass@tcp(host)/db"},
	},
}

// New creates a GeniaError from the catalog.
// If the code is not found, creates a generic internal error with the message.
func New(code string, data map[string]any) *GeniaError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &GeniaError{
			Class:   ClassInternal,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &GeniaError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a GeniaError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *GeniaError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// Wrap creates a catalog error whose cause is err. The cause's text is made
// available to the template as GoError.
func Wrap(code string, err error, data map[string]any) *GeniaError {
	if data == nil {
		data = map[string]any{}
	}
	if err != nil {
		data["GoError"] = err.Error()
	}
	ge := New(code, data)
	ge.Err = err
	return ge
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *GeniaError {
	return &GeniaError{
		Class:   class,
		Message: message,
	}
}

// HasClass reports whether err, or any error it wraps, is a GeniaError of the
// given class.
func HasClass(err error, class ErrorClass) bool {
	var ge *GeniaError
	if !stderrors.As(err, &ge) {
		return false
	}
	return ge.Class == class
}

// As returns the first GeniaError in err's chain.
func As(err error) (*GeniaError, bool) {
	var ge *GeniaError
	ok := stderrors.As(err, &ge)
	return ge, ok
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}

func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns "" when nothing is within the length-based threshold.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	var bestMatch string
	bestDistance := -1
	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > threshold(input) {
		return ""
	}
	return bestMatch
}

// NewUndefinedName creates an undefined name error with an optional
// "Did you mean" hint drawn from the names currently in scope.
func NewUndefinedName(name string, available []string) *GeniaError {
	err := New("UNDEF-0001", map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}

// Keywords is the reserved word list used for typo suggestions.
var Keywords = []string{"define", "fn", "when", "delay", "foreign", "data"}
