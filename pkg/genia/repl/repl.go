package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
	"github.com/m0smith/genia-12-2024/pkg/genia/genia"
	"github.com/m0smith/genia-12-2024/pkg/genia/lexer"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const GENIA_LOGO = `
  __ _  ___ _ __ (_) __ _
 / _' |/ _ \ '_ \| |/ _' |
| (_| |  __/ | | | | (_| |
 \__, |\___|_| |_|_|\__,_|
 |___/ `

// Config configures a REPL run.
type Config struct {
	Version string
	// HistoryFile defaults to .genia_history in the temp directory.
	HistoryFile string
	// New builds the interpreter; :clear calls it again.
	New func() *genia.Interpreter
}

// Start runs the REPL on the terminal with line editing, history, and tab
// completion until Ctrl+D or exit.
func Start(out io.Writer, cfg Config) {
	r := newState(out, cfg.New)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.completions)

	historyFile := cfg.HistoryFile
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".genia_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, GENIA_LOGO)
	fmt.Fprintln(out, "v", cfg.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for {
		input, err := line.Prompt(r.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				if r.pending() {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				r.buf.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		entry, quit := r.handle(input)
		if quit {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if entry != "" {
			line.AppendHistory(entry)
		}
	}
}

// state is everything the REPL keeps between lines. It is separate from the
// terminal so it can be driven directly.
type state struct {
	out     io.Writer
	newFn   func() *genia.Interpreter
	interp  *genia.Interpreter
	buf     strings.Builder
	tracing bool
}

func newState(out io.Writer, newFn func() *genia.Interpreter) *state {
	if newFn == nil {
		newFn = func() *genia.Interpreter { return genia.New() }
	}
	return &state{out: out, newFn: newFn, interp: newFn()}
}

func (r *state) pending() bool { return r.buf.Len() > 0 }

func (r *state) prompt() string {
	if r.pending() {
		return CONTINUATION_PROMPT
	}
	return PROMPT
}

// handle takes one line of input. When it completes an entry, the entry is
// evaluated and returned for the history.
func (r *state) handle(input string) (entry string, quit bool) {
	trimmed := strings.TrimSpace(input)
	if !r.pending() {
		switch {
		case trimmed == "exit" || trimmed == "quit":
			return "", true
		case strings.HasPrefix(trimmed, ":"):
			r.command(trimmed)
			return "", false
		case trimmed == "":
			return "", false
		}
	}

	if r.pending() {
		r.buf.WriteString("\n")
	}
	r.buf.WriteString(input)
	full := r.buf.String()
	if needsMoreInput(full) {
		return "", false
	}
	r.buf.Reset()

	v, err := r.interp.Eval(full)
	if err != nil {
		printError(r.out, err)
		return full, false
	}
	if _, ok := v.(*evaluator.Unit); ok {
		io.WriteString(r.out, "OK\n")
	} else {
		io.WriteString(r.out, evaluator.Repr(v)+"\n")
	}
	return full, false
}

func (r *state) command(cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(r.out, "REPL Commands:")
		fmt.Fprintln(r.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(r.out, "  :env            Show names defined in this session")
		fmt.Fprintln(r.out, "  :clear          Forget every definition")
		fmt.Fprintln(r.out, "  :trace          Toggle call tracing")
		fmt.Fprintln(r.out, "  exit, quit      Exit the REPL")

	case ":env":
		printEnvironment(r.out, r.interp.Session().Env.Global().Bindings())

	case ":clear":
		r.interp = r.newFn()
		r.tracing = false
		fmt.Fprintln(r.out, "Environment cleared")

	case ":trace":
		r.tracing = !r.tracing
		if r.tracing {
			r.interp.Session().Trace = r.out
			fmt.Fprintln(r.out, "Tracing ON")
		} else {
			r.interp.Session().Trace = nil
			fmt.Fprintln(r.out, "Tracing OFF")
		}

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func printEnvironment(out io.Writer, vars map[string]evaluator.Value) {
	if len(vars) == 0 {
		fmt.Fprintln(out, "(no definitions)")
		return
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := evaluator.Repr(vars[name])
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		fmt.Fprintf(out, "  %s = %s\n", name, value)
	}
}

// completions offers keywords, prelude routines and bound names that extend
// the last word of line.
func (r *state) completions(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if last := line[len(line)-1]; last == ' ' || last == '\t' {
		return nil
	}
	start := strings.LastIndexFunc(line, func(c rune) bool {
		return !(c == '_' || c == '?' || c == '!' || c == '$' ||
			('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9'))
	}) + 1
	prefix, word := line[:start], line[start:]
	if word == "" {
		return nil
	}

	seen := make(map[string]bool)
	var matches []string
	add := func(names []string) {
		for _, n := range names {
			if strings.HasPrefix(n, word) && !seen[n] {
				seen[n] = true
				matches = append(matches, prefix+n)
			}
		}
	}
	add(lexer.Keywords())
	add(r.interp.Session().Env.Names())
	sort.Strings(matches)
	return matches
}

// needsMoreInput reports whether input has unclosed parentheses, brackets or
// braces outside strings and comments.
func needsMoreInput(input string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote, '\n':
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '#':
			for i < len(input) && input[i] != '\n' {
				i++
			}
		case '/':
			if i+1 < len(input) && input[i+1] == '/' {
				for i < len(input) && input[i] != '\n' {
					i++
				}
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth > 0
}

func printError(out io.Writer, err error) {
	if ge, ok := gerrors.As(err); ok {
		io.WriteString(out, ge.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
