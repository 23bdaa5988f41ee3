package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/m0smith/genia-12-2024/config"
	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
	"github.com/m0smith/genia-12-2024/pkg/genia/genia"
	"github.com/m0smith/genia-12-2024/pkg/genia/hosted"
	"github.com/m0smith/genia-12-2024/pkg/genia/lexer"
	"github.com/m0smith/genia-12-2024/pkg/genia/parser"
	"github.com/m0smith/genia-12-2024/pkg/genia/repl"
	"github.com/m0smith/genia-12-2024/server"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0-dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	code := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	hosted.CloseDatabases()
	os.Exit(code)
}

// cli carries the parsed flags and the streams of one invocation.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	awk      bool
	evalCode string
	args     []string
}

// run parses args, dispatches to the chosen mode and returns the exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	flags := flag.NewFlagSet("genia", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() { printHelp(stderr) }

	var (
		helpFlag    = flags.Bool("h", false, "Show help message")
		helpLong    = flags.Bool("help", false, "Show help message")
		versionFlag = flags.Bool("V", false, "Show version information")
		versionLong = flags.Bool("version", false, "Show version information")
		evalFlag    = flags.String("e", "", "Evaluate code string")
		evalLong    = flags.String("eval", "", "Evaluate code string")
		checkFlag   = flags.Bool("check", false, "Check syntax without executing")
		awkFlag     = flags.Bool("awk", false, "Run the script once per input line")
		fieldSep    = flags.String("F", "", "Awk field separator (default: whitespace)")
		traceFlag   = flags.Bool("trace", false, "Trace function calls to stderr")
		watchFlag   = flags.Bool("watch", false, "Re-run the script when it changes")
		configFlag  = flags.String("config", "", "Path to config file")
		historyFlag = flags.String("history", "", "REPL history file")
	)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *helpFlag || *helpLong {
		printHelp(stdout)
		return exitOK
	}
	if *versionFlag || *versionLong {
		fmt.Fprintf(stdout, "genia version %s\n", Version)
		return exitOK
	}

	if *checkFlag {
		files := flags.Args()
		if len(files) == 0 {
			fmt.Fprintln(stderr, "Error: --check requires at least one file")
			return exitUsage
		}
		return checkFiles(files, stderr)
	}

	cfg, err := config.Load(*configFlag, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "Error: loading config: %v\n", err)
		return exitError
	}
	if *traceFlag {
		cfg.Trace = true
	}
	if *fieldSep != "" {
		cfg.Awk.FieldSeparator = *fieldSep
	}
	if *historyFlag != "" {
		cfg.REPL.HistoryFile = *historyFlag
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, cfg: cfg, awk: *awkFlag}

	c.evalCode = *evalFlag
	if c.evalCode == "" {
		c.evalCode = *evalLong
	}

	switch {
	case c.evalCode != "":
		c.args = flags.Args()
		return c.executeInline()
	case flags.NArg() > 0:
		filename := flags.Arg(0)
		c.args = flags.Args()[1:]
		if *watchFlag {
			ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return c.watchFile(ctx, filename)
		}
		return c.executeFile(filename)
	case c.awk:
		fmt.Fprintln(stderr, "Error: --awk requires a script or -e code")
		return exitUsage
	default:
		repl.Start(stdout, repl.Config{
			Version:     Version,
			HistoryFile: cfg.REPL.HistoryFile,
			New:         c.interpreter,
		})
		return exitOK
	}
}

func (c *cli) interpreter() *genia.Interpreter {
	opts := server.InterpreterOptions(c.cfg, c.stdout, c.stderr)
	opts = append(opts, genia.WithArgs(c.args))
	return genia.New(opts...)
}

// executeInline evaluates -e code and prints the result's representation.
func (c *cli) executeInline() int {
	in := c.interpreter()

	var (
		result evaluator.Value
		err    error
	)
	if c.awk {
		result, err = c.runRecords(in, c.evalCode, "<eval>")
	} else {
		result, err = in.Eval(c.evalCode)
	}
	if err != nil {
		printError(c.stderr, "<eval>", c.evalCode, err)
		return exitError
	}

	if _, unit := result.(*evaluator.Unit); !unit && !c.awk {
		fmt.Fprintln(c.stdout, evaluator.Repr(result))
	}
	return exitOK
}

// executeFile runs a script. Output comes from print; the final value is
// not shown.
func (c *cli) executeFile(filename string) int {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error reading file '%s': %v\n", filename, err)
		return exitError
	}
	source := string(content)

	in := c.interpreter()
	if c.awk {
		_, err = c.runRecords(in, source, filename)
	} else {
		_, err = in.EvalFile(filename)
	}
	if err != nil {
		printError(c.stderr, filename, source, err)
		return exitError
	}
	return exitOK
}

// runRecords feeds the files named by the script arguments, or stdin when
// there are none, to the script one line at a time.
func (c *cli) runRecords(in *genia.Interpreter, source, filename string) (evaluator.Value, error) {
	if len(c.args) == 0 {
		return in.EvalRecords(source, filename, c.stdin)
	}

	return in.EvalRecordsFrom(source, filename, genia.FileLines(c.args))
}

// watchFile runs the script, then runs it again every time it is saved
// until ctx is cancelled.
func (c *cli) watchFile(ctx context.Context, filename string) int {
	abs, err := filepath.Abs(filename)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitError
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: creating watcher: %v\n", err)
		return exitError
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		fmt.Fprintf(c.stderr, "Error: watching %s: %v\n", filename, err)
		return exitError
	}

	c.executeFile(filename)
	fmt.Fprintf(c.stderr, "[watch] waiting for changes to %s\n", filename)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case event, ok := <-watcher.Events:
			if !ok {
				return exitOK
			}
			if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			debounce = time.After(100 * time.Millisecond)
		case <-debounce:
			debounce = nil
			fmt.Fprintf(c.stderr, "[watch] %s changed, running\n", filename)
			c.executeFile(filename)
		case err, ok := <-watcher.Errors:
			if !ok {
				return exitOK
			}
			fmt.Fprintf(c.stderr, "[watch] error: %v\n", err)
		}
	}
}

// checkFiles parses each file and reports every syntax error found.
func checkFiles(files []string, stderr io.Writer) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading %s: %v\n", filename, err)
			return exitUsage
		}

		p := parser.New(lexer.NewWithFilename(string(content), filename))
		p.ParseProgram()

		if errs := p.StructuredErrors(); len(errs) != 0 {
			lines := strings.Split(string(content), "\n")
			for _, e := range errs {
				if e.File == "" {
					e = e.WithFile(filename)
				}
				fmt.Fprintln(stderr, e.PrettyString())
				printSourceContext(stderr, lines, e.Line, e.Column)
			}
			hasErrors = true
		}
	}

	if hasErrors {
		return exitError
	}
	return exitOK
}

// printError prints err with the offending source line when it has a
// position. Errors raised in another file show that file's line.
func printError(w io.Writer, filename, source string, err error) {
	ge, ok := gerrors.As(err)
	if !ok {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	if ge.File != "" && ge.File != filename {
		if content, readErr := os.ReadFile(ge.File); readErr == nil {
			source = string(content)
		}
	}
	fmt.Fprintln(w, ge.PrettyString())
	printSourceContext(w, strings.Split(source, "\n"), ge.Line, ge.Column)
}

// printSourceContext prints the source line and a caret under the column.
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]

	// Leading whitespace is trimmed; tabs count as 8 columns.
	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == '\t' {
			trimCount += 8
		} else if sourceLine[i] == ' ' {
			trimCount++
		} else {
			break
		}
	}
	fmt.Fprintf(w, "    %s\n", strings.TrimLeft(sourceLine, " \t"))

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", max(visualCol-trimCount, 0)))
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, `genia - Genia language interpreter version %s

Usage:
  genia [options] [script] [args...]
  genia -e "code" [args...]
  genia --awk [-F sep] script [files...]
  genia --check <file>...

Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -e, --eval <code>     Evaluate code and print the result
  --check               Check syntax without executing (accepts several files)
  --awk                 Run the script once per input line, with $0, $1.., NF and NR
  -F <sep>              Awk field separator (default: runs of whitespace)
  --trace               Trace every function call to stderr
  --watch               Re-run the script each time it is saved
  --config <path>       Config file (default: GENIA_CONFIG, ./genia.yaml, ~/.config/genia/genia.yaml)
  --history <path>      REPL history file

Options must come before the script; everything after it is passed to the
script as $ARGS. In awk mode those arguments name the input files, which may
be .gz or .zst compressed; without them records come from stdin.

Examples:
  genia                         Start interactive REPL
  genia fib.genia 20            Run a script with $ARGS = ["20"]
  genia -e "1 + 2"              Evaluate inline code (outputs: 3)
  genia --awk -F , -e 'print($2)' data.csv
  genia --check *.genia         Check several files
`, Version)
}
