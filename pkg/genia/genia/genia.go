// Package genia provides a public API for embedding the Genia interpreter.
package genia

import (
	"io"
	"iter"
	"os"

	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
	"github.com/m0smith/genia-12-2024/pkg/genia/hosted"
	"github.com/m0smith/genia-12-2024/pkg/genia/parser"
)

// Value is an alias for evaluator.Value.
type Value = evaluator.Value

// Interpreter holds one session. Definitions made by Eval and EvalFile
// accumulate across calls. An Interpreter is not safe for concurrent use;
// give each goroutine its own Fork.
type Interpreter struct {
	session *evaluator.Session
}

type options struct {
	logger   Logger
	resolver evaluator.Resolver
	trace    io.Writer
	args     []string
	hosted   hosted.Options
	allow    []string
	deny     []string
	fieldSep string
}

// Option configures an Interpreter.
type Option func(*options)

// WithLogger sends print output to l.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithResolver replaces the default resolver, which knows every hosted
// routine.
func WithResolver(r evaluator.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithTrace writes one line per function call to w.
func WithTrace(w io.Writer) Option {
	return func(o *options) { o.trace = w }
}

// WithArgs binds $ARGS.
func WithArgs(args []string) Option {
	return func(o *options) { o.args = args }
}

// WithHosted configures the hosted routines of the default resolver.
func WithHosted(opts hosted.Options) Option {
	return func(o *options) { o.hosted = opts }
}

// WithPolicy restricts which foreign targets the default resolver hands out.
func WithPolicy(allow, deny []string) Option {
	return func(o *options) { o.allow, o.deny = allow, deny }
}

// WithFieldSeparator splits awk records on sep instead of whitespace.
func WithFieldSeparator(sep string) Option {
	return func(o *options) { o.fieldSep = sep }
}

// New creates an interpreter with the prelude installed.
func New(opts ...Option) *Interpreter {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := evaluator.NewSession()
	if o.logger != nil {
		s.Logger = o.logger
	}
	if o.resolver != nil {
		s.Resolver = o.resolver
	} else {
		reg := evaluator.NewRegistry()
		hosted.Register(reg, o.hosted)
		reg.SetPolicy(o.allow, o.deny)
		s.Resolver = reg
	}
	s.Trace = o.trace
	s.FieldSeparator = o.fieldSep
	s.SetArgs(o.args)
	return &Interpreter{session: s}
}

// Session exposes the underlying evaluation session.
func (in *Interpreter) Session() *evaluator.Session {
	return in.session
}

// Fork returns an interpreter that sees this one's definitions but keeps
// its own.
func (in *Interpreter) Fork() *Interpreter {
	return &Interpreter{session: in.session.Fork()}
}

// Eval parses and runs source.
func (in *Interpreter) Eval(source string) (Value, error) {
	return in.run(source, "<eval>")
}

// EvalFile reads, parses and runs the script at path.
func (in *Interpreter) EvalFile(path string) (Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return in.run(string(src), path)
}

func (in *Interpreter) run(source, filename string) (Value, error) {
	program, err := parser.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	in.session.Filename = filename
	return evaluator.Run(program, in.session)
}

// EvalRecords runs source in awk mode: its definitions once, then every
// other statement once per line of r.
func (in *Interpreter) EvalRecords(source, filename string, r io.Reader) (Value, error) {
	program, err := parser.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	in.session.Filename = filename
	return evaluator.RunRecords(program, in.session, Lines(r))
}

// EvalRecordsFrom is EvalRecords over an already split sequence of records.
func (in *Interpreter) EvalRecordsFrom(source, filename string, records iter.Seq2[string, error]) (Value, error) {
	program, err := parser.Parse(source, filename)
	if err != nil {
		return nil, err
	}
	in.session.Filename = filename
	return evaluator.RunRecords(program, in.session, records)
}

// Call applies the function bound to name. Go arguments are converted with
// evaluator.FromGo.
func (in *Interpreter) Call(name string, args ...any) (Value, error) {
	values := make([]Value, len(args))
	for i, a := range args {
		values[i] = evaluator.FromGo(a)
	}
	return in.session.Call(name, values...)
}

// Check parses source without running it.
func Check(source, filename string) error {
	_, err := parser.Parse(source, filename)
	return err
}

// FileLines yields the lines of each file in paths in turn. Files are opened
// one at a time with hosted.OpenInput and closed before the next is read, so
// a file without a trailing newline never runs into the next one.
func FileLines(paths []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, path := range paths {
			rc, err := hosted.OpenInput(path)
			if err != nil {
				yield("", err)
				return
			}
			more := true
			for line, err := range Lines(rc) {
				if !yield(line, err) || err != nil {
					more = false
					break
				}
			}
			rc.Close()
			if !more {
				return
			}
		}
	}
}

// Lines yields the lines of r without their terminators.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		sc := hosted.NewLineScanner(r)
		for sc.Scan() {
			if !yield(sc.Text(), nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield("", err)
		}
	}
}
