package genia

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

// Logger receives the output of print. Each print call is one LogLine with
// the printed values in argument order.
type Logger = evaluator.Logger

// StdoutLogger returns the logger print uses when none is given.
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

// printWriter writes print output to w. Sessions forked from one interpreter
// share it, so each line is written whole.
type printWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printWriter) Log(values ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.w, printLine(values))
}

func (p *printWriter) LogLine(values ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.w, printLine(values)+"\n")
}

// WriterLogger returns a logger that writes print output to w.
func WriterLogger(w io.Writer) Logger {
	return &printWriter{w: w}
}

// BufferedLogger keeps print output in memory, one entry per print call.
// Tests and embedding hosts read it back with Lines or String.
type BufferedLogger struct {
	mu      sync.Mutex
	lines   []string
	partial strings.Builder
}

func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (b *BufferedLogger) Log(values ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.partial.WriteString(printLine(values))
}

func (b *BufferedLogger) LogLine(values ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, b.partial.String()+printLine(values))
	b.partial.Reset()
}

// String returns the output as print would have written it.
func (b *BufferedLogger) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(b.partial.String())
	return sb.String()
}

// Lines returns a copy of the completed print lines.
func (b *BufferedLogger) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

func (b *BufferedLogger) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = b.lines[:0]
	b.partial.Reset()
}

type nullLogger struct{}

func (nullLogger) Log(values ...any)     {}
func (nullLogger) LogLine(values ...any) {}

// NullLogger discards print output.
func NullLogger() Logger {
	return nullLogger{}
}

// printLine joins values with single spaces the way print shows them: text
// unquoted, other Genia values in their display form, a missing value as unit.
func printLine(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case nil:
			parts[i] = evaluator.UNIT.Inspect()
		case evaluator.Value:
			parts[i] = v.Inspect()
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, " ")
}
