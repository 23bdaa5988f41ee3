package genia

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

func TestEvalAccumulatesDefinitions(t *testing.T) {
	in := New(WithLogger(NullLogger()))
	if _, err := in.Eval(`define sq(x) -> x * x`); err != nil {
		t.Fatal(err)
	}
	v, err := in.Eval(`sq(7)`)
	if err != nil {
		t.Fatal(err)
	}
	if v.Inspect() != "49" {
		t.Errorf("got %s, want 49", v.Inspect())
	}
}

func TestCallConvertsArguments(t *testing.T) {
	in := New()
	if _, err := in.Eval(`define greet(name, n) -> str(name, "!", n)`); err != nil {
		t.Fatal(err)
	}
	v, err := in.Call("greet", "ada", 3)
	if err != nil {
		t.Fatal(err)
	}
	if v.Inspect() != "ada!3" {
		t.Errorf("got %s", v.Inspect())
	}

	_, err = in.Call("greet", "too few")
	if !gerrors.HasClass(err, gerrors.ClassMatch) {
		t.Errorf("got %v, want a match error", err)
	}
}

func TestBufferedLogger(t *testing.T) {
	log := NewBufferedLogger()
	in := New(WithLogger(log))
	if _, err := in.Eval(`print("one", 1)
print("two")`); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(log.Lines(), "|"); got != "one 1|two" {
		t.Errorf("got %q", got)
	}
	if log.String() != "one 1\ntwo\n" {
		t.Errorf("String() = %q", log.String())
	}
	log.Reset()
	if log.String() != "" {
		t.Errorf("after Reset: %q", log.String())
	}
}

func TestLoggersShowGeniaValues(t *testing.T) {
	values := []any{evaluator.NewText("total"), evaluator.NewInteger(3), nil, "raw"}
	want := "total 3 () raw"

	var out strings.Builder
	WriterLogger(&out).LogLine(values...)
	if out.String() != want+"\n" {
		t.Errorf("WriterLogger wrote %q, want %q", out.String(), want+"\n")
	}

	buf := NewBufferedLogger()
	buf.Log(evaluator.NewText("partial"))
	if buf.String() != "partial" {
		t.Errorf("String() = %q before the line ends", buf.String())
	}
	buf.LogLine()
	buf.LogLine(values...)
	if got := buf.Lines(); len(got) != 2 || got[0] != "partial" || got[1] != want {
		t.Errorf("Lines() = %q", got)
	}
}

func TestWriterLoggerAndTrace(t *testing.T) {
	var out, trace strings.Builder
	in := New(WithLogger(WriterLogger(&out)), WithTrace(&trace))
	if _, err := in.Eval(`define id(x) -> x
print(id(5))`); err != nil {
		t.Fatal(err)
	}
	if out.String() != "5\n" {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(trace.String(), "call id(5) at line 2") {
		t.Errorf("trace = %q", trace.String())
	}
}

func TestEvalFileReportsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.genia")
	os.WriteFile(path, []byte("x = 1\ny = nope\n"), 0o644)

	_, err := New().EvalFile(path)
	ge, ok := gerrors.As(err)
	if !ok {
		t.Fatalf("got %v, want a GeniaError", err)
	}
	if ge.File != path || ge.Line != 2 || ge.Class != gerrors.ClassUndefined {
		t.Errorf("got %s:%d %s", ge.File, ge.Line, ge.Class)
	}
}

func TestArgs(t *testing.T) {
	in := New(WithArgs([]string{"a", "b"}))
	v, err := in.Eval(`$ARGS`)
	if err != nil {
		t.Fatal(err)
	}
	if v.Inspect() != `["a", "b"]` {
		t.Errorf("got %s", v.Inspect())
	}
}

func TestPolicyBlocksForeignTargets(t *testing.T) {
	in := New(WithPolicy(nil, []string{"sql.*"}))
	if _, err := in.Eval(`define up(s) -> foreign "text.upper"
up("ok")`); err != nil {
		t.Fatalf("allowed target: %v", err)
	}
	_, err := in.Eval(`define q(dsn, sql) -> foreign "sql.query"`)
	if !gerrors.HasClass(err, gerrors.ClassForeign) {
		t.Errorf("got %v, want a foreign error", err)
	}
}

func TestCustomResolver(t *testing.T) {
	reg := evaluator.NewRegistry()
	reg.Register("host.answer", func(args []evaluator.Value) (evaluator.Value, error) {
		return evaluator.NewInteger(42), nil
	})
	in := New(WithResolver(reg))
	v, err := in.Eval(`define answer() -> foreign "host.answer"
answer()`)
	if err != nil {
		t.Fatal(err)
	}
	if v.Inspect() != "42" {
		t.Errorf("got %s", v.Inspect())
	}
}

func TestEvalRecords(t *testing.T) {
	log := NewBufferedLogger()
	in := New(WithLogger(log), WithFieldSeparator(","))
	src := `define total(a, b) -> a + b
print(NR, $2)`
	_, err := in.EvalRecords(src, "sum.genia", strings.NewReader("x,1\ny,2,3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(log.Lines(), "|"); got != "1 1|2 2" {
		t.Errorf("got %q", got)
	}
}

func TestFileLines(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	os.WriteFile(a, []byte("x 1\ny 2"), 0o644)
	os.WriteFile(b, []byte("z 3\n"), 0o644)

	var got []string
	for line, err := range FileLines([]string{a, b}) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, line)
	}
	if strings.Join(got, "|") != "x 1|y 2|z 3" {
		t.Errorf("got %q", got)
	}

	var failed error
	for _, err := range FileLines([]string{a, filepath.Join(dir, "missing.txt")}) {
		failed = err
	}
	if failed == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestEvalRecordsFrom(t *testing.T) {
	log := NewBufferedLogger()
	in := New(WithLogger(log))
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	os.WriteFile(a, []byte("x 1\ny 2"), 0o644)
	os.WriteFile(b, []byte("z 3\n"), 0o644)

	if _, err := in.EvalRecordsFrom("print(NR, $1)", "nr.genia", FileLines([]string{a, b})); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(log.Lines(), "|"); got != "1 x|2 y|3 z" {
		t.Errorf("got %q", got)
	}
}

func TestForkKeepsDefinitionsApart(t *testing.T) {
	base := New()
	base.Eval(`define who() -> "base"`)
	f := base.Fork()
	if _, err := f.Eval(`x = who()`); err != nil {
		t.Fatal(err)
	}
	if _, err := base.Eval(`x`); !gerrors.HasClass(err, gerrors.ClassUndefined) {
		t.Errorf("fork binding leaked into base: %v", err)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(`define f(x) -> x`, "ok.genia"); err != nil {
		t.Errorf("valid source: %v", err)
	}
	if err := Check(`define f(x -> x`, "bad.genia"); !gerrors.HasClass(err, gerrors.ClassParse) {
		t.Errorf("got %v, want a parse error", err)
	}
}
