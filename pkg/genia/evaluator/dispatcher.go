package evaluator

import (
	"fmt"
	"maps"
	"strings"

	"github.com/m0smith/genia-12-2024/pkg/genia/ast"
	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// Routine is a host-implemented body. It receives the raw argument list.
type Routine func(args []Value) (Value, error)

// Clause is one alternative of a dispatcher: patterns, optional guard, and
// either an AST body or a host routine.
type Clause struct {
	Params   []ast.Pattern
	Guard    ast.Expression
	Body     ast.Expression
	Routine  Routine
	Target   string // foreign target name, for error messages
	Frame    *Frame // captured at definition time
	arity    int
	variadic bool
}

// NewClause builds a clause and works out its arity. A trailing rest
// parameter makes it variadic.
func NewClause(params []ast.Pattern, guard, body ast.Expression, frame *Frame) *Clause {
	c := &Clause{Params: params, Guard: guard, Body: body, Frame: frame, arity: len(params)}
	if n := len(params); n > 0 {
		if _, ok := params[n-1].(*ast.RestPattern); ok {
			c.variadic = true
			c.arity = n - 1
		}
	}
	return c
}

// NewRoutineClause is a variadic clause whose body is fn.
func NewRoutineClause(fn Routine) *Clause {
	return &Clause{Routine: fn, variadic: true}
}

func (c *Clause) accepts(n int) bool {
	if c.variadic {
		return n >= c.arity
	}
	return n == c.arity
}

// bind matches the parameter patterns against args into a fresh map.
func (c *Clause) bind(args []Value) (Bindings, bool, error) {
	b := Bindings{}
	for i := 0; i < c.arity; i++ {
		ok, err := Match(c.Params[i], args[i], b)
		if err != nil || !ok {
			return nil, false, err
		}
	}
	if c.variadic && len(c.Params) > 0 {
		rest := c.Params[len(c.Params)-1].(*ast.RestPattern)
		extra := make([]Value, len(args)-c.arity)
		copy(extra, args[c.arity:])
		bindRest(rest, NewVector(extra), b)
	}
	return b, true, nil
}

// Dispatcher holds every clause defined under one name. Clauses are tried
// in declaration order and the first that accepts the arguments wins.
type Dispatcher struct {
	Name    string
	Clauses []*Clause
}

// NewDispatcher creates a dispatcher with the given clauses.
func NewDispatcher(name string, clauses ...*Clause) *Dispatcher {
	return &Dispatcher{Name: name, Clauses: clauses}
}

// NewBuiltin wraps a host routine as a single-clause dispatcher.
func NewBuiltin(name string, fn Routine) *Dispatcher {
	return NewDispatcher(name, NewRoutineClause(fn))
}

func (d *Dispatcher) Type() ValueType { return FUNCTION_VAL }
func (d *Dispatcher) Inspect() string {
	if len(d.Clauses) == 1 {
		return "<function " + d.Name + ">"
	}
	return fmt.Sprintf("<function %s/%d clauses>", d.Name, len(d.Clauses))
}

// Append adds clauses after the existing ones.
func (d *Dispatcher) Append(clauses ...*Clause) {
	d.Clauses = append(d.Clauses, clauses...)
}

// Site is where a call was written.
type Site struct {
	Line   int
	Column int
}

func siteOf(n ast.Node) Site {
	line, col := ast.Position(n)
	return Site{Line: line, Column: col}
}

// tailCall is what a tail-positioned call evaluates to inside a clause body.
// Apply loops on it instead of recursing.
type tailCall struct {
	fn   Value
	args []Value
	site Site
}

// Apply invokes fn with args. Tail calls made by clause bodies are driven
// here in a loop, so self and mutual tail recursion run at constant host
// stack depth.
func (s *Session) Apply(fn Value, args []Value, site Site) (Value, error) {
	for {
		d, ok := fn.(*Dispatcher)
		if !ok {
			return nil, s.errorAt(site, gerrors.New("OP-0005", map[string]any{"Got": typeName(fn)}))
		}
		s.trace(d, args, site)

		clause, bindings, err := s.selectClause(d, args, site)
		if err != nil {
			return nil, err
		}

		if clause.Routine != nil {
			v, err := clause.Routine(args)
			if err != nil {
				return nil, s.errorAt(site, s.routineError(clause, err))
			}
			if v == nil {
				v = UNIT
			}
			return v, nil
		}

		v, next, err := s.runClause(clause, bindings)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return v, nil
		}
		fn, args, site = next.fn, next.args, next.site
	}
}

// selectClause finds the first clause passing arity, patterns and guard.
func (s *Session) selectClause(d *Dispatcher, args []Value, site Site) (*Clause, Bindings, error) {
	for _, c := range d.Clauses {
		if !c.accepts(len(args)) {
			continue
		}
		b, ok, err := c.bind(args)
		if err != nil {
			return nil, nil, s.errorAt(site, err)
		}
		if !ok {
			continue
		}
		if c.Guard != nil {
			ok, err := s.checkGuard(c, b)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
		}
		return c, b, nil
	}
	return nil, nil, s.errorAt(site, noMatchingClause(d, args))
}

// checkGuard evaluates the guard in a trial frame that is popped on every
// exit.
func (s *Session) checkGuard(c *Clause, b Bindings) (ok bool, err error) {
	s.Env.Push(NewFrame(c.Frame, maps.Clone(b)))
	defer func() {
		if perr := s.Env.Pop(); perr != nil && err == nil {
			err = perr
		}
	}()

	v, err := Eval(c.Guard, s)
	if err != nil {
		return false, err
	}
	return Truthy(v)
}

// runClause evaluates the selected clause's body in a new frame. A tail call
// in the body is returned unevaluated for Apply to continue with.
func (s *Session) runClause(c *Clause, b Bindings) (v Value, next *tailCall, err error) {
	s.Env.Push(NewFrame(c.Frame, b))
	defer func() {
		if perr := s.Env.Pop(); perr != nil && err == nil {
			err = perr
		}
	}()

	if call, ok := c.Body.(*ast.CallExpression); ok && call.Tail {
		fn, args, err := s.evalCallParts(call)
		if err != nil {
			return nil, nil, err
		}
		return nil, &tailCall{fn: fn, args: args, site: siteOf(call)}, nil
	}
	v, err = Eval(c.Body, s)
	return v, nil, err
}

func (s *Session) routineError(c *Clause, err error) error {
	if ge, ok := gerrors.As(err); ok && ge.Class == gerrors.ClassForeign {
		return err
	}
	if c.Target == "" {
		return err
	}
	return gerrors.Wrap("FOREIGN-0002", err, map[string]any{"Target": c.Target})
}

func noMatchingClause(d *Dispatcher, args []Value) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Repr(a)
	}
	return gerrors.New("MATCH-0001", map[string]any{
		"Function": d.Name,
		"Args":     strings.Join(parts, ", "),
	})
}

func (s *Session) trace(d *Dispatcher, args []Value, site Site) {
	if s.Trace == nil {
		return
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Repr(a)
	}
	fmt.Fprintf(s.Trace, "call %s(%s) at line %d, column %d\n", d.Name, strings.Join(parts, ", "), site.Line, site.Column)
}
