package evaluator

import (
	"fmt"
	"io"

	"github.com/m0smith/genia-12-2024/pkg/genia/ast"
	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
)

// Logger interface for print output
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	fmt.Println()
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// Session is the context one evaluation runs in: its frame stack, the
// foreign resolver, where print goes and where trace lines go.
type Session struct {
	Env      *Environment
	Resolver Resolver
	Logger   Logger
	Trace    io.Writer // nil disables tracing
	Filename string

	// FieldSeparator splits records in awk mode; empty means whitespace.
	FieldSeparator string

	prelude *Frame
	nr      int64
	nf      int
}

// NewSession creates a session with the prelude installed beneath an empty
// global frame.
func NewSession() *Session {
	s := &Session{
		Resolver: NewRegistry(),
		Logger:   DefaultLogger,
	}
	s.prelude = NewFrame(nil, nil)
	s.Env = NewEnvironment(s.prelude)
	installPrelude(s)
	return s
}

// Fork creates a session whose global frame sits on top of this session's
// globals. Definitions made in the fork stay in the fork.
func (s *Session) Fork() *Session {
	f := s.with(NewEnvironment(s.Env.Global()))
	for k, v := range s.Env.records {
		f.Env.records[k] = v
	}
	f.nr, f.nf = s.nr, s.nf
	return f
}

// with shares everything but the environment.
func (s *Session) with(env *Environment) *Session {
	return &Session{
		Env:            env,
		Resolver:       s.Resolver,
		Logger:         s.Logger,
		Trace:          s.Trace,
		Filename:       s.Filename,
		FieldSeparator: s.FieldSeparator,
		prelude:        s.prelude,
	}
}

// Call looks name up and applies it.
func (s *Session) Call(name string, args ...Value) (Value, error) {
	fn, err := s.Env.Lookup(name)
	if err != nil {
		return nil, s.withFile(err)
	}
	return s.Apply(fn, args, Site{})
}

// errorAt attaches a position to err unless it already has one.
func (s *Session) errorAt(site Site, err error) error {
	ge, ok := err.(*gerrors.GeniaError)
	if !ok {
		return err
	}
	if ge.Line == 0 && site.Line > 0 {
		ge = ge.WithPosition(site.Line, site.Column)
	}
	if ge.File == "" && s.Filename != "" {
		ge = ge.WithFile(s.Filename)
	}
	return ge
}

func (s *Session) errorAtNode(n ast.Node, err error) error {
	return s.errorAt(siteOf(n), err)
}

func (s *Session) withFile(err error) error {
	return s.errorAt(Site{}, err)
}

// Eval evaluates a node in the session's current frame.
func Eval(node ast.Node, s *Session) (Value, error) {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return Run(node, s)

	case *ast.ExpressionStatement:
		return Eval(node.Expression, s)

	case *ast.AssignmentStatement:
		return evalAssignment(node, s)

	case *ast.DataDefinition:
		return evalDataDefinition(node, s)

	// Literals
	case *ast.IntegerLiteral:
		return NewInteger(node.Value), nil

	case *ast.StringLiteral:
		return NewText(node.Value), nil

	case *ast.Identifier:
		v, err := s.Env.Lookup(node.Value)
		if err != nil {
			return nil, s.errorAtNode(node, err)
		}
		return v, nil

	// Operators
	case *ast.PrefixExpression:
		right, err := Eval(node.Right, s)
		if err != nil {
			return nil, err
		}
		v, err := evalPrefix(node.Operator, right)
		if err != nil {
			return nil, s.errorAtNode(node, err)
		}
		return v, nil

	case *ast.InfixExpression:
		left, err := Eval(node.Left, s)
		if err != nil {
			return nil, err
		}
		right, err := Eval(node.Right, s)
		if err != nil {
			return nil, err
		}
		v, err := evalInfix(node.Operator, left, right)
		if err != nil {
			return nil, s.errorAtNode(node, err)
		}
		return v, nil

	case *ast.RangeExpression:
		start, err := Eval(node.Start, s)
		if err != nil {
			return nil, err
		}
		end, err := Eval(node.End, s)
		if err != nil {
			return nil, err
		}
		v, err := evalRange(start, end)
		if err != nil {
			return nil, s.errorAtNode(node, err)
		}
		return v, nil

	case *ast.ConcatExpression:
		return evalConcat(node, s)

	// Collections
	case *ast.ListLiteral:
		elems, err := s.evalElements(node.Elements)
		if err != nil {
			return nil, err
		}
		return NewVector(elems), nil

	case *ast.SpreadExpression:
		return nil, s.errorAtNode(node, gerrors.New("PARSE-0006", map[string]any{"Operand": node.Value.String()}))

	// Functions
	case *ast.CallExpression:
		fn, args, err := s.evalCallParts(node)
		if err != nil {
			return nil, err
		}
		return s.Apply(fn, args, siteOf(node))

	case *ast.FunctionDefinition:
		return evalFunctionDefinition(node, s)

	case *ast.ForeignExpression:
		c, err := s.foreignClause(node, nil)
		if err != nil {
			return nil, err
		}
		return NewDispatcher(node.Target, c), nil

	case *ast.GroupedStatements:
		var result Value = UNIT
		for _, stmt := range node.Statements {
			v, err := Eval(stmt, s)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil

	case *ast.DelayExpression:
		return evalDelay(node, s), nil
	}

	return nil, s.errorAtNode(node, gerrors.New("OP-0008", map[string]any{"Kind": fmt.Sprintf("%T", node)}))
}

func evalAssignment(node *ast.AssignmentStatement, s *Session) (Value, error) {
	v, err := Eval(node.Value, s)
	if err != nil {
		return nil, err
	}
	if node.Name != nil {
		s.Env.Bind(node.Name.Value, v)
		return v, nil
	}

	b := Bindings{}
	ok, err := Match(node.Pattern, v, b)
	if err != nil {
		return nil, s.errorAtNode(node, err)
	}
	if !ok {
		return nil, s.errorAtNode(node, gerrors.New("PATTERN-0001", map[string]any{
			"Pattern": node.Pattern.String(),
			"Value":   Repr(v),
		}))
	}
	for name, bound := range b {
		s.Env.Bind(name, bound)
	}
	return v, nil
}

func evalDataDefinition(node *ast.DataDefinition, s *Session) (Value, error) {
	for _, ctor := range node.Constructors {
		s.Env.Bind(ctor.Name, newConstructor(node.TypeName, ctor.Name, len(ctor.Fields)))
	}
	return UNIT, nil
}

// newConstructor is a dispatcher that accepts exactly arity arguments and
// builds an ADT instance from them.
func newConstructor(typeName, ctor string, arity int) *Dispatcher {
	c := NewRoutineClause(func(args []Value) (Value, error) {
		fields := make([]Value, len(args))
		copy(fields, args)
		return &ADTInstance{TypeName: typeName, Ctor: ctor, Fields: fields}, nil
	})
	c.variadic = false
	c.arity = arity
	return NewDispatcher(ctor, c)
}

// evalCallParts evaluates the callee and the arguments of a call, splicing
// spread arguments in place.
func (s *Session) evalCallParts(node *ast.CallExpression) (Value, []Value, error) {
	fn, err := Eval(node.Function, s)
	if err != nil {
		return nil, nil, err
	}
	args, err := s.evalElements(node.Arguments)
	if err != nil {
		return nil, nil, err
	}
	return fn, args, nil
}

func (s *Session) evalElements(exprs []ast.Expression) ([]Value, error) {
	out := make([]Value, 0, len(exprs))
	for _, e := range exprs {
		if spread, ok := e.(*ast.SpreadExpression); ok {
			v, err := Eval(spread.Value, s)
			if err != nil {
				return nil, err
			}
			seq, ok := v.(Sequence)
			if !ok {
				return nil, s.errorAtNode(spread, gerrors.New("OP-0009", map[string]any{"Got": typeName(v)}))
			}
			items, err := Materialize(seq)
			if err != nil {
				return nil, s.errorAtNode(spread, err)
			}
			out = append(out, items...)
			continue
		}
		v, err := Eval(e, s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalConcat(node *ast.ConcatExpression, s *Session) (Value, error) {
	var out []Value
	for _, side := range []ast.Expression{node.Left, node.Right} {
		v, err := Eval(side, s)
		if err != nil {
			return nil, err
		}
		seq, ok := v.(Sequence)
		if !ok {
			return nil, s.errorAtNode(node, gerrors.New("OP-0001", map[string]any{
				"Left":     Repr(v),
				"Operator": "..",
				"Right":    "a list",
			}))
		}
		items, err := Materialize(seq)
		if err != nil {
			return nil, s.errorAtNode(node, err)
		}
		out = append(out, items...)
	}
	return NewVector(out), nil
}

func evalFunctionDefinition(node *ast.FunctionDefinition, s *Session) (Value, error) {
	frame := s.Env.Capture()
	clauses := make([]*Clause, 0, len(node.Clauses))
	for _, c := range node.Clauses {
		if fe, ok := c.Body.(*ast.ForeignExpression); ok {
			fc, err := s.foreignClause(fe, c)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, fc)
			continue
		}
		clauses = append(clauses, NewClause(c.Params, c.Guard, c.Body, frame))
	}

	if node.Name == "" {
		line, col := ast.Position(node)
		return NewDispatcher(fmt.Sprintf("<anonymous@%d:%d>", line, col), clauses...), nil
	}

	if existing, ok := s.Env.Top().Own(node.Name); ok {
		if d, ok := existing.(*Dispatcher); ok {
			d.Append(clauses...)
			return d, nil
		}
	}
	d := NewDispatcher(node.Name, clauses...)
	s.Env.Bind(node.Name, d)
	return d, nil
}

// foreignClause resolves a foreign target now, so unknown targets fail at
// definition time. src supplies parameter patterns and guard when the
// foreign expression is a clause body.
func (s *Session) foreignClause(fe *ast.ForeignExpression, src *ast.Clause) (*Clause, error) {
	if s.Resolver == nil {
		return nil, s.errorAtNode(fe, gerrors.New("FOREIGN-0001", map[string]any{"Target": fe.Target}))
	}
	routine, err := s.Resolver.Resolve(fe.Target)
	if err != nil {
		return nil, s.errorAtNode(fe, err)
	}
	var c *Clause
	if src == nil {
		c = NewRoutineClause(routine)
	} else {
		c = NewClause(src.Params, src.Guard, nil, s.Env.Capture())
		c.Routine = routine
	}
	c.Target = fe.Target
	return c, nil
}

// evalDelay snapshots the visible bindings by value. Forcing evaluates the
// body against a fresh copy of the snapshot, so a failed attempt can be
// retried from the same starting point.
func evalDelay(node *ast.DelayExpression, s *Session) *Thunk {
	snapshot := s.Env.Snapshot()
	return &Thunk{Delay: NewDelay(func() (Value, error) {
		vars := make(map[string]Value, len(snapshot.vars))
		for k, v := range snapshot.vars {
			vars[k] = v
		}
		env := NewEnvironment(NewFrame(s.prelude, vars))
		return Eval(node.Body, s.with(env))
	})}
}
