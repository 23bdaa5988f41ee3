package parser

import (
	"strings"
	"testing"

	"github.com/m0smith/genia-12-2024/pkg/genia/ast"
	"github.com/m0smith/genia-12-2024/pkg/genia/lexer"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	program := p.ParseProgram()
	checkParserErrors(t, p)
	return program
}

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errors := p.Errors()
	if len(errors) == 0 {
		return
	}
	t.Errorf("parser has %d errors", len(errors))
	for _, msg := range errors {
		t.Errorf("parser error: %q", msg)
	}
	t.FailNow()
}

func firstExpression(t *testing.T, program *ast.Program) ast.Expression {
	t.Helper()
	if len(program.Statements) == 0 {
		t.Fatal("program has no statements")
	}
	stmt, ok := program.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ExpressionStatement", program.Statements[0])
	}
	return stmt.Expression
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"-a * b", "((-a) * b)"},
		{"a + b == c * d", "((a + b) == (c * d))"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"10 % 3 - 1", "((10 % 3) - 1)"},
		{"1..n + 1", "(1..(n + 1))"},
		{`x ~ r"a+"`, `(x ~ "a+")`},
		{"(a + b) * c", "((a + b) * c)"},
		{"f(1)(2)", "f(1)(2)"},
		{"+(1, 2, 3)", "+(1, 2, 3)"},
		{"*()", "*()"},
		{"reduce(+, 0, xs)", "reduce(+, 0, xs)"},
		{"[..acc, v]", "[..acc, v]"},
		{"[1, 2]..[3]", "([1, 2] .. [3])"},
		{"(a; b)", "(a; b)"},
		{"x = 1", "x = 1"},
		{"[h, ..t] = xs", "[h, ..t] = xs"},
		{"f\n(1)", "f\n1"},
		{"a; b", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			if got := program.String(); got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}
		})
	}
}

func TestDotDotResolution(t *testing.T) {
	t.Run("range", func(t *testing.T) {
		if _, ok := firstExpression(t, parse(t, "1..5")).(*ast.RangeExpression); !ok {
			t.Error("1..5 is not a RangeExpression")
		}
	})
	t.Run("concat with a written list", func(t *testing.T) {
		if _, ok := firstExpression(t, parse(t, "xs..[1]")).(*ast.ConcatExpression); !ok {
			t.Error("xs..[1] is not a ConcatExpression")
		}
	})
	t.Run("spread in list", func(t *testing.T) {
		list, ok := firstExpression(t, parse(t, "[..xs, 1]")).(*ast.ListLiteral)
		if !ok {
			t.Fatal("not a list literal")
		}
		if _, ok := list.Elements[0].(*ast.SpreadExpression); !ok {
			t.Errorf("element 0 is %T, want *ast.SpreadExpression", list.Elements[0])
		}
	})
	t.Run("spread in arguments", func(t *testing.T) {
		call, ok := firstExpression(t, parse(t, "f(a, ..args)")).(*ast.CallExpression)
		if !ok {
			t.Fatal("not a call")
		}
		if _, ok := call.Arguments[1].(*ast.SpreadExpression); !ok {
			t.Errorf("argument 1 is %T, want *ast.SpreadExpression", call.Arguments[1])
		}
	})
	t.Run("spread of a range", func(t *testing.T) {
		list := firstExpression(t, parse(t, "[..1..3]")).(*ast.ListLiteral)
		spread := list.Elements[0].(*ast.SpreadExpression)
		if _, ok := spread.Value.(*ast.RangeExpression); !ok {
			t.Errorf("spread operand is %T, want *ast.RangeExpression", spread.Value)
		}
	})
	t.Run("bare spread is an error", func(t *testing.T) {
		p := New(lexer.New("..xs"))
		p.ParseProgram()
		if len(p.Errors()) == 0 || !strings.Contains(p.Errors()[0], "only allowed inside") {
			t.Errorf("errors = %v", p.Errors())
		}
	})
}

func TestFunctionDefinition(t *testing.T) {
	program := parse(t, "define fact(0) -> 1 | (n) when n > 0 -> n * fact(n - 1)")
	def, ok := firstExpression(t, program).(*ast.FunctionDefinition)
	if !ok {
		t.Fatalf("not a function definition: %s", program.String())
	}
	if def.Name != "fact" || len(def.Clauses) != 2 {
		t.Fatalf("name=%q clauses=%d", def.Name, len(def.Clauses))
	}
	if np, ok := def.Clauses[0].Params[0].(*ast.NumberPattern); !ok || np.Value != 0 {
		t.Errorf("clause 0 param = %v", def.Clauses[0].Params[0])
	}
	if def.Clauses[0].Guard != nil {
		t.Error("clause 0 has a guard")
	}
	if def.Clauses[1].Guard == nil || def.Clauses[1].Guard.String() != "(n > 0)" {
		t.Errorf("clause 1 guard = %v", def.Clauses[1].Guard)
	}
}

func TestFnKeywordAndMultilineClauses(t *testing.T) {
	program := parse(t, "fn unwrap(Some(x)) -> x\n  | (None()) -> 0\nunwrap(None())")
	if len(program.Statements) != 2 {
		t.Fatalf("statements = %d, want 2", len(program.Statements))
	}
	def := firstExpression(t, program).(*ast.FunctionDefinition)
	cp, ok := def.Clauses[1].Params[0].(*ast.ConstructorPattern)
	if !ok || cp.Name != "None" || len(cp.Args) != 0 {
		t.Errorf("clause 1 param = %v", def.Clauses[1].Params[0])
	}
}

func TestTailCallMarking(t *testing.T) {
	tests := []struct {
		input string
		tail  bool
	}{
		{"define loop(n) -> loop(n - 1)", true},
		{"define f(n) -> (f(n - 1))", true},
		{"define f(n) -> 1 + f(n - 1)", false},
		{"define f(n) -> (print(n); f(n - 1))", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			def := firstExpression(t, parse(t, tt.input)).(*ast.FunctionDefinition)
			var found *ast.CallExpression
			findCalls(def.Clauses[0].Body, func(c *ast.CallExpression) {
				if id, ok := c.Function.(*ast.Identifier); ok && id.Value == def.Name {
					found = c
				}
			})
			if found == nil {
				t.Fatal("recursive call not found")
			}
			if found.Tail != tt.tail {
				t.Errorf("Tail = %v, want %v", found.Tail, tt.tail)
			}
		})
	}

	t.Run("arguments are never tail", func(t *testing.T) {
		def := firstExpression(t, parse(t, "define f(n) -> g(h(n))")).(*ast.FunctionDefinition)
		outer := def.Clauses[0].Body.(*ast.CallExpression)
		inner := outer.Arguments[0].(*ast.CallExpression)
		if !outer.Tail || inner.Tail {
			t.Errorf("outer.Tail=%v inner.Tail=%v", outer.Tail, inner.Tail)
		}
	})
}

func findCalls(n ast.Node, visit func(*ast.CallExpression)) {
	switch n := n.(type) {
	case *ast.CallExpression:
		visit(n)
		for _, a := range n.Arguments {
			findCalls(a, visit)
		}
	case *ast.InfixExpression:
		findCalls(n.Left, visit)
		findCalls(n.Right, visit)
	case *ast.GroupedStatements:
		for _, s := range n.Statements {
			findCalls(s, visit)
		}
	case *ast.ExpressionStatement:
		findCalls(n.Expression, visit)
	}
}

func TestAnonymousFunctionArgument(t *testing.T) {
	call := firstExpression(t, parse(t, "map(define(x) -> x * 2, xs)")).(*ast.CallExpression)
	def, ok := call.Arguments[0].(*ast.FunctionDefinition)
	if !ok || def.Name != "" {
		t.Fatalf("argument 0 = %T %v", call.Arguments[0], call.Arguments[0])
	}
	if len(call.Arguments) != 2 {
		t.Errorf("arguments = %d, want 2", len(call.Arguments))
	}
}

func TestPatterns(t *testing.T) {
	def := firstExpression(t, parse(t,
		`define f([], "a", _, -1, Some(x), [h, ..t], [..pre, 0, ..post], (y)) -> 0`,
	)).(*ast.FunctionDefinition)
	params := def.Clauses[0].Params
	if len(params) != 8 {
		t.Fatalf("params = %d, want 8", len(params))
	}
	if lp, ok := params[0].(*ast.ListPattern); !ok || len(lp.Elements) != 0 {
		t.Errorf("param 0 = %v", params[0])
	}
	if sp, ok := params[1].(*ast.StringPattern); !ok || sp.Value != "a" {
		t.Errorf("param 1 = %v", params[1])
	}
	if _, ok := params[2].(*ast.WildcardPattern); !ok {
		t.Errorf("param 2 = %T", params[2])
	}
	if np, ok := params[3].(*ast.NumberPattern); !ok || np.Value != -1 {
		t.Errorf("param 3 = %v", params[3])
	}
	if cp, ok := params[4].(*ast.ConstructorPattern); !ok || cp.Name != "Some" {
		t.Errorf("param 4 = %v", params[4])
	}
	if lp, ok := params[5].(*ast.ListPattern); !ok {
		t.Errorf("param 5 = %T", params[5])
	} else if idx, n := lp.RestIndex(); idx != 1 || n != 1 {
		t.Errorf("RestIndex() = %d, %d", idx, n)
	}
	if lp, ok := params[6].(*ast.ListPattern); !ok || !lp.IsScan() {
		t.Errorf("param 6 = %v, want scan form", params[6])
	}
	if ip, ok := params[7].(*ast.IdentifierPattern); !ok || ip.Name != "y" {
		t.Errorf("param 7 = %v", params[7])
	}
}

func TestVariadicParameters(t *testing.T) {
	def := firstExpression(t, parse(t, "define f(a, ..rest) -> rest")).(*ast.FunctionDefinition)
	if rp, ok := def.Clauses[0].Params[1].(*ast.RestPattern); !ok || rp.Name != "rest" {
		t.Errorf("param 1 = %v", def.Clauses[0].Params[1])
	}
}

func TestDataDefinition(t *testing.T) {
	tests := []struct {
		input    string
		typeName string
		ctors    []string
	}{
		{"data Option = Some(a) | None", "Option", []string{"Some", "None"}},
		{"define Shape = Circle(r) | Rect(w, h)", "Shape", []string{"Circle", "Rect"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, tt.input)
			dd, ok := program.Statements[0].(*ast.DataDefinition)
			if !ok {
				t.Fatalf("statement is %T", program.Statements[0])
			}
			if dd.TypeName != tt.typeName || len(dd.Constructors) != len(tt.ctors) {
				t.Fatalf("got %s", dd.String())
			}
			for i, name := range tt.ctors {
				if dd.Constructors[i].Name != name {
					t.Errorf("constructor %d = %q, want %q", i, dd.Constructors[i].Name, name)
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"define f(x) x", "expected '->', got 'x'"},
		{"(1, 2)", "expected ')', got ','"},
		{`"abc`, "unterminated string"},
		{"x = ", "unexpected token"},
		{"delay 1", "expected '('"},
		{"define f(..rest, a) -> a", "rest parameter must be the last"},
		{"define f([a, ..b, ..c]) -> a", "only one rest marker"},
		{"define f(1 + 2) -> 3", "expected ')'"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p := New(lexer.New(tt.input))
			p.ParseProgram()
			errs := p.Errors()
			if len(errs) != 1 {
				t.Fatalf("errors = %v, want exactly one", errs)
			}
			if !strings.Contains(errs[0], tt.contains) {
				t.Errorf("error %q does not contain %q", errs[0], tt.contains)
			}
		})
	}
}

func TestParseAttachesFile(t *testing.T) {
	_, err := Parse("define f(", "broken.genia")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.HasPrefix(err.Error(), "broken.genia: line 1") {
		t.Errorf("error = %q", err.Error())
	}

	program, err := Parse("x = 1\nx", "ok.genia")
	if err != nil {
		t.Fatal(err)
	}
	if len(program.Statements) != 2 {
		t.Errorf("statements = %d", len(program.Statements))
	}
}
