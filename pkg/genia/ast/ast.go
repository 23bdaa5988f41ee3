package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/m0smith/genia-12-2024/pkg/genia/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Pattern represents the left-hand side of a parameter or destructuring
// assignment. Patterns are matched, never evaluated.
type Pattern interface {
	Node
	patternNode()
}

// Position returns the 1-based line and column a node starts at, or zeros
// when the node carries no token.
func Position(n Node) (int, int) {
	if t, ok := n.(interface{ Tok() lexer.Token }); ok {
		tok := t.Tok()
		return tok.Line, tok.Column
	}
	return 0, 0
}

// Program represents the root node of every AST
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer
	for i, s := range p.Statements {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// ============================================================================
// Statements
// ============================================================================

// ExpressionStatement is a statement consisting of a single expression
type ExpressionStatement struct {
	Token      lexer.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Tok() lexer.Token     { return es.Token }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// AssignmentStatement represents 'x = 5' or '[head, ..tail] = xs'
type AssignmentStatement struct {
	Token   lexer.Token  // the identifier or '[' token
	Name    *Identifier  // plain target (mutually exclusive with Pattern)
	Pattern *ListPattern // destructuring target
	Value   Expression
}

func (as *AssignmentStatement) statementNode()       {}
func (as *AssignmentStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignmentStatement) Tok() lexer.Token     { return as.Token }
func (as *AssignmentStatement) String() string {
	var out bytes.Buffer
	if as.Pattern != nil {
		out.WriteString(as.Pattern.String())
	} else {
		out.WriteString(as.Name.String())
	}
	out.WriteString(" = ")
	if as.Value != nil {
		out.WriteString(as.Value.String())
	}
	return out.String()
}

// DataDefinition declares an algebraic data type and its constructors:
// 'data Option = Some(a) | None'
type DataDefinition struct {
	Token        lexer.Token // 'data' or 'define'
	TypeName     string
	Constructors []*ConstructorDef
}

// ConstructorDef is one alternative of a DataDefinition.
type ConstructorDef struct {
	Token  lexer.Token
	Name   string
	Fields []string
}

func (dd *DataDefinition) statementNode()       {}
func (dd *DataDefinition) TokenLiteral() string { return dd.Token.Literal }
func (dd *DataDefinition) Tok() lexer.Token     { return dd.Token }
func (dd *DataDefinition) String() string {
	ctors := make([]string, 0, len(dd.Constructors))
	for _, c := range dd.Constructors {
		if len(c.Fields) == 0 {
			ctors = append(ctors, c.Name)
			continue
		}
		ctors = append(ctors, c.Name+"("+strings.Join(c.Fields, ", ")+")")
	}
	return "data " + dd.TypeName + " = " + strings.Join(ctors, " | ")
}

// ============================================================================
// Expressions
// ============================================================================

// Identifier represents a name reference
type Identifier struct {
	Token lexer.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Tok() lexer.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

// IntegerLiteral represents integer literals
type IntegerLiteral struct {
	Token lexer.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) Tok() lexer.Token     { return il.Token }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

// StringLiteral represents string literals, raw or not
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Tok() lexer.Token     { return sl.Token }
func (sl *StringLiteral) String() string       { return strconv.Quote(sl.Value) }

// PrefixExpression represents unary minus
type PrefixExpression struct {
	Token    lexer.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Tok() lexer.Token     { return pe.Token }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

// InfixExpression represents arithmetic, comparison and match operators
type InfixExpression struct {
	Token    lexer.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Tok() lexer.Token     { return ie.Token }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

// RangeExpression is 'start..end', an inclusive integer range
type RangeExpression struct {
	Token lexer.Token // the '..' token
	Start Expression
	End   Expression
}

func (re *RangeExpression) expressionNode()      {}
func (re *RangeExpression) TokenLiteral() string { return re.Token.Literal }
func (re *RangeExpression) Tok() lexer.Token     { return re.Token }
func (re *RangeExpression) String() string {
	return "(" + re.Start.String() + ".." + re.End.String() + ")"
}

// ConcatExpression is 'left..right' where an operand is written as a list;
// both sides are flattened into one list.
type ConcatExpression struct {
	Token lexer.Token // the '..' token
	Left  Expression
	Right Expression
}

func (ce *ConcatExpression) expressionNode()      {}
func (ce *ConcatExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ConcatExpression) Tok() lexer.Token     { return ce.Token }
func (ce *ConcatExpression) String() string {
	return "(" + ce.Left.String() + " .. " + ce.Right.String() + ")"
}

// SpreadExpression is '..expr' inside a list literal or argument list; the
// elements of expr are spliced in place.
type SpreadExpression struct {
	Token lexer.Token // the '..' token
	Value Expression
}

func (se *SpreadExpression) expressionNode()      {}
func (se *SpreadExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SpreadExpression) Tok() lexer.Token     { return se.Token }
func (se *SpreadExpression) String() string       { return ".." + se.Value.String() }

// ListLiteral represents list literals like [1, ..xs, 3]
type ListLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) Tok() lexer.Token     { return ll.Token }
func (ll *ListLiteral) String() string {
	return "[" + joinNodes(ll.Elements) + "]"
}

// CallExpression represents function calls. Tail is set by the parser on
// the outermost call of a clause body and nowhere else.
type CallExpression struct {
	Token     lexer.Token // the '(' token
	Function  Expression
	Arguments []Expression
	Tail      bool
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Tok() lexer.Token     { return ce.Token }
func (ce *CallExpression) String() string {
	return ce.Function.String() + "(" + joinNodes(ce.Arguments) + ")"
}

// GroupedStatements is '(s1; s2; ...)'. Its value is the last statement's.
type GroupedStatements struct {
	Token      lexer.Token // the '(' token
	Statements []Statement
}

func (gs *GroupedStatements) expressionNode()      {}
func (gs *GroupedStatements) TokenLiteral() string { return gs.Token.Literal }
func (gs *GroupedStatements) Tok() lexer.Token     { return gs.Token }
func (gs *GroupedStatements) String() string {
	parts := make([]string, 0, len(gs.Statements))
	for _, s := range gs.Statements {
		parts = append(parts, s.String())
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

// DelayExpression is 'delay(expr)'
type DelayExpression struct {
	Token lexer.Token
	Body  Expression
}

func (de *DelayExpression) expressionNode()      {}
func (de *DelayExpression) TokenLiteral() string { return de.Token.Literal }
func (de *DelayExpression) Tok() lexer.Token     { return de.Token }
func (de *DelayExpression) String() string       { return "delay(" + de.Body.String() + ")" }

// ForeignExpression is 'foreign "target"', a host routine named by text
type ForeignExpression struct {
	Token  lexer.Token
	Target string
}

func (fe *ForeignExpression) expressionNode()      {}
func (fe *ForeignExpression) TokenLiteral() string { return fe.Token.Literal }
func (fe *ForeignExpression) Tok() lexer.Token     { return fe.Token }
func (fe *ForeignExpression) String() string       { return "foreign " + strconv.Quote(fe.Target) }

// FunctionDefinition is a named or anonymous multi-clause function:
//
//	define fact(0) -> 1 | (n) when n > 0 -> n * fact(n - 1)
type FunctionDefinition struct {
	Token   lexer.Token // 'define' or 'fn'
	Name    string      // empty for anonymous functions
	Clauses []*Clause
}

func (fd *FunctionDefinition) expressionNode()      {}
func (fd *FunctionDefinition) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDefinition) Tok() lexer.Token     { return fd.Token }
func (fd *FunctionDefinition) String() string {
	var out bytes.Buffer
	out.WriteString("define ")
	out.WriteString(fd.Name)
	for i, c := range fd.Clauses {
		if i > 0 {
			out.WriteString(" | ")
		}
		out.WriteString(c.String())
	}
	return out.String()
}

// Clause is one '(params) when guard -> body' alternative.
type Clause struct {
	Token  lexer.Token // the '(' token
	Params []Pattern
	Guard  Expression // nil when absent
	Body   Expression // a *ForeignExpression for host bodies
}

func (c *Clause) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	for i, p := range c.Params {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(p.String())
	}
	out.WriteString(")")
	if c.Guard != nil {
		out.WriteString(" when ")
		out.WriteString(c.Guard.String())
	}
	out.WriteString(" -> ")
	out.WriteString(c.Body.String())
	return out.String()
}

// ============================================================================
// Patterns
// ============================================================================

// WildcardPattern is '_': matches anything, binds nothing
type WildcardPattern struct {
	Token lexer.Token
}

func (wp *WildcardPattern) patternNode()         {}
func (wp *WildcardPattern) TokenLiteral() string { return wp.Token.Literal }
func (wp *WildcardPattern) Tok() lexer.Token     { return wp.Token }
func (wp *WildcardPattern) String() string       { return "_" }

// IdentifierPattern matches anything and binds it to Name
type IdentifierPattern struct {
	Token lexer.Token
	Name  string
}

func (ip *IdentifierPattern) patternNode()         {}
func (ip *IdentifierPattern) TokenLiteral() string { return ip.Token.Literal }
func (ip *IdentifierPattern) Tok() lexer.Token     { return ip.Token }
func (ip *IdentifierPattern) String() string       { return ip.Name }

// NumberPattern matches an equal integer
type NumberPattern struct {
	Token lexer.Token
	Value int64
}

func (np *NumberPattern) patternNode()         {}
func (np *NumberPattern) TokenLiteral() string { return np.Token.Literal }
func (np *NumberPattern) Tok() lexer.Token     { return np.Token }
func (np *NumberPattern) String() string       { return strconv.FormatInt(np.Value, 10) }

// StringPattern matches an equal string
type StringPattern struct {
	Token lexer.Token
	Value string
}

func (sp *StringPattern) patternNode()         {}
func (sp *StringPattern) TokenLiteral() string { return sp.Token.Literal }
func (sp *StringPattern) Tok() lexer.Token     { return sp.Token }
func (sp *StringPattern) String() string       { return strconv.Quote(sp.Value) }

// RestPattern is '..name' inside a list pattern or as the last parameter.
// Name is "_" when the rest is discarded.
type RestPattern struct {
	Token lexer.Token // the '..' token
	Name  string
}

func (rp *RestPattern) patternNode()         {}
func (rp *RestPattern) TokenLiteral() string { return rp.Token.Literal }
func (rp *RestPattern) Tok() lexer.Token     { return rp.Token }
func (rp *RestPattern) String() string       { return ".." + rp.Name }

// ListPattern matches a sequence element by element
type ListPattern struct {
	Token    lexer.Token // the '[' token
	Elements []Pattern
}

func (lp *ListPattern) patternNode()         {}
func (lp *ListPattern) TokenLiteral() string { return lp.Token.Literal }
func (lp *ListPattern) Tok() lexer.Token     { return lp.Token }
func (lp *ListPattern) String() string {
	parts := make([]string, 0, len(lp.Elements))
	for _, e := range lp.Elements {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RestIndex returns the index of the rest marker and how many markers the
// pattern holds.
func (lp *ListPattern) RestIndex() (int, int) {
	idx, n := -1, 0
	for i, e := range lp.Elements {
		if _, ok := e.(*RestPattern); ok {
			if idx < 0 {
				idx = i
			}
			n++
		}
	}
	return idx, n
}

// IsScan reports whether the pattern has the '[..pre, mid, ..post]' shape.
func (lp *ListPattern) IsScan() bool {
	if len(lp.Elements) != 3 {
		return false
	}
	_, first := lp.Elements[0].(*RestPattern)
	_, mid := lp.Elements[1].(*RestPattern)
	_, last := lp.Elements[2].(*RestPattern)
	return first && !mid && last
}

// ConstructorPattern matches an ADT instance built by constructor Name
type ConstructorPattern struct {
	Token lexer.Token
	Name  string
	Args  []Pattern
}

func (cp *ConstructorPattern) patternNode()         {}
func (cp *ConstructorPattern) TokenLiteral() string { return cp.Token.Literal }
func (cp *ConstructorPattern) Tok() lexer.Token     { return cp.Token }
func (cp *ConstructorPattern) String() string {
	parts := make([]string, 0, len(cp.Args))
	for _, a := range cp.Args {
		parts = append(parts, a.String())
	}
	return cp.Name + "(" + strings.Join(parts, ", ") + ")"
}

func joinNodes(nodes []Expression) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, ", ")
}
