package parser

import (
	"fmt"
	"strconv"

	"github.com/m0smith/genia-12-2024/pkg/genia/ast"
	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	EQUALS      // == !=
	LESSGREATER // < > <= >= ~
	RANGE       // ..
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -X
	CALL        // f(X)
)

var precedences = map[lexer.TokenType]int{
	lexer.EQ:       EQUALS,
	lexer.NOT_EQ:   EQUALS,
	lexer.LT:       LESSGREATER,
	lexer.GT:       LESSGREATER,
	lexer.LTE:      LESSGREATER,
	lexer.GTE:      LESSGREATER,
	lexer.MATCH:    LESSGREATER,
	lexer.RANGE:    RANGE,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.LPAREN:   CALL,
}

// Parser represents the parser
type Parser struct {
	l *lexer.Lexer

	structuredErrors []*gerrors.GeniaError

	prevToken lexer.Token
	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new parser instance
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.RAW_STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.MINUS, p.parseMinus)
	p.registerPrefix(lexer.PLUS, p.parseOperatorName)
	p.registerPrefix(lexer.ASTERISK, p.parseOperatorName)
	p.registerPrefix(lexer.SLASH, p.parseOperatorName)
	p.registerPrefix(lexer.PERCENT, p.parseOperatorName)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedStatements)
	p.registerPrefix(lexer.LBRACKET, p.parseListLiteral)
	p.registerPrefix(lexer.RANGE, p.parseMisplacedSpread)
	p.registerPrefix(lexer.DEFINE, p.parseFunctionDefinition)
	p.registerPrefix(lexer.DELAY, p.parseDelayExpression)
	p.registerPrefix(lexer.FOREIGN, p.parseForeignExpression)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, t := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.GT, lexer.LTE, lexer.GTE, lexer.MATCH,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(lexer.RANGE, p.parseRangeOrConcat)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse lexes and parses src and returns the first syntax error, if any,
// with the file name attached.
func Parse(src, filename string) (*ast.Program, error) {
	p := New(lexer.NewWithFilename(src, filename))
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		return nil, errs[0].WithFile(filename)
	}
	return program, nil
}

// Errors returns parser errors as strings (convenience method for tests).
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns parser errors as structured GeniaError objects.
func (p *Parser) StructuredErrors() []*gerrors.GeniaError {
	return p.structuredErrors
}

// addError records a parse error.
// Only the first error is kept - later ones are usually cascading noise.
func (p *Parser) addError(code string, line, column int, data map[string]any) {
	if len(p.structuredErrors) > 0 {
		return
	}
	p.structuredErrors = append(p.structuredErrors, gerrors.NewWithPosition(code, line, column, data))
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseProgram parses the program and returns the AST
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}

	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if len(p.structuredErrors) > 0 {
			break
		}
		p.nextToken()
	}

	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.DATA:
		return p.parseDataDefinition()
	case lexer.DEFINE:
		// define Option = Some(a) | None
		if p.peekTokenIs(lexer.IDENT) && p.l.PeekToken().Type == lexer.ASSIGN {
			return p.parseDataDefinition()
		}
		return p.parseExpressionStatement()
	case lexer.IDENT:
		if p.peekTokenIs(lexer.ASSIGN) {
			return p.parseAssignmentStatement()
		}
		return p.parseExpressionStatement()
	case lexer.LBRACKET:
		if stmt := p.tryListPatternAssignment(); stmt != nil {
			return stmt
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseAssignmentStatement() ast.Statement {
	stmt := &ast.AssignmentStatement{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}
	p.nextToken() // '='
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// tryListPatternAssignment parses '[a, ..rest] = expr'. When the tokens do
// not form a pattern followed by '=', the parser is rewound and nil returned.
func (p *Parser) tryListPatternAssignment() ast.Statement {
	savedCur := p.curToken
	savedPeek := p.peekToken
	savedPrev := p.prevToken
	savedErrors := len(p.structuredErrors)
	savedLexerState := p.l.SaveState()

	pattern := p.parsePattern(false)
	lp, ok := pattern.(*ast.ListPattern)
	if ok && len(p.structuredErrors) == savedErrors && p.peekTokenIs(lexer.ASSIGN) {
		stmt := &ast.AssignmentStatement{Token: savedCur, Pattern: lp}
		p.nextToken() // '='
		p.nextToken()
		stmt.Value = p.parseExpression(LOWEST)
		if stmt.Value == nil {
			return nil
		}
		return stmt
	}

	p.curToken = savedCur
	p.peekToken = savedPeek
	p.prevToken = savedPrev
	p.structuredErrors = p.structuredErrors[:savedErrors]
	p.l.RestoreState(savedLexerState)
	return nil
}

func (p *Parser) parseDataDefinition() ast.Statement {
	def := &ast.DataDefinition{Token: p.curToken}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	def.TypeName = p.curToken.Literal
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}

	for {
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		ctor := &ast.ConstructorDef{Token: p.curToken, Name: p.curToken.Literal}
		if p.peekTokenIs(lexer.LPAREN) {
			p.nextToken()
			for !p.peekTokenIs(lexer.RPAREN) {
				if !p.expectPeek(lexer.IDENT) {
					return nil
				}
				ctor.Fields = append(ctor.Fields, p.curToken.Literal)
				if p.peekTokenIs(lexer.COMMA) {
					p.nextToken()
				}
			}
			p.nextToken() // ')'
		}
		def.Constructors = append(def.Constructors, ctor)

		if !p.peekTokenIs(lexer.PIPE) {
			break
		}
		p.nextToken()
	}
	return def
}

// ============================================================================
// Expressions
// ============================================================================

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}

	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		// A '(' only continues the expression as a call when it sits on the
		// same line as a callable left side.
		if p.peekTokenIs(lexer.LPAREN) && (p.peekToken.Line != p.curToken.Line || !isCallable(leftExp)) {
			return leftExp
		}

		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func isCallable(exp ast.Expression) bool {
	switch exp.(type) {
	case *ast.Identifier, *ast.CallExpression, *ast.GroupedStatements,
		*ast.FunctionDefinition, *ast.ForeignExpression:
		return true
	}
	return false
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError("PARSE-0004", p.curToken.Line, p.curToken.Column, map[string]any{"Literal": p.curToken.Literal})
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

// parseMinus handles negation, '-(a, b)' operator calls and a bare '-'
// passed as a function value.
func (p *Parser) parseMinus() ast.Expression {
	if p.operatorNameFollows() {
		return p.parseOperatorName()
	}
	exp := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	exp.Right = p.parseExpression(PREFIX)
	if exp.Right == nil {
		return nil
	}
	return exp
}

// operatorNameFollows reports whether the operator in curToken is used as a
// function name rather than as an operator.
func (p *Parser) operatorNameFollows() bool {
	switch p.peekToken.Type {
	case lexer.LPAREN:
		return p.peekToken.Line == p.curToken.Line
	case lexer.COMMA, lexer.RPAREN, lexer.RBRACKET:
		return true
	}
	return false
}

func (p *Parser) parseOperatorName() ast.Expression {
	if !p.operatorNameFollows() {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	exp := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(precedence)
	if exp.Right == nil {
		return nil
	}
	return exp
}

// parseRangeOrConcat decides what an infix '..' means from the shape of its
// operands: written lists concatenate, anything else is a range.
func (p *Parser) parseRangeOrConcat(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	right := p.parseExpression(RANGE)
	if right == nil {
		return nil
	}
	if isListShaped(left) || isListShaped(right) {
		return &ast.ConcatExpression{Token: tok, Left: left, Right: right}
	}
	return &ast.RangeExpression{Token: tok, Start: left, End: right}
}

func isListShaped(exp ast.Expression) bool {
	switch exp.(type) {
	case *ast.ListLiteral, *ast.ConcatExpression:
		return true
	}
	return false
}

func (p *Parser) parseMisplacedSpread() ast.Expression {
	operand := p.peekToken.Literal
	p.addError("PARSE-0006", p.curToken.Line, p.curToken.Column, map[string]any{"Operand": operand})
	return nil
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}
	list.Elements = p.parseExpressionList(lexer.RBRACKET)
	if list.Elements == nil {
		return nil
	}
	return list
}

func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: fn}
	exp.Arguments = p.parseExpressionList(lexer.RPAREN)
	if exp.Arguments == nil {
		return nil
	}
	return exp
}

// parseExpressionList parses comma separated elements up to end. Elements
// may be spreads. Returns nil on error and an empty slice for '()' or '[]'.
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	args := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return args
	}

	p.nextToken()
	el := p.parseListElement()
	if el == nil {
		return nil
	}
	args = append(args, el)

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		el := p.parseListElement()
		if el == nil {
			return nil
		}
		args = append(args, el)
	}

	if !p.expectPeek(end) {
		return nil
	}
	return args
}

func (p *Parser) parseListElement() ast.Expression {
	if !p.curTokenIs(lexer.RANGE) {
		return p.parseExpression(LOWEST)
	}
	spread := &ast.SpreadExpression{Token: p.curToken}
	p.nextToken()
	spread.Value = p.parseExpression(LOWEST)
	if spread.Value == nil {
		return nil
	}
	return spread
}

// parseGroupedStatements parses '(s1; s2)'. A group holding one expression
// is plain parenthesization and yields that expression.
func (p *Parser) parseGroupedStatements() ast.Expression {
	group := &ast.GroupedStatements{Token: p.curToken}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return group
	}

	for {
		p.nextToken()
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		group.Statements = append(group.Statements, stmt)

		if p.peekTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			if p.peekTokenIs(lexer.RPAREN) {
				p.nextToken()
				break
			}
			continue
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		break
	}

	if len(group.Statements) == 1 {
		if es, ok := group.Statements[0].(*ast.ExpressionStatement); ok {
			return es.Expression
		}
	}
	return group
}

func (p *Parser) parseDelayExpression() ast.Expression {
	exp := &ast.DelayExpression{Token: p.curToken}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	exp.Body = p.parseExpression(LOWEST)
	if exp.Body == nil {
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseForeignExpression() ast.Expression {
	exp := &ast.ForeignExpression{Token: p.curToken}
	if !p.peekTokenIs(lexer.STRING) && !p.peekTokenIs(lexer.RAW_STRING) {
		p.peekError(lexer.STRING)
		return nil
	}
	p.nextToken()
	exp.Target = p.curToken.Literal
	return exp
}

// parseFunctionDefinition parses a named or anonymous function and all of
// its '|' separated clauses.
func (p *Parser) parseFunctionDefinition() ast.Expression {
	def := &ast.FunctionDefinition{Token: p.curToken}

	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		def.Name = p.curToken.Literal
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}

	for {
		clause := p.parseClause()
		if clause == nil {
			return nil
		}
		def.Clauses = append(def.Clauses, clause)

		if !p.peekTokenIs(lexer.PIPE) {
			break
		}
		p.nextToken()
		if !p.expectPeek(lexer.LPAREN) {
			return nil
		}
	}
	return def
}

// parseClause parses '(params) when guard -> body' with curToken on '('.
func (p *Parser) parseClause() *ast.Clause {
	clause := &ast.Clause{Token: p.curToken}

	params, ok := p.parsePatternList(lexer.RPAREN, true)
	if !ok {
		return nil
	}
	clause.Params = params

	if p.peekTokenIs(lexer.WHEN) {
		p.nextToken()
		p.nextToken()
		clause.Guard = p.parseExpression(LOWEST)
		if clause.Guard == nil {
			return nil
		}
	}

	if !p.expectPeek(lexer.ARROW) {
		return nil
	}
	p.nextToken()

	clause.Body = p.parseExpression(LOWEST)
	if clause.Body == nil {
		return nil
	}
	if call, ok := clause.Body.(*ast.CallExpression); ok {
		call.Tail = true
	}
	return clause
}

// ============================================================================
// Patterns
// ============================================================================

// parsePatternList parses patterns separated by commas up to end, with
// curToken on the opening delimiter. In a parameter list a rest pattern
// must come last; in a list pattern at most one may appear unless the list
// has the [..pre, mid, ..post] shape.
func (p *Parser) parsePatternList(end lexer.TokenType, params bool) ([]ast.Pattern, bool) {
	patterns := []ast.Pattern{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return patterns, true
	}

	for {
		p.nextToken()
		pat := p.parsePattern(true)
		if pat == nil {
			return nil, false
		}
		patterns = append(patterns, pat)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
	}
	if !p.expectPeek(end) {
		return nil, false
	}

	if params {
		for i, pat := range patterns {
			if rp, ok := pat.(*ast.RestPattern); ok && i != len(patterns)-1 {
				p.addError("PARSE-0003", rp.Token.Line, rp.Token.Column,
					map[string]any{"Message": "a rest parameter must be the last parameter"})
				return nil, false
			}
		}
	}
	return patterns, true
}

// parsePattern parses one pattern starting at curToken. allowRest permits
// a '..name' element.
func (p *Parser) parsePattern(allowRest bool) ast.Pattern {
	tok := p.curToken
	switch tok.Type {
	case lexer.IDENT:
		if tok.Literal == "_" {
			return &ast.WildcardPattern{Token: tok}
		}
		if p.peekTokenIs(lexer.LPAREN) {
			p.nextToken()
			args, ok := p.parsePatternList(lexer.RPAREN, false)
			if !ok {
				return nil
			}
			for _, a := range args {
				if rp, isRest := a.(*ast.RestPattern); isRest {
					p.addError("PARSE-0007", rp.Token.Line, rp.Token.Column, map[string]any{"Got": rp.String()})
					return nil
				}
			}
			return &ast.ConstructorPattern{Token: tok, Name: tok.Literal, Args: args}
		}
		return &ast.IdentifierPattern{Token: tok, Name: tok.Literal}

	case lexer.INT:
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.addError("PARSE-0004", tok.Line, tok.Column, map[string]any{"Literal": tok.Literal})
			return nil
		}
		return &ast.NumberPattern{Token: tok, Value: value}

	case lexer.MINUS:
		if !p.expectPeek(lexer.INT) {
			return nil
		}
		value, err := strconv.ParseInt("-"+p.curToken.Literal, 10, 64)
		if err != nil {
			p.addError("PARSE-0004", tok.Line, tok.Column, map[string]any{"Literal": p.curToken.Literal})
			return nil
		}
		return &ast.NumberPattern{Token: tok, Value: value}

	case lexer.STRING, lexer.RAW_STRING:
		return &ast.StringPattern{Token: tok, Value: tok.Literal}

	case lexer.LBRACKET:
		elems, ok := p.parsePatternList(lexer.RBRACKET, false)
		if !ok {
			return nil
		}
		lp := &ast.ListPattern{Token: tok, Elements: elems}
		if _, n := lp.RestIndex(); n > 1 && !lp.IsScan() {
			p.addError("PARSE-0005", tok.Line, tok.Column, nil)
			return nil
		}
		return lp

	case lexer.RANGE:
		if !allowRest {
			p.addError("PARSE-0007", tok.Line, tok.Column, map[string]any{"Got": ".."})
			return nil
		}
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		return &ast.RestPattern{Token: tok, Name: p.curToken.Literal}

	case lexer.LPAREN:
		p.nextToken()
		inner := p.parsePattern(false)
		if inner == nil {
			return nil
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		return inner
	}

	got := tok.Literal
	if got == "" {
		got = tokenTypeToReadableName(tok.Type)
	}
	p.addError("PARSE-0007", tok.Line, tok.Column, map[string]any{"Got": got})
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) peekError(t lexer.TokenType) {
	if p.peekTokenIs(lexer.ILLEGAL) {
		p.addError("PARSE-0003", p.peekToken.Line, p.peekToken.Column, map[string]any{"Message": p.peekToken.Literal})
		return
	}
	got := p.peekToken.Literal
	if got == "" {
		got = tokenTypeToReadableName(p.peekToken.Type)
	}
	p.addError("PARSE-0001", p.peekToken.Line, p.peekToken.Column, map[string]any{
		"Expected": tokenTypeToReadableName(t),
		"Got":      got,
	})
}

func (p *Parser) noPrefixParseFnError(t lexer.TokenType) {
	if t == lexer.ILLEGAL {
		// ILLEGAL tokens already carry a descriptive message
		p.addError("PARSE-0003", p.curToken.Line, p.curToken.Column, map[string]any{"Message": p.curToken.Literal})
		return
	}
	literal := p.curToken.Literal
	if literal == "" {
		literal = tokenTypeToReadableName(t)
	}
	p.addError("PARSE-0002", p.curToken.Line, p.curToken.Column, map[string]any{"Token": literal})
}

func tokenTypeToReadableName(t lexer.TokenType) string {
	switch t {
	case lexer.EOF:
		return "end of input"
	case lexer.IDENT:
		return "identifier"
	case lexer.INT:
		return "integer"
	case lexer.STRING, lexer.RAW_STRING:
		return "string"
	case lexer.DEFINE:
		return "'define'"
	case lexer.WHEN:
		return "'when'"
	case lexer.DELAY:
		return "'delay'"
	case lexer.FOREIGN:
		return "'foreign'"
	case lexer.DATA:
		return "'data'"
	default:
		return "'" + t.String() + "'"
	}
}
