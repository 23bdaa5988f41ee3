package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	IDENT      // fact, every?, $1, $NF
	INT        // 1343456
	STRING     // "foo" or 'foo'
	RAW_STRING // r"foo\d"

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	PERCENT  // %
	MATCH    // ~
	RANGE    // ..

	LT     // <
	GT     // >
	LTE    // <=
	GTE    // >=
	EQ     // ==
	NOT_EQ // !=

	ARROW // ->

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	PIPE      // |
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]

	// Keywords
	DEFINE  // define, fn
	WHEN    // when
	DELAY   // delay
	FOREIGN // foreign
	DATA    // data
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case INT:
		return "INT"
	case STRING:
		return "STRING"
	case RAW_STRING:
		return "RAW_STRING"
	case ASSIGN:
		return "="
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case ASTERISK:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case MATCH:
		return "~"
	case RANGE:
		return ".."
	case LT:
		return "<"
	case GT:
		return ">"
	case LTE:
		return "<="
	case GTE:
		return ">="
	case EQ:
		return "=="
	case NOT_EQ:
		return "!="
	case ARROW:
		return "->"
	case COMMA:
		return ","
	case SEMICOLON:
		return ";"
	case PIPE:
		return "|"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LBRACKET:
		return "["
	case RBRACKET:
		return "]"
	case DEFINE:
		return "DEFINE"
	case WHEN:
		return "WHEN"
	case DELAY:
		return "DELAY"
	case FOREIGN:
		return "FOREIGN"
	case DATA:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

var keywords = map[string]TokenType{
	"define":  DEFINE,
	"fn":      DEFINE, // short form
	"when":    WHEN,
	"delay":   DELAY,
	"foreign": FOREIGN,
	"data":    DATA,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the reserved words, for completion and suggestions.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	return out
}

// Lexer represents the lexical analyzer
type Lexer struct {
	filename     string
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune
	chSize       int  // byte size of current character
	line         int
	column       int
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    input,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string {
	return l.filename
}

// LexerState holds the state of a lexer for save/restore
type LexerState struct {
	position     int
	readPosition int
	ch           byte
	chRune       rune
	chSize       int
	line         int
	column       int
}

// SaveState saves the current lexer state for potential restoration
func (l *Lexer) SaveState() LexerState {
	return LexerState{
		position:     l.position,
		readPosition: l.readPosition,
		ch:           l.ch,
		chRune:       l.chRune,
		chSize:       l.chSize,
		line:         l.line,
		column:       l.column,
	}
}

// RestoreState restores the lexer to a previously saved state
func (l *Lexer) RestoreState(state LexerState) {
	l.position = state.position
	l.readPosition = state.readPosition
	l.ch = state.ch
	l.chRune = state.chRune
	l.chSize = state.chSize
	l.line = state.line
	l.column = state.column
}

// PeekToken returns the next token without consuming it
func (l *Lexer) PeekToken() Token {
	state := l.SaveState()
	tok := l.NextToken()
	l.RestoreState(state)
	return tok
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // NUL represents EOF
		l.chRune = 0
		l.chSize = 0
		l.position = l.readPosition
		return
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
		l.position = l.readPosition
		l.readPosition++

		if l.ch == '\n' {
			l.line++
			l.column = 0
		} else {
			l.column++
		}
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = b
	l.chRune = r
	l.chSize = size
	l.position = l.readPosition
	l.readPosition += size
	l.column++
}

func (l *Lexer) appendCurrentChar(result []byte) []byte {
	if l.chSize == 1 {
		return append(result, l.ch)
	}
	return append(result, l.input[l.position:l.position+l.chSize]...)
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipTrivia()

	line, col := l.line, l.column

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: EQ, Literal: "==", Line: line, Column: col}
		} else {
			tok = newToken(ASSIGN, l.ch, line, col)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: NOT_EQ, Literal: "!=", Line: line, Column: col}
		} else {
			tok = Token{Type: ILLEGAL, Literal: "unexpected character '!'", Line: line, Column: col}
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: LTE, Literal: "<=", Line: line, Column: col}
		} else {
			tok = newToken(LT, l.ch, line, col)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: GTE, Literal: ">=", Line: line, Column: col}
		} else {
			tok = newToken(GT, l.ch, line, col)
		}
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = Token{Type: ARROW, Literal: "->", Line: line, Column: col}
		} else {
			tok = newToken(MINUS, l.ch, line, col)
		}
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			tok = Token{Type: RANGE, Literal: "..", Line: line, Column: col}
		} else {
			tok = Token{Type: ILLEGAL, Literal: "unexpected character '.'", Line: line, Column: col}
		}
	case '+':
		tok = newToken(PLUS, l.ch, line, col)
	case '*':
		tok = newToken(ASTERISK, l.ch, line, col)
	case '/':
		tok = newToken(SLASH, l.ch, line, col)
	case '%':
		tok = newToken(PERCENT, l.ch, line, col)
	case '~':
		tok = newToken(MATCH, l.ch, line, col)
	case ',':
		tok = newToken(COMMA, l.ch, line, col)
	case ';':
		tok = newToken(SEMICOLON, l.ch, line, col)
	case '|':
		tok = newToken(PIPE, l.ch, line, col)
	case '(':
		tok = newToken(LPAREN, l.ch, line, col)
	case ')':
		tok = newToken(RPAREN, l.ch, line, col)
	case '[':
		tok = newToken(LBRACKET, l.ch, line, col)
	case ']':
		tok = newToken(RBRACKET, l.ch, line, col)
	case '"', '\'':
		str, terminated := l.readString(l.ch)
		if !terminated {
			return Token{Type: ILLEGAL, Literal: "unterminated string", Line: line, Column: col}
		}
		tok = Token{Type: STRING, Literal: str, Line: line, Column: col}
	case '$':
		ident := l.readDollarIdent()
		if ident == "$" {
			return Token{Type: ILLEGAL, Literal: "expected field or name after '$'", Line: line, Column: col}
		}
		return Token{Type: IDENT, Literal: ident, Line: line, Column: col}
	case 0:
		return Token{Type: EOF, Literal: "", Line: line, Column: col}
	default:
		if l.ch == 'r' && (l.peekChar() == '"' || l.peekChar() == '\'') {
			l.readChar() // skip r
			str, terminated := l.readRawString(l.ch)
			if !terminated {
				return Token{Type: ILLEGAL, Literal: "unterminated string", Line: line, Column: col}
			}
			l.readChar()
			return Token{Type: RAW_STRING, Literal: str, Line: line, Column: col}
		}
		if isLetterRune(l.chRune) {
			ident := l.readIdentifier()
			return Token{Type: LookupIdent(ident), Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) {
			return Token{Type: INT, Literal: l.readNumber(), Line: line, Column: col}
		}
		tok = Token{Type: ILLEGAL, Literal: fmt.Sprintf("unexpected character '%c'", l.chRune), Line: line, Column: col}
	}

	l.readChar()
	return tok
}

func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

// skipTrivia skips whitespace and comments. Both // and # start a comment
// that runs to the end of the line.
func (l *Lexer) skipTrivia() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '#' || (l.ch == '/' && l.peekChar() == '/') {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

// readIdentifier reads an identifier or keyword. A trailing ? or ! is part of
// the name (every?, reset!).
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetterRune(l.chRune) || isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '?' || (l.ch == '!' && l.peekChar() != '=') {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readDollarIdent reads a record pseudo-variable: $0, $12, $NF, $ARGS.
func (l *Lexer) readDollarIdent() string {
	position := l.position
	l.readChar() // skip $
	if isDigit(l.ch) {
		for isDigit(l.ch) {
			l.readChar()
		}
	} else {
		for isLetterRune(l.chRune) || isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a quoted string with escape sequence support. Strings
// cannot span lines.
func (l *Lexer) readString(quote byte) (string, bool) {
	var result []byte
	l.readChar() // skip opening quote

	for l.ch != quote && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			case '0':
				result = append(result, 0)
			case '\\', '"', '\'':
				result = append(result, l.ch)
			default:
				result = append(result, '\\')
				result = l.appendCurrentChar(result)
			}
		} else {
			result = l.appendCurrentChar(result)
		}
		l.readChar()
	}

	return string(result), l.ch == quote
}

// readRawString reads the body of r"..." with no escape processing other
// than a backslash keeping the following quote inside the string.
func (l *Lexer) readRawString(quote byte) (string, bool) {
	l.readChar() // skip opening quote
	position := l.position
	for l.ch != quote && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' && l.peekChar() == quote {
			l.readChar()
		}
		l.readChar()
	}
	return l.input[position:l.position], l.ch == quote
}

func isLetterRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
