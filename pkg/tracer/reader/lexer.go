package reader

import (
	"fmt"
	"strings"
)

// TokenType represents different types of tokens
type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	SYMBOL // gen, x, +, trace-get
	INT    // 42
	FLOAT  // 3.14, 1e-3
	STRING // "foobar"

	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
)

var tokenNames = map[TokenType]string{
	ILLEGAL:  "ILLEGAL",
	EOF:      "EOF",
	SYMBOL:   "SYMBOL",
	INT:      "INT",
	FLOAT:    "FLOAT",
	STRING:   "STRING",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACKET: "[",
	RBRACKET: "]",
}

func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a lexical token with its 1-based source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}

// Lexer splits source text into tokens.
type Lexer struct {
	input  []rune
	pos    int
	line   int
	column int
}

// NewLexer creates a lexer for input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input), line: 1, column: 1}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() rune {
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.input) {
		switch ch := l.peek(); {
		case ch == ';':
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ',':
			l.advance()
		default:
			return
		}
	}
}

// NextToken returns the next token. An unterminated string is returned as
// ILLEGAL with the partial text.
func (l *Lexer) NextToken() Token {
	l.skipTrivia()

	tok := Token{Line: l.line, Column: l.column}
	if l.pos >= len(l.input) {
		tok.Type = EOF
		return tok
	}

	switch ch := l.peek(); ch {
	case '(':
		tok.Type, tok.Literal = LPAREN, string(l.advance())
	case ')':
		tok.Type, tok.Literal = RPAREN, string(l.advance())
	case '[':
		tok.Type, tok.Literal = LBRACKET, string(l.advance())
	case ']':
		tok.Type, tok.Literal = RBRACKET, string(l.advance())
	case '"':
		s, ok := l.readString()
		tok.Literal = s
		tok.Type = STRING
		if !ok {
			tok.Type = ILLEGAL
		}
	default:
		tok.Literal = l.readAtom()
		tok.Type = classifyAtom(tok.Literal)
	}
	return tok
}

func (l *Lexer) readString() (string, bool) {
	var sb strings.Builder
	l.advance() // opening quote
	for l.pos < len(l.input) {
		ch := l.advance()
		switch ch {
		case '"':
			return sb.String(), true
		case '\\':
			if l.pos >= len(l.input) {
				return sb.String(), false
			}
			switch esc := l.advance(); esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(ch)
		}
	}
	return sb.String(), false
}

func isDelimiter(ch rune) bool {
	switch ch {
	case 0, '(', ')', '[', ']', '"', ';', ' ', '\t', '\n', '\r', ',':
		return true
	}
	return false
}

func (l *Lexer) readAtom() string {
	start := l.pos
	for l.pos < len(l.input) && !isDelimiter(l.peek()) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func classifyAtom(s string) TokenType {
	body := strings.TrimLeft(s, "+-")
	if len(body) == len(s)-1 || len(body) == len(s) {
		if body != "" && (isDigit(rune(body[0])) || (body[0] == '.' && len(body) > 1 && isDigit(rune(body[1])))) {
			if strings.ContainsAny(body, ".eE") {
				return FLOAT
			}
			return INT
		}
	}
	return SYMBOL
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
