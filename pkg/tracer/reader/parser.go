// Package reader turns s-expression source text into expression tries.
//
// A program is a sequence of top-level forms and reads as one block, so
// definitions at the top level bind into the program's own scope:
//
//	(define coin (gen [p] (flip p)))
//	(coin 0.3)
//
// Special forms are gen, if, block, define, this and with-address. Square
// brackets build tuples in expressions and tuple patterns in binding
// positions. Everything else in parentheses is a procedure call.
package reader

import (
	"strconv"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
)

// Parser builds expressions from a token stream.
type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token
}

// NewParser creates a parser reading from l.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Parse reads a whole program and returns it as a block expression.
func Parse(src string) (ast.Node, error) {
	return NewParser(NewLexer(src)).ParseProgram()
}

// ParseExpression reads exactly one expression.
func ParseExpression(src string) (ast.Node, error) {
	p := NewParser(NewLexer(src))
	if p.curToken.Type == EOF {
		return nil, p.errorAt(p.curToken, "PARSE-0002", map[string]any{"What": "input, expected an expression"})
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.nextToken()
	if p.curToken.Type != EOF {
		return nil, p.unexpected(p.curToken)
	}
	return expr, nil
}

// ParseProgram reads forms until EOF.
func (p *Parser) ParseProgram() (ast.Node, error) {
	var forms []ast.Node
	for p.curToken.Type != EOF {
		form, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
		p.nextToken()
	}
	return ast.Block(forms...), nil
}

// parseExpression parses the expression starting at curToken and leaves
// curToken on its last token.
func (p *Parser) parseExpression() (ast.Node, error) {
	tok := p.curToken
	switch tok.Type {
	case INT:
		v, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, p.errorAt(tok, "PARSE-0003", map[string]any{"Literal": tok.Literal})
		}
		return ast.Int(v), nil
	case FLOAT:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorAt(tok, "PARSE-0003", map[string]any{"Literal": tok.Literal})
		}
		return ast.Float(v), nil
	case STRING:
		return ast.Str(tok.Literal), nil
	case SYMBOL:
		return parseSymbol(tok.Literal), nil
	case LBRACKET:
		items, err := p.parseSequence(RBRACKET, p.parseExpression)
		if err != nil {
			return nil, err
		}
		return ast.Call("tuple", items...), nil
	case LPAREN:
		return p.parseForm()
	case ILLEGAL:
		return nil, p.errorAt(tok, "PARSE-0002", map[string]any{"What": "string"})
	case EOF:
		return nil, p.errorAt(tok, "PARSE-0002", map[string]any{"What": "list"})
	default:
		return nil, p.unexpected(tok)
	}
}

func parseSymbol(name string) ast.Node {
	switch name {
	case "true":
		return ast.Bool(true)
	case "false":
		return ast.Bool(false)
	case "nil":
		return ast.Literal(object.NULL)
	}
	return ast.Variable(name)
}

// parseSequence parses items until the closing token. curToken is the
// opening token on entry and the closing token on exit.
func (p *Parser) parseSequence(closing TokenType, item func() (ast.Node, error)) ([]ast.Node, error) {
	open := p.curToken
	var items []ast.Node
	for {
		p.nextToken()
		switch p.curToken.Type {
		case closing:
			return items, nil
		case EOF:
			what := "list"
			if open.Type == LBRACKET {
				what = "tuple"
			}
			return nil, p.errorAt(open, "PARSE-0002", map[string]any{"What": what})
		}
		n, err := item()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

type formSpec struct {
	arity    int
	expected string
	usage    string
}

var forms = map[string]formSpec{
	"if":           {3, "a predicate, a consequent and an alternative", "(if predicate then else)"},
	"define":       {2, "a pattern and a value", "(define name expr) or (define [a b] expr)"},
	"this":         {0, "no arguments", "(this)"},
	"with-address": {2, "a tag and an expression", "(with-address (addr (this) key) expr)"},
}

func (p *Parser) parseForm() (ast.Node, error) {
	open := p.curToken
	p.nextToken()

	if p.curToken.Type == SYMBOL {
		switch head := p.curToken.Literal; head {
		case "gen":
			return p.parseGen(open)
		case "block":
			stmts, err := p.parseRest()
			if err != nil {
				return nil, err
			}
			return ast.Block(stmts...), nil
		case "define":
			return p.parseDefine(open)
		case "if", "this", "with-address":
			args, err := p.parseRest()
			if err != nil {
				return nil, err
			}
			if err := p.checkArity(open, head, args); err != nil {
				return nil, err
			}
			switch head {
			case "if":
				return ast.If(args[0], args[1], args[2]), nil
			case "this":
				return ast.This(), nil
			default:
				return ast.WithAddress(args[0], args[1]), nil
			}
		}
	}

	switch p.curToken.Type {
	case RPAREN:
		return nil, p.errorAt(open, "PARSE-0004", map[string]any{
			"Form": "a call", "Expected": "a procedure", "Usage": "(f arg ...)",
		})
	case EOF:
		return nil, p.errorAt(open, "PARSE-0002", map[string]any{"What": "list"})
	}

	fn, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	args, err := p.parseRest()
	if err != nil {
		return nil, err
	}
	return ast.Application(fn, args...), nil
}

// parseRest parses the remaining expressions of a form whose head is
// curToken, leaving curToken on the closing paren.
func (p *Parser) parseRest() ([]ast.Node, error) {
	var items []ast.Node
	for {
		p.nextToken()
		switch p.curToken.Type {
		case RPAREN:
			return items, nil
		case EOF:
			return nil, p.errorAt(p.curToken, "PARSE-0002", map[string]any{"What": "list"})
		}
		n, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
}

func (p *Parser) checkArity(open Token, head string, args []ast.Node) error {
	form := forms[head]
	if len(args) != form.arity {
		return p.errorAt(open, "PARSE-0004", map[string]any{
			"Form": head, "Expected": form.expected, "Usage": form.usage,
		})
	}
	return nil
}

// (gen pattern body ...) with several body forms reads as a block body.
func (p *Parser) parseGen(open Token) (ast.Node, error) {
	p.nextToken()
	if p.curToken.Type == RPAREN || p.curToken.Type == EOF {
		return nil, p.errorAt(open, "PARSE-0004", map[string]any{
			"Form": "gen", "Expected": "a pattern and a body", "Usage": "(gen [x y] body)",
		})
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	body, err := p.parseRest()
	if err != nil {
		return nil, err
	}
	switch len(body) {
	case 0:
		return nil, p.errorAt(open, "PARSE-0004", map[string]any{
			"Form": "gen", "Expected": "a pattern and a body", "Usage": "(gen [x y] body)",
		})
	case 1:
		return ast.Gen(pattern, body[0]), nil
	default:
		return ast.Gen(pattern, ast.Block(body...)), nil
	}
}

func (p *Parser) parseDefine(open Token) (ast.Node, error) {
	p.nextToken()
	if p.curToken.Type == RPAREN || p.curToken.Type == EOF {
		return nil, p.checkArity(open, "define", nil)
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	rest, err := p.parseRest()
	if err != nil {
		return nil, err
	}
	if len(rest) != 1 {
		return nil, p.checkArity(open, "define", append([]ast.Node{pattern}, rest...))
	}
	return ast.Define(pattern, rest[0]), nil
}

// parsePattern parses a variable or a bracketed tuple pattern. The rest
// marker may only appear second to last.
func (p *Parser) parsePattern() (ast.Node, error) {
	tok := p.curToken
	switch tok.Type {
	case SYMBOL:
		switch tok.Literal {
		case "true", "false", "nil":
			return nil, p.errorAt(tok, "PARSE-0005", map[string]any{"Pattern": tok.Literal})
		}
		return ast.Variable(tok.Literal), nil
	case LBRACKET:
		parts, err := p.parseSequence(RBRACKET, p.parsePattern)
		if err != nil {
			return nil, err
		}
		pattern := ast.Tuple(parts...)
		for i, part := range parts {
			if name, ok := ast.VariableName(part); ok && name == ast.RestMarker && i != len(parts)-2 {
				return nil, p.errorAt(tok, "PARSE-0005", map[string]any{"Pattern": ast.String(pattern)})
			}
		}
		return pattern, nil
	default:
		return nil, p.errorAt(tok, "PARSE-0005", map[string]any{"Pattern": tok.Literal})
	}
}

func (p *Parser) unexpected(tok Token) error {
	lit := tok.Literal
	if tok.Type == EOF {
		lit = "end of input"
	}
	return p.errorAt(tok, "PARSE-0001", map[string]any{"Token": lit})
}

func (p *Parser) errorAt(tok Token, code string, data map[string]any) error {
	return errors.NewWithPosition(code, tok.Line, tok.Column, data)
}
