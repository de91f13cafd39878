// Package errors provides the structured error type for the tracer
// evaluator and reader.
//
// Every error is a *TracerError carrying a class, a catalog code, a rendered
// message, optional hints, and the address of the expression that failed.
// The class-level sentinels (ErrPatternArity, ErrBadPattern, ...) match any
// error of their class under errors.Is.
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and matching.
type ErrorClass string

const (
	ClassParse       ErrorClass = "parse"       // Reader/syntax errors
	ClassArity       ErrorClass = "arity"       // Pattern/input length mismatch
	ClassPattern     ErrorClass = "pattern"     // Malformed parameter pattern
	ClassEnvironment ErrorClass = "environment" // Binding into the top level
	ClassCall        ErrorClass = "call"        // Non-procedure in call position
	ClassExpression  ErrorClass = "expression"  // Unknown expression kind
	ClassKey         ErrorClass = "key"         // Invalid address key
	ClassUndefined   ErrorClass = "undefined"   // Unbound variable
	ClassType        ErrorClass = "type"        // Wrong argument type
	ClassDomain      ErrorClass = "domain"      // Argument outside a primitive's support
)

// TracerError represents any error raised while reading or evaluating.
type TracerError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Address string         `json:"address,omitempty"` // address of the failing expression
	Line    int            `json:"line,omitempty"`    // 1-based, reader errors only
	Column  int            `json:"column,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *TracerError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *TracerError) String() string {
	var sb strings.Builder

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}
	if e.Address != "" {
		sb.WriteString("at ")
		sb.WriteString(e.Address)
		sb.WriteString(": ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *TracerError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Syntax error")
	default:
		sb.WriteString("Evaluation error")
	}

	switch {
	case e.Line > 0:
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	case e.Address != "":
		sb.WriteString(":\n  at: ")
		sb.WriteString(e.Address)
		sb.WriteString("\n  ")
	default:
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *TracerError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithAddress returns a copy of the error located at addr. An error that
// already has an address keeps it: the innermost failing node wins.
func (e *TracerError) WithAddress(addr string) *TracerError {
	if e.Address != "" {
		return e
	}
	cp := *e
	cp.Address = addr
	return &cp
}

// WithPosition returns a copy of the error with line and column set.
func (e *TracerError) WithPosition(line, column int) *TracerError {
	cp := *e
	cp.Line = line
	cp.Column = column
	return &cp
}

// Is matches a sentinel of the same class. A sentinel with a code only
// matches errors carrying that code.
func (e *TracerError) Is(target error) bool {
	t, ok := target.(*TracerError)
	if !ok {
		return false
	}
	if t.Class != e.Class {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// As returns the *TracerError in err's chain, if any.
func As(err error) (*TracerError, bool) {
	var te *TracerError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsClass reports whether err is a TracerError of the given class.
func IsClass(err error, class ErrorClass) bool {
	te, ok := As(err)
	return ok && te.Class == class
}

// Sentinels for errors.Is. They carry no message and are never returned.
var (
	ErrParse                 = &TracerError{Class: ClassParse}
	ErrPatternArity          = &TracerError{Class: ClassArity}
	ErrTooFewInputs          = &TracerError{Class: ClassArity, Code: "ARITY-0001"}
	ErrTooManyInputs         = &TracerError{Class: ClassArity, Code: "ARITY-0002"}
	ErrBadPattern            = &TracerError{Class: ClassPattern}
	ErrBadEnvironment        = &TracerError{Class: ClassEnvironment}
	ErrNotAProcedure         = &TracerError{Class: ClassCall}
	ErrUnknownExpressionKind = &TracerError{Class: ClassExpression}
	ErrInvalidKey            = &TracerError{Class: ClassKey}
	ErrUndefined             = &TracerError{Class: ClassUndefined}
	ErrType                  = &TracerError{Class: ClassType}
	ErrDomain                = &TracerError{Class: ClassDomain}
)

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // message template with {{.placeholders}}
	Hints    []string // hint templates
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Reader errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "unexpected '{{.Token}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unterminated {{.What}}",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "{{.Form}} expects {{.Expected}}",
		Hints:    []string{"{{.Usage}}"},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "invalid pattern: {{.Pattern}}",
		Hints:    []string{"patterns are names or [tuples] of patterns, optionally ending in & rest"},
	},

	// ========================================
	// Pattern binding (ARITY-0xxx, PATTERN-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "too few inputs: pattern {{.Pattern}} expects {{.Expected}}, got {{.Input}}",
	},
	"ARITY-0002": {
		Class:    ClassArity,
		Template: "too many inputs: pattern {{.Pattern}} expects {{.Expected}}, got {{.Input}}",
	},
	"PATTERN-0001": {
		Class:    ClassPattern,
		Template: "bad pattern: {{.Pattern}}",
		Hints:    []string{"a pattern is a variable or a tuple of patterns"},
	},
	"PATTERN-0002": {
		Class:    ClassPattern,
		Template: "cannot destructure {{.Type}} with pattern {{.Pattern}}",
	},

	// ========================================
	// Environment (ENV-0xxx)
	// ========================================
	"ENV-0001": {
		Class:    ClassEnvironment,
		Template: "cannot bind '{{.Name}}' in the top-level environment",
		Hints:    []string{"definitions must appear inside a block or procedure body"},
	},

	// ========================================
	// Calls (CALL-0xxx)
	// ========================================
	"CALL-0001": {
		Class:    ClassCall,
		Template: "cannot call {{.Type}} {{.Value}} as a procedure",
	},

	// ========================================
	// Expressions (EXPR-0xxx)
	// ========================================
	"EXPR-0001": {
		Class:    ClassExpression,
		Template: "not a code expression: {{.Kind}}",
	},
	"EXPR-0002": {
		Class:    ClassExpression,
		Template: "{{.Kind}} expression is missing its {{.Part}}",
	},

	// ========================================
	// Address keys (KEY-0xxx)
	// ========================================
	"KEY-0001": {
		Class:    ClassKey,
		Template: "invalid address key: {{.Key}}",
		Hints:    []string{"address keys are non-empty names or non-negative integers"},
	},
	"KEY-0002": {
		Class:    ClassKey,
		Template: "cannot use {{.Type}} as a quasi-address",
		Hints:    []string{"build one with (addr (this) key ...)"},
	},

	// ========================================
	// Names (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "variable not found: {{.Name}}",
	},

	// ========================================
	// Primitive arguments (TYPE-0xxx, DOMAIN-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "{{.Function}} expects {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "{{.Function}} expects {{.Expected}} arguments, got {{.Got}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "{{.Overlay}} holds a value of Go type {{.Got}}",
		Hints:    []string{"overlay tries may hold tracer values, Go numbers, strings, bools or nil"},
	},
	"DOMAIN-0001": {
		Class:    ClassDomain,
		Template: "{{.Function}}: {{.Reason}}",
	},
}

// New creates a TracerError from a catalog code.
func New(code string, data map[string]any) *TracerError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if m, ok := data["message"].(string); ok {
			msg = m
		}
		return &TracerError{
			Class:   ClassType,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &TracerError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a TracerError with reader position information.
func NewWithPosition(code string, line, column int, data map[string]any) *TracerError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates an error without using the catalog.
func NewSimple(class ErrorClass, message string) *TracerError {
	return &TracerError{
		Class:   class,
		Message: message,
	}
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}
