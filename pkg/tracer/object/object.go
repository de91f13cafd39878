// Package object defines the data values manipulated by tracer programs.
//
// Procedures and tag-address handles live in the evaluator package because
// they close over environments and overlays; everything here is plain data.
package object

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// ObjectType represents the type of objects in the language
type ObjectType string

const (
	INTEGER_OBJ   = "INTEGER"
	FLOAT_OBJ     = "FLOAT"
	BOOLEAN_OBJ   = "BOOLEAN"
	STRING_OBJ    = "STRING"
	NULL_OBJ      = "NULL"
	TUPLE_OBJ     = "TUPLE"
	LIST_OBJ      = "LIST"
	TRACE_OBJ     = "TRACE"
	PROCEDURE_OBJ = "PROCEDURE"
	HANDLE_OBJ    = "CONTEXT_HANDLE"
	QUASI_OBJ     = "QUASI_ADDRESS"
)

// Object represents all values in the language
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Integer represents integer objects
type Integer struct {
	Value int64
}

func (i *Integer) Inspect() string  { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) Type() ObjectType { return INTEGER_OBJ }

// Float represents floating-point objects
type Float struct {
	Value float64
}

func (f *Float) Inspect() string {
	switch {
	case math.IsInf(f.Value, 1):
		return "+inf"
	case math.IsInf(f.Value, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
func (f *Float) Type() ObjectType { return FLOAT_OBJ }

// Boolean represents boolean objects
type Boolean struct {
	Value bool
}

func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// String represents string objects
type String struct {
	Value string
}

func (s *String) Inspect() string  { return strconv.Quote(s.Value) }
func (s *String) Type() ObjectType { return STRING_OBJ }

// Null represents nil
type Null struct{}

func (n *Null) Inspect() string  { return "nil" }
func (n *Null) Type() ObjectType { return NULL_OBJ }

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

// NativeBool returns the shared Boolean for b.
func NativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// IsTruthy reports whether obj selects the then-branch of an if.
// Only false and nil are false.
func IsTruthy(obj Object) bool {
	switch obj := obj.(type) {
	case nil, *Null:
		return false
	case *Boolean:
		return obj.Value
	default:
		return true
	}
}

// Sequence is implemented by list- and tuple-like values.
type Sequence interface {
	Object
	Items() []Object
}

// Tuple is a fixed-length sequence, written [a b c].
type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Items() []Object  { return t.Elements }
func (t *Tuple) Inspect() string  { return inspectItems("[", t.Elements, "]") }

// List is a sequence produced by list operations and rest patterns,
// written (list a b c).
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Items() []Object  { return l.Elements }
func (l *List) Inspect() string  { return inspectItems("(list", l.Elements, ")") }

func inspectItems(open string, items []Object, close string) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, item := range items {
		if i > 0 || open != "[" {
			sb.WriteByte(' ')
		}
		sb.WriteString(Inspect(item))
	}
	sb.WriteString(close)
	return sb.String()
}

// Trace wraps a trie as a first-class value.
type Trace struct {
	Trie trie.Trie
}

func (t *Trace) Type() ObjectType { return TRACE_OBJ }
func (t *Trace) Inspect() string {
	if t.Trie == nil {
		return "(trace)"
	}
	return fmt.Sprintf("(trace %d)", t.Trie.Count())
}

// Inspect renders any trie-stored value, tolerating non-objects.
func Inspect(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case Object:
		return v.Inspect()
	default:
		return fmt.Sprint(v)
	}
}

// Items returns the elements of a sequence value.
func Items(obj Object) ([]Object, bool) {
	seq, ok := obj.(Sequence)
	if !ok {
		return nil, false
	}
	return seq.Items(), true
}

// NumberValue returns the numeric value of an Integer or Float.
func NumberValue(obj Object) (float64, bool) {
	switch obj := obj.(type) {
	case *Integer:
		return float64(obj.Value), true
	case *Float:
		return obj.Value, true
	default:
		return 0, false
	}
}

// FromNative converts a value stored in a trie to an Object. Go numbers,
// strings and bools are wrapped; Objects pass through; nil becomes NULL.
func FromNative(v any) (Object, bool) {
	switch v := v.(type) {
	case nil:
		return NULL, true
	case Object:
		return v, true
	case int:
		return &Integer{Value: int64(v)}, true
	case int64:
		return &Integer{Value: v}, true
	case float64:
		return &Float{Value: v}, true
	case bool:
		return NativeBool(v), true
	case string:
		return &String{Value: v}, true
	default:
		return nil, false
	}
}
