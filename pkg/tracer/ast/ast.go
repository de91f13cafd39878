// Package ast builds and inspects expression trees.
//
// An expression is a persistent trie whose root value is the expression
// kind. Applications, blocks and tuple patterns keep their parts under
// integer keys; every other kind names its parts (predicate/then/else,
// pattern/body, tag/expression, ...).
package ast

import (
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Expression kinds understood by the evaluator.
const (
	KindApplication = "application"
	KindVariable    = "variable"
	KindLiteral     = "literal"
	KindGen         = "gen"
	KindIf          = "if"
	KindBlock       = "block"
	KindDefinition  = "definition"
	KindThis        = "this"
	KindWithAddress = "with-address"

	// KindTuple appears only in patterns.
	KindTuple = "tuple"
)

// Role keys for named parts.
const (
	RoleName       = "name"
	RoleValue      = "value"
	RolePattern    = "pattern"
	RoleBody       = "body"
	RolePredicate  = "predicate"
	RoleThen       = "then"
	RoleElse       = "else"
	RoleTag        = "tag"
	RoleExpression = "expression"
)

// RestMarker in the second-to-last slot of a tuple pattern makes the last
// slot bind the remaining inputs.
const RestMarker = "&"

// Node is an expression or pattern.
type Node = trie.Trie

func node(kind string) *trie.Persistent {
	return trie.Leaf(kind)
}

func positional(kind string, parts []Node) *trie.Persistent {
	n := node(kind)
	for i, p := range parts {
		n = n.WithSubtrie(trie.Index(i), p)
	}
	return n
}

// Application builds a call of fn on args.
func Application(fn Node, args ...Node) Node {
	return positional(KindApplication, append([]Node{fn}, args...))
}

// Variable builds a variable reference, also used as a pattern leaf.
func Variable(name string) Node {
	return node(KindVariable).WithAt(trie.Addr(RoleName), name)
}

// Literal builds a constant expression.
func Literal(v object.Object) Node {
	return node(KindLiteral).WithAt(trie.Addr(RoleValue), v)
}

// Gen builds a generative procedure expression.
func Gen(pattern, body Node) Node {
	return node(KindGen).
		WithSubtrie(trie.Name(RolePattern), pattern).
		WithSubtrie(trie.Name(RoleBody), body)
}

// If builds a conditional.
func If(predicate, then, els Node) Node {
	return node(KindIf).
		WithSubtrie(trie.Name(RolePredicate), predicate).
		WithSubtrie(trie.Name(RoleThen), then).
		WithSubtrie(trie.Name(RoleElse), els)
}

// Block builds a sequence of statements sharing one new scope.
func Block(statements ...Node) Node {
	return positional(KindBlock, statements)
}

// Define builds a definition binding pattern to the value of expr.
func Define(pattern, expr Node) Node {
	return node(KindDefinition).
		WithSubtrie(trie.Name(RolePattern), pattern).
		WithSubtrie(trie.Name(RoleValue), expr)
}

// This builds the overlay-capturing expression.
func This() Node {
	return node(KindThis)
}

// WithAddress builds an expression evaluated under the overlays named by tag.
func WithAddress(tag, expr Node) Node {
	return node(KindWithAddress).
		WithSubtrie(trie.Name(RoleTag), tag).
		WithSubtrie(trie.Name(RoleExpression), expr)
}

// Tuple builds a tuple pattern.
func Tuple(patterns ...Node) Node {
	return positional(KindTuple, patterns)
}

// Params builds a tuple pattern of plain variables, e.g. Params("x", "&", "xs").
func Params(names ...string) Node {
	parts := make([]Node, len(names))
	for i, name := range names {
		parts[i] = Variable(name)
	}
	return Tuple(parts...)
}

// Int, Float, Str and Bool build literals of the corresponding type.
func Int(v int64) Node     { return Literal(&object.Integer{Value: v}) }
func Float(v float64) Node { return Literal(&object.Float{Value: v}) }
func Str(v string) Node    { return Literal(&object.String{Value: v}) }
func Bool(v bool) Node     { return Literal(object.NativeBool(v)) }

// Call is shorthand for applying the procedure bound to name.
func Call(name string, args ...Node) Node {
	return Application(Variable(name), args...)
}

// Kind returns the node's kind, or "" if the node is not tagged.
func Kind(n Node) string {
	if n == nil {
		return ""
	}
	kind, _ := n.Get().(string)
	return kind
}

// Part returns a named part.
func Part(n Node, role string) (Node, bool) {
	return n.Subtrie(trie.Name(role))
}

// Parts returns the positional parts in order.
func Parts(n Node) []Node {
	var parts []Node
	for i := 0; ; i++ {
		p, ok := n.Subtrie(trie.Index(i))
		if !ok {
			return parts
		}
		parts = append(parts, p)
	}
}

// VariableName returns the name of a variable node.
func VariableName(n Node) (string, bool) {
	if Kind(n) != KindVariable {
		return "", false
	}
	v, ok := n.GetAt(trie.Addr(RoleName))
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// LiteralValue returns the constant of a literal node.
func LiteralValue(n Node) (object.Object, bool) {
	v, ok := n.GetAt(trie.Addr(RoleValue))
	if !ok {
		return nil, false
	}
	obj, ok := v.(object.Object)
	return obj, ok
}
