package object

import (
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Equal is structural equality. Numbers compare by value across Integer and
// Float, sequences element-wise (a Tuple equals a List with the same
// elements), traces node-wise. Everything else, procedures included,
// compares by identity.
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if x, ok := NumberValue(a); ok {
		y, ok := NumberValue(b)
		return ok && x == y
	}

	switch a := a.(type) {
	case *Boolean:
		b, ok := b.(*Boolean)
		return ok && a.Value == b.Value
	case *String:
		b, ok := b.(*String)
		return ok && a.Value == b.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case Sequence:
		bs, ok := b.(Sequence)
		if !ok {
			return false
		}
		ai, bi := a.Items(), bs.Items()
		if len(ai) != len(bi) {
			return false
		}
		for i := range ai {
			if !Equal(ai[i], bi[i]) {
				return false
			}
		}
		return true
	case *Trace:
		b, ok := b.(*Trace)
		return ok && trie.Equal(a.Trie, b.Trie, EqualValues)
	}
	return a == b
}

// EqualValues compares two trie-stored values. Go scalars are compared as
// the objects they convert to; other non-objects compare with ==.
func EqualValues(x, y any) bool {
	xo, xok := FromNative(x)
	yo, yok := FromNative(y)
	if xok && yok {
		return Equal(xo, yo)
	}
	if xok || yok {
		return false
	}
	return x == y
}
