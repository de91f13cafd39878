// Package trie provides the address-keyed tries used as expression trees,
// environments and execution traces.
//
// A node carries at most one value and an insertion-ordered mapping from
// keys to child nodes. Two variants share the read-only Trie interface:
// Mutable, which is updated in place, and Persistent, which returns a new
// trie from every update and shares structure with the old one.
//
// Neither variant is synchronized. A trie that is only read may be shared
// between goroutines; a Mutable that is being written must not be.
package trie

import (
	"fmt"
	"sort"
	"strings"
)

// Kind tells the two trie variants apart.
type Kind int

const (
	KindMutable Kind = iota
	KindPersistent
)

func (k Kind) String() string {
	if k == KindMutable {
		return "mutable"
	}
	return "persistent"
}

// Trie is the read capability shared by both variants.
type Trie interface {
	Kind() Kind
	// Has reports whether this node carries a value.
	Has() bool
	// Get returns this node's value, or nil.
	Get() any
	HasAt(addr Address) bool
	GetAt(addr Address) (any, bool)
	Subtrie(k Key) (Trie, bool)
	SubtrieAt(addr Address) (Trie, bool)
	// Keys returns child keys in insertion order.
	Keys() []Key
	// Count returns the number of values stored in this subtree,
	// including the node's own value.
	Count() int
}

func subtrieAt(t Trie, addr Address) (Trie, bool) {
	cur := t
	for _, k := range addr {
		next, ok := cur.Subtrie(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func hasAt(t Trie, addr Address) bool {
	sub, ok := t.SubtrieAt(addr)
	return ok && sub.Has()
}

func getAt(t Trie, addr Address) (any, bool) {
	sub, ok := t.SubtrieAt(addr)
	if !ok || !sub.Has() {
		return nil, false
	}
	return sub.Get(), true
}

func count(t Trie) int {
	n := 0
	if t.Has() {
		n = 1
	}
	for _, k := range t.Keys() {
		sub, _ := t.Subtrie(k)
		n += sub.Count()
	}
	return n
}

// Walk visits every node that carries a value, parents before children and
// children in insertion order. Returning false from fn stops the walk.
func Walk(t Trie, fn func(addr Address, v any) bool) {
	if t == nil {
		return
	}
	walk(t, Address{}, fn)
}

func walk(t Trie, addr Address, fn func(Address, any) bool) bool {
	if t.Has() && !fn(addr, t.Get()) {
		return false
	}
	for _, k := range t.Keys() {
		sub, _ := t.Subtrie(k)
		if !walk(sub, addr.Append(k), fn) {
			return false
		}
	}
	return true
}

// Equal compares two tries node by node, ignoring child order. Values are
// compared with eq.
func Equal(a, b Trie, eq func(x, y any) bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Has() != b.Has() {
		return false
	}
	if a.Has() && !eq(a.Get(), b.Get()) {
		return false
	}
	ak, bk := a.Keys(), b.Keys()
	if len(ak) != len(bk) {
		return false
	}
	for _, k := range ak {
		as, _ := a.Subtrie(k)
		bs, ok := b.Subtrie(k)
		if !ok || !Equal(as, bs, eq) {
			return false
		}
	}
	return true
}

// Dump renders every value as an "address = value" line, sorted by address.
func Dump(t Trie, format func(any) string) string {
	if format == nil {
		format = func(v any) string { return fmt.Sprint(v) }
	}
	var lines []string
	Walk(t, func(addr Address, v any) bool {
		lines = append(lines, addr.String()+" = "+format(v))
		return true
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// ToMutable returns a mutable deep copy of t.
func ToMutable(t Trie) *Mutable {
	m := NewMutable()
	if t == nil {
		return m
	}
	if t.Has() {
		m.Set(t.Get())
	}
	for _, k := range t.Keys() {
		sub, _ := t.Subtrie(k)
		m.setChild(k, ToMutable(sub))
	}
	return m
}

// ToPersistent returns t as a persistent trie, copying only when t is mutable.
func ToPersistent(t Trie) *Persistent {
	if p, ok := t.(*Persistent); ok {
		return p
	}
	p := Empty()
	if t == nil {
		return p
	}
	if t.Has() {
		p = p.With(t.Get())
	}
	for _, k := range t.Keys() {
		sub, _ := t.Subtrie(k)
		p = p.WithSubtrie(k, ToPersistent(sub))
	}
	return p
}
