package trie

import (
	"slices"

	iradix "github.com/hashicorp/go-immutable-radix/v2"
)

// Persistent is an immutable trie. Updates return a new trie that shares
// unchanged nodes with the receiver.
type Persistent struct {
	value    any
	has      bool
	children *iradix.Tree[*Persistent]
	// order records first-insertion order; the radix tree is byte-ordered
	order []Key
}

var emptyPersistent = &Persistent{children: iradix.New[*Persistent]()}

// Empty returns the empty persistent trie.
func Empty() *Persistent { return emptyPersistent }

// Leaf returns a persistent trie holding only v.
func Leaf(v any) *Persistent { return Empty().With(v) }

func (p *Persistent) Kind() Kind { return KindPersistent }
func (p *Persistent) Has() bool  { return p.has }
func (p *Persistent) Get() any   { return p.value }

func (p *Persistent) HasAt(addr Address) bool             { return hasAt(p, addr) }
func (p *Persistent) GetAt(addr Address) (any, bool)      { return getAt(p, addr) }
func (p *Persistent) SubtrieAt(addr Address) (Trie, bool) { return subtrieAt(p, addr) }
func (p *Persistent) Count() int                          { return count(p) }

func (p *Persistent) Keys() []Key {
	return slices.Clone(p.order)
}

func (p *Persistent) Subtrie(k Key) (Trie, bool) {
	child, ok := p.child(k)
	if !ok {
		return nil, false
	}
	return child, true
}

func (p *Persistent) child(k Key) (*Persistent, bool) {
	return p.children.Get(k.encode())
}

// With returns a copy of p whose root value is v.
func (p *Persistent) With(v any) *Persistent {
	cp := *p
	cp.value = v
	cp.has = true
	return &cp
}

// WithSubtrie returns a copy of p whose child at k is sub.
func (p *Persistent) WithSubtrie(k Key, sub Trie) *Persistent {
	tree, _, existed := p.children.Insert(k.encode(), ToPersistent(sub))
	cp := *p
	cp.children = tree
	if !existed {
		cp.order = append(slices.Clip(p.order), k)
	}
	return &cp
}

// WithAt returns a copy of p with v stored at addr.
func (p *Persistent) WithAt(addr Address, v any) *Persistent {
	if len(addr) == 0 {
		return p.With(v)
	}
	child, ok := p.child(addr[0])
	if !ok {
		child = Empty()
	}
	return p.WithSubtrie(addr[0], child.WithAt(addr[1:], v))
}
