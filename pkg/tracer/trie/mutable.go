package trie

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Mutable is a trie updated in place. The zero value is an empty trie.
type Mutable struct {
	value    any
	has      bool
	children *orderedmap.OrderedMap[Key, *Mutable]
}

// NewMutable returns an empty mutable trie.
func NewMutable() *Mutable {
	return &Mutable{}
}

func (m *Mutable) Kind() Kind { return KindMutable }
func (m *Mutable) Has() bool  { return m.has }
func (m *Mutable) Get() any   { return m.value }

func (m *Mutable) HasAt(addr Address) bool             { return hasAt(m, addr) }
func (m *Mutable) GetAt(addr Address) (any, bool)      { return getAt(m, addr) }
func (m *Mutable) SubtrieAt(addr Address) (Trie, bool) { return subtrieAt(m, addr) }
func (m *Mutable) Count() int                          { return count(m) }

func (m *Mutable) Subtrie(k Key) (Trie, bool) {
	child, ok := m.child(k)
	if !ok {
		return nil, false
	}
	return child, true
}

func (m *Mutable) Keys() []Key {
	if m.children == nil {
		return nil
	}
	keys := make([]Key, 0, m.children.Len())
	for pair := m.children.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (m *Mutable) child(k Key) (*Mutable, bool) {
	if m.children == nil {
		return nil, false
	}
	return m.children.Get(k)
}

func (m *Mutable) setChild(k Key, child *Mutable) {
	if m.children == nil {
		m.children = orderedmap.New[Key, *Mutable]()
	}
	m.children.Set(k, child)
}

// Set stores v as this node's value.
func (m *Mutable) Set(v any) {
	m.value = v
	m.has = true
}

// Clear removes this node's value, keeping its children.
func (m *Mutable) Clear() {
	m.value = nil
	m.has = false
}

// SetAt stores v at addr, creating intermediate nodes.
func (m *Mutable) SetAt(addr Address, v any) {
	m.Descend(addr).Set(v)
}

// Descend returns the node at addr, creating any missing nodes on the way.
func (m *Mutable) Descend(addr Address) *Mutable {
	cur := m
	for _, k := range addr {
		next, ok := cur.child(k)
		if !ok {
			next = NewMutable()
			cur.setChild(k, next)
		}
		cur = next
	}
	return cur
}

// SetSubtrie replaces the child at k with a mutable copy of sub.
func (m *Mutable) SetSubtrie(k Key, sub Trie) {
	m.setChild(k, ToMutable(sub))
}

// Copy returns a deep copy. Later writes to either trie do not affect the other.
func (m *Mutable) Copy() *Mutable {
	return ToMutable(m)
}

// Freeze returns a persistent snapshot of the current contents.
func (m *Mutable) Freeze() *Persistent {
	return ToPersistent(m)
}
