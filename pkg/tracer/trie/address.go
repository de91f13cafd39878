package trie

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Key is a single step of an address: either a name or a non-negative index.
type Key struct {
	name  string
	index int
	isIdx bool
}

// Name returns a named key.
func Name(s string) Key { return Key{name: s} }

// Index returns an integer key.
func Index(i int) Key { return Key{index: i, isIdx: true} }

// IsIndex reports whether k is an integer key
func (k Key) IsIndex() bool { return k.isIdx }

// Name returns the key's name ("" for index keys)
func (k Key) Name() string { return k.name }

// Index returns the key's index (0 for name keys)
func (k Key) Index() int { return k.index }

// Valid reports whether the key may be used to address a trie node.
// Names must be non-empty and indexes must be non-negative.
func (k Key) Valid() bool {
	if k.isIdx {
		return k.index >= 0
	}
	return k.name != ""
}

func (k Key) String() string {
	if k.isIdx {
		return strconv.Itoa(k.index)
	}
	return k.name
}

// encode produces the radix-tree key. The tag byte keeps index 1 and
// name "1" apart.
func (k Key) encode() []byte {
	if k.isIdx {
		b := make([]byte, 9)
		b[0] = 'i'
		binary.BigEndian.PutUint64(b[1:], uint64(k.index))
		return b
	}
	return append([]byte{'s'}, k.name...)
}

// Address is an ordered sequence of keys locating a node relative to a root.
type Address []Key

// Addr builds an address from strings and ints.
// It panics on any other part type; it is meant for literals in code and tests.
func Addr(parts ...any) Address {
	addr := make(Address, 0, len(parts))
	for _, p := range parts {
		switch p := p.(type) {
		case string:
			addr = append(addr, Name(p))
		case int:
			addr = append(addr, Index(p))
		case Key:
			addr = append(addr, p)
		default:
			panic(fmt.Sprintf("trie.Addr: unsupported address part %T", p))
		}
	}
	return addr
}

// Append returns a new address with k added at the end. The receiver is
// never modified, so sibling addresses built from one parent stay distinct.
func (a Address) Append(k Key) Address {
	out := make(Address, len(a), len(a)+1)
	copy(out, a)
	return append(out, k)
}

// Concat returns a new address a followed by b.
func (a Address) Concat(b Address) Address {
	out := make(Address, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// String renders the address as slash-separated keys, "/" for the root.
func (a Address) String() string {
	if len(a) == 0 {
		return "/"
	}
	parts := make([]string, len(a))
	for i, k := range a {
		parts[i] = k.String()
	}
	return strings.Join(parts, "/")
}

// ParseAddress is the inverse of Address.String. Segments made only of
// digits become index keys.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return Address{}, nil
	}
	segments := strings.Split(strings.Trim(s, "/"), "/")
	addr := make(Address, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("empty segment in address %q", s)
		}
		if n, err := strconv.Atoi(seg); err == nil && n >= 0 {
			addr = append(addr, Index(n))
			continue
		}
		addr = append(addr, Name(seg))
	}
	return addr, nil
}
