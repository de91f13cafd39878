package object

import (
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// ToKey converts a string or non-negative integer to an address key.
func ToKey(obj Object) (trie.Key, bool) {
	switch obj := obj.(type) {
	case *String:
		k := trie.Name(obj.Value)
		return k, k.Valid()
	case *Integer:
		k := trie.Index(int(obj.Value))
		return k, k.Valid()
	}
	return trie.Key{}, false
}

// FromKey converts an address key to a String or Integer.
func FromKey(k trie.Key) Object {
	if k.IsIndex() {
		return &Integer{Value: int64(k.Index())}
	}
	return &String{Value: k.Name()}
}

// AddressFrom converts a key or a sequence of keys to an address. Nested
// sequences are flattened, so [0 ["x" 1]] is the address 0/x/1.
func AddressFrom(obj Object) (trie.Address, bool) {
	if seq, ok := obj.(Sequence); ok {
		addr := trie.Address{}
		for _, item := range seq.Items() {
			sub, ok := AddressFrom(item)
			if !ok {
				return nil, false
			}
			addr = addr.Concat(sub)
		}
		return addr, true
	}
	k, ok := ToKey(obj)
	if !ok {
		return nil, false
	}
	return trie.Address{k}, true
}

// AddressValue converts an address to a List of keys.
func AddressValue(addr trie.Address) *List {
	items := make([]Object, len(addr))
	for i, k := range addr {
		items[i] = FromKey(k)
	}
	return &List{Elements: items}
}
