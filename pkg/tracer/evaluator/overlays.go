package evaluator

import (
	"context"
	"fmt"

	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Overlays are the three tries that travel with an evaluation, each rooted
// at the current address. Intervene forces values, Target constrains them
// and scores the constraint, Output records what happened. Any of them may
// be nil.
type Overlays struct {
	Intervene trie.Trie
	Target    trie.Trie
	Output    *trie.Mutable
}

// Empty reports whether no overlay is present.
func (o Overlays) Empty() bool {
	return o.Intervene == nil && o.Target == nil && o.Output == nil
}

// At returns the overlays rooted at addr. Output nodes are created on the
// way down so that recordings land at the right place.
func (o Overlays) At(addr trie.Address) Overlays {
	if len(addr) == 0 {
		return o
	}
	out := Overlays{
		Intervene: subtrie(o.Intervene, addr),
		Target:    subtrie(o.Target, addr),
	}
	if o.Output != nil {
		out.Output = o.Output.Descend(addr)
	}
	return out
}

func subtrie(t trie.Trie, addr trie.Address) trie.Trie {
	if t == nil {
		return nil
	}
	sub, ok := t.SubtrieAt(addr)
	if !ok {
		return nil
	}
	return sub
}

// Intervention returns the forced value at the root, if any.
func (o Overlays) Intervention() (object.Object, bool, error) {
	return rootValue(o.Intervene, "intervention")
}

// TargetValue returns the constrained value at the root, if any.
func (o Overlays) TargetValue() (object.Object, bool, error) {
	return rootValue(o.Target, "target")
}

// Record stores v at the root of the output trie.
func (o Overlays) Record(v object.Object) {
	if o.Output != nil {
		o.Output.Set(v)
	}
}

// rootValue converts the value stored at the root of t. Anything
// object.FromNative cannot convert is a type error, not an absent value.
func rootValue(t trie.Trie, overlay string) (object.Object, bool, error) {
	if t == nil || !t.Has() {
		return nil, false, nil
	}
	raw := t.Get()
	v, ok := object.FromNative(raw)
	if !ok {
		return nil, false, errors.New("TYPE-0003", map[string]any{
			"Overlay": overlay,
			"Got":     fmt.Sprintf("%T", raw),
		})
	}
	return v, true, nil
}

// Diagnostic addresses are absolute: they are carried through the context
// so that errors and log records raised inside procedure bodies name the
// full path from the outermost evaluation. Each call adds one link to a
// chain of relative steps and replaces the context value instead of
// nesting another context. The chain is flattened only when an address is
// reported.
type addrPath struct {
	parent *addrPath
	rel    trie.Address
}

// child returns the path rel below p. Addresses are never mutated after
// they are built, so rel is shared rather than copied.
func (p *addrPath) child(rel trie.Address) *addrPath {
	if len(rel) == 0 {
		return p
	}
	return &addrPath{parent: p, rel: rel}
}

// Address flattens the chain. A nil path is the root.
func (p *addrPath) Address() trie.Address {
	n := 0
	for q := p; q != nil; q = q.parent {
		n += len(q.rel)
	}
	addr := make(trie.Address, n)
	for q := p; q != nil; q = q.parent {
		n -= len(q.rel)
		copy(addr[n:], q.rel)
	}
	return addr
}

type baseKey struct{}

type baseContext struct {
	context.Context
	base *addrPath
}

func (c *baseContext) Value(key any) any {
	if _, ok := key.(baseKey); ok {
		return c.base
	}
	return c.Context.Value(key)
}

func withBase(ctx context.Context, base *addrPath) context.Context {
	if bc, ok := ctx.(*baseContext); ok {
		return &baseContext{Context: bc.Context, base: base}
	}
	return &baseContext{Context: ctx, base: base}
}

func baseFromContext(ctx context.Context) *addrPath {
	base, _ := ctx.Value(baseKey{}).(*addrPath)
	return base
}

// AddressFromContext returns the absolute address of the procedure call
// currently being evaluated.
func AddressFromContext(ctx context.Context) trie.Address {
	return baseFromContext(ctx).Address()
}
