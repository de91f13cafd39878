// Package stdlib provides the top-level bindings every program starts with:
// arithmetic, sequences, trace manipulation, the generic apply and map
// procedures, and the random primitives.
package stdlib

import (
	"context"
	"maps"
	"slices"

	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/object"
)

// ExportMeta describes a top-level binding for help output.
type ExportMeta struct {
	Kind        string // "builtin" or "special"
	Arity       string
	Description string
}

// Globals is the top-level resolver. It is safe for concurrent lookups once
// construction and any Define calls are finished.
type Globals struct {
	values map[string]object.Object
	meta   map[string]ExportMeta
}

// New returns the standard top-level bindings.
func New() *Globals {
	g := &Globals{
		values: make(map[string]object.Object),
		meta:   make(map[string]ExportMeta),
	}
	registerMath(g)
	registerSequences(g)
	registerTraces(g)
	registerHigherOrder(g)
	registerRandom(g)
	return g
}

// Environment returns a top-level environment backed by the standard
// bindings.
func Environment() *evaluator.TopLevel {
	return evaluator.NewTopLevel(New())
}

func (g *Globals) ResolveGlobal(name string) (object.Object, bool) {
	v, ok := g.values[name]
	return v, ok
}

// Names returns every bound name in sorted order.
func (g *Globals) Names() []string {
	return slices.Sorted(maps.Keys(g.values))
}

// Define adds or replaces a host binding.
func (g *Globals) Define(name string, v object.Object) {
	g.values[name] = v
}

// Describe returns the help entry for name.
func (g *Globals) Describe(name string) (ExportMeta, bool) {
	m, ok := g.meta[name]
	return m, ok
}

func (g *Globals) builtin(name, arity, description string, fn evaluator.BuiltinFunction) {
	g.values[name] = &evaluator.Builtin{Name: name, Fn: fn}
	g.meta[name] = ExportMeta{Kind: "builtin", Arity: arity, Description: description}
}

func (g *Globals) special(name, arity, description string, method evaluator.InferMethod) {
	g.values[name] = evaluator.MakeInferProcedure(name, method)
	g.meta[name] = ExportMeta{Kind: "special", Arity: arity, Description: description}
}

// Call invokes a standard procedure by name outside any trace.
func (g *Globals) Call(ctx context.Context, name string, args ...object.Object) (object.Object, error) {
	proc, err := evaluator.NewTopLevel(g).Lookup(name)
	if err != nil {
		return nil, err
	}
	v, _, err := evaluator.ApplyProcedure(ctx, proc, args, evaluator.Overlays{})
	return v, err
}
