package evaluator

import (
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Environment resolves variable names.
type Environment interface {
	Lookup(name string) (object.Object, error)
}

// Resolver answers lookups that fall through every frame.
type Resolver interface {
	ResolveGlobal(name string) (object.Object, bool)
	Names() []string
}

// TopLevel is the root of every environment chain. It is read-only.
type TopLevel struct {
	resolver Resolver
}

// NewTopLevel creates a top-level environment backed by r. A nil resolver
// has no names.
func NewTopLevel(r Resolver) *TopLevel {
	return &TopLevel{resolver: r}
}

func (t *TopLevel) Lookup(name string) (object.Object, error) {
	if t.resolver != nil {
		if v, ok := t.resolver.ResolveGlobal(name); ok {
			return v, nil
		}
	}
	return nil, errors.NewUndefinedVariable(name, t.names())
}

func (t *TopLevel) names() []string {
	var names []string
	if t.resolver != nil {
		names = t.resolver.Names()
	}
	return append(names, errors.Keywords...)
}

// Frame is a mutable scope with a parent.
type Frame struct {
	store  *trie.Mutable
	parent Environment
}

// Extend creates an empty frame whose parent is env.
func Extend(env Environment) *Frame {
	return &Frame{store: trie.NewMutable(), parent: env}
}

// Parent returns the enclosing environment.
func (f *Frame) Parent() Environment { return f.parent }

// Lookup searches this frame, then its ancestors.
func (f *Frame) Lookup(name string) (object.Object, error) {
	k := trie.Name(name)
	var env Environment = f
	for {
		frame, ok := env.(*Frame)
		if !ok {
			break
		}
		if v, ok := frame.store.GetAt(trie.Address{k}); ok {
			return v.(object.Object), nil
		}
		env = frame.parent
	}

	if env != nil {
		v, err := env.Lookup(name)
		if err == nil {
			return v, nil
		}
		if !errors.IsClass(err, errors.ClassUndefined) {
			return nil, err
		}
	}
	return nil, errors.NewUndefinedVariable(name, VisibleNames(f))
}

// Set binds name in this frame, shadowing any outer binding.
func (f *Frame) Set(name string, v object.Object) {
	f.store.SetAt(trie.Address{trie.Name(name)}, v)
}

// Names returns the names bound directly in this frame, in binding order.
func (f *Frame) Names() []string {
	keys := f.store.Keys()
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, k.Name())
	}
	return names
}

// Get returns a binding of this frame only.
func (f *Frame) Get(name string) (object.Object, bool) {
	v, ok := f.store.GetAt(trie.Address{trie.Name(name)})
	if !ok {
		return nil, false
	}
	return v.(object.Object), true
}

// Bind adds name to env. Binding into anything but a Frame fails.
func Bind(env Environment, name string, v object.Object) error {
	f, ok := env.(*Frame)
	if !ok || f == nil {
		return errors.New("ENV-0001", map[string]any{"Name": name})
	}
	f.Set(name, v)
	return nil
}

// VisibleNames lists every name reachable from env, innermost first,
// followed by the top-level names and keywords.
func VisibleNames(env Environment) []string {
	var names []string
	for env != nil {
		switch e := env.(type) {
		case *Frame:
			names = append(names, e.Names()...)
			env = e.parent
		case *TopLevel:
			names = append(names, e.names()...)
			env = nil
		default:
			env = nil
		}
	}
	return names
}
