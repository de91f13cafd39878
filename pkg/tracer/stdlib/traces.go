package stdlib

import (
	"fmt"

	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

func registerTraces(g *Globals) {
	g.builtin("addr", "0+", "An address from keys, or a quasi-address when the first argument is (this)", addr)
	g.builtin("trace", "even", "A trace from address/value pairs", newTrace)
	g.builtin("trace-get", "2", "Value recorded at an address", traceGet)
	g.builtin("trace-has?", "2", "True if a value is recorded at an address", traceHas)
	g.builtin("trace-set", "3", "A copy of the trace with a value at an address", traceSet)
}

func addr(args ...object.Object) (object.Object, error) {
	if len(args) > 0 {
		if h, ok := args[0].(*evaluator.ContextHandle); ok {
			return evaluator.NewQuasiAddress(h, args[1:]...)
		}
	}
	a, err := address(&object.List{Elements: args})
	if err != nil {
		return nil, err
	}
	return object.AddressValue(a), nil
}

func address(obj object.Object) (trie.Address, error) {
	a, ok := object.AddressFrom(obj)
	if !ok {
		return nil, errors.New("KEY-0001", map[string]any{"Key": obj.Inspect()})
	}
	return a, nil
}

func newTrace(args ...object.Object) (object.Object, error) {
	if len(args)%2 != 0 {
		return nil, newArityError("trace", "an even number of", len(args))
	}
	t := trie.Empty()
	for i := 0; i < len(args); i += 2 {
		a, err := address(args[i])
		if err != nil {
			return nil, err
		}
		t = t.WithAt(a, args[i+1])
	}
	return &object.Trace{Trie: t}, nil
}

func traceGet(args ...object.Object) (object.Object, error) {
	if err := exactly("trace-get", args, 2); err != nil {
		return nil, err
	}
	t, err := traceArg("trace-get", args[0])
	if err != nil {
		return nil, err
	}
	a, err := address(args[1])
	if err != nil {
		return nil, err
	}
	if t.Trie != nil {
		if v, ok := t.Trie.GetAt(a); ok {
			obj, ok := object.FromNative(v)
			if !ok {
				return nil, errors.New("TYPE-0003", map[string]any{
					"Overlay": "trace value at " + a.String(),
					"Got":     fmt.Sprintf("%T", v),
				})
			}
			return obj, nil
		}
	}
	return nil, newDomainError("trace-get", "no value at "+a.String())
}

func traceHas(args ...object.Object) (object.Object, error) {
	if err := exactly("trace-has?", args, 2); err != nil {
		return nil, err
	}
	t, err := traceArg("trace-has?", args[0])
	if err != nil {
		return nil, err
	}
	a, err := address(args[1])
	if err != nil {
		return nil, err
	}
	return object.NativeBool(t.Trie != nil && t.Trie.HasAt(a)), nil
}

func traceSet(args ...object.Object) (object.Object, error) {
	if err := exactly("trace-set", args, 3); err != nil {
		return nil, err
	}
	t, err := traceArg("trace-set", args[0])
	if err != nil {
		return nil, err
	}
	a, err := address(args[1])
	if err != nil {
		return nil, err
	}
	base := trie.Empty()
	if t.Trie != nil {
		base = trie.ToPersistent(t.Trie)
	}
	return &object.Trace{Trie: base.WithAt(a, args[2])}, nil
}
