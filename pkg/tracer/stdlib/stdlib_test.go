package stdlib_test

import (
	"context"
	stderrors "errors"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/reader"
	"github.com/sambeau/tracer/pkg/tracer/stdlib"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

func i(v int64) object.Object   { return &object.Integer{Value: v} }
func f(v float64) object.Object { return &object.Float{Value: v} }
func s(v string) object.Object  { return &object.String{Value: v} }

// fixedSource returns the same uniform draw every time.
type fixedSource struct{ u float64 }

func (s fixedSource) Float64() float64     { return s.u }
func (s fixedSource) NormFloat64() float64 { return s.u }

func run(t *testing.T, src string, ov evaluator.Overlays) (object.Object, float64) {
	t.Helper()
	prog, err := reader.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	ctx := stdlib.WithRand(context.Background(), stdlib.NewRand(7, 0))
	v, score, err := evaluator.EvalExpression(ctx, prog, stdlib.Environment(), ov)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v, score
}

func TestBuiltins(t *testing.T) {
	g := stdlib.New()
	ctx := context.Background()

	tests := []struct {
		name string
		fn   string
		args []object.Object
		want string
	}{
		{"sum of integers", "+", []object.Object{i(1), i(2), i(3)}, "6"},
		{"empty sum", "+", nil, "0"},
		{"mixed sum", "+", []object.Object{i(1), f(0.5)}, "1.5"},
		{"negation", "-", []object.Object{i(4)}, "-4"},
		{"difference", "-", []object.Object{i(10), i(3), i(2)}, "5"},
		{"product", "*", []object.Object{i(2), i(3), i(4)}, "24"},
		{"exact division", "/", []object.Object{i(12), i(3)}, "4"},
		{"inexact division", "/", []object.Object{i(7), i(2)}, "3.5"},
		{"float division", "/", []object.Object{f(1), i(4)}, "0.25"},
		{"equal numbers", "=", []object.Object{i(2), f(2)}, "true"},
		{"unequal strings", "=", []object.Object{s("a"), s("b")}, "false"},
		{"chained less", "<", []object.Object{i(1), i(2), i(3)}, "true"},
		{"chained less fails", "<", []object.Object{i(1), i(3), i(2)}, "false"},
		{"greater or equal", ">=", []object.Object{i(3), i(3), i(1)}, "true"},
		{"not nil", "not", []object.Object{object.NULL}, "true"},
		{"sqrt", "sqrt", []object.Object{i(9)}, "3.0"},
		{"exp of zero", "exp", []object.Object{i(0)}, "1.0"},
		{"tuple", "tuple", []object.Object{i(1), s("x")}, `[1 "x"]`},
		{"list", "list", []object.Object{i(1), i(2)}, "(list 1 2)"},
		{"first", "first", []object.Object{&object.List{Elements: []object.Object{i(5), i(6)}}}, "5"},
		{"rest", "rest", []object.Object{&object.Tuple{Elements: []object.Object{i(5), i(6)}}}, "(list 6)"},
		{"rest of empty", "rest", []object.Object{&object.List{}}, "(list)"},
		{"length", "length", []object.Object{&object.Tuple{Elements: []object.Object{i(5), i(6)}}}, "2"},
		{"nth", "nth", []object.Object{&object.List{Elements: []object.Object{i(5), i(6)}}, i(1)}, "6"},
		{"append keeps tuple", "append", []object.Object{&object.Tuple{Elements: []object.Object{i(1)}}, &object.List{Elements: []object.Object{i(2)}}}, "[1 2]"},
		{"append lists", "append", []object.Object{&object.List{Elements: []object.Object{i(1)}}, &object.Tuple{Elements: []object.Object{i(2)}}}, "(list 1 2)"},
		{"range to", "range", []object.Object{i(3)}, "(list 0 1 2)"},
		{"range from to", "range", []object.Object{i(2), i(4)}, "(list 2 3)"},
		{"addr", "addr", []object.Object{s("x"), i(0)}, `(list "x" 0)`},
		{"empty addr", "addr", nil, "(list)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Call(ctx, tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Inspect() != tt.want {
				t.Errorf("(%s ...) = %s, want %s", tt.fn, got.Inspect(), tt.want)
			}
		})
	}
}

func TestBuiltinErrors(t *testing.T) {
	g := stdlib.New()
	ctx := context.Background()

	tests := []struct {
		name    string
		fn      string
		args    []object.Object
		wantErr error
	}{
		{"division by zero", "/", []object.Object{i(1), i(0)}, errors.ErrDomain},
		{"float division by zero", "/", []object.Object{f(1), f(0)}, errors.ErrDomain},
		{"add a string", "+", []object.Object{i(1), s("x")}, errors.ErrType},
		{"sqrt of negative", "sqrt", []object.Object{i(-1)}, errors.ErrDomain},
		{"first of empty", "first", []object.Object{&object.List{}}, errors.ErrDomain},
		{"first of scalar", "first", []object.Object{i(1)}, errors.ErrType},
		{"nth out of range", "nth", []object.Object{&object.List{}, i(0)}, errors.ErrDomain},
		{"not arity", "not", nil, errors.ErrType},
		{"bad address key", "addr", []object.Object{f(1.5)}, errors.ErrInvalidKey},
		{"negative address key", "addr", []object.Object{i(-1)}, errors.ErrInvalidKey},
		{"odd trace", "trace", []object.Object{s("a")}, errors.ErrType},
		{"flip probability", "flip", []object.Object{f(1.5)}, errors.ErrDomain},
		{"empty uniform", "uniform", []object.Object{i(1), i(1)}, errors.ErrDomain},
		{"zero sigma", "gaussian", []object.Object{i(0), i(0)}, errors.ErrDomain},
		{"categorical zero weights", "categorical", []object.Object{&object.List{Elements: []object.Object{i(0), i(0)}}}, errors.ErrDomain},
		{"categorical negative weight", "categorical", []object.Object{&object.List{Elements: []object.Object{i(1), i(-1)}}}, errors.ErrDomain},
		{"trace value of a foreign type", "trace-get", []object.Object{
			&object.Trace{Trie: trie.Empty().WithAt(trie.Addr("a"), struct{ N int }{1})}, s("a"),
		}, errors.ErrType},
		{"undefined", "no-such-thing", nil, errors.ErrUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Call(ctx, tt.fn, tt.args...)
			if !stderrors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTraces(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(trace-get (trace (addr "a" 0) 5) (addr "a" 0))`, "5"},
		{`(trace-get (trace "a" 5) "a")`, "5"},
		{`(trace-has? (trace (addr "a" 0) 5) (addr "a"))`, "false"},
		{`(trace-has? (trace (addr "a" 0) 5) (addr "a" 0))`, "true"},
		{`(trace-get (trace-set (trace "a" 1) "b" 2) "b")`, "2"},
		{`(block (define t (trace "a" 1)) (trace-set t "a" 2) (trace-get t "a"))`, "1"},
		{`(= (trace "a" 1 "b" 2) (trace "b" 2 "a" 1))`, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, _ := run(t, tt.src, evaluator.Overlays{})
			if v.Inspect() != tt.want {
				t.Errorf("got %s, want %s", v.Inspect(), tt.want)
			}
		})
	}
}

func TestAddrWithHandle(t *testing.T) {
	v, _ := run(t, `(addr (this) "x" 0)`, evaluator.Overlays{})
	q, ok := v.(*evaluator.QuasiAddress)
	if !ok {
		t.Fatalf("expected a quasi-address, got %s", v.Inspect())
	}
	if got := q.Suffix.String(); got != "x/0" {
		t.Errorf("suffix = %s, want x/0", got)
	}
}

func TestPrimitiveOverlays(t *testing.T) {
	g := stdlib.New()
	flip, _ := g.ResolveGlobal("flip")
	args := []object.Object{f(0.25)}

	tests := []struct {
		name      string
		intervene trie.Trie
		target    trie.Trie
		want      object.Object
		wantScore float64
	}{
		{"target true", nil, trie.Leaf(object.TRUE), object.TRUE, math.Log(0.25)},
		{"target false", nil, trie.Leaf(object.FALSE), object.FALSE, math.Log(0.75)},
		{"intervention", trie.Leaf(object.FALSE), nil, object.FALSE, 0},
		{"agreeing overlays", trie.Leaf(object.TRUE), trie.Leaf(object.TRUE), object.TRUE, math.Log(0.25)},
		{"disagreeing overlays", trie.Leaf(object.FALSE), trie.Leaf(object.TRUE), object.TRUE, math.Inf(-1)},
		{"native target", nil, trie.Leaf(true), object.TRUE, math.Log(0.25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := trie.NewMutable()
			ov := evaluator.Overlays{Intervene: tt.intervene, Target: tt.target, Output: out}
			v, score, err := evaluator.ApplyProcedure(context.Background(), flip, args, ov)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !object.Equal(v, tt.want) {
				t.Errorf("value = %s, want %s", v.Inspect(), tt.want.Inspect())
			}
			if score != tt.wantScore && !(math.IsInf(score, -1) && math.IsInf(tt.wantScore, -1)) {
				t.Errorf("score = %g, want %g", score, tt.wantScore)
			}
			if got, ok := out.GetAt(trie.Address{}); !ok || !object.EqualValues(got, v) {
				t.Errorf("output root = %v, want %s", got, v.Inspect())
			}
		})
	}
}

func TestPrimitiveLogDensity(t *testing.T) {
	g := stdlib.New()

	tests := []struct {
		name   string
		proc   string
		args   []object.Object
		target object.Object
		want   float64
	}{
		{"standard normal at zero", "gaussian", nil, f(0), -0.5 * math.Log(2*math.Pi)},
		{"normal one sigma out", "gaussian", []object.Object{i(1), i(2)}, f(3), -0.5 - math.Log(2) - 0.5*math.Log(2*math.Pi)},
		{"uniform inside", "uniform", []object.Object{i(0), i(4)}, f(1), -math.Log(4)},
		{"uniform outside", "uniform", []object.Object{i(0), i(4)}, f(4), math.Inf(-1)},
		{"categorical", "categorical", []object.Object{&object.List{Elements: []object.Object{i(1), i(3)}}}, i(1), math.Log(0.75)},
		{"categorical out of range", "categorical", []object.Object{&object.List{Elements: []object.Object{i(1), i(3)}}}, i(2), math.Inf(-1)},
		{"flip with a number", "flip", nil, i(1), math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, _ := g.ResolveGlobal(tt.proc)
			ov := evaluator.Overlays{Target: trie.Leaf(tt.target)}
			_, score, err := evaluator.ApplyProcedure(context.Background(), proc, tt.args, ov)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.IsInf(tt.want, -1) {
				if !math.IsInf(score, -1) {
					t.Errorf("score = %g, want -Inf", score)
				}
				return
			}
			if math.Abs(score-tt.want) > 1e-12 {
				t.Errorf("score = %g, want %g", score, tt.want)
			}
		})
	}
}

func TestCategoricalSample(t *testing.T) {
	g := stdlib.New()
	proc, _ := g.ResolveGlobal("categorical")
	ws := &object.Tuple{Elements: []object.Object{i(1), i(0), i(3)}}

	tests := []struct {
		u    float64
		want int64
	}{
		{0, 0},
		{0.2, 0},
		{0.25, 2},
		{0.5, 2},
		{0.999999, 2},
	}
	for _, tt := range tests {
		ctx := stdlib.WithRand(context.Background(), fixedSource{tt.u})
		v, score, err := evaluator.ApplyProcedure(ctx, proc, []object.Object{ws}, evaluator.Overlays{})
		if err != nil {
			t.Fatalf("u=%g: %v", tt.u, err)
		}
		if !object.Equal(v, i(tt.want)) {
			t.Errorf("u=%g: got %s, want %d", tt.u, v.Inspect(), tt.want)
		}
		if score != 0 {
			t.Errorf("u=%g: unconstrained sample scored %g", tt.u, score)
		}
	}
}

func TestSeededSamplesRepeat(t *testing.T) {
	g := stdlib.New()
	draw := func() []string {
		ctx := stdlib.WithRand(context.Background(), stdlib.NewRand(42, 3))
		var out []string
		for _, name := range []string{"flip", "uniform", "gaussian"} {
			proc, _ := g.ResolveGlobal(name)
			v, _, err := evaluator.ApplyProcedure(ctx, proc, nil, evaluator.Overlays{})
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, v.Inspect())
		}
		return out
	}
	if diff := cmp.Diff(draw(), draw()); diff != "" {
		t.Errorf("same seed gave different draws (-first +second):\n%s", diff)
	}
}

func TestMapAddresses(t *testing.T) {
	out := trie.NewMutable()
	v, _ := run(t, "(map (gen [x] (+ x (if (flip) 0 0))) [1 2 3])", evaluator.Overlays{Output: out})
	if v.Inspect() != "[1 2 3]" {
		t.Errorf("map over a tuple = %s, want [1 2 3]", v.Inspect())
	}
	for n := range 3 {
		addr := trie.Addr(0, "map", n, 2, "predicate", "flip")
		if !out.HasAt(addr) {
			t.Errorf("no flip recorded at %s:\n%s", addr, trie.Dump(out, object.Inspect))
		}
	}
	if got, ok := out.GetAt(trie.Addr(0, "map")); !ok || !object.EqualValues(got, v) {
		t.Errorf("map result not recorded at 0/map")
	}

	v, _ = run(t, "(map (gen [x] (* x x)) (list 1 2))", evaluator.Overlays{})
	if v.Inspect() != "(list 1 4)" {
		t.Errorf("map over a list = %s, want (list 1 4)", v.Inspect())
	}
}

func TestMapTargets(t *testing.T) {
	obs := trie.Empty().
		WithAt(trie.Addr(0, "map", 0, "flip"), object.TRUE).
		WithAt(trie.Addr(0, "map", 1, "flip"), object.FALSE)
	v, score := run(t, "(map (gen [p] (flip p)) [0.5 0.25])", evaluator.Overlays{Target: obs})
	if v.Inspect() != "[true false]" {
		t.Errorf("got %s, want [true false]", v.Inspect())
	}
	want := math.Log(0.5) + math.Log(0.75)
	if math.Abs(score-want) > 1e-12 {
		t.Errorf("score = %g, want %g", score, want)
	}
}

func TestApply(t *testing.T) {
	out := trie.NewMutable()
	v, _ := run(t, "(apply (gen [a b] (flip 0.5)) [1 2])", evaluator.Overlays{Output: out})
	if !out.HasAt(trie.Addr(0, "apply", "flip")) {
		t.Errorf("apply should trace the body at its own address:\n%s", trie.Dump(out, object.Inspect))
	}
	if got, _ := out.GetAt(trie.Addr(0, "apply")); !object.EqualValues(got, v) {
		t.Errorf("apply result not recorded")
	}

	v, _ = run(t, "(apply + (list 1 2 3))", evaluator.Overlays{})
	if v.Inspect() != "6" {
		t.Errorf("(apply + ...) = %s, want 6", v.Inspect())
	}
}

func TestNamesAndDescribe(t *testing.T) {
	g := stdlib.New()
	names := g.Names()
	if !slices.IsSorted(names) {
		t.Errorf("Names() not sorted: %v", names)
	}
	for _, name := range []string{"+", "flip", "gaussian", "map", "trace-get"} {
		if !slices.Contains(names, name) {
			t.Errorf("Names() missing %s", name)
		}
		if _, ok := g.Describe(name); !ok {
			t.Errorf("Describe(%s) missing", name)
		}
	}

	meta, _ := g.Describe("flip")
	want := stdlib.ExportMeta{Kind: "special", Arity: "0-1", Description: "True with probability p (default 0.5)"}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("Describe(flip) mismatch (-want +got):\n%s", diff)
	}

	g.Define("answer", i(42))
	v, ok := g.ResolveGlobal("answer")
	if !ok || v.Inspect() != "42" {
		t.Errorf("Define did not bind answer")
	}
}
