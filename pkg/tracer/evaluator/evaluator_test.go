package evaluator_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"testing"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/logging"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/reader"
	"github.com/sambeau/tracer/pkg/tracer/stdlib"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

func testContext(seed uint64) context.Context {
	return stdlib.WithRand(context.Background(), stdlib.NewRand(seed, 0))
}

func eval(t *testing.T, ctx context.Context, src string, ov evaluator.Overlays) (object.Object, float64) {
	t.Helper()
	prog, err := reader.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	v, score, err := evaluator.EvalExpression(ctx, prog, stdlib.Environment(), ov)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v, score
}

func evalErr(t *testing.T, src string) error {
	t.Helper()
	prog, err := reader.Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	_, _, err = evaluator.EvalExpression(testContext(1), prog, stdlib.Environment(), evaluator.Overlays{})
	if err == nil {
		t.Fatalf("eval %q: expected error", src)
	}
	return err
}

func integer(v int64) object.Object { return &object.Integer{Value: v} }

func at(parts ...any) trie.Address { return trie.Addr(parts...) }

func outputAt(t *testing.T, out *trie.Mutable, addr trie.Address) object.Object {
	t.Helper()
	v, ok := out.GetAt(addr)
	if !ok {
		t.Fatalf("output has no value at %s:\n%s", addr, trie.Dump(out, object.Inspect))
	}
	return v.(object.Object)
}

// sameRun compares two outputs, treating context handles as equal since
// every run captures its own.
func sameRun(x, y any) bool {
	if isHandle(x) && isHandle(y) {
		return true
	}
	return object.EqualValues(x, y)
}

func isHandle(v any) bool {
	switch v.(type) {
	case *evaluator.ContextHandle, *evaluator.QuasiAddress:
		return true
	}
	return false
}

func TestIfScenario(t *testing.T) {
	expr := ast.If(ast.Bool(true), ast.Int(1), ast.Int(2))
	v, score, err := evaluator.EvalExpression(context.Background(), expr, stdlib.Environment(), evaluator.Overlays{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, integer(1)) || score != 0 {
		t.Errorf("got (%s, %g), want (1, 0)", v.Inspect(), score)
	}
}

func TestBlockScenario(t *testing.T) {
	expr, err := reader.ParseExpression("(block (define x 3) (define y 4) (+ x y))")
	if err != nil {
		t.Fatal(err)
	}

	v, score, err := evaluator.EvalExpression(context.Background(), expr, stdlib.Environment(), evaluator.Overlays{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, integer(7)) || score != 0 {
		t.Errorf("got (%s, %g), want (7, 0)", v.Inspect(), score)
	}

	out := trie.NewMutable()
	if _, _, err := evaluator.EvalExpression(context.Background(), expr, stdlib.Environment(), evaluator.Overlays{Output: out}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		addr trie.Address
		want int64
	}{
		{at(0, "x"), 3},
		{at(1, "y"), 4},
		{at(2, "+"), 7},
		{at(), 7},
	}
	for _, tt := range tests {
		if got := outputAt(t, out, tt.addr); !object.Equal(got, integer(tt.want)) {
			t.Errorf("output at %s = %s, want %d", tt.addr, got.Inspect(), tt.want)
		}
	}
}

func TestTargetedCallScenario(t *testing.T) {
	proc, _ := eval(t, context.Background(), "(gen [x] x)", evaluator.Overlays{})

	v, score, err := evaluator.ApplyProcedure(context.Background(), proc, []object.Object{integer(5)},
		evaluator.Overlays{Target: trie.Leaf(integer(5))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !object.Equal(v, integer(5)) || score != 0 {
		t.Errorf("got (%s, %g), want (5, 0)", v.Inspect(), score)
	}
}

func TestOutputFidelity(t *testing.T) {
	src := `
(define coin (gen [p] (flip p)))
(define x (coin 0.5))
(if x (+ 1 2) (* 3 4))`

	out := trie.NewMutable()
	v, _ := eval(t, testContext(3), src, evaluator.Overlays{Output: out})

	if got := outputAt(t, out, at()); !object.Equal(got, v) {
		t.Errorf("root output %s != value %s", got.Inspect(), v.Inspect())
	}
	x := outputAt(t, out, at(1, "x"))
	for _, addr := range []trie.Address{at(1, "x", "coin"), at(1, "x", "coin", "flip"), at(2, "predicate")} {
		if got := outputAt(t, out, addr); !object.Equal(got, x) {
			t.Errorf("output at %s = %s, want %s", addr, got.Inspect(), x.Inspect())
		}
	}
	branch := "else"
	if object.IsTruthy(x) {
		branch = "then"
	}
	if got := outputAt(t, out, at(2, branch)); !object.Equal(got, v) {
		t.Errorf("branch output %s != value %s", got.Inspect(), v.Inspect())
	}
	if got := outputAt(t, out, at(1, "x", 1)); !object.Equal(got, &object.Float{Value: 0.5}) {
		t.Errorf("literal output = %s", got.Inspect())
	}
}

func TestReplayDeterminism(t *testing.T) {
	src := `
(define noisy (gen [mu] (gaussian mu 1)))
(define here (gen [] (with-address (addr (this) "inner") (flip 0.5))))
(define loop (gen [n acc]
  (if (= n 0) acc (loop (- n 1) (+ acc (noisy n))))))
[(loop 5 0) (map (gen [p] (flip p)) [0.2 0.5 0.8]) (here)]`

	obs := trie.Empty().WithAt(at(3, 2, "map", 1, "flip"), object.TRUE)

	first := trie.NewMutable()
	v1, s1 := eval(t, testContext(11), src, evaluator.Overlays{Target: obs, Output: first})

	second := trie.NewMutable()
	v2, s2 := eval(t, testContext(99), src, evaluator.Overlays{Intervene: first, Target: obs, Output: second})

	if !object.Equal(v1, v2) {
		t.Errorf("replayed value %s != %s", v2.Inspect(), v1.Inspect())
	}
	if s1 != s2 {
		t.Errorf("replayed score %g != %g", s2, s1)
	}
	if want := math.Log(0.5); math.Abs(s1-want) > 1e-12 {
		t.Errorf("score = %g, want log 0.5", s1)
	}
	if !trie.Equal(first, second, sameRun) {
		t.Errorf("outputs differ:\nfirst:\n%s\nsecond:\n%s",
			trie.Dump(first, object.Inspect), trie.Dump(second, object.Inspect))
	}
}

func TestScoreAdditivity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		obs  *trie.Persistent
		want float64
	}{
		{
			name: "block",
			src:  "(flip 0.3) (flip 0.8)",
			obs: trie.Empty().
				WithAt(at(0, "flip"), object.TRUE).
				WithAt(at(1, "flip"), object.FALSE),
			want: math.Log(0.3) + math.Log(0.2),
		},
		{
			name: "operands and call",
			src:  "((gen [a b] (flip 0.6)) (flip 0.3) (flip 0.9))",
			obs: trie.Empty().
				WithAt(at(0, 1, "flip"), object.TRUE).
				WithAt(at(0, 2, "flip"), object.TRUE).
				WithAt(at(0, "call", "flip"), object.FALSE),
			want: math.Log(0.3) + math.Log(0.9) + math.Log(0.4),
		},
		{
			name: "map elements",
			src:  "(map (gen [p] (flip p)) (list 0.1 0.7))",
			obs: trie.Empty().
				WithAt(at(0, "map", 0, "flip"), object.TRUE).
				WithAt(at(0, "map", 1, "flip"), object.TRUE),
			want: math.Log(0.1) + math.Log(0.7),
		},
		{
			name: "with-address",
			src:  `((gen [] (with-address [(this) "here"] (gaussian 0 1))))`,
			obs:  trie.Empty().WithAt(at(0, "call", "here", "gaussian"), &object.Float{Value: 0}),
			want: -0.5 * math.Log(2*math.Pi),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, score := eval(t, testContext(5), tt.src, evaluator.Overlays{Target: tt.obs})
			if math.Abs(score-tt.want) > 1e-12 {
				t.Errorf("score = %g, want %g", score, tt.want)
			}
		})
	}
}

func TestMismatchPenalty(t *testing.T) {
	plus, err := stdlib.Environment().Lookup("+")
	if err != nil {
		t.Fatal(err)
	}
	inputs := []object.Object{integer(1), integer(2)}

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	v, score, err := evaluator.ApplyProcedure(ctx, plus, inputs, evaluator.Overlays{
		Intervene: trie.Leaf(integer(4)),
		Target:    trie.Leaf(integer(5)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(score, -1) || !object.Equal(v, integer(5)) {
		t.Errorf("disagreeing overlays: got (%s, %g), want (5, -inf)", v.Inspect(), score)
	}
	if !strings.Contains(buf.String(), "intervention and target disagree") {
		t.Errorf("mismatch was not logged: %q", buf.String())
	}

	v, score, err = evaluator.ApplyProcedure(ctx, plus, inputs, evaluator.Overlays{
		Intervene: trie.Leaf(integer(5)),
		Target:    trie.Leaf(integer(5)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if score != 0 || !object.Equal(v, integer(5)) {
		t.Errorf("agreeing overlays: got (%s, %g), want (5, 0)", v.Inspect(), score)
	}
}

func TestMismatchPenaltyOnPrimitive(t *testing.T) {
	flip, err := stdlib.Environment().Lookup("flip")
	if err != nil {
		t.Fatal(err)
	}
	p := []object.Object{&object.Float{Value: 0.25}}

	_, score, err := evaluator.ApplyProcedure(testContext(1), flip, p, evaluator.Overlays{
		Intervene: trie.Leaf(object.FALSE),
		Target:    trie.Leaf(object.TRUE),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(score, -1) {
		t.Errorf("score = %g, want -inf", score)
	}

	_, score, err = evaluator.ApplyProcedure(testContext(1), flip, p, evaluator.Overlays{
		Intervene: trie.Leaf(object.TRUE),
		Target:    trie.Leaf(object.TRUE),
	})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-math.Log(0.25)) > 1e-12 {
		t.Errorf("score = %g, want log 0.25", score)
	}
}

func TestInterventionAtAnyNode(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		addr   trie.Address
		forced int64
		want   int64
	}{
		{"literal", "(+ 1 2)", at(0, 2), 10, 11},
		{"variable read", "(define x 1) x", at(1), 5, 5},
		{"call result", "(+ 1 (* 2 3))", at(0, 2, "*"), 5, 6},
		{"definition", "(define x 1) (+ x 0)", at(0, "x"), 9, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := trie.Empty().WithAt(tt.addr, integer(tt.forced))
			v, _ := eval(t, context.Background(), tt.src, evaluator.Overlays{Intervene: iv})
			if !object.Equal(v, integer(tt.want)) {
				t.Errorf("got %s, want %d", v.Inspect(), tt.want)
			}
		})
	}
}

func TestInterventionStillCallsProcedure(t *testing.T) {
	calls := 0
	counted := &evaluator.Builtin{Name: "counted", Fn: func(args ...object.Object) (object.Object, error) {
		calls++
		return integer(1), nil
	}}

	v, _, err := evaluator.ApplyProcedure(context.Background(), counted, nil, evaluator.Overlays{Intervene: trie.Leaf(integer(2))})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || !object.Equal(v, integer(2)) {
		t.Errorf("calls = %d, value = %s; want 1 call and value 2", calls, v.Inspect())
	}
}

func TestRestPatternThroughGen(t *testing.T) {
	v, _ := eval(t, context.Background(), "((gen [& xs] xs) 1 2 3)", evaluator.Overlays{})
	if v.Inspect() != "(list 1 2 3)" {
		t.Errorf("got %s", v.Inspect())
	}
	v, _ = eval(t, context.Background(), "((gen args args) 1 2)", evaluator.Overlays{})
	if v.Inspect() != "[1 2]" {
		t.Errorf("variable pattern should bind the input tuple, got %s", v.Inspect())
	}
}

func TestEmptyBlock(t *testing.T) {
	v, score := eval(t, context.Background(), "(block)", evaluator.Overlays{})
	if v != object.NULL || score != 0 {
		t.Errorf("got (%s, %g), want (nil, 0)", v.Inspect(), score)
	}
}

const countDown = `
(define count-down (gen [n] (if (= n 0) "done" (count-down (- n 1)))))
(count-down %d)`

func TestDeepRecursion(t *testing.T) {
	tests := []struct {
		name string
		ov   func() evaluator.Overlays
	}{
		{"no overlays", func() evaluator.Overlays { return evaluator.Overlays{} }},
		{"recording output", func() evaluator.Overlays {
			return evaluator.Overlays{Output: trie.NewMutable()}
		}},
		{"recording with an empty target", func() evaluator.Overlays {
			return evaluator.Overlays{Target: trie.Empty(), Output: trie.NewMutable()}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov := tt.ov()
			v, score := eval(t, context.Background(), fmt.Sprintf(countDown, 20000), ov)
			if v.Inspect() != `"done"` {
				t.Errorf("got %s", v.Inspect())
			}
			if score != 0 {
				t.Errorf("score = %v, want 0", score)
			}
			if ov.Output == nil {
				return
			}
			got, ok := ov.Output.GetAt(trie.Addr(1, "count-down"))
			if !ok || object.Inspect(got) != `"done"` {
				t.Errorf("recorded %v at 1/count-down", got)
			}
		})
	}
}

// Memory used by a self-recursive loop grows linearly with its depth.
func TestRecursionMemoryIsLinear(t *testing.T) {
	allocated := func(n int, ov evaluator.Overlays) uint64 {
		prog, err := reader.Parse(fmt.Sprintf(countDown, n))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		var before, after runtime.MemStats
		runtime.GC()
		runtime.ReadMemStats(&before)
		if _, _, err := evaluator.EvalExpression(context.Background(), prog, stdlib.Environment(), ov); err != nil {
			t.Fatalf("eval: %v", err)
		}
		runtime.ReadMemStats(&after)
		return after.TotalAlloc - before.TotalAlloc
	}

	tests := []struct {
		name string
		ov   func() evaluator.Overlays
	}{
		{"no overlays", func() evaluator.Overlays { return evaluator.Overlays{} }},
		{"recording output", func() evaluator.Overlays {
			return evaluator.Overlays{Output: trie.NewMutable()}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			small := allocated(2000, tt.ov())
			large := allocated(8000, tt.ov())
			// Four times the depth; a quadratic evaluator allocates sixteen times as much
			if ratio := float64(large) / float64(small); ratio > 6 {
				t.Errorf("depth 2000 allocated %d bytes, depth 8000 allocated %d (ratio %.1f)", small, large, ratio)
			}
		})
	}
}

func TestDeepErrorAddress(t *testing.T) {
	src := `
(define count-down (gen [n] (if (= n 0) (nth (list) 0) (count-down (- n 1)))))
(count-down 3)`
	err := evalErr(t, src)
	te, ok := errors.As(err)
	if !ok {
		t.Fatalf("expected a TracerError, got %v", err)
	}
	if n := strings.Count(te.Address, "count-down"); n != 4 {
		t.Errorf("address %q should pass through 4 calls", te.Address)
	}
	if !strings.HasPrefix(te.Address, "1/count-down/") {
		t.Errorf("address %q should start at the outer call", te.Address)
	}
}

func TestEvaluationErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    error
		address string
	}{
		{"not a procedure", "(1 2)", errors.ErrNotAProcedure, "0"},
		{"undefined", "(foo 1)", errors.ErrUndefined, "0/0"},
		{"arity", "((gen [a b] a) 1)", errors.ErrTooFewInputs, "0"},
		{"bad quasi-address", "(with-address 3 1)", errors.ErrInvalidKey, "0"},
		{"bad key", `(with-address (addr (this) "") 1)`, errors.ErrInvalidKey, "0/tag"},
		{"inner error keeps its address", "(define f (gen [] (nth (list) 0))) (f)", errors.ErrDomain, "1/f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evalErr(t, tt.src)
			if !stderrors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			te, _ := errors.As(err)
			if te.Address != tt.address {
				t.Errorf("address = %q, want %q", te.Address, tt.address)
			}
		})
	}
}

func TestUnknownExpressionKind(t *testing.T) {
	_, _, err := evaluator.EvalExpression(context.Background(), trie.Leaf("loop"), stdlib.Environment(), evaluator.Overlays{})
	if !stderrors.Is(err, errors.ErrUnknownExpressionKind) {
		t.Fatalf("expected ErrUnknownExpressionKind, got %v", err)
	}
}

func TestDefinitionAtTopLevelFails(t *testing.T) {
	expr := ast.Define(ast.Variable("x"), ast.Int(1))
	_, _, err := evaluator.EvalExpression(context.Background(), expr, stdlib.Environment(), evaluator.Overlays{})
	if !stderrors.Is(err, errors.ErrBadEnvironment) {
		t.Fatalf("expected ErrBadEnvironment, got %v", err)
	}
}

func TestInvalidCallKey(t *testing.T) {
	env := evaluator.Extend(stdlib.Environment())
	env.Set("", &evaluator.Builtin{Name: "anon", Fn: func(args ...object.Object) (object.Object, error) {
		return object.NULL, nil
	}})
	_, _, err := evaluator.EvalExpression(context.Background(), ast.Call(""), env, evaluator.Overlays{})
	if !stderrors.Is(err, errors.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestInfer(t *testing.T) {
	model, _ := eval(t, context.Background(), "(gen [p] (block (define a (flip p)) (define b (flip p)) (list a b)))", evaluator.Overlays{})
	obs := trie.Empty().WithAt(at(0, "a", "flip"), object.TRUE)

	v, out, score, err := evaluator.Infer(testContext(2), model, []object.Object{&object.Float{Value: 0.4}}, obs)
	if err != nil {
		t.Fatal(err)
	}
	items, _ := object.Items(v)
	if len(items) != 2 || items[0] != object.TRUE {
		t.Errorf("value = %s, want first element true", v.Inspect())
	}
	if math.Abs(score-math.Log(0.4)) > 1e-12 {
		t.Errorf("score = %g, want log 0.4", score)
	}
	if got := outputAt(t, out, at()); !object.Equal(got, v) {
		t.Errorf("output root %s != value %s", got.Inspect(), v.Inspect())
	}
	if !out.HasAt(at(1, "b", "flip")) {
		t.Error("unobserved choice should be recorded")
	}
}

func TestMakeInferProcedure(t *testing.T) {
	seen := 0
	p := evaluator.MakeInferProcedure("const", func(ctx context.Context, inputs []object.Object, ov evaluator.Overlays) (object.Object, float64, error) {
		seen = len(inputs)
		if !ov.Empty() {
			t.Error("untraced call should have no overlays")
		}
		return integer(42), -1, nil
	})

	v, err := p.Call(context.Background(), integer(1), integer(2))
	if err != nil {
		t.Fatal(err)
	}
	if !object.Equal(v, integer(42)) || seen != 2 {
		t.Errorf("Call() = %s with %d inputs", v.Inspect(), seen)
	}

	_, score, err := evaluator.ApplyProcedure(context.Background(), p, nil, evaluator.Overlays{})
	if err != nil || score != -1 {
		t.Errorf("ApplyProcedure should return the method's own score, got %g (%v)", score, err)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model, _ := eval(t, context.Background(), "(gen [] 1)", evaluator.Overlays{})
	if _, _, err := evaluator.ApplyProcedure(ctx, model, nil, evaluator.Overlays{}); !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCaptureAndResolve(t *testing.T) {
	obs := trie.Empty().WithAt(at("x", 0), true)
	out := trie.NewMutable()
	h := evaluator.CaptureTagAddress(evaluator.Overlays{Target: obs, Output: out})
	x := &object.String{Value: "x"}

	q, err := evaluator.NewQuasiAddress(h, x)
	if err != nil {
		t.Fatalf("NewQuasiAddress failed: %v", err)
	}

	forms := []object.Object{
		q,
		&object.Tuple{Elements: []object.Object{h, x}},
		&object.Tuple{Elements: []object.Object{h, &object.List{Elements: []object.Object{x}}}},
	}
	for _, form := range forms {
		ov, err := evaluator.Resolve(form)
		if err != nil {
			t.Fatalf("Resolve(%s) failed: %v", form.Inspect(), err)
		}
		if ov.Intervene != nil {
			t.Errorf("Resolve(%s): no intervention was captured", form.Inspect())
		}
		if ov.Target == nil || !ov.Target.HasAt(at(0)) {
			t.Errorf("Resolve(%s): target should be rooted at x", form.Inspect())
		}
		ov.Record(integer(1))
		if !out.HasAt(at("x")) {
			t.Errorf("Resolve(%s): output should be rooted at x", form.Inspect())
		}
	}

	if _, err := evaluator.Resolve(integer(3)); !stderrors.Is(err, errors.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := evaluator.NewQuasiAddress(h, &object.Float{Value: 1.5}); !stderrors.Is(err, errors.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey for a float key, got %v", err)
	}
}

func TestUnsupportedOverlayValue(t *testing.T) {
	type embedded struct{ N int }

	tests := []struct {
		name    string
		src     string
		ov      evaluator.Overlays
		address string
	}{
		{"intervention at a node", "(+ 1 2)",
			evaluator.Overlays{Intervene: trie.Empty().WithAt(at(0), embedded{1})}, "0"},
		{"target at a primitive", "(flip)",
			evaluator.Overlays{Target: trie.Empty().WithAt(at(0, "flip"), embedded{1})}, "0"},
		{"target at a procedure call", "((gen [] 1))",
			evaluator.Overlays{Target: trie.Empty().WithAt(at(0, "call"), embedded{1})}, "0"},
		{"intervention at a procedure call", "((gen [] 1))",
			evaluator.Overlays{Intervene: trie.Empty().WithAt(at(0, "call"), embedded{1})}, "0/call"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := reader.Parse(tt.src)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, _, err = evaluator.EvalExpression(testContext(1), prog, stdlib.Environment(), tt.ov)
			if !stderrors.Is(err, errors.ErrType) {
				t.Fatalf("expected ErrType, got %v", err)
			}
			te, _ := errors.As(err)
			if te.Address != tt.address {
				t.Errorf("address = %q, want %q", te.Address, tt.address)
			}
			if !strings.Contains(te.Message, "embedded") {
				t.Errorf("message %q should name the Go type", te.Message)
			}
		})
	}
}
