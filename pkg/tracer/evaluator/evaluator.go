// Package evaluator runs expression tries under intervention, target and
// output overlays.
//
// Every sub-expression and every procedure call has an address. While
// walking, the evaluator forces the values named by the intervention trie,
// constrains the values named by the target trie (accumulating a log score
// for how well the program agreed), and writes what actually happened into
// the output trie at the same addresses. Running the same program again
// with the output as the intervention trie replays it exactly.
package evaluator

import (
	"context"
	"math"

	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/logging"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// ApplyProcedure calls proc on inputs with the overlays of its call
// address and returns the value and the log score.
//
// Special procedures handle their overlays themselves. For every other
// procedure the intervention at the root replaces the computed value, the
// target at the root replaces that, and the final value is recorded in the
// output. If an intervention and a target both apply and disagree, the
// score is negative infinity.
func ApplyProcedure(ctx context.Context, proc object.Object, inputs []object.Object, ov Overlays) (object.Object, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var (
		value object.Object
		score float64
		err   error
	)
	switch p := proc.(type) {
	case *InferProcedure:
		return p.Method(ctx, inputs, ov)
	case *Builtin:
		value, err = p.Fn(inputs...)
		if ov.Empty() && err == nil {
			if value == nil {
				value = object.NULL
			}
			return value, 0, nil
		}
	case *Function:
		value, score, err = applyNative(ctx, p, inputs, ov)
	default:
		return nil, 0, errors.New("CALL-0001", map[string]any{
			"Type":  typeOf(proc),
			"Value": object.Inspect(proc),
		})
	}
	if err != nil {
		return nil, 0, err
	}
	return Finish(ctx, value, score, ov)
}

// Finish applies the root intervention and target to a computed value and
// records the result. Special procedures that compute their value like an
// ordinary procedure call it before returning.
func Finish(ctx context.Context, value object.Object, score float64, ov Overlays) (object.Object, float64, error) {
	if value == nil {
		value = object.NULL
	}
	iv, intervened, err := ov.Intervention()
	if err != nil {
		return nil, 0, err
	}
	tv, targeted, err := ov.TargetValue()
	if err != nil {
		return nil, 0, err
	}
	if intervened && !isHandle(iv) {
		value = iv
		if targeted && !object.Equal(tv, iv) {
			score = Mismatch(ctx, iv, tv)
		}
	}
	if targeted {
		value = tv
	}
	ov.Record(value)
	return value, score, nil
}

// Mismatch logs an intervention that contradicts a target and returns the
// score such a run gets.
func Mismatch(ctx context.Context, intervened, target object.Object) float64 {
	logging.FromContext(ctx).Warn("intervention and target disagree",
		"address", AddressFromContext(ctx).String(),
		"intervened", intervened.Inspect(),
		"target", target.Inspect())
	return math.Inf(-1)
}

// ApplyProcedureAt calls proc with the overlays rooted at addr below ov.
func ApplyProcedureAt(ctx context.Context, proc object.Object, inputs []object.Object, ov Overlays, addr trie.Address) (object.Object, float64, error) {
	ctx = withBase(ctx, baseFromContext(ctx).child(addr))
	return ApplyProcedure(ctx, proc, inputs, ov.At(addr))
}

func applyNative(ctx context.Context, f *Function, inputs []object.Object, ov Overlays) (object.Object, float64, error) {
	frame := Extend(f.Env)
	args := &object.Tuple{Elements: inputs}
	if err := BindPattern(f.Pattern, args, frame); err != nil {
		return nil, 0, err
	}
	return EvalExpression(ctx, f.Body, frame, ov)
}

// Infer runs proc on inputs with observations as the target and a fresh
// output trie. It returns the value, the recorded output and the score.
// A nil observations trie means nothing is observed.
func Infer(ctx context.Context, proc object.Object, inputs []object.Object, observations trie.Trie) (object.Object, *trie.Mutable, float64, error) {
	output := trie.NewMutable()
	v, score, err := ApplyProcedure(ctx, proc, inputs, Overlays{Target: observations, Output: output})
	if err != nil {
		return nil, nil, 0, err
	}
	return v, output, score, nil
}

// Run is Infer with an intervention trie and no observations. Replaying a
// recorded output through Run reproduces the recorded run.
func Run(ctx context.Context, proc object.Object, inputs []object.Object, interventions trie.Trie) (object.Object, *trie.Mutable, error) {
	output := trie.NewMutable()
	v, _, err := ApplyProcedure(ctx, proc, inputs, Overlays{Intervene: interventions, Output: output})
	if err != nil {
		return nil, nil, err
	}
	return v, output, nil
}
