package stdlib

import (
	"context"

	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

func registerHigherOrder(g *Globals) {
	g.special("apply", "2", "Call a procedure on the elements of a sequence", applyMethod)
	g.special("map", "2", "Call a procedure on each element; element i is traced at index i", mapMethod)
}

// applyMethod calls the procedure at apply's own address, so its trace has
// the same shape as a direct call.
func applyMethod(ctx context.Context, inputs []object.Object, ov evaluator.Overlays) (object.Object, float64, error) {
	if err := exactly("apply", inputs, 2); err != nil {
		return nil, 0, err
	}
	args, err := sequence("apply", inputs[1])
	if err != nil {
		return nil, 0, err
	}
	return evaluator.ApplyProcedure(ctx, inputs[0], args, ov)
}

func mapMethod(ctx context.Context, inputs []object.Object, ov evaluator.Overlays) (object.Object, float64, error) {
	if err := exactly("map", inputs, 2); err != nil {
		return nil, 0, err
	}
	proc := inputs[0]
	items, err := sequence("map", inputs[1])
	if err != nil {
		return nil, 0, err
	}

	results := make([]object.Object, len(items))
	var score float64
	for i, item := range items {
		v, s, err := evaluator.ApplyProcedureAt(ctx, proc, []object.Object{item}, ov, trie.Address{trie.Index(i)})
		if err != nil {
			return nil, 0, err
		}
		results[i] = v
		score += s
	}

	var value object.Object = &object.List{Elements: results}
	if _, ok := inputs[1].(*object.Tuple); ok {
		value = &object.Tuple{Elements: results}
	}
	return evaluator.Finish(ctx, value, score, ov)
}
