package evaluator

import (
	"fmt"
	"slices"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
)

// BindPattern matches input against pattern and binds the resulting
// variables in env.
//
// A variable pattern binds the whole input. A tuple pattern destructures a
// sequence element by element; if its second-to-last slot is the rest
// marker, the last slot binds a list of whatever inputs remain. A rest
// marker anywhere else is rejected.
func BindPattern(pattern ast.Node, input object.Object, env Environment) error {
	switch ast.Kind(pattern) {
	case ast.KindVariable:
		name, ok := ast.VariableName(pattern)
		if !ok {
			return badPattern(pattern)
		}
		return Bind(env, name, input)

	case ast.KindTuple:
		items, ok := object.Items(input)
		if !ok {
			return errors.New("PATTERN-0002", map[string]any{
				"Type":    input.Type(),
				"Pattern": ast.String(pattern),
			})
		}
		parts := ast.Parts(pattern)
		fixed, rest, err := splitRest(pattern, parts)
		if err != nil {
			return err
		}

		switch {
		case len(items) < len(fixed):
			return arityError("ARITY-0001", pattern, fixed, rest != nil, input)
		case rest == nil && len(items) > len(fixed):
			return arityError("ARITY-0002", pattern, fixed, false, input)
		}

		for i, p := range fixed {
			if err := BindPattern(p, items[i], env); err != nil {
				return err
			}
		}
		if rest != nil {
			remaining := slices.Clone(items[len(fixed):])
			return BindPattern(rest, &object.List{Elements: remaining}, env)
		}
		return nil

	default:
		return badPattern(pattern)
	}
}

// splitRest separates the fixed slots from the rest slot.
func splitRest(pattern ast.Node, parts []ast.Node) (fixed []ast.Node, rest ast.Node, err error) {
	n := len(parts)
	for i, p := range parts {
		if !isRestMarker(p) {
			continue
		}
		if i != n-2 {
			return nil, nil, badPattern(pattern)
		}
		return parts[:n-2], parts[n-1], nil
	}
	return parts, nil, nil
}

func isRestMarker(p ast.Node) bool {
	name, ok := ast.VariableName(p)
	return ok && name == ast.RestMarker
}

func badPattern(pattern ast.Node) error {
	return errors.New("PATTERN-0001", map[string]any{"Pattern": ast.String(pattern)})
}

func arityError(code string, pattern ast.Node, fixed []ast.Node, variadic bool, input object.Object) error {
	expected := fmt.Sprintf("%d", len(fixed))
	if variadic {
		expected = "at least " + expected
	}
	return errors.New(code, map[string]any{
		"Pattern":  ast.String(pattern),
		"Expected": expected,
		"Input":    input.Inspect(),
	})
}
