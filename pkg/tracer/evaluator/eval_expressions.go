package evaluator

import (
	"context"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Address keys used by the walker for named sub-evaluations.
const (
	CallKey       = "call"
	DefinitionKey = "definition"
)

// EvalExpression evaluates expr in env under ov. The expression's root is
// at the empty address of the overlays.
func EvalExpression(ctx context.Context, expr ast.Node, env Environment, ov Overlays) (object.Object, float64, error) {
	w := &walker{ctx: ctx, ov: ov, base: baseFromContext(ctx)}
	return w.walk(expr, env, trie.Address{})
}

type walker struct {
	ctx  context.Context
	ov   Overlays
	base *addrPath // absolute address of ov's root, for diagnostics
}

// walk evaluates one node. Whatever its kind, an intervention at the
// node's address replaces the value, and the final value is recorded.
// Context handles are never replaced: they point into the overlays of the
// run that captured them.
func (w *walker) walk(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	v, score, err := w.eval(expr, env, addr)
	if err != nil {
		return nil, 0, w.locate(err, addr)
	}

	local := w.ov.At(addr)
	iv, ok, err := local.Intervention()
	if err != nil {
		return nil, 0, w.locate(err, addr)
	}
	if ok && !isHandle(iv) {
		v = iv
	}
	local.Record(v)
	return v, score, nil
}

func (w *walker) eval(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	switch kind := ast.Kind(expr); kind {
	case ast.KindApplication:
		return w.evalApplication(expr, env, addr)

	case ast.KindVariable:
		name, ok := ast.VariableName(expr)
		if !ok {
			return nil, 0, missingPart(kind, ast.RoleName)
		}
		v, err := env.Lookup(name)
		return v, 0, err

	case ast.KindLiteral:
		v, ok := ast.LiteralValue(expr)
		if !ok {
			return nil, 0, missingPart(kind, ast.RoleValue)
		}
		return v, 0, nil

	case ast.KindGen:
		pattern, ok := ast.Part(expr, ast.RolePattern)
		if !ok {
			return nil, 0, missingPart(kind, ast.RolePattern)
		}
		body, ok := ast.Part(expr, ast.RoleBody)
		if !ok {
			return nil, 0, missingPart(kind, ast.RoleBody)
		}
		return &Function{Pattern: pattern, Body: body, Env: env}, 0, nil

	case ast.KindIf:
		return w.evalIf(expr, env, addr)

	case ast.KindBlock:
		return w.evalBlock(expr, env, addr)

	case ast.KindDefinition:
		return w.evalDefinition(expr, env, addr)

	case ast.KindThis:
		return &ContextHandle{overlays: w.ov, base: w.base}, 0, nil

	case ast.KindWithAddress:
		return w.evalWithAddress(expr, env, addr)

	default:
		if kind == "" {
			kind = object.Inspect(rootOf(expr))
		}
		return nil, 0, errors.New("EXPR-0001", map[string]any{"Kind": kind})
	}
}

func (w *walker) evalApplication(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	parts := ast.Parts(expr)
	if len(parts) == 0 {
		return nil, 0, missingPart(ast.KindApplication, "procedure")
	}

	values := make([]object.Object, len(parts))
	var score float64
	for i, part := range parts {
		v, s, err := w.walk(part, env, addr.Append(trie.Index(i)))
		if err != nil {
			return nil, 0, err
		}
		values[i] = v
		score += s
	}

	key := trie.Name(CallKey)
	if name, ok := ast.VariableName(parts[0]); ok {
		key = trie.Name(name)
		if !key.Valid() {
			return nil, 0, errors.New("KEY-0001", map[string]any{"Key": name})
		}
	}

	ctx := withBase(w.ctx, w.base.child(addr))
	v, s, err := ApplyProcedureAt(ctx, values[0], values[1:], w.ov.At(addr), trie.Address{key})
	if err != nil {
		return nil, 0, err
	}
	return v, score + s, nil
}

func (w *walker) evalIf(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	predicate, ok := ast.Part(expr, ast.RolePredicate)
	if !ok {
		return nil, 0, missingPart(ast.KindIf, ast.RolePredicate)
	}
	p, score, err := w.walk(predicate, env, addr.Append(trie.Name(ast.RolePredicate)))
	if err != nil {
		return nil, 0, err
	}

	role := ast.RoleElse
	if object.IsTruthy(p) {
		role = ast.RoleThen
	}
	branch, ok := ast.Part(expr, role)
	if !ok {
		return nil, 0, missingPart(ast.KindIf, role)
	}
	v, s, err := w.walk(branch, env, addr.Append(trie.Name(role)))
	if err != nil {
		return nil, 0, err
	}
	return v, score + s, nil
}

// evalBlock runs the statements in a fresh frame. An empty block is nil.
func (w *walker) evalBlock(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	frame := Extend(env)
	var (
		result object.Object = object.NULL
		score  float64
	)
	for i, stmt := range ast.Parts(expr) {
		v, s, err := w.walk(stmt, frame, addr.Append(trie.Index(i)))
		if err != nil {
			return nil, 0, err
		}
		result = v
		score += s
	}
	return result, score, nil
}

func (w *walker) evalDefinition(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	pattern, ok := ast.Part(expr, ast.RolePattern)
	if !ok {
		return nil, 0, missingPart(ast.KindDefinition, ast.RolePattern)
	}
	rhs, ok := ast.Part(expr, ast.RoleValue)
	if !ok {
		return nil, 0, missingPart(ast.KindDefinition, ast.RoleValue)
	}

	key := trie.Name(DefinitionKey)
	if name, ok := ast.VariableName(pattern); ok && name != "_" && name != "" {
		key = trie.Name(name)
	}

	v, score, err := w.walk(rhs, env, addr.Append(key))
	if err != nil {
		return nil, 0, err
	}
	if err := BindPattern(pattern, v, env); err != nil {
		return nil, 0, err
	}
	return v, score, nil
}

// evalWithAddress evaluates the tag, then evaluates the inner expression
// at the root of the overlays the tag names.
func (w *walker) evalWithAddress(expr ast.Node, env Environment, addr trie.Address) (object.Object, float64, error) {
	tagExpr, ok := ast.Part(expr, ast.RoleTag)
	if !ok {
		return nil, 0, missingPart(ast.KindWithAddress, ast.RoleTag)
	}
	inner, ok := ast.Part(expr, ast.RoleExpression)
	if !ok {
		return nil, 0, missingPart(ast.KindWithAddress, ast.RoleExpression)
	}

	tag, score, err := w.walk(tagExpr, env, addr.Append(trie.Name(ast.RoleTag)))
	if err != nil {
		return nil, 0, err
	}
	ov, base, err := resolveTagAddress(tag)
	if err != nil {
		return nil, 0, err
	}

	sub := &walker{ctx: w.ctx, ov: ov, base: base}
	v, s, err := sub.walk(inner, env, trie.Address{})
	if err != nil {
		return nil, 0, err
	}
	return v, score + s, nil
}

// locate attaches the absolute address of the failing node to err unless a
// deeper node already did.
func (w *walker) locate(err error, addr trie.Address) error {
	te, ok := errors.As(err)
	if !ok || te.Address != "" {
		return err
	}
	return te.WithAddress(w.base.child(addr).Address().String())
}

func isHandle(v object.Object) bool {
	switch v.(type) {
	case *ContextHandle, *QuasiAddress:
		return true
	}
	return false
}

func missingPart(kind, part string) error {
	return errors.New("EXPR-0002", map[string]any{"Kind": kind, "Part": part})
}

func rootOf(expr ast.Node) any {
	if expr == nil {
		return nil
	}
	return expr.Get()
}
