package evaluator

import (
	"context"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/object"
)

// Function is a native procedure: a pattern, a body and the environment
// the gen expression was evaluated in.
type Function struct {
	Pattern ast.Node
	Body    ast.Node
	Env     Environment
}

func (f *Function) Type() object.ObjectType { return object.PROCEDURE_OBJ }
func (f *Function) Inspect() string {
	return "(gen " + ast.String(f.Pattern) + " " + ast.String(f.Body) + ")"
}

// BuiltinFunction is the untraced calling convention of a foreign procedure.
type BuiltinFunction func(args ...object.Object) (object.Object, error)

// Builtin is a foreign procedure implemented in Go. It cannot see the
// overlays; the evaluator applies interventions and targets around it.
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() object.ObjectType { return object.PROCEDURE_OBJ }
func (b *Builtin) Inspect() string         { return "#<builtin " + b.Name + ">" }

// InferMethod is the traced calling convention of a special procedure. It
// receives the overlays at its call address and returns its value and score.
type InferMethod func(ctx context.Context, inputs []object.Object, ov Overlays) (object.Object, float64, error)

// InferProcedure is a special procedure that takes over its own overlay
// handling. Random primitives and higher-order procedures are built this
// way.
type InferProcedure struct {
	Name   string
	Method InferMethod
}

// MakeInferProcedure wraps method as a special procedure called name.
func MakeInferProcedure(name string, method InferMethod) *InferProcedure {
	return &InferProcedure{Name: name, Method: method}
}

func (p *InferProcedure) Type() object.ObjectType { return object.PROCEDURE_OBJ }
func (p *InferProcedure) Inspect() string         { return "#<procedure " + p.Name + ">" }

// Call invokes the procedure outside any trace, with empty overlays.
func (p *InferProcedure) Call(ctx context.Context, inputs ...object.Object) (object.Object, error) {
	v, _, err := p.Method(ctx, inputs, Overlays{})
	return v, err
}

// IsProcedure reports whether obj can appear in call position.
func IsProcedure(obj object.Object) bool {
	switch obj.(type) {
	case *Function, *Builtin, *InferProcedure:
		return true
	}
	return false
}
