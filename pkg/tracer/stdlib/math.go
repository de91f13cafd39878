package stdlib

import (
	"math"

	"github.com/sambeau/tracer/pkg/tracer/object"
)

func registerMath(g *Globals) {
	g.builtin("+", "0+", "Sum of numbers", add)
	g.builtin("-", "1+", "Negation, or the first number minus the rest", subtract)
	g.builtin("*", "0+", "Product of numbers", multiply)
	g.builtin("/", "2+", "The first number divided by the rest", divide)
	g.builtin("=", "1+", "True if all values are structurally equal", equal)
	g.builtin("<", "1+", "True if numbers are strictly increasing", compare("<", func(a, b float64) bool { return a < b }))
	g.builtin(">", "1+", "True if numbers are strictly decreasing", compare(">", func(a, b float64) bool { return a > b }))
	g.builtin("<=", "1+", "True if numbers are non-decreasing", compare("<=", func(a, b float64) bool { return a <= b }))
	g.builtin(">=", "1+", "True if numbers are non-increasing", compare(">=", func(a, b float64) bool { return a >= b }))
	g.builtin("not", "1", "Logical negation", not)
	g.builtin("log", "1", "Natural logarithm", unary("log", math.Log, func(x float64) bool { return x >= 0 }))
	g.builtin("exp", "1", "e^x", unary("exp", math.Exp, nil))
	g.builtin("sqrt", "1", "Square root", unary("sqrt", math.Sqrt, func(x float64) bool { return x >= 0 }))
}

// allIntegers reports whether every argument is an Integer, so that the
// result can stay an Integer.
func allIntegers(args []object.Object) bool {
	for _, a := range args {
		if _, ok := a.(*object.Integer); !ok {
			return false
		}
	}
	return true
}

func numbers(function string, args []object.Object) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := number(function, a)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func add(args ...object.Object) (object.Object, error) {
	if allIntegers(args) {
		var sum int64
		for _, a := range args {
			sum += a.(*object.Integer).Value
		}
		return &object.Integer{Value: sum}, nil
	}
	xs, err := numbers("+", args)
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return &object.Float{Value: sum}, nil
}

func subtract(args ...object.Object) (object.Object, error) {
	if err := atLeast("-", args, 1); err != nil {
		return nil, err
	}
	if allIntegers(args) {
		first := args[0].(*object.Integer).Value
		if len(args) == 1 {
			return &object.Integer{Value: -first}, nil
		}
		for _, a := range args[1:] {
			first -= a.(*object.Integer).Value
		}
		return &object.Integer{Value: first}, nil
	}
	xs, err := numbers("-", args)
	if err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return &object.Float{Value: -xs[0]}, nil
	}
	result := xs[0]
	for _, x := range xs[1:] {
		result -= x
	}
	return &object.Float{Value: result}, nil
}

func multiply(args ...object.Object) (object.Object, error) {
	if allIntegers(args) {
		product := int64(1)
		for _, a := range args {
			product *= a.(*object.Integer).Value
		}
		return &object.Integer{Value: product}, nil
	}
	xs, err := numbers("*", args)
	if err != nil {
		return nil, err
	}
	product := 1.0
	for _, x := range xs {
		product *= x
	}
	return &object.Float{Value: product}, nil
}

// divide keeps integers when every division is exact.
func divide(args ...object.Object) (object.Object, error) {
	if err := atLeast("/", args, 2); err != nil {
		return nil, err
	}
	if allIntegers(args) {
		result := args[0].(*object.Integer).Value
		exact := true
		for _, a := range args[1:] {
			d := a.(*object.Integer).Value
			if d == 0 {
				return nil, newDomainError("/", "division by zero")
			}
			if result%d != 0 {
				exact = false
				break
			}
			result /= d
		}
		if exact {
			return &object.Integer{Value: result}, nil
		}
	}
	xs, err := numbers("/", args)
	if err != nil {
		return nil, err
	}
	result := xs[0]
	for _, x := range xs[1:] {
		if x == 0 {
			return nil, newDomainError("/", "division by zero")
		}
		result /= x
	}
	return &object.Float{Value: result}, nil
}

func equal(args ...object.Object) (object.Object, error) {
	if err := atLeast("=", args, 1); err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		if !object.Equal(args[0], a) {
			return object.FALSE, nil
		}
	}
	return object.TRUE, nil
}

func compare(name string, ok func(a, b float64) bool) func(args ...object.Object) (object.Object, error) {
	return func(args ...object.Object) (object.Object, error) {
		if err := atLeast(name, args, 1); err != nil {
			return nil, err
		}
		xs, err := numbers(name, args)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(xs); i++ {
			if !ok(xs[i-1], xs[i]) {
				return object.FALSE, nil
			}
		}
		return object.TRUE, nil
	}
}

func not(args ...object.Object) (object.Object, error) {
	if err := exactly("not", args, 1); err != nil {
		return nil, err
	}
	return object.NativeBool(!object.IsTruthy(args[0])), nil
}

func unary(name string, fn func(float64) float64, valid func(float64) bool) func(args ...object.Object) (object.Object, error) {
	return func(args ...object.Object) (object.Object, error) {
		if err := exactly(name, args, 1); err != nil {
			return nil, err
		}
		x, err := number(name, args[0])
		if err != nil {
			return nil, err
		}
		if valid != nil && !valid(x) {
			return nil, newDomainError(name, "argument must not be negative")
		}
		return &object.Float{Value: fn(x)}, nil
	}
}
