package stdlib

import (
	"strconv"

	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
)

func typeName(obj object.Object) string {
	if obj == nil {
		return "nothing"
	}
	return string(obj.Type())
}

// newTypeError reports an argument of the wrong type.
func newTypeError(function, expected string, got object.Object) error {
	return errors.New("TYPE-0001", map[string]any{
		"Function": function,
		"Expected": expected,
		"Got":      typeName(got),
	})
}

// newArityError reports the wrong number of arguments. expected is a
// description such as "2" or "at least 1".
func newArityError(function, expected string, got int) error {
	return errors.New("TYPE-0002", map[string]any{
		"Function": function,
		"Expected": expected,
		"Got":      got,
	})
}

func newDomainError(function, reason string) error {
	return errors.New("DOMAIN-0001", map[string]any{
		"Function": function,
		"Reason":   reason,
	})
}

func exactly(function string, args []object.Object, n int) error {
	if len(args) != n {
		return newArityError(function, strconv.Itoa(n), len(args))
	}
	return nil
}

func atLeast(function string, args []object.Object, n int) error {
	if len(args) < n {
		return newArityError(function, "at least "+strconv.Itoa(n), len(args))
	}
	return nil
}

func number(function string, obj object.Object) (float64, error) {
	f, ok := object.NumberValue(obj)
	if !ok {
		return 0, newTypeError(function, "a number", obj)
	}
	return f, nil
}

func integer(function string, obj object.Object) (int64, error) {
	i, ok := obj.(*object.Integer)
	if !ok {
		return 0, newTypeError(function, "an integer", obj)
	}
	return i.Value, nil
}

func sequence(function string, obj object.Object) ([]object.Object, error) {
	items, ok := object.Items(obj)
	if !ok {
		return nil, newTypeError(function, "a list or tuple", obj)
	}
	return items, nil
}

func traceArg(function string, obj object.Object) (*object.Trace, error) {
	t, ok := obj.(*object.Trace)
	if !ok {
		return nil, newTypeError(function, "a trace", obj)
	}
	return t, nil
}
