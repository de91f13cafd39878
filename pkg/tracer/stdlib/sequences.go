package stdlib

import (
	"fmt"
	"slices"

	"github.com/sambeau/tracer/pkg/tracer/object"
)

func registerSequences(g *Globals) {
	g.builtin("tuple", "0+", "A tuple of the arguments", func(args ...object.Object) (object.Object, error) {
		return &object.Tuple{Elements: slices.Clone(args)}, nil
	})
	g.builtin("list", "0+", "A list of the arguments", func(args ...object.Object) (object.Object, error) {
		return &object.List{Elements: slices.Clone(args)}, nil
	})
	g.builtin("first", "1", "First element of a sequence", first)
	g.builtin("rest", "1", "All but the first element, as a list", rest)
	g.builtin("length", "1", "Number of elements", length)
	g.builtin("nth", "2", "Element at a zero-based index", nth)
	g.builtin("append", "0+", "Concatenation of sequences", appendSeqs)
	g.builtin("range", "1-2", "Integers from start (default 0) up to but not including end", rangeInts)
}

func first(args ...object.Object) (object.Object, error) {
	if err := exactly("first", args, 1); err != nil {
		return nil, err
	}
	items, err := sequence("first", args[0])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, newDomainError("first", "empty sequence")
	}
	return items[0], nil
}

func rest(args ...object.Object) (object.Object, error) {
	if err := exactly("rest", args, 1); err != nil {
		return nil, err
	}
	items, err := sequence("rest", args[0])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &object.List{}, nil
	}
	return &object.List{Elements: slices.Clone(items[1:])}, nil
}

func length(args ...object.Object) (object.Object, error) {
	if err := exactly("length", args, 1); err != nil {
		return nil, err
	}
	items, err := sequence("length", args[0])
	if err != nil {
		return nil, err
	}
	return &object.Integer{Value: int64(len(items))}, nil
}

func nth(args ...object.Object) (object.Object, error) {
	if err := exactly("nth", args, 2); err != nil {
		return nil, err
	}
	items, err := sequence("nth", args[0])
	if err != nil {
		return nil, err
	}
	i, err := integer("nth", args[1])
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= int64(len(items)) {
		return nil, newDomainError("nth", fmt.Sprintf("index %d out of range for length %d", i, len(items)))
	}
	return items[i], nil
}

// appendSeqs returns a tuple when the first argument is a tuple, otherwise
// a list.
func appendSeqs(args ...object.Object) (object.Object, error) {
	var all []object.Object
	for _, a := range args {
		items, err := sequence("append", a)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	if len(args) > 0 {
		if _, ok := args[0].(*object.Tuple); ok {
			return &object.Tuple{Elements: all}, nil
		}
	}
	return &object.List{Elements: all}, nil
}

func rangeInts(args ...object.Object) (object.Object, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, newArityError("range", "1 or 2", len(args))
	}
	var start, end int64
	var err error
	if len(args) == 1 {
		end, err = integer("range", args[0])
	} else {
		if start, err = integer("range", args[0]); err == nil {
			end, err = integer("range", args[1])
		}
	}
	if err != nil {
		return nil, err
	}
	items := make([]object.Object, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		items = append(items, &object.Integer{Value: i})
	}
	return &object.List{Elements: items}, nil
}
