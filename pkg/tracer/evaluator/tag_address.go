package evaluator

import (
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// ContextHandle is the value of (this): the overlays of the procedure body
// being evaluated, captured so that with-address can evaluate somewhere
// below them.
type ContextHandle struct {
	overlays Overlays
	base     *addrPath
}

// CaptureTagAddress packages overlays as a handle.
func CaptureTagAddress(ov Overlays) *ContextHandle {
	return &ContextHandle{overlays: ov}
}

func (h *ContextHandle) Type() object.ObjectType { return object.HANDLE_OBJ }
func (h *ContextHandle) Inspect() string         { return "#<this>" }

// QuasiAddress is a handle plus an address below it.
type QuasiAddress struct {
	Handle *ContextHandle
	Suffix trie.Address
}

func (q *QuasiAddress) Type() object.ObjectType { return object.QUASI_OBJ }
func (q *QuasiAddress) Inspect() string         { return "#<this " + q.Suffix.String() + ">" }

// NewQuasiAddress builds a quasi-address from a handle and address keys.
// Keys may be names, non-negative integers or sequences of them.
func NewQuasiAddress(handle *ContextHandle, keys ...object.Object) (*QuasiAddress, error) {
	suffix, err := keysToAddress(keys)
	if err != nil {
		return nil, err
	}
	return &QuasiAddress{Handle: handle, Suffix: suffix}, nil
}

// Resolve turns a quasi-address into the overlays rooted at it. It accepts
// a QuasiAddress, a bare handle, or a sequence whose first element is a
// handle and whose remaining elements are address keys.
func Resolve(quasi object.Object) (Overlays, error) {
	ov, _, err := resolveTagAddress(quasi)
	return ov, err
}

func resolveTagAddress(quasi object.Object) (Overlays, *addrPath, error) {
	var (
		handle *ContextHandle
		suffix trie.Address
	)
	switch q := quasi.(type) {
	case *QuasiAddress:
		handle, suffix = q.Handle, q.Suffix
	case *ContextHandle:
		handle = q
	case object.Sequence:
		items := q.Items()
		if len(items) > 0 {
			handle, _ = items[0].(*ContextHandle)
		}
		if handle != nil {
			var err error
			if suffix, err = keysToAddress(items[1:]); err != nil {
				return Overlays{}, nil, err
			}
		}
	}
	if handle == nil {
		return Overlays{}, nil, errors.New("KEY-0002", map[string]any{"Type": typeOf(quasi)})
	}
	return handle.overlays.At(suffix), handle.base.child(suffix), nil
}

func keysToAddress(keys []object.Object) (trie.Address, error) {
	addr := trie.Address{}
	for _, k := range keys {
		sub, ok := object.AddressFrom(k)
		if !ok {
			return nil, errors.New("KEY-0001", map[string]any{"Key": object.Inspect(k)})
		}
		addr = addr.Concat(sub)
	}
	return addr, nil
}

func typeOf(obj object.Object) string {
	if obj == nil {
		return "nothing"
	}
	return string(obj.Type())
}
