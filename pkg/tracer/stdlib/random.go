package stdlib

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/object"
)

// Source is the randomness the primitives draw from. *rand.Rand satisfies
// it.
type Source interface {
	Float64() float64
	NormFloat64() float64
}

// globalSource uses math/rand/v2's top-level functions, which are safe for
// concurrent use.
type globalSource struct{}

func (globalSource) Float64() float64     { return rand.Float64() }
func (globalSource) NormFloat64() float64 { return rand.NormFloat64() }

type randKey struct{}

// WithRand returns a context whose primitives draw from src. A *rand.Rand
// is not safe for concurrent use, so concurrent evaluations each need
// their own.
func WithRand(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, randKey{}, src)
}

// RandFrom returns the context's source, or the process-wide one.
func RandFrom(ctx context.Context) Source {
	if src, ok := ctx.Value(randKey{}).(Source); ok && src != nil {
		return src
	}
	return globalSource{}
}

// NewRand returns a seeded source.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// distribution describes a random primitive. params validates the inputs
// once; sample and logDensity then work on the validated form.
type distribution[P any] struct {
	name       string
	params     func(inputs []object.Object) (P, error)
	sample     func(src Source, p P) object.Object
	logDensity func(v object.Object, p P) float64
}

// primitive turns a distribution into a special procedure. A target at the
// call address is returned with its log density; otherwise an
// intervention is returned with score zero; otherwise a fresh sample is
// drawn. An intervention that contradicts the target scores negative
// infinity.
func primitive[P any](d distribution[P]) evaluator.InferMethod {
	return func(ctx context.Context, inputs []object.Object, ov evaluator.Overlays) (object.Object, float64, error) {
		p, err := d.params(inputs)
		if err != nil {
			return nil, 0, err
		}

		iv, intervened, err := ov.Intervention()
		if err != nil {
			return nil, 0, err
		}
		tv, targeted, err := ov.TargetValue()
		if err != nil {
			return nil, 0, err
		}

		var (
			value object.Object
			score float64
		)
		switch {
		case targeted:
			value = tv
			score = d.logDensity(tv, p)
			if intervened && !object.Equal(iv, tv) {
				score = evaluator.Mismatch(ctx, iv, tv)
			}
		case intervened:
			value = iv
		default:
			value = d.sample(RandFrom(ctx), p)
		}
		ov.Record(value)
		return value, score, nil
	}
}

func registerRandom(g *Globals) {
	g.special(flip.name, "0-1", "True with probability p (default 0.5)", primitive(flip))
	g.special(uniform.name, "0-2", "Real uniformly distributed on [a, b) (default [0, 1))", primitive(uniform))
	g.special(gaussian.name, "0-2", "Normally distributed real with mean mu and deviation sigma (default 0, 1)", primitive(gaussian))
	g.special(categorical.name, "1", "Index i drawn with probability proportional to weight i", primitive(categorical))
}

var flip = distribution[float64]{
	name: "flip",
	params: func(inputs []object.Object) (float64, error) {
		if len(inputs) > 1 {
			return 0, newArityError("flip", "0 or 1", len(inputs))
		}
		if len(inputs) == 0 {
			return 0.5, nil
		}
		p, err := number("flip", inputs[0])
		if err != nil {
			return 0, err
		}
		if p < 0 || p > 1 {
			return 0, newDomainError("flip", fmt.Sprintf("probability %g is outside [0, 1]", p))
		}
		return p, nil
	},
	sample: func(src Source, p float64) object.Object {
		return object.NativeBool(src.Float64() < p)
	},
	logDensity: func(v object.Object, p float64) float64 {
		b, ok := v.(*object.Boolean)
		if !ok {
			return math.Inf(-1)
		}
		if b.Value {
			return math.Log(p)
		}
		return math.Log1p(-p)
	},
}

type interval struct{ lo, hi float64 }

var uniform = distribution[interval]{
	name: "uniform",
	params: func(inputs []object.Object) (interval, error) {
		switch len(inputs) {
		case 0:
			return interval{0, 1}, nil
		case 2:
		default:
			return interval{}, newArityError("uniform", "0 or 2", len(inputs))
		}
		xs, err := numbers("uniform", inputs)
		if err != nil {
			return interval{}, err
		}
		if !(xs[0] < xs[1]) {
			return interval{}, newDomainError("uniform", fmt.Sprintf("empty interval [%g, %g)", xs[0], xs[1]))
		}
		return interval{xs[0], xs[1]}, nil
	},
	sample: func(src Source, p interval) object.Object {
		return &object.Float{Value: p.lo + (p.hi-p.lo)*src.Float64()}
	},
	logDensity: func(v object.Object, p interval) float64 {
		x, ok := object.NumberValue(v)
		if !ok || x < p.lo || x >= p.hi {
			return math.Inf(-1)
		}
		return -math.Log(p.hi - p.lo)
	},
}

type normal struct{ mu, sigma float64 }

var gaussian = distribution[normal]{
	name: "gaussian",
	params: func(inputs []object.Object) (normal, error) {
		switch len(inputs) {
		case 0:
			return normal{0, 1}, nil
		case 2:
		default:
			return normal{}, newArityError("gaussian", "0 or 2", len(inputs))
		}
		xs, err := numbers("gaussian", inputs)
		if err != nil {
			return normal{}, err
		}
		if !(xs[1] > 0) {
			return normal{}, newDomainError("gaussian", fmt.Sprintf("standard deviation %g must be positive", xs[1]))
		}
		return normal{xs[0], xs[1]}, nil
	},
	sample: func(src Source, p normal) object.Object {
		return &object.Float{Value: p.mu + p.sigma*src.NormFloat64()}
	},
	logDensity: func(v object.Object, p normal) float64 {
		x, ok := object.NumberValue(v)
		if !ok {
			return math.Inf(-1)
		}
		z := (x - p.mu) / p.sigma
		return -0.5*z*z - math.Log(p.sigma) - 0.5*math.Log(2*math.Pi)
	},
}

// weights are normalized so that they sum to one.
type weights []float64

var categorical = distribution[weights]{
	name: "categorical",
	params: func(inputs []object.Object) (weights, error) {
		if err := exactly("categorical", inputs, 1); err != nil {
			return nil, err
		}
		items, err := sequence("categorical", inputs[0])
		if err != nil {
			return nil, err
		}
		ws, err := numbers("categorical", items)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, w := range ws {
			if w < 0 || math.IsNaN(w) {
				return nil, newDomainError("categorical", fmt.Sprintf("weight %g is negative", w))
			}
			total += w
		}
		if !(total > 0) || math.IsInf(total, 1) {
			return nil, newDomainError("categorical", "weights must have a positive finite sum")
		}
		for i := range ws {
			ws[i] /= total
		}
		return ws, nil
	},
	sample: func(src Source, ws weights) object.Object {
		u := src.Float64()
		last := 0
		for i, w := range ws {
			if w == 0 {
				continue
			}
			last = i
			if u < w {
				return &object.Integer{Value: int64(i)}
			}
			u -= w
		}
		return &object.Integer{Value: int64(last)}
	},
	logDensity: func(v object.Object, ws weights) float64 {
		i, ok := v.(*object.Integer)
		if !ok || i.Value < 0 || i.Value >= int64(len(ws)) {
			return math.Inf(-1)
		}
		return math.Log(ws[i.Value])
	},
}
