// Package tracer is the embedding API. It evaluates programs given as
// source text, runs inference over the models they define, and keeps
// interactive sessions whose definitions persist between inputs.
package tracer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/inference"
	"github.com/sambeau/tracer/pkg/tracer/logging"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/reader"
	"github.com/sambeau/tracer/pkg/tracer/stdlib"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Result is the outcome of one evaluation.
type Result struct {
	Value object.Object
	Score float64
	Trace *trie.Mutable
}

// Option configures an evaluation.
type Option func(*settings)

type settings struct {
	globals   *stdlib.Globals
	logger    *slog.Logger
	rand      stdlib.Source
	intervene trie.Trie
	target    trie.Trie
}

// WithGlobals evaluates against g instead of a fresh standard library.
func WithGlobals(g *stdlib.Globals) Option {
	return func(s *settings) { s.globals = g }
}

// WithLogger sends evaluator diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithSeed makes the random primitives reproducible.
func WithSeed(seed uint64) Option {
	return func(s *settings) { s.rand = stdlib.NewRand(seed, 0) }
}

// WithSource draws random choices from src.
func WithSource(src stdlib.Source) Option {
	return func(s *settings) { s.rand = src }
}

// WithInterventions forces the values at the given addresses.
func WithInterventions(t trie.Trie) Option {
	return func(s *settings) { s.intervene = t }
}

// WithObservations constrains the values at the given addresses and
// scores the constraint.
func WithObservations(t trie.Trie) Option {
	return func(s *settings) { s.target = t }
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.globals == nil {
		s.globals = stdlib.New()
	}
	return s
}

func (s *settings) context(ctx context.Context) context.Context {
	if s.logger != nil {
		ctx = logging.WithLogger(ctx, s.logger)
	}
	if s.rand != nil {
		ctx = stdlib.WithRand(ctx, s.rand)
	}
	return ctx
}

// EvalString evaluates a program. The forms of the program are statements
// of one block, so the first form is traced at address 0, the second at 1
// and so on.
func EvalString(ctx context.Context, src string, opts ...Option) (*Result, error) {
	prog, err := reader.Parse(src)
	if err != nil {
		return nil, err
	}
	return Eval(ctx, prog, opts...)
}

// Eval evaluates an expression tree.
func Eval(ctx context.Context, expr ast.Node, opts ...Option) (*Result, error) {
	s := newSettings(opts)
	out := trie.NewMutable()
	ov := evaluator.Overlays{Intervene: s.intervene, Target: s.target, Output: out}
	v, score, err := evaluator.EvalExpression(s.context(ctx), expr, evaluator.NewTopLevel(s.globals), ov)
	if err != nil {
		return nil, err
	}
	return &Result{Value: v, Score: score, Trace: out}, nil
}

// ModelString evaluates a program whose value must be a procedure.
func ModelString(ctx context.Context, src string, opts ...Option) (object.Object, error) {
	res, err := EvalString(ctx, src, opts...)
	if err != nil {
		return nil, err
	}
	if !evaluator.IsProcedure(res.Value) {
		return nil, errors.New("CALL-0001", map[string]any{
			"Type":  string(res.Value.Type()),
			"Value": res.Value.Inspect(),
		})
	}
	return res.Value, nil
}

// InferOptions selects and configures an inference algorithm.
type InferOptions struct {
	Method      string // "importance" (default) or "rejection"
	Particles   int
	Workers     int
	MaxAttempts int
	Seed        uint64
}

// InferString evaluates src to a model, then conditions the model, called
// with no inputs, on obs.
func InferString(ctx context.Context, src string, obs trie.Trie, iopts InferOptions, opts ...Option) (*inference.Result, error) {
	s := newSettings(opts)
	model, err := ModelString(ctx, src, opts...)
	if err != nil {
		return nil, err
	}
	ctx = s.context(ctx)

	switch iopts.Method {
	case "", "importance":
		return inference.Importance(ctx, model, nil, obs, inference.Options{
			Particles: iopts.Particles,
			Workers:   iopts.Workers,
			Seed:      iopts.Seed,
		})
	case "rejection":
		if s.rand == nil {
			ctx = stdlib.WithRand(ctx, stdlib.NewRand(iopts.Seed, 0))
		}
		return inference.Rejection(ctx, model, nil, obs, iopts.MaxAttempts)
	default:
		return nil, fmt.Errorf("unknown inference method %q (must be importance or rejection)", iopts.Method)
	}
}
