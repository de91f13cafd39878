// Package inference implements sampling algorithms on top of the
// evaluator's target and output overlays.
package inference

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/logging"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/stdlib"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// ErrNoSample is returned when rejection sampling runs out of attempts or
// every importance particle has zero weight.
var ErrNoSample = errors.New("no sample satisfies the observations")

// Sample is one run of a model.
type Sample struct {
	Value     object.Object
	Trace     *trie.Mutable
	LogWeight float64
}

// Result is a weighted collection of samples.
type Result struct {
	Samples     []Sample
	LogMarginal float64 // log of the mean importance weight
	Attempts    int     // rejection only
}

// Options configure importance sampling.
type Options struct {
	Particles int
	Workers   int    // 0 means one goroutine per particle
	Seed      uint64 // particle i draws from the PCG stream (Seed, i)
}

// Importance runs opts.Particles independent copies of model with obs as
// the target. Each particle gets its own output trie and random stream, so
// results do not depend on scheduling.
func Importance(ctx context.Context, model object.Object, inputs []object.Object, obs trie.Trie, opts Options) (*Result, error) {
	if opts.Particles <= 0 {
		return nil, fmt.Errorf("particles must be positive, got %d", opts.Particles)
	}
	logger := logging.FromContext(ctx)

	samples := make([]Sample, opts.Particles)
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range opts.Particles {
		g.Go(func() error {
			pctx := stdlib.WithRand(gctx, stdlib.NewRand(opts.Seed, uint64(i)))
			v, out, score, err := evaluator.Infer(pctx, model, inputs, obs)
			if err != nil {
				return fmt.Errorf("particle %d: %w", i, err)
			}
			samples[i] = Sample{Value: v, Trace: out, LogWeight: score}
			logger.Debug("particle finished", "particle", i, "log_weight", score)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	weights := make([]float64, len(samples))
	for i, s := range samples {
		weights[i] = s.LogWeight
	}
	res := &Result{Samples: samples, LogMarginal: LogMeanExp(weights)}
	if math.IsInf(res.LogMarginal, -1) {
		return res, ErrNoSample
	}
	logger.Info("importance sampling done", "particles", len(samples), "log_marginal", res.LogMarginal)
	return res, nil
}

// Rejection runs model without targets until a run's output agrees with
// every observation, trying at most maxAttempts times.
func Rejection(ctx context.Context, model object.Object, inputs []object.Object, obs trie.Trie, maxAttempts int) (*Result, error) {
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}
	logger := logging.FromContext(ctx)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, out, err := evaluator.Run(ctx, model, inputs, nil)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		if Satisfies(out, obs) {
			logger.Info("rejection sampling accepted", "attempts", attempt)
			return &Result{
				Samples:  []Sample{{Value: v, Trace: out}},
				Attempts: attempt,
			}, nil
		}
		logger.Debug("rejected", "attempt", attempt)
	}
	return &Result{Attempts: maxAttempts}, fmt.Errorf("%w after %d attempts", ErrNoSample, maxAttempts)
}

// Satisfies reports whether every value in obs is recorded in out at the
// same address.
func Satisfies(out, obs trie.Trie) bool {
	if obs == nil {
		return true
	}
	ok := true
	trie.Walk(obs, func(addr trie.Address, want any) bool {
		got, found := out.GetAt(addr)
		if !found || !object.EqualValues(got, want) {
			ok = false
		}
		return ok
	})
	return ok
}

// Resample draws one sample with probability proportional to its weight.
func Resample(res *Result, src stdlib.Source) (Sample, error) {
	if res == nil || len(res.Samples) == 0 {
		return Sample{}, ErrNoSample
	}
	ws := normalized(res.Samples)
	if ws == nil {
		return Sample{}, ErrNoSample
	}
	u := src.Float64()
	for i, w := range ws {
		if u < w {
			return res.Samples[i], nil
		}
		u -= w
	}
	for i := len(ws) - 1; i >= 0; i-- {
		if ws[i] > 0 {
			return res.Samples[i], nil
		}
	}
	return Sample{}, ErrNoSample
}

// EffectiveSampleSize is (sum w)^2 / sum w^2 over the normalized weights.
func (r *Result) EffectiveSampleSize() float64 {
	ws := normalized(r.Samples)
	if ws == nil {
		return 0
	}
	var sq float64
	for _, w := range ws {
		sq += w * w
	}
	return 1 / sq
}

// normalized returns the weights scaled to sum to one, or nil if all are
// zero.
func normalized(samples []Sample) []float64 {
	top := math.Inf(-1)
	for _, s := range samples {
		top = max(top, s.LogWeight)
	}
	if math.IsInf(top, -1) || math.IsNaN(top) {
		return nil
	}
	ws := make([]float64, len(samples))
	var total float64
	for i, s := range samples {
		ws[i] = math.Exp(s.LogWeight - top)
		total += ws[i]
	}
	for i := range ws {
		ws[i] /= total
	}
	return ws
}

// LogMeanExp computes log(mean(exp(xs))) without overflow.
func LogMeanExp(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	top := math.Inf(-1)
	for _, x := range xs {
		top = max(top, x)
	}
	if math.IsInf(top, 0) {
		return top
	}
	var sum float64
	for _, x := range xs {
		sum += math.Exp(x - top)
	}
	return top + math.Log(sum/float64(len(xs)))
}
