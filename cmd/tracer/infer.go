package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sambeau/tracer/config"
	"github.com/sambeau/tracer/pkg/tracer/inference"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/tracer"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// maxOutcomes bounds the posterior table.
const maxOutcomes = 20

type inferFlags struct {
	expr      string
	observe   string
	method    string
	particles int
	attempts  int
	workers   int
	seed      uint64
	trace     bool
}

func (a *app) inferCmd() *cobra.Command {
	var f inferFlags
	cmd := &cobra.Command{
		Use:   "infer [FILE]",
		Short: "Condition the model a program defines on observations",
		Long: `Evaluate a program whose value is a procedure taking no inputs, then
sample from that model conditioned on the observed addresses.

The observations file maps addresses to values:

  0/a/flip: true
  model:
    mu/gaussian: 1.5`,
		Example: `  tracer infer model.tr --observe obs.yaml
  tracer infer model.tr --observe obs.yaml --method rejection --attempts 50000
  tracer infer -e "(gen [] (flip 0.3))" --particles 100 --seed 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (f.expr != "") {
				return fmt.Errorf("give either a FILE or -e CODE")
			}
			src := f.expr
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				src = string(data)
			}

			var obs trie.Trie
			if f.observe != "" {
				t, err := config.LoadObservations(f.observe)
				if err != nil {
					return fmt.Errorf("loading observations: %w", err)
				}
				obs = t
			}

			opts, err := a.inferOptions(cmd, f)
			if err != nil {
				return err
			}
			a.logger.Debug("running inference", "method", opts.Method, "particles", opts.Particles, "workers", opts.Workers)

			// Inference seeds its own streams, so only the logger is passed on
			res, err := tracer.InferString(cmd.Context(), src, obs, opts, tracer.WithLogger(a.logger))
			if err != nil {
				return err
			}
			printInference(a.stdout, opts.Method, res, f.trace)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.expr, "eval", "e", "", "Evaluate code string")
	flags.StringVarP(&f.observe, "observe", "o", "", "YAML file of observed addresses")
	flags.StringVarP(&f.method, "method", "m", "", "Inference method (importance, rejection)")
	flags.IntVarP(&f.particles, "particles", "n", 0, "Number of importance particles")
	flags.IntVar(&f.attempts, "attempts", 0, "Maximum rejection sampling attempts")
	flags.IntVar(&f.workers, "workers", 0, "Particles run concurrently (0 for one goroutine each)")
	flags.Uint64Var(&f.seed, "seed", 0, "Seed for the random streams")
	flags.BoolVarP(&f.trace, "trace", "t", false, "Print the trace of the accepted or most likely sample")
	return cmd
}

// inferOptions merges the command line over the configured defaults.
func (a *app) inferOptions(cmd *cobra.Command, f inferFlags) (tracer.InferOptions, error) {
	cfg := *a.cfg
	changed := cmd.Flags().Changed
	if changed("method") {
		cfg.Inference.Method = f.method
	}
	if changed("particles") {
		cfg.Inference.Particles = f.particles
	}
	if changed("attempts") {
		cfg.Inference.MaxAttempts = f.attempts
	}
	if changed("workers") {
		cfg.Inference.Workers = f.workers
	}
	if changed("seed") {
		cfg.Seed = f.seed
	} else if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
		a.logger.Info("unseeded inference", "seed", cfg.Seed)
	}
	if err := config.Validate(&cfg); err != nil {
		return tracer.InferOptions{}, err
	}
	return tracer.InferOptions{
		Method:      cfg.Inference.Method,
		Particles:   cfg.Inference.Particles,
		Workers:     cfg.Inference.Workers,
		MaxAttempts: cfg.Inference.MaxAttempts,
		Seed:        cfg.Seed,
	}, nil
}

func printInference(w io.Writer, method string, res *inference.Result, showTrace bool) {
	p := message.NewPrinter(language.English)

	if method == "rejection" {
		s := res.Samples[0]
		p.Fprintf(w, "method: rejection\n")
		p.Fprintf(w, "attempts: %d\n", res.Attempts)
		p.Fprintf(w, "value: %s\n", s.Value.Inspect())
		if showTrace {
			printSampleTrace(w, s)
		}
		return
	}

	p.Fprintf(w, "method: importance\n")
	p.Fprintf(w, "particles: %d\n", len(res.Samples))
	p.Fprintf(w, "log marginal likelihood: %.4f\n", res.LogMarginal)
	p.Fprintf(w, "effective sample size: %.1f\n", res.EffectiveSampleSize())

	outcomes := res.Posterior()
	p.Fprintf(w, "posterior:\n")
	for i, o := range outcomes {
		if i == maxOutcomes {
			p.Fprintf(w, "  ... and %d more\n", len(outcomes)-maxOutcomes)
			break
		}
		p.Fprintf(w, "  %-24s %.4f  (%d)\n", o.Value.Inspect(), o.Probability, o.Count)
	}
	if mean, ok := res.Mean(); ok {
		p.Fprintf(w, "mean: %.4f\n", mean)
	}

	if showTrace {
		best := res.Samples[0]
		for _, s := range res.Samples[1:] {
			if s.LogWeight > best.LogWeight {
				best = s
			}
		}
		printSampleTrace(w, best)
	}
}

func printSampleTrace(w io.Writer, s inference.Sample) {
	fmt.Fprintln(w, "trace:")
	dump := trie.Dump(s.Trace, object.Inspect)
	if dump == "" {
		fmt.Fprintln(w, "  (empty trace)")
		return
	}
	for _, line := range strings.Split(dump, "\n") {
		fmt.Fprintln(w, " ", line)
	}
}
