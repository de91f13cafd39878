package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sambeau/tracer/config"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/tracer"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

type runFlags struct {
	expr      string
	trace     bool
	watch     bool
	seed      uint64
	intervene string
	observe   string
}

func (a *app) runCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [FILE]",
		Short: "Evaluate a program and print its value and score",
		Example: `  tracer run model.tr
  tracer run -e "(flip 0.3)" --trace
  tracer run model.tr --observe obs.yaml --seed 42
  tracer run model.tr --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (f.expr != "") {
				return fmt.Errorf("give either a FILE or -e CODE")
			}
			if f.watch && len(args) == 0 {
				return fmt.Errorf("--watch needs a FILE")
			}

			opts := a.options(f.seed, cmd.Flags().Changed("seed"))
			if f.intervene != "" {
				t, err := config.LoadObservations(f.intervene)
				if err != nil {
					return fmt.Errorf("loading interventions: %w", err)
				}
				opts = append(opts, tracer.WithInterventions(t))
			}
			if f.observe != "" {
				t, err := config.LoadObservations(f.observe)
				if err != nil {
					return fmt.Errorf("loading observations: %w", err)
				}
				opts = append(opts, tracer.WithObservations(t))
			}

			if f.expr != "" {
				return evalAndPrint(cmd.Context(), a.stdout, f.expr, f.trace, opts)
			}

			path := args[0]
			if !f.watch {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				return evalAndPrint(cmd.Context(), a.stdout, string(src), f.trace, opts)
			}
			return a.watchAndRun(cmd.Context(), path, f.trace, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.expr, "eval", "e", "", "Evaluate code string")
	flags.BoolVarP(&f.trace, "trace", "t", false, "Print the output trace")
	flags.BoolVarP(&f.watch, "watch", "w", false, "Re-run FILE whenever it changes")
	flags.Uint64Var(&f.seed, "seed", 0, "Seed for the random primitives")
	flags.StringVar(&f.intervene, "intervene", "", "YAML file of addresses whose values are forced")
	flags.StringVar(&f.observe, "observe", "", "YAML file of addresses whose values are observed and scored")
	return cmd
}

func evalAndPrint(ctx context.Context, out io.Writer, src string, showTrace bool, opts []tracer.Option) error {
	res, err := tracer.EvalString(ctx, src, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Value.Inspect())
	fmt.Fprintf(out, "score: %g\n", res.Score)
	if showTrace {
		if dump := trie.Dump(res.Trace, object.Inspect); dump != "" {
			fmt.Fprintln(out, dump)
		}
	}
	return nil
}

// watchAndRun evaluates path once and again after every change, until ctx
// is cancelled. Evaluation errors are reported and do not stop the watch.
// Options are applied afresh on every run, so a seed restarts its stream.
func (a *app) watchAndRun(ctx context.Context, path string, showTrace bool, opts []tracer.Option) error {
	w, err := newFileWatcher(path, a.logger)
	if err != nil {
		return err
	}

	rerun := func() {
		src, err := os.ReadFile(path)
		if err == nil {
			err = evalAndPrint(ctx, a.stdout, string(src), showTrace, opts)
		}
		if err != nil {
			printError(a.stdout, err)
		}
	}

	fmt.Fprintf(a.stdout, "[WATCH] %s\n", path)
	rerun()
	return w.Run(ctx, func() {
		fmt.Fprintf(a.stdout, "[WATCH] %s changed\n", path)
		rerun()
	})
}
