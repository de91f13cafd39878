package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sambeau/tracer/pkg/tracer/repl"
)

func (a *app) replCmd() *cobra.Command {
	var seed uint64
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.startREPL(cmd.Context(), seed, cmd.Flags().Changed("seed"), noHistory)
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the random primitives")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not read or write the history file")
	return cmd
}

func (a *app) startREPL(ctx context.Context, seed uint64, seedSet, noHistory bool) error {
	history := a.cfg.REPL.History
	if noHistory {
		history = ""
	}
	repl.Start(ctx, a.stdout, repl.Options{
		Version: Version,
		History: history,
		Session: a.options(seed, seedSet),
	})
	return nil
}
