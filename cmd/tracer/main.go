package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sambeau/tracer/config"
	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/logging"
	"github.com/sambeau/tracer/pkg/tracer/tracer"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the state shared by the subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	// Set up signal handling so long inference runs can be interrupted
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{stdout: stdout, stderr: stderr, getenv: getenv}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tracer",
		Short: "tracer - an evaluator for traced probabilistic programs",
		Long: `tracer - an evaluator for traced probabilistic programs

Every random choice a program makes is recorded at an address in its
trace. Choices can be forced (interventions) or constrained and scored
(observations), and models can be conditioned by sampling.

Config Resolution:
  1. --config flag
  2. TRACER_CONFIG environment variable
  3. ./tracer.yaml
  4. ~/.config/tracer/tracer.yaml`,
		Version:       Version,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// if we got this far, CLI parsing worked just fine; no
			// need to show usage for runtime errors
			cmd.SilenceUsage = true
			return a.setup(cmd)
		},
		// With no subcommand, start the REPL
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.startREPL(cmd.Context(), 0, false, false)
		},
		Args: cobra.NoArgs,
	}
	root.SetVersionTemplate("tracer version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to config file (default: auto-detect)")
	flags.StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Override log format (text, json)")

	root.AddCommand(
		a.runCmd(),
		a.inferCmd(),
		a.replCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := config.LoadWithPath(a.configPath, a.getenv)
	switch {
	case stderrors.Is(err, config.ErrNotFound):
		cfg = config.Defaults()
		cfg.REPL.History = config.ExpandHome(cfg.REPL.History, a.getenv)
	case err != nil:
		return fmt.Errorf("loading config: %w", err)
	}

	// Apply CLI overrides
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}

	// Full validation after CLI overrides applied
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	a.cfg = cfg

	w, closeLog, err := a.logOutput(cfg.Logging.Output)
	if err != nil {
		return err
	}
	a.closeLog = closeLog
	a.logger, err = logging.New(w, cfg.Logging.Level, cfg.Logging.Format, isTerminal(w))
	if err != nil {
		return err
	}
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}

	if size, _ := config.ParseSize(cfg.Eval.MaxStack); size > 0 {
		debug.SetMaxStack(int(size))
		a.logger.Debug("set max stack", "bytes", size)
	}
	return nil
}

func (a *app) logOutput(output string) (io.Writer, func() error, error) {
	switch output {
	case "", "stderr":
		return a.stderr, nil, nil
	case "stdout":
		return a.stdout, nil, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f.Close, nil
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}

// options returns the evaluation options every subcommand shares. A seed
// given on the command line wins over the configured one; zero means
// unseeded.
func (a *app) options(seed uint64, seedSet bool) []tracer.Option {
	opts := []tracer.Option{tracer.WithLogger(a.logger)}
	if !seedSet {
		seed = a.cfg.Seed
	}
	if seedSet || seed != 0 {
		opts = append(opts, tracer.WithSeed(seed))
	}
	return opts
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func printError(w io.Writer, err error) {
	if te, ok := errors.As(err); ok {
		fmt.Fprintln(w, te.PrettyString())
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
