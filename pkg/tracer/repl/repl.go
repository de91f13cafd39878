package repl

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/peterh/liner"

	"github.com/sambeau/tracer/pkg/tracer/errors"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/tracer"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const LOGO = `
▀█▀ █▀█ ▄▀█ █▀▀ █▀▀ █▀█
░█░ █▀▄ █▀█ █▄▄ ██▄ █▀▄ `

// Options configure a REPL session.
type Options struct {
	Version string
	History string // history file, empty to keep no history
	Session []tracer.Option
}

// REPL holds the state of an interactive session apart from the terminal,
// so that it can be driven line by line.
type REPL struct {
	session   *tracer.Session
	out       io.Writer
	showTrace bool
	buf       strings.Builder
}

// New returns a REPL writing to out.
func New(out io.Writer, opts ...tracer.Option) *REPL {
	return &REPL{session: tracer.NewSession(opts...), out: out}
}

// Start starts the REPL with line editing, history, and tab completion
func Start(ctx context.Context, out io.Writer, opts Options) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	r := New(out, opts.Session...)
	line.SetCompleter(r.complete)

	if opts.History != "" {
		if f, err := os.Open(opts.History); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(opts.History); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}()
	}

	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", opts.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	for {
		prompt := PROMPT
		if r.buf.Len() > 0 {
			prompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if r.buf.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				r.buf.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		complete, quit := r.Feed(ctx, input)
		if complete != "" {
			line.AppendHistory(complete)
		}
		if quit {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Feed handles one line of input. It returns the complete input once the
// parentheses balance, and whether the user asked to quit.
func (r *REPL) Feed(ctx context.Context, input string) (complete string, quit bool) {
	trimmed := strings.TrimSpace(input)
	if r.buf.Len() == 0 {
		switch {
		case trimmed == "exit" || trimmed == "quit":
			return "", true
		case strings.HasPrefix(trimmed, ":"):
			r.command(trimmed)
			return trimmed, false
		case trimmed == "":
			return "", false
		}
	}

	if r.buf.Len() > 0 {
		r.buf.WriteString("\n")
	}
	r.buf.WriteString(input)

	full := r.buf.String()
	if needsMoreInput(full) {
		return "", false
	}
	r.buf.Reset()
	r.eval(ctx, full)
	return full, false
}

func (r *REPL) eval(ctx context.Context, input string) {
	res, err := r.session.Eval(ctx, input)
	if err != nil {
		printError(r.out, err)
		return
	}
	if res.Value == object.NULL {
		io.WriteString(r.out, "OK")
	} else {
		io.WriteString(r.out, res.Value.Inspect())
	}
	if res.Score != 0 {
		fmt.Fprintf(r.out, "  ; score %g", res.Score)
	}
	io.WriteString(r.out, "\n")
	if r.showTrace {
		printTrace(r.out, res.Trace)
	}
}

// command handles REPL meta-commands that start with ':'
func (r *REPL) command(cmd string) {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help", ":h", ":?":
		if arg != "" {
			r.describe(arg)
			return
		}
		fmt.Fprintln(r.out, "REPL Commands:")
		fmt.Fprintln(r.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(r.out, "  :help NAME      Describe a built-in procedure")
		fmt.Fprintln(r.out, "  :env            Show variables in scope")
		fmt.Fprintln(r.out, "  :clear          Clear all user variables and the session trace")
		fmt.Fprintln(r.out, "  :trace          Toggle printing the trace of each input")
		fmt.Fprintln(r.out, "  :trace all      Print the whole session trace")
		fmt.Fprintln(r.out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(r.out, "")
		fmt.Fprintln(r.out, "Built-ins:")
		fmt.Fprintln(r.out, " ", strings.Join(r.session.Globals().Names(), " "))

	case ":env":
		r.printEnvironment()

	case ":clear":
		r.session.Reset()
		fmt.Fprintln(r.out, "Environment cleared")

	case ":trace":
		if arg == "all" {
			printTrace(r.out, r.session.Trace())
			return
		}
		r.showTrace = !r.showTrace
		if r.showTrace {
			fmt.Fprintln(r.out, "Trace output ON")
		} else {
			fmt.Fprintln(r.out, "Trace output OFF")
		}

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func (r *REPL) describe(name string) {
	meta, ok := r.session.Globals().Describe(name)
	if !ok {
		msg := fmt.Sprintf("No built-in named %s", name)
		if hint := errors.FindClosestMatch(name, r.session.Globals().Names()); hint != "" {
			msg += fmt.Sprintf(" (did you mean %s?)", hint)
		}
		fmt.Fprintln(r.out, msg)
		return
	}
	fmt.Fprintf(r.out, "%s (%s, arity %s)\n  %s\n", name, meta.Kind, meta.Arity, meta.Description)
}

// printEnvironment displays all user-defined variables in the environment
func (r *REPL) printEnvironment() {
	names := r.session.Names()
	if len(names) == 0 {
		fmt.Fprintln(r.out, "(no user variables)")
		return
	}
	slices.Sort(names)

	for _, name := range names {
		obj, err := r.session.Lookup(name)
		if err != nil {
			continue
		}
		value := obj.Inspect()
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		fmt.Fprintf(r.out, "  %s: %s = %s\n", name, obj.Type(), value)
	}
}

// complete returns completion suggestions for the symbol being typed.
func (r *REPL) complete(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	start := strings.LastIndexAny(line, " \t\n()[],") + 1
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	words := slices.Concat(errors.Keywords, r.session.Globals().Names(), r.session.Names())
	slices.Sort(words)
	words = slices.Compact(words)

	var matches []string
	for _, word := range words {
		if strings.HasPrefix(word, prefix) {
			matches = append(matches, line[:start]+word)
		}
	}
	return matches
}

// needsMoreInput checks if the input has unclosed parentheses, brackets
// or strings
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	depth := 0
	inString := false
	inComment := false
	escapeNext := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if inComment {
			if ch == '\n' {
				inComment = false
			}
			continue
		}
		if escapeNext {
			escapeNext = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escapeNext = true
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case ';':
			inComment = true
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		}
	}

	return depth > 0 || inString
}

func printTrace(out io.Writer, t *trie.Mutable) {
	dump := trie.Dump(t, object.Inspect)
	if dump == "" {
		fmt.Fprintln(out, "(empty trace)")
		return
	}
	for l := range strings.Lines(dump) {
		fmt.Fprint(out, "  ", l)
	}
	fmt.Fprintln(out)
}

// printError prints an evaluation error with structured formatting
func printError(out io.Writer, err error) {
	if te, ok := errors.As(err); ok {
		io.WriteString(out, te.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	if stderrors.Is(err, context.Canceled) {
		io.WriteString(out, "Interrupted\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
