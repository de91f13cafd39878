package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/tracer/pkg/tracer/tracer"
)

// feed sends lines to r and fails if they do not end a complete input.
func feed(t *testing.T, r *REPL, lines ...string) {
	t.Helper()
	var complete string
	for _, l := range lines {
		var quit bool
		if complete, quit = r.Feed(context.Background(), l); quit {
			t.Fatalf("unexpected quit on %q", l)
		}
	}
	if complete == "" {
		t.Fatalf("input %q is still waiting for more lines", lines)
	}
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"(+ 1 2)", false},
		{"(+ 1", true},
		{"(tuple [1 2", true},
		{"(tuple [1 2])", false},
		{`(list ")")`, false},
		{`(list "(")`, false},
		{`(list "unterminated`, true},
		{`(list "a\"b")`, false},
		{"(+ 1 ; (\n 2)", false},
		{"(+ 1 ; )\n", true},
		{"1)", false},
	}
	for _, tt := range tests {
		if got := needsMoreInput(tt.input); got != tt.want {
			t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFeed(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)

	feed(t, r, "(define square (gen [x]", "  (* x x)))")
	feed(t, r, "(square 7)")
	feed(t, r, "(block)")

	if !strings.Contains(out.String(), "49\n") {
		t.Errorf("expected 49 in output, got %q", out.String())
	}
	if !strings.HasSuffix(out.String(), "OK\n") {
		t.Errorf("nil results should print OK, got %q", out.String())
	}

	complete, quit := r.Feed(context.Background(), "exit")
	if !quit || complete != "" {
		t.Errorf("exit: got (%q, %v)", complete, quit)
	}
}

func TestFeedReturnsCompleteInput(t *testing.T) {
	r := New(&bytes.Buffer{})
	if complete, _ := r.Feed(context.Background(), "(+ 1"); complete != "" {
		t.Errorf("partial input should not be complete, got %q", complete)
	}
	if complete, _ := r.Feed(context.Background(), "2)"); complete != "(+ 1\n2)" {
		t.Errorf("complete input = %q", complete)
	}
}

func TestFeedErrors(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, tracer.WithSeed(1))

	feed(t, r, "(undefined-thing 1)")
	if !strings.Contains(out.String(), "Evaluation error") || !strings.Contains(out.String(), "at: 0") {
		t.Errorf("expected a located evaluation error, got %q", out.String())
	}

	out.Reset()
	feed(t, r, "(+ 1 2))")
	if !strings.Contains(out.String(), "Syntax error") {
		t.Errorf("expected a syntax error, got %q", out.String())
	}
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)

	feed(t, r, ":env")
	if !strings.Contains(out.String(), "(no user variables)") {
		t.Errorf(":env on a fresh session: %q", out.String())
	}

	out.Reset()
	feed(t, r, "(define x 42)", ":env")
	if !strings.Contains(out.String(), "  x: INTEGER = 42") {
		t.Errorf(":env should list x, got %q", out.String())
	}

	out.Reset()
	feed(t, r, ":trace", "(+ x 1)")
	if !strings.Contains(out.String(), "Trace output ON") || !strings.Contains(out.String(), "  1/+ = 43") {
		t.Errorf(":trace should print the input's trace, got %q", out.String())
	}

	out.Reset()
	feed(t, r, ":trace all")
	if !strings.Contains(out.String(), "0/x = 42") || !strings.Contains(out.String(), "1/+ = 43") {
		t.Errorf(":trace all should print the session trace, got %q", out.String())
	}

	out.Reset()
	feed(t, r, ":clear", ":env")
	if !strings.Contains(out.String(), "Environment cleared") || !strings.Contains(out.String(), "(no user variables)") {
		t.Errorf(":clear: %q", out.String())
	}

	out.Reset()
	feed(t, r, ":bogus")
	if !strings.Contains(out.String(), "Unknown command: :bogus") {
		t.Errorf("unknown command: %q", out.String())
	}
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)

	feed(t, r, ":help")
	for _, want := range []string{"REPL Commands:", ":trace", "flip", "gaussian"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf(":help should mention %s", want)
		}
	}

	out.Reset()
	feed(t, r, ":help flip")
	if !strings.Contains(out.String(), "flip (special, arity 0-1)") {
		t.Errorf(":help flip = %q", out.String())
	}

	out.Reset()
	feed(t, r, ":help gausian")
	if !strings.Contains(out.String(), "did you mean gaussian?") {
		t.Errorf(":help with a typo = %q", out.String())
	}
}

func TestComplete(t *testing.T) {
	r := New(&bytes.Buffer{})
	feed(t, r, "(define gamma-prior 1)")

	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"(", nil},
		{"(ga", []string{"(gamma-prior", "(gaussian"}},
		{"(flip (gen", []string{"(flip (gen"}},
		{"[tr", []string{"[trace", "[trace-get", "[trace-has?", "[trace-set", "[true"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, r.complete(tt.line)); diff != "" {
				t.Errorf("complete(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}
