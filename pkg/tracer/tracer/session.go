package tracer

import (
	"context"

	"github.com/sambeau/tracer/pkg/tracer/ast"
	"github.com/sambeau/tracer/pkg/tracer/evaluator"
	"github.com/sambeau/tracer/pkg/tracer/object"
	"github.com/sambeau/tracer/pkg/tracer/reader"
	"github.com/sambeau/tracer/pkg/tracer/stdlib"
	"github.com/sambeau/tracer/pkg/tracer/trie"
)

// Session evaluates successive inputs in one environment, so definitions
// made by earlier inputs stay visible. Every top-level form gets the next
// index in the session's trace. A Session is not safe for concurrent use.
type Session struct {
	settings *settings
	env      *evaluator.Frame
	trace    *trie.Mutable
	forms    int
}

// NewSession starts an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{settings: newSettings(opts)}
	s.Reset()
	return s
}

// Reset forgets every definition and the accumulated trace.
func (s *Session) Reset() {
	s.env = evaluator.Extend(evaluator.NewTopLevel(s.settings.globals))
	s.trace = trie.NewMutable()
	s.forms = 0
}

// Eval evaluates every form in src. The result holds the value of the last
// form, the summed score and the part of the session trace the forms
// wrote. A failing form leaves the definitions of earlier forms in place.
func (s *Session) Eval(ctx context.Context, src string) (*Result, error) {
	prog, err := reader.Parse(src)
	if err != nil {
		return nil, err
	}
	ctx = s.settings.context(ctx)

	res := &Result{Value: object.NULL, Trace: trie.NewMutable()}
	for _, form := range ast.Parts(prog) {
		key := trie.Index(s.forms)
		s.forms++

		out := trie.NewMutable()
		v, score, err := evaluator.EvalExpression(ctx, form, s.env, evaluator.Overlays{Output: out})
		s.trace.SetSubtrie(key, out)
		res.Trace.SetSubtrie(key, out)
		if err != nil {
			return nil, err
		}
		res.Value = v
		res.Score += score
	}
	return res, nil
}

// Trace returns everything recorded since the session started or was
// reset.
func (s *Session) Trace() *trie.Mutable {
	return s.trace
}

// Names returns the names defined in the session, in definition order.
func (s *Session) Names() []string {
	return s.env.Names()
}

// Lookup returns the value bound to name in the session.
func (s *Session) Lookup(name string) (object.Object, error) {
	return s.env.Lookup(name)
}

// Globals returns the top-level bindings the session resolves against.
func (s *Session) Globals() *stdlib.Globals {
	return s.settings.globals
}
