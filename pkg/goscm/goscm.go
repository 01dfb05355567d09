// Package goscm is the embeddable public facade: a single entry point that
// wires the interner, global environment, standard library, module loader,
// and FFI bridge together and evaluates source text against them.
//
// New()/With... functional options return an *Engine with an Eval method;
// there is no separate Compile step, since a top-level form is read,
// expanded, and evaluated in one pass with no intervening artifact worth
// caching.
package goscm

import (
	"bytes"
	"context"
	"io"

	"github.com/go-scm/go-scm/internal/builtins"
	"github.com/go-scm/go-scm/internal/eval"
	"github.com/go-scm/go-scm/internal/ffi"
	"github.com/go-scm/go-scm/internal/macro"
	"github.com/go-scm/go-scm/internal/module"
	"github.com/go-scm/go-scm/internal/printer"
	"github.com/go-scm/go-scm/internal/reader"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// Engine bundles every piece of interpreter state an embedding host would
// otherwise have to wire up by hand: interner, global environment,
// evaluator, macro expander's syntax environment, module loader, and FFI
// bridge. One Engine is one complete instance, except that the standard
// current-output-port and current-input-port parameters are process-wide
// and shared by every Engine.
type Engine struct {
	Interner  *sym.Interner
	Global    *runtime.Environment
	SyntaxEnv *macro.SyntaxEnv
	Evaluator *eval.Evaluator
	Loader    *module.Loader
	FFI       *ffi.Bridge

	stepBudget  int64
	searchPaths []string
	registry    *builtins.Registry
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOutput redirects current-output-port to w instead of os.Stdout, for
// capturing a script's display/write output into a buffer. It replaces the
// bottom value of the process-wide parameter, so the redirection applies to
// every Engine in the process, not only this one.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		sink, ok := w.(interface {
			WriteString(string) (int, error)
		})
		if !ok {
			sink = &writerSink{w}
		}
		builtins.CurrentOutputPort.Stack[0] = &runtime.Port{Direction: runtime.PortOutput, Sink: sink}
	}
}

// WithInput redirects current-input-port to read from r instead of
// os.Stdin. Like WithOutput, it changes the process-wide parameter shared by
// every Engine.
func WithInput(r io.Reader) Option {
	return func(e *Engine) {
		source, ok := r.(interface {
			ReadRune() (rune, int, error)
		})
		if !ok {
			source = &runeSource{r: r}
		}
		builtins.CurrentInputPort.Stack[0] = &runtime.Port{Direction: runtime.PortInput, Source: source}
	}
}

// WithStepBudget bounds the number of trampoline steps a single Eval call
// may take before returning an evaluation-steps-exceeded condition.
func WithStepBudget(n int64) Option {
	return func(e *Engine) { e.stepBudget = n }
}

// WithSearchPaths sets the directories the engine's module loader
// (Engine.Loader) searches, in order, when Loader.Load resolves a module
// name.
func WithSearchPaths(paths ...string) Option {
	return func(e *Engine) { e.searchPaths = paths }
}

// WithRegistry binds every entry of a caller-supplied registry into the
// global environment after New has installed the full default library, so
// an entry of r replaces a default procedure of the same name. The default
// procedures are always installed: r can extend or override the standard
// library but not restrict it.
func WithRegistry(r *builtins.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithContext attaches ctx to the engine's evaluator so cancellation
// (deadline, explicit Cancel) interrupts a running Eval between trampoline
// steps.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.Evaluator.Ctx = ctx }
}

// New builds a fully wired Engine: a fresh interner and global environment,
// the standard library installed, stdout/stdin bound as the default ports,
// and a module loader over the WithSearchPaths directories (none when that
// option is not given).
func New(opts ...Option) (*Engine, error) {
	interner := sym.New()
	global := runtime.NewEnvironment()

	e := &Engine{
		Interner:  interner,
		Global:    global,
		SyntaxEnv: macro.NewSyntaxEnv(),
		FFI:       ffi.NewBridge(),
		registry:  builtins.DefaultRegistry,
	}
	e.Evaluator = eval.NewEvaluator(global)
	e.Evaluator.Interner = interner

	for _, opt := range opts {
		opt(e)
	}

	builtins.Install(interner, global)
	if e.registry != builtins.DefaultRegistry {
		e.registry.Each(func(ent *builtins.Entry) {
			global.Define(interner.Intern(ent.Name), ent.Primitive)
		})
	}
	e.FFI.Install(interner, global)
	e.Loader = module.NewLoader(interner, e.searchPaths)
	e.Evaluator.StepBudget = e.stepBudget

	return e, nil
}

// Eval reads every datum in src, expands and evaluates each in the global
// environment in order, and returns the value of the last one.
func (e *Engine) Eval(src string) (runtime.Value, error) {
	rd := reader.NewBuilder(src, e.Interner).Build()
	datums, readErrs := rd.ReadAll()
	if len(readErrs) > 0 {
		return nil, readErrs[0]
	}

	expander := macro.NewExpander(e.Interner)
	var result runtime.Value = runtime.Unspecified{}
	for _, d := range datums {
		expr, err := expander.Expand(d, e.SyntaxEnv)
		if err != nil {
			return nil, err
		}
		v, err := e.Evaluator.Eval(expr, e.Global)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// EvalString is Eval followed by printer.WriteString on a successful
// result, the shape a REPL or one-shot CLI invocation wants directly.
func (e *Engine) EvalString(src string) (string, error) {
	v, err := e.Eval(src)
	if err != nil {
		return "", err
	}
	return printer.WriteString(v), nil
}

// writerSink adapts an arbitrary io.Writer to the narrower WriteString
// contract runtime.Port.Sink requires, for a caller-supplied WithOutput
// writer that doesn't already expose one (e.g. *bytes.Buffer does; a plain
// io.Writer wrapper doesn't).
type writerSink struct{ w io.Writer }

func (s *writerSink) WriteString(str string) (int, error) {
	return io.WriteString(s.w, str)
}

// runeSource adapts an arbitrary io.Reader to the ReadRune contract
// runtime.Port.Source requires.
type runeSource struct {
	r   io.Reader
	buf *bytes.Buffer
}

func (s *runeSource) ReadRune() (rune, int, error) {
	if s.buf == nil {
		var b bytes.Buffer
		if _, err := io.Copy(&b, s.r); err != nil {
			return 0, 0, err
		}
		s.buf = &b
	}
	return s.buf.ReadRune()
}
