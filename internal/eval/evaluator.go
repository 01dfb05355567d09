package eval

import (
	"context"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/errors"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// Evaluator owns the single piece of mutable state the trampoline needs
// beyond the (state, *Cont) pair itself: the dynamic-wind stack, an
// optional cancellation token and step budget, and the global environment
// new top-level defines land in.
type Evaluator struct {
	Global *runtime.Environment
	wind   *windFrame

	// Interner, if non-nil, lets an unbound-variable condition attach a
	// "did you mean" suggestion (runtime.SuggestUnbound) by resolving the
	// candidate identifiers visible at the point of failure back to names.
	// Left nil, unbound-variable messages are reported without a suggestion.
	Interner *sym.Interner

	// Ctx, if non-nil, is checked between trampoline steps; cancellation
	// unwinds pending dynamic-wind extents before returning.
	Ctx context.Context
	// StepBudget caps the number of trampoline steps; zero means unlimited.
	StepBudget int64
	steps int64

	// trace is a best-effort call stack of applied closure names, used only
	// to build a diagnostic StackTrace for an uncaught condition. It is
	// not load-bearing for evaluation semantics, only for error reporting.
	trace []errors.StackFrame
}

// NewEvaluator creates an Evaluator rooted at global.
func NewEvaluator(global *runtime.Environment) *Evaluator {
	return &Evaluator{Global: global}
}

// Eval runs expr to completion in env, starting with an empty continuation,
// and returns its value or an error (always a *runtime.RaiseSignal for a
// Scheme-level condition; a plain Go error only for cancellation/step-budget
// exhaustion).
func (e *Evaluator) Eval(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	return e.Run(evaluating(expr, env, nil))
}

// evalSync is Eval under another name, used internally wherever a
// synchronous (non-tail, host-stack-recursive) sub-evaluation is needed: a
// keyword parameter's default expression, an unquoted expression inside a
// quasiquote template. Raising inside one of these nested calls
// surfaces as a plain Go error to the enclosing step, which re-raises it
// against its own (real) continuation, so guard/with-exception-handler
// installed further out still see it.
func (e *Evaluator) evalSync(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	return e.Run(evaluating(expr, env, nil))
}

// applySync applies proc to args synchronously: dynamic-wind's before/after
// thunks, parameter converters, future bodies, and the procedure arguments
// of the higher-order builtins.
func (e *Evaluator) applySync(proc runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return e.Run(applying(proc, args, nil))
}

// Run drives the trampoline from s to completion, handling raised
// conditions by searching outward from the point of failure
// and stopping only when a Returning state reaches the bottom of its own
// continuation (k == nil).
func (e *Evaluator) Run(s state) (runtime.Value, error) {
	for {
		if e.Ctx != nil {
			select {
			case <-e.Ctx.Done():
				if err := e.unwindTo(nil); err != nil {
					return nil, err
				}
				return nil, runtime.NewError("cancelled", "evaluation cancelled")
			default:
			}
		}
		if e.StepBudget > 0 {
			e.steps++
			if e.steps > e.StepBudget {
				if err := e.unwindTo(nil); err != nil {
					return nil, err
				}
				return nil, runtime.NewError("evaluation-steps-exceeded", "evaluation step budget exhausted")
			}
		}

		ns, err := e.step(s)
		if err != nil {
			sig, ok := err.(*runtime.RaiseSignal)
			if !ok {
				return nil, err
			}
			hs, herr := e.handleRaise(sig, s.k)
			if herr != nil {
				return nil, herr
			}
			s = hs
			continue
		}
		if ns.tag == stReturning && ns.k == nil {
			return ns.value, nil
		}
		s = ns
	}
}

// stepApplying dispatches a fully-evaluated procedure value against its
// already-evaluated arguments.
func (e *Evaluator) stepApplying(proc runtime.Value, args []runtime.Value, k *Cont) (state, error) {
	switch p := proc.(type) {
	case *runtime.Primitive:
		if p.Name == "call/cc" || p.Name == "call-with-current-continuation" {
			if len(args) != 1 {
				return state{}, runtime.Raise(runtime.NewError("arity-error", "call/cc expects exactly one argument"))
			}
			return e.callCC(args[0], k)
		}
		if p.Name == "apply" {
			return e.stepApply(args, k)
		}
		if p.Name == "force" {
			if len(args) != 1 {
				return state{}, runtime.Raise(runtime.NewError("arity-error", "force expects exactly one argument"))
			}
			pr, ok := args[0].(*runtime.Promise)
			if !ok {
				return returning(args[0], k), nil
			}
			return forceStart(pr, k), nil
		}
		switch p.Name {
		case "map", "for-each", "vector-map", "vector-for-each", "string-map", "string-for-each":
			return e.stepHigherOrder(p.Name, args, k)
		case "make-parameter":
			return e.stepMakeParameter(args, k)
		case "call-with-output-string":
			return e.stepCallWithOutputString(args, k)
		case "with-output-to-string":
			return e.stepWithOutputToString(args, k)
		case "future":
			return e.stepFuture(args, k)
		}
		if len(args) < p.MinArgs || (p.MaxArgs >= 0 && len(args) > p.MaxArgs) {
			return state{}, runtime.Raise(runtime.NewError("arity-error", "wrong number of arguments to "+p.Name,
				runtime.NewExactInt(int64(p.MinArgs)), runtime.NewExactInt(int64(len(args)))))
		}
		v, err := p.Fn(args)
		if err != nil {
			return state{}, wrapSignal(err)
		}
		return returning(v, k), nil

	case *runtime.Closure:
		env, err := runtime.BindFormals(p.Formals, args, p.Env, e.evalDefault)
		if err != nil {
			return state{}, wrapSignal(err)
		}
		e.pushTrace(p.Name)
		return evalSeqTail(p.Body, env, k), nil

	case *runtime.CaseLambdaProc:
		for _, c := range p.Clauses {
			if runtime.FormalsAccepts(c.Formals, len(args)) {
				env, err := runtime.BindFormals(c.Formals, args, p.Env, e.evalDefault)
				if err != nil {
					return state{}, wrapSignal(err)
				}
				return evalSeqTail(c.Body, env, k), nil
			}
		}
		return state{}, runtime.Raise(runtime.NewError("arity-error", "no matching case-lambda clause for "+p.Name,
			runtime.NewExactInt(int64(len(args)))))

	case *runtime.Continuation:
		return e.invokeContinuation(p, args, k)

	case *runtime.Parameter:
		return e.stepApplyParameter(p, args, k)

	default:
		return state{}, runtime.Raise(runtime.NewError("type-error", "not a procedure"))
	}
}

// callCC captures the current continuation (and dynamic-wind stack) as a
// first-class *runtime.Continuation value, then applies proc to it in tail
// position.
func (e *Evaluator) callCC(proc runtime.Value, k *Cont) (state, error) {
	cont := &runtime.Continuation{Frames: k, WindStack: e.wind}
	return applying(proc, []runtime.Value{cont}, k), nil
}

// stepApplyParameter implements calling a parameter object as a procedure:
// zero arguments reads the value visible at the current dynamic extent
// (the top of its parameterize stack); one argument sets that same slot
// directly, a common extension beyond R7RS's read-only parameter
// application that several Schemes in practice support.
func (e *Evaluator) stepApplyParameter(p *runtime.Parameter, args []runtime.Value, k *Cont) (state, error) {
	switch len(args) {
	case 0:
		return returning(p.Stack[len(p.Stack)-1], k), nil
	case 1:
		v := args[0]
		if p.Converter != nil {
			converted, err := e.applySync(p.Converter, []runtime.Value{v})
			if err != nil {
				return state{}, wrapSignal(err)
			}
			v = converted
		}
		p.Stack[len(p.Stack)-1] = v
		return returning(runtime.Unspecified{}, k), nil
	default:
		return state{}, runtime.Raise(runtime.NewError("arity-error", "parameter object expects 0 or 1 arguments"))
	}
}

// invokeContinuation discards the current continuation and installs the
// captured one, crossing dynamic-wind extents as needed. It is reached either in tail position
// (the *Cont parameter is unused beyond being the enclosing k, since the
// whole point is to replace it) or from a non-tail call; both behave
// identically because invoking a continuation is always a non-local jump.
func (e *Evaluator) invokeContinuation(c *runtime.Continuation, args []runtime.Value, _ *Cont) (state, error) {
	capturedK, _ := c.Frames.(*Cont)
	capturedWind, _ := c.WindStack.(*windFrame)
	if err := e.crossWind(capturedWind); err != nil {
		return state{}, wrapSignal(err)
	}
	var value runtime.Value
	switch len(args) {
	case 1:
		value = args[0]
	default:
		value = &runtime.Values{Items: args}
	}
	return returning(value, capturedK), nil
}

// stepApply implements R7RS `apply`, flattening the trailing list argument
// and re-entering stepApplying in tail position — unlike a primitive
// implemented as an ordinary Go function, this keeps `apply` from growing
// continuation space, which matters since it is the idiomatic way to call a
// procedure with a computed argument list inside a loop.
func (e *Evaluator) stepApply(args []runtime.Value, k *Cont) (state, error) {
	if len(args) < 2 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "apply expects a procedure and at least one list argument"))
	}
	proc := args[0]
	last := args[len(args)-1]
	tail, proper := runtime.ListToSlice(last)
	if !proper {
		return state{}, runtime.Raise(runtime.NewError("type-error", "apply: last argument is not a proper list"))
	}
	flat := make([]runtime.Value, 0, len(args)-2+len(tail))
	flat = append(flat, args[1:len(args)-1]...)
	flat = append(flat, tail...)
	return applying(proc, flat, k), nil
}

// namedLetID extracts the binding identifier a named let desugars its
// self-referential closure to.
func namedLetID(n *ast.Let) sym.ID { return n.NameID }

// pushTrace records a closure application for diagnostic purposes
// (BuildTrace below). It is a bounded ring, not a precise call stack: a
// trampoline reuses the same continuation for tail calls, so there is no
// single point at which to "pop" a frame the way a host-recursive
// interpreter would. Recording every application and capping the length
// gives an uncaught error's report the most recent procedures entered,
// which is the useful part of a trace for debugging a runaway or failing
// program without the bookkeeping a fully accurate shadow call stack would
// need.
func (e *Evaluator) pushTrace(name string) {
	if name == "" {
		name = "#<anonymous>"
	}
	const maxTrace = 64
	e.trace = append(e.trace, errors.NewStackFrame(name, "", nil))
	if len(e.trace) > maxTrace {
		e.trace = e.trace[len(e.trace)-maxTrace:]
	}
}

// BuildTrace turns the best-effort closure-name trace into an
// errors.StackTrace for an uncaught condition's user-visible report. Spans
// are omitted: continuation frames don't carry source positions, a
// deliberate simplification that reduces diagnostic fidelity without
// changing the frame set itself.
func (e *Evaluator) BuildTrace() errors.StackTrace {
	trace := make(errors.StackTrace, len(e.trace))
	copy(trace, e.trace)
	return trace
}
