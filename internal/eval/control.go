package eval

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// control.go implements the evaluator's control-flow special forms:
// call/cc and continuation invocation, dynamic-wind, parameterize,
// guard/with-exception-handler/raise, call-with-values, and promise
// forcing. Full re-entrant continuations are backed by the windFrame
// stack rather than one-shot early return/break/continue signals.

// wrapSignal normalizes any error surfacing from a sub-evaluation into a
// *runtime.RaiseSignal, the only error shape the driver loop's raise search
// understands.
func wrapSignal(err error) error {
	if err == nil {
		return nil
	}
	if sig, ok := err.(*runtime.RaiseSignal); ok {
		return sig
	}
	if eo, ok := err.(*runtime.ErrorObject); ok {
		return runtime.Raise(eo)
	}
	return runtime.Raise(runtime.NewError("error", err.Error()))
}

// evalDefault evaluates a keyword parameter's default expression, supplied
// to runtime.BindFormals/bindValuesInto since internal/runtime cannot
// import this package.
func (e *Evaluator) evalDefault(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	return e.evalSync(expr, env)
}

// bindValuesInto defines formals directly into an existing environment
// (rather than allocating a fresh child, as runtime.BindFormals does),
// since let-values/let*-values combine several bindings' worth of formals
// into one shared frame.
func bindValuesInto(env *runtime.Environment, f ast.Formals, vals []runtime.Value, evalDefault func(ast.Expr, *runtime.Environment) (runtime.Value, error)) error {
	switch f.Kind {
	case ast.FormalsFixed:
		if len(vals) != len(f.Fixed) {
			return runtime.NewError("arity-error", "wrong number of values", runtime.NewExactInt(int64(len(f.Fixed))), runtime.NewExactInt(int64(len(vals))))
		}
		for i, id := range f.Fixed {
			env.Define(id, vals[i])
		}
		return nil
	case ast.FormalsVariable:
		env.Define(f.Rest, runtime.SliceToList(vals))
		return nil
	case ast.FormalsMixed:
		if len(vals) < len(f.Fixed) {
			return runtime.NewError("arity-error", "too few values", runtime.NewExactInt(int64(len(f.Fixed))), runtime.NewExactInt(int64(len(vals))))
		}
		for i, id := range f.Fixed {
			env.Define(id, vals[i])
		}
		env.Define(f.Rest, runtime.SliceToList(vals[len(f.Fixed):]))
		return nil
	default:
		// Keyword-formals let-values bindings are rare; reuse
		// runtime.BindFormals's full matching logic against a throwaway
		// child environment, then copy its bindings up into env.
		sub, err := runtime.BindFormals(f, vals, env, evalDefault)
		if err != nil {
			return err
		}
		sub.Range(func(id sym.ID, v runtime.Value) bool {
			env.Define(id, v)
			return true
		})
		return nil
	}
}

// --- call-with-values ---

// cwvOnDone runs once both the consumer and producer expressions of
// call-with-values have been evaluated to procedures: the producer is
// applied first (with frameCWVReceiver waiting to collect whatever values
// it returns), then the consumer is applied to all of them.
func cwvOnDone(e *Evaluator, vals []runtime.Value, k *Cont) (state, error) {
	consumer, producer := vals[0], vals[1]
	return applying(producer, nil, push(&frameCWVReceiver{consumer: consumer}, k)), nil
}

// --- dynamic-wind ---

func dynamicWindOnDone(e *Evaluator, vals []runtime.Value, k *Cont) (state, error) {
	before, thunk, after := vals[0], vals[1], vals[2]
	return applying(before, nil, push(&frameDWBeforeDone{thunk: thunk, after: after}, k)), nil
}

type frameDWBeforeDone struct {
	thunk, after runtime.Value
}

func (*frameDWBeforeDone) frameNode() {}

// --- parameterize ---

// paramBinding pairs a parameter object with its already-converted new
// value, gathered before any are installed.
type paramBinding struct {
	param *runtime.Parameter
	value runtime.Value
}

func parameterizeOnDone(body []ast.Expr, outerEnv *runtime.Environment) func(*Evaluator, []runtime.Value, *Cont) (state, error) {
	return func(e *Evaluator, vals []runtime.Value, k *Cont) (state, error) {
		n := len(vals) / 2
		params := make([]*runtime.Parameter, n)
		newVals := make([]runtime.Value, n)
		for i := 0; i < n; i++ {
			p, ok := vals[2*i].(*runtime.Parameter)
			if !ok {
				return state{}, runtime.Raise(runtime.NewError("type-error", "parameterize: not a parameter object"))
			}
			raw := vals[2*i+1]
			if p.Converter != nil {
				converted, err := e.applySync(p.Converter, []runtime.Value{raw})
				if err != nil {
					return state{}, wrapSignal(err)
				}
				raw = converted
			}
			params[i] = p
			newVals[i] = raw
		}
		for i, p := range params {
			p.Stack = append(p.Stack, newVals[i])
		}
		node := &windFrame{
			native: true,
			nativeBefore: func() {
				for i, p := range params {
					p.Stack = append(p.Stack, newVals[i])
				}
			},
			nativeAfter: func() {
				for i := len(params) - 1; i >= 0; i-- {
					s := params[i].Stack
					params[i].Stack = s[:len(s)-1]
				}
			},
			next: e.wind,
		}
		e.wind = node
		return evalSeqTail(body, outerEnv, push(&frameParamRestore{node: node}, k)), nil
	}
}

// --- call/cc and continuation invocation ---

// unwindTo pops e.wind down to (but not including) mark, running every
// exited frame's after/nativeAfter, used when a raised condition or an
// invoked continuation escapes outward past active dynamic-wind or
// parameterize extents.
func (e *Evaluator) unwindTo(mark *windFrame) error {
	for e.wind != mark && e.wind != nil {
		node := e.wind
		e.wind = node.next
		if err := runWindAfter(e, node); err != nil {
			return err
		}
	}
	return nil
}

func runWindAfter(e *Evaluator, n *windFrame) error {
	if n.native {
		n.nativeAfter()
		return nil
	}
	_, err := e.applySync(n.after, nil)
	return err
}

func runWindBefore(e *Evaluator, n *windFrame) error {
	if n.native {
		n.nativeBefore()
		return nil
	}
	_, err := e.applySync(n.before, nil)
	return err
}

func commonWindAncestor(a, b *windFrame) *windFrame {
	set := make(map[*windFrame]bool)
	for n := a; n != nil; n = n.next {
		set[n] = true
	}
	for n := b; n != nil; n = n.next {
		if set[n] {
			return n
		}
	}
	return nil
}

// crossWind transitions e.wind from its current value to target, running
// after-thunks for every extent being exited and before-thunks for every
// extent being entered, in the correct order.
func (e *Evaluator) crossWind(target *windFrame) error {
	ancestor := commonWindAncestor(e.wind, target)
	if err := e.unwindTo(ancestor); err != nil {
		return err
	}
	var toEnter []*windFrame
	for n := target; n != ancestor; n = n.next {
		toEnter = append(toEnter, n)
	}
	for i := len(toEnter) - 1; i >= 0; i-- {
		node := toEnter[i]
		if err := runWindBefore(e, node); err != nil {
			return err
		}
		e.wind = node
	}
	return nil
}

// --- promise forcing (SRFI 45) ---

// forceStart begins forcing p, iterating through a chain of promises that
// forward to one another (a thunk that itself forces another promise)
// without recursing through the Go stack.
func forceStart(p *runtime.Promise, k *Cont) state {
	if p.State == runtime.PromiseForced {
		return returning(p.Result, k)
	}
	p.State = runtime.PromiseForcing
	return applying(p.Thunk, nil, push(&frameForceMemo{chain: []*runtime.Promise{p}}, k))
}

// forceResume handles the return of a promise's thunk. If that value is
// itself an unforced promise (a thunk that forced a further promise in
// tail position), forcing continues on that promise instead of recursing;
// once a concrete value is reached, it is memoized into every promise
// along the chain.
func (e *Evaluator) forceResume(value runtime.Value, chain []*runtime.Promise, k *Cont) (state, error) {
	if inner, ok := value.(*runtime.Promise); ok {
		if inner.State == runtime.PromiseForced {
			value = inner.Result
		} else {
			chain = append(chain, inner)
			inner.State = runtime.PromiseForcing
			return applying(inner.Thunk, nil, push(&frameForceMemo{chain: chain}, k)), nil
		}
	}
	for _, p := range chain {
		p.State = runtime.PromiseForced
		p.Result = value
		p.Thunk = nil
	}
	return returning(value, k), nil
}
