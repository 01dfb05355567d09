package eval

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// frames.go defines every concrete continuation Frame and the resume
// dispatch: given a Returning state's value and the frame popped off its
// continuation, produce the next state, one case per suspended-operation
// kind.

// frameGather evaluates a fixed list of expressions left to right,
// accumulating their values, then hands the completed slice to onDone. It
// backs every construct that needs "evaluate N subexpressions, then do
// something with all of them": procedure application, dynamic-wind's three
// thunk expressions, and parameterize's binding pairs.
type frameGather struct {
	pending []ast.Expr
	done []runtime.Value
	env *runtime.Environment
	onDone func(e *Evaluator, vals []runtime.Value, k *Cont) (state, error)
}

func (*frameGather) frameNode() {}

func gatherStart(e *Evaluator, exprs []ast.Expr, env *runtime.Environment, k *Cont, onDone func(*Evaluator, []runtime.Value, *Cont) (state, error)) (state, error) {
	return gatherStep(e, exprs, nil, env, k, onDone)
}

func gatherStep(e *Evaluator, pending []ast.Expr, done []runtime.Value, env *runtime.Environment, k *Cont, onDone func(*Evaluator, []runtime.Value, *Cont) (state, error)) (state, error) {
	if len(pending) == 0 {
		return onDone(e, done, k)
	}
	return evaluating(pending[0], env, push(&frameGather{pending: pending[1:], done: done, env: env, onDone: onDone}, k)), nil
}

// frameIf resumes a test value into whichever branch the If node names.
type frameIf struct {
	consequent, alternative ast.Expr
	env *runtime.Environment
}

func (*frameIf) frameNode() {}

// frameBegin holds the not-yet-evaluated remainder of a sequence; only the
// final expression is evaluated in tail position.
type frameBegin struct {
	rest []ast.Expr
	env *runtime.Environment
}

func (*frameBegin) frameNode() {}

func evalSeqTail(body []ast.Expr, env *runtime.Environment, k *Cont) state {
	if len(body) == 0 {
		return returning(runtime.Unspecified{}, k)
	}
	if len(body) == 1 {
		return evaluating(body[0], env, k)
	}
	return evaluating(body[0], env, push(&frameBegin{rest: body[1:], env: env}, k))
}

type frameDefine struct {
	id sym.ID
	env *runtime.Environment
}

func (*frameDefine) frameNode() {}

type frameSetVar struct {
	id sym.ID
	name string
	env *runtime.Environment
}

func (*frameSetVar) frameNode() {}

type frameAnd struct {
	rest []ast.Expr
	env *runtime.Environment
}

func (*frameAnd) frameNode() {}

func andStep(tests []ast.Expr, env *runtime.Environment, k *Cont) state {
	if len(tests) == 0 {
		return returning(runtime.Boolean(true), k)
	}
	if len(tests) == 1 {
		return evaluating(tests[0], env, k)
	}
	return evaluating(tests[0], env, push(&frameAnd{rest: tests[1:], env: env}, k))
}

type frameOr struct {
	rest []ast.Expr
	env *runtime.Environment
}

func (*frameOr) frameNode() {}

func orStep(tests []ast.Expr, env *runtime.Environment, k *Cont) state {
	if len(tests) == 0 {
		return returning(runtime.Boolean(false), k)
	}
	if len(tests) == 1 {
		return evaluating(tests[0], env, k)
	}
	return evaluating(tests[0], env, push(&frameOr{rest: tests[1:], env: env}, k))
}

// frameTest backs both when and unless: invert distinguishes them.
type frameTest struct {
	body []ast.Expr
	env *runtime.Environment
	invert bool
}

func (*frameTest) frameNode() {}

type frameCond struct {
	clauses []ast.CondClause
	env *runtime.Environment
}

func (*frameCond) frameNode() {}

func condStep(clauses []ast.CondClause, env *runtime.Environment, k *Cont) state {
	if len(clauses) == 0 {
		return returning(runtime.Unspecified{}, k)
	}
	c := clauses[0]
	if c.Test == nil { // else
		return evalSeqTail(c.Body, env, k)
	}
	return evaluating(c.Test, env, push(&frameCond{clauses: clauses, env: env}, k))
}

// frameArrowApply evaluates a `=> receiver` expression, then applies the
// receiver to the stored test/key value in tail position.
type frameArrowApply struct{ value runtime.Value }

func (*frameArrowApply) frameNode() {}

type frameCaseKey struct {
	clauses []ast.CaseClause
	env *runtime.Environment
}

func (*frameCaseKey) frameNode() {}

func caseStep(clauses []ast.CaseClause, key runtime.Value, env *runtime.Environment, k *Cont) state {
	if len(clauses) == 0 {
		return returning(runtime.Unspecified{}, k)
	}
	c := clauses[0]
	matched := c.Datums == nil // else clause
	if !matched {
		for _, d := range c.Datums {
			if runtime.Eqv(runtime.FromDatum(d), key) {
				matched = true
				break
			}
		}
	}
	if !matched {
		return caseStep(clauses[1:], key, env, k)
	}
	if c.Arrow != nil {
		return evaluating(c.Arrow, env, push(&frameArrowApply{value: key}, k))
	}
	return evalSeqTail(c.Body, env, k)
}

// --- let / let* / letrec / letrec* / named let ---

// letBindingsOnDone builds the onDone continuation for a plain (non-named)
// let: one fresh environment binding every name at once.
func letBindingsOnDone(bindings []ast.Binding, outerEnv *runtime.Environment, body []ast.Expr) func(*Evaluator, []runtime.Value, *Cont) (state, error) {
	return func(e *Evaluator, vals []runtime.Value, k *Cont) (state, error) {
		newEnv := runtime.NewEnclosedEnvironment(outerEnv)
		for i, b := range bindings {
			newEnv.Define(b.ID, vals[i])
		}
		return evalSeqTail(body, newEnv, k), nil
	}
}

// namedLetOnDone builds the onDone continuation for a named let: a
// self-referential closure applied to the gathered init values, in tail
// position.
func namedLetOnDone(bindings []ast.Binding, outerEnv *runtime.Environment, body []ast.Expr, nameID sym.ID, nameStr string) func(*Evaluator, []runtime.Value, *Cont) (state, error) {
	return func(e *Evaluator, vals []runtime.Value, k *Cont) (state, error) {
		loopEnv := runtime.NewEnclosedEnvironment(outerEnv)
		formals := ast.Formals{Kind: ast.FormalsFixed}
		for _, b := range bindings {
			formals.Fixed = append(formals.Fixed, b.ID)
			formals.FixedStr = append(formals.FixedStr, b.Name)
		}
		closure := &runtime.Closure{Name: nameStr, Formals: formals, Body: body, Env: loopEnv}
		loopEnv.Define(nameID, closure)
		return applying(closure, vals, k), nil
	}
}

// frameLetStarStep threads a growing chain of one-binding environments, so
// each init sees exactly the bindings before it.
type frameLetStarStep struct {
	bindings []ast.Binding
	env *runtime.Environment
	body []ast.Expr
}

func (*frameLetStarStep) frameNode() {}

func letStarStep(bindings []ast.Binding, env *runtime.Environment, body []ast.Expr, k *Cont) state {
	if len(bindings) == 0 {
		return evalSeqTail(body, env, k)
	}
	return evaluating(bindings[0].Init, env, push(&frameLetStarStep{bindings: bindings, env: env, body: body}, k))
}

// frameLetRecStep shares a single environment across every binding,
// pre-populated with Undefined so mutually recursive references resolve;
// inits are evaluated in sequence, a safe refinement of the standard's
// "evaluated in unspecified order" allowance.
type frameLetRecStep struct {
	bindings []ast.Binding
	env      *runtime.Environment
	body []ast.Expr
}

func (*frameLetRecStep) frameNode() {}

func letRecStep(bindings []ast.Binding, env *runtime.Environment, body []ast.Expr, k *Cont) state {
	if len(bindings) == 0 {
		return evalSeqTail(body, env, k)
	}
	return evaluating(bindings[0].Init, env, push(&frameLetRecStep{bindings: bindings, env: env, body: body}, k))
}

// --- let-values / let*-values ---

type frameLVPlainGather struct {
	bindings []ast.LetValuesBinding // remaining to evaluate
	all []ast.LetValuesBinding // full original list, for formals lookup
	outerEnv *runtime.Environment
	acc [][]runtime.Value
	body []ast.Expr
}

func (*frameLVPlainGather) frameNode() {}

func lvPlainStep(e *Evaluator, bindings []ast.LetValuesBinding, allBindings []ast.LetValuesBinding, outerEnv *runtime.Environment, acc [][]runtime.Value, body []ast.Expr, k *Cont) (state, error) {
	if len(bindings) == 0 {
		newEnv := runtime.NewEnclosedEnvironment(outerEnv)
		for i, b := range allBindings {
			if err := bindValuesInto(newEnv, b.Formals, acc[i], e.evalDefault); err != nil {
				return state{}, wrapSignal(err)
			}
		}
		return evalSeqTail(body, newEnv, k), nil
	}
	return evaluating(bindings[0].Init, outerEnv, push(&frameLVPlainGather{bindings: bindings, all: allBindings, outerEnv: outerEnv, acc: acc, body: body}, k)), nil
}

type frameLVStarStep struct {
	bindings []ast.LetValuesBinding
	env *runtime.Environment
	body []ast.Expr
}

func (*frameLVStarStep) frameNode() {}

func lvStarStep(bindings []ast.LetValuesBinding, env *runtime.Environment, body []ast.Expr, k *Cont) state {
	if len(bindings) == 0 {
		return evalSeqTail(body, env, k)
	}
	return evaluating(bindings[0].Init, env, push(&frameLVStarStep{bindings: bindings, env: env, body: body}, k))
}

// --- call-with-values ---

type frameCWVReceiver struct{ consumer runtime.Value }

func (*frameCWVReceiver) frameNode() {}

// --- promises ---

// frameForceMemo implements SRFI 45 iterative forcing: chain accumulates
// every promise discovered while forcing, so that a promise whose thunk
// itself forces another promise resolves without growing the host Go stack.
type frameForceMemo struct{ chain []*runtime.Promise }

func (*frameForceMemo) frameNode() {}

// --- dynamic-wind ---

type frameDWThunkDone struct {
	after runtime.Value
	node *windFrame
}

func (*frameDWThunkDone) frameNode() {}

type frameDWAfterDone struct{ result runtime.Value }

func (*frameDWAfterDone) frameNode() {}

// --- parameterize ---

type frameParamRestore struct{ node *windFrame }

func (*frameParamRestore) frameNode() {}

// --- guard / with-exception-handler ---

// frameGuardInstalled marks the dynamic extent of a guard's body so raise
// can find it by walking the continuation; windMark records the
// dynamic-wind depth at installation so an escaping condition correctly
// unwinds any wind/parameterize frames between the raise point and here.
type frameGuardInstalled struct {
	clauses []ast.GuardClause
	varID sym.ID
	env *runtime.Environment
	windMark *windFrame
}

func (*frameGuardInstalled) frameNode() {}

type frameGuardTest struct {
	clauses []ast.GuardClause
	env *runtime.Environment
	sig *runtime.RaiseSignal
}

func (*frameGuardTest) frameNode() {}

func guardTestStep(clauses []ast.GuardClause, env *runtime.Environment, k *Cont, sig *runtime.RaiseSignal) (state, error) {
	if len(clauses) == 0 {
		return state{}, sig
	}
	c := clauses[0]
	if c.Test == nil {
		return evalSeqTail(c.Body, env, k), nil
	}
	return evaluating(c.Test, env, push(&frameGuardTest{clauses: clauses, env: env, sig: sig}, k)), nil
}

type frameWithHandlerInstalled struct {
	handler runtime.Value
	windMark *windFrame
}

func (*frameWithHandlerInstalled) frameNode() {}

// frameWithHandlerGotHandler resumes once the handler expression itself has
// been evaluated to a procedure value: the thunk runs next, with
// frameWithHandlerInstalled marking its dynamic extent so raise.go's
// continuation walk finds this handler.
type frameWithHandlerGotHandler struct {
	thunk ast.Expr
	env *runtime.Environment
	windMark *windFrame
}

func (*frameWithHandlerGotHandler) frameNode() {}

// frameHandlerDone resumes a raise-continuable call site with the handler's
// return value (rk), or, for a non-continuable raise whose handler returned
// normally, turns that into a fresh unhandled-condition signal searched
// from further out.
type frameHandlerDone struct {
	rk *Cont
	continuable bool
}

func (*frameHandlerDone) frameNode() {}

// resume pops one frame's worth of continuation and produces the next
// state. This is the heart of the trampoline's "what happens when a
// subexpression finishes" logic.
func (e *Evaluator) resume(f Frame, value runtime.Value, k *Cont) (state, error) {
	switch fr := f.(type) {
	case *frameGather:
		newDone := make([]runtime.Value, len(fr.done)+1)
		copy(newDone, fr.done)
		newDone[len(fr.done)] = value
		return gatherStep(e, fr.pending, newDone, fr.env, k, fr.onDone)

	case *frameIf:
		if runtime.IsTruthy(value) {
			return evaluating(fr.consequent, fr.env, k), nil
		}
		if fr.alternative != nil {
			return evaluating(fr.alternative, fr.env, k), nil
		}
		return returning(runtime.Unspecified{}, k), nil

	case *frameBegin:
		return evalSeqTail(fr.rest, fr.env, k), nil

	case *frameDefine:
		fr.env.Define(fr.id, value)
		return returning(runtime.Unspecified{}, k), nil

	case *frameSetVar:
		if !fr.env.Set(fr.id, value) {
			msg := "set! of unbound variable: " + fr.name
			if suggestion := runtime.SuggestUnbound(e.Interner, fr.env, fr.name); suggestion != "" {
				msg += " (did you mean " + suggestion + "?)"
			}
			return state{}, runtime.Raise(runtime.NewError("unbound-variable", msg))
		}
		return returning(runtime.Unspecified{}, k), nil

	case *frameAnd:
		if !runtime.IsTruthy(value) {
			return returning(value, k), nil
		}
		return andStep(fr.rest, fr.env, k), nil

	case *frameOr:
		if runtime.IsTruthy(value) {
			return returning(value, k), nil
		}
		return orStep(fr.rest, fr.env, k), nil

	case *frameTest:
		cond := runtime.IsTruthy(value)
		if fr.invert {
			cond = !cond
		}
		if cond {
			return evalSeqTail(fr.body, fr.env, k), nil
		}
		return returning(runtime.Unspecified{}, k), nil

	case *frameCond:
		c := fr.clauses[0]
		if !runtime.IsTruthy(value) {
			return condStep(fr.clauses[1:], fr.env, k), nil
		}
		if c.Arrow != nil {
			return evaluating(c.Arrow, fr.env, push(&frameArrowApply{value: value}, k)), nil
		}
		if len(c.Body) == 0 {
			return returning(value, k), nil
		}
		return evalSeqTail(c.Body, fr.env, k), nil

	case *frameArrowApply:
		return applying(value, []runtime.Value{fr.value}, k), nil

	case *frameCaseKey:
		return caseStep(fr.clauses, value, fr.env, k), nil

	case *frameLetStarStep:
		child := runtime.NewEnclosedEnvironment(fr.env)
		child.Define(fr.bindings[0].ID, value)
		return letStarStep(fr.bindings[1:], child, fr.body, k), nil

	case *frameLetRecStep:
		fr.env.Define(fr.bindings[0].ID, value)
		return letRecStep(fr.bindings[1:], fr.env, fr.body, k), nil

	case *frameLVPlainGather:
		vals := valuesOf(value)
		return lvPlainStep(e, fr.bindings[1:], fr.all, fr.outerEnv, append(fr.acc, vals), fr.body, k)

	case *frameLVStarStep:
		child := runtime.NewEnclosedEnvironment(fr.env)
		if err := bindValuesInto(child, fr.bindings[0].Formals, valuesOf(value), e.evalDefault); err != nil {
			return state{}, wrapSignal(err)
		}
		return lvStarStep(fr.bindings[1:], child, fr.body, k), nil

	case *frameCWVReceiver:
		return applying(fr.consumer, valuesOf(value), k), nil

	case *frameForceMemo:
		return e.forceResume(value, fr.chain, k)

	case *frameDWBeforeDone:
		node := &windFrame{before: nil, after: fr.after, native: false, next: e.wind}
		e.wind = node
		return applying(fr.thunk, nil, push(&frameDWThunkDone{after: fr.after, node: node}, k)), nil

	case *frameDWThunkDone:
		e.wind = fr.node.next
		return applying(fr.after, nil, push(&frameDWAfterDone{result: value}, k)), nil

	case *frameDWAfterDone:
		return returning(fr.result, k), nil

	case *frameParamRestore:
		fr.node.nativeAfter()
		e.wind = fr.node.next
		return returning(value, k), nil

	case *frameGuardInstalled:
		return returning(value, k), nil

	case *frameGuardTest:
		if !runtime.IsTruthy(value) {
			return guardTestStep(fr.clauses[1:], fr.env, k, fr.sig)
		}
		c := fr.clauses[0]
		if c.Arrow != nil {
			return evaluating(c.Arrow, fr.env, push(&frameArrowApply{value: value}, k)), nil
		}
		if len(c.Body) == 0 {
			return returning(value, k), nil
		}
		return evalSeqTail(c.Body, fr.env, k), nil

	case *frameWithHandlerInstalled:
		return returning(value, k), nil

	case *frameWithHandlerGotHandler:
		return evaluating(fr.thunk, fr.env, push(&frameWithHandlerInstalled{handler: value, windMark: fr.windMark}, k)), nil

	case *frameHandlerDone:
		if fr.continuable {
			return returning(value, fr.rk), nil
		}
		return state{}, runtime.Raise(runtime.NewError("condition-unhandled", "exception handler returned from a non-continuable raise"))

	case *frameMakePromiseDone:
		if p, ok := value.(*runtime.Promise); ok {
			return returning(p, k), nil
		}
		return returning(&runtime.Promise{State: runtime.PromiseForced, Result: value}, k), nil

	default:
		return state{}, runtime.Raise(runtime.NewError("internal-error", "unknown continuation frame"))
	}
}

// valuesOf unwraps a returned value into the slice a consumer/binding form
// should see: a *runtime.Values expands to its Items, anything else is a
// single value.
func valuesOf(v runtime.Value) []runtime.Value {
	if vs, ok := v.(*runtime.Values); ok {
		return vs.Items
	}
	return []runtime.Value{v}
}
