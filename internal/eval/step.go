package eval

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/runtime"
)

// step.go is the stEvaluating dispatch: given an Expr, produce the next
// state, one case per AST node kind.

// step advances one trampoline state. It never recurses into itself for
// non-tail subexpressions: those are handled by pushing a Frame and
// returning an Evaluating state for the subexpression instead.
func (e *Evaluator) step(s state) (state, error) {
	switch s.tag {
	case stEvaluating:
		return e.stepEvaluating(s.expr, s.env, s.k)
	case stApplying:
		return e.stepApplying(s.proc, s.args, s.k)
	case stReturning:
		if s.k == nil {
			return s, nil
		}
		return e.resume(s.k.Frame, s.value, s.k.Next)
	default:
		return state{}, runtime.Raise(runtime.NewError("internal-error", "unknown trampoline state"))
	}
}

func (e *Evaluator) stepEvaluating(expr ast.Expr, env *runtime.Environment, k *Cont) (state, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		return returning(runtime.FromDatum(n.Value), k), nil

	case *ast.Quote:
		return returning(runtime.FromDatum(n.Datum), k), nil

	case *ast.Variable:
		v, ok := env.Get(n.ID)
		if !ok {
			msg := "unbound variable: " + n.Name
			if suggestion := runtime.SuggestUnbound(e.Interner, env, n.Name); suggestion != "" {
				msg += " (did you mean " + suggestion + "?)"
			}
			return state{}, runtime.Raise(runtime.NewError("unbound-variable", msg))
		}
		if _, isUndef := v.(runtime.Undefined); isUndef {
			return state{}, runtime.Raise(runtime.NewError("unbound-variable", "variable referenced before initialization: "+n.Name))
		}
		return returning(v, k), nil

	case *ast.Lambda:
		return returning(&runtime.Closure{Name: n.Name, Formals: n.Formals, Body: n.Body, Env: env}, k), nil

	case *ast.CaseLambda:
		return returning(&runtime.CaseLambdaProc{Clauses: n.Clauses, Env: env}, k), nil

	case *ast.Application:
		exprs := make([]ast.Expr, 0, len(n.Args)+1)
		exprs = append(exprs, n.Operator)
		exprs = append(exprs, n.Args...)
		return gatherStart(e, exprs, env, k, applicationOnDone)

	case *ast.If:
		return evaluating(n.Test, env, push(&frameIf{consequent: n.Consequent, alternative: n.Alternative, env: env}, k)), nil

	case *ast.Begin:
		return evalSeqTail(n.Body, env, k), nil

	case *ast.Define:
		return evaluating(n.Value, env, push(&frameDefine{id: n.ID, env: env}, k)), nil

	case *ast.SetVar:
		return evaluating(n.Value, env, push(&frameSetVar{id: n.ID, name: n.Name, env: env}, k)), nil

	case *ast.And:
		return andStep(n.Tests, env, k), nil

	case *ast.Or:
		return orStep(n.Tests, env, k), nil

	case *ast.When:
		return evaluating(n.Test, env, push(&frameTest{body: n.Body, env: env, invert: false}, k)), nil

	case *ast.Unless:
		return evaluating(n.Test, env, push(&frameTest{body: n.Body, env: env, invert: true}, k)), nil

	case *ast.Cond:
		return condStep(n.Clauses, env, k), nil

	case *ast.Case:
		return evaluating(n.Key, env, push(&frameCaseKey{clauses: n.Clauses, env: env}, k)), nil

	case *ast.Let:
		return e.stepLet(n, env, k)

	case *ast.LetValues:
		if n.Star {
			return lvStarStep(n.Bindings, env, n.Body, k), nil
		}
		return lvPlainStep(e, n.Bindings, n.Bindings, env, nil, n.Body, k)

	case *ast.Delay:
		return returning(&runtime.Promise{State: runtime.PromiseDelayed, Thunk: &runtime.Closure{Body: []ast.Expr{n.Expr}, Env: env}}, k), nil

	case *ast.MakePromise:
		return evaluating(n.Expr, env, push(&frameMakePromiseDone{}, k)), nil

	case *ast.CallWithValues:
		return gatherStart(e, []ast.Expr{n.Consumer, n.Producer}, env, k, cwvOnDone)

	case *ast.DynamicWind:
		return gatherStart(e, []ast.Expr{n.Before, n.Thunk, n.After}, env, k, dynamicWindOnDone)

	case *ast.Parameterize:
		exprs := make([]ast.Expr, 0, len(n.Bindings)*2)
		for _, b := range n.Bindings {
			exprs = append(exprs, b.Parameter, b.Value)
		}
		return gatherStart(e, exprs, env, k, parameterizeOnDone(n.Body, env))

	case *ast.Guard:
		mark := e.wind
		return evalSeqTail(n.Body, env, push(&frameGuardInstalled{clauses: n.Clauses, varID: n.Var, env: env, windMark: mark}, k)), nil

	case *ast.WithExceptionHandler:
		return evaluating(n.Handler, env, push(&frameWithHandlerGotHandler{thunk: n.Thunk, env: env, windMark: e.wind}, k)), nil

	case *ast.QuasiquoteExpr:
		return e.stepQuasiquote(n, env, k)

	case *ast.DefineSyntax:
		// Macro registration already happened at expansion time
		// (internal/macro mutates the SyntaxEnv directly); by the time the
		// evaluator sees this node it is pure bookkeeping.
		return returning(runtime.Unspecified{}, k), nil

	case *ast.LetSyntax:
		// Same reasoning as DefineSyntax: only the body needs evaluating.
		return evalSeqTail(n.Body, env, k), nil

	case *ast.DefineRecordType:
		return e.stepDefineRecordType(n, env, k)

	default:
		return state{}, runtime.Raise(runtime.NewError("internal-error", "unsupported expression node"))
	}
}

func applicationOnDone(e *Evaluator, vals []runtime.Value, k *Cont) (state, error) {
	return applying(vals[0], vals[1:], k), nil
}

func (e *Evaluator) stepLet(n *ast.Let, env *runtime.Environment, k *Cont) (state, error) {
	switch n.Kind {
	case ast.LetStar:
		return letStarStep(n.Bindings, env, n.Body, k), nil
	case ast.LetRec, ast.LetRecStar:
		inner := runtime.NewEnclosedEnvironment(env)
		for _, b := range n.Bindings {
			inner.Define(b.ID, runtime.Undefined{})
		}
		return letRecStep(n.Bindings, inner, n.Body, k), nil
	default: // LetPlain, possibly named
		exprs := make([]ast.Expr, len(n.Bindings))
		for i, b := range n.Bindings {
			exprs[i] = b.Init
		}
		var onDone func(*Evaluator, []runtime.Value, *Cont) (state, error)
		if n.Name != "" {
			nameID := namedLetID(n)
			onDone = namedLetOnDone(n.Bindings, env, n.Body, nameID, n.Name)
		} else {
			onDone = letBindingsOnDone(n.Bindings, env, n.Body)
		}
		return gatherStart(e, exprs, env, k, onDone)
	}
}

// frameMakePromiseDone wraps an already-evaluated expression into a forced
// promise (R7RS `make-promise`, exposed here as syntax so the evaluator can
// build an Eager-state promise directly rather than a thunked one).
type frameMakePromiseDone struct{}

func (*frameMakePromiseDone) frameNode() {}
