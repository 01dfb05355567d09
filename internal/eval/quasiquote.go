package eval

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/runtime"
)

// quasiquote.go evaluates a QuasiquoteExpr template. Nesting is already
// resolved structurally by internal/macro's expandQQ: an `,x` at depth > 1
// arrives here pre-wrapped as a QQList headed by the literal symbol
// `unquote` around a further template (rather than a QQUnquote node), so
// this evaluator never needs to track depth itself — a
// QQUnquote/QQUnquoteSplicing node it sees is always a real depth-1
// escape.
//
// Template evaluation runs synchronously (host-stack recursion through
// evalSync) rather than through the trampoline's frame machinery: quoted
// data is bounded by what the programmer wrote in source text, never by
// runtime-controlled recursion depth, so properness of tail calls doesn't
// apply here the way it does to procedure bodies.
func (e *Evaluator) stepQuasiquote(n *ast.QuasiquoteExpr, env *runtime.Environment, k *Cont) (state, error) {
	v, err := e.evalQQ(n.Template, env)
	if err != nil {
		return state{}, wrapSignal(err)
	}
	return returning(v, k), nil
}

func (e *Evaluator) evalQQ(t ast.QQTemplate, env *runtime.Environment) (runtime.Value, error) {
	switch tt := t.(type) {
	case ast.QQLiteral:
		return runtime.FromDatum(tt.Value), nil
	case ast.QQUnquote:
		return e.evalSync(tt.Expr, env)
	case ast.QQUnquoteSplicing:
		// Only reached if unquote-splicing appears outside a list context
		// (malformed, but harmless to evaluate as a plain unquote).
		return e.evalSync(tt.Expr, env)
	case ast.QQNested:
		return e.evalQQ(tt.Inner.Template, env)
	case ast.QQVector:
		items := make([]runtime.Value, 0, len(tt.Items))
		for _, it := range tt.Items {
			v, err := e.evalQQ(it, env)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return &runtime.Vector{Items: items}, nil
	case ast.QQList:
		return e.evalQQList(tt, env)
	default:
		return nil, runtime.NewError("internal-error", "unknown quasiquote template node")
	}
}

func (e *Evaluator) evalQQList(l ast.QQList, env *runtime.Environment) (runtime.Value, error) {
	var items []runtime.Value
	for _, it := range l.Items {
		if sp, ok := it.(ast.QQUnquoteSplicing); ok {
			v, err := e.evalSync(sp.Expr, env)
			if err != nil {
				return nil, err
			}
			slice, proper := runtime.ListToSlice(v)
			if !proper {
				return nil, runtime.NewError("type-error", "unquote-splicing: not a proper list")
			}
			items = append(items, slice...)
			continue
		}
		v, err := e.evalQQ(it, env)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	var tail runtime.Value = runtime.Null{}
	if l.Tail != nil {
		t, err := e.evalQQ(l.Tail, env)
		if err != nil {
			return nil, err
		}
		tail = t
	}
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = &runtime.Pair{Car: items[i], Cdr: result}
	}
	return result, nil
}
