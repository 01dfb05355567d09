// Package eval is the trampoline evaluator: an explicit
// (Evaluating|Applying|Returning) state machine walked by a driver loop
// instead of by host-language recursion, so that every tail-position
// application reuses its continuation rather than growing it, and so that
// the continuation itself can be captured as a first-class value by
// call/cc.
//
// The (state, *Cont) pair pairs "what we're doing" with "what remains to
// do": an explicit continuation-frame chain takes the place of the host
// call stack, which is what lets call/cc capture and later re-enter it.
package eval

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/runtime"
)

type stateTag int

const (
	stEvaluating stateTag = iota
	stApplying
	stReturning
)

// state is one step of the trampoline: Evaluating(expr, env, k),
// Applying(proc, args, k), or Returning(value, k).
type state struct {
	tag stateTag
	expr ast.Expr
	env *runtime.Environment
	proc runtime.Value
	args []runtime.Value
	value runtime.Value
	k *Cont
}

func evaluating(expr ast.Expr, env *runtime.Environment, k *Cont) state {
	return state{tag: stEvaluating, expr: expr, env: env, k: k}
}

func applying(proc runtime.Value, args []runtime.Value, k *Cont) state {
	return state{tag: stApplying, proc: proc, args: args, k: k}
}

func returning(value runtime.Value, k *Cont) state {
	return state{tag: stReturning, value: value, k: k}
}

// Frame is one pending continuation frame ; the concrete set is small and fixed, defined in frames.go.
type Frame interface{ frameNode() }

// Cont is an immutable linked list of frames. Structural sharing makes it
// cheap to extend for every non-tail expression and cheap to snapshot
// whole for call/cc.
type Cont struct {
	Frame Frame
	Next *Cont
}

func push(f Frame, k *Cont) *Cont { return &Cont{Frame: f, Next: k} }

// Depth reports the number of pending frames; exposed for the tail-safety
// instrumentation hook.
func Depth(k *Cont) int {
	n := 0
	for ; k != nil; k = k.Next {
		n++
	}
	return n
}

// windFrame is the dynamic-wind stack, kept
// separate from Cont because it survives independently of any one
// expression's continuation and must be compared across two different
// continuations' capture points when a jump crosses extents.
type windFrame struct {
	// before/after are Scheme procedures for a real dynamic-wind; native,
	// when set, lets parameterize install/restore a parameter's value stack
	// without a Scheme-level call, since that bookkeeping never needs the
	// general procedure-call machinery.
	before, after runtime.Value
	native        bool
	nativeBefore  func()
	nativeAfter   func()
	next          *windFrame
}
