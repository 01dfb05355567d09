package eval

import (
	"github.com/go-scm/go-scm/internal/concurrent"
	"github.com/go-scm/go-scm/internal/runtime"
)

// defaultFuturePool is the pool (future expr) schedules onto when no
// explicit thread-pool argument is given: an unbounded, panic-recovering
// goroutine-per-task pool is a reasonable default for a fire-and-forget
// background evaluation.
var defaultFuturePool = concurrent.NewGoroutinePool()

// stepFuture implements `(future proc)` / `(future proc pool)`: proc is
// applied with no arguments on a background goroutine backed by pool (or
// the package default), immediately returning a *runtime.FutureValue the
// caller can poll or block on with future-get/future-done?.
//
// The spawned goroutine runs on a brand-new *Evaluator sharing this
// evaluator's Global environment but starting with an empty dynamic-wind
// stack, trace, and step counter of its own: multiple evaluator instances
// may run in parallel on distinct threads, each with its own environment
// graph, and a future's whole purpose is to close over bindings visible at
// the point it was created. Those frames, and the top-level Global map
// itself, are shared with the creating evaluator;
// internal/runtime.Environment guards neither with a lock.
func (e *Evaluator) stepFuture(args []runtime.Value, k *Cont) (state, error) {
	if len(args) < 1 || len(args) > 2 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "future expects a procedure and an optional thread pool"))
	}
	proc := args[0]
	pool := defaultFuturePool
	if len(args) == 2 {
		tp, ok := args[1].(*runtime.ThreadPool)
		if !ok {
			return state{}, runtime.Raise(runtime.NewError("type-error", "future: second argument is not a thread pool", args[1]))
		}
		pool = tp.Pool
	}
	sub := &Evaluator{Global: e.Global}
	fut := concurrent.NewFuture(pool, func() (interface{}, error) {
		v, err := sub.applySync(proc, nil)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return returning(&runtime.FutureValue{F: fut}, k), nil
}
