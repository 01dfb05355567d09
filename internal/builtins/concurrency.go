package builtins

import (
	"context"

	"github.com/go-scm/go-scm/internal/concurrent"
	"github.com/go-scm/go-scm/internal/runtime"
)

// CategoryConcurrent groups the concurrency primitive constructors that
// expose concurrency as library values external to the single-threaded
// evaluator core.
const CategoryConcurrent Category = "concurrent"

// registerConcurrency wires the constructors for the concurrency primitive
// values: thread pools, futures, semaphores, atomic counters, and channels.
// `future` itself (which must apply a user procedure on the pool) is
// dispatched from internal/eval like map/call-with-output-string; these
// entries bind the ordinary constructors and inspectors that never need to
// re-enter the trampoline.
func registerConcurrency(r *Registry) {
	r.register("make-thread-pool", CategoryConcurrent, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		size := 0
		if len(a) == 1 {
			n, err := asNumber(a[0], "make-thread-pool")
			if err != nil {
				return nil, err
			}
			size = int(n.Int.Int64())
		}
		if size <= 0 {
			return &runtime.ThreadPool{Pool: concurrent.NewGoroutinePool()}, nil
		}
		pool, release, err := concurrent.NewAntsPool(size)
		if err != nil {
			return nil, runtime.NewError("io-error", "make-thread-pool: "+err.Error())
		}
		return &runtime.ThreadPool{Pool: pool, Release: release}, nil
	})
	r.register("thread-pool?", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.ThreadPool)
		return runtime.Boolean(ok), nil
	})
	r.register("thread-pool-close!", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		tp, ok := a[0].(*runtime.ThreadPool)
		if !ok {
			return nil, runtime.NewError("type-error", "thread-pool-close!: not a thread pool", a[0])
		}
		if tp.Release != nil {
			tp.Release()
		}
		return runtime.Unspecified{}, nil
	})

	// future is special-cased in internal/eval (needs to apply a procedure
	// argument on a background goroutine, so it must re-enter the
	// trampoline via applySync from inside that goroutine's own
	// evaluation). This entry only binds the name.
	r.register("future", CategoryConcurrent, 1, 2, nil)
	r.register("future?", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.FutureValue)
		return runtime.Boolean(ok), nil
	})
	r.register("future-done?", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		fv, ok := a[0].(*runtime.FutureValue)
		if !ok {
			return nil, runtime.NewError("type-error", "future-done?: not a future", a[0])
		}
		return runtime.Boolean(fv.F.Done()), nil
	})
	r.register("future-get", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		fv, ok := a[0].(*runtime.FutureValue)
		if !ok {
			return nil, runtime.NewError("type-error", "future-get: not a future", a[0])
		}
		v, err := fv.F.Wait(context.Background())
		if err != nil {
			return nil, runtime.NewError("io-error", "future-get: "+err.Error())
		}
		result, _ := v.(runtime.Value)
		if result == nil {
			return runtime.Unspecified{}, nil
		}
		return result, nil
	})

	r.register("make-semaphore", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "make-semaphore")
		if err != nil {
			return nil, err
		}
		return &runtime.SemaphoreValue{S: concurrent.NewSemaphore(n.Int.Int64())}, nil
	})
	r.register("semaphore-acquire!", CategoryConcurrent, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		sv, ok := a[0].(*runtime.SemaphoreValue)
		if !ok {
			return nil, runtime.NewError("type-error", "semaphore-acquire!: not a semaphore", a[0])
		}
		n := int64(1)
		if len(a) == 2 {
			num, err := asNumber(a[1], "semaphore-acquire!")
			if err != nil {
				return nil, err
			}
			n = num.Int.Int64()
		}
		if err := sv.S.Acquire(context.Background(), n); err != nil {
			return nil, runtime.NewError("io-error", "semaphore-acquire!: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("semaphore-release!", CategoryConcurrent, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		sv, ok := a[0].(*runtime.SemaphoreValue)
		if !ok {
			return nil, runtime.NewError("type-error", "semaphore-release!: not a semaphore", a[0])
		}
		n := int64(1)
		if len(a) == 2 {
			num, err := asNumber(a[1], "semaphore-release!")
			if err != nil {
				return nil, err
			}
			n = num.Int.Int64()
		}
		sv.S.Release(n)
		return runtime.Unspecified{}, nil
	})
	r.register("semaphore-try-acquire?", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		sv, ok := a[0].(*runtime.SemaphoreValue)
		if !ok {
			return nil, runtime.NewError("type-error", "semaphore-try-acquire?: not a semaphore", a[0])
		}
		return runtime.Boolean(sv.S.TryAcquire(1)), nil
	})

	r.register("make-atomic-counter", CategoryConcurrent, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		c := &runtime.AtomicCounterValue{C: &concurrent.AtomicCounter{}}
		if len(a) == 1 {
			n, err := asNumber(a[0], "make-atomic-counter")
			if err != nil {
				return nil, err
			}
			c.C.Add(n.Int.Int64())
		}
		return c, nil
	})
	r.register("atomic-counter-add!", CategoryConcurrent, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		cv, ok := a[0].(*runtime.AtomicCounterValue)
		if !ok {
			return nil, runtime.NewError("type-error", "atomic-counter-add!: not an atomic counter", a[0])
		}
		delta := int64(1)
		if len(a) == 2 {
			n, err := asNumber(a[1], "atomic-counter-add!")
			if err != nil {
				return nil, err
			}
			delta = n.Int.Int64()
		}
		return runtime.NewExactInt(cv.C.Add(delta)), nil
	})
	r.register("atomic-counter-value", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		cv, ok := a[0].(*runtime.AtomicCounterValue)
		if !ok {
			return nil, runtime.NewError("type-error", "atomic-counter-value: not an atomic counter", a[0])
		}
		return runtime.NewExactInt(cv.C.Load()), nil
	})

	r.register("make-channel", CategoryConcurrent, 0, 1, func(a []runtime.Value) (runtime.Value, error) {
		capacity := 16
		if len(a) == 1 {
			n, err := asNumber(a[0], "make-channel")
			if err != nil {
				return nil, err
			}
			capacity = int(n.Int.Int64())
		}
		return &runtime.ChannelValue{Ch: concurrent.NewChannel(capacity)}, nil
	})
	r.register("channel-send!", CategoryConcurrent, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		cv, ok := a[0].(*runtime.ChannelValue)
		if !ok {
			return nil, runtime.NewError("type-error", "channel-send!: not a channel", a[0])
		}
		if err := cv.Ch.Send(a[1]); err != nil {
			return nil, runtime.NewError("io-error", "channel-send!: "+err.Error())
		}
		return runtime.Unspecified{}, nil
	})
	r.register("channel-recv!", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		cv, ok := a[0].(*runtime.ChannelValue)
		if !ok {
			return nil, runtime.NewError("type-error", "channel-recv!: not a channel", a[0])
		}
		v, ok := cv.Ch.Recv()
		if !ok {
			return runtime.EOFObject{}, nil
		}
		rv, _ := v.(runtime.Value)
		if rv == nil {
			return runtime.Unspecified{}, nil
		}
		return rv, nil
	})
	r.register("channel-close!", CategoryConcurrent, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		cv, ok := a[0].(*runtime.ChannelValue)
		if !ok {
			return nil, runtime.NewError("type-error", "channel-close!: not a channel", a[0])
		}
		cv.Ch.Close()
		return runtime.Unspecified{}, nil
	})
}
