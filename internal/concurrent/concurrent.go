// Package concurrent backs the handful of concurrency primitive values
// exposed as library values external to the single-threaded evaluation
// core: a single `Go(f func())` interface with interchangeable backends
// (goroutine, sourcegraph/conc, panjf2000/ants, gammazero/workerpool),
// plus a channel-backed Future and a Semaphore built on golang.org/x/sync.
package concurrent

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	conc "github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"
)

// Pool is the common interface every pool backend satisfies.
type Pool interface {
	Go(f func())
}

type poolWrapper func(f func())

func (p poolWrapper) Go(f func()) { p(f) }

// NewGoroutinePool returns a Pool that spawns an unbounded goroutine per
// task, recovering a panicking task so it can never take down the host
// process — the evaluator's own panic-freedom guarantee
// extends to anything scheduled onto a pool.
func NewGoroutinePool() Pool {
	return poolWrapper(func(f func()) {
		go func() {
			defer func() { recover() }()
			f()
		}()
	})
}

// NewConcPool adapts sourcegraph/conc's Pool, which catches a panicking
// task and re-raises it only from the pool's Wait; this adapter never calls
// Wait. No builtin constructs this pool.
func NewConcPool(maxGoroutines int) Pool {
	p := conc.New()
	if maxGoroutines > 0 {
		p = p.WithMaxGoroutines(maxGoroutines)
	}
	return poolWrapper(func(f func()) { p.Go(f) })
}

// NewAntsPool adapts panjf2000/ants, backing `(make-thread-pool n)` when a
// caller wants a capacity-bounded reusable goroutine pool instead of the
// unbounded default.
func NewAntsPool(size int) (Pool, func(), error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, nil, err
	}
	return poolWrapper(func(f func()) { _ = p.Submit(f) }), p.Release, nil
}

// NewWorkerPool adapts gammazero/workerpool, a FIFO-ordered bounded pool.
// `(make-thread-pool n)` does not use it; it builds an ants pool instead.
func NewWorkerPool(maxWorkers int) (Pool, func()) {
	wp := workerpool.New(maxWorkers)
	return poolWrapper(func(f func()) { wp.Submit(f) }), wp.StopWait
}

// Future is the runtime value `(future expr)` produces: a handle whose
// result becomes available once the background evaluation completes.
// `(future-get f)` blocks until done closes.
type Future struct {
	done   chan struct{}
	result interface{}
	err    error
	once   sync.Once
}

// NewFuture schedules fn on pool and returns a Future that resolves to
// fn's return values once it completes.
func NewFuture(pool Pool, fn func() (interface{}, error)) *Future {
	fut := &Future{done: make(chan struct{})}
	pool.Go(func() {
		defer fut.once.Do(func() { close(fut.done) })
		fut.result, fut.err = fn()
	})
	return fut
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the future has resolved without blocking, backing
// `(future-done? f)`.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Semaphore is a weighted semaphore value, backing the value
// `(make-semaphore n)` returns.
type Semaphore struct {
	sem *semaphore.Weighted
}

func NewSemaphore(n int64) *Semaphore { return &Semaphore{sem: semaphore.NewWeighted(n)} }

func (s *Semaphore) Acquire(ctx context.Context, n int64) error { return s.sem.Acquire(ctx, n) }
func (s *Semaphore) Release(n int64) { s.sem.Release(n) }
func (s *Semaphore) TryAcquire(n int64) bool { return s.sem.TryAcquire(n) }

// AtomicCounter is a lock-free counter value.
type AtomicCounter struct{ v atomic.Int64 }

func (c *AtomicCounter) Add(delta int64) int64 { return c.v.Add(delta) }
func (c *AtomicCounter) Load() int64 { return c.v.Load() }

// Channel is a closable, buffered message queue value.
type Channel struct {
	mu sync.Mutex
	buf chan interface{}
	closed bool
}

func NewChannel(capacity int) *Channel {
	if capacity < 1 {
		capacity = 1
	}
	return &Channel{buf: make(chan interface{}, capacity)}
}

var ErrChannelClosed = channelClosedError{}

type channelClosedError struct{}

func (channelClosedError) Error() string { return "channel-closed" }

func (c *Channel) Send(v interface{}) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrChannelClosed
	}
	c.buf <- v
	return nil
}

// Recv returns (value, true) or (nil, false) once the channel is closed
// and drained: it drains to empty before returning end-of-stream.
func (c *Channel) Recv() (interface{}, bool) {
	v, ok := <-c.buf
	return v, ok
}

// Close is idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.buf)
}
