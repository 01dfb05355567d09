package runtime

import "github.com/go-scm/go-scm/internal/concurrent"

// The types below box internal/concurrent's plain Go values as runtime
// Values so the evaluator's builtins can hand them to user code.

type ThreadPool struct {
	Pool concurrent.Pool
	Release func() // nil for the unbounded goroutine/conc pools
}

func (*ThreadPool) valueNode() {}

type FutureValue struct{ F *concurrent.Future }

func (*FutureValue) valueNode() {}

type SemaphoreValue struct{ S *concurrent.Semaphore }

func (*SemaphoreValue) valueNode() {}

type AtomicCounterValue struct{ C *concurrent.AtomicCounter }

func (*AtomicCounterValue) valueNode() {}

type ChannelValue struct{ Ch *concurrent.Channel }

func (*ChannelValue) valueNode() {}
