package concurrent_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-scm/go-scm/internal/concurrent"
)

func TestFutureResolvesViaGoroutinePool(t *testing.T) {
	pool := concurrent.NewGoroutinePool()
	fut := concurrent.NewFuture(pool, func() (interface{}, error) {
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := fut.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v != 42 {
		t.Errorf("Wait() = %v, want 42", v)
	}
	if !fut.Done() {
		t.Error("Done() = false after Wait returned")
	}
}

func TestFutureWaitTimesOutOnUnresolved(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	pool := concurrent.NewGoroutinePool()
	fut := concurrent.NewFuture(pool, func() (interface{}, error) {
		<-block
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := fut.Wait(ctx); err == nil {
		t.Error("Wait() = nil error, want context deadline error")
	}
}

func TestSemaphoreAcquireRelease(t *testing.T) {
	sem := concurrent.NewSemaphore(1)
	if !sem.TryAcquire(1) {
		t.Fatal("TryAcquire(1) on fresh semaphore = false")
	}
	if sem.TryAcquire(1) {
		t.Error("TryAcquire(1) while held = true, want false")
	}
	sem.Release(1)
	if !sem.TryAcquire(1) {
		t.Error("TryAcquire(1) after Release = false")
	}
}

func TestAtomicCounter(t *testing.T) {
	var c concurrent.AtomicCounter
	if got := c.Add(5); got != 5 {
		t.Errorf("Add(5) = %d, want 5", got)
	}
	if got := c.Add(-2); got != 3 {
		t.Errorf("Add(-2) = %d, want 3", got)
	}
	if got := c.Load(); got != 3 {
		t.Errorf("Load() = %d, want 3", got)
	}
}

func TestChannelSendRecvClose(t *testing.T) {
	ch := concurrent.NewChannel(2)
	if err := ch.Send("a"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	ch.Close()
	ch.Close() // idempotent

	if err := ch.Send("b"); err != concurrent.ErrChannelClosed {
		t.Errorf("Send after Close = %v, want ErrChannelClosed", err)
	}

	v, ok := ch.Recv()
	if !ok || v != "a" {
		t.Errorf("Recv() = (%v, %v), want (a, true)", v, ok)
	}
	_, ok = ch.Recv()
	if ok {
		t.Error("Recv() after drain = true, want false (end of stream)")
	}
}
