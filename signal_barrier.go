package erlike

import (
	"context"
	"sync/atomic"
	"time"
)

// SignalBarrier is a single-waiter park/unpark primitive: one goroutine blocks in Await
// (or AwaitTimeout) and any number of other goroutines may call Signal to wake it.
//
// Unlike a condition variable, a SignalBarrier needs no associated lock: the mailbox uses
// it to couple a lock-free producer's Enqueue to the single consumer's blocking Take
// without ever taking a mutex on the hot enqueue path.
//
// At most one goroutine may be parked in Await/AwaitTimeout at a time; a second,
// concurrent call fails with ErrConcurrentAwait. Signal is idempotent when no waiter is
// parked. A waiter may observe a spurious wakeup (most commonly: Signal fired for a
// message a concurrent poll already consumed); callers must re-test their wait condition
// after Await returns, never assume a message is waiting.
type SignalBarrier struct {
	waiting atomic.Pointer[chan struct{}]
}

// Await blocks until Signal is called or ctx is done, whichever comes first. It returns
// ErrConcurrentAwait if another goroutine is already parked on this barrier, or
// ErrInterrupted if ctx was done before a signal arrived.
func (b *SignalBarrier) Await(ctx context.Context) error {
	ch := make(chan struct{}, 1)
	if !b.waiting.CompareAndSwap(nil, &ch) {
		return ErrConcurrentAwait
	}
	defer b.waiting.CompareAndSwap(&ch, nil)

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ErrInterrupted
	}
}

// AwaitTimeout is like Await but bounded by timeout. It returns the unused portion of
// timeout (always >= 0) alongside any error. A zero or already-expired timeout returns
// immediately without parking.
func (b *SignalBarrier) AwaitTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		return 0, nil
	}

	ch := make(chan struct{}, 1)
	if !b.waiting.CompareAndSwap(nil, &ch) {
		return timeout, ErrConcurrentAwait
	}
	defer b.waiting.CompareAndSwap(&ch, nil)

	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		remaining := timeout - time.Since(start)
		if remaining < 0 {
			remaining = 0
		}
		return remaining, nil
	case <-timer.C:
		return 0, nil
	case <-ctx.Done():
		return 0, ErrInterrupted
	}
}

// Signal wakes the parked waiter, if any. It is a no-op when no goroutine is currently
// parked in Await/AwaitTimeout.
func (b *SignalBarrier) Signal() {
	ch := b.waiting.Swap(nil)
	if ch == nil {
		return
	}
	select {
	case *ch <- struct{}{}:
	default:
	}
}
