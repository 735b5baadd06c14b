package pevent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// S1: a manual-reset event created already signaled satisfies a
// zero-timeout wait repeatedly; signaling is sticky until Reset.
func TestManualResetInitialSet(t *testing.T) {
	e := New(true, true)
	defer e.Destroy()

	require.NoError(t, e.WaitTimeout(0))
	require.NoError(t, e.WaitTimeout(0))
}

// S2: an auto-reset event created already signaled satisfies exactly one
// zero-timeout wait, then times out.
func TestAutoResetDrains(t *testing.T) {
	e := New(false, true)
	defer e.Destroy()

	require.NoError(t, e.WaitTimeout(0))
	require.ErrorIs(t, e.WaitTimeout(0), ErrTimeout)
}

// Invariant 5: initial-state round trip for both reset modes.
func TestInitialStateRoundTrip(t *testing.T) {
	for _, manual := range []bool{true, false} {
		set := New(manual, true)
		unset := New(manual, false)
		require.NoError(t, set.WaitTimeout(0))
		require.ErrorIs(t, unset.WaitTimeout(0), ErrTimeout)
		set.Destroy()
		unset.Destroy()
	}
}

// Invariant 6: SetEvent on a manual-reset event wakes every current
// waiter, not just one.
func TestNoWaiterStarvationOnBroadcast(t *testing.T) {
	e := New(true, false)
	defer e.Destroy()

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]error, waiters)
	ready := make(chan struct{}, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ready <- struct{}{}
			results[i] = e.Wait(context.Background())
		}(i)
	}
	for i := 0; i < waiters; i++ {
		<-ready
	}
	time.Sleep(10 * time.Millisecond) // let goroutines reach cond.wait

	require.NoError(t, e.Set())
	wg.Wait()

	for i, err := range results {
		require.NoErrorf(t, err, "waiter %d", i)
	}
}

// Invariant 7: a timed-out wait waited at least as long as requested.
func TestTimeoutIsLowerBoundOnly(t *testing.T) {
	e := New(false, false)
	defer e.Destroy()

	const budget = 30 * time.Millisecond
	start := time.Now()
	err := e.WaitTimeout(budget)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, elapsed, budget)
}

// Pulse wakes current waiters without leaving the event signaled for a
// later comer.
func TestPulseDoesNotStick(t *testing.T) {
	e := New(true, false)
	defer e.Destroy()

	done := make(chan error, 1)
	go func() {
		done <- e.Wait(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, e.Pulse())
	require.NoError(t, <-done)

	require.ErrorIs(t, e.WaitTimeout(0), ErrTimeout)
}

// Destroy panics if a registration is still live on the event, since that
// would mean a multi-wait coordinator is relying on an event that is
// about to stop existing.
func TestDestroyPanicsWithLiveWaiters(t *testing.T) {
	e := New(false, false)
	other := New(false, false)
	defer other.Destroy()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = WaitForMultipleEvents(context.Background(), []*Event{e, other}, true)
	}()
	time.Sleep(10 * time.Millisecond)

	require.Panics(t, func() { e.Destroy() })

	require.NoError(t, other.Set())
	require.NoError(t, e.Set())
	<-done
}

// TestWaitAnyFairnessUnderContention is a scaled-down version of the
// 16-producer/1-consumer stress scenario: with producers continuously
// re-signaling an auto-reset event, a consumer polling on a generous
// (non-zero) timeout should never observe a spurious timeout. The
// iteration count here is far below the production scenario's 200000 to
// keep this fast; it exercises the same lock/claim paths.
func TestWaitAnyFairnessUnderContention(t *testing.T) {
	const producers = 16
	const consumerIters = 500

	e := New(false, false)
	defer e.Destroy()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = e.Set()
				}
			}
		}()
	}

	successes := 0
	for i := 0; i < consumerIters; i++ {
		if err := e.WaitTimeout(100 * time.Millisecond); err == nil {
			successes++
		}
		_ = e.Set()
	}
	close(stop)
	wg.Wait()

	require.Equal(t, consumerIters, successes)
}
