package runtime

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// TestCooperativeFanOut drives a pool of 8 workers,
// 24 detached tasks each looping 5000 times incrementing a shared counter
// and yielding via Schedule between increments, joined with a
// DetachedLatch. The final sum must equal 24*5000 exactly, proving the
// scheduler never loses or duplicates a resumption under contention.
func TestCooperativeFanOut(t *testing.T) {
	sched, _ := newTestScheduler(t, 8)

	const tasks = 24
	const iterations = 5000

	var counter int64
	latch := NewDetachedLatch(tasks)

	for i := 0; i < tasks; i++ {
		Go(sched, func(c *Ctx, fin func(struct{}, error)) {
			var step func(j int)
			step = func(j int) {
				if j >= iterations {
					latch.CountDown()
					fin(struct{}{}, nil)
					return
				}
				atomic.AddInt64(&counter, 1)
				c.Schedule(func() { step(j + 1) })
			}
			step(0)
		})
	}

	latch.Wait()

	if got, want := atomic.LoadInt64(&counter), int64(tasks*iterations); got != want {
		t.Fatalf("counter = %d, want %d", got, want)
	}
}

// TestSleepForHonorsMinimumDelay checks that SleepFor
// must not resume the body before the requested duration has elapsed.
func TestSleepForHonorsMinimumDelay(t *testing.T) {
	sched, _ := newTestScheduler(t, 2)

	const delay = 30 * time.Millisecond
	var elapsed time.Duration

	task := NewTask(sched, func(c *Ctx, fin func(struct{}, error)) {
		t0 := time.Now()
		c.SleepFor(delay, func() {
			elapsed = time.Since(t0)
			fin(struct{}{}, nil)
		})
	})

	if _, err := SyncWait(sched, task); err != nil {
		t.Fatalf("SyncWait: %v", err)
	}
	if elapsed < delay {
		t.Fatalf("resumed after %v, wanted at least %v", elapsed, delay)
	}
}

// TestDetachedTaskFailureInvokesOnFatal exercises the Go[T] detached
// launcher's failure path with an overridden onFatal hook, so the test
// process does not actually get killed by the default zap.Fatal behavior.
func TestDetachedTaskFailureInvokesOnFatal(t *testing.T) {
	_, p := newTestScheduler(t, 2)

	caught := make(chan error, 1)
	sched := NewScheduler(p, WithOnFatal(func(err error) {
		caught <- err
	}))

	want := errors.New("detached failure")
	Go(sched, func(c *Ctx, fin func(struct{}, error)) {
		fin(struct{}{}, want)
	})

	select {
	case got := <-caught:
		if !errors.Is(got, want) {
			t.Fatalf("onFatal got %v, want %v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("onFatal was never invoked")
	}
}
