package runtime

import "sync"

// SyncWait bridges a blocking caller into the cooperative world: it builds a
// small inner task that awaits target, records the result under a mutex,
// and signals a condition variable the outer caller blocks on. This is the
// only sanctioned way to cross from blocking code into a Task chain at this
// runtime's boundary.
//
// It returns the value target produced if target completes without
// failure, or its captured error otherwise.
func SyncWait[T any](sched *Scheduler, target *Task[T]) (T, error) {
	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	done := false
	var value T
	var failure error

	inner := NewTask[struct{}](sched, func(c *Ctx, fin func(struct{}, error)) {
		Await(c, target, func(v T, err error) {
			mu.Lock()
			value, failure = v, err
			done = true
			mu.Unlock()
			cond.Broadcast()

			fin(struct{}{}, nil)
		})
	})

	inner.ensureStarted(inner.runInitial)

	mu.Lock()
	for !done {
		cond.Wait()
	}
	mu.Unlock()

	return value, failure
}
