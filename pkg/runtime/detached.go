package runtime

// Go launches a detached task: body starts running immediately on the
// calling goroutine — detached work is not posted onto the scheduler
// first, it runs inline until its first suspension. It is never held and
// cannot be awaited; if it finishes with a non-nil error, the scheduler's
// onFatal hook runs, which by default logs at Fatal and terminates the
// process. This is deliberate: without a holder, nothing else can observe
// the failure, and silently dropping it would mask bugs in the layer most
// likely to have them.
func Go[T any](sched *Scheduler, body func(*Ctx, func(T, error))) {
	t := NewTask(sched, body)
	t.continuation = func() {
		if _, err := t.Result(); err != nil {
			sched.fail(err)
		}
	}
	t.ensureStarted(t.runInitial)
}
