package runtime

import "time"

// SleepFor starts a detached helper goroutine that sleeps for d and then
// posts cont back onto the scheduler; it returns immediately, and cont
// runs later on whatever worker goroutine picks it up. Timer precision is
// only as good as the Go runtime's own timers; a helper goroutine that
// somehow cannot be started is not a case this runtime surfaces — the
// platform is assumed to always be able to produce one.
func (c *Ctx) SleepFor(d time.Duration, cont func()) {
	go func() {
		time.Sleep(d)
		c.core.sched.Post(func() { c.core.runGuarded(cont) })
	}()
}
