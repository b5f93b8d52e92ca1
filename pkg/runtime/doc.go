// Package runtime is a thin cooperative-scheduling adapter built on top of
// pkg/pool: it turns any pool.Pool into an executor for suspendable
// computations. A Scheduler holds a non-owning reference to a pool; a Task
// is a one-shot suspendable computation that can await another Task, call
// Schedule to relocate onto a pool worker, or call SleepFor to resume after
// a timer elapses.
//
// Go has no first-class stackless coroutines, so a Task's body is written
// in continuation-passing style instead of as a compiler-generated state
// machine: Schedule, SleepFor, and Await each take the remainder of the
// body as an explicit func() and post it onto the scheduler rather than
// parking the calling goroutine. The leg that runs after a suspension point
// is therefore whichever worker goroutine the pool next hands it to, never
// a goroutine that has been blocked since before the call.
package runtime
