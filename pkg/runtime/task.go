package runtime

import (
	"fmt"
	"sync"
)

// State is a suspendable computation's lifecycle stage.
type State int32

const (
	// Created is the initial state: the caller must explicitly Start or
	// Await it before it runs at all.
	Created State = iota
	// Running means the body is executing or suspended mid-flight.
	Running
	// Completed means the body has returned, successfully or not.
	Completed
)

// core is the non-generic completion/continuation-chaining state shared by
// every Task[T] instantiation. Go generics can't express "a continuation
// slot that closes over some other type parameter" directly, so the slot
// is typed as a plain func() and core is what actually owns it; Task[T]
// layers the typed value/error pair on top.
type core struct {
	sched *Scheduler

	mu           sync.Mutex
	state        State
	started      bool
	continuation func()
	panicHandler func(error)
}

func newCore(sched *Scheduler) *core {
	return &core{sched: sched}
}

// State reports the computation's current lifecycle stage.
func (c *core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *core) markRunning() {
	c.mu.Lock()
	c.state = Running
	c.mu.Unlock()
}

func (c *core) ensureStarted(start func()) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	start()
}

// runGuarded runs fn and, if it panics, reports the panic to the core's
// panicHandler instead of letting it escape onto whatever worker goroutine
// happened to be running the leg. Every continuation this runtime posts to
// the pool is wrapped in this, so a panicking leg fails the task instead of
// taking down a pool worker.
func (c *core) runGuarded(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if c.panicHandler != nil {
				c.panicHandler(fmt.Errorf("runtime: task body panicked: %v", r))
			}
		}
	}()
	fn()
}

// Ctx is handed to a Task's body and is how it reaches the suspension
// primitives: Schedule, SleepFor, and the package-level Await function.
// None of them block the calling goroutine waiting for a future leg to run
// on it — each takes the remaining computation as an explicit continuation
// and posts it to the scheduler, so the continuation genuinely runs on
// whatever worker goroutine the pool hands it to next, not on a goroutine
// parked since before the call.
type Ctx struct {
	core *core
}

// Schedule posts cont onto the pool and returns immediately. The calling
// leg's involvement with the task ends here; cont runs later, driven by
// whichever worker goroutine dequeues it.
func (c *Ctx) Schedule(cont func()) {
	c.core.sched.Post(func() { c.core.runGuarded(cont) })
}

// Task is a one-shot suspendable computation carrying either a produced
// value of type T or a captured failure. Its body is continuation-passing:
// instead of returning (T, error) directly, it is handed a fin callback and
// calls it exactly once, either immediately or from within a continuation
// reached through Schedule, SleepFor, or Await.
type Task[T any] struct {
	*core
	body  func(*Ctx, func(T, error))
	value T
	err   error
}

// NewTask constructs a Task in the Created state. The body does not run
// until Start or Await is called on it.
func NewTask[T any](sched *Scheduler, body func(*Ctx, func(T, error))) *Task[T] {
	return &Task[T]{core: newCore(sched), body: body}
}

func (t *Task[T]) ctx() *Ctx {
	return &Ctx{core: t.core}
}

// runInitial runs the body's first leg directly on the calling goroutine.
// It is reached either via Start (after a hop through the pool) or, for
// detached tasks and SyncWait's inner task, directly on whatever goroutine
// called Go or SyncWait.
func (t *Task[T]) runInitial() {
	t.markRunning()
	var zero T
	t.core.panicHandler = func(err error) { t.finish(zero, err) }

	defer func() {
		if r := recover(); r != nil {
			t.finish(zero, fmt.Errorf("runtime: task body panicked: %v", r))
		}
	}()
	t.body(t.ctx(), t.finish)
}

// finish records the body's outcome and, if something is awaiting this
// task, invokes the stored continuation. It is a no-op past the first
// call: a body (or panic recovery) must invoke it exactly once, but a
// second call is swallowed rather than corrupting an already-read result.
func (t *Task[T]) finish(v T, err error) {
	t.mu.Lock()
	if t.state == Completed {
		t.mu.Unlock()
		return
	}
	t.value, t.err = v, err
	t.state = Completed
	cont := t.continuation
	t.mu.Unlock()

	if cont != nil {
		cont()
	}
}

// Start kicks off the body by posting its initial leg onto the
// scheduler's pool. Calling it more than once, or after Await has already
// started the task, is a no-op.
func (t *Task[T]) Start() {
	t.ensureStarted(func() { t.sched.Post(t.runInitial) })
}

// Result returns the value or failure the body produced. It is only
// meaningful once State() reports Completed; called earlier it returns the
// zero value and a nil error.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Await suspends the calling Task's body until other completes, then
// invokes cont with its result. If other is still Created, Await starts
// it. The resumption always makes one more hop through the pool — whether
// other was already done or finishes later — so the code after an Await
// is itself subject to relocation, the same as after Schedule or SleepFor.
func Await[T any](c *Ctx, other *Task[T], cont func(T, error)) {
	deliver := func(v T, err error) {
		c.core.sched.Post(func() { c.core.runGuarded(func() { cont(v, err) }) })
	}

	other.mu.Lock()
	if other.state == Completed {
		v, err := other.value, other.err
		other.mu.Unlock()
		deliver(v, err)
		return
	}
	other.continuation = func() {
		v, err := other.Result()
		deliver(v, err)
	}
	other.mu.Unlock()

	other.Start()
}
