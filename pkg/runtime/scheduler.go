package runtime

import (
	"go.uber.org/zap"

	"github.com/taskforge/taskforge/pkg/pool"
)

// Scheduler is a thin adapter that makes a pool.Pool usable as an executor
// for suspendable computations. It holds a non-owning reference to the
// pool — a Go interface value is already reference-like — and is freely
// copied.
type Scheduler struct {
	pool    pool.Pool
	logger  *zap.Logger
	onFatal func(error)
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnFatal overrides what happens when a detached task's body fails
// unhandled. The default logs at Fatal via zap and terminates the process
// — deliberate, not softened, since a detached task has no holder able to
// observe its failure any other way. Tests that need to observe the
// failure instead of dying should override this.
func WithOnFatal(fn func(error)) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.onFatal = fn
		}
	}
}

// NewScheduler builds a Scheduler over p.
func NewScheduler(p pool.Pool, opts ...Option) *Scheduler {
	s := &Scheduler{pool: p, logger: zap.NewNop()}
	s.onFatal = func(err error) {
		s.logger.Fatal("runtime: detached task failed; terminating process", zap.Error(err))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Post submits fn to the underlying pool directly, without going through a
// Task. Timers (SleepFor) and bridges (SyncWait) use this primitive to
// re-enter the pool once their wait condition is satisfied.
//
// If the pool has already begun shutdown, the submission is dropped and
// logged at Warn — a dropped resumption simply never completes. Scheduling
// work onto a pool that is concurrently being closed is a caller error
// this runtime does not attempt to paper over.
func (s *Scheduler) Post(fn func()) {
	if err := s.pool.Submit(fn); err != nil {
		s.logger.Warn("runtime: post after pool shutdown; resumption dropped", zap.Error(err))
	}
}

func (s *Scheduler) fail(err error) {
	s.onFatal(err)
}
