package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/taskforge/taskforge/internal/sharedqueue"
)

// ElasticGlobal is an elastic pool backed by one shared FIFO: it starts
// with min workers and grows up to max as backlog appears, retiring
// workers above min after idleTimeout of no work. A spawn decision is
// taken under the same mutex that guards the enqueue that motivated it, so
// it can never race the spawn budget.
type ElasticGlobal struct {
	id          string
	min, max    int
	idleTimeout time.Duration

	queue *sharedqueue.Queue
	cond  *sync.Cond

	// active and idle are guarded by queue's own mutex (Lock/Unlock),
	// never accessed outside of it: idle is updated only around the timed
	// wait and is never visible to producers without the queue mutex.
	active, idle int

	sem *semaphore.Weighted

	closed       atomic.Bool
	wg           sync.WaitGroup
	nextWorkerID atomic.Int64

	logger *zap.Logger
	onFail func(workerID int, recovered any)
}

// NewElasticGlobal constructs an elastic pool bounded by [min, max] with
// the given idle-retirement timeout. min and max must both be > 0 and
// min <= max.
func NewElasticGlobal(min, max int, idleTimeout time.Duration, opts ...Option) (Pool, error) {
	if min <= 0 || max <= 0 || min > max {
		return nil, fmt.Errorf("%w: ElasticGlobal requires 0 < min <= max, got min=%d max=%d", ErrInvalidConfiguration, min, max)
	}
	if idleTimeout < 0 {
		return nil, fmt.Errorf("%w: ElasticGlobal idleTimeout must be >= 0, got %s", ErrInvalidConfiguration, idleTimeout)
	}

	s := applyOptions(opts)
	p := &ElasticGlobal{
		id:          newPoolID(),
		min:         min,
		max:         max,
		idleTimeout: idleTimeout,
		queue:       sharedqueue.New(),
		sem:         semaphore.NewWeighted(int64(max)),
		logger:      s.logger,
		onFail:      s.onWorkItemFail,
	}
	p.cond = sync.NewCond(p.queue.Locker())

	// Reserve min permits once, up front, for the workers we're about to
	// start; this can never fail since the semaphore's capacity is max
	// and max >= min.
	if err := p.sem.Acquire(context.Background(), int64(min)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	p.active = min

	p.logger.Debug("elastic global pool starting",
		zap.String("pool_id", p.id), zap.Int("min", min), zap.Int("max", max))

	p.wg.Add(min)
	for i := 0; i < min; i++ {
		go p.worker(p.newWorkerID())
	}

	return p, nil
}

func (p *ElasticGlobal) newWorkerID() int {
	return int(p.nextWorkerID.Add(1) - 1)
}

// Submit appends item to the shared queue. If no worker is currently idle
// and the pool is below max, it spawns one additional worker, accounted
// for under the queue mutex before releasing it.
func (p *ElasticGlobal) Submit(item WorkItem) error {
	if item == nil {
		return nil
	}
	if p.closed.Load() {
		return ErrShutdownInProgress
	}

	p.queue.Lock()
	if p.closed.Load() {
		p.queue.Unlock()
		return ErrShutdownInProgress
	}
	p.queue.PushLocked(item)

	spawn := false
	var workerID int
	if p.idle == 0 && p.active < p.max {
		if p.sem.TryAcquire(1) {
			p.active++
			spawn = true
			workerID = p.newWorkerID()
		}
	}
	p.queue.Unlock()

	p.cond.Signal()

	if spawn {
		p.logger.Debug("elastic global pool spawning worker on backlog",
			zap.String("pool_id", p.id), zap.Int("worker_id", workerID))
		p.wg.Add(1)
		go p.worker(workerID)
	}

	return nil
}

// Close signals shutdown, wakes every worker, and waits for all of them to
// drain the queue and exit.
func (p *ElasticGlobal) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.queue.Lock()
	p.cond.Broadcast()
	p.queue.Unlock()

	p.wg.Wait()
	p.logger.Debug("elastic global pool closed", zap.String("pool_id", p.id))
	return nil
}

func (p *ElasticGlobal) worker(id int) {
	for {
		p.queue.Lock()

		for {
			if p.closed.Load() && p.queue.LenLocked() == 0 {
				p.active--
				p.queue.Unlock()
				p.wg.Done()
				return
			}
			if p.queue.LenLocked() > 0 {
				break
			}

			p.idle++
			p.waitIdle()
			p.idle--

			if p.closed.Load() && p.queue.LenLocked() == 0 {
				p.active--
				p.queue.Unlock()
				p.wg.Done()
				return
			}
			if p.queue.LenLocked() == 0 && p.active > p.min {
				p.active--
				p.sem.Release(1)
				p.queue.Unlock()
				p.logger.Debug("elastic global worker retiring on idle timeout",
					zap.String("pool_id", p.id), zap.Int("worker_id", id))
				p.wg.Done()
				return
			}
		}

		item, ok := p.queue.PopLocked()
		p.queue.Unlock()
		if !ok {
			continue
		}

		runContained(item, id, p.logger, p.onFail)
	}
}

// waitIdle blocks the calling worker (which must hold queue's mutex) until
// either Submit/Close signals the condition variable, or idleTimeout
// elapses. sync.Cond has no built-in timed wait, so we arm a one-shot timer
// that broadcasts on our behalf if nothing else does first; the caller
// distinguishes "woke because of real work" from "woke because of timeout"
// simply by re-checking the queue afterward; the queue can only be
// non-empty if a real Submit happened, since Close never enqueues.
func (p *ElasticGlobal) waitIdle() {
	timer := time.AfterFunc(p.idleTimeout, func() {
		p.queue.Lock()
		p.cond.Broadcast()
		p.queue.Unlock()
	})
	p.cond.Wait()
	timer.Stop()
}
