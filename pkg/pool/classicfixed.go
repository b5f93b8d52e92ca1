package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/taskforge/taskforge/internal/sharedqueue"
)

// ClassicFixed is a fixed-size pool: exactly N workers share one FIFO
// queue. Workers block on a condition variable guarded by the queue's own
// mutex; submit appends to the tail and wakes one worker. A worker leaves
// only once shutdown has been signaled and the queue is empty, so whatever
// was already queued at Close time always finishes running first.
type ClassicFixed struct {
	id     string
	queue  *sharedqueue.Queue
	cond   *sync.Cond
	closed atomic.Bool
	wg     sync.WaitGroup

	logger *zap.Logger
	onFail func(workerID int, recovered any)
}

// NewClassicFixed constructs a ClassicFixed pool with exactly n workers.
// n must be greater than 0.
func NewClassicFixed(n int, opts ...Option) (Pool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: ClassicFixed requires n > 0, got %d", ErrInvalidConfiguration, n)
	}

	s := applyOptions(opts)
	p := &ClassicFixed{
		id:     newPoolID(),
		queue:  sharedqueue.New(),
		logger: s.logger,
		onFail: s.onWorkItemFail,
	}
	p.cond = sync.NewCond(p.queue.Locker())

	p.logger.Debug("classic fixed pool starting", zap.String("pool_id", p.id), zap.Int("workers", n))

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i)
	}

	return p, nil
}

// Submit appends item to the shared queue and wakes one worker.
func (p *ClassicFixed) Submit(item WorkItem) error {
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
	p.queue.Unlock()

	p.cond.Signal()
	return nil
}

// Close signals shutdown, wakes every worker, and waits for all of them to
// drain the queue and exit.
func (p *ClassicFixed) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.queue.Lock()
	p.cond.Broadcast()
	p.queue.Unlock()

	p.wg.Wait()
	p.logger.Debug("classic fixed pool closed", zap.String("pool_id", p.id))
	return nil
}

func (p *ClassicFixed) worker(id int) {
	defer p.wg.Done()

	for {
		p.queue.Lock()
		for p.queue.LenLocked() == 0 && !p.closed.Load() {
			p.cond.Wait()
		}

		if p.closed.Load() && p.queue.LenLocked() == 0 {
			p.queue.Unlock()
			return
		}

		item, ok := p.queue.PopLocked()
		p.queue.Unlock()
		if !ok {
			continue
		}

		runContained(item, id, p.logger, p.onFail)
	}
}
