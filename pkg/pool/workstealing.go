package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/taskforge/taskforge/internal/deque"
	"github.com/taskforge/taskforge/internal/gls"
)

// WorkStealing is a fixed-size pool of N workers, each with its own deque
// instead of one shared FIFO. An owning worker pushes and pops its own
// front (LIFO: work forked from inside a worker runs on that worker next,
// preserving cache locality and depth-first order). An idle worker steals
// from another worker's back (FIFO relative to that worker's own pushes),
// which is the classic bias toward stealing older, larger subtrees.
//
// Submit called from outside any worker goroutine routes round-robin
// across the N deques. Submit called from inside a worker goroutine of
// this same pool (the fork case: a work item submitting more work) always
// lands on that worker's own deque front, using internal/gls to recover
// that ambient identity without a context parameter.
type WorkStealing struct {
	id  string
	seq uint64

	deques []*deque.Deque[WorkItem]

	mu      sync.Mutex
	cond    *sync.Cond
	pending int // guarded by mu: total items across all deques not yet popped
	rrNext  int // guarded by mu

	closed atomic.Bool
	wg     sync.WaitGroup

	logger *zap.Logger
	onFail func(workerID int, recovered any)
}

// NewWorkStealing constructs a WorkStealing pool with exactly n workers.
// n must be greater than 0.
func NewWorkStealing(n int, opts ...Option) (Pool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: WorkStealing requires n > 0, got %d", ErrInvalidConfiguration, n)
	}

	s := applyOptions(opts)
	p := &WorkStealing{
		id:     newPoolID(),
		seq:    newPoolSeq(),
		deques: make([]*deque.Deque[WorkItem], n),
		logger: s.logger,
		onFail: s.onWorkItemFail,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.deques {
		p.deques[i] = deque.New[WorkItem]()
	}

	p.logger.Debug("work stealing pool starting", zap.String("pool_id", p.id), zap.Int("workers", n))

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker(i)
	}

	return p, nil
}

// Submit routes item onto the ambient worker's own deque front if called
// from inside one of this pool's workers, otherwise round-robin onto a
// deque's back.
func (p *WorkStealing) Submit(item WorkItem) error {
	if item == nil {
		return nil
	}
	if p.closed.Load() {
		return ErrShutdownInProgress
	}

	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return ErrShutdownInProgress
	}

	if workerID, ok := gls.SelfWorkerID(p.seq); ok {
		p.deques[workerID].PushFront(item)
	} else {
		idx := p.rrNext % len(p.deques)
		p.rrNext++
		p.deques[idx].PushBack(item)
	}
	p.pending++
	p.mu.Unlock()

	p.cond.Signal()
	return nil
}

// Close signals shutdown, wakes every worker, and waits for them to drain
// every deque before returning.
func (p *WorkStealing) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("work stealing pool closed", zap.String("pool_id", p.id))
	return nil
}

func (p *WorkStealing) worker(id int) {
	gls.Register(p.seq, id)
	defer gls.Unregister(p.seq)
	defer p.wg.Done()

	for {
		item, ok := p.deques[id].PopFront()
		if !ok {
			item, ok = p.steal(id)
		}

		if ok {
			p.mu.Lock()
			p.pending--
			p.mu.Unlock()
			runContained(item, id, p.logger, p.onFail)
			continue
		}

		p.mu.Lock()
		for p.pending == 0 && !p.closed.Load() {
			p.cond.Wait()
		}
		exit := p.closed.Load() && p.pending == 0
		p.mu.Unlock()
		if exit {
			return
		}
	}
}

// steal scans every other worker's deque, starting just past id, for a
// stealable item. It never blocks: a locked or empty victim deque is
// simply skipped.
func (p *WorkStealing) steal(id int) (WorkItem, bool) {
	n := len(p.deques)
	for i := 1; i < n; i++ {
		victim := (id + i) % n
		if item, ok := p.deques[victim].TryPopBack(); ok {
			return item, true
		}
	}
	return nil, false
}
