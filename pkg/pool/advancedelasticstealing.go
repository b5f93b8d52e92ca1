package pool

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taskforge/taskforge/internal/deque"
	"github.com/taskforge/taskforge/internal/gls"
)

// AdvancedElasticStealing is the union of ElasticGlobal and WorkStealing: up
// to max per-worker deques, work stealing exactly as WorkStealing, plus
// elastic sizing between min and max. On external submission, if no worker
// is idle and the pool is below max, it spawns an additional worker at the
// first currently-inactive slot; idle-timeout retirement only fires once
// active > min and the global pending count is zero.
type AdvancedElasticStealing struct {
	id          string
	seq         uint64
	min, max    int
	idleTimeout time.Duration

	deques []*deque.Deque[WorkItem]

	mu      sync.Mutex
	cond    *sync.Cond
	pending int // guarded by mu: total items across all deques not yet popped
	rrNext  int // guarded by mu

	running []bool        // guarded by mu: slot i currently occupied by a live worker
	done    []chan struct{} // guarded by mu: closed when the slot's occupant has fully exited
	active  int           // guarded by mu
	idle    int           // guarded by mu

	closed atomic.Bool
	wg     sync.WaitGroup

	logger *zap.Logger
	onFail func(workerID int, recovered any)
}

// NewAdvancedElasticStealing constructs a pool bounded by [min, max] with
// per-worker deques, work stealing, and idle-timeout retirement above min.
func NewAdvancedElasticStealing(min, max int, idleTimeout time.Duration, opts ...Option) (Pool, error) {
	if min <= 0 || max <= 0 || min > max {
		return nil, fmt.Errorf("%w: AdvancedElasticStealing requires 0 < min <= max, got min=%d max=%d", ErrInvalidConfiguration, min, max)
	}
	if idleTimeout < 0 {
		return nil, fmt.Errorf("%w: AdvancedElasticStealing idleTimeout must be >= 0, got %s", ErrInvalidConfiguration, idleTimeout)
	}

	s := applyOptions(opts)
	p := &AdvancedElasticStealing{
		id:          newPoolID(),
		seq:         newPoolSeq(),
		min:         min,
		max:         max,
		idleTimeout: idleTimeout,
		deques:      make([]*deque.Deque[WorkItem], max),
		running:     make([]bool, max),
		done:        make([]chan struct{}, max),
		logger:      s.logger,
		onFail:      s.onWorkItemFail,
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.deques {
		p.deques[i] = deque.New[WorkItem]()
	}

	p.logger.Debug("advanced elastic stealing pool starting",
		zap.String("pool_id", p.id), zap.Int("min", min), zap.Int("max", max))

	p.active = min
	p.wg.Add(min)
	for i := 0; i < min; i++ {
		p.running[i] = true
		d := make(chan struct{})
		p.done[i] = d
		go p.worker(i, d)
	}

	return p, nil
}

// Submit routes item onto the ambient worker's own deque front if called
// from inside one of this pool's workers; otherwise it round-robins across
// all max deques and, if no worker is idle and the pool has room to grow,
// spawns an additional worker at the first inactive slot.
func (p *AdvancedElasticStealing) Submit(item WorkItem) error {
	if item == nil {
		return nil
	}
	if p.closed.Load() {
		return ErrShutdownInProgress
	}

	if workerID, ok := gls.SelfWorkerID(p.seq); ok {
		p.mu.Lock()
		if p.closed.Load() {
			p.mu.Unlock()
			return ErrShutdownInProgress
		}
		p.deques[workerID].PushFront(item)
		p.pending++
		p.mu.Unlock()
		p.cond.Signal()
		return nil
	}

	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return ErrShutdownInProgress
	}
	idx := p.rrNext % len(p.deques)
	p.rrNext++
	p.deques[idx].PushBack(item)
	p.pending++

	spawnSlot := -1
	if p.idle == 0 && p.active < p.max {
		if slot, ok := p.firstInactiveSlotLocked(); ok {
			spawnSlot = slot
		}
	}
	p.mu.Unlock()

	p.cond.Signal()

	if spawnSlot >= 0 {
		p.trySpawn(spawnSlot)
	}
	return nil
}

// firstInactiveSlotLocked returns the lowest slot index not currently
// running, matching find_inactive_ws_slot from the original source. Callers
// must hold p.mu.
func (p *AdvancedElasticStealing) firstInactiveSlotLocked() (int, bool) {
	for i, running := range p.running {
		if !running {
			return i, true
		}
	}
	return 0, false
}

// trySpawn occupies slot with a fresh worker, first waiting for any prior
// occupant to fully exit. The prior occupant already cleared running[slot]
// under p.mu in a finished critical section before exiting, so waiting on
// its done channel while still holding p.mu cannot deadlock — but it can
// briefly delay this Submit call if that goroutine hasn't quite returned
// yet. This is a deliberate spawn/join latency tradeoff, kept for fidelity
// with the original's spawn_ws_worker rather than deferred to a reaper.
func (p *AdvancedElasticStealing) trySpawn(slot int) {
	p.mu.Lock()
	if p.running[slot] || p.active >= p.max {
		p.mu.Unlock()
		return
	}
	if prev := p.done[slot]; prev != nil {
		<-prev
	}

	p.running[slot] = true
	p.active++
	d := make(chan struct{})
	p.done[slot] = d
	p.mu.Unlock()

	p.logger.Debug("advanced elastic stealing pool spawning worker on backlog",
		zap.String("pool_id", p.id), zap.Int("worker_id", slot))

	p.wg.Add(1)
	go p.worker(slot, d)
}

// Close signals shutdown, wakes every worker, and waits for all of them
// (current and any still-retiring) to drain and exit before returning.
func (p *AdvancedElasticStealing) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("advanced elastic stealing pool closed", zap.String("pool_id", p.id))
	return nil
}

func (p *AdvancedElasticStealing) worker(id int, done chan struct{}) {
	gls.Register(p.seq, id)
	defer gls.Unregister(p.seq)

	for {
		if item, ok := p.deques[id].PopFront(); ok {
			p.mu.Lock()
			p.pending--
			p.mu.Unlock()
			runContained(item, id, p.logger, p.onFail)
			continue
		}
		if item, ok := p.steal(id); ok {
			p.mu.Lock()
			p.pending--
			p.mu.Unlock()
			runContained(item, id, p.logger, p.onFail)
			continue
		}

		p.mu.Lock()
		if p.closed.Load() && p.pending == 0 {
			p.retireLocked(id)
			p.mu.Unlock()
			break
		}

		p.idle++
		timedOut := p.waitIdleLocked()
		p.idle--

		if p.closed.Load() && p.pending == 0 {
			p.retireLocked(id)
			p.mu.Unlock()
			break
		}
		if timedOut && p.pending == 0 && p.active > p.min {
			p.logger.Debug("advanced elastic stealing worker retiring on idle timeout",
				zap.String("pool_id", p.id), zap.Int("worker_id", id))
			p.retireLocked(id)
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()
	}

	p.wg.Done()
	close(done)
}

// retireLocked clears id's running marker and decrements active, guarded
// against double-retirement. Callers must hold p.mu.
func (p *AdvancedElasticStealing) retireLocked(id int) {
	if p.running[id] {
		p.running[id] = false
		p.active--
	}
}

// waitIdleLocked blocks the calling worker, which must hold p.mu, until
// either Submit/Close signals the condition variable or idleTimeout
// elapses, returning whether it woke because of the timeout.
func (p *AdvancedElasticStealing) waitIdleLocked() bool {
	timedOut := false
	timer := time.AfterFunc(p.idleTimeout, func() {
		p.mu.Lock()
		timedOut = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	for !p.closed.Load() && p.pending == 0 && !timedOut {
		p.cond.Wait()
	}
	timer.Stop()
	return timedOut
}

// steal scans every other slot's deque, starting just past id, for a
// stealable item. It never blocks: a locked or empty victim deque is simply
// skipped, including slots with no live worker (their deque may still hold
// a round-robin-routed item waiting for that slot to spawn or be stolen).
func (p *AdvancedElasticStealing) steal(id int) (WorkItem, bool) {
	n := len(p.deques)
	for i := 1; i < n; i++ {
		victim := (id + i) % n
		if item, ok := p.deques[victim].TryPopBack(); ok {
			return item, true
		}
	}
	return nil, false
}
