// Package sharedqueue implements the single shared FIFO used by the
// ClassicFixed and ElasticGlobal pool variants: one ordered sequence of work
// items protected by one mutex, which also guards the elastic spawn
// counters so a spawn decision is taken atomically with the enqueue that
// motivated it.
package sharedqueue

import (
	"sync"

	"github.com/eapache/queue"
)

// Queue is a mutex-guarded FIFO of nullary work items, backed by a
// ring-buffer queue instead of a hand-rolled slice so repeated
// enqueue/dequeue cycles under sustained load don't repeatedly reallocate.
type Queue struct {
	mu sync.Mutex
	q  *queue.Queue
}

// New returns an empty shared queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Push appends item to the tail.
func (s *Queue) Push(item func()) {
	s.mu.Lock()
	s.q.Add(item)
	s.mu.Unlock()
}

// Pop removes and returns the head item, if any.
func (s *Queue) Pop() (item func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.q.Length() == 0 {
		return nil, false
	}
	v := s.q.Peek()
	s.q.Remove()
	return v.(func()), true
}

// Len reports the number of queued items.
func (s *Queue) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Length()
}

// Locker exposes the queue's mutex so a pool can build a sync.Cond that
// shares it, the same cond-over-mutex idiom used for idle-worker blocking
// throughout pkg/pool.
func (s *Queue) Locker() sync.Locker { return &s.mu }

// Lock and Unlock expose the queue's own mutex so a caller (the pool's
// submit path) can extend the critical section to cover a spawn-worker
// decision that must be taken atomically with the enqueue it observes.
func (s *Queue) Lock()   { s.mu.Lock() }
func (s *Queue) Unlock() { s.mu.Unlock() }

// PushLocked and PopLocked assume the caller already holds the queue's lock
// via Lock/Unlock above.
func (s *Queue) PushLocked(item func()) {
	s.q.Add(item)
}

func (s *Queue) PopLocked() (item func(), ok bool) {
	if s.q.Length() == 0 {
		return nil, false
	}
	v := s.q.Peek()
	s.q.Remove()
	return v.(func()), true
}

func (s *Queue) LenLocked() int {
	return s.q.Length()
}
