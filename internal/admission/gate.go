// Package admission provides a fixed-capacity admission gate: a mechanism
// that allows at most N concurrent holders, used by the HTTP demo server to
// bound how many accepted connections are dispatched to the pool at once
// (a concern that belongs to the collaborator, not the pool itself — the
// pool has no notion of "too many in-flight submissions").
//
// It is built on golang.org/x/sync/semaphore.Weighted, the same bounded-
// concurrency primitive the worker-population caps in pkg/pool already use
// — matching the shape the worker pool itself uses for admitting a bounded
// number of concurrent spawns.
package admission

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate hands out up to capacity concurrent slots.
type Gate struct {
	sem         *semaphore.Weighted
	outstanding atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	closed     atomic.Bool
	closeMutex sync.Mutex
}

// New returns a Gate with the given capacity. Panics if capacity is 0: a
// zero-capacity gate can never admit anything and is always a caller bug.
func New(capacity int) *Gate {
	if capacity <= 0 {
		panic("admission: capacity must be greater than 0")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Gate{
		sem:    semaphore.NewWeighted(int64(capacity)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Acquire blocks until a slot is available. Acquiring on a closed gate
// panics: callers must not use a Gate after Close.
func (g *Gate) Acquire() {
	if err := g.sem.Acquire(g.ctx, 1); err != nil {
		panic("admission: Acquire on a closed Gate")
	}
	g.outstanding.Add(1)
}

// Release returns a slot. Releasing after Close, or releasing more slots
// than were ever acquired through this Gate, is silently ignored rather
// than panicking — semaphore.Weighted itself panics on an over-release,
// which this tracks outstanding acquisitions to avoid.
func (g *Gate) Release() {
	if g.closed.Load() {
		return
	}
	for {
		cur := g.outstanding.Load()
		if cur <= 0 {
			return
		}
		if g.outstanding.CompareAndSwap(cur, cur-1) {
			g.sem.Release(1)
			return
		}
	}
}

// Close permanently closes the gate. Any goroutine blocked in Acquire
// unblocks and panics per the contract above; idempotent.
func (g *Gate) Close() {
	g.closeMutex.Lock()
	defer g.closeMutex.Unlock()

	if g.closed.Swap(true) {
		return
	}
	g.cancel()
}
