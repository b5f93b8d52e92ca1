// Package gls provides the goroutine-local equivalent of the thread-local
// worker identity described for the work-stealing pool variants: a worker's
// persistent goroutine registers "I am worker N of pool P" once, on entry,
// and callers elsewhere ask "is the calling goroutine a worker of pool P,
// and if so which one?" without that information being passed explicitly.
//
// Go intentionally does not expose a stable goroutine-id API, unlike a C++
// thread_local. We approximate it the same way a handful of tracing
// libraries do: parse the goroutine id out of a small runtime.Stack dump.
// This is safe here specifically because a pool worker's goroutine never
// hands its loop off to another goroutine and unregisters when it exits, so
// the id is a stable key for as long as the worker runs.
package gls

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

type key struct {
	poolID uint64
	goID   uint64
}

var (
	mu       sync.RWMutex
	identity = map[key]int{}
)

// Register associates the calling goroutine with workerID for poolID. Call
// once, at the very top of a worker's loop function, before it does
// anything else.
func Register(poolID uint64, workerID int) {
	mu.Lock()
	identity[key{poolID, goroutineID()}] = workerID
	mu.Unlock()
}

// Unregister removes the calling goroutine's association. Call on worker
// exit so a retired slot's goroutine id cannot shadow a future occupant.
func Unregister(poolID uint64) {
	mu.Lock()
	delete(identity, key{poolID, goroutineID()})
	mu.Unlock()
}

// SelfWorkerID reports whether the calling goroutine is a registered worker
// of poolID, and if so, its worker index.
func SelfWorkerID(poolID uint64) (int, bool) {
	mu.RLock()
	id, ok := identity[key{poolID, goroutineID()}]
	mu.RUnlock()
	return id, ok
}

// CurrentID returns the calling goroutine's numeric id, for callers outside
// this package that need a cheap "am I still on the same goroutine"
// comparison (the cooperative runtime's tests use this to check that a
// continuation actually relocated).
func CurrentID() uint64 {
	return goroutineID()
}

// goroutineID extracts the numeric id the runtime prints at the head of a
// "goroutine N [running]:" stack dump. It never fails: on any parse error
// it returns 0. The pools pass a non-zero poolID (a process-unique
// sequence number from pkg/pool's newPoolSeq).
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]

	sp := bytes.IndexByte(b, ' ')
	if sp < 0 {
		return 0
	}

	id, err := strconv.ParseUint(string(b[:sp]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
