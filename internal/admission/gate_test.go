package admission

import (
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	g := New(3)
	for i := 0; i < 3; i++ {
		g.Acquire()
	}
	for i := 0; i < 3; i++ {
		g.Release()
	}
	for i := 0; i < 3; i++ {
		g.Acquire()
	}
}

func TestReleaseBeyondCapacityIsIgnored(t *testing.T) {
	g := New(2)
	for i := 0; i < 5; i++ {
		g.Release()
	}
}

func TestCloseUnblocksAcquire(t *testing.T) {
	g := New(1)
	g.Acquire()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if recover() == nil {
				t.Errorf("Acquire on a closed Gate should panic")
			}
		}()
		g.Acquire()
	}()

	time.Sleep(10 * time.Millisecond)
	g.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Acquire did not unblock after Close")
	}
}

func TestReleaseAfterCloseIsNoop(t *testing.T) {
	g := New(2)
	g.Close()
	g.Release()
}

func TestDoubleCloseIsSafe(t *testing.T) {
	g := New(1)
	g.Close()
	g.Close()
}

func TestConcurrentAcquireRelease(t *testing.T) {
	g := New(4)
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			g.Acquire()
			g.Release()
		}()
	}
	wg.Wait()
}
