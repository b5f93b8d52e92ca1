package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewAdvancedElasticStealingRejectsBadBounds(t *testing.T) {
	cases := []struct {
		name     string
		min, max int
	}{
		{"zero min", 0, 4},
		{"zero max", 2, 0},
		{"min>max", 4, 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewAdvancedElasticStealing(c.min, c.max, 50*time.Millisecond); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("min=%d max=%d: got %v, want ErrInvalidConfiguration", c.min, c.max, err)
			}
		})
	}
}

// TestAdvancedElasticStealingNestedBurst exercises the same nested-fork
// shape as WorkStealing but against the elastic variant: min=2, max=8,
// idle_timeout=80ms, 16 items each submitting 10 sub-items that sleep 1ms;
// counter equals 160.
func TestAdvancedElasticStealingNestedBurst(t *testing.T) {
	p, err := NewAdvancedElasticStealing(2, 8, 80*time.Millisecond)
	if err != nil {
		t.Fatalf("NewAdvancedElasticStealing: %v", err)
	}
	defer p.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	const outer, inner = 16, 10
	wg.Add(outer * inner)

	for i := 0; i < outer; i++ {
		if err := p.Submit(func() {
			for j := 0; j < inner; j++ {
				if err := p.Submit(func() {
					time.Sleep(time.Millisecond)
					counter.Add(1)
					wg.Done()
				}); err != nil {
					t.Errorf("nested Submit: %v", err)
					wg.Done()
				}
			}
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	wg.Wait()
	if got, want := counter.Load(), int64(outer*inner); got != want {
		t.Fatalf("counter = %d, want %d", got, want)
	}
}

// TestAdvancedElasticStealingSpawnsUnderBacklog checks that given a burst
// of K >> min independent CPU-bound items with no idle workers, active
// climbs until it reaches min(K, max).
func TestAdvancedElasticStealingSpawnsUnderBacklog(t *testing.T) {
	p, err := NewAdvancedElasticStealing(1, 6, time.Second)
	if err != nil {
		t.Fatalf("NewAdvancedElasticStealing: %v", err)
	}
	defer p.Close()

	aes := p.(*AdvancedElasticStealing)

	release := make(chan struct{})
	const k = 40
	for i := 0; i < k; i++ {
		if err := p.Submit(func() { <-release }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		aes.mu.Lock()
		active := aes.active
		aes.mu.Unlock()
		if active == aes.max {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("active = %d after deadline, want %d", active, aes.max)
		case <-time.After(time.Millisecond):
		}
	}

	close(release)
}

// TestAdvancedElasticStealingRetiresToMinAfterIdle checks the same
// retire-to-min-after-idle behavior ElasticGlobal has, exercised against
// this variant.
func TestAdvancedElasticStealingRetiresToMinAfterIdle(t *testing.T) {
	idleTimeout := 30 * time.Millisecond
	p, err := NewAdvancedElasticStealing(1, 6, idleTimeout)
	if err != nil {
		t.Fatalf("NewAdvancedElasticStealing: %v", err)
	}
	defer p.Close()

	aes := p.(*AdvancedElasticStealing)

	release := make(chan struct{})
	const k = 30
	for i := 0; i < k; i++ {
		if err := p.Submit(func() { <-release }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	time.Sleep(4 * idleTimeout)

	aes.mu.Lock()
	active := aes.active
	aes.mu.Unlock()
	if active > aes.min {
		t.Fatalf("active = %d after quiescent interval, want <= min (%d)", active, aes.min)
	}
}

func TestAdvancedElasticStealingSubmitAfterCloseFails(t *testing.T) {
	p, err := NewAdvancedElasticStealing(1, 2, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewAdvancedElasticStealing: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrShutdownInProgress) {
		t.Fatalf("Submit after Close: got %v, want ErrShutdownInProgress", err)
	}
}
