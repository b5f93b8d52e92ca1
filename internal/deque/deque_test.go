package deque

import "testing"

func TestPushFrontPopFrontIsLIFO(t *testing.T) {
	d := New[int]()
	d.PushFront(1)
	d.PushFront(2)
	d.PushFront(3)

	for _, want := range []int{3, 2, 1} {
		got, ok := d.PopFront()
		if !ok || got != want {
			t.Fatalf("PopFront() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	if _, ok := d.PopFront(); ok {
		t.Fatalf("PopFront() on empty deque should report ok=false")
	}
}

func TestTryPopBackIsFIFORelativeToOwnerPushes(t *testing.T) {
	d := New[int]()
	d.PushFront(1)
	d.PushFront(2)
	d.PushFront(3) // front-to-back: 3, 2, 1

	got, ok := d.TryPopBack()
	if !ok || got != 1 {
		t.Fatalf("TryPopBack() = (%d, %v), want (1, true)", got, ok)
	}
}

func TestTryPopBackOnEmptyFails(t *testing.T) {
	d := New[int]()
	if _, ok := d.TryPopBack(); ok {
		t.Fatalf("TryPopBack() on empty deque should report ok=false")
	}
}

func TestPushBackThenPopFrontIsFIFO(t *testing.T) {
	d := New[int]()
	d.PushBack(1)
	d.PushBack(2)

	got, ok := d.PopFront()
	if !ok || got != 1 {
		t.Fatalf("PopFront() = (%d, %v), want (1, true)", got, ok)
	}
}

func TestLen(t *testing.T) {
	d := New[int]()
	if d.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", d.Len())
	}
	d.PushBack(1)
	d.PushBack(2)
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
}
