package queue

import "testing"

func TestFIFOOrder(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 3; i++ {
		q.Enqueue(i)
	}
	for want := 1; want <= 3; want++ {
		got, ok := q.Dequeue()
		if !ok || got != want {
			t.Fatalf("Dequeue: got %d (%v), want %d", got, ok, want)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue on empty queue reported success")
	}
}

func TestTruncateOldestKeepsNewest(t *testing.T) {
	q := New[int]()
	for i := 1; i <= 10; i++ {
		q.Enqueue(i)
	}

	dropped := q.TruncateOldest(4)
	if dropped != 6 {
		t.Errorf("dropped: got %d, want 6", dropped)
	}
	if q.Len() != 4 {
		t.Fatalf("len after truncate: %d", q.Len())
	}
	for want := 7; want <= 10; want++ {
		got, _ := q.Dequeue()
		if got != want {
			t.Errorf("retained element: got %d, want %d", got, want)
		}
	}
}

func TestTruncateOldestNoop(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	if dropped := q.TruncateOldest(5); dropped != 0 {
		t.Errorf("truncate under cap dropped %d", dropped)
	}
	if q.Len() != 1 {
		t.Errorf("len changed: %d", q.Len())
	}
}

func TestClear(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Clear()
	if !q.IsEmpty() {
		t.Error("queue not empty after Clear")
	}
}
