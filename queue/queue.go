package queue

// Queue is a generic FIFO queue that can hold any type.
type Queue[T any] struct {
	items []T
}

// New creates and returns a new Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{items: []T{}}
}

// Enqueue adds an element to the end of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.items = append(q.items, item)
}

// Dequeue removes and returns the front element of the queue.
// The boolean indicates whether an element was dequeued (false if the queue was empty).
func (q *Queue[T]) Dequeue() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// TruncateOldest drops elements from the front until at most max remain.
// The newest elements are kept. It returns the number of dropped elements.
func (q *Queue[T]) TruncateOldest(max int) int {
	if max < 0 {
		max = 0
	}
	excess := len(q.items) - max
	if excess <= 0 {
		return 0
	}
	q.items = append([]T(nil), q.items[excess:]...)
	return excess
}

// Clear removes all elements from the queue.
func (q *Queue[T]) Clear() {
	q.items = q.items[:0]
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// IsEmpty returns true if the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return len(q.items) == 0
}
