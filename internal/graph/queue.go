package graph

import "container/heap"

// Queue is a min-priority queue: lower priority values dequeue first.
// Equal priorities dequeue in heap order, which is not insertion order.
type Queue[T any] struct {
	items queueItems[T]
}

type queueItem[T any] struct {
	value    T
	priority float64
}

// queueItems implements heap.Interface over an owned slice
type queueItems[T any] []queueItem[T]

func (q queueItems[T]) Len() int { return len(q) }

func (q queueItems[T]) Less(i, j int) bool {
	return q[i].priority < q[j].priority
}

func (q queueItems[T]) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *queueItems[T]) Push(x any) {
	*q = append(*q, x.(queueItem[T]))
}

func (q *queueItems[T]) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = queueItem[T]{}
	*q = old[0 : n-1]
	return item
}

// NewQueue creates an empty queue
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue adds value with the given priority
func (q *Queue[T]) Enqueue(value T, priority float64) {
	heap.Push(&q.items, queueItem[T]{value: value, priority: priority})
}

// Dequeue removes and returns the lowest-priority value.
// ok is false when the queue is empty.
func (q *Queue[T]) Dequeue() (value T, priority float64, ok bool) {
	if len(q.items) == 0 {
		return value, 0, false
	}
	item := heap.Pop(&q.items).(queueItem[T])
	return item.value, item.priority, true
}

// Peek returns the lowest-priority value without removing it
func (q *Queue[T]) Peek() (value T, priority float64, ok bool) {
	if len(q.items) == 0 {
		return value, 0, false
	}
	return q.items[0].value, q.items[0].priority, true
}

// IsEmpty reports whether the queue holds no values
func (q *Queue[T]) IsEmpty() bool {
	return len(q.items) == 0
}

// Size returns the number of queued values
func (q *Queue[T]) Size() int {
	return len(q.items)
}
