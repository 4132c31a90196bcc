// Package priority_queue is a generic min-priority queue on container/heap.
package priority_queue

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// Item is a handle to a queued value. It stays valid until the value is
// popped or removed.
type Item[V any, P constraints.Ordered] struct {
	object   V
	priority P
	index    int
}

type wrapper[V any, P constraints.Ordered] []*Item[V, P]

func (pq *wrapper[V, P]) Len() int {
	return len(*pq)
}

func (pq *wrapper[V, P]) Less(i, j int) bool {
	return (*pq)[i].priority < (*pq)[j].priority
}

func (pq *wrapper[V, P]) Swap(i, j int) {
	(*pq)[i], (*pq)[j] = (*pq)[j], (*pq)[i]
	(*pq)[i].index = i
	(*pq)[j].index = j
}

func (pq *wrapper[V, P]) Push(x any) {
	item := x.(*Item[V, P])
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *wrapper[V, P]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // avoid memory leak
	item.index = -1 // no longer queued
	*pq = old[0 : n-1]
	return item
}

// Queue represents a priority queue with MINIMUM priority.
// The zero value is an empty queue. Not safe for concurrent use.
type Queue[V any, P constraints.Ordered] struct {
	pq wrapper[V, P]
}

// Len returns the length of the priority queue.
func (pq *Queue[V, P]) Len() int {
	return pq.pq.Len()
}

// Push pushes the 'value' onto the priority queue.
func (pq *Queue[V, P]) Push(value V, priority P) *Item[V, P] {
	ret := &Item[V, P]{
		object:   value,
		priority: priority,
	}
	heap.Push(&pq.pq, ret)
	return ret
}

// Peek returns the minimum element of the priority queue without removing it.
func (pq *Queue[V, P]) Peek() V {
	return pq.pq[0].object
}

// PeekPriority returns the minimum element's priority.
func (pq *Queue[V, P]) PeekPriority() P {
	return pq.pq[0].priority
}

// Pop removes and returns the minimum element of the priority queue.
func (pq *Queue[V, P]) Pop() V {
	return heap.Pop(&pq.pq).(*Item[V, P]).object
}

// Remove removes an item from anywhere in the queue.
// Returns false if the item was already popped or removed.
func (pq *Queue[V, P]) Remove(item *Item[V, P]) bool {
	if item.index < 0 || item.index >= len(pq.pq) || pq.pq[item.index] != item {
		return false
	}
	heap.Remove(&pq.pq, item.index)
	return true
}

// UpdatePriority modifies the priority of the item
func (pq *Queue[V, P]) UpdatePriority(item *Item[V, P], priority P) {
	item.priority = priority
	heap.Fix(&pq.pq, item.index)
}

// Value returns the value of the item
func (item *Item[V, P]) Value() V {
	return item.object
}

// Queued returns true while the item is in a queue.
func (item *Item[V, P]) Queued() bool {
	return item.index >= 0
}

// New creates a new priority queue. Not required to call.
func New[V any, P constraints.Ordered]() Queue[V, P] {
	return Queue[V, P]{wrapper[V, P]{}}
}
