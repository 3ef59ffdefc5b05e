package tagging

import "fmt"

// A RecencyList keeps the ways of a set ordered from the least recently used
// (front) to the most recently used (back). Ways that have never been written
// are not in the list.
type RecencyList struct {
	order []int
}

// NewRecencyList creates an empty list that can hold up to capacity ways.
func NewRecencyList(capacity int) RecencyList {
	return RecencyList{order: make([]int, 0, capacity)}
}

// Touch marks the way as the most recently used one.
func (l *RecencyList) Touch(way int) {
	for i, w := range l.order {
		if w == way {
			copy(l.order[i:], l.order[i+1:])
			l.order[len(l.order)-1] = way

			return
		}
	}

	if l.IsFull() {
		panic(fmt.Sprintf("recency list is full, cannot add way %d", way))
	}

	l.order = append(l.order, way)
}

// Victim returns the least recently used way. It must only be called when
// every way of the set has been written.
func (l *RecencyList) Victim() int {
	if !l.IsFull() {
		panic("victim requested from a recency list that is not full")
	}

	return l.order[0]
}

// Len returns the number of ways that have been written.
func (l *RecencyList) Len() int {
	return len(l.order)
}

// Cap returns the number of ways of the set.
func (l *RecencyList) Cap() int {
	return cap(l.order)
}

// IsFull returns true if all the ways have been written.
func (l *RecencyList) IsFull() bool {
	return len(l.order) == cap(l.order)
}

// Order returns a copy of the list, least recently used first.
func (l *RecencyList) Order() []int {
	order := make([]int, len(l.order))
	copy(order, l.order)

	return order
}

// Reset forgets all the ways.
func (l *RecencyList) Reset() {
	l.order = l.order[:0]
}
