// SPDX-License-Identifier: BSD-3-Clause

// Package pcktqueue implements the fixed-capacity packet ring buffer used
// between an InStream/OutStream and its loader (spec §3). Capacity is
// fixed at construction; Push on a full queue fails rather than growing.
//
// A plain head==tail comparison cannot distinguish "empty" from "full" in
// a ring buffer, so the queue keeps an explicit isEmpty flag alongside the
// head and tail cursors, mirroring the original source's approach.
package pcktqueue

import (
	"sync"

	"github.com/cordet/pus/pkg/pckt"
)

// Queue is a fixed-capacity FIFO of pckt.Packet handles.
type Queue struct {
	mu      sync.Mutex
	items   []pckt.Packet
	head    int
	tail    int
	isEmpty bool
}

// New constructs a Queue with room for cap packets. Panics if cap is not
// positive.
func New(cap int) *Queue {
	if cap <= 0 {
		panic("pcktqueue: capacity must be positive")
	}
	return &Queue{items: make([]pckt.Packet, cap), isEmpty: true}
}

// Push appends pk to the queue's tail. Returns false if the queue is full.
func (q *Queue) Push(pk pckt.Packet) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.isEmpty && q.head == q.tail {
		return false
	}
	q.items[q.tail] = pk
	q.tail = (q.tail + 1) % len(q.items)
	q.isEmpty = false
	return true
}

// Pop removes and returns the packet at the queue's head. Returns
// (nil, false) if the queue is empty.
func (q *Queue) Pop() (pckt.Packet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isEmpty {
		return nil, false
	}
	pk := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	if q.head == q.tail {
		q.isEmpty = true
	}
	return pk, true
}

// Len returns the number of packets currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len()
}

func (q *Queue) len() int {
	if q.isEmpty {
		return 0
	}
	if q.tail > q.head {
		return q.tail - q.head
	}
	return len(q.items) - q.head + q.tail
}

// Cap returns the queue's fixed capacity.
func (q *Queue) Cap() int { return len(q.items) }

// IsFull reports whether the queue has no room for another Push.
func (q *Queue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.isEmpty && q.head == q.tail
}

// IsEmpty reports whether the queue has no packets to Pop.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isEmpty
}
