// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import "sync"

// Queue is an unbounded FIFO of messages for one stream. Any number of
// goroutines may Push; one consumer pops or drains.
//
// The notify channel (capacity 1) signals the consumer when new data
// is available. The consumer selects on Notify() alongside its
// context.
type Queue struct {
	mu      sync.Mutex
	entries []Message
	notify  chan struct{}
}

func newQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends a message and signals the consumer.
func (q *Queue) Push(message Message) {
	q.mu.Lock()
	q.entries = append(q.entries, message)
	q.mu.Unlock()

	// Non-blocking signal to the consumer.
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest message. The second result is
// false when the queue is empty.
func (q *Queue) Pop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return Message{}, false
	}
	message := q.entries[0]
	q.entries[0] = Message{} // release text for GC
	q.entries = q.entries[1:]
	return message, true
}

// Drain removes and returns every queued message, oldest first.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil
	}
	drained := q.entries
	q.entries = nil
	return drained
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Notify returns a channel that receives a signal (at most one
// pending) when new data is available.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}
