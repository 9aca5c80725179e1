// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"sync"
	"time"
)

// completion is the outcome of one import job. Exactly one of payload
// and err is meaningful.
type completion struct {
	id      ID
	payload payload
	err     error

	bytesRead  int64
	ioTime     time.Duration
	importTime time.Duration
}

// completionQueue is the multi-producer, single-consumer FIFO between
// workers and Pump. Once closed, pushes are discarded.
type completionQueue struct {
	mu     sync.Mutex
	items  []completion
	head   int
	closed bool
}

func (q *completionQueue) push(item completion) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
}

func (q *completionQueue) pop() (completion, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == len(q.items) {
		return completion{}, false
	}
	item := q.items[q.head]
	q.items[q.head] = completion{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		remaining := copy(q.items, q.items[q.head:])
		clear(q.items[remaining:])
		q.items = q.items[:remaining]
		q.head = 0
	}
	return item, true
}

func (q *completionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// close discards queued items and rejects future pushes.
func (q *completionQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
	q.head = 0
}
