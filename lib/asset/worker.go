// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"sync"
	"sync/atomic"
)

// workerPool runs jobs with bounded parallelism. Each submitted job
// gets its own goroutine that waits for a slot, so submit never
// blocks the caller.
type workerPool struct {
	slots chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup

	// inFlight counts jobs submitted and not yet finished or dropped.
	inFlight atomic.Int64
}

func newWorkerPool(size int) *workerPool {
	return &workerPool{
		slots: make(chan struct{}, size),
		done:  make(chan struct{}),
	}
}

// submit schedules run. It returns false if the pool is closed.
func (p *workerPool) submit(run func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}

	p.running.Add(1)
	p.inFlight.Add(1)
	go func() {
		defer p.running.Done()
		defer p.inFlight.Add(-1)

		select {
		case p.slots <- struct{}{}:
		case <-p.done:
			return
		}
		defer func() { <-p.slots }()

		// Close may have won the race for this slot.
		select {
		case <-p.done:
			return
		default:
		}
		run()
	}()
	return true
}

func (p *workerPool) pending() int {
	return int(p.inFlight.Load())
}

// close stops queued jobs from starting and waits for running ones.
func (p *workerPool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()

	p.running.Wait()
}
