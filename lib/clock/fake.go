// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// Fake returns a FakeClock set to initial. Time stands still until
// Advance is called (or auto-advance is enabled).
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{current: initial}
	clock.changed = sync.NewCond(&clock.mu)
	return clock
}

// FakeClock is a manual Clock for tests. It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	current time.Time
	pending []*fakeTimer

	autoAdvance bool
	nowStep     time.Duration
	sleeps      int
}

type fakeTimer struct {
	deadline time.Time
	channel  chan time.Time

	// interval is non-zero for tickers, which are rescheduled after
	// firing instead of removed.
	interval time.Duration
	stopped  bool
}

// SetAutoAdvance makes Sleep(d) advance the clock by d and return
// immediately instead of blocking until Advance.
func (c *FakeClock) SetAutoAdvance(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAdvance = enabled
}

// SetNowStep makes every Now call advance the clock by step after
// reading it. Zero disables stepping.
func (c *FakeClock) SetNowStep(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nowStep = step
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	now := c.current
	step := c.nowStep
	c.mu.Unlock()
	if step > 0 {
		c.Advance(step)
	}
	return now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.addLocked(&fakeTimer{deadline: c.current.Add(d), channel: channel})
	return channel
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	timer := &fakeTimer{deadline: c.current.Add(d), channel: channel, interval: d}
	c.addLocked(timer)

	return &Ticker{
		C: channel,
		stopFunc: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			timer.stopped = true
		},
		resetFunc: func(d time.Duration) {
			c.mu.Lock()
			defer c.mu.Unlock()
			timer.interval = d
			timer.deadline = c.current.Add(d)
			if timer.stopped {
				timer.stopped = false
				c.addLocked(timer)
			}
		},
	}
}

// Sleep blocks until the clock has advanced by d. With auto-advance it
// advances the clock itself and returns.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps++
	auto := c.autoAdvance
	c.mu.Unlock()

	if d <= 0 {
		return
	}
	if auto {
		c.Advance(d)
		return
	}
	<-c.After(d)
}

// Sleeps returns how many times Sleep was called.
func (c *FakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// Advance moves the clock forward by d and fires every timer and
// ticker whose deadline was reached, in deadline order. A ticker fires
// at most once per Advance; the extra ticks would be dropped by its
// one-slot channel anyway.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current

	var due, remaining []*fakeTimer
	for _, timer := range c.pending {
		switch {
		case timer.stopped:
		case timer.deadline.After(now):
			remaining = append(remaining, timer)
		default:
			due = append(due, timer)
		}
	}
	for _, timer := range due {
		if timer.interval > 0 {
			for !timer.deadline.After(now) {
				timer.deadline = timer.deadline.Add(timer.interval)
			}
			remaining = append(remaining, timer)
		}
	}
	c.pending = remaining
	c.mu.Unlock()

	slices.SortStableFunc(due, func(a, b *fakeTimer) int {
		return a.deadline.Compare(b.deadline)
	})
	for _, timer := range due {
		select {
		case timer.channel <- now:
		default:
		}
	}
}

// WaitForTimers blocks until at least n timers or tickers are pending.
// Call it before Advance when another goroutine is about to register a
// timer.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.changed.Wait()
	}
}

// Pending returns the number of active timers and tickers.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, timer := range c.pending {
		if !timer.stopped {
			count++
		}
	}
	return count
}

func (c *FakeClock) addLocked(timer *fakeTimer) {
	c.pending = append(c.pending, timer)
	c.changed.Broadcast()
}
