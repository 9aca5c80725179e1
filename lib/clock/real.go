// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// wallClock is stateless, so every Real() shares one value.
var wallClock Clock = realClock{}

// Real returns the process wall clock. The store and the frame host
// default to it when their configuration names no clock.
func Real() Clock { return wallClock }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) Sleep(d time.Duration)                  { time.Sleep(d) }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewTicker adapts a *time.Ticker; its channel already drops ticks a
// slow frame loop misses.
func (realClock) NewTicker(d time.Duration) *Ticker {
	wrapped := time.NewTicker(d)
	return &Ticker{C: wrapped.C, stopFunc: wrapped.Stop, resetFunc: wrapped.Reset}
}
