// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import "time"

// Budget bounds the work one Pump call does. Both limits may be set;
// Pump stops at whichever is reached first. A zero Budget processes
// nothing.
type Budget struct {
	// MaxCompletions caps the completions drained. Zero means no cap
	// (only valid together with TimeSlice).
	MaxCompletions int

	// TimeSlice caps the wall time spent, measured on the store's
	// clock between completions. The completion in progress always
	// finishes, so a time slice alone drains at least one completion
	// when any are queued.
	TimeSlice time.Duration
}

// Steps returns a budget of at most n completions.
func Steps(n int) Budget {
	return Budget{MaxCompletions: n}
}

// TimeSlice returns a budget limited only by elapsed time.
func TimeSlice(d time.Duration) Budget {
	return Budget{TimeSlice: d}
}

// IsZero reports whether the budget permits no work.
func (b Budget) IsZero() bool {
	return b.MaxCompletions <= 0 && b.TimeSlice <= 0
}
