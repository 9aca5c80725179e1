// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import "sync"

// EventKind distinguishes the two terminal transitions.
type EventKind uint8

const (
	EventReady EventKind = iota + 1
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event announces that an ID reached Ready or Failed. It carries no
// payload: retrieve data with Get or GetBlob. An event is emitted
// exactly once per terminal transition, and only after [Store.State]
// already reports the terminal value.
type Event struct {
	Kind     EventKind
	ID       ID
	TypeName string

	// Error is the failure message for EventFailed, empty otherwise.
	Error string

	// ErrorKind classifies the failure for EventFailed.
	ErrorKind ErrorKind
}

// Subscription receives a copy of every event emitted by [Store.Pump]
// after the subscription was created. Delivery is best effort: an
// event that does not fit in the channel buffer is dropped and counted
// in [Stats].DroppedEvents. [Store.DrainEvents] is the lossless path.
type Subscription struct {
	events chan Event
	once   sync.Once
}

// Events returns the receive side of the subscription. The channel is
// closed by [Store.Unsubscribe] or [Store.Close].
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.events) })
}
